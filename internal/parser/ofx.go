package parser

import (
	"bytes"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// ParseOFX emits one raw row per statement transaction across every
// account in the document. OFX amounts are already numeric, so the
// normalizer skips locale parsing for them.
func ParseOFX(data []byte) ([]Raw, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Reason: "malformed OFX document", Err: err}
	}

	var rows []Raw
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, t := range stmt.BankTranList.Transactions {
			rows = append(rows, ofxRow(t))
		}
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, t := range stmt.BankTranList.Transactions {
			rows = append(rows, ofxRow(t))
		}
	}

	if len(rows) == 0 {
		return nil, &ParseError{Reason: "no transactions in OFX document"}
	}
	return rows, nil
}

func ofxRow(t ofxgo.Transaction) Raw {
	amount, err := decimal.NewFromString(t.TrnAmt.FloatString(2))
	if err != nil {
		amount = decimal.Zero
	}

	desc := strings.TrimSpace(string(t.Memo))
	if desc == "" {
		desc = strings.TrimSpace(string(t.Name))
	}

	return Raw{
		Date:        t.DtPosted.Time,
		Description: desc,
		Amount:      amount,
		AmountSet:   true,
	}
}
