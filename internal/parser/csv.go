package parser

import (
	"encoding/csv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Header candidates for each logical column, covering the known bank
// export dialects. Headers are compared lowercased and trimmed.
var (
	dateColumns        = []string{"data de compra", "data", "data_compra", "data da compra"}
	descColumns        = []string{"descrição", "descricao", "histórico", "historico", "estabelecimento"}
	amountColumns      = []string{"valor (em r$)", "valor", "valor (r$)", "valor r$", "valor (em reais)"}
	installmentColumns = []string{"parcela", "parcelas"}
	cardColumns        = []string{"final do cartão", "final do cartao", "final_cartao", "cartao", "cartão"}
)

const (
	dateLayoutBR  = "02/01/2006"
	dateLayoutISO = "2006-01-02"
)

// ParseCSV parses a semicolon-delimited statement export. All fields are
// read as text; numeric interpretation is left to the normalizer so that
// locale formatting is never coerced by the reader.
func ParseCSV(data []byte) ([]Raw, error) {
	text, err := decodeStatement(data)
	if err != nil {
		return nil, &ParseError{Reason: "undecodable file content", Err: err}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Reason: "malformed CSV", Err: err}
	}
	if len(records) == 0 {
		return nil, &ParseError{Reason: "empty file"}
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	dateIdx := resolveColumn(header, dateColumns)
	descIdx := resolveColumn(header, descColumns)
	amountIdx := resolveColumn(header, amountColumns)
	installmentIdx := resolveColumn(header, installmentColumns)
	cardIdx := resolveColumn(header, cardColumns)

	var missing []string
	if dateIdx < 0 {
		missing = append(missing, "date")
	}
	if descIdx < 0 {
		missing = append(missing, "description")
	}
	if amountIdx < 0 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return nil, &ParseError{Reason: "missing required columns: " + strings.Join(missing, ", ")}
	}

	var rows []Raw
	for _, rec := range records[1:] {
		dateRaw := field(rec, dateIdx)
		descRaw := field(rec, descIdx)
		amountRaw := field(rec, amountIdx)

		if dateRaw == "" && descRaw == "" && amountRaw == "" {
			continue
		}

		date, ok := parseRowDate(dateRaw)
		if !ok {
			// Unparsable dates skip the row, they never fail the file.
			continue
		}

		rows = append(rows, Raw{
			Date:        date,
			Description: descRaw,
			AmountText:  amountRaw,
			Installment: field(rec, installmentIdx),
			CardLast4:   field(rec, cardIdx),
		})
	}

	if len(rows) == 0 {
		return nil, &ParseError{Reason: "no usable transaction rows"}
	}
	return rows, nil
}

// decodeStatement tries the known statement encodings in order until one
// decodes without error.
func decodeStatement(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err == nil {
			return string(decoded), nil
		}
	}
	return "", &ParseError{Reason: "no known encoding matched"}
}

func resolveColumn(header, candidates []string) int {
	for i, h := range header {
		for _, c := range candidates {
			if h == c {
				return i
			}
		}
	}
	return -1
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func parseRowDate(s string) (time.Time, bool) {
	for _, layout := range []string{dateLayoutBR, dateLayoutISO} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
