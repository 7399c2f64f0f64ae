package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS><CODE>0<SEVERITY>INFO</STATUS>
<DTSERVER>20240115120000
<LANGUAGE>POR
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS><CODE>0<SEVERITY>INFO</STATUS>
<STMTRS>
<CURDEF>BRL
<BANKACCTFROM>
<BANKID>0260
<ACCTID>12345
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101
<DTEND>20240131
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110
<TRNAMT>-89.90
<FITID>f1
<MEMO>MERCADO CENTRAL
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240112
<TRNAMT>1234.56
<FITID>f2
<NAME>PIX RECEBIDO
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestParseOFX(t *testing.T) {
	rows, err := ParseOFX([]byte(sampleOFX))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "MERCADO CENTRAL", rows[0].Description)
	assert.Equal(t, "-89.9", rows[0].Amount.String())
	assert.True(t, rows[0].AmountSet)
	assert.Equal(t, 10, rows[0].Date.Day())

	// Name is the fallback when Memo is absent.
	assert.Equal(t, "PIX RECEBIDO", rows[1].Description)
	assert.Equal(t, "1234.56", rows[1].Amount.String())
}

func TestParseOFXGarbage(t *testing.T) {
	_, err := ParseOFX([]byte("definitely not an OFX file"))
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "malformed OFX")
}
