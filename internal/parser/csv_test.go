package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVCheckingDialect(t *testing.T) {
	data := []byte("Data;Histórico;Valor\n" +
		"10/01/2024;PIX RECEBIDO JOAO;1.234,56\n" +
		"11/01/2024;MERCADO CENTRAL;-89,90\n")

	rows, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "PIX RECEBIDO JOAO", rows[0].Description)
	assert.Equal(t, "1.234,56", rows[0].AmountText)
	assert.Equal(t, 2024, rows[0].Date.Year())
	assert.Equal(t, 10, rows[0].Date.Day())
}

func TestParseCSVCardDialect(t *testing.T) {
	data := []byte("Data de Compra;Estabelecimento;Valor (em R$);Parcela;Final do Cartão\n" +
		"2024-01-15;LOJA DEPARTAMENTO;150,00;3/6;1234\n" +
		"2024-01-16;RESTAURANTE;45,00;única;1234\n")

	rows, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "3/6", rows[0].Installment)
	assert.Equal(t, "1234", rows[0].CardLast4)
	assert.Equal(t, 15, rows[0].Date.Day())
}

func TestParseCSVLatin1(t *testing.T) {
	// "Descrição" and "Pagamento de Água" in ISO 8859-1.
	data := []byte("Data;Descri\xe7\xe3o;Valor\n10/01/2024;Pagamento de \xc1gua;-50,00\n")

	rows, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Pagamento de Água", rows[0].Description)
}

func TestParseCSVMissingColumns(t *testing.T) {
	data := []byte("Data;Valor\n10/01/2024;-50,00\n")

	_, err := ParseCSV(data)
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "description")
}

func TestParseCSVSkipsBadRows(t *testing.T) {
	data := []byte("Data;Descrição;Valor\n" +
		";;\n" +
		"not-a-date;LOJA;10,00\n" +
		"10/01/2024;MERCADO;-10,00\n")

	rows, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MERCADO", rows[0].Description)
}

func TestParseCSVNoUsableRows(t *testing.T) {
	data := []byte("Data;Descrição;Valor\nnot-a-date;LOJA;10,00\n")

	_, err := ParseCSV(data)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "no usable transaction rows")
}

func TestParseRoutesByExtension(t *testing.T) {
	csvData := []byte("Data;Descrição;Valor\n10/01/2024;MERCADO;-10,00\n")

	rows, err := Parse("extrato.csv", csvData)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = Parse("extrato.ofx", []byte("not ofx at all"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "extrato.ofx", pe.File)
}
