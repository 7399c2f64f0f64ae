package normalize

import (
	"strings"
	"testing"
	"time"

	"grana/internal/models"
	"grana/internal/parser"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRowDirection(t *testing.T) {
	userID := uuid.New()

	credit := Row(parser.Raw{Date: date(2024, 1, 10), Description: "PIX RECEBIDO", AmountText: "100,00"}, userID, "itau")
	assert.Equal(t, models.DirectionCredit, credit.Direction)

	debit := Row(parser.Raw{Date: date(2024, 1, 10), Description: "MERCADO", AmountText: "-50,00"}, userID, "itau")
	assert.Equal(t, models.DirectionDebit, debit.Direction)

	zero := Row(parser.Raw{Date: date(2024, 1, 10), Description: "AJUSTE", AmountText: "garbage"}, userID, "itau")
	assert.Equal(t, models.DirectionDebit, zero.Direction)
	assert.True(t, zero.Amount.IsZero())
}

func TestRowCardSignInversion(t *testing.T) {
	userID := uuid.New()

	// Card purchases are reported positive but are debits.
	purchase := Row(parser.Raw{
		Date: date(2024, 1, 10), Description: "LOJA X", AmountText: "80,00", CardLast4: "1234",
	}, userID, "nubank")
	assert.Equal(t, models.DirectionDebit, purchase.Direction)
	assert.Equal(t, "Credit Card ending in 1234", purchase.CostCenter)

	refund := Row(parser.Raw{
		Date: date(2024, 1, 10), Description: "ESTORNO LOJA X", AmountText: "-80,00", CardLast4: "1234",
	}, userID, "nubank")
	assert.Equal(t, models.DirectionCredit, refund.Direction)
}

func TestRowCostCenter(t *testing.T) {
	userID := uuid.New()

	transfer := Row(parser.Raw{Date: date(2024, 1, 10), Description: "PIX PARA JOAO", AmountText: "-10,00"}, userID, "itau")
	assert.Equal(t, models.CostCenterTransfer, transfer.CostCenter)

	checking := Row(parser.Raw{Date: date(2024, 1, 10), Description: "MERCADO", AmountText: "-10,00"}, userID, "itau")
	assert.Equal(t, models.CostCenterChecking, checking.CostCenter)

	// A dash in the card column means no card.
	dash := Row(parser.Raw{Date: date(2024, 1, 10), Description: "MERCADO", AmountText: "-10,00", CardLast4: "-"}, userID, "itau")
	assert.Equal(t, models.CostCenterChecking, dash.CostCenter)
}

func TestRowInstallmentCompetence(t *testing.T) {
	userID := uuid.New()

	third := Row(parser.Raw{
		Date: date(2024, 1, 15), Description: "LOJA", AmountText: "100,00", Installment: "3/6",
	}, userID, "nubank")
	require.NotNil(t, third.InstallmentNum)
	require.NotNil(t, third.InstallmentTot)
	assert.Equal(t, 3, *third.InstallmentNum)
	assert.Equal(t, 6, *third.InstallmentTot)
	assert.Equal(t, date(2024, 3, 15), third.CompetenceDate)
	assert.Equal(t, date(2024, 1, 15), third.PurchaseDate)

	first := Row(parser.Raw{
		Date: date(2024, 1, 15), Description: "LOJA", AmountText: "100,00", Installment: "1/3",
	}, userID, "nubank")
	assert.Equal(t, date(2024, 1, 15), first.CompetenceDate)

	single := Row(parser.Raw{
		Date: date(2024, 1, 15), Description: "LOJA", AmountText: "100,00", Installment: "única",
	}, userID, "nubank")
	assert.False(t, single.Installment)

	unknown := Row(parser.Raw{
		Date: date(2024, 1, 15), Description: "LOJA", AmountText: "100,00", Installment: "x/y",
	}, userID, "nubank")
	assert.True(t, unknown.Installment)
	assert.Nil(t, unknown.InstallmentNum)
	assert.Equal(t, date(2024, 1, 15), unknown.CompetenceDate)

	// A zero installment must not shift the competence date backwards.
	zero := Row(parser.Raw{
		Date: date(2024, 1, 15), Description: "LOJA", AmountText: "100,00", Installment: "0/6",
	}, userID, "nubank")
	assert.True(t, zero.Installment)
	assert.Nil(t, zero.InstallmentNum)
	assert.Equal(t, date(2024, 1, 15), zero.CompetenceDate)

	signed := Row(parser.Raw{
		Date: date(2024, 1, 15), Description: "LOJA", AmountText: "100,00", Installment: "-2/6",
	}, userID, "nubank")
	assert.Nil(t, signed.InstallmentNum)
	assert.Equal(t, date(2024, 1, 15), signed.CompetenceDate)
}

func TestRowCompetenceDayClamp(t *testing.T) {
	userID := uuid.New()

	// Jan 31 + 1 month must clamp to Feb 29 (2024 is a leap year).
	tx := Row(parser.Raw{
		Date: date(2024, 1, 31), Description: "LOJA", AmountText: "100,00", Installment: "2/2",
	}, userID, "nubank")
	assert.Equal(t, date(2024, 2, 29), tx.CompetenceDate)
}

func TestRowTruncatesLongDescription(t *testing.T) {
	userID := uuid.New()
	long := strings.Repeat("a", 250)

	tx := Row(parser.Raw{Date: date(2024, 1, 10), Description: long, AmountText: "1,00"}, userID, "itau")
	assert.Len(t, []rune(tx.Description), 198)
	assert.True(t, strings.HasSuffix(tx.Description, "..."))
}

func TestBatchDedupAndOrder(t *testing.T) {
	userID := uuid.New()
	raws := []parser.Raw{
		{Date: date(2024, 1, 10), Description: "MERCADO", AmountText: "-10,00"},
		{Date: date(2024, 1, 12), Description: "PADARIA", AmountText: "-5,00"},
		{Date: date(2024, 1, 10), Description: "MERCADO", AmountText: "-10,00"},
	}

	batch := Batch(raws, userID, "itau")
	require.Len(t, batch, 2)
	assert.Equal(t, "PADARIA", batch[0].Description)
	assert.Equal(t, "MERCADO", batch[1].Description)
}

func TestBatchEmpty(t *testing.T) {
	batch := Batch(nil, uuid.New(), "itau")
	assert.Empty(t, batch)
}

func TestKeyFixedPrecision(t *testing.T) {
	d := date(2024, 1, 10)
	a := Key(d, "X", decimal.RequireFromString("10.1"))
	b := Key(d, "X", decimal.RequireFromString("10.10"))
	assert.Equal(t, a, b)
}

func TestKeyTimezoneInsensitive(t *testing.T) {
	// The same instant rendered in another zone, as a TIMESTAMPTZ scan
	// through a non-UTC session would yield it.
	utc := date(2024, 1, 10)
	brt := utc.In(time.FixedZone("BRT", -3*60*60))

	amount := decimal.RequireFromString("-89.90")
	assert.Equal(t, Key(utc, "MERCADO", amount), Key(brt, "MERCADO", amount))
}
