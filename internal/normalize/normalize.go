// Package normalize derives canonical transactions from raw parsed rows:
// locale-aware amounts, direction, installments, cost centers and the
// competence date used for all reporting.
package normalize

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"grana/internal/models"
	"grana/internal/parser"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxDescriptionLen bounds stored descriptions; longer text is cut and
// marked with an ellipsis.
const maxDescriptionLen = 198

var transferMarkers = []string{"pix", "transfer", "ted", "doc"}

// Row converts one raw parsed row into a canonical transaction. The
// result is in-memory only; persistence and dedup happen later.
func Row(raw parser.Raw, userID uuid.UUID, bank string) *models.Transaction {
	amount := raw.Amount
	if !raw.AmountSet {
		amount = ParseAmount(raw.AmountText)
	}

	direction := models.DirectionDebit
	if amount.IsPositive() {
		direction = models.DirectionCredit
	}

	description := truncateDescription(raw.Description)
	installment, instNum, instTot := parseInstallment(raw.Installment)
	costCenter := inferCostCenter(description, raw.CardLast4)

	// Card statements report purchases as positive charges, the inverse
	// of the checking-account convention.
	if strings.HasPrefix(costCenter, models.CostCenterCardPrefix) {
		if amount.IsPositive() {
			direction = models.DirectionDebit
		} else if amount.IsNegative() {
			direction = models.DirectionCredit
		}
	}

	competence := raw.Date
	if installment && instNum != nil {
		competence = addMonths(raw.Date, *instNum-1)
	}

	now := time.Now()
	return &models.Transaction{
		ID:             uuid.New(),
		UserID:         userID,
		Date:           competence,
		PurchaseDate:   raw.Date,
		CompetenceDate: competence,
		Description:    description,
		Amount:         amount,
		Direction:      direction,
		Bank:           bank,
		CostCenter:     costCenter,
		Installment:    installment,
		InstallmentNum: instNum,
		InstallmentTot: instTot,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Batch normalizes every raw row of one uploaded file, collapses exact
// duplicates on (competence date, description, amount) and returns the
// result sorted by competence date, newest first. Empty input yields an
// empty batch, not an error.
func Batch(raws []parser.Raw, userID uuid.UUID, bank string) []*models.Transaction {
	seen := make(map[string]struct{}, len(raws))
	batch := make([]*models.Transaction, 0, len(raws))
	for _, raw := range raws {
		tx := Row(raw, userID, bank)
		key := Key(tx.Date, tx.Description, tx.Amount)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, tx)
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Date.After(batch[j].Date)
	})
	return batch
}

// Key builds the natural-key string used for duplicate detection. Amounts
// are rendered at fixed precision and dates in UTC so representation
// differences can never split equal values. TIMESTAMPTZ values scanned
// back from the database carry the session zone, not the zone they were
// written in.
func Key(date time.Time, description string, amount decimal.Decimal) string {
	return date.UTC().Format("2006-01-02T15:04:05") + "|" + description + "|" + amount.StringFixed(2)
}

func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDescriptionLen {
		return s
	}
	return string(runes[:maxDescriptionLen-3]) + "..."
}

// parseInstallment interprets the installment column. "unica" variants and
// empty values mean a single purchase; "N/M" carries the installment
// numbers; anything else marks an installment with unknown numbers.
func parseInstallment(s string) (bool, *int, *int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil, nil
	}
	switch strings.ToLower(s) {
	case "unica", "única", "unico", "único":
		return false, nil, nil
	}

	if cur, tot, ok := strings.Cut(s, "/"); ok {
		n, okN := parseCount(strings.TrimSpace(cur))
		t, okT := parseCount(strings.TrimSpace(tot))
		if !okN || !okT {
			return true, nil, nil
		}
		return true, &n, &t
	}
	return true, nil, nil
}

// parseCount accepts unsigned digit strings of value >= 1. A "0/6" row
// keeps its purchase date as competence.
func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func inferCostCenter(description, cardLast4 string) string {
	card := strings.TrimSpace(cardLast4)
	if card != "" && card != "-" {
		return models.CostCenterCardPrefix + card
	}
	lower := strings.ToLower(description)
	for _, marker := range transferMarkers {
		if strings.Contains(lower, marker) {
			return models.CostCenterTransfer
		}
	}
	return models.CostCenterChecking
}

// addMonths advances a date by whole months, clamping the day-of-month to
// the target month's last valid day. time.AddDate would overflow Jan 31
// into March.
func addMonths(t time.Time, months int) time.Time {
	year := t.Year() + (int(t.Month())-1+months)/12
	month := time.Month((int(t.Month())-1+months)%12 + 1)
	day := t.Day()
	if last := daysIn(month, year); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
