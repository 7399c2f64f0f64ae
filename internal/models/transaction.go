package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionCategory string

const (
	CategoryFood       TransactionCategory = "FOOD"
	CategoryTransport  TransactionCategory = "TRANSPORT"
	CategoryHousing    TransactionCategory = "HOUSING"
	CategoryHealth     TransactionCategory = "HEALTH"
	CategoryEducation  TransactionCategory = "EDUCATION"
	CategoryLeisure    TransactionCategory = "LEISURE"
	CategoryClothing   TransactionCategory = "CLOTHING"
	CategoryServices   TransactionCategory = "SERVICES"
	CategorySalary     TransactionCategory = "SALARY"
	CategoryTransfer   TransactionCategory = "TRANSFER"
	CategoryInvestment TransactionCategory = "INVESTMENT"
	CategoryOther      TransactionCategory = "OTHER"
)

// DefaultCategories enumerates the built-in categories in the stable order
// used by the keyword classifier for tie-breaking.
var DefaultCategories = []TransactionCategory{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryHealth,
	CategoryEducation,
	CategoryLeisure,
	CategoryClothing,
	CategoryServices,
	CategorySalary,
	CategoryTransfer,
	CategoryInvestment,
	CategoryOther,
}

// ValidCategory reports whether label is one of the default categories.
func ValidCategory(label TransactionCategory) bool {
	for _, c := range DefaultCategories {
		if c == label {
			return true
		}
	}
	return false
}

type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Cost-center labels inferred during normalization.
const (
	CostCenterChecking   = "Checking Account"
	CostCenterTransfer   = "Transfer"
	CostCenterCardPrefix = "Credit Card ending in "
)

// Transaction is one financial movement parsed from a bank statement.
// Date carries the competence date and is what all reporting filters on;
// PurchaseDate and CompetenceDate differ only for installment purchases.
type Transaction struct {
	ID             uuid.UUID            `db:"id"`
	UserID         uuid.UUID            `db:"user_id"`
	Date           time.Time            `db:"date"`
	PurchaseDate   time.Time            `db:"purchase_date"`
	CompetenceDate time.Time            `db:"competence_date"`
	Description    string               `db:"description"`
	Amount         decimal.Decimal      `db:"amount"`
	Direction      Direction            `db:"direction"`
	Bank           string               `db:"bank"`
	CostCenter     string               `db:"cost_center"`
	AICategory     *TransactionCategory `db:"ai_category"`
	AIConfidence   *float64             `db:"ai_confidence"`
	ManualCategory *TransactionCategory `db:"manual_category"`
	Tags           string               `db:"tags"`
	Installment    bool                 `db:"installment"`
	InstallmentNum *int                 `db:"installment_num"`
	InstallmentTot *int                 `db:"installment_total"`
	DueDate        *time.Time           `db:"due_date"`
	Processed      bool                 `db:"processed"`
	CreatedAt      time.Time            `db:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at"`
}

// Category returns the effective category: the manual assignment when
// present, the AI assignment otherwise, OTHER when neither is set.
func (t *Transaction) Category() TransactionCategory {
	if t.ManualCategory != nil {
		return *t.ManualCategory
	}
	if t.AICategory != nil {
		return *t.AICategory
	}
	return CategoryOther
}
