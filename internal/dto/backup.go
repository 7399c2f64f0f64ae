package dto

import "time"

// BackupDocument is the JSON backup format: metadata plus the full
// transaction and category lists of one user. Restoring runs transactions
// through the same duplicate detection as a statement upload; categories
// already present by name are skipped.
type BackupDocument struct {
	Version       int                 `json:"version"`
	ExportedAt    time.Time           `json:"exported_at"`
	Username      string              `json:"username"`
	Count         int                 `json:"count"`
	CategoryCount int                 `json:"category_count"`
	Transactions  []BackupTransaction `json:"transactions"`
	Categories    []BackupCategory    `json:"categories,omitempty"`
}

type BackupCategory struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Keywords []string `json:"keywords,omitempty"`
}

// RestoreResponse reports what a backup restore actually wrote.
type RestoreResponse struct {
	Saved             int `json:"saved"`
	Duplicates        int `json:"duplicates"`
	CategoriesSaved   int `json:"categories_saved"`
	CategoriesSkipped int `json:"categories_skipped"`
}

type BackupTransaction struct {
	Date           time.Time  `json:"date"`
	PurchaseDate   time.Time  `json:"purchase_date"`
	CompetenceDate time.Time  `json:"competence_date"`
	Description    string     `json:"description"`
	Amount         string     `json:"amount"`
	Direction      string     `json:"direction"`
	Bank           string     `json:"bank"`
	CostCenter     string     `json:"cost_center"`
	AICategory     *string    `json:"ai_category,omitempty"`
	AIConfidence   *float64   `json:"ai_confidence,omitempty"`
	ManualCategory *string    `json:"manual_category,omitempty"`
	Tags           string     `json:"tags,omitempty"`
	Installment    bool       `json:"installment"`
	InstallmentNum *int       `json:"installment_num,omitempty"`
	InstallmentTot *int       `json:"installment_total,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}
