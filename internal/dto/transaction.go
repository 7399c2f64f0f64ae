package dto

import "time"

type TransactionResponse struct {
	ID             string     `json:"id"`
	Date           time.Time  `json:"date"`
	PurchaseDate   time.Time  `json:"purchase_date"`
	CompetenceDate time.Time  `json:"competence_date"`
	Description    string     `json:"description"`
	Amount         string     `json:"amount"`
	Direction      string     `json:"direction"`
	Bank           string     `json:"bank"`
	CostCenter     string     `json:"cost_center"`
	Category       string     `json:"category"`
	AICategory     *string    `json:"ai_category,omitempty"`
	AIConfidence   *float64   `json:"ai_confidence,omitempty"`
	ManualCategory *string    `json:"manual_category,omitempty"`
	Tags           string     `json:"tags,omitempty"`
	Installment    bool       `json:"installment"`
	InstallmentNum *int       `json:"installment_num,omitempty"`
	InstallmentTot *int       `json:"installment_total,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

type SetCategoryRequest struct {
	Category string `json:"category"`
}

type TransactionStatsResponse struct {
	Total            int64 `json:"total"`
	ManualClassified int64 `json:"manual_classified"`
	CachedAssigns    int64 `json:"cached_assignments"`
}
