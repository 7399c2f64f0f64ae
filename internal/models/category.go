package models

import (
	"time"

	"github.com/google/uuid"
)

type CategoryType string

const (
	CategoryTypeFixed      CategoryType = "FIXED"
	CategoryTypeVariable   CategoryType = "VARIABLE"
	CategoryTypeInvestment CategoryType = "INVESTMENT"
	CategoryTypeLeisure    CategoryType = "LEISURE"
	CategoryTypeOther      CategoryType = "OTHER"
)

// ValidCategoryType reports whether t is a known category type.
func ValidCategoryType(t CategoryType) bool {
	switch t {
	case CategoryTypeFixed, CategoryTypeVariable, CategoryTypeInvestment,
		CategoryTypeLeisure, CategoryTypeOther:
		return true
	}
	return false
}

// Category is a user-defined label with its matching keywords.
// Name is unique per user.
type Category struct {
	ID        uuid.UUID    `db:"id"`
	UserID    uuid.UUID    `db:"user_id"`
	Name      string       `db:"name"`
	Type      CategoryType `db:"type"`
	Keywords  []string     `db:"keywords"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}
