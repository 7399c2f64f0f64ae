package dto

import "time"

type CategoryRequest struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Keywords []string `json:"keywords"`
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddKeywordRequest extends the built-in keyword lists used by the
// keyword and trained classification strategies.
type AddKeywordRequest struct {
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
}
