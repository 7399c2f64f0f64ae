// Package classifier assigns spending categories to transaction
// descriptions. Three interchangeable strategies implement one contract:
// keyword lookup, a trained bag-of-words classifier, and cached
// classification through a hosted language model.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"grana/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Strategy classifies a batch of transactions in place and returns it.
// A non-nil error reports items that could not be resolved and were
// defaulted to OTHER; it never means the batch was lost.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, batch []*models.Transaction) ([]*models.Transaction, error)
}

// ClassificationError reports a failed classification batch: the external
// service was unreachable or its response could not be parsed as a label
// array.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %s", e.Reason)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases and strips diacritics so keyword matching is case and
// accent insensitive.
func fold(s string) string {
	out, _, err := transform.String(accentStripper, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func setCategory(tx *models.Transaction, category models.TransactionCategory, confidence *float64) {
	c := category
	tx.AICategory = &c
	tx.AIConfidence = confidence
}
