// Package parser converts uploaded bank-statement files (semicolon CSV in
// assorted encodings, or OFX) into raw transaction rows for normalization.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Raw is one statement row as read from the file, before normalization.
// CSV rows carry the amount as unparsed locale text; OFX rows carry it
// already numeric with AmountSet true.
type Raw struct {
	Date        time.Time
	Description string
	AmountText  string
	Amount      decimal.Decimal
	AmountSet   bool
	Installment string
	CardLast4   string
}

// ParseError reports a file that could not be parsed at all: undecodable
// content, unresolvable required columns, or no usable row.
type ParseError struct {
	File   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parsing %s: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse routes a statement file to the CSV or OFX parser by extension.
func Parse(fileName string, data []byte) ([]Raw, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	var (
		rows []Raw
		err  error
	)
	switch ext {
	case ".ofx", ".qfx":
		rows, err = ParseOFX(data)
	default:
		rows, err = ParseCSV(data)
	}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.File == "" {
			pe.File = fileName
		}
		return nil, err
	}
	return rows, nil
}
