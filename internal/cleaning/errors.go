// =============================================================================
// Cost Profiler - Row Cleaning Errors
// =============================================================================
//
// Cleaning never stops on a bad row. Problems are collected as RowErrors:
//   - "error"   = the row was dropped
//   - "warning" = the row was kept, a cell was coerced
//
// The pipeline writes the collected errors to the error log after each run.
//
// =============================================================================

package cleaning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taopa/costprofiler/internal/types"
)

// Severity levels for RowError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ErrMissingColumn is returned when a table lacks a required column.
var ErrMissingColumn = errors.New("required column not found")

// RowError describes one problem found in an input row.
type RowError struct {
	// Severity is SeverityError when the row was dropped.
	Severity string

	// Source is the sheet or file the row came from.
	Source string

	// Row is the 1-indexed row number in Source.
	Row int

	// Field is the logical column, e.g. "month" or "amount".
	Field string

	// Value is the offending cell text.
	Value string

	Message string
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("[%s] %s row %d, field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Source,
		e.Row,
		e.Field,
		e.Message,
		e.Value,
	)
}

// Result is the outcome of cleaning a set of tables.
type Result struct {
	Records []types.TransactionRecord

	// Errors holds every row problem, warnings included.
	Errors []*RowError

	// RowsRead counts data rows seen, including dropped ones.
	RowsRead int

	ErrorCount   int
	WarningCount int
}

func (r *Result) addError(source string, row int, field, value, message string) {
	r.Errors = append(r.Errors, &RowError{
		Severity: SeverityError,
		Source:   source,
		Row:      row,
		Field:    field,
		Value:    value,
		Message:  message,
	})
	r.ErrorCount++
}

func (r *Result) addWarning(source string, row int, field, value, message string) {
	r.Errors = append(r.Errors, &RowError{
		Severity: SeverityWarning,
		Source:   source,
		Row:      row,
		Field:    field,
		Value:    value,
		Message:  message,
	})
	r.WarningCount++
}
