// =============================================================================
// Cost Profiler - Shared Types
// =============================================================================
//
// This package contains the record types that flow between the pipeline
// stages. Keeping them here avoids import cycles between:
//   - cleaning   (produces TransactionRecord)
//   - analytics  (consumes TransactionRecord, produces the other two)
//   - pricing    (consumes CompanyProgramProfile)
//   - xlsxwriter (renders all of them)
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT RECORDS
// =============================================================================

// TransactionRecord is one cleaned, billed line item.
type TransactionRecord struct {
	// CompanyID is the business identifier (Y-tunnus). Opaque, not numeric.
	CompanyID string

	// CompanyName is carried through for display only.
	CompanyName string

	// Program is the billed software or product line.
	Program string

	// Month is the billing month, always the first day of the month in UTC.
	Month time.Time

	// Amount is the billed sum. Negative values are credit notes.
	Amount decimal.Decimal

	// The fields below are only read by the per-product breakdown.
	Product     string
	ProductCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal

	// Source is the sheet or file the row came from.
	Source string

	// RowNumber is the 1-indexed row in Source, for error reporting.
	RowNumber int
}

// =============================================================================
// AGGREGATES AND PROFILES
// =============================================================================

// MonthlyAggregate is the summed amount of one company/program in one month.
type MonthlyAggregate struct {
	CompanyID   string
	CompanyName string
	Program     string
	Month       time.Time
	MonthlySum  decimal.Decimal
}

// CompanyProgramProfile is the derived financial profile of one
// (company, program) pair.
type CompanyProgramProfile struct {
	CompanyID   string
	CompanyName string
	Program     string

	// DateRange is a display string such as "Jan-24 to May-25".
	DateRange string

	// Months is the number of distinct months in the group.
	Months int

	AvgAll  float64
	Avg3Mo  float64
	Avg12Mo float64

	Std3Mo  float64
	Std12Mo float64

	// CV3Mo and CV12Mo use a divisor of 1 when the mean is exactly zero,
	// so in that case they hold the absolute standard deviation.
	CV3Mo  float64
	CV12Mo float64

	GrowthRatio float64
	Seasonality float64
}

// Key identifies the (company, program) pair of a profile.
func (p CompanyProgramProfile) Key() GroupKey {
	return GroupKey{CompanyID: p.CompanyID, Program: p.Program}
}

// GroupKey is the (company, program) identity used by the summarizer.
type GroupKey struct {
	CompanyID string
	Program   string
}

// Less orders keys lexically by company id, then program.
func (k GroupKey) Less(other GroupKey) bool {
	if k.CompanyID != other.CompanyID {
		return k.CompanyID < other.CompanyID
	}
	return k.Program < other.Program
}

// =============================================================================
// RAW INPUT
// =============================================================================

// RawTable is a sheet or CSV file read as text, before cleaning.
type RawTable struct {
	// Source names the sheet or file, e.g. "billing.xlsx#Fennoa 2024-2025".
	Source string

	// Sheet is the sheet name, or the file name without extension for CSV.
	Sheet string

	// Headers are the trimmed column headers in file order.
	Headers []string

	// Rows holds the non-empty data rows.
	Rows []RawRow
}

// RawRow is one data row keyed by header.
type RawRow struct {
	// Number is the 1-indexed row number in the source.
	Number int

	// Fields maps header -> trimmed cell text.
	Fields map[string]string
}

// =============================================================================
// BREAKDOWN
// =============================================================================

// ProductLine is one product's share of a company's bill in one month.
type ProductLine struct {
	Product string

	// Quantity is summed over the month's rows for the product.
	Quantity decimal.Decimal

	// UnitPrice is taken from the product's first row in the month.
	UnitPrice decimal.Decimal

	// Total is Quantity * UnitPrice.
	Total decimal.Decimal
}
