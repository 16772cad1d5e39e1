// =============================================================================
// Cost Profiler - Row Cleaner
// =============================================================================
//
// The cleaner turns raw sheet rows into TransactionRecords:
//   1. Resolve logical columns against each table's headers
//   2. Pick the amount column (gross or net, per use_vat)
//   3. Parse month and amount, collecting RowErrors along the way
//
// DROPPED ROWS (severity "error"):
//   - empty company id
//   - month that cannot be parsed
//
// COERCED CELLS (severity "warning"):
//   - non-empty amount that cannot be parsed becomes zero
//
// =============================================================================

package cleaning

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/types"
)

// Cleaner converts raw tables into transaction records.
type Cleaner struct {
	columns config.ColumnConfig
	useVAT  bool
	logger  *slog.Logger
}

// NewCleaner creates a cleaner. A nil logger discards output.
func NewCleaner(columns config.ColumnConfig, useVAT bool, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cleaner{columns: columns, useVAT: useVAT, logger: logger}
}

// columnMap holds the resolved header name per logical column. Optional
// columns are empty when absent.
type columnMap struct {
	companyID   string
	companyName string
	month       string
	amount      string
	program     string
	product     string
	productCode string
	quantity    string
	unitPrice   string
}

// Clean cleans every table. Tables missing a required column are skipped
// and reported; if no table is usable an error wrapping ErrMissingColumn is
// returned.
func (c *Cleaner) Clean(tables []types.RawTable) (*Result, error) {
	result := &Result{}
	usable := 0

	for _, table := range tables {
		cols, err := c.resolveColumns(table.Headers)
		if err != nil {
			c.logger.Warn("skipping table", slog.String("source", table.Source), slog.Any("error", err))
			result.addError(table.Source, 0, "header", strings.Join(table.Headers, ", "), err.Error())
			continue
		}
		usable++

		for _, row := range table.Rows {
			result.RowsRead++
			if rec, ok := c.cleanRow(table, row, cols, result); ok {
				result.Records = append(result.Records, rec)
			}
		}
	}

	if len(tables) > 0 && usable == 0 {
		return result, fmt.Errorf("no usable table among %d: %w", len(tables), ErrMissingColumn)
	}

	c.logger.Debug("cleaning complete",
		slog.Int("rows_read", result.RowsRead),
		slog.Int("records", len(result.Records)),
		slog.Int("errors", result.ErrorCount),
		slog.Int("warnings", result.WarningCount),
	)
	return result, nil
}

func (c *Cleaner) resolveColumns(headers []string) (columnMap, error) {
	var cols columnMap
	var missing []string

	required := func(field string, candidates []string) string {
		name, ok := FindColumn(headers, candidates)
		if !ok {
			missing = append(missing, fmt.Sprintf("%s (%s)", field, strings.Join(candidates, " | ")))
		}
		return name
	}
	optional := func(candidates []string) string {
		name, _ := FindColumn(headers, candidates)
		return name
	}

	cols.companyID = required("company_id", c.columns.CompanyID)
	cols.companyName = required("company_name", c.columns.CompanyName)
	cols.month = required("month", c.columns.Month)
	if c.useVAT {
		cols.amount = required("amount", c.columns.Amount)
	} else {
		cols.amount = required("net_amount", c.columns.NetAmount)
	}

	cols.program = optional(c.columns.Program)
	cols.product = optional(c.columns.Product)
	cols.productCode = optional(c.columns.ProductCode)
	cols.quantity = optional(c.columns.Quantity)
	cols.unitPrice = optional(c.columns.UnitPrice)

	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c *Cleaner) cleanRow(table types.RawTable, row types.RawRow, cols columnMap, result *Result) (types.TransactionRecord, bool) {
	get := func(column string) string {
		if column == "" {
			return ""
		}
		return strings.TrimSpace(row.Fields[column])
	}

	companyID := get(cols.companyID)
	if companyID == "" {
		result.addError(table.Source, row.Number, "company_id", "", "empty company id, row dropped")
		return types.TransactionRecord{}, false
	}

	rawMonth := get(cols.month)
	month, err := ParseMonth(rawMonth)
	if err != nil {
		result.addError(table.Source, row.Number, "month", rawMonth, "unparseable month, row dropped")
		return types.TransactionRecord{}, false
	}

	amount := decimal.Zero
	if rawAmount := get(cols.amount); rawAmount != "" {
		amount, err = ParseMoney(rawAmount)
		if err != nil {
			result.addWarning(table.Source, row.Number, "amount", rawAmount, "unparseable amount, treated as zero")
			amount = decimal.Zero
		}
	}

	program := get(cols.program)
	if program == "" {
		program = table.Sheet
	}

	return types.TransactionRecord{
		CompanyID:   companyID,
		CompanyName: get(cols.companyName),
		Program:     program,
		Month:       month,
		Amount:      amount,
		Product:     get(cols.product),
		ProductCode: get(cols.productCode),
		Quantity:    optionalDecimal(get(cols.quantity)),
		UnitPrice:   optionalDecimal(get(cols.unitPrice)),
		Source:      table.Source,
		RowNumber:   row.Number,
	}, true
}

// optionalDecimal parses breakdown-only cells, treating anything unreadable
// as zero.
func optionalDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := ParseMoney(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
