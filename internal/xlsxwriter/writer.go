// =============================================================================
// Cost Profiler - Workbook Writer
// =============================================================================
//
// This module renders the run results as an .xlsx workbook.
//
// WORKBOOK STRUCTURE (Finnish labels, the default):
//
//   | Sheet            | Content                                          |
//   |------------------|--------------------------------------------------|
//   | Keskiarvot       | One row per company/program profile              |
//   | Kiinteät hinnat  | Price suggestions (only when pricing was run)    |
//   | Kuukausittain    | Monthly sums per company/program                 |
//
// FORMATTING:
//   - Money columns use a euro format with two decimals
//   - Deviation, CV and ratio columns use two decimals
//   - On each pricing row the largest margined prices are green (#d7f1e5)
//     and the smallest red (#ffd6cb); a single margin column is green
//   - Raised flags are grey (#d9d9d9) with salmon text (#ffb4a0)
//   - Header rows are bold, frozen and filterable
//
// The per-product breakdown is written as its own single-sheet workbook.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/taopa/costprofiler/internal/analytics"
	"github.com/taopa/costprofiler/internal/pricing"
	"github.com/taopa/costprofiler/internal/types"
)

const (
	currencyFormat = `"€"#,##0.00`
	statFormat     = `0.00`
	monthFormat    = `mmm-yy`
	quantityFormat = `0`

	maxMarginColor = "#D7F1E5"
	minMarginColor = "#FFD6CB"
	flagFillColor  = "#D9D9D9"
	flagFontColor  = "#FFB4A0"

	defaultColWidth = 18
)

// moneyStats are profile statistics expressed in euros.
var moneyStats = map[string]bool{"AvgAll": true, "Avg3Mo": true, "Avg12Mo": true}

// profileStats lists the statistic columns of the profiles sheet in order.
var profileStats = []string{
	"AvgAll",
	"Avg3Mo", "Std3Mo", "CV3Mo",
	"Avg12Mo", "Std12Mo", "CV12Mo",
	"GrowthRatio", "Seasonality",
}

// =============================================================================
// REPORT
// =============================================================================

// Report is everything a run exports.
type Report struct {
	Profiles []types.CompanyProgramProfile
	Monthly  []types.MonthlyAggregate

	// Pricing is nil when no suggestions were computed.
	Pricing *PricingSheet
}

// PricingSheet is the content of the price suggestion sheet.
type PricingSheet struct {
	// Columns are the margined columns, in order.
	Columns []pricing.PriceColumn

	// Flags are the visible flag names, in order.
	Flags []string

	Suggestions []pricing.Suggestion
}

// Writer renders reports with one set of labels.
type Writer struct {
	labels Labels
}

// New creates a writer for the given language ("fi" or "en").
func New(language string) *Writer {
	return &Writer{labels: LabelsFor(language)}
}

// Labels returns the writer's labels.
func (w *Writer) Labels() Labels {
	return w.labels
}

// =============================================================================
// OUTPUT FUNCTIONS
// =============================================================================

// WriteFile builds the report workbook and saves it to path.
func (w *Writer) WriteFile(path string, r Report) error {
	f, err := w.Build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Write builds the report workbook and writes it to out.
func (w *Writer) Write(out io.Writer, r Report) error {
	f, err := w.Build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build renders the report into a new workbook. The caller closes it.
func (w *Writer) Build(r Report) (*excelize.File, error) {
	f := excelize.NewFile()

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", w.labels.ProfilesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	steps := []func() error{
		func() error { return w.writeProfiles(f, st, r.Profiles) },
	}
	if r.Pricing != nil {
		steps = append(steps, func() error { return w.writePricing(f, st, *r.Pricing) })
	}
	steps = append(steps, func() error { return w.writeMonthly(f, st, r.Monthly) })

	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// =============================================================================
// SHEETS
// =============================================================================

func (w *Writer) writeProfiles(f *excelize.File, st styles, profiles []types.CompanyProgramProfile) error {
	sheet := w.labels.ProfilesSheet
	l := w.labels

	headers := []string{l.CompanyID, l.CompanyName, l.Program, l.DateRange, l.Months}
	for _, stat := range profileStats {
		headers = append(headers, l.Stat(stat))
	}
	if err := writeHeader(f, st, sheet, headers); err != nil {
		return err
	}

	for i, p := range profiles {
		values := []any{p.CompanyID, p.CompanyName, p.Program, p.DateRange, p.Months}
		for _, stat := range profileStats {
			values = append(values, profileStat(p, stat))
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	for j, stat := range profileStats {
		style := st.stat
		if moneyStats[stat] {
			style = st.currency
		}
		if err := styleColumn(f, sheet, 6+j, len(profiles), style); err != nil {
			return err
		}
	}

	return finishSheet(f, sheet, len(headers), len(profiles))
}

func (w *Writer) writePricing(f *excelize.File, st styles, ps PricingSheet) error {
	sheet := w.labels.PricingSheet
	l := w.labels

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet '%s': %w", sheet, err)
	}

	headers := []string{l.CompanyID, l.CompanyName, l.Program, l.DateRange}
	for _, c := range ps.Columns {
		headers = append(headers, l.Stat(c.Base))
	}
	for _, c := range ps.Columns {
		headers = append(headers, l.MarginColumn(c))
	}
	for _, flag := range ps.Flags {
		headers = append(headers, l.Flags[flag])
	}
	if err := writeHeader(f, st, sheet, headers); err != nil {
		return err
	}

	baseCol := 5
	marginCol := baseCol + len(ps.Columns)
	flagCol := marginCol + len(ps.Columns)

	for i, s := range ps.Suggestions {
		row := i + 2
		p := s.Profile

		values := []any{p.CompanyID, p.CompanyName, p.Program, p.DateRange}
		for _, price := range s.Prices {
			values = append(values, price.BaseValue)
		}
		for _, price := range s.Prices {
			values = append(values, price.Value)
		}
		for _, flag := range ps.Flags {
			values = append(values, s.Flags.Get(flag))
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}

		maxValue, minValue, _ := pricing.Extremes(s.Prices)
		for j, price := range s.Prices {
			style := st.currency
			switch price.Value {
			case maxValue:
				style = st.maxMargin
			case minValue:
				style = st.minMargin
			}
			if err := setStyle(f, sheet, marginCol+j, row, style); err != nil {
				return err
			}
		}

		for j, flag := range ps.Flags {
			if !s.Flags.Get(flag) {
				continue
			}
			if err := setStyle(f, sheet, flagCol+j, row, st.flag); err != nil {
				return err
			}
		}
	}

	for j, c := range ps.Columns {
		style := st.stat
		if moneyStats[c.Base] {
			style = st.currency
		}
		if err := styleColumn(f, sheet, baseCol+j, len(ps.Suggestions), style); err != nil {
			return err
		}
	}

	return finishSheet(f, sheet, len(headers), len(ps.Suggestions))
}

func (w *Writer) writeMonthly(f *excelize.File, st styles, monthly []types.MonthlyAggregate) error {
	sheet := w.labels.MonthlySheet
	l := w.labels

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet '%s': %w", sheet, err)
	}

	headers := []string{l.CompanyID, l.CompanyName, l.Program, l.Month, l.MonthlySum}
	if err := writeHeader(f, st, sheet, headers); err != nil {
		return err
	}

	for i, m := range monthly {
		values := []any{m.CompanyID, m.CompanyName, m.Program, m.Month, m.MonthlySum.InexactFloat64()}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	if err := styleColumn(f, sheet, 4, len(monthly), st.month); err != nil {
		return err
	}
	if err := styleColumn(f, sheet, 5, len(monthly), st.currency); err != nil {
		return err
	}

	return finishSheet(f, sheet, len(headers), len(monthly))
}

// =============================================================================
// BREAKDOWN
// =============================================================================

// WriteBreakdownFile saves a per-product breakdown of one company and
// month to path.
func (w *Writer) WriteBreakdownFile(path string, companyName string, month time.Time, lines []types.ProductLine) error {
	f, err := w.BuildBreakdown(companyName, month, lines)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// BuildBreakdown renders a per-product breakdown. The first row names the
// company and month; the table starts on the second.
func (w *Writer) BuildBreakdown(companyName string, month time.Time, lines []types.ProductLine) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := w.labels.BreakdownSheet
	l := w.labels

	fail := func(err error) (*excelize.File, error) {
		f.Close()
		return nil, err
	}

	st, err := newStyles(f)
	if err != nil {
		return fail(err)
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fail(fmt.Errorf("failed to name sheet: %w", err))
	}

	title := fmt.Sprintf("%s - %s", companyName, month.Format(analytics.DateRangeLayout))
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return fail(err)
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", st.header); err != nil {
		return fail(err)
	}

	headers := []any{l.Product, l.Quantity, l.UnitPrice, l.Total}
	if err := writeRow(f, sheet, 2, headers); err != nil {
		return fail(err)
	}
	if err := f.SetCellStyle(sheet, "A2", cellName(len(headers), 2), st.header); err != nil {
		return fail(err)
	}

	for i, line := range lines {
		values := []any{
			line.Product,
			line.Quantity.InexactFloat64(),
			line.UnitPrice.InexactFloat64(),
			line.Total.InexactFloat64(),
		}
		if err := writeRow(f, sheet, i+3, values); err != nil {
			return fail(err)
		}
	}

	if len(lines) > 0 {
		last := len(lines) + 2
		if err := f.SetCellStyle(sheet, "B3", cellName(2, last), st.quantity); err != nil {
			return fail(err)
		}
		if err := f.SetCellStyle(sheet, "C3", cellName(4, last), st.currency); err != nil {
			return fail(err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 40); err != nil {
		return fail(err)
	}
	if err := f.SetColWidth(sheet, "B", "D", 14); err != nil {
		return fail(err)
	}

	return f, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type styles struct {
	header    int
	currency  int
	stat      int
	month     int
	quantity  int
	maxMargin int
	minMargin int
	flag      int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	fmtPtr := func(s string) *string { return &s }
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	definitions := []struct {
		target *int
		style  *excelize.Style
	}{
		{&st.header, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&st.currency, &excelize.Style{CustomNumFmt: fmtPtr(currencyFormat)}},
		{&st.stat, &excelize.Style{CustomNumFmt: fmtPtr(statFormat)}},
		{&st.month, &excelize.Style{CustomNumFmt: fmtPtr(monthFormat)}},
		{&st.quantity, &excelize.Style{CustomNumFmt: fmtPtr(quantityFormat)}},
		{&st.maxMargin, &excelize.Style{CustomNumFmt: fmtPtr(currencyFormat), Fill: fill(maxMarginColor)}},
		{&st.minMargin, &excelize.Style{CustomNumFmt: fmtPtr(currencyFormat), Fill: fill(minMarginColor)}},
		{&st.flag, &excelize.Style{Fill: fill(flagFillColor), Font: &excelize.Font{Color: flagFontColor}}},
	}

	for _, d := range definitions {
		if *d.target, err = f.NewStyle(d.style); err != nil {
			return st, fmt.Errorf("failed to create style: %w", err)
		}
	}
	return st, nil
}

func profileStat(p types.CompanyProgramProfile, stat string) float64 {
	switch stat {
	case "GrowthRatio":
		return p.GrowthRatio
	case "Seasonality":
		return p.Seasonality
	}
	value, _ := pricing.BaseValue(p, stat)
	return value
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeHeader(f *excelize.File, st styles, sheet string, headers []string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), st.header)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	if err := f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
		return fmt.Errorf("failed to write row %d of '%s': %w", row, sheet, err)
	}
	return nil
}

func setStyle(f *excelize.File, sheet string, col, row, style int) error {
	cell := cellName(col, row)
	return f.SetCellStyle(sheet, cell, cell, style)
}

// styleColumn styles the data rows 2..rows+1 of one column.
func styleColumn(f *excelize.File, sheet string, col, rows, style int) error {
	if rows == 0 {
		return nil
	}
	return f.SetCellStyle(sheet, cellName(col, 2), cellName(col, rows+1), style)
}

// finishSheet sizes the columns, freezes the header and adds a filter.
func finishSheet(f *excelize.File, sheet string, cols, rows int) error {
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, defaultColWidth); err != nil {
		return err
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if rows == 0 {
		return nil
	}
	return f.AutoFilter(sheet, "A1:"+cellName(cols, rows+1), nil)
}
