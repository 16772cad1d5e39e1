// =============================================================================
// Cost Profiler - Workbook Parser
// =============================================================================
//
// This module reads billing workbooks (.xlsx) into RawTables, one per sheet.
//
// SHEET SELECTION:
//   The configuration names the sheets to read (by default the Netvisor +
//   Procountor and Fennoa billing sheets). Named sheets missing from a
//   workbook are skipped. If none of them exist, every visible sheet is read
//   instead, and the cleaner drops those without the required columns.
//   Sheets whose names start with "_" are never read.
//
// CELL VALUES:
//   Cells are read as raw values, not display text. Date cells arrive as
//   Excel serial numbers whatever their number format, and numbers keep
//   their sign even when an accounting format shows "(300.00)". Text cells
//   such as "Jan-24" arrive as typed.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/csvparser"
	"github.com/taopa/costprofiler/internal/types"
)

// ErrNoSheets is returned when a workbook has no sheet to read.
var ErrNoSheets = errors.New("workbook has no readable sheets")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the selected sheets of the workbook at path.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//   - settings: The input settings (sheet names, header row).
//
// RETURNS:
//   - One table per sheet read, in workbook order.
//   - An error if the file cannot be opened or no sheet can be read.
func Parse(path string, settings config.InputConfig) ([]types.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, filepath.Base(path), settings)
}

// ParseReader reads a workbook from r. source names it in the returned
// tables.
func ParseReader(r io.Reader, source string, settings config.InputConfig) ([]types.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, source, settings)
}

func parseFile(f *excelize.File, source string, settings config.InputConfig) ([]types.RawTable, error) {
	sheets := SelectSheets(f.GetSheetList(), settings.Sheets)
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrNoSheets)
	}

	tables := make([]types.RawTable, 0, len(sheets))
	for _, sheet := range sheets {
		table, err := parseSheet(f, sheet, settings.HeaderRow)
		if err != nil {
			return nil, fmt.Errorf("error parsing sheet '%s': %w", sheet, err)
		}
		if table == nil {
			continue
		}
		table.Source = source + "#" + sheet
		tables = append(tables, *table)
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrNoSheets)
	}
	return tables, nil
}

// SelectSheets returns the wanted sheets present in available, keeping the
// wanted order. When none are present it returns every available sheet not
// starting with "_".
func SelectSheets(available, wanted []string) []string {
	present := make(map[string]bool, len(available))
	for _, name := range available {
		present[name] = true
	}

	var selected []string
	for _, name := range wanted {
		if present[name] {
			selected = append(selected, name)
		}
	}
	if len(selected) > 0 {
		return selected
	}

	for _, name := range available {
		if !strings.HasPrefix(name, "_") {
			selected = append(selected, name)
		}
	}
	return selected
}

// parseSheet reads one sheet. It returns nil for a sheet with no header row.
func parseSheet(f *excelize.File, sheet string, headerRow int) (*types.RawTable, error) {
	if headerRow < 1 {
		headerRow = 1
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < headerRow || csvparser.IsRowEmpty(rows[headerRow-1]) {
		return nil, nil
	}

	table := &types.RawTable{
		Sheet:   sheet,
		Headers: csvparser.CleanHeaders(rows[headerRow-1]),
	}

	for i := headerRow; i < len(rows); i++ {
		if csvparser.IsRowEmpty(rows[i]) {
			continue
		}
		table.Rows = append(table.Rows, types.RawRow{
			Number: i + 1,
			Fields: csvparser.RowToMap(table.Headers, rows[i]),
		})
	}

	return table, nil
}
