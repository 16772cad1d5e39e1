// =============================================================================
// Cost Profiler - CSV Parser
// =============================================================================
//
// This module reads billing exports saved as CSV into a RawTable, the same
// shape the workbook parser produces, so the cleaner does not care where a
// row came from.
//
// PARSING PROCESS:
//   1. Open the file and decode it (UTF-8 with optional BOM, or a legacy
//      single-byte code page)
//   2. Configure the CSV reader with the delimiter from the configuration
//   3. Take headers from the configured header row
//   4. Convert each following non-empty row to a map of header -> value
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns its rows.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The input settings (delimiter, encoding, header row).
//
// RETURNS:
//   - The parsed table. Its Sheet is the file name without extension.
//   - An error if the file cannot be read or has no header row.
func Parse(filePath string, settings config.InputConfig) (*types.RawTable, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	base := filepath.Base(filePath)
	sheet := strings.TrimSuffix(base, filepath.Ext(base))

	return ParseReader(file, base, sheet, settings)
}

// ParseReader parses CSV content from r. source and sheet are copied into
// the returned table.
func ParseReader(r io.Reader, source, sheet string, settings config.InputConfig) (*types.RawTable, error) {
	decoded, err := decode(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	configureReader(csvReader, settings.Delimiter)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	headerRow := settings.HeaderRow
	if headerRow < 1 {
		headerRow = 1
	}
	if len(allRows) < headerRow {
		return nil, fmt.Errorf("CSV file has no header row %d", headerRow)
	}

	table := &types.RawTable{
		Source:  source,
		Sheet:   sheet,
		Headers: CleanHeaders(allRows[headerRow-1]),
	}

	for i := headerRow; i < len(allRows); i++ {
		row := allRows[i]
		if IsRowEmpty(row) {
			continue
		}
		table.Rows = append(table.Rows, types.RawRow{
			Number: i + 1,
			Fields: RowToMap(table.Headers, row),
		})
	}

	return table, nil
}

// decode wraps r with a decoder for the configured encoding.
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// configureReader applies the delimiter and the lenient settings billing
// exports need.
func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(delimiter) > 0 {
			reader.Comma = rune(delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// CleanHeaders trims header values and names blank ones "Column_N".
func CleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// RowToMap pairs a row with headers. Missing cells become empty strings.
func RowToMap(headers []string, row []string) map[string]string {
	fields := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(row) {
			fields[header] = strings.TrimSpace(row[i])
		} else {
			fields[header] = ""
		}
	}
	return fields
}

// IsRowEmpty checks if a row contains only empty values.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
