package cleaning

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// MonthLayouts are tried in order by ParseMonth.
var MonthLayouts = []string{
	"Jan-06",
	"Jan-2006",
	"January 2006",
	"2006-01",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/2006",
	"1/2006",
	"02.01.2006",
}

// minExcelSerial keeps plain years such as "2024" from reading as serials.
const minExcelSerial = 10000

var (
	moneyStrip      = regexp.MustCompile(`[^0-9\-,.]`)
	moneyDecimalSep = regexp.MustCompile(`(\d+),(\d{1,2})$`)

	// moneyParens matches accounting negatives such as "(300.00)" or
	// "€ (1 234,50)".
	moneyParens = regexp.MustCompile(`^[^\d()\-]*\(([^()]*)\)[^\d()]*$`)
)

// ParseMoney reads an amount such as "1 234,50 €", "-12.5" or "1,234.50".
// A comma followed by one or two trailing digits is a decimal separator;
// any other comma is a thousands separator. An amount in parentheses is
// negative.
func ParseMoney(s string) (decimal.Decimal, error) {
	if m := moneyParens.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		d, err := parseMoneyText(m[1], s)
		if err != nil {
			return decimal.Zero, err
		}
		return d.Abs().Neg(), nil
	}
	return parseMoneyText(s, s)
}

// parseMoneyText parses s; original is used in error messages. Plain
// numbers, including raw workbook values such as "1.5E-05", are read as is.
func parseMoneyText(s, original string) (decimal.Decimal, error) {
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return d, nil
	}

	cleaned := moneyStrip.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no digits in %q", original)
	}

	cleaned = moneyDecimalSep.ReplaceAllString(cleaned, "$1.$2")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	// "1.234.56" after the comma swap: every dot but the last groups thousands.
	if strings.Count(cleaned, ".") > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", original, err)
	}
	return d, nil
}

// ParseMonth reads a billing month and returns the first day of that month
// in UTC. Bare numbers are treated as Excel date serials.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty month")
	}

	for _, layout := range MonthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return firstOfMonth(t), nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return firstOfMonth(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised month %q", s)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
