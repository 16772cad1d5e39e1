package xlsxwriter

import (
	"fmt"

	"github.com/taopa/costprofiler/internal/pricing"
)

// Labels holds the sheet and column names of one export language.
type Labels struct {
	ProfilesSheet  string
	PricingSheet   string
	MonthlySheet   string
	BreakdownSheet string

	CompanyID   string
	CompanyName string
	Program     string
	DateRange   string
	Months      string
	Month       string
	MonthlySum  string

	// Stats maps a profile statistic (AvgAll, Avg3Mo, ...) to its header.
	Stats map[string]string

	// Flags maps a flag name to its header.
	Flags map[string]string

	Product   string
	Quantity  string
	UnitPrice string
	Total     string

	// marginColumn names a margined column for a base.
	marginColumn func(c pricing.PriceColumn) string
}

// MarginColumn returns the header of a margined column.
func (l Labels) MarginColumn(c pricing.PriceColumn) string {
	return l.marginColumn(c)
}

// Stat returns the header of a statistic, falling back to its name.
func (l Labels) Stat(name string) string {
	if label, ok := l.Stats[name]; ok {
		return label
	}
	return name
}

var finnish = Labels{
	ProfilesSheet:  "Keskiarvot",
	PricingSheet:   "Kiinteät hinnat",
	MonthlySheet:   "Kuukausittain",
	BreakdownSheet: "Erittely",

	CompanyID:   "Y-tunnus",
	CompanyName: "Yrityksen nimi",
	Program:     "Ohjelmisto",
	DateRange:   "Ajanjakso",
	Months:      "Kuukausia",
	Month:       "Kuukausi",
	MonthlySum:  "Kuukausisumma",

	Stats: map[string]string{
		"AvgAll":      "Keskiarvo kaikilta kuukausilta",
		"Avg3Mo":      "3 kk keskiarvo",
		"Std3Mo":      "3 kk keskihajonta",
		"CV3Mo":       "3 kk vaihteluaste",
		"Avg12Mo":     "12 kk keskiarvo",
		"Std12Mo":     "12 kk keskihajonta",
		"CV12Mo":      "12 kk vaihteluaste",
		"GrowthRatio": "Kasvusuhde",
		"Seasonality": "Kausivaihtelusuhde",
	},

	Flags: map[string]string{
		pricing.FlagVolatility:  "Korkea volatiliteetti",
		pricing.FlagGrowth:      "Voimakas kasvu",
		pricing.FlagDecline:     "Voimakas lasku",
		pricing.FlagSeasonality: "Korkea kausivaihtelu",
	},

	Product:   "Tuote",
	Quantity:  "Määrä",
	UnitPrice: "Hinta",
	Total:     "Yhteensä",

	marginColumn: func(c pricing.PriceColumn) string {
		return fmt.Sprintf("%s_marginaali (%%)", c.Base)
	},
}

var english = Labels{
	ProfilesSheet:  "Profiles",
	PricingSheet:   "Fixed prices",
	MonthlySheet:   "Monthly",
	BreakdownSheet: "Breakdown",

	CompanyID:   "CompanyID",
	CompanyName: "CompanyName",
	Program:     "Program",
	DateRange:   "DateRange",
	Months:      "Months",
	Month:       "Month",
	MonthlySum:  "MonthlySum",

	Stats: map[string]string{},

	Flags: map[string]string{
		pricing.FlagVolatility:  "High Volatility",
		pricing.FlagGrowth:      "Strong Growth",
		pricing.FlagDecline:     "Strong Decline",
		pricing.FlagSeasonality: "High Seasonality",
	},

	Product:   "Product",
	Quantity:  "Quantity",
	UnitPrice: "UnitPrice",
	Total:     "Total",

	marginColumn: func(c pricing.PriceColumn) string {
		return c.Name()
	},
}

// LabelsFor returns the labels of a language ("fi" or "en"). Unknown
// languages get Finnish.
func LabelsFor(language string) Labels {
	if language == "en" {
		return english
	}
	return finnish
}
