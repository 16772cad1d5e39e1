package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taopa/costprofiler/internal/analytics"
	"github.com/taopa/costprofiler/internal/cleaning"
	"github.com/taopa/costprofiler/internal/types"
)

// ErrCompanyNotFound is returned when a breakdown names an unknown company.
var ErrCompanyNotFound = errors.New("company not found")

// Company identifies one company in the records.
type Company struct {
	ID   string
	Name string
}

// FindCompany resolves query against the records, first as a business id
// and then as a company name.
func FindCompany(records []types.TransactionRecord, query string) (Company, error) {
	wantID := cleaning.NormalizeBusinessID(query)
	wantName := cleaning.NormalizeName(query)

	var byName *Company
	for _, r := range records {
		if wantID != "" && cleaning.NormalizeBusinessID(r.CompanyID) == wantID {
			return Company{ID: r.CompanyID, Name: r.CompanyName}, nil
		}
		if byName == nil && wantName != "" && cleaning.NormalizeName(r.CompanyName) == wantName {
			byName = &Company{ID: r.CompanyID, Name: r.CompanyName}
		}
	}

	if byName != nil {
		return *byName, nil
	}
	return Company{}, fmt.Errorf("%w: %s", ErrCompanyNotFound, query)
}

// CompanyLatestMonth returns the latest month the company was billed.
func CompanyLatestMonth(records []types.TransactionRecord, companyID string) (time.Time, bool) {
	var (
		latest time.Time
		found  bool
	)
	for _, r := range records {
		if r.CompanyID != companyID {
			continue
		}
		if !found || r.Month.After(latest) {
			latest = r.Month
			found = true
		}
	}
	return analytics.MonthStart(latest), found
}

// Breakdown lists the products billed to a company in one month. Quantities
// are summed per product, the unit price is the first one seen and the
// total is quantity times unit price. Lines are ordered by total, largest
// first.
func Breakdown(records []types.TransactionRecord, companyID string, month time.Time) []types.ProductLine {
	month = analytics.MonthStart(month)

	index := make(map[string]int)
	var lines []types.ProductLine

	for _, r := range records {
		if r.CompanyID != companyID || !analytics.MonthStart(r.Month).Equal(month) {
			continue
		}

		i, ok := index[r.Product]
		if !ok {
			i = len(lines)
			index[r.Product] = i
			lines = append(lines, types.ProductLine{
				Product:   r.Product,
				Quantity:  decimal.Zero,
				UnitPrice: r.UnitPrice,
			})
		}
		lines[i].Quantity = lines[i].Quantity.Add(r.Quantity)
	}

	for i := range lines {
		lines[i].Total = lines[i].Quantity.Mul(lines[i].UnitPrice)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Total.GreaterThan(lines[j].Total)
	})

	return lines
}
