package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/taopa/costprofiler/internal/cleaning"
	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/csvparser"
	"github.com/taopa/costprofiler/internal/types"
)

// =============================================================================
// NAME PREFIX
// =============================================================================

// DropNamePrefix removes records whose company name starts with prefix and
// returns the kept records and the number dropped. An empty prefix keeps
// everything.
func DropNamePrefix(records []types.TransactionRecord, prefix string) ([]types.TransactionRecord, int) {
	if prefix == "" {
		return records, 0
	}

	kept := make([]types.TransactionRecord, 0, len(records))
	for _, r := range records {
		if strings.HasPrefix(strings.TrimSpace(r.CompanyName), prefix) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}

// =============================================================================
// EXCLUSIONS
// =============================================================================

// Exclusions is a set of companies removed from every report. Business ids
// and names are compared in normalised form.
type Exclusions struct {
	ids   map[string]bool
	names map[string]bool
}

// NewExclusions builds an exclusion set from id and name lists.
func NewExclusions(ids, names []string) *Exclusions {
	e := &Exclusions{ids: make(map[string]bool), names: make(map[string]bool)}
	for _, id := range ids {
		e.AddID(id)
	}
	for _, name := range names {
		e.AddName(name)
	}
	return e
}

// AddID excludes a business id.
func (e *Exclusions) AddID(id string) {
	if key := cleaning.NormalizeBusinessID(id); key != "" {
		e.ids[key] = true
	}
}

// AddName excludes a company name.
func (e *Exclusions) AddName(name string) {
	if key := cleaning.NormalizeName(name); key != "" {
		e.names[key] = true
	}
}

// Len returns the number of excluded ids and names.
func (e *Exclusions) Len() int {
	return len(e.ids) + len(e.names)
}

// Excludes reports whether a company is excluded by id or by name.
func (e *Exclusions) Excludes(companyID, companyName string) bool {
	if e.ids[cleaning.NormalizeBusinessID(companyID)] {
		return true
	}
	return e.names[cleaning.NormalizeName(companyName)]
}

// LoadFile adds the ids and names of an exclusion CSV. The file needs a
// company id column, a company name column, or both; their headers are
// matched against the configured candidates.
func (e *Exclusions) LoadFile(path string, settings config.InputConfig, columns config.ColumnConfig) error {
	fileSettings := settings
	fileSettings.HeaderRow = 1

	table, err := csvparser.Parse(path, fileSettings)
	if err != nil {
		return fmt.Errorf("failed to read exclusion file: %w", err)
	}

	idCol, hasID := cleaning.FindColumn(table.Headers, columns.CompanyID)
	nameCol, hasName := cleaning.FindColumn(table.Headers, columns.CompanyName)
	if !hasID && !hasName {
		return fmt.Errorf("exclusion file %s: %w: company id or name", path, cleaning.ErrMissingColumn)
	}

	for _, row := range table.Rows {
		if hasID {
			e.AddID(row.Fields[idCol])
		}
		if hasName {
			e.AddName(row.Fields[nameCol])
		}
	}
	return nil
}

// Apply removes excluded records and returns the kept records and the
// number dropped.
func (e *Exclusions) Apply(records []types.TransactionRecord) ([]types.TransactionRecord, int) {
	if e == nil || e.Len() == 0 {
		return records, 0
	}

	kept := make([]types.TransactionRecord, 0, len(records))
	for _, r := range records {
		if e.Excludes(r.CompanyID, r.CompanyName) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}

// =============================================================================
// ACTIVE CUSTOMERS
// =============================================================================

// LatestMonth returns the latest billing month of the records. ok is false
// for no records.
func LatestMonth(records []types.TransactionRecord) (latest time.Time, ok bool) {
	for i, r := range records {
		if i == 0 || r.Month.After(latest) {
			latest = r.Month
		}
	}
	return latest, len(records) > 0
}

// ActiveOnly keeps the records of companies billed in the latest month of
// the whole dataset and returns them with the number of ended companies
// removed.
func ActiveOnly(records []types.TransactionRecord) ([]types.TransactionRecord, int) {
	latest, ok := LatestMonth(records)
	if !ok {
		return records, 0
	}

	active := make(map[string]bool)
	all := make(map[string]bool)
	for _, r := range records {
		all[r.CompanyID] = true
		if r.Month.Equal(latest) {
			active[r.CompanyID] = true
		}
	}

	kept := make([]types.TransactionRecord, 0, len(records))
	for _, r := range records {
		if active[r.CompanyID] {
			kept = append(kept, r)
		}
	}
	return kept, len(all) - len(active)
}

// =============================================================================
// CREDIT CUSTOMERS
// =============================================================================

// CreditCompanies returns the ids of companies with any profile whose
// all-time average is negative.
func CreditCompanies(profiles []types.CompanyProgramProfile) map[string]bool {
	ids := make(map[string]bool)
	for _, p := range profiles {
		if p.AvgAll < 0 {
			ids[p.CompanyID] = true
		}
	}
	return ids
}

// WithoutCompanies removes the given company ids from profiles, the monthly
// series and the records.
func WithoutCompanies(ids map[string]bool, profiles []types.CompanyProgramProfile, monthly []types.MonthlyAggregate, records []types.TransactionRecord) ([]types.CompanyProgramProfile, []types.MonthlyAggregate, []types.TransactionRecord) {
	if len(ids) == 0 {
		return profiles, monthly, records
	}

	keptProfiles := make([]types.CompanyProgramProfile, 0, len(profiles))
	for _, p := range profiles {
		if !ids[p.CompanyID] {
			keptProfiles = append(keptProfiles, p)
		}
	}

	keptMonthly := make([]types.MonthlyAggregate, 0, len(monthly))
	for _, m := range monthly {
		if !ids[m.CompanyID] {
			keptMonthly = append(keptMonthly, m)
		}
	}

	keptRecords := make([]types.TransactionRecord, 0, len(records))
	for _, r := range records {
		if !ids[r.CompanyID] {
			keptRecords = append(keptRecords, r)
		}
	}

	return keptProfiles, keptMonthly, keptRecords
}
