package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopa/costprofiler/internal/types"
)

func productRecord(id string, m time.Time, product string, qty, price string) types.TransactionRecord {
	return types.TransactionRecord{
		CompanyID:   id,
		CompanyName: "Acme Oy",
		Month:       m,
		Product:     product,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
	}
}

func TestBreakdown(t *testing.T) {
	records := []types.TransactionRecord{
		productRecord("1234567-8", month(2025, 5), "Kirjanpito", "2", "10"),
		productRecord("1234567-8", month(2025, 5), "Kirjanpito", "1", "12"),
		productRecord("1234567-8", month(2025, 5), "Palkat", "1", "50"),
		productRecord("1234567-8", month(2025, 4), "Palkat", "9", "50"),
		productRecord("7654321-0", month(2025, 5), "Palkat", "9", "50"),
	}

	lines := Breakdown(records, "1234567-8", time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC))
	require.Len(t, lines, 2)

	assert.Equal(t, "Palkat", lines[0].Product)
	assert.True(t, lines[0].Total.Equal(decimal.NewFromInt(50)))

	assert.Equal(t, "Kirjanpito", lines[1].Product)
	assert.True(t, lines[1].Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, lines[1].UnitPrice.Equal(decimal.NewFromInt(10)), "first unit price wins")
	assert.True(t, lines[1].Total.Equal(decimal.NewFromInt(30)))

	assert.Empty(t, Breakdown(records, "1234567-8", month(2024, 1)))
}

func TestFindCompany(t *testing.T) {
	records := []types.TransactionRecord{
		{CompanyID: "1234567-8", CompanyName: "Acme Oy"},
		{CompanyID: "7654321-0", CompanyName: "Beta  Oy"},
	}

	c, err := FindCompany(records, "FI12345678")
	require.NoError(t, err)
	assert.Equal(t, Company{ID: "1234567-8", Name: "Acme Oy"}, c)

	c, err = FindCompany(records, "beta oy")
	require.NoError(t, err)
	assert.Equal(t, "7654321-0", c.ID)

	_, err = FindCompany(records, "Gamma Oy")
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestCompanyLatestMonth(t *testing.T) {
	records := []types.TransactionRecord{
		{CompanyID: "a", Month: month(2025, 2)},
		{CompanyID: "a", Month: month(2025, 4)},
		{CompanyID: "b", Month: month(2025, 6)},
	}

	latest, ok := CompanyLatestMonth(records, "a")
	require.True(t, ok)
	assert.Equal(t, month(2025, 4), latest)

	_, ok = CompanyLatestMonth(records, "c")
	assert.False(t, ok)
}
