package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSales(t *testing.T) {
	input := strings.Join([]string{
		"sku_code,sale_date,quantity_sold",
		"TOY-001,2026-08-01,12",
		"TOY-001,2026-08-02,7.5",
		"TOY-002,2026-08-01,3",
	}, "\n")

	sales, err := ParseSales(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, sales, 3)

	assert.Equal(t, "TOY-001", sales[0].SKUCode)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), sales[0].SaleDate)
	assert.Equal(t, 12.0, sales[0].QuantitySold)
	assert.Equal(t, 7.5, sales[1].QuantitySold)
}

func TestParseSalesHeaderAliases(t *testing.T) {
	input := strings.Join([]string{
		"sku,date,qty",
		"TOY-001,15/08/2026,4",
	}, "\n")

	sales, err := ParseSales(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), sales[0].SaleDate)
}

func TestParseSalesSkipsBadRows(t *testing.T) {
	input := strings.Join([]string{
		"sku_code,sale_date,quantity_sold",
		",2026-08-01,5",
		"TOY-001,not-a-date,5",
		"TOY-001,2026-08-01,-2",
		"TOY-001,2026-08-01,oops",
		"TOY-002,2026-08-01,6",
	}, "\n")

	sales, err := ParseSales(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "TOY-002", sales[0].SKUCode)
}

func TestParseSalesMissingColumn(t *testing.T) {
	input := "sku_code,sale_date\nTOY-001,2026-08-01"
	_, err := ParseSales(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestParseVariants(t *testing.T) {
	input := strings.Join([]string{
		"sku_code,name,category,unit_price,current_stock",
		"TOY-001,Wooden Blocks,toys,499.00,120",
		"BOOK-001,Picture Book,books,250,35",
	}, "\n")

	variants, err := ParseVariants(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, variants, 2)

	assert.Equal(t, "Wooden Blocks", variants[0].Name)
	assert.Equal(t, "toys", variants[0].Category)
	assert.Equal(t, 499.0, variants[0].UnitPrice)
	assert.Equal(t, 120, variants[0].CurrentStock)
	assert.True(t, variants[0].IsActive)
}

func TestParseVariantsSkipsRowsWithoutSKU(t *testing.T) {
	input := strings.Join([]string{
		"sku_code,name",
		",Nameless",
		"TOY-001,Wooden Blocks",
	}, "\n")

	variants, err := ParseVariants(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, variants, 1)
}
