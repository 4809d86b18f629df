// Package ingest parses daily sales exports and loads them into the
// historical sales table.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidbea/forecast-go/internal/domain"
)

// Export headers vary between sources; each canonical column accepts a few
// aliases. Matching is case-insensitive on the trimmed header.
var (
	skuAliases      = []string{"sku_code", "sku", "sku code"}
	dateAliases     = []string{"sale_date", "date", "order_date"}
	quantityAliases = []string{"quantity_sold", "quantity", "qty", "units_sold"}

	nameAliases     = []string{"name", "product_name", "nama"}
	categoryAliases = []string{"category", "product_category"}
	priceAliases    = []string{"unit_price", "price", "mrp"}
	stockAliases    = []string{"current_stock", "stock", "stock_on_hand"}
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02 15:04:05"}

type columnMap map[string]int

func buildColumnMap(header []string) columnMap {
	m := make(columnMap, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

func (m columnMap) lookup(aliases []string) (int, bool) {
	for _, alias := range aliases {
		if idx, ok := m[alias]; ok {
			return idx, true
		}
	}
	return 0, false
}

func (m columnMap) value(record []string, aliases []string) string {
	if idx, ok := m.lookup(aliases); ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// ParseSales reads a header-mapped CSV of daily sales rows. Rows with a
// missing SKU, an unparseable date, or a negative quantity are skipped with
// a warning rather than failing the file.
func ParseSales(r io.Reader) ([]domain.HistoricalSale, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading sales header: %w", err)
	}
	cols := buildColumnMap(header)

	for _, required := range [][]string{skuAliases, dateAliases, quantityAliases} {
		if _, ok := cols.lookup(required); !ok {
			return nil, fmt.Errorf("missing required column, expected one of %v", required)
		}
	}

	var sales []domain.HistoricalSale
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading sales row %d: %w", line, err)
		}

		skuCode := cols.value(record, skuAliases)
		if skuCode == "" {
			log.Warn().Int("line", line).Msg("sales row without sku skipped")
			continue
		}

		saleDate, err := parseDate(cols.value(record, dateAliases))
		if err != nil {
			log.Warn().Err(err).Int("line", line).Str("sku_code", skuCode).Msg("sales row with bad date skipped")
			continue
		}

		quantity, err := strconv.ParseFloat(cols.value(record, quantityAliases), 64)
		if err != nil || quantity < 0 {
			log.Warn().Int("line", line).Str("sku_code", skuCode).Msg("sales row with bad quantity skipped")
			continue
		}

		sales = append(sales, domain.HistoricalSale{
			SKUCode:      skuCode,
			SaleDate:     saleDate,
			QuantitySold: quantity,
		})
	}

	return sales, nil
}

// ParseVariants reads a header-mapped CSV of product variants.
func ParseVariants(r io.Reader) ([]domain.ProductVariant, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading variants header: %w", err)
	}
	cols := buildColumnMap(header)

	if _, ok := cols.lookup(skuAliases); !ok {
		return nil, fmt.Errorf("missing required column, expected one of %v", skuAliases)
	}

	var variants []domain.ProductVariant
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading variant row %d: %w", line, err)
		}

		skuCode := cols.value(record, skuAliases)
		if skuCode == "" {
			log.Warn().Int("line", line).Msg("variant row without sku skipped")
			continue
		}

		price, _ := strconv.ParseFloat(cols.value(record, priceAliases), 64)
		stock, _ := strconv.Atoi(cols.value(record, stockAliases))

		variants = append(variants, domain.ProductVariant{
			SKUCode:      skuCode,
			Name:         cols.value(record, nameAliases),
			Category:     cols.value(record, categoryAliases),
			UnitPrice:    price,
			CurrentStock: stock,
			IsActive:     true,
		})
	}

	return variants, nil
}
