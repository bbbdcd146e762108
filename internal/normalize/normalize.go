// Package normalize turns raw snapshot tables into typed records.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/realty/internal/domain"
)

// ErrMissingNameColumn indicates that a table has no complex name column at all.
var ErrMissingNameColumn = errors.New("complex name column missing")

// CanonicalKey derives the record key from a raw complex name: all whitespace
// is removed. Returns "" when nothing is left.
func CanonicalKey(rawName string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(rawName), ""))
}

// Normalize converts every usable row of table into a record dated date.
// Rows without a name, or whose name is blank, are dropped. Numeric fields
// that cannot be parsed become nil; they never fail the table.
func Normalize(table domain.RawTable, date time.Time, mapping domain.ColumnMapping) ([]domain.SnapshotRecord, error) {
	mapping = mapping.WithDefaults()

	nameIdx := table.ColumnIndex(mapping.Name)
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingNameColumn, mapping.Name)
	}
	saleIdx := table.ColumnIndex(mapping.SalePrice)
	leaseIdx := table.ColumnIndex(mapping.LeasePrice)
	unitsIdx := table.ColumnIndex(mapping.UnitCount)
	peakIdx := table.ColumnIndex(mapping.PreviousPeakPrice)

	records := make([]domain.SnapshotRecord, 0, len(table.Rows))
	dropped := 0
	for i := range table.Rows {
		rawName, ok := nameCell(table.Cell(i, nameIdx))
		if !ok {
			dropped++
			continue
		}
		key := CanonicalKey(rawName)
		if key == "" {
			dropped++
			continue
		}

		records = append(records, domain.SnapshotRecord{
			Date:              date,
			RawName:           rawName,
			Key:               key,
			SalePrice:         Number(table.Cell(i, saleIdx)),
			LeasePrice:        Number(table.Cell(i, leaseIdx)),
			UnitCount:         Number(table.Cell(i, unitsIdx)),
			PreviousPeakPrice: Number(table.Cell(i, peakIdx)),
		})
	}

	if dropped > 0 {
		slog.Debug("normalize: dropped rows without a complex name", "date", date.Format(time.DateOnly), "dropped", dropped)
	}
	return records, nil
}

func nameCell(v any) (string, bool) {
	switch n := v.(type) {
	case nil:
		return "", false
	case string:
		return n, true
	case float64:
		if math.IsNaN(n) {
			return "", false
		}
	}
	return fmt.Sprint(v), true
}

// Number coerces a price-like cell to a decimal. Thousands separators are
// stripped; blanks, a lone dash and anything unparseable yield nil.
func Number(v any) *decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return nil
	case string:
		return parseNumber(n)
	case decimal.Decimal:
		return domain.Dec(n)
	case *decimal.Decimal:
		if n == nil {
			return nil
		}
		return domain.Dec(*n)
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return domain.DecFromInt(int64(n))
	case int32:
		return domain.DecFromInt(int64(n))
	case int64:
		return domain.DecFromInt(n)
	case bool:
		return nil
	default:
		return parseNumber(fmt.Sprint(v))
	}
}

func parseNumber(s string) *decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func fromFloat(f float64) *decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return domain.Dec(decimal.NewFromFloat(f))
}
