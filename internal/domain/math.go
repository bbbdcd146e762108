package domain

import (
	"github.com/shopspring/decimal"
)

// Dec returns a pointer to d, for building nullable values.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// DecFromInt is Dec for integer literals.
func DecFromInt(n int64) *decimal.Decimal {
	return Dec(decimal.NewFromInt(n))
}

// Float converts a nullable decimal to a float64, or nil when unknown.
// Spreadsheet and JSON writers use it to keep empty cells empty.
func Float(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}

// EqualNullable reports whether a and b are both nil or hold equal values.
func EqualNullable(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
