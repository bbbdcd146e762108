package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotRecord is one complex in one dated snapshot. A nil decimal means the
// value is unknown.
type SnapshotRecord struct {
	Date              time.Time        `json:"date"`
	RawName           string           `json:"rawName"`
	Key               string           `json:"key"`
	SalePrice         *decimal.Decimal `json:"salePrice"`
	LeasePrice        *decimal.Decimal `json:"leasePrice"`
	PreviousPeakPrice *decimal.Decimal `json:"previousPeakPrice"`
	UnitCount         *decimal.Decimal `json:"unitCount"`

	// Derived from the fields above, see metric.Derive.
	UnitPrice     *decimal.Decimal `json:"unitPrice"`
	GapPrice      *decimal.Decimal `json:"gapPrice"`
	DeviationRate *decimal.Decimal `json:"deviationRate"`
}

// DisplayName is the raw complex name with surrounding whitespace removed.
func (r SnapshotRecord) DisplayName() string {
	return strings.TrimSpace(r.RawName)
}

// Value returns the record's value for the given metric.
func (r SnapshotRecord) Value(m Metric) *decimal.Decimal {
	switch m {
	case MetricUnitPrice:
		return r.UnitPrice
	case MetricSalePrice:
		return r.SalePrice
	case MetricLeasePrice:
		return r.LeasePrice
	case MetricGapPrice:
		return r.GapPrice
	case MetricDeviationRate:
		return r.DeviationRate
	case MetricUnitCount:
		return r.UnitCount
	default:
		return nil
	}
}
