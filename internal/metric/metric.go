// Package metric computes the derived pricing fields of a snapshot record.
// Every function is pure and propagates unknown (nil) inputs as nil.
package metric

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/realty/internal/domain"
)

var (
	// Sale prices are quoted in 10k-won units for a 24-pyeong reference unit.
	priceUnitScale = decimal.NewFromInt(10000)
	referenceArea  = decimal.NewFromInt(24)
	hundred        = decimal.NewFromInt(100)
)

// deviationPlaces is the number of decimal places kept in DeviationRate.
const deviationPlaces = 1

// UnitPrice is the per-pyeong price in won: sale * 10000 / 24.
func UnitPrice(sale *decimal.Decimal) *decimal.Decimal {
	if sale == nil {
		return nil
	}
	return domain.Dec(sale.Mul(priceUnitScale).Div(referenceArea))
}

// GapPrice is sale - lease.
func GapPrice(sale, lease *decimal.Decimal) *decimal.Decimal {
	if sale == nil || lease == nil {
		return nil
	}
	return domain.Dec(sale.Sub(*lease))
}

// DeviationRate is the percentage distance of sale from the previous peak,
// rounded half-to-even to one decimal place. Nil when the peak is unknown or zero.
func DeviationRate(sale, peak *decimal.Decimal) *decimal.Decimal {
	if sale == nil || peak == nil || peak.IsZero() {
		return nil
	}
	rate := sale.Div(*peak).Mul(hundred).Sub(hundred)
	return domain.Dec(rate.RoundBank(deviationPlaces))
}

// Derive returns r with UnitPrice, GapPrice and DeviationRate recomputed from
// its inputs. Any previous derived values are discarded.
func Derive(r domain.SnapshotRecord) domain.SnapshotRecord {
	r.UnitPrice = UnitPrice(r.SalePrice)
	r.GapPrice = GapPrice(r.SalePrice, r.LeasePrice)
	r.DeviationRate = DeviationRate(r.SalePrice, r.PreviousPeakPrice)
	return r
}

// DeriveAll applies Derive to every record, returning a new slice.
func DeriveAll(records []domain.SnapshotRecord) []domain.SnapshotRecord {
	out := make([]domain.SnapshotRecord, len(records))
	for i, r := range records {
		out[i] = Derive(r)
	}
	return out
}
