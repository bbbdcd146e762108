package metric

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/realty/internal/domain"
)

func dec(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d := decimal.RequireFromString(s)
	return &d
}

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name string
		sale string
		want string
	}{
		{"exact", "24", "10000"},
		{"large", "240000", "100000000"},
		{"fraction", "10", "4166.6666666666666667"},
		{"zero", "0", "0"},
		{"nil", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnitPrice(dec(tt.sale))
			if !domain.EqualNullable(got, dec(tt.want)) {
				t.Errorf("UnitPrice(%s) = %v, want %v", tt.sale, got, tt.want)
			}
		})
	}
}

func TestUnitPriceMatchesFormula(t *testing.T) {
	for _, s := range []string{"1", "3", "7.5", "123456", "99999.99"} {
		sale := decimal.RequireFromString(s)
		want := sale.Mul(decimal.NewFromInt(10000)).Div(decimal.NewFromInt(24))
		got := UnitPrice(&sale)
		if got == nil || !got.Equal(want) {
			t.Errorf("UnitPrice(%s) = %v, want %s", s, got, want)
		}
	}
}

func TestGapPrice(t *testing.T) {
	tests := []struct {
		name        string
		sale, lease string
		want        string
	}{
		{"positive", "720000", "200000", "520000"},
		{"negative", "100", "150", "-50"},
		{"decimal", "10.5", "0.25", "10.25"},
		{"nil sale", "", "100", ""},
		{"nil lease", "100", "", ""},
		{"both nil", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GapPrice(dec(tt.sale), dec(tt.lease))
			if !domain.EqualNullable(got, dec(tt.want)) {
				t.Errorf("GapPrice(%s, %s) = %v, want %v", tt.sale, tt.lease, got, tt.want)
			}
		})
	}
}

func TestDeviationRate(t *testing.T) {
	tests := []struct {
		name       string
		sale, peak string
		want       string
	}{
		{"below peak", "90", "100", "-10"},
		{"above peak", "110", "100", "10"},
		{"at peak", "100", "100", "0"},
		{"rounded", "2", "3", "-33.3"},
		{"rounded up", "200000", "150000", "33.3"},
		{"one decimal", "123.45", "100", "23.4"},
		{"zero peak", "100", "0", ""},
		{"nil peak", "100", "", ""},
		{"nil sale", "", "100", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeviationRate(dec(tt.sale), dec(tt.peak))
			if !domain.EqualNullable(got, dec(tt.want)) {
				t.Errorf("DeviationRate(%s, %s) = %v, want %v", tt.sale, tt.peak, got, tt.want)
			}
		})
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	in := domain.SnapshotRecord{
		Key:               "A",
		SalePrice:         dec("155000"),
		LeasePrice:        dec("72000"),
		PreviousPeakPrice: dec("170000"),
		GapPrice:          dec("1"), // stale, must be replaced
	}

	first := Derive(in)
	second := Derive(first)

	if !domain.EqualNullable(first.GapPrice, dec("83000")) {
		t.Errorf("GapPrice = %v, want 83000", first.GapPrice)
	}
	if !domain.EqualNullable(first.DeviationRate, dec("-8.8")) {
		t.Errorf("DeviationRate = %v, want -8.8", first.DeviationRate)
	}
	for _, pair := range [][2]*decimal.Decimal{
		{first.UnitPrice, second.UnitPrice},
		{first.GapPrice, second.GapPrice},
		{first.DeviationRate, second.DeviationRate},
	} {
		if pair[0].String() != pair[1].String() {
			t.Errorf("recomputation differs: %s vs %s", pair[0], pair[1])
		}
	}
}

func TestDeriveAllNullPropagation(t *testing.T) {
	out := DeriveAll([]domain.SnapshotRecord{{Key: "empty"}})
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].UnitPrice != nil || out[0].GapPrice != nil || out[0].DeviationRate != nil {
		t.Errorf("expected all derived fields nil, got %+v", out[0])
	}
}
