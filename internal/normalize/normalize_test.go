package normalize

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/realty/internal/domain"
)

var snapDate = time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"래미안 원베일리", "래미안원베일리"},
		{"  아크로리버파크  ", "아크로리버파크"},
		{"헬리오\t시티\n", "헬리오시티"},
		{"A  B   C", "ABC"},
		{"   ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := CanonicalKey(tt.raw)
			if got != tt.want {
				t.Errorf("CanonicalKey(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if again := CanonicalKey(got); again != got {
				t.Errorf("CanonicalKey not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string // "" means nil
	}{
		{"plain", "123", "123"},
		{"thousands", "1,234,567", "1234567"},
		{"decimal", " 12.5 ", "12.5"},
		{"negative", "-3", "-3"},
		{"empty", "", ""},
		{"dash", "-", ""},
		{"dash spaced", " - ", ""},
		{"garbage", "n/a", ""},
		{"nan text", "NaN", ""},
		{"float", 45.5, "45.5"},
		{"nan float", math.NaN(), ""},
		{"inf float", math.Inf(1), ""},
		{"int", 42, "42"},
		{"int64", int64(7), "7"},
		{"decimal value", decimal.RequireFromString("9.9"), "9.9"},
		{"nil", nil, ""},
		{"bool", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Number(tt.in)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Number(%v) = %s, want nil", tt.in, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Number(%v) = nil, want %s", tt.in, tt.want)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Number(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	table := domain.TableFromRows([][]any{
		{"단지명", "매매가", "전세가", "총세대수", "전고점 "},
		{"래미안 원베일리", "720,000", "200,000", "2,990", "650000"},
		{"  헬리오 시티", "-", "", "9510", "x"},
		{nil, "100", "50", "10", "90"},
		{"   ", "100", "50", "10", "90"},
		{"반포자이"},
	})

	records, err := Normalize(table, snapDate, domain.DefaultColumnMapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	first := records[0]
	if first.Key != "래미안원베일리" || first.RawName != "래미안 원베일리" {
		t.Errorf("first key/name = %q/%q", first.Key, first.RawName)
	}
	if !first.Date.Equal(snapDate) {
		t.Errorf("first date = %v, want %v", first.Date, snapDate)
	}
	if !domain.EqualNullable(first.SalePrice, domain.DecFromInt(720000)) {
		t.Errorf("SalePrice = %v", first.SalePrice)
	}
	if !domain.EqualNullable(first.UnitCount, domain.DecFromInt(2990)) {
		t.Errorf("UnitCount = %v", first.UnitCount)
	}
	if !domain.EqualNullable(first.PreviousPeakPrice, domain.DecFromInt(650000)) {
		t.Errorf("PreviousPeakPrice = %v (header with trailing space should match)", first.PreviousPeakPrice)
	}

	second := records[1]
	if second.Key != "헬리오시티" {
		t.Errorf("second key = %q", second.Key)
	}
	if second.SalePrice != nil || second.LeasePrice != nil || second.PreviousPeakPrice != nil {
		t.Errorf("expected nil prices for dash/blank/garbage, got %+v", second)
	}

	short := records[2]
	if short.Key != "반포자이" || short.SalePrice != nil || short.UnitCount != nil {
		t.Errorf("short row = %+v", short)
	}

	for _, r := range records {
		if r.UnitPrice != nil || r.GapPrice != nil || r.DeviationRate != nil {
			t.Errorf("derived fields must be empty after normalize: %+v", r)
		}
	}
}

func TestNormalizeMissingOptionalColumns(t *testing.T) {
	table := domain.TableFromRows([][]any{
		{"단지명", "매매가"},
		{"A", 10.0},
	})

	records, err := Normalize(table, snapDate, domain.ColumnMapping{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].LeasePrice != nil || records[0].UnitCount != nil {
		t.Errorf("absent columns should yield nil fields: %+v", records[0])
	}
}

func TestNormalizeMissingNameColumn(t *testing.T) {
	table := domain.TableFromRows([][]any{
		{"name", "매매가"},
		{"A", "10"},
	})

	_, err := Normalize(table, snapDate, domain.DefaultColumnMapping)
	if !errors.Is(err, ErrMissingNameColumn) {
		t.Errorf("error = %v, want ErrMissingNameColumn", err)
	}
}

func TestNormalizeCustomMapping(t *testing.T) {
	table := domain.TableFromRows([][]any{
		{"complex", "sale", "lease"},
		{"Park View", "1,000", "600"},
	})
	mapping := domain.ColumnMapping{Name: "complex", SalePrice: "sale", LeasePrice: "lease"}

	records, err := Normalize(table, snapDate, mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Key != "ParkView" {
		t.Fatalf("records = %+v", records)
	}
	if !domain.EqualNullable(records[0].LeasePrice, domain.DecFromInt(600)) {
		t.Errorf("LeasePrice = %v", records[0].LeasePrice)
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	table := domain.TableFromRows([][]any{
		{"단지명"},
		{" 잠실 엘스 "},
	})
	first, err := Normalize(table, snapDate, domain.DefaultColumnMapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again := domain.TableFromRows([][]any{{"단지명"}, {first[0].Key}})
	second, err := Normalize(again, snapDate, domain.DefaultColumnMapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first[0].Key != second[0].Key {
		t.Errorf("key changed on re-normalization: %q -> %q", first[0].Key, second[0].Key)
	}
}
