package chart

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/realty/internal/domain"
	"github.com/mtlprog/realty/internal/series"
)

func day(d int) time.Time {
	return time.Date(2024, 7, d, 0, 0, 0, 0, time.UTC)
}

func gapRec(d int, key string, gap *decimal.Decimal) domain.SnapshotRecord {
	return domain.SnapshotRecord{Date: day(d), Key: key, RawName: key + " 단지", GapPrice: gap}
}

func newProjector(t *testing.T, records ...domain.SnapshotRecord) *Projector {
	t.Helper()
	store := series.NewStore()
	if err := store.Replace(records); err != nil {
		t.Fatalf("replacing dataset: %v", err)
	}
	return NewProjector(store)
}

func seriesKeys(s []Series) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Key
	}
	return out
}

func TestProjectOrdersByLastValue(t *testing.T) {
	p := newProjector(t,
		gapRec(1, "A", domain.DecFromInt(20)),
		gapRec(2, "A", domain.DecFromInt(5)),
		gapRec(1, "B", domain.DecFromInt(1)),
		gapRec(2, "B", domain.DecFromInt(9)),
	)

	got, err := p.Project(domain.MetricGapPrice, []string{"A", "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(seriesKeys(got), []string{"B", "A"}) {
		t.Errorf("order = %v, want [B A]", seriesKeys(got))
	}
}

func TestProjectDropsNullPoints(t *testing.T) {
	p := newProjector(t,
		gapRec(3, "A", domain.DecFromInt(7)),
		gapRec(1, "A", domain.DecFromInt(5)),
		gapRec(2, "A", nil),
	)

	got, err := p.Project(domain.MetricGapPrice, []string{"A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("series = %d, want 1", len(got))
	}
	pts := got[0].Points
	if len(pts) != 2 {
		t.Fatalf("points = %d, want 2", len(pts))
	}
	if !pts[0].Date.Equal(day(1)) || !pts[1].Date.Equal(day(3)) {
		t.Errorf("points not in ascending date order: %v", pts)
	}
	if got[0].DisplayName != "A 단지" {
		t.Errorf("DisplayName = %q", got[0].DisplayName)
	}
}

func TestProjectSkipsKeysWithoutData(t *testing.T) {
	p := newProjector(t,
		gapRec(1, "A", nil),
		gapRec(1, "B", domain.DecFromInt(3)),
	)

	got, err := p.Project(domain.MetricGapPrice, []string{"A", "B", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(seriesKeys(got), []string{"B"}) {
		t.Errorf("series = %v, want [B]", seriesKeys(got))
	}
}

func TestProjectEmptySelection(t *testing.T) {
	p := newProjector(t, gapRec(1, "A", domain.DecFromInt(1)))

	got, err := p.Project(domain.MetricGapPrice, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
}

func TestProjectTieBreakByKey(t *testing.T) {
	p := newProjector(t,
		gapRec(1, "C", domain.DecFromInt(4)),
		gapRec(1, "A", domain.DecFromInt(4)),
	)

	got, _ := p.Project(domain.MetricGapPrice, []string{"C", "A", "A"})
	if !slices.Equal(seriesKeys(got), []string{"A", "C"}) {
		t.Errorf("order = %v, want [A C] (duplicates collapsed)", seriesKeys(got))
	}
}

func TestProjectIndependentOfListingSort(t *testing.T) {
	p := newProjector(t,
		domain.SnapshotRecord{Date: day(1), Key: "A", UnitPrice: domain.DecFromInt(1), GapPrice: domain.DecFromInt(9)},
		domain.SnapshotRecord{Date: day(1), Key: "B", UnitPrice: domain.DecFromInt(2), GapPrice: domain.DecFromInt(3)},
	)

	unit, _ := p.Project(domain.MetricUnitPrice, []string{"A", "B"})
	gap, _ := p.Project(domain.MetricGapPrice, []string{"A", "B"})
	if !slices.Equal(seriesKeys(unit), []string{"B", "A"}) || !slices.Equal(seriesKeys(gap), []string{"A", "B"}) {
		t.Errorf("unit=%v gap=%v", seriesKeys(unit), seriesKeys(gap))
	}
}

func TestProjectEmptyStore(t *testing.T) {
	p := NewProjector(series.NewStore())
	if _, err := p.Project(domain.MetricGapPrice, []string{"A"}); !errors.Is(err, series.ErrEmptyDataset) {
		t.Errorf("error = %v, want ErrEmptyDataset", err)
	}
}

func TestProjectUnknownMetric(t *testing.T) {
	p := newProjector(t, gapRec(1, "A", domain.DecFromInt(1)))
	if _, err := p.Project(domain.Metric("volume"), []string{"A"}); !errors.Is(err, domain.ErrUnknownMetric) {
		t.Errorf("error = %v, want ErrUnknownMetric", err)
	}
}

func TestProjectAll(t *testing.T) {
	p := newProjector(t,
		domain.SnapshotRecord{Date: day(1), Key: "A", SalePrice: domain.DecFromInt(100), GapPrice: domain.DecFromInt(40)},
	)

	charts, err := p.ProjectAll(domain.ChartMetrics, []string{"A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(charts) != len(domain.ChartMetrics) {
		t.Fatalf("charts = %d, want %d", len(charts), len(domain.ChartMetrics))
	}

	byMetric := make(map[domain.Metric]Chart)
	for _, c := range charts {
		byMetric[c.Metric] = c
	}
	if byMetric[domain.MetricSalePrice].NoData || byMetric[domain.MetricGapPrice].NoData {
		t.Error("sale and gap charts should have data")
	}
	if !byMetric[domain.MetricLeasePrice].NoData || !byMetric[domain.MetricUnitPrice].NoData {
		t.Error("lease and unit price charts should report no data")
	}
}
