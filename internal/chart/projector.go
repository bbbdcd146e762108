// Package chart projects stored history into per-complex metric series.
package chart

import (
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/realty/internal/domain"
	"github.com/mtlprog/realty/internal/series"
)

// Point is one dated metric value.
type Point struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Series is the history of one complex for one metric.
type Series struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"displayName"`
	Points      []Point `json:"points"`
}

// Last returns the most recent value of the series.
func (s Series) Last() decimal.Decimal {
	return s.Points[len(s.Points)-1].Value
}

// Chart is every selected series of one metric. NoData is set when none of
// the selected complexes has a value for the metric.
type Chart struct {
	Metric domain.Metric `json:"metric"`
	Series []Series      `json:"series"`
	NoData bool          `json:"noData"`
}

// Projector builds chart series from the current dataset of a store.
type Projector struct {
	store *series.Store
}

// NewProjector creates a Projector reading from store.
func NewProjector(store *series.Store) *Projector {
	return &Projector{store: store}
}

// Project returns one series per selected key that has at least one value
// for metric. Series are ordered by their most recent value, highest first.
// Fails with series.ErrEmptyDataset when nothing has been ingested.
func (p *Projector) Project(metric domain.Metric, keys []string) ([]Series, error) {
	d, err := p.store.Dataset()
	if err != nil {
		return nil, err
	}
	return Project(d, metric, keys)
}

// ProjectAll returns one chart per metric for the same selection, all read
// from a single dataset.
func (p *Projector) ProjectAll(metrics []domain.Metric, keys []string) ([]Chart, error) {
	d, err := p.store.Dataset()
	if err != nil {
		return nil, err
	}

	charts := make([]Chart, 0, len(metrics))
	for _, m := range metrics {
		s, err := Project(d, m, keys)
		if err != nil {
			return nil, err
		}
		charts = append(charts, Chart{Metric: m, Series: s, NoData: len(s) == 0})
	}
	return charts, nil
}

// Project is the dataset-level projection used by Projector.
func Project(d *series.Dataset, metric domain.Metric, keys []string) ([]Series, error) {
	if _, err := domain.ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []Series{}, nil
	}

	out := make([]Series, 0, len(keys))
	for _, key := range lo.Uniq(keys) {
		s := Series{Key: key}
		for r := range d.History(key) {
			s.DisplayName = r.DisplayName()
			v := r.Value(metric)
			if v == nil {
				continue
			}
			s.Points = append(s.Points, Point{Date: r.Date, Value: *v})
		}
		if len(s.Points) == 0 {
			continue
		}
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b Series) int {
		if cmp := b.Last().Cmp(a.Last()); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out, nil
}

// Title is the heading of a metric's chart.
func Title(m domain.Metric) string {
	switch m {
	case domain.MetricUnitPrice:
		return "Unit price"
	case domain.MetricSalePrice:
		return "Sale price"
	case domain.MetricLeasePrice:
		return "Lease price"
	case domain.MetricGapPrice:
		return "Gap price"
	case domain.MetricDeviationRate:
		return "Deviation from previous peak (%)"
	case domain.MetricUnitCount:
		return "Unit count"
	default:
		return string(m)
	}
}
