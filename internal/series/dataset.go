// Package series holds the merged, time-ordered snapshot dataset.
package series

import (
	"iter"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/realty/internal/domain"
)

// Dataset is an immutable, date-ordered set of snapshot records.
type Dataset struct {
	records []domain.SnapshotRecord
	byKey   map[string][]int
	latest  time.Time
}

// NewDataset sorts records by ascending date and indexes them by key. Records
// sharing a date keep their input order.
func NewDataset(records []domain.SnapshotRecord) *Dataset {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b domain.SnapshotRecord) int {
		return a.Date.Compare(b.Date)
	})

	byKey := make(map[string][]int)
	for i, r := range sorted {
		byKey[r.Key] = append(byKey[r.Key], i)
	}

	d := &Dataset{records: sorted, byKey: byKey}
	if len(sorted) > 0 {
		d.latest = sorted[len(sorted)-1].Date
	}
	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Empty reports whether the dataset holds no records.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.records) == 0
}

// LatestDate returns the most recent snapshot date.
func (d *Dataset) LatestDate() time.Time {
	return d.latest
}

// Records returns a copy of all records in ascending date order.
func (d *Dataset) Records() []domain.SnapshotRecord {
	return slices.Clone(d.records)
}

// Latest returns the records dated LatestDate.
func (d *Dataset) Latest() []domain.SnapshotRecord {
	// Records are date-sorted, so the latest ones form the tail.
	start := len(d.records)
	for start > 0 && d.records[start-1].Date.Equal(d.latest) {
		start--
	}
	return slices.Clone(d.records[start:])
}

// History yields the records of key in ascending date order. The sequence
// can be ranged over any number of times. Unknown keys yield nothing.
func (d *Dataset) History(key string) iter.Seq[domain.SnapshotRecord] {
	idx := d.byKey[key]
	return func(yield func(domain.SnapshotRecord) bool) {
		for _, i := range idx {
			if !yield(d.records[i]) {
				return
			}
		}
	}
}

// HasKey reports whether key appears anywhere in the dataset.
func (d *Dataset) HasKey(key string) bool {
	_, ok := d.byKey[key]
	return ok
}

// Keys returns every key present in the dataset, sorted.
func (d *Dataset) Keys() []string {
	keys := lo.Keys(d.byKey)
	slices.Sort(keys)
	return keys
}

// Dates returns the distinct snapshot dates in ascending order.
func (d *Dataset) Dates() []time.Time {
	return lo.UniqBy(lo.Map(d.records, func(r domain.SnapshotRecord, _ int) time.Time {
		return r.Date
	}), func(t time.Time) int64 { return t.UnixNano() })
}
