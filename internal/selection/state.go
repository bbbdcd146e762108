// Package selection holds a session's selected complexes and listing order.
package selection

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/realty/internal/domain"
)

// State is the selection of one user session. It is not safe for
// concurrent use; each session owns its State.
type State struct {
	selected  map[string]struct{}
	criterion domain.SortCriterion
}

// NewState returns an empty selection sorted by unit price.
func NewState() *State {
	return &State{
		selected:  make(map[string]struct{}),
		criterion: domain.SortByUnitPrice,
	}
}

// Toggle adds key to the selection, or removes it if already selected.
// It reports whether key is selected afterwards.
func (s *State) Toggle(key string) bool {
	if _, ok := s.selected[key]; ok {
		delete(s.selected, key)
		return false
	}
	s.selected[key] = struct{}{}
	return true
}

// IsSelected reports whether key is selected.
func (s *State) IsSelected(key string) bool {
	_, ok := s.selected[key]
	return ok
}

// Selected returns the selected keys, sorted.
func (s *State) Selected() []string {
	keys := lo.Keys(s.selected)
	slices.Sort(keys)
	return keys
}

// Len returns the number of selected keys.
func (s *State) Len() int {
	return len(s.selected)
}

// SetSortCriterion changes the listing order. The selection is untouched.
func (s *State) SetSortCriterion(c domain.SortCriterion) {
	s.criterion = c
}

// SortCriterion returns the active listing order.
func (s *State) SortCriterion() domain.SortCriterion {
	return s.criterion
}

// Entry is one selectable complex in the listing.
type Entry struct {
	Key         string           `json:"key"`
	DisplayName string           `json:"displayName"`
	Value       *decimal.Decimal `json:"value"`
	Selected    bool             `json:"selected"`
}

// Listing orders the latest snapshot by the active criterion and marks the
// selected entries. Each entry carries the criterion's value; the name
// criterion carries the unit price instead.
func (s *State) Listing(latest []domain.SnapshotRecord) []Entry {
	sorted := Sort(latest, s.criterion)
	return lo.Map(sorted, func(r domain.SnapshotRecord, _ int) Entry {
		value := sortValue(r, s.criterion)
		if s.criterion == domain.SortByName {
			value = r.UnitPrice
		}
		return Entry{
			Key:         r.Key,
			DisplayName: r.DisplayName(),
			Value:       value,
			Selected:    s.IsSelected(r.Key),
		}
	})
}

// Summary describes the current selection.
type Summary struct {
	Count         int                  `json:"count"`
	Keys          []string             `json:"keys"`
	DisplayNames  []string             `json:"displayNames"`
	SortCriterion domain.SortCriterion `json:"sortCriterion"`
}

// Summary reports the selected keys and the display names of those present
// in the latest snapshot.
func (s *State) Summary(latest []domain.SnapshotRecord) Summary {
	names := make(map[string]string, len(latest))
	for _, r := range latest {
		if _, ok := names[r.Key]; !ok {
			names[r.Key] = r.DisplayName()
		}
	}

	keys := s.Selected()
	return Summary{
		Count: len(keys),
		Keys:  keys,
		DisplayNames: lo.FilterMap(keys, func(k string, _ int) (string, bool) {
			name, ok := names[k]
			return name, ok
		}),
		SortCriterion: s.criterion,
	}
}

// Sort orders records by criterion. Numeric criteria sort descending with
// ties broken by ascending key, and drop records whose value is unknown.
// The name criterion sorts by ascending key. The input is not modified.
func Sort(records []domain.SnapshotRecord, c domain.SortCriterion) []domain.SnapshotRecord {
	if c == domain.SortByName {
		out := slices.Clone(records)
		slices.SortStableFunc(out, func(a, b domain.SnapshotRecord) int {
			return strings.Compare(a.Key, b.Key)
		})
		return out
	}

	out := lo.Filter(records, func(r domain.SnapshotRecord, _ int) bool {
		return sortValue(r, c) != nil
	})
	slices.SortStableFunc(out, func(a, b domain.SnapshotRecord) int {
		if cmp := sortValue(b, c).Cmp(*sortValue(a, c)); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

func sortValue(r domain.SnapshotRecord, c domain.SortCriterion) *decimal.Decimal {
	switch c {
	case domain.SortByUnitPrice:
		return r.UnitPrice
	case domain.SortByGapPrice:
		return r.GapPrice
	case domain.SortByUnitCount:
		return r.UnitCount
	default:
		return nil
	}
}
