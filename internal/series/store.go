package series

import (
	"errors"
	"iter"
	"sync/atomic"

	"github.com/mtlprog/realty/internal/domain"
)

// ErrEmptyDataset means no snapshot has been ingested successfully. Callers
// must present a "no data" state instead of querying further.
var ErrEmptyDataset = errors.New("no snapshot data available")

// Store holds the current dataset for the process. Replace swaps the whole
// dataset at once, so readers see either the old or the new one in full.
type Store struct {
	current atomic.Pointer[Dataset]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace builds a dataset from records and installs it in place of the
// current one. An empty input installs an empty dataset and returns
// ErrEmptyDataset.
func (s *Store) Replace(records []domain.SnapshotRecord) error {
	d := NewDataset(records)
	s.current.Store(d)
	if d.Empty() {
		return ErrEmptyDataset
	}
	return nil
}

// Dataset returns the current dataset. Use it when several queries must
// observe the same snapshot of data.
func (s *Store) Dataset() (*Dataset, error) {
	d := s.current.Load()
	if d.Empty() {
		return nil, ErrEmptyDataset
	}
	return d, nil
}

// Latest returns the records of the most recent snapshot.
func (s *Store) Latest() ([]domain.SnapshotRecord, error) {
	d, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return d.Latest(), nil
}

// History returns the date-ordered records of key.
func (s *Store) History(key string) (iter.Seq[domain.SnapshotRecord], error) {
	d, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return d.History(key), nil
}

// AllKeys returns every key in the dataset, sorted.
func (s *Store) AllKeys() ([]string, error) {
	d, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return d.Keys(), nil
}
