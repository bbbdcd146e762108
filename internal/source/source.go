// Package source fetches raw snapshot tables from external stores.
package source

import (
	"context"
	"errors"

	"github.com/mtlprog/realty/internal/domain"
)

// ErrSnapshotNotFound indicates that the source has no table for the snapshot id.
var ErrSnapshotNotFound = errors.New("snapshot not found at source")

// Reader returns the raw table of one snapshot. Failures are returned, never
// panicked; the caller decides whether to skip the snapshot.
type Reader interface {
	Fetch(ctx context.Context, snapshotID string) (domain.RawTable, error)
}

// Lister is implemented by readers that can enumerate their snapshot ids.
type Lister interface {
	SnapshotIDs(ctx context.Context) ([]string, error)
}

func stringRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		out[i] = cells
	}
	return out
}
