package export

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/realty/internal/domain"
	"github.com/mtlprog/realty/internal/selection"
	"github.com/mtlprog/realty/internal/series"
)

const (
	historySheet = "HISTORY"
	latestSheet  = "LATEST"
)

// Tab is one named sheet of values, header row first.
type Tab struct {
	Name   string
	Values [][]any
}

// SheetWriter writes tabs to a spreadsheet destination, replacing their contents.
type SheetWriter interface {
	Write(ctx context.Context, tabs []Tab) error
}

// Service converts datasets to spreadsheet tabs and delegates writing to a SheetWriter.
type Service struct {
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	return &Service{writer: writer}
}

// Export writes the full history and the latest snapshot (by unit price) to the sheet.
// Implements ingest.AfterIngestHook.
func (s *Service) Export(ctx context.Context, data *series.Dataset) error {
	if data.Empty() {
		return series.ErrEmptyDataset
	}

	tabs := []Tab{
		{Name: historySheet, Values: buildRows(data.Records())},
		{Name: latestSheet, Values: buildRows(selection.Sort(data.Latest(), domain.SortByUnitPrice))},
	}
	if err := s.writer.Write(ctx, tabs); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

var header = []any{
	"Date", "Name", "Key", "Sale price", "Lease price", "Gap price",
	"Unit price", "Units", "Previous peak", "Deviation %",
}

// buildRows renders records as sheet rows.
// Columns: Date | Name | Key | Sale | Lease | Gap | Unit price | Units | Previous peak | Deviation %
func buildRows(records []domain.SnapshotRecord) [][]any {
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, header)
	return append(rows, lo.Map(records, func(r domain.SnapshotRecord, _ int) []any {
		return []any{
			r.Date.Format(time.DateOnly),
			r.DisplayName(),
			r.Key,
			domain.Float(r.SalePrice),
			domain.Float(r.LeasePrice),
			domain.Float(r.GapPrice),
			domain.Float(r.UnitPrice),
			domain.Float(r.UnitCount),
			domain.Float(r.PreviousPeakPrice),
			domain.Float(r.DeviationRate),
		}
	})...)
}
