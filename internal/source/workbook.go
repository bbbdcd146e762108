package source

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/realty/internal/domain"
)

// WorkbookReader reads snapshots from an xlsx workbook holding one sheet per
// snapshot date.
type WorkbookReader struct {
	open func() (*excelize.File, error)
}

// NewWorkbookReader reads the workbook at path. The file is reopened on every
// fetch so edits are picked up by the next ingestion.
func NewWorkbookReader(path string) *WorkbookReader {
	return &WorkbookReader{open: func() (*excelize.File, error) {
		return excelize.OpenFile(path)
	}}
}

// NewWorkbookReaderFromBytes reads a workbook already loaded in memory.
func NewWorkbookReaderFromBytes(data []byte) *WorkbookReader {
	return &WorkbookReader{open: func() (*excelize.File, error) {
		return excelize.OpenReader(bytes.NewReader(data))
	}}
}

// Fetch returns the rows of the sheet named snapshotID.
func (r *WorkbookReader) Fetch(_ context.Context, snapshotID string) (domain.RawTable, error) {
	f, err := r.open()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), snapshotID) {
		return domain.RawTable{}, fmt.Errorf("sheet %s: %w", snapshotID, ErrSnapshotNotFound)
	}

	rows, err := f.GetRows(snapshotID)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("reading sheet %s: %w", snapshotID, err)
	}

	return domain.TableFromRows(stringRows(rows)), nil
}

// SnapshotIDs returns the sheet names of the workbook in workbook order.
func (r *WorkbookReader) SnapshotIDs(_ context.Context) ([]string, error) {
	f, err := r.open()
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
