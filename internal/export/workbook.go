package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WorkbookWriter implements SheetWriter by saving an xlsx file.
type WorkbookWriter struct {
	path string
}

// NewWorkbookWriter creates a writer that saves to path on every Write.
func NewWorkbookWriter(path string) *WorkbookWriter {
	return &WorkbookWriter{path: path}
}

// Write builds a fresh workbook with one sheet per tab and saves it.
func (w *WorkbookWriter) Write(_ context.Context, tabs []Tab) error {
	f, err := buildWorkbook(tabs)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

func buildWorkbook(tabs []Tab) (*excelize.File, error) {
	f := excelize.NewFile()
	const defaultSheet = "Sheet1"

	for i, tab := range tabs {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, tab.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("naming sheet %s: %w", tab.Name, err)
			}
		} else if _, err := f.NewSheet(tab.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %s: %w", tab.Name, err)
		}

		for r, row := range tab.Values {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetSheetRow(tab.Name, cell, &row); err != nil {
				f.Close()
				return nil, fmt.Errorf("writing %s row %d: %w", tab.Name, r+1, err)
			}
		}
	}
	return f, nil
}
