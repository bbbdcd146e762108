package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/realty/internal/domain"
)

// SheetsReader reads snapshot sheets of a private spreadsheet through the
// Google Sheets API.
type SheetsReader struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsReader creates a SheetsReader authenticated with a service account JSON.
func NewSheetsReader(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsReader, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsReader{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Fetch reads all values of the sheet titled snapshotID.
func (r *SheetsReader) Fetch(ctx context.Context, snapshotID string) (domain.RawTable, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange(snapshotID)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusNotFound) {
			return domain.RawTable{}, fmt.Errorf("sheet %s: %w", snapshotID, ErrSnapshotNotFound)
		}
		return domain.RawTable{}, fmt.Errorf("reading sheet %s: %w", snapshotID, err)
	}

	return domain.TableFromRows(resp.Values), nil
}

// SnapshotIDs returns the sheet titles of the spreadsheet.
func (r *SheetsReader) SnapshotIDs(ctx context.Context) ([]string, error) {
	spreadsheet, err := r.svc.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	ids := make([]string, 0, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		ids = append(ids, s.Properties.Title)
	}
	return ids, nil
}

// sheetRange quotes a sheet title for A1 notation, e.g. 24.06.07 -> '24.06.07'.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
