package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mtlprog/realty/internal/domain"
)

// GvizReader reads one sheet of a publicly shared spreadsheet per snapshot,
// using the visualization CSV export. Sheet titles are the snapshot ids.
type GvizReader struct {
	baseURL       string
	spreadsheetID string
	httpClient    *http.Client
	maxRetries    int
	baseDelay     time.Duration
}

// NewGvizReader creates a reader for the given spreadsheet. baseURL is
// normally https://docs.google.com.
func NewGvizReader(baseURL, spreadsheetID string, maxRetries int, baseDelay time.Duration) *GvizReader {
	return &GvizReader{
		baseURL:       baseURL,
		spreadsheetID: spreadsheetID,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		maxRetries:    maxRetries,
		baseDelay:     baseDelay,
	}
}

// Fetch downloads and parses the CSV export of the snapshot's sheet.
func (r *GvizReader) Fetch(ctx context.Context, snapshotID string) (domain.RawTable, error) {
	u := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		r.baseURL, url.PathEscape(r.spreadsheetID), url.QueryEscape(snapshotID))

	body, err := r.get(ctx, u)
	if err != nil {
		return domain.RawTable{}, err
	}

	cr := csv.NewReader(bytes.NewReader(body))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("parsing CSV for sheet %s: %w", snapshotID, err)
	}
	if len(rows) == 0 {
		return domain.RawTable{}, fmt.Errorf("sheet %s: %w", snapshotID, ErrSnapshotNotFound)
	}

	return domain.TableFromRows(stringRows(rows)), nil
}

// get performs a GET request with retry on 429.
func (r *GvizReader) get(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := range r.maxRetries + 1 {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil
		case http.StatusNotFound:
			return nil, fmt.Errorf("HTTP 404 from %s: %w", u, ErrSnapshotNotFound)
		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("HTTP 429 at %s (attempt %d/%d)", u, attempt+1, r.maxRetries+1)
			if attempt < r.maxRetries {
				delay := r.baseDelay * time.Duration(1<<uint(attempt))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, lastErr
		}

		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, u, string(body))
	}

	return nil, lastErr
}
