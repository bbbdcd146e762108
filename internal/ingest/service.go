// Package ingest runs the snapshot pipeline: fetch, normalize, derive, store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/realty/internal/domain"
	"github.com/mtlprog/realty/internal/metric"
	"github.com/mtlprog/realty/internal/normalize"
	"github.com/mtlprog/realty/internal/series"
	"github.com/mtlprog/realty/internal/source"
)

const defaultConcurrency = 4

// ErrDuplicateSnapshotDate is reported for a snapshot whose date is already
// covered by an earlier snapshot id of the same cycle.
var ErrDuplicateSnapshotDate = errors.New("duplicate snapshot date")

// AfterIngestHook is called with the new dataset after each successful ingestion.
type AfterIngestHook interface {
	Export(ctx context.Context, data *series.Dataset) error
}

// Failure records a snapshot that could not be ingested.
type Failure struct {
	SnapshotID string `json:"snapshotId"`
	Err        error  `json:"-"`
	Message    string `json:"error"`
}

// Result summarizes one ingestion cycle.
type Result struct {
	Records   int       `json:"records"`
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// Options configures a Service.
type Options struct {
	Reader      source.Reader
	Store       *series.Store
	Mapping     domain.ColumnMapping
	SnapshotIDs []string
	Concurrency int
	Hook        AfterIngestHook // optional
}

// Service ingests all configured snapshots into a store.
type Service struct {
	reader      source.Reader
	store       *series.Store
	mapping     domain.ColumnMapping
	snapshotIDs []string
	concurrency int
	hook        AfterIngestHook

	mu sync.Mutex
}

// NewService creates a new ingestion Service.
func NewService(opts Options) *Service {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		reader:      opts.Reader,
		store:       opts.Store,
		mapping:     opts.Mapping.WithDefaults(),
		snapshotIDs: opts.SnapshotIDs,
		concurrency: concurrency,
		hook:        opts.Hook,
	}
}

type fetchResult struct {
	records []domain.SnapshotRecord
	err     error
}

// Run fetches every snapshot, then replaces the store's dataset with the
// merge of all snapshots that succeeded. Individual snapshot failures are
// logged and reported in Result. If none succeed the store is emptied and the
// returned error wraps series.ErrEmptyDataset.
func (s *Service) Run(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.resolveIDs(ctx)
	if err != nil {
		return Result{}, err
	}

	results := make([]fetchResult, len(ids))
	claimed := make(map[time.Time]string, len(ids))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		if date, err := domain.ParseSnapshotDate(id); err == nil {
			if first, ok := claimed[date]; ok {
				results[i].err = fmt.Errorf("%w: same date as %s", ErrDuplicateSnapshotDate, first)
				continue
			}
			claimed[date] = id
		}
		g.Go(func() error {
			records, err := s.ingestOne(ctx, id)
			results[i] = fetchResult{records: records, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("ingestion cancelled: %w", err)
	}

	var (
		result Result
		merged []domain.SnapshotRecord
	)
	for i, r := range results {
		if r.err != nil {
			slog.Warn("ingest: snapshot skipped", "snapshot", ids[i], "error", r.err)
			result.Failed = append(result.Failed, Failure{SnapshotID: ids[i], Err: r.err, Message: r.err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, ids[i])
		merged = append(merged, r.records...)
	}
	result.Records = len(merged)

	if err := s.store.Replace(merged); err != nil {
		slog.Error("ingest: no snapshot data ingested", "snapshots", len(ids), "failed", len(result.Failed))
		return result, fmt.Errorf("ingesting %d snapshots: %w", len(ids), err)
	}

	slog.Info("ingest: completed",
		"snapshots", len(result.Succeeded), "failed", len(result.Failed), "records", result.Records)

	s.runHook(ctx)
	return result, nil
}

// ingestOne runs the per-snapshot part of the pipeline.
func (s *Service) ingestOne(ctx context.Context, id string) ([]domain.SnapshotRecord, error) {
	date, err := domain.ParseSnapshotDate(id)
	if err != nil {
		return nil, err
	}

	table, err := s.reader.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	records, err := normalize.Normalize(table, date, s.mapping)
	if err != nil {
		return nil, fmt.Errorf("normalizing: %w", err)
	}

	return metric.DeriveAll(records), nil
}

// resolveIDs returns the configured ids, or asks the reader when none are
// configured. Repeated ids are kept once.
func (s *Service) resolveIDs(ctx context.Context) ([]string, error) {
	if len(s.snapshotIDs) > 0 {
		return lo.Uniq(s.snapshotIDs), nil
	}
	lister, ok := s.reader.(source.Lister)
	if !ok {
		return nil, fmt.Errorf("no snapshot ids configured and source cannot list them")
	}
	ids, err := lister.SnapshotIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot ids: %w", err)
	}
	return lo.Uniq(ids), nil
}

// runHook calls the post-ingestion hook if one is configured.
func (s *Service) runHook(ctx context.Context) {
	if s.hook == nil {
		return
	}
	data, err := s.store.Dataset()
	if err != nil {
		return
	}
	if err := s.hook.Export(ctx, data); err != nil {
		slog.Error("ingest: export hook failed", "error", err)
	} else {
		slog.Info("ingest: export hook completed")
	}
}
