package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mtlprog/realty/internal/chart"
	"github.com/mtlprog/realty/internal/domain"
	"github.com/mtlprog/realty/internal/ingest"
	"github.com/mtlprog/realty/internal/normalize"
	"github.com/mtlprog/realty/internal/render"
	"github.com/mtlprog/realty/internal/selection"
	"github.com/mtlprog/realty/internal/series"
)

// Ingester runs one ingestion cycle.
type Ingester interface {
	Run(ctx context.Context) (ingest.Result, error)
}

// Handler provides HTTP endpoints for the listing, selection and charts.
type Handler struct {
	ingester  Ingester
	store     *series.Store
	projector *chart.Projector
	renderer  *render.Renderer
	sessions  *sessions
}

// NewHandler creates a new API handler.
func NewHandler(ingester Ingester, store *series.Store, renderer *render.Renderer) *Handler {
	return &Handler{
		ingester:  ingester,
		store:     store,
		projector: chart.NewProjector(store),
		renderer:  renderer,
		sessions:  newSessions(sessionIdleTTL, maxSessions),
	}
}

type listingResponse struct {
	LatestDate    time.Time            `json:"latestDate"`
	SortCriterion domain.SortCriterion `json:"sortCriterion"`
	Complexes     []selection.Entry    `json:"complexes"`
}

type sortRequest struct {
	Criterion string `json:"criterion"`
}

// Ingest handles POST /api/v1/ingest.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingester.Run(r.Context())
	if err != nil {
		h.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListComplexes handles GET /api/v1/complexes. The sort parameter becomes the
// session's criterion; refresh=1 re-ingests before listing.
func (h *Handler) ListComplexes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var criterion domain.SortCriterion
	if s := q.Get("sort"); s != "" {
		c, err := domain.ParseSortCriterion(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		criterion = c
	}

	if q.Get("refresh") == "1" {
		if _, err := h.ingester.Run(r.Context()); err != nil {
			h.writeIngestError(w, err)
			return
		}
	}

	d, err := h.store.Dataset()
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	resp := listingResponse{LatestDate: d.LatestDate()}
	h.sessions.get(r).with(func(st *selection.State) {
		if criterion != "" {
			st.SetSortCriterion(criterion)
		}
		resp.SortCriterion = st.SortCriterion()
		resp.Complexes = st.Listing(d.Latest())
	})
	writeJSON(w, http.StatusOK, resp)
}

// ToggleSelection handles POST /api/v1/selection/{key}/toggle.
func (h *Handler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	key := normalize.CanonicalKey(r.PathValue("key"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing complex key")
		return
	}

	d, err := h.store.Dataset()
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if !d.HasKey(key) {
		writeError(w, http.StatusNotFound, "unknown complex")
		return
	}

	var summary selection.Summary
	h.sessions.get(r).with(func(st *selection.State) {
		st.Toggle(key)
		summary = st.Summary(d.Latest())
	})
	writeJSON(w, http.StatusOK, summary)
}

// SetSortCriterion handles PUT /api/v1/selection/sort.
func (h *Handler) SetSortCriterion(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := domain.ParseSortCriterion(req.Criterion)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	latest, err := h.store.Latest()
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	var summary selection.Summary
	h.sessions.get(r).with(func(st *selection.State) {
		st.SetSortCriterion(c)
		summary = st.Summary(latest)
	})
	writeJSON(w, http.StatusOK, summary)
}

// GetSelection handles GET /api/v1/selection.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.Latest()
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	var summary selection.Summary
	h.sessions.get(r).with(func(st *selection.State) {
		summary = st.Summary(latest)
	})
	writeJSON(w, http.StatusOK, summary)
}

// GetCharts handles GET /api/v1/charts.
func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.projector.ProjectAll(domain.ChartMetrics, h.selectedKeys(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, charts)
}

// GetChart handles GET /api/v1/charts/{metric}.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.projectMetric(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetChartPNG handles GET /api/v1/charts/{metric}/png.
func (h *Handler) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	c, ok := h.projectMetric(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.PNG(&buf, c); err != nil {
		if errors.Is(err, render.ErrNoData) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to render chart", "metric", c.Metric, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("failed to write chart image", "error", err)
	}
}

func (h *Handler) projectMetric(w http.ResponseWriter, r *http.Request) (chart.Chart, bool) {
	m, err := domain.ParseMetric(r.PathValue("metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return chart.Chart{}, false
	}

	s, err := h.projector.Project(m, h.selectedKeys(r))
	if err != nil {
		h.writeStoreError(w, err)
		return chart.Chart{}, false
	}
	return chart.Chart{Metric: m, Series: s, NoData: len(s) == 0}, true
}

func (h *Handler) selectedKeys(r *http.Request) []string {
	var keys []string
	h.sessions.get(r).with(func(st *selection.State) {
		keys = st.Selected()
	})
	return keys
}

func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	if errors.Is(err, series.ErrEmptyDataset) {
		writeError(w, http.StatusServiceUnavailable, "no data")
		return
	}
	slog.Error("ingestion failed", "error", err)
	writeError(w, http.StatusInternalServerError, "ingestion failed")
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, series.ErrEmptyDataset) {
		writeError(w, http.StatusServiceUnavailable, "no data")
		return
	}
	slog.Error("failed to read dataset", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
