package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/realty/internal/render"
	"github.com/mtlprog/realty/internal/series"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, ingester Ingester, store *series.Store, renderer *render.Renderer, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(NewHandler(ingester, store, renderer), adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers the handler's routes. The ingestion trigger requires a
// bearer token when adminAPIKey is set.
func NewMux(handler *Handler, adminAPIKey string) *http.ServeMux {
	mux := http.NewServeMux()

	ingestHandler := http.HandlerFunc(handler.Ingest)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/ingest", requireAuth(adminAPIKey, ingestHandler))
	} else {
		mux.Handle("POST /api/v1/ingest", ingestHandler)
	}

	mux.HandleFunc("GET /api/v1/complexes", handler.ListComplexes)
	mux.HandleFunc("GET /api/v1/selection", handler.GetSelection)
	mux.HandleFunc("PUT /api/v1/selection/sort", handler.SetSortCriterion)
	mux.HandleFunc("POST /api/v1/selection/{key}/toggle", handler.ToggleSelection)
	mux.HandleFunc("GET /api/v1/charts", handler.GetCharts)
	mux.HandleFunc("GET /api/v1/charts/{metric}", handler.GetChart)
	mux.HandleFunc("GET /api/v1/charts/{metric}/png", handler.GetChartPNG)

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
