// Package api serves the agent's connections, catalog and pulls over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"simlink.dev/connector/internal/agent"
	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/filter"
	"simlink.dev/connector/pkg/link"
)

// DefaultRange is the query window when start is omitted.
const DefaultRange = time.Hour

var errBadParameter = errors.New("bad parameter")

type handler struct {
	agent *agent.Agent
}

// NewHandler returns the API mux. JSON responses are gzip compressed when
// the client accepts it.
func NewHandler(a *agent.Agent) http.Handler {
	h := &handler{agent: a}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/connections", h.listConnections)
	mux.HandleFunc("GET /api/connections/{id}", h.getConnection)
	mux.HandleFunc("POST /api/connections/{id}/index", h.index)
	mux.HandleFunc("GET /api/connections/{id}/signals", h.signals)
	mux.HandleFunc("GET /api/connections/{id}/conditions", h.conditions)
	mux.HandleFunc("GET /api/connections/{id}/assets", h.assets)
	mux.HandleFunc("GET /api/connections/{id}/samples", h.samples)
	mux.HandleFunc("GET /api/connections/{id}/capsules", h.capsules)
	mux.Handle("GET /metrics", promhttp.Handler())

	return gzhttp.GzipHandler(mux)
}

// Serve runs the API on addr until ctx is done.
func Serve(ctx context.Context, addr string, a *agent.Agent) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(a),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving API", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write response", slog.Any("error", err))
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadParameter), errors.Is(err, link.ErrInvalidRequest), errors.Is(err, link.ErrNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, link.ErrUnknownConnection):
		return http.StatusNotFound
	case errors.Is(err, link.ErrNotConnected), errors.Is(err, link.ErrIndexInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("API request failed", slog.Any("error", err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type connectionView struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Class                 string          `json:"class"`
	Plugin                string          `json:"plugin"`
	Enabled               bool            `json:"enabled"`
	State                 string          `json:"state"`
	Signals               bool            `json:"signals"`
	Conditions            bool            `json:"conditions"`
	Indexing              bool            `json:"indexing"`
	MaxConcurrentRequests *int            `json:"max_concurrent_requests,omitempty"`
	MaxResultsPerRequest  *int            `json:"max_results_per_request,omitempty"`
	LastIndexedAt         *time.Time      `json:"last_indexed_at,omitempty"`
	Inventory             *link.Inventory `json:"inventory,omitempty"`
}

func viewOf(c *agent.Connection) connectionView {
	v := connectionView{
		ID:                    c.Info.ID,
		Name:                  c.Info.Name,
		Class:                 c.Info.Class,
		Plugin:                c.Plugin(),
		Enabled:               c.Info.Enabled,
		State:                 string(c.State()),
		Signals:               c.Info.Signals,
		Conditions:            c.Info.Conditions,
		Indexing:              c.Info.Indexing,
		MaxConcurrentRequests: c.Info.MaxConcurrentRequests,
		MaxResultsPerRequest:  c.Info.MaxResultsPerRequest,
	}
	if at, inv := c.LastIndexed(); inv != nil {
		v.LastIndexedAt = &at
		v.Inventory = inv
	}
	return v
}

func (h *handler) listConnections(w http.ResponseWriter, r *http.Request) {
	views := []connectionView{}
	for _, c := range h.agent.Connections() {
		views = append(views, viewOf(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) getConnection(w http.ResponseWriter, r *http.Request) {
	c, err := h.agent.Connection(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	res, err := h.agent.Index(r.Context(), r.PathValue("id"), force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"skipped":   res.Skipped,
		"items":     res.Items,
		"inventory": res.Inventory,
	})
}

// catalogFilter reads repeated accept and reject parameters in the
// "field:glob" form used by exporter filters.
func catalogFilter(r *http.Request) (filter.Filter, error) {
	q := r.URL.Query()
	f, err := filter.NewFilter(filter.FilterConfig{Accepted: q["accept"], Rejected: q["reject"]})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadParameter, err)
	}
	return f, nil
}

func (h *handler) signals(w http.ResponseWriter, r *http.Request) {
	c, err := h.agent.Connection(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := catalogFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	signals, err := h.agent.Catalog().Signals(r.Context(), c.ID())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(f.FilterSignals(signals)))
}

func (h *handler) conditions(w http.ResponseWriter, r *http.Request) {
	c, err := h.agent.Connection(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := catalogFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	conditions, err := h.agent.Catalog().Conditions(r.Context(), c.ID())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(f.FilterConditions(conditions)))
}

func (h *handler) assets(w http.ResponseWriter, r *http.Request) {
	c, err := h.agent.Connection(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	assets, err := h.agent.Catalog().Assets(r.Context(), c.ID())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(assets))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type pullQuery struct {
	dataID string
	start  link.TimeInstant
	end    link.TimeInstant
	limit  int
}

// ParseInstant accepts RFC3339 timestamps or integer nanoseconds since the
// Unix epoch.
func ParseInstant(s string) (link.TimeInstant, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return link.TimeInstant(n), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q", errBadParameter, s)
	}
	return link.InstantOf(t), nil
}

func parsePullQuery(r *http.Request, now time.Time) (pullQuery, error) {
	q := r.URL.Query()
	pq := pullQuery{dataID: q.Get("dataId")}
	if pq.dataID == "" {
		return pq, fmt.Errorf("%w: dataId is required", errBadParameter)
	}

	pq.end = link.InstantOf(now)
	if s := q.Get("end"); s != "" {
		end, err := ParseInstant(s)
		if err != nil {
			return pq, err
		}
		pq.end = end
	}
	pq.start = pq.end - link.TimeInstant(DefaultRange)
	if s := q.Get("start"); s != "" {
		start, err := ParseInstant(s)
		if err != nil {
			return pq, err
		}
		pq.start = start
	}
	if pq.start > pq.end {
		return pq, link.ErrInvalidTimeRange
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return pq, fmt.Errorf("%w: invalid limit %q", errBadParameter, s)
		}
		pq.limit = limit
	}
	return pq, nil
}

type sampleView struct {
	Key   link.TimeInstant `json:"key"`
	Time  string           `json:"time"`
	Value float64          `json:"value"`
}

func (h *handler) samples(w http.ResponseWriter, r *http.Request) {
	c, err := h.agent.Connection(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	pq, err := parsePullQuery(r, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := c.GetSamples(r.Context(), link.GetSamplesParameters{
		DataID:                  pq.dataID,
		StartTime:               pq.start,
		EndTime:                 pq.end,
		SampleLimit:             pq.limit,
		LastCertainKeyRequested: true,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	samples := make([]sampleView, 0, len(res.Samples))
	for _, s := range res.Samples {
		samples = append(samples, sampleView{Key: s.Key, Time: s.Key.String(), Value: s.Value})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"samples":          samples,
		"last_certain_key": res.LastCertainKey,
	})
}

type capsuleView struct {
	Start      link.TimeInstant  `json:"start"`
	End        link.TimeInstant  `json:"end"`
	StartTime  string            `json:"start_time"`
	EndTime    string            `json:"end_time"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (h *handler) capsules(w http.ResponseWriter, r *http.Request) {
	c, err := h.agent.Connection(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	pq, err := parsePullQuery(r, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := c.GetCapsules(r.Context(), link.GetCapsulesParameters{
		DataID:                  pq.dataID,
		StartTime:               pq.start,
		EndTime:                 pq.end,
		CapsuleLimit:            pq.limit,
		LastCertainKeyRequested: true,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	capsules := make([]capsuleView, 0, len(res.Capsules))
	for _, capsule := range res.Capsules {
		v := capsuleView{
			Start:     capsule.Start,
			End:       capsule.End,
			StartTime: capsule.Start.String(),
			EndTime:   capsule.End.String(),
		}
		if len(capsule.Properties) > 0 {
			v.Properties = make(map[string]string, len(capsule.Properties))
			for _, p := range capsule.Properties {
				v.Properties[p.Name] = p.Value
			}
		}
		capsules = append(capsules, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"capsules":         capsules,
		"last_certain_key": res.LastCertainKey,
	})
}
