package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/WessleyAI/autosphere/engine/advisor"
	"github.com/WessleyAI/autosphere/engine/catalog"
	"github.com/WessleyAI/autosphere/engine/listing"
	"github.com/WessleyAI/autosphere/engine/session"
	"github.com/WessleyAI/autosphere/pkg/fn"
	"github.com/WessleyAI/autosphere/pkg/metrics"
	"github.com/WessleyAI/autosphere/pkg/mid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

type server struct {
	cat     *catalog.Catalog
	store   *session.Store
	gather  prometheus.Gatherer
	logger  *slog.Logger
	limiter *rate.Limiter

	// bg is the parent context of AI calls started by a request.
	bg     context.Context
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// errShuttingDown fails AI requests that arrive once shutdown has begun.
var errShuttingDown = errors.New("server is shutting down")

func newServer(cat *catalog.Catalog, store *session.Store, g prometheus.Gatherer, bg context.Context, logger *slog.Logger, limiter *rate.Limiter) *server {
	if logger == nil {
		logger = slog.Default()
	}
	return &server{cat: cat, store: store, gather: g, bg: bg, logger: logger, limiter: limiter}
}

func (s *server) routes() http.Handler {
	ai := mid.RateLimit(s.limiter)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", metrics.Handler(s.gather))

	mux.HandleFunc("GET /api/vehicles", s.handleListVehicles)
	mux.HandleFunc("GET /api/vehicles/{id}", s.handleGetVehicle)
	mux.HandleFunc("GET /api/filters/options", s.handleFilterOptions)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.handleGetSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("PUT /api/sessions/{id}/filters", s.withSession(s.handleSetFilters))
	mux.HandleFunc("POST /api/sessions/{id}/filters/reset", s.withSession(s.handleResetFilters))
	mux.HandleFunc("PUT /api/sessions/{id}/sort", s.withSession(s.handleSetSort))

	mux.Handle("POST /api/sessions/{id}/search", ai(s.withSession(s.handleSearch)))
	mux.HandleFunc("DELETE /api/sessions/{id}/search", s.withSession(s.handleClearSearch))

	mux.HandleFunc("POST /api/sessions/{id}/compare/{vehicleId}", s.withSession(s.handleToggleCompare))
	mux.HandleFunc("DELETE /api/sessions/{id}/compare/{vehicleId}", s.withSession(s.handleRemoveCompare))
	mux.HandleFunc("DELETE /api/sessions/{id}/compare", s.withSession(s.handleClearCompare))
	mux.HandleFunc("POST /api/sessions/{id}/compare:run", s.withSession(s.handleRunCompare))

	mux.Handle("POST /api/sessions/{id}/detail/{vehicleId}", ai(s.withSession(s.handleOpenDetail)))
	mux.HandleFunc("DELETE /api/sessions/{id}/detail", s.withSession(s.handleCloseDetail))
	return mux
}

// background runs f detached from the request, bounded by the server
// lifetime. It reports false, without running f, once close was called.
func (s *server) background(f func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f(s.bg)
	}()
	return true
}

// close stops background from accepting work.
func (s *server) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// wait blocks until all background work has finished.
func (s *server) wait() { s.wg.Wait() }

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var ve *catalog.ValidationError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSearchInFlight), errors.Is(err, session.ErrNotEnoughToCompare):
		return http.StatusConflict
	case errors.As(err, &ve), errors.Is(err, listing.ErrUnknownSortKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

func (s *server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.store.Get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h(w, r, sess)
	}
}

// --- Catalog ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VehiclesResponse is the JSON response for GET /api/vehicles.
type VehiclesResponse struct {
	Vehicles []catalog.Vehicle `json:"vehicles"`
	Count    int               `json:"count"`
	Total    int               `json:"total"`
}

func (s *server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	c, key, err := criteriaFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	vs := listing.Apply(s.cat.All(), c, listing.Inactive(), key)
	writeJSON(w, http.StatusOK, VehiclesResponse{Vehicles: vs, Count: len(vs), Total: s.cat.Len()})
}

// criteriaFromQuery reads stateless listing filters from query parameters.
// bodyType and fuelType may repeat.
func criteriaFromQuery(q url.Values) (listing.Criteria, listing.SortKey, error) {
	c := listing.DefaultCriteria()
	c.Search = q.Get("search")
	c.Make = q.Get("make")
	for field, dst := range map[string]*int{"minPrice": &c.MinPrice, "maxPrice": &c.MaxPrice} {
		if v := q.Get(field); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return c, "", catalog.NewValidationError(field, v, err)
			}
			*dst = n
		}
	}
	for _, v := range q["bodyType"] {
		b, err := catalog.ParseBodyType(v)
		if err != nil {
			return c, "", err
		}
		c.BodyTypes = append(c.BodyTypes, b)
	}
	for _, v := range q["fuelType"] {
		f, err := catalog.ParseFuelType(v)
		if err != nil {
			return c, "", err
		}
		c.FuelTypes = append(c.FuelTypes, f)
	}
	if err := c.Validate(); err != nil {
		return c, "", err
	}
	key, err := listing.ParseSortKey(q.Get("sort"))
	return c, key, err
}

func (s *server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	v, ok := s.cat.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// FilterOptions is the JSON response for GET /api/filters/options. Makes is
// the showroom brand list followed by any other make in the catalog.
type FilterOptions struct {
	Makes         []string               `json:"makes"`
	BodyTypes     []catalog.BodyType     `json:"bodyTypes"`
	FuelTypes     []catalog.FuelType     `json:"fuelTypes"`
	Transmissions []catalog.Transmission `json:"transmissions"`
	SortKeys      []listing.SortKey      `json:"sortKeys"`
	DefaultSort   listing.SortKey        `json:"defaultSort"`
	Defaults      listing.Criteria       `json:"defaults"`
}

func (s *server) handleFilterOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FilterOptions{
		Makes:         fn.Unique(append(catalog.FixtureMakes(), s.cat.Makes()...)),
		BodyTypes:     catalog.BodyTypes(),
		FuelTypes:     catalog.FuelTypes(),
		Transmissions: catalog.Transmissions(),
		SortKeys:      listing.SortKeys(),
		DefaultSort:   listing.DefaultSort,
		Defaults:      listing.DefaultCriteria(),
	})
}

// --- Sessions ---

func (s *server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.store.Create()
	writeJSON(w, http.StatusCreated, sess.View())
}

func (s *server) handleGetSession(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSetFilters(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var c listing.Criteria
	if err := decodeBody(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filters: "+err.Error())
		return
	}
	if err := sess.SetCriteria(c); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *server) handleResetFilters(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	sess.ResetFilters()
	writeJSON(w, http.StatusOK, sess.View())
}

// SortRequest is the JSON body for PUT /api/sessions/{id}/sort.
type SortRequest struct {
	Sort listing.SortKey `json:"sort"`
}

func (s *server) handleSetSort(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req SortRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.SetSort(req.Sort); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// --- Smart search ---

// SearchRequest is the JSON body for POST /api/sessions/{id}/search.
type SearchRequest struct {
	Query string `json:"query"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, started, err := sess.BeginSearch(req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !started {
		writeJSON(w, http.StatusOK, sess.View())
		return
	}
	view := sess.View()
	if !s.background(func(ctx context.Context) { sess.RunSearch(ctx, t) }) {
		sess.FinishSearch(r.Context(), t, fn.Err[[]string](errShuttingDown))
		writeError(w, http.StatusServiceUnavailable, errShuttingDown.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

func (s *server) handleClearSearch(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	sess.ClearSearch()
	writeJSON(w, http.StatusOK, sess.View())
}

// --- Comparison ---

func (s *server) handleToggleCompare(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if _, err := sess.ToggleCompare(r.PathValue("vehicleId")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *server) handleRemoveCompare(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.RemoveCompare(r.PathValue("vehicleId"))
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *server) handleClearCompare(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	sess.ClearCompare()
	writeJSON(w, http.StatusOK, sess.View())
}

// CompareResponse is the JSON response for POST /api/sessions/{id}/compare:run.
type CompareResponse struct {
	VehicleIDs []string          `json:"vehicle_ids"`
	Vehicles   []catalog.Vehicle `json:"vehicles"`
}

func (s *server) handleRunCompare(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ids, err := sess.RequestComparison(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := CompareResponse{VehicleIDs: ids, Vehicles: make([]catalog.Vehicle, 0, len(ids))}
	for _, id := range ids {
		if v, ok := s.cat.Get(id); ok {
			resp.Vehicles = append(resp.Vehicles, v)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Detail ---

func (s *server) handleOpenDetail(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	t, err := sess.OpenDetail(r.PathValue("vehicleId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view := sess.View()
	if !s.background(func(ctx context.Context) { sess.LoadInsight(ctx, t) }) {
		sess.FinishInsight(t, fn.Err[advisor.Insight](errShuttingDown))
		writeError(w, http.StatusServiceUnavailable, errShuttingDown.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

func (s *server) handleCloseDetail(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	sess.CloseDetail()
	writeJSON(w, http.StatusOK, sess.View())
}
