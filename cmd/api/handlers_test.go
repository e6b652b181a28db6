package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WessleyAI/autosphere/engine/advisor"
	"github.com/WessleyAI/autosphere/engine/catalog"
	"github.com/WessleyAI/autosphere/engine/session"
	"github.com/WessleyAI/autosphere/pkg/llm"
	"github.com/WessleyAI/autosphere/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const insightJSON = `{"summary":"Benchmark track car.","pros":["Steering"],"cons":["Price"],"marketVerdict":"Collectible"}`

// cannedGen answers array requests with search and object requests with
// insight.
func cannedGen(search string, err error) llm.Generator {
	return llm.GeneratorFunc(func(_ context.Context, req llm.Request) (string, error) {
		if err != nil {
			return "", err
		}
		if req.Schema.Type == llm.TypeArray {
			return search, nil
		}
		return insightJSON, nil
	})
}

func newTestAPI(t *testing.T, gen llm.Generator, limiter *rate.Limiter) (*server, http.Handler) {
	t.Helper()
	cat := catalog.MustNew(catalog.Fixture())
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	adv := advisor.New(gen, advisor.Options{Model: "test", MarketYear: 2024}, nil, m)
	store := session.NewStore(session.Deps{Catalog: cat, Advisor: adv, Metrics: m}, time.Minute)
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	srv := newServer(cat, store, reg, context.Background(), nil, limiter)
	return srv, srv.routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func vehicleIDs(vs []catalog.Vehicle) string {
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	return strings.Join(ids, ",")
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, "POST", "/api/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	return decode[session.View](t, rec).SessionID
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	handleHealth(rec, httptest.NewRequest("GET", "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decode[map[string]string](t, rec); resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", resp["status"])
	}
}

func TestListVehicles(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), nil)

	rec := do(t, h, "GET", "/api/vehicles", "")
	resp := decode[VehiclesResponse](t, rec)
	if vehicleIDs(resp.Vehicles) != "4,3,5,1,6,2" || resp.Total != 6 {
		t.Fatalf("default listing = %s", vehicleIDs(resp.Vehicles))
	}

	rec = do(t, h, "GET", "/api/vehicles?fuelType=Electric&sort=price-asc", "")
	if got := vehicleIDs(decode[VehiclesResponse](t, rec).Vehicles); got != "1,5" {
		t.Fatalf("electric by price = %s", got)
	}

	rec = do(t, h, "GET", "/api/vehicles?bodyType=Coupe&bodyType=Truck&maxPrice=150000", "")
	if got := vehicleIDs(decode[VehiclesResponse](t, rec).Vehicles); got != "6,2" {
		t.Fatalf("coupe or truck under 150k = %s", got)
	}
}

func TestListVehicles_BadQuery(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), nil)
	for _, q := range []string{"bodyType=Boat", "fuelType=Steam", "minPrice=abc", "maxPrice=-5", "sort=rating"} {
		if rec := do(t, h, "GET", "/api/vehicles?"+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestGetVehicle(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), nil)
	rec := do(t, h, "GET", "/api/vehicles/3", "")
	if v := decode[catalog.Vehicle](t, rec); v.Make != "Porsche" {
		t.Fatalf("unexpected vehicle %+v", v)
	}
	if rec := do(t, h, "GET", "/api/vehicles/99", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFilterOptions(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), nil)
	opts := decode[FilterOptions](t, do(t, h, "GET", "/api/filters/options", ""))
	if len(opts.Makes) != 8 || len(opts.BodyTypes) != 5 || len(opts.FuelTypes) != 4 || len(opts.SortKeys) != 4 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.DefaultSort != "year-desc" || !opts.Defaults.IsDefault() {
		t.Fatalf("unexpected defaults %+v", opts)
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), nil)
	id := createSession(t, h)
	if id == "" {
		t.Fatal("missing session id")
	}
	if rec := do(t, h, "GET", "/api/sessions/"+id, ""); rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
	if rec := do(t, h, "DELETE", "/api/sessions/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/sessions/"+id, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
	if rec := do(t, h, "DELETE", "/api/sessions/"+id, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rec.Code)
	}
}

func TestFiltersAndSort(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), nil)
	id := createSession(t, h)
	base := "/api/sessions/" + id

	rec := do(t, h, "PUT", base+"/filters", `{"fuelType":["Electric"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set filters: %d %s", rec.Code, rec.Body.String())
	}
	if got := vehicleIDs(decode[session.View](t, rec).Vehicles); got != "5,1" {
		t.Fatalf("electric = %s", got)
	}

	rec = do(t, h, "PUT", base+"/sort", `{"sort":"price-asc"}`)
	if got := vehicleIDs(decode[session.View](t, rec).Vehicles); got != "1,5" {
		t.Fatalf("electric by price = %s", got)
	}

	for _, body := range []string{`{"bodyType":["Boat"]}`, `{"minPrice":-1}`, `{"colour":"red"}`, `not json`} {
		if rec := do(t, h, "PUT", base+"/filters", body); rec.Code != http.StatusBadRequest {
			t.Errorf("filters %s: expected 400, got %d", body, rec.Code)
		}
	}
	if rec := do(t, h, "PUT", base+"/sort", `{"sort":"rating"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sort: expected 400, got %d", rec.Code)
	}

	rec = do(t, h, "POST", base+"/filters/reset", "")
	if v := decode[session.View](t, rec); v.Displayed != 6 || !v.Criteria.IsDefault() {
		t.Fatalf("reset: %+v", v)
	}
}

func TestSearch(t *testing.T) {
	srv, h := newTestAPI(t, cannedGen(`["1","5"]`, nil), nil)
	id := createSession(t, h)
	base := "/api/sessions/" + id

	rec := do(t, h, "POST", base+"/search", `{"query":"electric"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !decode[session.View](t, rec).AI.Searching {
		t.Fatal("accepted view must show the search in flight")
	}
	srv.wait()

	v := decode[session.View](t, do(t, h, "GET", base, ""))
	if !v.AI.Active || v.AI.Matches != 2 || vehicleIDs(v.Vehicles) != "5,1" {
		t.Fatalf("unexpected view after search %+v", v.AI)
	}

	rec = do(t, h, "DELETE", base+"/search", "")
	if v := decode[session.View](t, rec); v.AI.Active || v.Displayed != 6 {
		t.Fatalf("clear: %+v", v.AI)
	}
}

func TestSearch_EmptyQueryClears(t *testing.T) {
	_, h := newTestAPI(t, cannedGen(`["1"]`, nil), nil)
	id := createSession(t, h)
	rec := do(t, h, "POST", "/api/sessions/"+id+"/search", `{"query":"  "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if v := decode[session.View](t, rec); v.AI.Active || v.AI.Searching {
		t.Fatalf("unexpected AI state %+v", v.AI)
	}
}

func TestSearch_Failure(t *testing.T) {
	srv, h := newTestAPI(t, cannedGen("", errors.New("quota exceeded")), nil)
	id := createSession(t, h)
	do(t, h, "POST", "/api/sessions/"+id+"/search", `{"query":"fast"}`)
	srv.wait()

	v := decode[session.View](t, do(t, h, "GET", "/api/sessions/"+id, ""))
	if v.AI.Active || v.Displayed != 6 || v.AI.Error == "" {
		t.Fatalf("failed search must leave the listing unrestricted with an error, got %+v", v.AI)
	}
}

func TestSearch_InFlightConflict(t *testing.T) {
	release := make(chan struct{})
	gen := llm.GeneratorFunc(func(ctx context.Context, _ llm.Request) (string, error) {
		<-release
		return `["2"]`, nil
	})
	srv, h := newTestAPI(t, gen, nil)
	id := createSession(t, h)

	if rec := do(t, h, "POST", "/api/sessions/"+id+"/search", `{"query":"bmw"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("first search: %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/sessions/"+id+"/search", `{"query":"audi"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	close(release)
	srv.wait()
	if v := decode[session.View](t, do(t, h, "GET", "/api/sessions/"+id, "")); vehicleIDs(v.Vehicles) != "2" {
		t.Fatalf("unexpected result %s", vehicleIDs(v.Vehicles))
	}
}

func TestSearch_RateLimited(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), rate.NewLimiter(rate.Limit(0.01), 1))
	id := createSession(t, h)
	do(t, h, "POST", "/api/sessions/"+id+"/search", `{"query":""}`)
	if rec := do(t, h, "POST", "/api/sessions/"+id+"/search", `{"query":""}`); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestCompare(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), nil)
	id := createSession(t, h)
	base := "/api/sessions/" + id + "/compare"

	do(t, h, "POST", base+"/1", "")
	if rec := do(t, h, "POST", base+":run", ""); rec.Code != http.StatusConflict {
		t.Fatalf("one vehicle: expected 409, got %d", rec.Code)
	}
	for _, vid := range []string{"4", "6", "2"} {
		do(t, h, "POST", base+"/"+vid, "")
	}
	v := decode[session.View](t, do(t, h, "GET", "/api/sessions/"+id, ""))
	if strings.Join(v.Compare.IDs, ",") != "1,4,6" || !v.Compare.CanCompare || v.Compare.Needed != 0 {
		t.Fatalf("unexpected tray %+v", v.Compare)
	}

	rec := do(t, h, "POST", base+":run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("run: %d", rec.Code)
	}
	resp := decode[CompareResponse](t, rec)
	if strings.Join(resp.VehicleIDs, ",") != "1,4,6" || vehicleIDs(resp.Vehicles) != "1,4,6" {
		t.Fatalf("unexpected comparison %+v", resp)
	}

	rec = do(t, h, "DELETE", base+"/4", "")
	if v := decode[session.View](t, rec); strings.Join(v.Compare.IDs, ",") != "1,6" {
		t.Fatalf("remove: %v", v.Compare.IDs)
	}
	rec = do(t, h, "POST", base+"/1", "")
	if v := decode[session.View](t, rec); strings.Join(v.Compare.IDs, ",") != "6" || v.Compare.Needed != 1 {
		t.Fatalf("toggle off: %+v", v.Compare)
	}
	rec = do(t, h, "DELETE", base, "")
	if v := decode[session.View](t, rec); len(v.Compare.IDs) != 0 {
		t.Fatalf("clear: %v", v.Compare.IDs)
	}
	if rec := do(t, h, "POST", base+"/99", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown vehicle: expected 404, got %d", rec.Code)
	}
}

func TestDetail(t *testing.T) {
	srv, h := newTestAPI(t, cannedGen("[]", nil), nil)
	id := createSession(t, h)
	base := "/api/sessions/" + id + "/detail"

	rec := do(t, h, "POST", base+"/3", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("open: %d", rec.Code)
	}
	if d := decode[session.View](t, rec).Detail; d == nil || d.InsightState != session.InsightLoading || d.Vehicle.ID != "3" {
		t.Fatalf("expected loading detail, got %+v", d)
	}
	srv.wait()

	v := decode[session.View](t, do(t, h, "GET", "/api/sessions/"+id, ""))
	if v.Detail.InsightState != session.InsightReady || v.Detail.Insight.MarketVerdict != "Collectible" {
		t.Fatalf("expected ready insight, got %+v", v.Detail)
	}

	rec = do(t, h, "DELETE", base, "")
	if decode[session.View](t, rec).Detail != nil {
		t.Fatal("expected closed detail")
	}
	if rec := do(t, h, "POST", base+"/99", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown vehicle: expected 404, got %d", rec.Code)
	}
}

func TestDetail_InsightFailure(t *testing.T) {
	srv, h := newTestAPI(t, cannedGen("", errors.New("timeout")), nil)
	id := createSession(t, h)
	do(t, h, "POST", "/api/sessions/"+id+"/detail/5", "")
	srv.wait()

	d := decode[session.View](t, do(t, h, "GET", "/api/sessions/"+id, "")).Detail
	if d.InsightState != session.InsightFailed || d.Error == "" || d.Insight != nil {
		t.Fatalf("expected failed insight, got %+v", d)
	}
}

func TestUnknownSession(t *testing.T) {
	_, h := newTestAPI(t, cannedGen("[]", nil), nil)
	for _, tc := range []struct{ method, path string }{
		{"PUT", "/api/sessions/nope/sort"},
		{"POST", "/api/sessions/nope/search"},
		{"POST", "/api/sessions/nope/compare/1"},
		{"POST", "/api/sessions/nope/detail/1"},
	} {
		if rec := do(t, h, tc.method, tc.path, "{}"); rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, h := newTestAPI(t, cannedGen(`["1"]`, nil), nil)
	id := createSession(t, h)
	do(t, h, "POST", "/api/sessions/"+id+"/search", `{"query":"tesla"}`)
	srv.wait()

	rec := do(t, h, "GET", "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{"autosphere_sessions_active 1", `autosphere_ai_requests_total{op="smart_search",outcome="ok"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{catalog.ErrNotFound, http.StatusNotFound},
		{session.ErrSearchInFlight, http.StatusConflict},
		{session.ErrNotEnoughToCompare, http.StatusConflict},
		{catalog.NewValidationError("minPrice", "-1", catalog.ErrNegativeValue), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFilterOptions_IncludesCatalogMakes(t *testing.T) {
	vs := catalog.Fixture()
	vs[0].Make = "Lucid"
	cat := catalog.MustNew(vs)
	store := session.NewStore(session.Deps{Catalog: cat, Advisor: advisor.New(cannedGen("[]", nil), advisor.Options{Model: "test"}, nil, nil)}, time.Minute)
	srv := newServer(cat, store, prometheus.NewRegistry(), context.Background(), nil, rate.NewLimiter(rate.Inf, 1))

	opts := decode[FilterOptions](t, do(t, srv.routes(), "GET", "/api/filters/options", ""))
	if len(opts.Makes) != 9 || opts.Makes[0] != "Tesla" || opts.Makes[8] != "Lucid" {
		t.Fatalf("unexpected makes %v", opts.Makes)
	}
}

func TestShutdownRejectsNewAIWork(t *testing.T) {
	srv, h := newTestAPI(t, cannedGen(`["1"]`, nil), nil)
	id := createSession(t, h)
	srv.close()

	if rec := do(t, h, "POST", "/api/sessions/"+id+"/search", `{"query":"tesla"}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("search: expected 503, got %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/sessions/"+id+"/detail/1", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("detail: expected 503, got %d", rec.Code)
	}
	srv.wait()

	v := decode[session.View](t, do(t, h, "GET", "/api/sessions/"+id, ""))
	if v.AI.Searching || v.AI.Active || v.AI.Error == "" {
		t.Fatalf("refused search must be resolved as failed, got %+v", v.AI)
	}
	if v.Detail == nil || v.Detail.InsightState != session.InsightFailed {
		t.Fatalf("refused insight must be resolved as failed, got %+v", v.Detail)
	}

	// Non-AI routes keep working.
	if rec := do(t, h, "PUT", "/api/sessions/"+id+"/sort", `{"sort":"price-asc"}`); rec.Code != http.StatusOK {
		t.Fatalf("sort after close: %d", rec.Code)
	}
}
