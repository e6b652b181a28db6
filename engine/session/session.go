// Package session holds the per-visitor browsing state of the marketplace:
// filter criteria, sort order, the AI search restriction, the comparison
// tray and the open detail view. It applies the caller-side policies for
// the advisory service: one search in flight at a time, failed searches
// degrade to "no restriction", and late responses for a request that has
// been superseded are discarded.
//
// All Session methods are safe for concurrent use. Service calls run
// outside the session lock; results are applied through tickets so that a
// completion is accepted only if it still belongs to the current request.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/WessleyAI/autosphere/engine/advisor"
	"github.com/WessleyAI/autosphere/engine/catalog"
	"github.com/WessleyAI/autosphere/engine/compare"
	"github.com/WessleyAI/autosphere/engine/events"
	"github.com/WessleyAI/autosphere/engine/listing"
	"github.com/WessleyAI/autosphere/pkg/fn"
	"github.com/WessleyAI/autosphere/pkg/metrics"
)

var (
	// ErrSearchInFlight rejects a search submitted while another is running.
	ErrSearchInFlight = errors.New("session: search already in progress")
	// ErrNotEnoughToCompare rejects a comparison of fewer than two vehicles.
	ErrNotEnoughToCompare = errors.New("session: select at least two vehicles to compare")
)

// Advisor is the advisory gateway used by a session.
type Advisor interface {
	SmartSearch(ctx context.Context, query string, vehicles []catalog.Vehicle) ([]string, error)
	Insight(ctx context.Context, v catalog.Vehicle) (advisor.Insight, error)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Catalog   *catalog.Catalog
	Advisor   Advisor
	Publisher events.Publisher
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// InsightState is the observable state of the detail-view insight.
type InsightState string

const (
	InsightNone    InsightState = "none"
	InsightLoading InsightState = "loading"
	InsightFailed  InsightState = "failed"
	InsightReady   InsightState = "ready"
)

// SearchTicket identifies one smart-search request.
type SearchTicket struct {
	ID       uint64
	Query    string
	Vehicles []catalog.Vehicle
}

// InsightTicket identifies one insight request.
type InsightTicket struct {
	ID      uint64
	Vehicle catalog.Vehicle
}

// Session is one visitor's browsing state.
type Session struct {
	id     string
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	lastActive  time.Time
	criteria    listing.Criteria
	sort        listing.SortKey
	restriction listing.Restriction

	query         string
	searchGen     uint64
	searchRunning uint64 // ticket of the running search, 0 when idle
	searchErr     error

	tray compare.Set

	detailID     string
	insightGen   uint64
	insightState InsightState
	insight      advisor.Insight
	insightErr   error
}

// New creates a session with default filters, the default sort and an
// empty comparison tray.
func New(id string, deps Deps) *Session {
	deps = deps.withDefaults()
	s := &Session{
		id:           id,
		deps:         deps,
		logger:       deps.Logger.With("session_id", id),
		now:          time.Now,
		criteria:     listing.DefaultCriteria(),
		sort:         listing.DefaultSort,
		restriction:  listing.Inactive(),
		insightState: InsightNone,
	}
	s.lastActive = s.now()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// lock acquires the session lock and records activity.
func (s *Session) lock() {
	s.mu.Lock()
	s.lastActive = s.now()
}

// SetCriteria replaces the filter criteria.
func (s *Session) SetCriteria(c listing.Criteria) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.lock()
	defer s.mu.Unlock()
	s.criteria = c.Clone()
	return nil
}

// SetSort changes the sort order. An empty key selects the default.
func (s *Session) SetSort(key listing.SortKey) error {
	k, err := listing.ParseSortKey(string(key))
	if err != nil {
		return err
	}
	s.lock()
	defer s.mu.Unlock()
	s.sort = k
	return nil
}

// ResetFilters restores the default criteria and drops any AI restriction.
// A search still running is left to finish but its result is discarded.
func (s *Session) ResetFilters() {
	s.lock()
	defer s.mu.Unlock()
	s.criteria = listing.DefaultCriteria()
	s.clearSearchLocked()
}

// ClearSearch drops the AI restriction and forgets the last query.
func (s *Session) ClearSearch() {
	s.lock()
	defer s.mu.Unlock()
	s.clearSearchLocked()
}

func (s *Session) clearSearchLocked() {
	s.restriction = listing.Inactive()
	s.query = ""
	s.searchErr = nil
	s.searchGen++
}

// BeginSearch starts a smart search for query. A blank query clears the
// restriction and reports started=false; the service must not be called.
func (s *Session) BeginSearch(query string) (t SearchTicket, started bool, err error) {
	query = strings.TrimSpace(query)
	s.lock()
	defer s.mu.Unlock()

	if s.searchRunning != 0 {
		return SearchTicket{}, false, ErrSearchInFlight
	}
	if query == "" {
		s.clearSearchLocked()
		return SearchTicket{}, false, nil
	}
	s.searchGen++
	s.searchRunning = s.searchGen
	s.query = query
	s.searchErr = nil
	return SearchTicket{ID: s.searchGen, Query: query, Vehicles: s.deps.Catalog.All()}, true, nil
}

// FinishSearch applies the outcome of the search identified by t and
// reports whether it was applied. Outcomes for superseded tickets are
// discarded. A failure leaves the listing unrestricted and is recorded as
// the last search error.
func (s *Session) FinishSearch(ctx context.Context, t SearchTicket, r fn.Result[[]string]) bool {
	ids, err := r.Unwrap()

	s.lock()
	if s.searchRunning == t.ID {
		s.searchRunning = 0
	}
	applied := t.ID == s.searchGen
	if applied {
		if err != nil {
			s.restriction = listing.Inactive()
			s.searchErr = err
		} else {
			s.restriction = listing.Restrict(ids)
			s.searchErr = nil
		}
	}
	s.mu.Unlock()

	switch {
	case !applied:
		s.deps.Metrics.StaleDiscarded(advisor.OpSmartSearch)
		s.logger.Info("stale search result discarded", "ticket", t.ID)
	case err != nil:
		s.logger.Warn("smart search failed, showing unrestricted listing", "query", t.Query, "err", err)
	default:
		s.logger.Info("smart search applied", "query", t.Query, "matches", len(ids))
	}
	s.deps.Publisher.SearchCompleted(ctx, events.SearchCompleted{
		SessionID:  s.id,
		Query:      t.Query,
		Matches:    len(ids),
		Failed:     err != nil,
		Stale:      !applied,
		FinishedAt: s.now(),
	})
	return applied
}

// Search runs a smart search to completion. Service failures never escape:
// they are recorded on the session and the listing stays unrestricted. The
// only error is ErrSearchInFlight.
func (s *Session) Search(ctx context.Context, query string) error {
	t, started, err := s.BeginSearch(query)
	if err != nil || !started {
		return err
	}
	s.RunSearch(ctx, t)
	return nil
}

// RunSearch calls the advisor for a ticket returned by BeginSearch and
// applies the outcome.
func (s *Session) RunSearch(ctx context.Context, t SearchTicket) {
	ids, err := s.deps.Advisor.SmartSearch(ctx, t.Query, t.Vehicles)
	s.FinishSearch(ctx, t, fn.FromPair(ids, err))
}

// ToggleCompare adds id to the comparison tray, or removes it if present.
// When the tray is full, adding is a no-op. It reports whether id is in the
// tray afterwards.
func (s *Session) ToggleCompare(id string) (bool, error) {
	if _, ok := s.deps.Catalog.Get(id); !ok {
		return false, fmt.Errorf("session: compare %q: %w", id, catalog.ErrNotFound)
	}
	s.lock()
	defer s.mu.Unlock()
	s.tray.Toggle(id)
	return s.tray.Contains(id), nil
}

// RemoveCompare removes id from the tray.
func (s *Session) RemoveCompare(id string) {
	s.lock()
	defer s.mu.Unlock()
	s.tray.Remove(id)
}

// ClearCompare empties the tray.
func (s *Session) ClearCompare() {
	s.lock()
	defer s.mu.Unlock()
	s.tray.Clear()
}

// RequestComparison hands the selected vehicles to the comparison consumer.
func (s *Session) RequestComparison(ctx context.Context) ([]string, error) {
	s.lock()
	if !s.tray.CanCompare() {
		s.mu.Unlock()
		return nil, ErrNotEnoughToCompare
	}
	ids := s.tray.IDs()
	s.mu.Unlock()

	s.deps.Metrics.ComparisonRequested()
	s.logger.Info("comparison requested", "vehicle_ids", ids)
	s.deps.Publisher.CompareRequested(ctx, events.CompareRequested{
		SessionID:   s.id,
		VehicleIDs:  ids,
		RequestedAt: s.now(),
	})
	return ids, nil
}

// OpenDetail opens the detail view for id and starts a new insight request.
// Any earlier insight request becomes stale.
func (s *Session) OpenDetail(id string) (InsightTicket, error) {
	v, ok := s.deps.Catalog.Get(id)
	if !ok {
		return InsightTicket{}, fmt.Errorf("session: detail %q: %w", id, catalog.ErrNotFound)
	}
	s.lock()
	defer s.mu.Unlock()
	s.detailID = id
	s.insightGen++
	s.insightState = InsightLoading
	s.insight = advisor.Insight{}
	s.insightErr = nil
	return InsightTicket{ID: s.insightGen, Vehicle: v}, nil
}

// FinishInsight applies the outcome of the insight request identified by t
// and reports whether it was applied.
func (s *Session) FinishInsight(t InsightTicket, r fn.Result[advisor.Insight]) bool {
	ins, err := r.Unwrap()

	s.lock()
	applied := t.ID == s.insightGen && t.Vehicle.ID == s.detailID
	if applied {
		if err != nil {
			s.insightState = InsightFailed
			s.insightErr = err
		} else {
			s.insightState = InsightReady
			s.insight = ins
		}
	}
	s.mu.Unlock()

	switch {
	case !applied:
		s.deps.Metrics.StaleDiscarded(advisor.OpInsight)
		s.logger.Info("stale insight discarded", "ticket", t.ID, "vehicle_id", t.Vehicle.ID)
	case err != nil:
		s.logger.Warn("insight failed", "vehicle_id", t.Vehicle.ID, "err", err)
	}
	return applied
}

// LoadInsight calls the advisor for a ticket returned by OpenDetail and
// applies the outcome.
func (s *Session) LoadInsight(ctx context.Context, t InsightTicket) {
	ins, err := s.deps.Advisor.Insight(ctx, t.Vehicle)
	s.FinishInsight(t, fn.FromPair(ins, err))
}

// CloseDetail closes the detail view and discards its insight.
func (s *Session) CloseDetail() {
	s.lock()
	defer s.mu.Unlock()
	s.detailID = ""
	s.insightGen++
	s.insightState = InsightNone
	s.insight = advisor.Insight{}
	s.insightErr = nil
}
