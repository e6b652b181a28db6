// Package advisor is the gateway to the external generative service. It
// shapes the two advisory requests (natural-language smart search and
// per-vehicle insight), validates each response against the requested
// schema, and reports every failure to the caller. It makes exactly one
// service call per operation; retries and rate limits are layered on the
// generator from outside (see policy.go).
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/WessleyAI/autosphere/engine/catalog"
	"github.com/WessleyAI/autosphere/pkg/llm"
	"github.com/WessleyAI/autosphere/pkg/metrics"
	"github.com/WessleyAI/autosphere/pkg/resilience"
	"github.com/WessleyAI/autosphere/pkg/vehiclenlp"
)

// Operation names used in errors, logs and metrics.
const (
	OpSmartSearch = "smart_search"
	OpInsight     = "insight"
)

// Insight is the structured analysis returned for one vehicle.
type Insight struct {
	Summary       string   `json:"summary"`
	Pros          []string `json:"pros"`
	Cons          []string `json:"cons"`
	MarketVerdict string   `json:"marketVerdict"`
}

// Options configures the advisor.
type Options struct {
	Model string
	// MarketYear anchors the insight verdict.
	MarketYear int
	// Hints adds parsed query hints to the smart-search prompt.
	Hints bool
	// Timeout bounds each service call. Zero means no extra bound.
	Timeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Model:      "gemini-3-flash-preview",
		MarketYear: time.Now().Year(),
		Hints:      true,
		Timeout:    30 * time.Second,
	}
}

// Advisor issues advisory requests through an llm.Generator.
type Advisor struct {
	gen     llm.Generator
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates an Advisor. logger and m may be nil.
func New(gen llm.Generator, opts Options, logger *slog.Logger, m *metrics.Metrics) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MarketYear == 0 {
		opts.MarketYear = time.Now().Year()
	}
	return &Advisor{gen: gen, opts: opts, logger: logger, metrics: m}
}

// SmartSearch asks the service which of vehicles match query and returns the
// ids it names, in the service's order. Ids are returned verbatim, including
// ones absent from vehicles.
func (a *Advisor) SmartSearch(ctx context.Context, query string, vehicles []catalog.Vehicle) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	var hints vehiclenlp.Hints
	if a.opts.Hints {
		hints = vehiclenlp.Parse(query)
	}
	text, err := a.generate(ctx, OpSmartSearch, smartSearchPrompt(query, vehicles, hints), llm.StringArray(),
		"query_len", len(query), "vehicles", len(vehicles))
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(text), &ids); err != nil {
		return nil, a.fail(OpSmartSearch, malformedErr(OpSmartSearch, err))
	}
	if ids == nil {
		ids = []string{}
	}
	a.metrics.SearchMatches(len(ids))
	return ids, nil
}

// Insight asks the service for an analysis of v.
func (a *Advisor) Insight(ctx context.Context, v catalog.Vehicle) (Insight, error) {
	text, err := a.generate(ctx, OpInsight, insightPrompt(v, a.opts.MarketYear), insightSchema(),
		"vehicle_id", v.ID)
	if err != nil {
		return Insight{}, err
	}
	var out Insight
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Insight{}, a.fail(OpInsight, malformedErr(OpInsight, err))
	}
	return out, nil
}

// generate makes the single service call for op and validates the response.
func (a *Advisor) generate(ctx context.Context, op, prompt string, schema *llm.Schema, attrs ...any) (string, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.gen.Generate(ctx, llm.Request{Model: a.opts.Model, Prompt: prompt, Schema: schema})
	dur := time.Since(start)
	log := a.logger.With(append([]any{"op", op, "duration", dur}, attrs...)...)

	if err != nil {
		outcome := metrics.OutcomeTransport
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrRateLimited) {
			outcome = metrics.OutcomeRejected
		}
		a.metrics.AIRequest(op, outcome, dur)
		log.Error("advisor request failed", "outcome", outcome, "err", err)
		return "", transportErr(op, err)
	}
	if err := llm.Validate(text, schema); err != nil {
		a.metrics.AIRequest(op, metrics.OutcomeMalformed, dur)
		log.Error("advisor response rejected", "outcome", metrics.OutcomeMalformed, "err", err, "response_len", len(text))
		return "", malformedErr(op, err)
	}
	a.metrics.AIRequest(op, metrics.OutcomeOK, dur)
	log.Info("advisor request done", "outcome", metrics.OutcomeOK)
	return text, nil
}

// fail logs a decode failure that slipped past schema validation.
func (a *Advisor) fail(op string, err error) error {
	a.logger.Error("advisor decode failed", "op", op, "err", err)
	return err
}
