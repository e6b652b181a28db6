// Package events publishes marketplace activity to downstream consumers.
// The comparison hand-off is the primary event; search completions are
// published for analytics.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/WessleyAI/autosphere/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

// Subjects.
const (
	SubjectCompareRequested = "autosphere.compare.requested"
	SubjectSearchCompleted  = "autosphere.search.completed"
)

// CompareRequested is emitted when a session asks for a side-by-side
// comparison of its selected vehicles.
type CompareRequested struct {
	SessionID   string    `json:"session_id"`
	VehicleIDs  []string  `json:"vehicle_ids"`
	RequestedAt time.Time `json:"requested_at"`
}

// SearchCompleted is emitted when a smart search settles, successfully or not.
type SearchCompleted struct {
	SessionID  string    `json:"session_id"`
	Query      string    `json:"query"`
	Matches    int       `json:"matches"`
	Failed     bool      `json:"failed"`
	Stale      bool      `json:"stale"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher delivers events. Implementations must not block the caller on
// delivery failures.
type Publisher interface {
	CompareRequested(ctx context.Context, e CompareRequested)
	SearchCompleted(ctx context.Context, e SearchCompleted)
}

// Nop discards every event.
type Nop struct{}

func (Nop) CompareRequested(context.Context, CompareRequested) {}
func (Nop) SearchCompleted(context.Context, SearchCompleted)   {}

// NATSPublisher publishes events as JSON on NATS.
type NATSPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher creates a NATS-backed publisher.
func NewNATSPublisher(nc *nats.Conn, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{nc: nc, logger: logger}
}

// CompareRequested implements Publisher.
func (p *NATSPublisher) CompareRequested(ctx context.Context, e CompareRequested) {
	p.publish(ctx, SubjectCompareRequested, e)
}

// SearchCompleted implements Publisher.
func (p *NATSPublisher) SearchCompleted(ctx context.Context, e SearchCompleted) {
	p.publish(ctx, SubjectSearchCompleted, e)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, v any) {
	if err := natsutil.Publish(ctx, p.nc, subject, v); err != nil {
		p.logger.Warn("event publish failed", "subject", subject, "err", err)
	}
}
