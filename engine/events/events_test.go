package events

import (
	"context"
	"testing"
	"time"

	"github.com/WessleyAI/autosphere/pkg/natsutil"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

func TestNATSPublisher_CompareRequested(t *testing.T) {
	nc := startTestNATS(t)
	got := make(chan CompareRequested, 1)
	sub, err := natsutil.Subscribe(nc, SubjectCompareRequested, func(_ context.Context, e CompareRequested) { got <- e })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	NewNATSPublisher(nc, nil).CompareRequested(context.Background(), CompareRequested{
		SessionID: "s1", VehicleIDs: []string{"3", "1"}, RequestedAt: at,
	})

	select {
	case e := <-got:
		if e.SessionID != "s1" || len(e.VehicleIDs) != 2 || e.VehicleIDs[0] != "3" || !e.RequestedAt.Equal(at) {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNATSPublisher_SearchCompleted(t *testing.T) {
	nc := startTestNATS(t)
	got := make(chan SearchCompleted, 1)
	sub, err := natsutil.Subscribe(nc, SubjectSearchCompleted, func(_ context.Context, e SearchCompleted) { got <- e })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	NewNATSPublisher(nc, nil).SearchCompleted(context.Background(), SearchCompleted{
		SessionID: "s2", Query: "electric", Failed: true,
	})

	select {
	case e := <-got:
		if e.Query != "electric" || !e.Failed || e.Matches != 0 {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNATSPublisher_ClosedConnDoesNotPanic(t *testing.T) {
	nc := startTestNATS(t)
	nc.Close()
	NewNATSPublisher(nc, nil).CompareRequested(context.Background(), CompareRequested{SessionID: "s"})
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	p.CompareRequested(context.Background(), CompareRequested{})
	p.SearchCompleted(context.Background(), SearchCompleted{})
}
