package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type recordingSender struct {
	mu     sync.Mutex
	name   string
	err    error
	titles []string
}

func (s *recordingSender) Send(ctx context.Context, title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	return nil
}

func (s *recordingSender) Name() string { return s.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersEvents(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{name: "telegram"}
	n := NewNotifier([]Sender{sender}, []string{"reconciliation_alert"}, discardLogger())

	if err := n.Notify(ctx, "sync_failed", "t1", "m1"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.titles) != 0 {
		t.Fatalf("filtered event was delivered: %v", sender.titles)
	}

	if err := n.Notify(ctx, "reconciliation_alert", "t2", "m2"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.titles) != 1 || sender.titles[0] != "t2" {
		t.Fatalf("titles = %v, want [t2]", sender.titles)
	}
}

func TestNotifyEmptyFilterAllowsEverything(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{name: "discord"}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())

	if err := n.Notify(ctx, "anything", "t", "m"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.titles) != 1 {
		t.Fatalf("delivery count = %d, want 1", len(sender.titles))
	}
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{name: "telegram"}
	n := NewNotifier([]Sender{sender}, []string{"reconciliation_alert"}, discardLogger())

	if err := n.NotifyAll(ctx, "t", "m"); err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}
	if len(sender.titles) != 1 {
		t.Fatalf("delivery count = %d, want 1", len(sender.titles))
	}
}

func TestDispatchCollectsSenderFailures(t *testing.T) {
	ctx := context.Background()
	dead := &recordingSender{name: "telegram", err: errors.New("api 502")}
	alive := &recordingSender{name: "discord"}
	n := NewNotifier([]Sender{dead, alive}, nil, discardLogger())

	err := n.NotifyAll(ctx, "t", "m")
	if err == nil {
		t.Fatal("expected a combined error")
	}
	if !strings.Contains(err.Error(), "telegram") {
		t.Errorf("error %q does not name the failed sender", err)
	}
	// The dead channel must not block the healthy one.
	if len(alive.titles) != 1 {
		t.Errorf("healthy sender deliveries = %d, want 1", len(alive.titles))
	}
}

func TestNotifierWithoutSenders(t *testing.T) {
	n := NewNotifier(nil, nil, discardLogger())
	if err := n.NotifyAll(context.Background(), "t", "m"); err != nil {
		t.Fatalf("NotifyAll with no senders: %v", err)
	}
}
