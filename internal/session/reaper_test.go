package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/events"
)

func TestSweep_RemovesIdleSessions(t *testing.T) {
	m, pub := newTestManager(t)
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	idle, _ := m.Create(ctx)
	clock = clock.Add(20 * time.Minute)
	active, _ := m.Create(ctx)
	clock = clock.Add(15 * time.Minute)

	var expired []string
	m.sweep(&ReaperConfig{TTL: 30 * time.Minute, OnExpired: func(id string) {
		expired = append(expired, id)
	}})

	if len(expired) != 1 || expired[0] != idle.ID {
		t.Fatalf("expired = %v, want [%s]", expired, idle.ID)
	}
	if _, err := m.Dependencies(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle session still present: %v", err)
	}
	if _, err := m.Dependencies(active.ID); err != nil {
		t.Errorf("active session removed: %v", err)
	}

	topics := pub.Topics()
	if topics[len(topics)-1] != events.TopicSessionExpired {
		t.Errorf("last topic = %q, want %q", topics[len(topics)-1], events.TopicSessionExpired)
	}
	ev := pub.events[len(pub.events)-1].(events.SessionExpired)
	if ev.IdleFor != "35m0s" {
		t.Errorf("IdleFor = %q, want 35m0s", ev.IdleFor)
	}
}

func TestSweep_UseResetsIdleClock(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	s, _ := m.Create(ctx)
	clock = clock.Add(25 * time.Minute)
	if _, err := m.Activities(s.ID); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(25 * time.Minute)

	m.sweep(&ReaperConfig{TTL: 30 * time.Minute})
	if _, err := m.Activities(s.ID); err != nil {
		t.Errorf("recently used session was reaped: %v", err)
	}
}

func TestStartReaper_StopIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	m.StartReaper(&ReaperConfig{TTL: time.Millisecond, SweepInterval: 5 * time.Millisecond})

	s, _ := m.Create(context.Background())

	// List does not count as use, so polling it cannot keep the session alive.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(m.List()) > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	m.Stop()
	m.Stop()

	if _, err := m.Activities(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("session survived reaper: %v", err)
	}
}
