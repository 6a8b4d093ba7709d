package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/session"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	mu     stdsync.Mutex
	names  []string
	last   []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, name string, data []byte) error {
	d.writes.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	d.last = append([]byte(nil), data...)
	return d.err
}

func (d *mockDestination) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.names...)
}

type staticSource []session.Snapshot

func (s staticSource) Snapshots() []session.Snapshot { return s }

func TestSchedulerStartStop(t *testing.T) {
	src := staticSource{{SessionID: "mx-one", Data: []byte("format_version: \"1.0\"\n")}}
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(src, []Destination{dest}, 50*time.Millisecond, logger)
	sched.Start()

	// Wait for at least the initial sync + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}
	names := dest.Names()
	if names[0] != "mx-one/matrix.yaml" {
		t.Fatalf("name = %q, want mx-one/matrix.yaml", names[0])
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(staticSource{}, nil, time.Minute, logger)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	src := staticSource{
		{SessionID: "mx-a", Data: []byte("a")},
		{SessionID: "mx-b", Data: []byte("b")},
	}
	dest1 := &mockDestination{err: errors.New("offline")}
	dest2 := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(src, []Destination{dest1, dest2}, time.Second, logger)
	sched.Start()

	// Wait for the initial sync.
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if dest1.writes.Load() < 2 {
		t.Fatal("dest1 expected a write per session")
	}
	if dest2.writes.Load() < 2 {
		t.Fatal("a failing destination must not block the others")
	}
}

func TestWriteAll_JoinsErrors(t *testing.T) {
	bad := &mockDestination{err: errors.New("offline")}
	good := &mockDestination{}

	err := WriteAll(context.Background(), []Destination{bad, good, bad}, "x", []byte("y"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, bad.err) {
		t.Errorf("error %v does not wrap destination error", err)
	}
	if good.writes.Load() != 1 {
		t.Errorf("good destination writes = %d", good.writes.Load())
	}

	if err := WriteAll(context.Background(), []Destination{good}, "x", []byte("y")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestObjectName(t *testing.T) {
	if got := ObjectName("mx-abc"); got != "mx-abc/matrix.yaml" {
		t.Errorf("ObjectName = %q", got)
	}
}
