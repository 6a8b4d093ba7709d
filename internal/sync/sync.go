// Package sync periodically copies rendered matrices to external
// destinations (a directory, an S3 bucket, a git repository).
package sync

import (
	"context"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/session"
)

// Destination is the interface for a sync target (directory, S3, git).
type Destination interface {
	// Write stores data under name, a slash-separated relative path.
	Write(ctx context.Context, name string, data []byte) error
}

// Source supplies the rendered documents to sync.
type Source interface {
	Snapshots() []session.Snapshot
}

// ObjectName is where a session's document lands in every destination.
func ObjectName(sessionID string) string {
	return path.Join(sessionID, matrix.Filename)
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that copies every snapshot from src to
// the given destinations at the specified interval.
func NewScheduler(src Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       src,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.syncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	snaps := s.source.Snapshots()
	total := 0
	for _, snap := range snaps {
		name := ObjectName(snap.SessionID)
		if err := WriteAll(ctx, s.destinations, name, snap.Data); err != nil {
			s.logger.Error("sync destination write failed", "session", snap.SessionID, "err", err)
		}
		total += len(snap.Data)
	}
	s.logger.Info("sync completed", "sessions", len(snaps), "destinations", len(s.destinations), "bytes", total)
}
