package session

import (
	"context"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/events"
)

// ReaperConfig configures the background idle-session reaper.
type ReaperConfig struct {
	// TTL is how long a session may sit unused before it is removed.
	// Default: 30 minutes.
	TTL time.Duration

	// SweepInterval is how often the reaper scans for idle sessions.
	// Default: 60 seconds.
	SweepInterval time.Duration

	// OnExpired is called for each removed session, outside the lock.
	OnExpired func(id string)
}

// StartReaper launches a background goroutine that periodically removes
// idle sessions. Call Stop() to shut it down.
func (m *Manager) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 60 * time.Second
	}

	m.reaperStop = make(chan struct{})
	m.reaperDone = make(chan struct{})

	go m.reapLoop(cfg)
	m.logger.Info("session reaper started",
		"ttl", cfg.TTL,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (m *Manager) Stop() {
	if m.reaperStop != nil {
		close(m.reaperStop)
		<-m.reaperDone
		m.reaperStop = nil
		m.reaperDone = nil
	}
}

func (m *Manager) reapLoop(cfg *ReaperConfig) {
	defer close(m.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.reaperStop:
			return
		case <-ticker.C:
			m.sweep(cfg)
		}
	}
}

func (m *Manager) sweep(cfg *ReaperConfig) {
	now := m.now()

	type expired struct {
		id   string
		idle time.Duration
	}
	var gone []expired

	m.mu.Lock()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastUsed)
		s.mu.Unlock()
		if idle > cfg.TTL {
			delete(m.sessions, id)
			gone = append(gone, expired{id: id, idle: idle})
		}
	}
	m.mu.Unlock()

	for _, e := range gone {
		m.logger.Info("session expired", "session", e.id, "idle", e.idle.Round(time.Second))
		m.publish(context.Background(), events.TopicSessionExpired, e.id, events.SessionExpired{
			SessionID: e.id,
			IdleFor:   e.idle.Round(time.Second).String(),
		})
		if cfg.OnExpired != nil {
			cfg.OnExpired(e.id)
		}
	}
}
