// Package session hosts independent editing sessions for the HTTP service.
//
// Each session owns one registry.Registry. The registry itself is not safe
// for concurrent use, so every access goes through the session's lock.
// Mutations are published as events. A background reaper removes sessions
// that have been idle for longer than a configured TTL.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/events"
	"github.com/alfredjeanlab/admatrix/internal/idgen"
	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/registry"
)

// ErrNotFound is returned for an unknown or expired session ID.
var ErrNotFound = errors.New("session not found")

// Summary describes a session for listings.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsed     time.Time `json:"last_used"`
	Dependencies int       `json:"dependencies"`
	Activities   int       `json:"activities"`
}

// Snapshot is the rendered matrix of one session.
type Snapshot struct {
	SessionID string
	Data      []byte
}

type session struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	lastUsed  time.Time
	reg       *registry.Registry
}

// Manager owns every live session.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

// NewManager returns an empty manager publishing to p.
func NewManager(p events.Publisher, logger *slog.Logger) *Manager {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:  make(map[string]*session),
		publisher: p,
		logger:    logger,
		now:       time.Now,
	}
}

// publish emits an event. Failures are logged and never reach the caller.
func (m *Manager) publish(ctx context.Context, topic, sessionID string, event any) {
	if err := m.publisher.Publish(ctx, topic, event); err != nil {
		m.logger.Warn("failed to publish event", "topic", topic, "session", sessionID, "error", err)
	}
}

// Create starts a new empty session.
func (m *Manager) Create(ctx context.Context) (Summary, error) {
	id, err := idgen.NewSessionID()
	if err != nil {
		return Summary{}, err
	}
	now := m.now()
	s := &session{id: id, createdAt: now, lastUsed: now, reg: registry.New()}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.publish(ctx, events.TopicSessionCreated, id, events.SessionCreated{SessionID: id})
	return Summary{ID: id, CreatedAt: now, LastUsed: now}, nil
}

// Delete ends a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.publish(ctx, events.TopicSessionDeleted, id, events.SessionDeleted{SessionID: id})
	return nil
}

// List returns every session, most recently used first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		out = append(out, Summary{
			ID:           s.id,
			CreatedAt:    s.createdAt,
			LastUsed:     s.lastUsed,
			Dependencies: s.reg.Len(),
			Activities:   len(s.reg.Activities()),
		})
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUsed.Equal(out[j].LastUsed) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	return out
}

// with runs fn against the session's registry under its lock and marks the
// session as used.
func (m *Manager) with(id string, fn func(r *registry.Registry) error) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = m.now()
	return fn(s.reg)
}

// Add appends d to the session's registry and returns its index.
func (m *Manager) Add(ctx context.Context, id string, d model.Dependency) (int, model.Dependency, error) {
	var (
		index int
		added model.Dependency
	)
	err := m.with(id, func(r *registry.Registry) error {
		if err := r.Add(d); err != nil {
			return err
		}
		index = r.Len() - 1
		added, _ = r.Get(index)
		return nil
	})
	if err != nil {
		return 0, model.Dependency{}, err
	}
	m.publish(ctx, events.TopicDependencyAdded, id, events.DependencyAdded{SessionID: id, Index: index, Dependency: added})
	return index, added, nil
}

// Remove deletes the record at index.
func (m *Manager) Remove(ctx context.Context, id string, index int) error {
	var removed model.Dependency
	err := m.with(id, func(r *registry.Registry) error {
		d, err := r.Get(index)
		if err != nil {
			return err
		}
		removed = d
		return r.RemoveAt(index)
	})
	if err != nil {
		return err
	}
	m.publish(ctx, events.TopicDependencyRemoved, id, events.DependencyRemoved{SessionID: id, Index: index, Dependency: removed})
	return nil
}

// SetDirections changes the directions of the record at index.
func (m *Manager) SetDirections(ctx context.Context, id string, index int, temporal, existential model.Direction) (model.Dependency, error) {
	var updated model.Dependency
	err := m.with(id, func(r *registry.Registry) error {
		if err := r.SetDirections(index, temporal, existential); err != nil {
			return err
		}
		updated, _ = r.Get(index)
		return nil
	})
	if err != nil {
		return model.Dependency{}, err
	}
	m.publish(ctx, events.TopicDependencyUpdated, id, events.DependencyUpdated{SessionID: id, Index: index, Dependency: updated})
	return updated, nil
}

// Dependencies returns the session's records in order.
func (m *Manager) Dependencies(id string) ([]model.Dependency, error) {
	var out []model.Dependency
	err := m.with(id, func(r *registry.Registry) error {
		out = r.List()
		return nil
	})
	return out, err
}

// Activities returns the session's sorted activity set.
func (m *Manager) Activities(id string) ([]string, error) {
	var out []string
	err := m.with(id, func(r *registry.Registry) error {
		out = r.Activities()
		return nil
	})
	return out, err
}

// Export builds the session's document.
func (m *Manager) Export(id string) (*matrix.Document, error) {
	var doc *matrix.Document
	err := m.with(id, func(r *registry.Registry) error {
		var err error
		doc, err = matrix.Export(r)
		return err
	})
	return doc, err
}

// Render builds and marshals the session's document and publishes an
// export event.
func (m *Manager) Render(ctx context.Context, id string) ([]byte, error) {
	doc, err := m.Export(id)
	if err != nil {
		return nil, err
	}
	data, err := matrix.Marshal(doc)
	if err != nil {
		return nil, err
	}
	m.publish(ctx, events.TopicMatrixExported, id, events.MatrixExported{
		SessionID:    id,
		Activities:   len(doc.Metadata.Activities),
		Dependencies: len(doc.Dependencies),
		Bytes:        len(data),
	})
	return data, nil
}

// Snapshots renders every non-empty session. Sessions that fail to render
// are logged and skipped. Snapshots do not count as use.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.RLock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	var out []Snapshot
	for _, s := range all {
		s.mu.Lock()
		data, err := matrix.Render(s.reg)
		s.mu.Unlock()
		if errors.Is(err, matrix.ErrEmptyRegistry) {
			continue
		}
		if err != nil {
			m.logger.Error("snapshot render failed", "session", s.id, "err", err)
			continue
		}
		out = append(out, Snapshot{SessionID: s.id, Data: data})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}
