package events

import (
	"context"

	"github.com/alfredjeanlab/admatrix/internal/model"
)

// Event topic constants
const (
	TopicSessionCreated = "admatrix.session.created"
	TopicSessionDeleted = "admatrix.session.deleted"
	TopicSessionExpired = "admatrix.session.expired"

	TopicDependencyAdded   = "admatrix.dependency.added"
	TopicDependencyRemoved = "admatrix.dependency.removed"
	TopicDependencyUpdated = "admatrix.dependency.updated"

	TopicMatrixExported = "admatrix.matrix.exported"

	// TopicAll matches every topic above.
	TopicAll = "admatrix.>"
)

// Event types

type SessionCreated struct {
	SessionID string `json:"session_id"`
}

type SessionDeleted struct {
	SessionID string `json:"session_id"`
}

type SessionExpired struct {
	SessionID string `json:"session_id"`
	IdleFor   string `json:"idle_for"`
}

type DependencyAdded struct {
	SessionID  string           `json:"session_id"`
	Index      int              `json:"index"`
	Dependency model.Dependency `json:"dependency"`
}

type DependencyRemoved struct {
	SessionID  string           `json:"session_id"`
	Index      int              `json:"index"`
	Dependency model.Dependency `json:"dependency"`
}

type DependencyUpdated struct {
	SessionID  string           `json:"session_id"`
	Index      int              `json:"index"`
	Dependency model.Dependency `json:"dependency"`
}

type MatrixExported struct {
	SessionID    string `json:"session_id"`
	Activities   int    `json:"activities"`
	Dependencies int    `json:"dependencies"`
	Bytes        int    `json:"bytes"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
