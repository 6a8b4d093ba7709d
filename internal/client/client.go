// Package client provides a transport-agnostic interface for the admatrix
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/session"
	"github.com/alfredjeanlab/admatrix/internal/sheet"
)

// MatrixClient is the interface the admx remote commands use to talk to the
// service.
type MatrixClient interface {
	// Sessions
	CreateSession(ctx context.Context) (*session.Summary, error)
	ListSessions(ctx context.Context) ([]session.Summary, error)
	DeleteSession(ctx context.Context, id string) error

	// Dependencies
	AddDependency(ctx context.Context, sessionID string, row sheet.Row) (*AddDependencyResponse, error)
	ListDependencies(ctx context.Context, sessionID string) ([]model.Dependency, error)
	SetDirections(ctx context.Context, sessionID string, index int, temporal, existential model.Direction) (*model.Dependency, error)
	RemoveDependency(ctx context.Context, sessionID string, index int) error
	Activities(ctx context.Context, sessionID string) ([]string, error)

	// Export
	Matrix(ctx context.Context, sessionID string) ([]byte, error)
	MatrixDocument(ctx context.Context, sessionID string) (*matrix.Document, error)

	// Events
	StreamEvents(ctx context.Context, topics []string, fn func(Event) error) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// AddDependencyResponse is the result of adding a dependency.
type AddDependencyResponse struct {
	Index      int              `json:"index"`
	Dependency model.Dependency `json:"dependency"`
}

// Event is one server-sent event.
type Event struct {
	ID    string
	Topic string
	Data  string
}

var _ MatrixClient = (*HTTPClient)(nil)
