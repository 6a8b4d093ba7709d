package events

import (
	"context"
	"errors"
)

// MultiPublisher fans every event out to several publishers.
type MultiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher returns a publisher that forwards to each of ps in order.
// Nil entries are skipped.
func NewMultiPublisher(ps ...Publisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range ps {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

// Publish forwards to every publisher, even after a failure, and joins the
// errors.
func (m *MultiPublisher) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher.
func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
