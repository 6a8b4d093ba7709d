// Package registry holds the ordered list of activity dependencies a user is
// editing. A Registry is owned by its caller and is not safe for concurrent
// use.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alfredjeanlab/admatrix/internal/model"
)

// DuplicateError is returned by Add when the ordered (from, to) pair is
// already registered.
type DuplicateError struct {
	From string
	To   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("a dependency between %q and %q already exists", e.From, e.To)
}

// IndexError is returned when an index does not address a record.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0,%d)", e.Index, e.Len)
}

// Registry is an ordered sequence of dependencies. The zero value is ready
// to use.
type Registry struct {
	deps []model.Dependency
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Add validates d and appends it. From and To are stored trimmed.
// On error the registry is unchanged.
func (r *Registry) Add(d model.Dependency) error {
	d.From = strings.TrimSpace(d.From)
	d.To = strings.TrimSpace(d.To)
	if err := model.ValidateDependency(&d); err != nil {
		return err
	}
	if r.indexOf(d.From, d.To) >= 0 {
		return &DuplicateError{From: d.From, To: d.To}
	}
	r.deps = append(r.deps, d)
	return nil
}

// RemoveAt deletes the record at index i. Later records shift down by one.
func (r *Registry) RemoveAt(i int) error {
	if i < 0 || i >= len(r.deps) {
		return &IndexError{Index: i, Len: len(r.deps)}
	}
	r.deps = append(r.deps[:i], r.deps[i+1:]...)
	return nil
}

// SetDirections overwrites the directions of the record at index i.
// An empty direction leaves that side unchanged. The new direction is not
// checked against the record's type.
func (r *Registry) SetDirections(i int, temporal, existential model.Direction) error {
	if i < 0 || i >= len(r.deps) {
		return &IndexError{Index: i, Len: len(r.deps)}
	}
	var ve model.ValidationError
	if temporal != "" && !temporal.IsValid() {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "temporal_direction", Message: fmt.Sprintf("invalid value %q", temporal)})
	}
	if existential != "" && !existential.IsValid() {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "existential_direction", Message: fmt.Sprintf("invalid value %q", existential)})
	}
	if ve.HasErrors() {
		return &ve
	}
	if temporal != "" {
		r.deps[i].TemporalDirection = temporal
	}
	if existential != "" {
		r.deps[i].ExistentialDirection = existential
	}
	return nil
}

// Get returns the record at index i.
func (r *Registry) Get(i int) (model.Dependency, error) {
	if i < 0 || i >= len(r.deps) {
		return model.Dependency{}, &IndexError{Index: i, Len: len(r.deps)}
	}
	return r.deps[i], nil
}

// List returns a copy of the records in insertion order.
func (r *Registry) List() []model.Dependency {
	out := make([]model.Dependency, len(r.deps))
	copy(out, r.deps)
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.deps)
}

// Reset removes every record.
func (r *Registry) Reset() {
	r.deps = nil
}

// Replace takes over the records of other, leaving other empty. The
// records were validated when they were added to other.
func (r *Registry) Replace(other *Registry) {
	r.deps, other.deps = other.deps, nil
}

// Activities returns every activity named by a record, deduplicated and
// sorted ascending.
func (r *Registry) Activities() []string {
	seen := make(map[string]struct{}, 2*len(r.deps))
	for _, d := range r.deps {
		seen[d.From] = struct{}{}
		seen[d.To] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) indexOf(from, to string) int {
	for i, d := range r.deps {
		if d.From == from && d.To == to {
			return i
		}
	}
	return -1
}
