// Package matrix builds the adjacency-matrix document exported from a
// dependency registry and renders it as YAML.
package matrix

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/registry"
)

const (
	// Filename is the name an exported document is saved under.
	Filename = "matrix.yaml"

	// FormatVersion is written to metadata.format_version.
	FormatVersion = "1.0"

	// Description is written to metadata.description.
	Description = "Automatically generated adjacency matrix"
)

// ErrEmptyRegistry is returned by Export when there is nothing to export.
var ErrEmptyRegistry = errors.New("at least one dependency is required to export a matrix")

// SerializationError wraps a failure to encode or decode a document.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return "matrix serialization failed: " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Document is the exported matrix. Field order is the output key order.
type Document struct {
	Metadata     Metadata `yaml:"metadata" json:"metadata"`
	Dependencies []Entry  `yaml:"dependencies" json:"dependencies"`
}

// Metadata describes the document and lists every activity.
type Metadata struct {
	FormatVersion string   `yaml:"format_version" json:"format_version"`
	Description   string   `yaml:"description" json:"description"`
	Activities    []string `yaml:"activities,flow" json:"activities"`
}

// Entry is one dependency in the document.
type Entry struct {
	From        string    `yaml:"from" json:"from"`
	To          string    `yaml:"to" json:"to"`
	Temporal    *Relation `yaml:"temporal,omitempty" json:"temporal,omitempty"`
	Existential *Relation `yaml:"existential,omitempty" json:"existential,omitempty"`
}

// Relation is a typed constraint with its glyph and direction.
type Relation struct {
	Type      string `yaml:"type" json:"type"`
	Symbol    string `yaml:"symbol" json:"symbol"`
	Direction string `yaml:"direction" json:"direction"`
}

// Build assembles a document from activities and deps. Entries keep the
// order of deps. A temporal block is emitted only when the temporal type is
// not none. The existential block is always emitted, independence included.
func Build(activities []string, deps []model.Dependency) *Document {
	doc := &Document{
		Metadata: Metadata{
			FormatVersion: FormatVersion,
			Description:   Description,
			Activities:    append([]string{}, activities...),
		},
		Dependencies: make([]Entry, 0, len(deps)),
	}
	for _, d := range deps {
		e := Entry{From: d.From, To: d.To}
		if d.Temporal != model.TemporalNone {
			e.Temporal = &Relation{
				Type:      string(d.Temporal),
				Symbol:    model.TemporalSymbol(d.Temporal),
				Direction: string(d.TemporalDirection),
			}
		}
		e.Existential = &Relation{
			Type:      string(d.Existential),
			Symbol:    model.ExistentialSymbol(d.Existential),
			Direction: string(d.ExistentialDirection),
		}
		doc.Dependencies = append(doc.Dependencies, e)
	}
	return doc
}

// Export builds the document for the current state of r.
func Export(r *registry.Registry) (*Document, error) {
	if r.Len() == 0 {
		return nil, ErrEmptyRegistry
	}
	return Build(r.Activities(), r.List()), nil
}

// Marshal renders doc as YAML with two-space indentation and the activity
// list in flow style. Output is deterministic for a given document.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, &SerializationError{Err: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &SerializationError{Err: err}
	}
	return buf.Bytes(), nil
}

// Render exports r and marshals the result.
func Render(r *registry.Registry) ([]byte, error) {
	doc, err := Export(r)
	if err != nil {
		return nil, err
	}
	return Marshal(doc)
}

// Parse decodes a YAML document previously produced by Marshal.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SerializationError{Err: err}
	}
	return &doc, nil
}

// Records converts the entries back to dependency records. A missing
// temporal block means none and a missing existential block means
// independence. Missing directions take the default for their type.
func (doc *Document) Records() ([]model.Dependency, error) {
	out := make([]model.Dependency, 0, len(doc.Dependencies))
	for i, e := range doc.Dependencies {
		d := model.Dependency{
			From:        e.From,
			To:          e.To,
			Temporal:    model.TemporalNone,
			Existential: model.ExistentialIndependence,
		}
		if e.Temporal != nil {
			t, err := model.ParseTemporal(e.Temporal.Type)
			if err != nil {
				return nil, fmt.Errorf("dependencies[%d]: %w", i, err)
			}
			d.Temporal = t
			d.TemporalDirection = model.Direction(e.Temporal.Direction)
		}
		if e.Existential != nil {
			x, err := model.ParseExistential(e.Existential.Type)
			if err != nil {
				return nil, fmt.Errorf("dependencies[%d]: %w", i, err)
			}
			d.Existential = x
			d.ExistentialDirection = model.Direction(e.Existential.Direction)
		}
		if d.TemporalDirection == "" {
			d.TemporalDirection = model.DefaultDirectionFor(string(d.Temporal))
		}
		if d.ExistentialDirection == "" {
			d.ExistentialDirection = model.DefaultDirectionFor(string(d.Existential))
		}
		out = append(out, d)
	}
	return out, nil
}

// Load replaces the contents of r with the dependencies in doc. When any
// record is rejected r is left as it was.
func Load(r *registry.Registry, doc *Document) error {
	deps, err := doc.Records()
	if err != nil {
		return err
	}
	next := registry.New()
	for i, d := range deps {
		if err := next.Add(d); err != nil {
			return fmt.Errorf("dependencies[%d]: %w", i, err)
		}
	}
	r.Replace(next)
	return nil
}
