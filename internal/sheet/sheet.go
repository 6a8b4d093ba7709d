// Package sheet reads dependency sheets: TOML files listing the
// dependencies to load into a registry in one go.
//
//	[[dependency]]
//	from = "Receive order"
//	to = "Ship order"
//	temporal = "direct"
//	existential = "implication"
//
// Omitted types default to none (temporal) and independence (existential).
// Omitted directions default to model.DefaultDirectionFor the type.
package sheet

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/registry"
)

// Sheet is a decoded dependency sheet.
type Sheet struct {
	Rows []Row `toml:"dependency"`
}

// Row is one dependency as written in the sheet. The HTTP API accepts the
// same shape as JSON.
type Row struct {
	From                 string `toml:"from" json:"from"`
	To                   string `toml:"to" json:"to"`
	Temporal             string `toml:"temporal,omitempty" json:"temporal,omitempty"`
	TemporalDirection    string `toml:"temporal_direction,omitempty" json:"temporal_direction,omitempty"`
	Existential          string `toml:"existential,omitempty" json:"existential,omitempty"`
	ExistentialDirection string `toml:"existential_direction,omitempty" json:"existential_direction,omitempty"`
}

// Decode reads a sheet from r.
func Decode(r io.Reader) (*Sheet, error) {
	var s Sheet
	if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode sheet: %w", err)
	}
	return &s, nil
}

// DecodeFile reads a sheet from the file at path.
func DecodeFile(path string) (*Sheet, error) {
	var s Sheet
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, fmt.Errorf("decode sheet %s: %w", path, err)
	}
	return &s, nil
}

// Dependency converts the row, applying defaults for omitted fields.
func (row Row) Dependency() (model.Dependency, error) {
	d := model.Dependency{From: row.From, To: row.To}

	temporal := row.Temporal
	if temporal == "" {
		temporal = string(model.TemporalNone)
	}
	t, err := model.ParseTemporal(temporal)
	if err != nil {
		return d, err
	}
	d.Temporal = t

	existential := row.Existential
	if existential == "" {
		existential = string(model.ExistentialIndependence)
	}
	e, err := model.ParseExistential(existential)
	if err != nil {
		return d, err
	}
	d.Existential = e

	if d.TemporalDirection, err = direction(row.TemporalDirection, string(d.Temporal)); err != nil {
		return d, err
	}
	if d.ExistentialDirection, err = direction(row.ExistentialDirection, string(d.Existential)); err != nil {
		return d, err
	}
	return d, nil
}

func direction(value, typ string) (model.Direction, error) {
	if value == "" {
		return model.DefaultDirectionFor(typ), nil
	}
	return model.ParseDirection(value)
}

// Dependencies converts every row. Errors name the 1-based row number.
func (s *Sheet) Dependencies() ([]model.Dependency, error) {
	out := make([]model.Dependency, 0, len(s.Rows))
	for i, row := range s.Rows {
		d, err := row.Dependency()
		if err != nil {
			return nil, fmt.Errorf("dependency %d: %w", i+1, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Apply adds every row to r in order and stops at the first rejection.
// Rows added before the failure stay in r.
func (s *Sheet) Apply(r *registry.Registry) error {
	deps, err := s.Dependencies()
	if err != nil {
		return err
	}
	for i, d := range deps {
		if err := r.Add(d); err != nil {
			return fmt.Errorf("dependency %d: %w", i+1, err)
		}
	}
	return nil
}
