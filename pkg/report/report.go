package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/query"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by Encode for an unsupported format.
var ErrUnknownFormat = errors.New("report: unknown format")

// Report is the result of running the cut queries over a model.
type Report struct {
	Parts []PartReport `json:"parts" yaml:"parts"`
}

// PartReport lists one part's direct cuts and which of them removed no
// material.
type PartReport struct {
	Name      string      `json:"name" yaml:"name"`
	ID        kernel.ID   `json:"id" yaml:"id"`
	Cuts      []CutReport `json:"cuts" yaml:"cuts"`
	Redundant []string    `json:"redundant" yaml:"redundant"`
	Warnings  []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// CutReport is the location of one cut.
type CutReport struct {
	Name     string         `json:"name" yaml:"name"`
	ID       kernel.ID      `json:"id" yaml:"id"`
	Location query.Location `json:"location" yaml:"location"`
}

// Run classifies every direct cut of every part and collects the redundant
// ones.
func Run(q *query.Querier, m *Model) (*Report, error) {
	r := &Report{Parts: make([]PartReport, 0, len(m.Parts))}
	for _, p := range m.Parts {
		pr := PartReport{
			Name:      p.Name(),
			ID:        p.ID(),
			Cuts:      []CutReport{},
			Redundant: []string{},
			Warnings:  m.warnings[p.ID()],
		}

		ops, err := q.Kernel().BooleanOperations(p)
		if err != nil {
			return nil, fmt.Errorf("part %q: %w", p.Name(), err)
		}
		for _, op := range ops {
			if op.Type() != kernel.Cut {
				continue
			}
			loc, err := q.CutLocation(op)
			if err != nil {
				return nil, fmt.Errorf("part %q: %w", p.Name(), err)
			}
			pr.Cuts = append(pr.Cuts, CutReport{
				Name:     m.Name(op.ID()),
				ID:       op.ID(),
				Location: loc,
			})
		}

		redundant, err := q.RedundantCuts(p)
		if err != nil {
			return nil, fmt.Errorf("part %q: %w", p.Name(), err)
		}
		for _, op := range redundant {
			pr.Redundant = append(pr.Redundant, m.Name(op.ID()))
		}

		r.Parts = append(r.Parts, pr)
	}
	return r, nil
}

// Encode writes the report as "json" or "yaml".
func (r *Report) Encode(w io.Writer, format string) error {
	return Encode(w, format, r)
}

// Encode writes v as "json" or "yaml". An empty format means json.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
