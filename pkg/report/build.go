// Package report turns a scene into kernel parts, runs the cut queries over
// them and encodes the findings.
package report

import (
	"errors"
	"fmt"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/polytope"
	"github.com/chazu/kerf/pkg/scene"
)

// ErrInvalidScene is returned when a scene has validation errors.
var ErrInvalidScene = errors.New("report: invalid scene")

// Model is a scene built into polytope parts, in scene order.
type Model struct {
	Parts    []*polytope.Part
	names    map[kernel.ID]string
	warnings map[kernel.ID][]string
}

// Name returns the scene name of a part, plane cut or operation.
func (m *Model) Name(id kernel.ID) string {
	if n, ok := m.names[id]; ok {
		return n
	}
	return string(id)
}

// Part returns the part with the given scene name, or nil.
func (m *Model) Part(name string) *polytope.Part {
	for _, p := range m.Parts {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Build validates s and converts every PartSpec into a polytope part. Faces
// of each primitive carry the id of the part, plane cut or operation that
// created it.
func Build(s *scene.Scene) (*Model, error) {
	findings := scene.Validate(s)
	if err := check(findings); err != nil {
		return nil, err
	}

	m := &Model{
		names:    make(map[kernel.ID]string),
		warnings: make(map[kernel.ID][]string),
	}
	owner := make(map[kernel.ID]kernel.ID)
	for _, ps := range s.Parts {
		m.Parts = append(m.Parts, m.buildPart(ps, owner))
	}
	for _, f := range findings {
		if f.Severity != scene.SeverityWarning {
			continue
		}
		if pid, ok := owner[f.ID]; ok {
			m.warnings[pid] = append(m.warnings[pid], f.Message)
		}
	}
	return m, nil
}

func (m *Model) buildPart(ps *scene.PartSpec, owner map[kernel.ID]kernel.ID) *polytope.Part {
	m.names[ps.ID] = ps.Name
	owner[ps.ID] = ps.ID

	p := polytope.NewPart(ps.ID, ps.Name, box(ps.ID, ps.Body))
	for _, pc := range ps.PlaneCuts {
		m.names[pc.ID] = pc.Name
		owner[pc.ID] = ps.ID
		p.AddPlaneCut(polytope.NewPlane(pc.ID, pc.Origin.Vector(), pc.Normal.Vector()))
	}
	for _, os := range ps.Ops {
		p.AddOperation(m.buildOp(ps.ID, os, owner))
	}
	return p
}

func (m *Model) buildOp(part kernel.ID, os *scene.OpSpec, owner map[kernel.ID]kernel.ID) *polytope.Operation {
	m.names[os.ID] = os.Name
	owner[os.ID] = part

	op := polytope.NewOperation(os.ID, os.Kind, box(os.ID, os.Tool))
	for _, c := range os.Children {
		op.AddChild(m.buildOp(part, c, owner))
	}
	return op
}

func box(id kernel.ID, b scene.BoxSpec) *polytope.Solid {
	return polytope.Box(id, b.Size.Vector(),
		polytope.At(b.At.Vector()),
		polytope.Rotate(b.Rotation.Vector()))
}

// Check returns an ErrInvalidScene error listing every validation error of
// s, or nil. Warnings are ignored.
func Check(s *scene.Scene) error {
	return check(scene.Validate(s))
}

func check(findings []scene.ValidationError) error {
	var errs []error
	for _, f := range scene.Errors(findings) {
		errs = append(errs, f)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidScene, errors.Join(errs...))
}
