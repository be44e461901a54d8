// Package scene defines the declarative description of a set of parts:
// box bodies, plane cuts and trees of cut/add operations. A Scene is what
// the DSL engine produces and what the report and mesh pipelines consume.
package scene

import (
	"fmt"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
)

// Vec3 is a 3D vector in model units (mm) or Euler degrees.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vector converts v to a geom vector.
func (v Vec3) Vector() geom.Vector {
	return geom.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// IsZero reports whether every component is zero.
func (v Vec3) IsZero() bool {
	return v == Vec3{}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g %g %g)", v.X, v.Y, v.Z)
}

// BoxSpec is a box primitive. The box spans [0, Size] before placement; it is
// rotated about that corner by Rotation (degrees, X then Y then Z) and then
// moved so the corner lands on At.
type BoxSpec struct {
	Size     Vec3 `json:"size" yaml:"size"`
	At       Vec3 `json:"at" yaml:"at"`
	Rotation Vec3 `json:"rotation" yaml:"rotation"`
}

// Rotated reports whether the box carries a rotation.
func (b BoxSpec) Rotated() bool {
	return !b.Rotation.IsZero()
}

// PlaneCutSpec trims a part body. Material on the side Normal points to is
// removed.
type PlaneCutSpec struct {
	ID     kernel.ID `json:"id" yaml:"id"`
	Name   string    `json:"name" yaml:"name"`
	Origin Vec3      `json:"origin" yaml:"origin"`
	Normal Vec3      `json:"normal" yaml:"normal"`
}

// OpSpec is a cut or add whose tool is a box. Children are layered onto the
// tool before the operation runs.
type OpSpec struct {
	ID       kernel.ID            `json:"id" yaml:"id"`
	Name     string               `json:"name" yaml:"name"`
	Kind     kernel.OperationType `json:"kind" yaml:"kind"`
	Tool     BoxSpec              `json:"tool" yaml:"tool"`
	Children []*OpSpec            `json:"children,omitempty" yaml:"children,omitempty"`
}

// PartSpec is a named part: a box body, plane cuts applied to it, and an
// ordered list of operations.
type PartSpec struct {
	ID        kernel.ID       `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Body      BoxSpec         `json:"body" yaml:"body"`
	PlaneCuts []*PlaneCutSpec `json:"plane_cuts,omitempty" yaml:"plane_cuts,omitempty"`
	Ops       []*OpSpec       `json:"ops,omitempty" yaml:"ops,omitempty"`
}

// AssignIDs derives content-addressed ids for the part and everything in it
// from their paths, and names anonymous plane cuts and operations after
// their kind and position.
func (p *PartSpec) AssignIDs() {
	base := "part/" + p.Name
	p.ID = NewID(base)
	for i, pc := range p.PlaneCuts {
		if pc.Name == "" {
			pc.Name = fmt.Sprintf("plane-cut-%d", i+1)
		}
		pc.ID = NewID(base + "/plane-cut/" + pc.Name)
	}
	assignOpIDs(base, "", p.Ops)
}

// assignOpIDs names anonymous operations "<kind>-<n>", prefixed with the
// parent's name for children so names stay unique within the part.
func assignOpIDs(base, prefix string, ops []*OpSpec) {
	for i, op := range ops {
		if op.Name == "" {
			op.Name = fmt.Sprintf("%s%s-%d", prefix, op.Kind, i+1)
		}
		path := base + "/" + op.Kind.String() + "/" + op.Name
		op.ID = NewID(path)
		assignOpIDs(path, op.Name+"/", op.Children)
	}
}

// Op returns the direct operation with the given id, or nil.
func (p *PartSpec) Op(id kernel.ID) *OpSpec {
	for _, op := range p.Ops {
		if op.ID == id {
			return op
		}
	}
	return nil
}
