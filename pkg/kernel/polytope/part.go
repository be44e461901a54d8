package polytope

import (
	"github.com/chazu/kerf/pkg/kernel"
)

// Part is a modelled part: a raw body, plane cuts, and an ordered list of
// boolean operations.
type Part struct {
	id        kernel.ID
	name      string
	raw       *Solid
	planeCuts []Plane
	ops       []*Operation

	planeCutOnly *Solid
	full         *Solid
}

// Compile-time interface check.
var _ kernel.Part = (*Part)(nil)

// NewPart returns a part with the given raw body.
func NewPart(id kernel.ID, name string, raw *Solid) *Part {
	return &Part{id: id, name: name, raw: raw}
}

// ID returns the part's identifier.
func (p *Part) ID() kernel.ID { return p.id }

// Name returns the part's name.
func (p *Part) Name() string { return p.name }

// AddPlaneCut removes the material on the side pl.Normal points to. Faces
// created by the cut carry pl.ID.
func (p *Part) AddPlaneCut(pl Plane) {
	p.planeCuts = append(p.planeCuts, pl)
	p.planeCutOnly, p.full = nil, nil
}

// AddOperation appends a top-level boolean operation. The operation and its
// children take p as their father.
func (p *Part) AddOperation(op *Operation) {
	op.setFather(p)
	p.ops = append(p.ops, op)
	p.full = nil
}

// Operations returns the part's direct operations in order.
func (p *Part) Operations() []*Operation {
	return p.ops
}

func (p *Part) solid(v kernel.SolidVariant) (*Solid, error) {
	switch v {
	case kernel.Raw:
		return p.raw, nil
	case kernel.PlaneCutOnly:
		if p.planeCutOnly == nil {
			s := p.raw
			for _, pl := range p.planeCuts {
				s = s.Clip(pl)
			}
			p.planeCutOnly = s
		}
		return p.planeCutOnly, nil
	case kernel.Default:
		if p.full == nil {
			s, _ := p.solid(kernel.PlaneCutOnly)
			for _, op := range p.ops {
				s = op.apply(s)
			}
			p.full = s
		}
		return p.full, nil
	default:
		return nil, ErrUnknownVariant
	}
}

// Operation is a cut or add whose tool may carry its own child operations.
type Operation struct {
	id       kernel.ID
	typ      kernel.OperationType
	tool     *Solid
	children []*Operation
	father   *Part

	operative *Solid
}

// Compile-time interface check.
var _ kernel.BooleanOperation = (*Operation)(nil)

// NewOperation returns an operation using tool.
func NewOperation(id kernel.ID, typ kernel.OperationType, tool *Solid) *Operation {
	return &Operation{id: id, typ: typ, tool: tool}
}

// AddChild layers c onto the operation's tool.
func (o *Operation) AddChild(c *Operation) {
	c.setFather(o.father)
	o.children = append(o.children, c)
	o.operative = nil
}

func (o *Operation) setFather(p *Part) {
	o.father = p
	for _, c := range o.children {
		c.setFather(p)
	}
}

// ID returns the operation's identifier.
func (o *Operation) ID() kernel.ID { return o.id }

// Type returns Add or Cut.
func (o *Operation) Type() kernel.OperationType { return o.typ }

// Father returns the owning part, or nil before the operation is attached.
func (o *Operation) Father() kernel.Part {
	if o.father == nil {
		return nil
	}
	return o.father
}

// Operative returns the tool with the children applied in order.
func (o *Operation) Operative() kernel.Solid {
	return o.operativeSolid()
}

func (o *Operation) operativeSolid() *Solid {
	if o.operative == nil {
		s := o.tool
		for _, c := range o.children {
			s = c.apply(s)
		}
		o.operative = s
	}
	return o.operative
}

// Children returns the operations layered on the tool.
func (o *Operation) Children() []kernel.BooleanOperation {
	out := make([]kernel.BooleanOperation, len(o.children))
	for i, c := range o.children {
		out[i] = c
	}
	return out
}

// apply runs the operation against base.
func (o *Operation) apply(base *Solid) *Solid {
	if o.typ == kernel.Add {
		return Union(base, o.operativeSolid())
	}
	return Difference(base, o.operativeSolid())
}
