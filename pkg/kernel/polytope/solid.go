package polytope

import (
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	// tolerance is the absolute epsilon for clipping and coincidence, in mm.
	tolerance = 1e-7

	// sampleOffset is how far from a face piece membership is probed. It must
	// stay well above tolerance and below the thinnest feature of a model.
	sampleOffset = 1e-5
)

type exprKind int

const (
	exprLeaf exprKind = iota
	exprUnion
	exprDifference
)

// Solid is a CSG tree over convex cells. Its boundary is evaluated on first
// use and cached; a Solid is immutable once built.
type Solid struct {
	kind   exprKind
	cell   *cell
	a, b   *Solid
	leaves []*cell
	bbox   sdf.Box3

	evaluated bool
	boundary  []facet
}

// Compile-time interface check.
var _ kernel.Solid = (*Solid)(nil)

// BoundingBox returns a bound of the solid's material.
func (s *Solid) BoundingBox() sdf.Box3 {
	return s.bbox
}

func leaf(c *cell) *Solid {
	s := &Solid{kind: exprLeaf, cell: c, bbox: c.bbox}
	if !c.empty() {
		s.leaves = []*cell{c}
	}
	return s
}

// BoxOption places a box primitive.
type BoxOption func(*boxPlacement)

type boxPlacement struct {
	at       v3.Vec
	rotation v3.Vec
}

// At moves the box's minimum corner to v.
func At(v v3.Vec) BoxOption {
	return func(p *boxPlacement) { p.at = v }
}

// Rotate turns the box about its minimum corner by Euler angles in degrees,
// X first, then Y, then Z. Rotation is applied before At.
func Rotate(euler v3.Vec) BoxOption {
	return func(p *boxPlacement) { p.rotation = euler }
}

// Box returns a box primitive of the given size whose faces all carry id.
func Box(id kernel.ID, size v3.Vec, opts ...BoxOption) *Solid {
	var pl boxPlacement
	for _, o := range opts {
		o(&pl)
	}
	c := boxCell(id, v3.Vec{}, size, tolerance)
	if pl.rotation != (v3.Vec{}) || pl.at != (v3.Vec{}) {
		m := sdf.Translate3d(pl.at).
			Mul(sdf.RotateZ(pl.rotation.Z * math.Pi / 180)).
			Mul(sdf.RotateY(pl.rotation.Y * math.Pi / 180)).
			Mul(sdf.RotateX(pl.rotation.X * math.Pi / 180))
		c = c.transformed(m, tolerance)
	}
	return leaf(c)
}

// Union returns a ∪ b.
func Union(a, b *Solid) *Solid {
	return &Solid{
		kind:   exprUnion,
		a:      a,
		b:      b,
		leaves: concatLeaves(a, b),
		bbox:   extend(a.bbox, b.bbox),
	}
}

// Difference returns a - b.
func Difference(a, b *Solid) *Solid {
	return &Solid{
		kind:   exprDifference,
		a:      a,
		b:      b,
		leaves: concatLeaves(a, b),
		bbox:   a.bbox,
	}
}

func concatLeaves(a, b *Solid) []*cell {
	out := make([]*cell, 0, len(a.leaves)+len(b.leaves))
	out = append(out, a.leaves...)
	return append(out, b.leaves...)
}

// Clip returns the solid restricted to the inner side of p. Faces created
// on p carry p.ID.
func (s *Solid) Clip(p Plane) *Solid {
	switch s.kind {
	case exprLeaf:
		return leaf(s.cell.clipped(p, tolerance))
	case exprUnion:
		return Union(s.a.Clip(p), s.b.Clip(p))
	default:
		// (A - B) ∩ H == (A ∩ H) - (B ∩ H)
		return Difference(s.a.Clip(p), s.b.Clip(p))
	}
}

// Contains reports whether x lies strictly inside the solid's material.
func (s *Solid) Contains(x v3.Vec) bool {
	switch s.kind {
	case exprLeaf:
		return s.cell.contains(x)
	case exprUnion:
		return s.a.Contains(x) || s.b.Contains(x)
	default:
		return s.a.Contains(x) && !s.b.Contains(x)
	}
}

// facets evaluates the boundary. Every face of every leaf cell is split by
// every other leaf into convex pieces on which membership is constant; a
// piece is boundary when the solid holds material on exactly one side of it.
func (s *Solid) facets() []facet {
	if s.evaluated {
		return s.boundary
	}
	s.evaluated = true

	for li, l := range s.leaves {
		for _, f := range l.faces {
			pieces := [][]v3.Vec{f.poly}
			fb := bounds(f.poly)
			for mi, m := range s.leaves {
				if mi == li || !overlaps(fb, m.bbox, tolerance) {
					continue
				}
				pieces = splitPieces(pieces, m.planes)
			}
			for _, p := range pieces {
				if fc, ok := s.classifyPiece(f.plane, p); ok {
					s.boundary = append(s.boundary, fc)
				}
			}
		}
	}
	s.boundary = dedupFacets(s.boundary)
	return s.boundary
}

// dedupFacets drops pieces lying on an equally oriented piece kept from
// another leaf. That happens where two primitives touch flush, such as a
// tool resting on a face of the body it is subtracted from. A flipped piece
// always loses to an unflipped one, so the face keeps the minuend's
// provenance; between pieces of the same kind the earlier one wins.
func dedupFacets(fs []facet) []facet {
	centers := make([]v3.Vec, len(fs))
	for i, f := range fs {
		centers[i] = centroid(f.poly)
	}
	out := fs[:0:0]
	for i, f := range fs {
		dup := false
		for j, g := range fs {
			if i == j || !g.plane.coincident(f.plane, tolerance) || !covers(g, centers[i], tolerance) {
				continue
			}
			if f.flipped && !g.flipped || f.flipped == g.flipped && j < i {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// covers reports whether x, taken to lie on the facet's plane, falls inside
// its polygon or within tol of it.
func covers(f facet, x v3.Vec, tol float64) bool {
	n := f.plane.Normal
	for i, a := range f.poly {
		e := f.poly[(i+1)%len(f.poly)].Sub(a)
		m := n.Cross(e)
		l := m.Length()
		if l == 0 {
			continue
		}
		if m.Dot(x.Sub(a))/l < -tol {
			return false
		}
	}
	return true
}

func splitPieces(pieces [][]v3.Vec, planes []Plane) [][]v3.Vec {
	var out [][]v3.Vec
	for _, p := range pieces {
		in, outside := split(p, planes, tolerance)
		out = append(out, outside...)
		if in != nil {
			out = append(out, in)
		}
	}
	return out
}

// classifyPiece keeps a piece lying on plane when membership differs across
// it, oriented so the plane normal points away from the material.
func (s *Solid) classifyPiece(plane Plane, poly []v3.Vec) (facet, bool) {
	if area(poly) <= tolerance {
		return facet{}, false
	}
	c := centroid(poly)
	off := plane.Normal.MulScalar(sampleOffset)
	behind := s.Contains(c.Sub(off))
	front := s.Contains(c.Add(off))
	switch {
	case behind == front:
		return facet{}, false
	case behind:
		return facet{plane: plane, poly: poly}, true
	default:
		return facet{plane: plane.Flip(), poly: reversed(poly), flipped: true}, true
	}
}

func centroid(poly []v3.Vec) v3.Vec {
	var c v3.Vec
	for _, v := range poly {
		c = c.Add(v)
	}
	return c.DivScalar(float64(len(poly)))
}
