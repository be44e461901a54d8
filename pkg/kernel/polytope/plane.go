package polytope

import (
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is an oriented plane. Points with Distance <= 0 are on the inner
// side; Normal points outward. ID is the provenance of faces lying on it.
type Plane struct {
	Normal v3.Vec
	Offset float64
	ID     kernel.ID
}

// NewPlane returns the plane through point with the given outward normal.
func NewPlane(id kernel.ID, point, normal v3.Vec) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Offset: n.Dot(point), ID: id}
}

// Distance returns the signed distance of x from the plane.
func (p Plane) Distance(x v3.Vec) float64 {
	return p.Normal.Dot(x) - p.Offset
}

// Flip returns the plane with the opposite orientation.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Neg(), Offset: -p.Offset, ID: p.ID}
}

// transform maps the plane through a rigid transform.
func (p Plane) transform(m sdf.M44) Plane {
	o := m.MulPosition(p.Normal.MulScalar(p.Offset))
	n := m.MulPosition(p.Normal).Sub(m.MulPosition(v3.Vec{})).Normalize()
	return Plane{Normal: n, Offset: n.Dot(o), ID: p.ID}
}

// coincident reports whether p and q describe the same oriented plane.
func (p Plane) coincident(q Plane, tol float64) bool {
	return p.Normal.Sub(q.Normal).Length() <= tol && math.Abs(p.Offset-q.Offset) <= tol
}

// side classifies a polygon against a plane.
type side int

const (
	sideInside   side = iota // every vertex on or behind the plane
	sideOutside              // every vertex on or in front, at least one in front
	sideStraddle             // vertices on both sides
)

func classify(poly []v3.Vec, p Plane, tol float64) side {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range poly {
		d := p.Distance(v)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	switch {
	case hi <= tol:
		return sideInside
	case lo >= -tol:
		return sideOutside
	default:
		return sideStraddle
	}
}

// clip keeps the part of a convex polygon on the inner side of p
// (Sutherland-Hodgman). Vertices within tol of the plane count as inside.
// It returns nil when fewer than three vertices survive.
func clip(poly []v3.Vec, p Plane, tol float64) []v3.Vec {
	out := make([]v3.Vec, 0, len(poly)+1)
	for i, a := range poly {
		b := poly[(i+1)%len(poly)]
		da, db := p.Distance(a), p.Distance(b)
		ain, bin := da <= tol, db <= tol
		if ain {
			out = append(out, a)
		}
		if ain != bin && math.Abs(da) > tol && math.Abs(db) > tol {
			t := da / (da - db)
			out = append(out, a.Add(b.Sub(a).MulScalar(t)))
		}
	}
	out = dedupLoop(out, tol)
	if len(out) < 3 {
		return nil
	}
	return out
}

// split divides a convex polygon by a convex cell given as planes. in is the
// part inside every plane; out are convex pieces outside the cell. Faces
// coplanar with a cell plane count as inside that plane.
func split(poly []v3.Vec, planes []Plane, tol float64) (in []v3.Vec, out [][]v3.Vec) {
	rest := poly
	for _, h := range planes {
		switch classify(rest, h, tol) {
		case sideInside:
			continue
		case sideOutside:
			return nil, append(out, rest)
		}
		if o := clip(rest, h.Flip(), tol); o != nil {
			out = append(out, o)
		}
		rest = clip(rest, h, tol)
		if rest == nil {
			return nil, out
		}
	}
	return rest, out
}

// dedupLoop drops consecutive vertices closer than tol, including the
// wrap-around pair.
func dedupLoop(poly []v3.Vec, tol float64) []v3.Vec {
	if len(poly) == 0 {
		return poly
	}
	out := poly[:0:0]
	for _, v := range poly {
		if len(out) > 0 && out[len(out)-1].Sub(v).Length() <= tol {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0].Sub(out[len(out)-1]).Length() <= tol {
		out = out[:len(out)-1]
	}
	return out
}

// area returns the area of a planar polygon.
func area(poly []v3.Vec) float64 {
	var sum v3.Vec
	for i, a := range poly {
		sum = sum.Add(a.Cross(poly[(i+1)%len(poly)]))
	}
	return sum.Length() / 2
}

// reversed returns poly with its winding reversed.
func reversed(poly []v3.Vec) []v3.Vec {
	out := make([]v3.Vec, len(poly))
	for i, v := range poly {
		out[len(poly)-1-i] = v
	}
	return out
}

// bounds returns the bounding box of a set of points.
func bounds(pts []v3.Vec) sdf.Box3 {
	if len(pts) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		bb.Min = bb.Min.Min(p)
		bb.Max = bb.Max.Max(p)
	}
	return bb
}

// extend returns the smallest box enclosing a and b.
func extend(a, b sdf.Box3) sdf.Box3 {
	return sdf.Box3{Min: a.Min.Min(b.Min), Max: a.Max.Max(b.Max)}
}

// overlaps reports whether two boxes intersect, widened by tol.
func overlaps(a, b sdf.Box3, tol float64) bool {
	return a.Min.X <= b.Max.X+tol && b.Min.X <= a.Max.X+tol &&
		a.Min.Y <= b.Max.Y+tol && b.Min.Y <= a.Max.Y+tol &&
		a.Min.Z <= b.Max.Z+tol && b.Min.Z <= a.Max.Z+tol
}
