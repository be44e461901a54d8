// Package polytope is an in-memory B-rep kernel over convex cells. It
// implements kernel.Kernel for parts built from box primitives, plane cuts
// and cut/add operation trees, and is the reference backend for the query
// layer and the CLI.
//
// Solids are CSG trees whose leaves are convex cells (intersections of
// half-spaces). Boundaries are evaluated by splitting every leaf face by
// every other leaf into convex pieces and keeping the pieces the material
// lies on exactly one side of. Every face keeps the provenance of the plane
// it lies on.
package polytope

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrForeignSolid is returned when a solid or part not built by this
	// package is passed in.
	ErrForeignSolid = errors.New("polytope: foreign solid")

	// ErrUnknownVariant is returned for an unsupported solid variant.
	ErrUnknownVariant = errors.New("polytope: unknown solid variant")
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Kernel answers kernel.Kernel queries against polytope solids.
type Kernel struct {
	tol float64
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithTolerance sets the coincidence tolerance used by queries.
func WithTolerance(tol float64) Option {
	return func(k *Kernel) {
		if tol > 0 {
			k.tol = tol
		}
	}
}

// New returns a Kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{tol: geom.Epsilon}
	for _, o := range opts {
		o(k)
	}
	return k
}

func asSolid(s kernel.Solid) (*Solid, bool) {
	ps, ok := s.(*Solid)
	return ps, ok && ps != nil
}

// IntersectSegment returns the distinct points where the segment meets the
// boundary, ordered by distance from p1. A segment lying in a face
// contributes the endpoints of the overlap.
func (k *Kernel) IntersectSegment(s kernel.Solid, p1, p2 geom.Point) []geom.Point {
	ps, ok := asSolid(s)
	if !ok {
		return nil
	}
	d := p2.Sub(p1)
	if d.Length() <= k.tol {
		return nil
	}

	var pts []geom.Point
	for _, f := range ps.facets() {
		da, db := f.plane.Distance(p1), f.plane.Distance(p2)
		switch {
		case (da > k.tol && db > k.tol) || (da < -k.tol && db < -k.tol):
			continue
		case math.Abs(da) <= k.tol && math.Abs(db) <= k.tol:
			pts = append(pts, k.overlap(f, p1, d)...)
		default:
			var t float64
			switch {
			case math.Abs(da) <= k.tol:
				t = 0
			case math.Abs(db) <= k.tol:
				t = 1
			default:
				t = da / (da - db)
			}
			x := p1.Add(d.MulScalar(t))
			if k.inFacet(f, x) {
				pts = append(pts, x)
			}
		}
	}

	pts = k.distinct(pts)
	sort.Slice(pts, func(i, j int) bool {
		return pts[i].Sub(p1).Length() < pts[j].Sub(p1).Length()
	})
	return pts
}

// inFacet reports whether x, assumed on the facet plane, lies inside the
// facet polygon.
func (k *Kernel) inFacet(f facet, x v3.Vec) bool {
	return covers(f, x, k.tol)
}

// overlap clips the coplanar segment p1 + t*d, t in [0, 1], to the facet and
// returns the endpoints of what remains.
func (k *Kernel) overlap(f facet, p1, d v3.Vec) []geom.Point {
	n := f.plane.Normal
	lo, hi := 0.0, 1.0
	for i, a := range f.poly {
		e := f.poly[(i+1)%len(f.poly)].Sub(a)
		m := n.Cross(e)
		l := m.Length()
		if l == 0 {
			continue
		}
		m = m.DivScalar(l)
		f0 := m.Dot(p1.Sub(a))
		fd := m.Dot(d)
		if math.Abs(fd) <= k.tol {
			if f0 < -k.tol {
				return nil
			}
			continue
		}
		t := -f0 / fd
		if fd > 0 {
			lo = math.Max(lo, t)
		} else {
			hi = math.Min(hi, t)
		}
	}
	if lo > hi+k.tol/d.Length() {
		return nil
	}
	return []geom.Point{p1.Add(d.MulScalar(lo)), p1.Add(d.MulScalar(hi))}
}

// planeThrough returns the plane through three points, or false when they
// are collinear.
func (k *Kernel) planeThrough(p1, p2, p3 geom.Point) (Plane, bool) {
	n := p2.Sub(p1).Cross(p3.Sub(p1))
	if n.Length() <= k.tol {
		return Plane{}, false
	}
	return NewPlane("", p1, n), true
}

// IntersectPlane returns the distinct points where the plane through p1, p2,
// p3 meets the solid's edges. Edges lying in the plane contribute both
// endpoints.
func (k *Kernel) IntersectPlane(s kernel.Solid, p1, p2, p3 geom.Point) []geom.Point {
	pl, ok := k.planeThrough(p1, p2, p3)
	if !ok {
		return nil
	}
	var pts []geom.Point
	for _, e := range k.Edges(s) {
		pts = append(pts, k.crossings(pl, []v3.Vec{e.Start, e.End}, false)...)
	}
	return k.distinct(pts)
}

// IntersectPlaneFaces returns, for every face the plane meets, the crossing
// points in loop order.
func (k *Kernel) IntersectPlaneFaces(s kernel.Solid, p1, p2, p3 geom.Point) [][]geom.Point {
	ps, ok := asSolid(s)
	if !ok {
		return nil
	}
	pl, ok := k.planeThrough(p1, p2, p3)
	if !ok {
		return nil
	}
	var loops [][]geom.Point
	for _, f := range ps.facets() {
		if pts := dedupLoop(k.crossings(pl, f.poly, true), k.tol); len(pts) > 0 {
			loops = append(loops, pts)
		}
	}
	return loops
}

// crossings walks a polyline (closed when loop is set) and returns its
// vertices on the plane and the points where its edges cross it.
func (k *Kernel) crossings(pl Plane, pts []v3.Vec, loop bool) []geom.Point {
	n := len(pts) - 1
	if loop {
		n = len(pts)
	}
	var out []geom.Point
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		da, db := pl.Distance(a), pl.Distance(b)
		if math.Abs(da) <= k.tol {
			out = append(out, a)
		}
		if (da < -k.tol && db > k.tol) || (da > k.tol && db < -k.tol) {
			out = append(out, a.Add(b.Sub(a).MulScalar(da/(da-db))))
		}
		if !loop && i == n-1 && math.Abs(db) <= k.tol {
			out = append(out, b)
		}
	}
	return out
}

// Faces returns the boundary faces.
func (k *Kernel) Faces(s kernel.Solid) []kernel.Face {
	ps, ok := asSolid(s)
	if !ok {
		return nil
	}
	return toFaces(ps.facets())
}

func toFaces(fs []facet) []kernel.Face {
	faces := make([]kernel.Face, 0, len(fs))
	for _, f := range fs {
		loop := make([]kernel.Edge, len(f.poly))
		for i, a := range f.poly {
			loop[i] = kernel.Edge{Start: a, End: f.poly[(i+1)%len(f.poly)]}
		}
		faces = append(faces, kernel.Face{Provenance: f.plane.ID, Loop: loop})
	}
	return faces
}

// Edges returns the distinct undirected edges of the boundary faces, in
// face order.
func (k *Kernel) Edges(s kernel.Solid) []kernel.Edge {
	ps, ok := asSolid(s)
	if !ok {
		return nil
	}
	seen := make(map[[2]gridKey]bool)
	var edges []kernel.Edge
	for _, f := range ps.facets() {
		for i, a := range f.poly {
			b := f.poly[(i+1)%len(f.poly)]
			ka, kb := k.key(a), k.key(b)
			if kb.less(ka) {
				ka, kb = kb, ka
			}
			id := [2]gridKey{ka, kb}
			if seen[id] {
				continue
			}
			seen[id] = true
			edges = append(edges, kernel.Edge{Start: a, End: b})
		}
	}
	return edges
}

// Solid returns the requested projection of a polytope part.
func (k *Kernel) Solid(p kernel.Part, v kernel.SolidVariant) (kernel.Solid, error) {
	pp, ok := p.(*Part)
	if !ok || pp == nil {
		return nil, fmt.Errorf("solid of %T: %w", p, ErrForeignSolid)
	}
	s, err := pp.solid(v)
	if err != nil {
		return nil, fmt.Errorf("part %q variant %s: %w", pp.name, v, err)
	}
	return s, nil
}

// BooleanOperations returns the part's direct operations.
func (k *Kernel) BooleanOperations(p kernel.Part) ([]kernel.BooleanOperation, error) {
	pp, ok := p.(*Part)
	if !ok || pp == nil {
		return nil, fmt.Errorf("operations of %T: %w", p, ErrForeignSolid)
	}
	ops := make([]kernel.BooleanOperation, len(pp.ops))
	for i, op := range pp.ops {
		ops[i] = op
	}
	return ops, nil
}

// CutSolid subtracts tool from s and returns the connected components of the
// result's boundary as shells.
func (k *Kernel) CutSolid(s, tool kernel.Solid) ([]kernel.Shell, error) {
	a, ok := asSolid(s)
	if !ok {
		return nil, fmt.Errorf("cut solid %T: %w", s, ErrForeignSolid)
	}
	b, ok := asSolid(tool)
	if !ok {
		return nil, fmt.Errorf("cut tool %T: %w", tool, ErrForeignSolid)
	}
	return k.shells(Difference(a, b).facets()), nil
}

// distinct drops points within tolerance of an earlier point.
func (k *Kernel) distinct(pts []geom.Point) []geom.Point {
	var out []geom.Point
next:
	for _, p := range pts {
		for _, q := range out {
			if geom.Coincident(p, q, k.tol) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}
