package polytope

import (
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// facet is a convex planar polygon lying on plane, wound counter-clockwise
// when seen from the side the plane normal points to.
type facet struct {
	plane Plane
	poly  []v3.Vec

	// flipped marks a piece whose material lies outside its leaf's face.
	flipped bool
}

// cell is a bounded convex region: the intersection of the inner sides of
// its planes. bbox is a conservative bound used to size face construction.
type cell struct {
	planes []Plane
	bbox   sdf.Box3
	faces  []facet
}

// newCell builds a cell and its faces. A cell whose planes enclose nothing
// has no faces.
func newCell(planes []Plane, bound sdf.Box3, tol float64) *cell {
	c := &cell{planes: planes, bbox: bound}
	c.faces = c.buildFaces(tol)
	if len(c.faces) > 0 {
		var pts []v3.Vec
		for _, f := range c.faces {
			pts = append(pts, f.poly...)
		}
		c.bbox = bounds(pts)
	}
	return c
}

// boxCell returns the axis-aligned cell [min, max] with every plane tagged
// with the same provenance.
func boxCell(id kernel.ID, min, max v3.Vec, tol float64) *cell {
	planes := []Plane{
		{Normal: v3.Vec{X: -1}, Offset: -min.X, ID: id},
		{Normal: v3.Vec{X: 1}, Offset: max.X, ID: id},
		{Normal: v3.Vec{Y: -1}, Offset: -min.Y, ID: id},
		{Normal: v3.Vec{Y: 1}, Offset: max.Y, ID: id},
		{Normal: v3.Vec{Z: -1}, Offset: -min.Z, ID: id},
		{Normal: v3.Vec{Z: 1}, Offset: max.Z, ID: id},
	}
	return newCell(planes, sdf.Box3{Min: min, Max: max}, tol)
}

func (c *cell) empty() bool {
	return len(c.faces) == 0
}

// contains reports whether x lies strictly inside the cell.
func (c *cell) contains(x v3.Vec) bool {
	for _, p := range c.planes {
		if p.Distance(x) >= 0 {
			return false
		}
	}
	return true
}

// buildFaces lays a square larger than the cell on every plane and clips it
// by all the other planes. Of several coincident planes only the first
// yields a face.
func (c *cell) buildFaces(tol float64) []facet {
	size := c.bbox.Max.Sub(c.bbox.Min).Length() + 1
	center := c.bbox.Min.Add(c.bbox.Max).MulScalar(0.5)

	var faces []facet
	for i, p := range c.planes {
		if c.shadowed(i, tol) {
			continue
		}
		poly := square(p, center, 2*size)
		for j, q := range c.planes {
			if j == i {
				continue
			}
			poly = clip(poly, q, tol)
			if poly == nil {
				break
			}
		}
		if poly == nil || area(poly) <= tol {
			continue
		}
		faces = append(faces, facet{plane: p, poly: poly})
	}
	return faces
}

// shadowed reports whether an earlier plane coincides with plane i.
func (c *cell) shadowed(i int, tol float64) bool {
	for j := 0; j < i; j++ {
		if c.planes[j].coincident(c.planes[i], tol) {
			return true
		}
	}
	return false
}

// square returns a counter-clockwise square on p centred on the projection
// of center, with the given half-width.
func square(p Plane, center v3.Vec, half float64) []v3.Vec {
	n := p.Normal
	o := center.Sub(n.MulScalar(p.Distance(center)))

	axis := v3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		axis = v3.Vec{Y: 1}
	}
	u := n.Cross(axis).Normalize().MulScalar(half)
	v := n.Cross(u)

	return []v3.Vec{
		o.Sub(u).Sub(v),
		o.Add(u).Sub(v),
		o.Add(u).Add(v),
		o.Sub(u).Add(v),
	}
}

// clipped returns the cell intersected with the inner side of p.
func (c *cell) clipped(p Plane, tol float64) *cell {
	planes := append(append([]Plane(nil), c.planes...), p)
	return newCell(planes, c.bbox, tol)
}

// transformed returns the cell mapped through a rigid transform.
func (c *cell) transformed(m sdf.M44, tol float64) *cell {
	planes := make([]Plane, len(c.planes))
	for i, p := range c.planes {
		planes[i] = p.transform(m)
	}
	corners := make([]v3.Vec, 0, 8)
	for _, x := range []float64{c.bbox.Min.X, c.bbox.Max.X} {
		for _, y := range []float64{c.bbox.Min.Y, c.bbox.Max.Y} {
			for _, z := range []float64{c.bbox.Min.Z, c.bbox.Max.Z} {
				corners = append(corners, m.MulPosition(v3.Vec{X: x, Y: y, Z: z}))
			}
		}
	}
	return newCell(planes, bounds(corners), tol)
}
