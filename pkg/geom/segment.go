package geom

// Segment is a bounded line segment between P1 and P2.
type Segment struct {
	P1, P2 Point
}

// Direction returns P2 - P1.
func (s Segment) Direction() Vector {
	return s.P2.Sub(s.P1)
}

// Length returns the distance between the endpoints.
func (s Segment) Length() float64 {
	return s.Direction().Length()
}

// InBounds reports whether p lies inside the axis-aligned box spanned by the
// segment's endpoints, widened by tol on every axis.
func (s Segment) InBounds(p Point, tol float64) bool {
	lo := s.P1.Min(s.P2)
	hi := s.P1.Max(s.P2)
	return p.X >= lo.X-tol && p.X <= hi.X+tol &&
		p.Y >= lo.Y-tol && p.Y <= hi.Y+tol &&
		p.Z >= lo.Z-tol && p.Z <= hi.Z+tol
}

// closestPoints returns the points on the infinite lines through a and b that
// are closest to each other. ok is false when the lines are parallel or
// either segment is degenerate.
func closestPoints(a, b Segment) (pa, pb Point, ok bool) {
	d1 := a.Direction()
	d2 := b.Direction()
	w0 := a.P1.Sub(b.P1)

	aa := d1.Dot(d1)
	bb := d1.Dot(d2)
	cc := d2.Dot(d2)
	dd := d1.Dot(w0)
	ee := d2.Dot(w0)

	if aa <= Epsilon*Epsilon || cc <= Epsilon*Epsilon {
		return Point{}, Point{}, false
	}
	denom := aa*cc - bb*bb
	// denom = |d1|^2 |d2|^2 sin^2(theta).
	if denom <= Epsilon*Epsilon*aa*cc {
		return Point{}, Point{}, false
	}

	s := (bb*ee - cc*dd) / denom
	t := (aa*ee - bb*dd) / denom
	return a.P1.Add(d1.MulScalar(s)), b.P1.Add(d2.MulScalar(t)), true
}

// IntersectSegments returns the point where a and b cross. It reports false
// for parallel or collinear segments, for skew lines, and when the crossing
// of the supporting lines falls outside either segment.
func IntersectSegments(a, b Segment) (Point, bool) {
	pa, pb, ok := closestPoints(a, b)
	if !ok {
		return Point{}, false
	}
	if !Coincident(pa, pb, Epsilon) {
		return Point{}, false
	}
	if !a.InBounds(pa, Epsilon) || !b.InBounds(pa, Epsilon) {
		return Point{}, false
	}
	return pa, true
}
