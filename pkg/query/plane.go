package query

import (
	"fmt"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"go.uber.org/zap"
)

// PlaneFromFrame returns three points spanning the plane through origin with
// in-plane axes axisX and axisY.
func (q *Querier) PlaneFromFrame(origin geom.Point, axisX, axisY geom.Vector) (p1, p2, p3 geom.Point) {
	return origin, geom.Translate(origin, axisX), geom.Translate(origin, axisY)
}

// PlaneFromNormal returns three points spanning the plane through origin
// perpendicular to normal. The in-plane basis comes from a random direction,
// re-drawn while it is parallel to normal.
func (q *Querier) PlaneFromNormal(origin geom.Point, normal geom.Vector) (p1, p2, p3 geom.Point, err error) {
	if normal.Length() <= q.opts.Tolerance {
		return p1, p2, p3, fmt.Errorf("plane normal %v: %w", normal, ErrInvalidArgument)
	}
	for i := 0; i < q.opts.MaxBasisRetries; i++ {
		r := q.rand.UnitVector()
		if geom.Parallel(normal, r, q.opts.Tolerance) {
			q.logger.Debug("basis direction parallel to normal, retrying",
				zap.Int("attempt", i+1))
			continue
		}
		u := normal.Cross(r)
		v := normal.Cross(u)
		return origin, geom.Translate(origin, u), geom.Translate(origin, v), nil
	}
	return p1, p2, p3, fmt.Errorf("plane normal %v after %d draws: %w",
		normal, q.opts.MaxBasisRetries, ErrDegenerateBasis)
}

// IntersectPlaneFrame returns the points where the plane given by a frame
// meets the solid's edges.
func (q *Querier) IntersectPlaneFrame(s kernel.Solid, origin geom.Point, axisX, axisY geom.Vector) []geom.Point {
	p1, p2, p3 := q.PlaneFromFrame(origin, axisX, axisY)
	return q.kernel.IntersectPlane(s, p1, p2, p3)
}

// IntersectPlaneNormal returns the points where the plane through origin
// with the given normal meets the solid's edges.
func (q *Querier) IntersectPlaneNormal(s kernel.Solid, origin geom.Point, normal geom.Vector) ([]geom.Point, error) {
	p1, p2, p3, err := q.PlaneFromNormal(origin, normal)
	if err != nil {
		return nil, err
	}
	return q.kernel.IntersectPlane(s, p1, p2, p3), nil
}

// IntersectPlaneFacesFrame is IntersectPlaneFrame grouped by face.
func (q *Querier) IntersectPlaneFacesFrame(s kernel.Solid, origin geom.Point, axisX, axisY geom.Vector) [][]geom.Point {
	p1, p2, p3 := q.PlaneFromFrame(origin, axisX, axisY)
	return q.kernel.IntersectPlaneFaces(s, p1, p2, p3)
}

// IntersectPlaneFacesNormal is IntersectPlaneNormal grouped by face.
func (q *Querier) IntersectPlaneFacesNormal(s kernel.Solid, origin geom.Point, normal geom.Vector) ([][]geom.Point, error) {
	p1, p2, p3, err := q.PlaneFromNormal(origin, normal)
	if err != nil {
		return nil, err
	}
	return q.kernel.IntersectPlaneFaces(s, p1, p2, p3), nil
}
