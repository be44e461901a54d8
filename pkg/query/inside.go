package query

import (
	"math"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"go.uber.org/zap"
)

// IsInside reports whether point lies in the solid's material, by parity of
// boundary crossings along a random ray. A point on the boundary counts as
// inside.
func (q *Querier) IsInside(point geom.Point, s kernel.Solid) bool {
	ray := q.rand.UnitVector().MulScalar(q.opts.RayLength)
	hits := q.kernel.IntersectSegment(s, point, geom.Translate(point, ray))

	count := 0
	for _, x := range hits {
		if geom.Coincident(x, point, q.opts.Tolerance) {
			q.logger.Debug("point on boundary", zap.Any("point", point))
			return true
		}
		if q.forward(point, ray, x) {
			count++
		}
	}
	q.logger.Debug("ray cast",
		zap.Int("hits", len(hits)),
		zap.Int("forward", count))
	return count%2 == 1
}

// forward reports whether x lies on the ray from point along ray: the
// per-axis ratios of x - point to ray agree at RatioDigits and fall in
// (0, 1].
func (q *Querier) forward(point geom.Point, ray geom.Vector, x geom.Point) bool {
	d := x.Sub(point)
	ds := [3]float64{d.X, d.Y, d.Z}
	vs := [3]float64{ray.X, ray.Y, ray.Z}

	var raw, rounded float64
	have := false
	for i := range ds {
		if math.Abs(vs[i]) < q.opts.Tolerance {
			if math.Abs(ds[i]) > q.opts.Tolerance {
				return false
			}
			continue
		}
		r := ds[i] / vs[i]
		if have && geom.Round(r, q.opts.RatioDigits) != rounded {
			return false
		}
		raw, rounded, have = r, geom.Round(r, q.opts.RatioDigits), true
	}
	// The range is checked unrounded: a hit closer than one rounding step
	// is still ahead of the point.
	return have && raw > 0 && raw <= 1+q.opts.Tolerance
}
