package query

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/polytope"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedKernel returns canned answers and records what it was asked.
type scriptedKernel struct {
	hits     []geom.Point
	segments [][2]geom.Point
	planes   [][3]geom.Point
	solidErr error
}

type nopSolid struct{}

func (nopSolid) BoundingBox() sdf.Box3 { return sdf.Box3{} }

func (k *scriptedKernel) IntersectSegment(_ kernel.Solid, p1, p2 geom.Point) []geom.Point {
	k.segments = append(k.segments, [2]geom.Point{p1, p2})
	return k.hits
}

func (k *scriptedKernel) IntersectPlane(_ kernel.Solid, p1, p2, p3 geom.Point) []geom.Point {
	k.planes = append(k.planes, [3]geom.Point{p1, p2, p3})
	return []geom.Point{p1}
}

func (k *scriptedKernel) IntersectPlaneFaces(_ kernel.Solid, p1, p2, p3 geom.Point) [][]geom.Point {
	k.planes = append(k.planes, [3]geom.Point{p1, p2, p3})
	return [][]geom.Point{{p1, p2}}
}

func (k *scriptedKernel) Faces(kernel.Solid) []kernel.Face { return nil }
func (k *scriptedKernel) Edges(kernel.Solid) []kernel.Edge { return nil }

func (k *scriptedKernel) Solid(kernel.Part, kernel.SolidVariant) (kernel.Solid, error) {
	if k.solidErr != nil {
		return nil, k.solidErr
	}
	return nopSolid{}, nil
}

func (k *scriptedKernel) BooleanOperations(kernel.Part) ([]kernel.BooleanOperation, error) {
	return nil, nil
}

func (k *scriptedKernel) CutSolid(_, _ kernel.Solid) ([]kernel.Shell, error) { return nil, nil }

type stubPart struct{}

func (stubPart) ID() kernel.ID { return "p" }
func (stubPart) Name() string  { return "p" }

type stubCut struct{ typ kernel.OperationType }

func (c stubCut) ID() kernel.ID { return "c" }
func (c stubCut) Type() kernel.OperationType { return c.typ }
func (c stubCut) Operative() kernel.Solid { return nopSolid{} }
func (c stubCut) Father() kernel.Part { return stubPart{} }
func (c stubCut) Children() []kernel.BooleanOperation { return nil }

func TestOptionsDefaults(t *testing.T) {
	q := New(&scriptedKernel{}, WithOptions(Options{RayLength: 50}))
	o := q.Options()
	assert.Equal(t, 50.0, o.RayLength)
	assert.Equal(t, 3, o.RatioDigits)
	assert.Equal(t, geom.Epsilon, o.Tolerance)
	assert.Equal(t, 64, o.MaxBasisRetries)
	assert.Equal(t, DefaultOptions(), New(&scriptedKernel{}).Options())
}

func TestPlaneFromFrame(t *testing.T) {
	q := New(&scriptedKernel{})
	p1, p2, p3 := q.PlaneFromFrame(v3.Vec{X: 1, Y: 2, Z: 3}, v3.Vec{X: 1}, v3.Vec{Y: 2})
	assert.Equal(t, v3.Vec{X: 1, Y: 2, Z: 3}, p1)
	assert.Equal(t, v3.Vec{X: 2, Y: 2, Z: 3}, p2)
	assert.Equal(t, v3.Vec{X: 1, Y: 4, Z: 3}, p3)
}

func TestPlaneFromNormal(t *testing.T) {
	origin := v3.Vec{X: 5, Y: 5, Z: 5}
	normal := v3.Vec{Z: 2}

	t.Run("skips parallel draws", func(t *testing.T) {
		dirs := geom.NewDirections(v3.Vec{Z: 1}, v3.Vec{Z: -1}, v3.Vec{X: 1, Z: 1})
		q := New(&scriptedKernel{}, WithRand(dirs))
		p1, p2, p3, err := q.PlaneFromNormal(origin, normal)
		require.NoError(t, err)
		assert.Equal(t, origin, p1)

		u, v := p2.Sub(p1), p3.Sub(p1)
		assert.Positive(t, u.Length())
		assert.Positive(t, v.Length())
		assert.InDelta(t, 0, u.Dot(normal), 1e-9)
		assert.InDelta(t, 0, v.Dot(normal), 1e-9)
		assert.InDelta(t, 0, u.Dot(v), 1e-9)
	})

	t.Run("zero normal", func(t *testing.T) {
		q := New(&scriptedKernel{})
		_, _, _, err := q.PlaneFromNormal(origin, v3.Vec{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		dirs := geom.NewDirections(v3.Vec{Z: 1})
		q := New(&scriptedKernel{}, WithRand(dirs), WithOptions(Options{MaxBasisRetries: 3}))
		_, _, _, err := q.PlaneFromNormal(origin, normal)
		assert.ErrorIs(t, err, ErrDegenerateBasis)
	})

	t.Run("adapters forward the derived plane", func(t *testing.T) {
		k := &scriptedKernel{}
		q := New(k, WithRand(geom.NewDirections(v3.Vec{X: 1})))
		pts, err := q.IntersectPlaneNormal(nopSolid{}, origin, normal)
		require.NoError(t, err)
		assert.Equal(t, []geom.Point{origin}, pts)

		loops, err := q.IntersectPlaneFacesNormal(nopSolid{}, origin, normal)
		require.NoError(t, err)
		assert.Len(t, loops, 1)

		q.IntersectPlaneFrame(nopSolid{}, origin, v3.Vec{X: 1}, v3.Vec{Y: 1})
		q.IntersectPlaneFacesFrame(nopSolid{}, origin, v3.Vec{X: 1}, v3.Vec{Y: 1})
		require.Len(t, k.planes, 4)
		for _, pl := range k.planes {
			assert.Equal(t, origin, pl[0])
		}
	})

	t.Run("adapter reports basis errors", func(t *testing.T) {
		q := New(&scriptedKernel{})
		_, err := q.IntersectPlaneNormal(nopSolid{}, origin, v3.Vec{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = q.IntersectPlaneFacesNormal(nopSolid{}, origin, v3.Vec{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestIsInsideScripted(t *testing.T) {
	ray := geom.NewDirections(v3.Vec{X: 1})

	tests := []struct {
		name string
		hits []geom.Point
		want bool
	}{
		{name: "no hits", want: false},
		{name: "one forward hit", hits: []geom.Point{{X: 5}}, want: true},
		{name: "two forward hits", hits: []geom.Point{{X: 5}, {X: 9}}, want: false},
		{name: "hit behind the point", hits: []geom.Point{{X: -5}}, want: false},
		{name: "hit off the ray", hits: []geom.Point{{X: 5, Y: 1}}, want: false},
		{name: "hit past the ray end", hits: []geom.Point{{X: 2000}}, want: false},
		{name: "hit closer than a rounding step", hits: []geom.Point{{X: 0.2}}, want: true},
		{name: "point on the boundary", hits: []geom.Point{{}, {X: 5}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &scriptedKernel{hits: tt.hits}
			q := New(k, WithRand(ray))
			assert.Equal(t, tt.want, q.IsInside(v3.Vec{}, nopSolid{}))
			require.Len(t, k.segments, 1)
			assert.Equal(t, v3.Vec{X: 1000}, k.segments[0][1])
		})
	}
}

func TestIsInsideOblique(t *testing.T) {
	ray := geom.NewDirections(v3.Vec{X: 1, Y: 2, Z: -2})
	// The ray is (1000/3)(1, 2, -2).
	k := &scriptedKernel{hits: []geom.Point{{X: 1, Y: 2, Z: -2}}}
	q := New(k, WithRand(ray))
	assert.True(t, q.IsInside(v3.Vec{}, nopSolid{}))

	k.hits = []geom.Point{{X: 1, Y: 2, Z: 2}}
	assert.False(t, q.IsInside(v3.Vec{}, nopSolid{}))
}

func TestIsInsidePolytope(t *testing.T) {
	q := New(polytope.New(), WithRand(geom.NewRand(7)))
	b := polytope.Box("b", v3.Vec{X: 10, Y: 10, Z: 10})

	tests := []struct {
		name  string
		point v3.Vec
		want  bool
	}{
		{name: "centre", point: v3.Vec{X: 5, Y: 5, Z: 5}, want: true},
		{name: "near a face", point: v3.Vec{X: 9.9, Y: 5, Z: 5}, want: true},
		{name: "outside", point: v3.Vec{X: 15, Y: 5, Z: 5}, want: false},
		{name: "far outside", point: v3.Vec{X: -100, Y: -100, Z: -100}, want: false},
		{name: "on a face", point: v3.Vec{X: 0, Y: 5, Z: 5}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				assert.Equal(t, tt.want, q.IsInside(tt.point, b), "draw %d", i)
			}
		})
	}
}

// plate is a 100 x 50 x 20 body with the given operations.
func plate(ops ...*polytope.Operation) *polytope.Part {
	p := polytope.NewPart("plate", "plate", polytope.Box("plate", v3.Vec{X: 100, Y: 50, Z: 20}))
	for _, o := range ops {
		p.AddOperation(o)
	}
	return p
}

func op(id string, typ kernel.OperationType, min, max v3.Vec) *polytope.Operation {
	return polytope.NewOperation(kernel.ID(id), typ,
		polytope.Box(kernel.ID(id), max.Sub(min), polytope.At(min)))
}

func cut(id string, min, max v3.Vec) *polytope.Operation {
	return op(id, kernel.Cut, min, max)
}

func TestCutLocation(t *testing.T) {
	tests := []struct {
		name     string
		min, max v3.Vec
		want     Location
	}{
		{
			name: "notch on one edge",
			min:  v3.Vec{X: 40, Y: -10, Z: 10},
			max:  v3.Vec{X: 60, Y: 10, Z: 30},
			want: Edge,
		},
		{
			name: "corner",
			min:  v3.Vec{X: -10, Y: -10, Z: 10},
			max:  v3.Vec{X: 10, Y: 10, Z: 30},
			want: Corner,
		},
		{
			name: "pocket",
			min:  v3.Vec{X: 40, Y: 20, Z: 5},
			max:  v3.Vec{X: 60, Y: 30, Z: 15},
			want: Internal,
		},
		{
			name: "slot across two edges",
			min:  v3.Vec{X: 40, Y: -10, Z: 15},
			max:  v3.Vec{X: 60, Y: 60, Z: 30},
			want: Edge,
		},
		{
			name: "tool clear of the body",
			min:  v3.Vec{X: 200, Y: 200, Z: 200},
			max:  v3.Vec{X: 210, Y: 210, Z: 210},
			want: Internal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cut("c", tt.min, tt.max)
			plate(c)
			q := New(polytope.New(), WithRand(geom.NewRand(3)))
			got, err := q.CutLocation(c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestCutLocationDiagonal(t *testing.T) {
	// A 4 mm slot turned 45 degrees about Z near the corner at (0, 0, 20).
	// Its width runs along the diagonal (1, 1, 0)/sqrt2.
	size := v3.Vec{X: 4, Y: 40, Z: 15}
	tests := []struct {
		name string
		at   v3.Vec
		want Location
	}{
		{
			// 4 to 8 mm out along the diagonal: both top edges, not the corner.
			name: "across both top edges",
			at:   v3.Vec{X: 12 * math.Sqrt2, Y: -8 * math.Sqrt2, Z: 15},
			want: Edge,
		},
		{
			// Straddles the corner and reaches down the vertical edge too.
			name: "over the corner",
			at:   v3.Vec{X: 9 * math.Sqrt2, Y: -11 * math.Sqrt2, Z: 15},
			want: Corner,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := polytope.NewOperation("slot", kernel.Cut,
				polytope.Box("slot", size, polytope.At(tt.at), polytope.Rotate(v3.Vec{Z: 45})))
			plate(c)
			for seed := uint64(1); seed <= 5; seed++ {
				q := New(polytope.New(), WithRand(geom.NewRand(seed)))
				got, err := q.CutLocation(c)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got, "seed %d: got %s", seed, got)
			}
		})
	}
}

func TestCutLocationErrors(t *testing.T) {
	q := New(&scriptedKernel{})
	_, err := q.CutLocation(stubCut{typ: kernel.Add})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = q.CutLocation(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	boom := errors.New("boom")
	q = New(&scriptedKernel{solidErr: boom})
	_, err = q.CutLocation(stubCut{typ: kernel.Cut})
	assert.ErrorIs(t, err, boom)

	unattached := cut("loose", v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1})
	_, err = New(polytope.New()).CutLocation(unattached)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "internal", Internal.String())
	assert.Equal(t, "edge", Edge.String())
	assert.Equal(t, "corner", Corner.String())
	assert.Equal(t, "Location(9)", Location(9).String())

	text, err := Corner.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "corner", string(text))
}

func ids(ops []kernel.BooleanOperation) []kernel.ID {
	out := make([]kernel.ID, 0, len(ops))
	for _, o := range ops {
		out = append(out, o.ID())
	}
	return out
}

func TestRedundantCuts(t *testing.T) {
	q := New(polytope.New())

	t.Run("tool clear of the body", func(t *testing.T) {
		p := plate(
			cut("notch", v3.Vec{X: 40, Y: -10, Z: 10}, v3.Vec{X: 60, Y: 10, Z: 30}),
			cut("far", v3.Vec{X: 200, Y: 200, Z: 200}, v3.Vec{X: 210, Y: 210, Z: 210}),
		)
		got, err := q.RedundantCuts(p)
		require.NoError(t, err)
		assert.Equal(t, []kernel.ID{"far"}, ids(got))
	})

	t.Run("every cut useful", func(t *testing.T) {
		p := plate(
			cut("a", v3.Vec{X: -10, Y: -10, Z: 10}, v3.Vec{X: 10, Y: 10, Z: 30}),
			cut("b", v3.Vec{X: 40, Y: 20, Z: 5}, v3.Vec{X: 60, Y: 30, Z: 15}),
		)
		got, err := q.RedundantCuts(p)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cut swallowed by a later cut is kept", func(t *testing.T) {
		p := plate(
			cut("small", v3.Vec{X: 45, Y: -5, Z: 15}, v3.Vec{X: 55, Y: 5, Z: 25}),
			cut("big", v3.Vec{X: 40, Y: -10, Z: 10}, v3.Vec{X: 60, Y: 10, Z: 30}),
		)
		got, err := q.RedundantCuts(p)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cut inside material removed by a plane cut", func(t *testing.T) {
		p := plate(cut("lost", v3.Vec{X: 92, Y: 20, Z: 5}, v3.Vec{X: 98, Y: 30, Z: 15}))
		p.AddPlaneCut(polytope.NewPlane("trim", v3.Vec{X: 90}, v3.Vec{X: 1}))
		got, err := q.RedundantCuts(p)
		require.NoError(t, err)
		assert.Equal(t, []kernel.ID{"lost"}, ids(got))
	})

	t.Run("tool resting on the body", func(t *testing.T) {
		p := plate(
			cut("flush", v3.Vec{X: 40, Y: 20, Z: 20}, v3.Vec{X: 60, Y: 30, Z: 30}),
			cut("end", v3.Vec{X: 100, Y: -5, Z: -5}, v3.Vec{X: 110, Y: 5, Z: 5}),
		)
		got, err := q.RedundantCuts(p)
		require.NoError(t, err)
		assert.Equal(t, []kernel.ID{"flush", "end"}, ids(got))
	})

	t.Run("add on the tool leaves the trace", func(t *testing.T) {
		c := cut("reach", v3.Vec{X: 200, Y: 200, Z: 200}, v3.Vec{X: 210, Y: 210, Z: 210})
		c.AddChild(op("arm", kernel.Add, v3.Vec{X: 40, Y: -10, Z: 10}, v3.Vec{X: 60, Y: 10, Z: 30}))
		got, err := q.RedundantCuts(plate(c))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("adds are skipped", func(t *testing.T) {
		p := plate(op("boss", kernel.Add, v3.Vec{X: 200, Y: 200, Z: 200}, v3.Vec{X: 210, Y: 210, Z: 210}))
		got, err := q.RedundantCuts(p)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("kernel errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := New(&scriptedKernel{solidErr: boom}).RedundantCuts(stubPart{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil part", func(t *testing.T) {
		_, err := q.RedundantCuts(nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}
