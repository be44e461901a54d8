package query

import (
	"fmt"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"go.uber.org/zap"
)

// Location is where a cut sits relative to its part's raw body.
type Location int

const (
	// Internal cuts cross none of the body's edges: pockets, through holes
	// and tools that never reach the body.
	Internal Location = iota
	// Edge cuts cross the body's edges without enclosing a body vertex.
	Edge
	// Corner cuts enclose a vertex shared by the edges they cross.
	Corner
)

func (l Location) String() string {
	switch l {
	case Internal:
		return "internal"
	case Edge:
		return "edge"
	case Corner:
		return "corner"
	default:
		return fmt.Sprintf("Location(%d)", int(l))
	}
}

// MarshalText encodes the location by name.
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// CutLocation classifies a cut by the raw body edges its operative solid
// crosses.
func (q *Querier) CutLocation(cut kernel.BooleanOperation) (Location, error) {
	if cut == nil || cut.Type() != kernel.Cut {
		return Internal, fmt.Errorf("cut location: operation is not a cut: %w", ErrInvalidArgument)
	}
	father := cut.Father()
	if father == nil {
		return Internal, fmt.Errorf("cut location %s: operation has no part: %w", cut.ID(), ErrInvalidArgument)
	}
	raw, err := q.kernel.Solid(father, kernel.Raw)
	if err != nil {
		return Internal, fmt.Errorf("cut location %s: raw solid: %w", cut.ID(), err)
	}

	tool := cut.Operative()
	var crossed []kernel.Edge
	for _, e := range q.kernel.Edges(raw) {
		if len(q.kernel.IntersectSegment(tool, e.Start, e.End)) > 0 {
			crossed = append(crossed, e)
		}
	}

	log := q.logger.With(zap.String("cut", string(cut.ID())))
	log.Debug("edges crossed", zap.Int("count", len(crossed)))

	switch len(crossed) {
	case 0:
		return Internal, nil
	case 1:
		return Edge, nil
	}

	for _, v := range q.sharedVertices(crossed) {
		if q.IsInside(v, tool) {
			log.Debug("tool encloses body vertex", zap.Any("vertex", v))
			return Corner, nil
		}
	}
	return Edge, nil
}

// sharedVertices returns the edge endpoints that belong to more than one
// edge.
func (q *Querier) sharedVertices(edges []kernel.Edge) []geom.Point {
	type vertex struct {
		p     geom.Point
		count int
	}
	var vs []vertex
	add := func(p geom.Point) {
		for i := range vs {
			if geom.Coincident(vs[i].p, p, q.opts.Tolerance) {
				vs[i].count++
				return
			}
		}
		vs = append(vs, vertex{p: p, count: 1})
	}
	for _, e := range edges {
		add(e.Start)
		add(e.End)
	}

	var shared []geom.Point
	for _, v := range vs {
		if v.count > 1 {
			shared = append(shared, v.p)
		}
	}
	return shared
}
