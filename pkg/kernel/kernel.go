// Package kernel defines the contract of the external geometry kernel the
// query layer runs against. The kernel owns solids, parts and boolean
// operation trees; everything handed out through this interface is a
// read-only snapshot for the duration of a query.
//
// Two implementations live below this package: polytope is an in-memory
// B-rep kernel over convex cells, and sdfx provides preview meshing through
// the Modeler contract.
package kernel

import (
	"github.com/chazu/kerf/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
)

// ID is a provenance identifier. Every face carries the ID of the
// operation, primitive or plane cut that produced it.
type ID string

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() sdf.Box3
}

// Edge is a boundary edge of a face loop.
type Edge struct {
	Start geom.Point
	End   geom.Point
}

// Segment returns the edge as a geometric segment.
func (e Edge) Segment() geom.Segment {
	return geom.Segment{P1: e.Start, P2: e.End}
}

// Face is a planar boundary element with its outer loop.
type Face struct {
	Provenance ID
	Loop       []Edge
}

// Shell is a connected set of faces returned by a cut.
type Shell struct {
	Faces []Face
}

// OperationType distinguishes additive from subtractive booleans.
type OperationType int

const (
	Add OperationType = iota
	Cut
)

func (t OperationType) String() string {
	switch t {
	case Add:
		return "add"
	case Cut:
		return "cut"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type by name.
func (t OperationType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// SolidVariant selects which projection of a part's shape the kernel
// returns.
type SolidVariant int

const (
	Default      SolidVariant = iota // all plane cuts and boolean operations applied
	Raw                              // shape before any cut or boolean
	PlaneCutOnly                     // only plane cuts applied, no booleans
)

func (v SolidVariant) String() string {
	switch v {
	case Default:
		return "default"
	case Raw:
		return "raw"
	case PlaneCutOnly:
		return "plane-cut-only"
	default:
		return "unknown"
	}
}

// Part is a modelled part owning a boolean operation tree.
type Part interface {
	ID() ID
	Name() string
}

// BooleanOperation is a node of a part's boolean tree.
type BooleanOperation interface {
	ID() ID
	Type() OperationType
	// Operative returns the tool solid with the operation's own children
	// applied to it.
	Operative() Solid
	// Father returns the part the operation is applied to.
	Father() Part
	// Children returns the operations layered on the tool itself.
	Children() []BooleanOperation
}

// Kernel is the set of primitives the query layer consumes.
type Kernel interface {
	// IntersectSegment returns the set of points where the boundary of s
	// meets the segment p1-p2. Degenerate input yields an empty result.
	IntersectSegment(s Solid, p1, p2 geom.Point) []geom.Point

	// IntersectPlane returns the points where the plane through p1, p2, p3
	// crosses the edges of s.
	IntersectPlane(s Solid, p1, p2, p3 geom.Point) []geom.Point

	// IntersectPlaneFaces is IntersectPlane grouped by face, one point loop
	// per face the plane crosses.
	IntersectPlaneFaces(s Solid, p1, p2, p3 geom.Point) [][]geom.Point

	// Faces returns the boundary faces of s.
	Faces(s Solid) []Face

	// Edges returns the distinct edges of s.
	Edges(s Solid) []Edge

	// Solid returns the requested projection of a part's shape.
	Solid(p Part, v SolidVariant) (Solid, error)

	// BooleanOperations returns the part's direct boolean children in tree
	// order.
	BooleanOperations(p Part) ([]BooleanOperation, error)

	// CutSolid subtracts tool from s and returns the resulting shells.
	CutSolid(s, tool Solid) ([]Shell, error)
}
