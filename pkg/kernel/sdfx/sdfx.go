// Package sdfx implements the kernel.Modeler preview contract using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Modeler = (*Modeler)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// sdfxShape wraps an sdf.SDF3 to implement kernel.Shape.
type sdfxShape struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxShape) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Modeler implements kernel.Modeler using sdfx.
type Modeler struct {
	cells int
}

// Option configures a Modeler.
type Option func(*Modeler)

// WithCells sets the marching cubes resolution along the longest axis.
func WithCells(n int) Option {
	return func(m *Modeler) {
		if n > 0 {
			m.cells = n
		}
	}
}

// New returns a new Modeler.
func New(opts ...Option) *Modeler {
	m := &Modeler{cells: defaultMeshCells}
	for _, o := range opts {
		o(m)
	}
	return m
}

func unwrap(s kernel.Shape) sdf.SDF3 {
	return s.(*sdfxShape).s
}

func wrap(s sdf.SDF3) kernel.Shape {
	return &sdfxShape{s: s}
}

// Box creates a box with its minimum corner at the origin, matching the
// placement convention of the polytope kernel. sdf.Box3D centers the box at
// the origin, so it is shifted by half its size.
func (m *Modeler) Box(x, y, z float64) kernel.Shape {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	t := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, t))
}

// Union returns the union of two shapes.
func (m *Modeler) Union(a, b kernel.Shape) kernel.Shape {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns a - b.
func (m *Modeler) Difference(a, b kernel.Shape) kernel.Shape {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Translate moves a shape by (x, y, z).
func (m *Modeler) Translate(s kernel.Shape, x, y, z float64) kernel.Shape {
	t := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), t))
}

// Rotate rotates a shape by Euler angles (degrees), X first, then Y, then Z.
func (m *Modeler) Rotate(s kernel.Shape, x, y, z float64) kernel.Shape {
	r := sdf.RotateZ(z * math.Pi / 180).
		Mul(sdf.RotateY(y * math.Pi / 180)).
		Mul(sdf.RotateX(x * math.Pi / 180))
	return wrap(sdf.Transform3D(unwrap(s), r))
}

// ToMesh converts a shape to a triangle mesh using marching cubes.
func (m *Modeler) ToMesh(s kernel.Shape) (*kernel.Mesh, error) {
	renderer := render.NewMarchingCubesUniform(m.cells)
	triangles := render.ToTriangles(unwrap(s), renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
