// Package tessellate walks a scene and produces triangle meshes using a
// preview modeler. One mesh is produced per part.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/scene"
)

// Tessellate builds every part of the scene with m and meshes it. Plane
// cuts are applied to the body first, then the operations in order, the
// same order the query kernel evaluates the Default solid in. The scene is
// never mutated.
func Tessellate(s *scene.Scene, m kernel.Modeler) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	meshes := make([]*kernel.Mesh, 0, len(s.Parts))
	for _, p := range s.Parts {
		mesh, err := m.ToMesh(buildPart(m, p))
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for part %s: %w", scene.Short(p.ID), err)
		}

		// Set the part name: prefer the PartSpec Name, fall back to short ID.
		if p.Name != "" {
			mesh.PartName = p.Name
		} else {
			mesh.PartName = scene.Short(p.ID)
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func buildPart(m kernel.Modeler, p *scene.PartSpec) kernel.Shape {
	shape := buildBox(m, p.Body)
	reach := halfSpaceSize(p)
	for _, pc := range p.PlaneCuts {
		shape = m.Difference(shape, halfSpace(m, pc, reach))
	}
	for _, op := range p.Ops {
		shape = applyOp(m, shape, op)
	}
	return shape
}

// applyOp runs op against base: the tool, with its children applied, is
// subtracted for a cut and unioned for an add.
func applyOp(m kernel.Modeler, base kernel.Shape, op *scene.OpSpec) kernel.Shape {
	tool := buildBox(m, op.Tool)
	for _, c := range op.Children {
		tool = applyOp(m, tool, c)
	}
	if op.Kind == kernel.Add {
		return m.Union(base, tool)
	}
	return m.Difference(base, tool)
}

// buildBox places a box the way the polytope kernel does: rotated about its
// minimum corner, then moved to At.
func buildBox(m kernel.Modeler, b scene.BoxSpec) kernel.Shape {
	shape := m.Box(b.Size.X, b.Size.Y, b.Size.Z)
	if b.Rotated() {
		shape = m.Rotate(shape, b.Rotation.X, b.Rotation.Y, b.Rotation.Z)
	}
	if !b.At.IsZero() {
		shape = m.Translate(shape, b.At.X, b.At.Y, b.At.Z)
	}
	return shape
}

// halfSpace approximates the material a plane cut removes with a cube of
// edge size lying on the normal side of the plane. The cube is built along
// +Z, centred on the Z axis, then turned so +Z maps onto the normal.
func halfSpace(m kernel.Modeler, pc *scene.PlaneCutSpec, size float64) kernel.Shape {
	n := pc.Normal.Vector().Normalize()
	tilt := math.Acos(math.Max(-1, math.Min(1, n.Z))) * 180 / math.Pi
	heading := math.Atan2(n.Y, n.X) * 180 / math.Pi

	shape := m.Box(size, size, size)
	shape = m.Translate(shape, -size/2, -size/2, 0)
	shape = m.Rotate(shape, 0, tilt, heading)
	return m.Translate(shape, pc.Origin.X, pc.Origin.Y, pc.Origin.Z)
}

// halfSpaceSize returns a cube edge long enough to cover everything a plane
// cut of p can reach.
func halfSpaceSize(p *scene.PartSpec) float64 {
	extent := p.Body.At.Vector().Length() + p.Body.Size.Vector().Length()
	for _, op := range p.Ops {
		extent = math.Max(extent, op.Tool.At.Vector().Length()+op.Tool.Size.Vector().Length())
	}
	for _, pc := range p.PlaneCuts {
		extent = math.Max(extent, pc.Origin.Vector().Length())
	}
	return 4*extent + 1
}
