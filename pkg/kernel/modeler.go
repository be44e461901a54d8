package kernel

// Shape is an opaque handle to a preview solid built by a Modeler.
type Shape interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Modeler builds preview geometry for rendering. It is separate from Kernel:
// a Modeler needs no B-rep, only constructive operations and a mesher.
type Modeler interface {
	// Primitives
	Box(x, y, z float64) Shape

	// Boolean operations
	Union(a, b Shape) Shape
	Difference(a, b Shape) Shape

	// Transforms
	Translate(s Shape, x, y, z float64) Shape
	Rotate(s Shape, x, y, z float64) Shape // Euler angles in degrees

	// Mesh output
	ToMesh(s Shape) (*Mesh, error)
}
