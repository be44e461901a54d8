package geom

import (
	"math/rand/v2"
)

// Rand is a seedable source of random directions. It is not safe for
// concurrent use; each owner keeps its own.
type Rand struct {
	r *rand.Rand
}

// NewRand returns a Rand seeded deterministically from seed.
func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// UnitVector returns a direction uniformly distributed on the unit sphere.
func (r *Rand) UnitVector() Vector {
	for {
		v := Vector{X: r.r.NormFloat64(), Y: r.r.NormFloat64(), Z: r.r.NormFloat64()}
		// Gaussian components normalised give a uniform direction; a vector this
		// short would lose precision when normalised.
		if l := v.Length(); l > 1e-9 {
			return v.DivScalar(l)
		}
	}
}

// Directions yields unit vectors from a fixed list. It exists so callers can
// force specific ray and basis directions.
type Directions struct {
	dirs []Vector
	next int
}

// NewDirections returns a source cycling through dirs. dirs must not be
// empty.
func NewDirections(dirs ...Vector) *Directions {
	return &Directions{dirs: dirs}
}

// UnitVector returns the next direction, normalised.
func (d *Directions) UnitVector() Vector {
	v := d.dirs[d.next%len(d.dirs)]
	d.next++
	return v.Normalize()
}

// DirectionSource produces unit vectors.
type DirectionSource interface {
	UnitVector() Vector
}

var (
	_ DirectionSource = (*Rand)(nil)
	_ DirectionSource = (*Directions)(nil)
)
