package polytope

import (
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// gridKey quantises a point so coincident vertices hash together.
type gridKey [3]int64

func (a gridKey) less(b gridKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// key snaps v to a grid ten times coarser than the tolerance.
func (k *Kernel) key(v v3.Vec) gridKey {
	cell := 10 * k.tol
	return gridKey{
		int64(math.Round(v.X / cell)),
		int64(math.Round(v.Y / cell)),
		int64(math.Round(v.Z / cell)),
	}
}

// shells groups facets into connected components. Two facets are connected
// when they share a vertex. Shells are ordered by their first facet.
func (k *Kernel) shells(fs []facet) []kernel.Shell {
	parent := make([]int, len(fs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	owner := make(map[gridKey]int)
	for i, f := range fs {
		for _, v := range f.poly {
			key := k.key(v)
			if j, ok := owner[key]; ok {
				if ri, rj := find(i), find(j); ri != rj {
					parent[ri] = rj
				}
				continue
			}
			owner[key] = i
		}
	}

	index := make(map[int]int)
	var groups [][]facet
	for i, f := range fs {
		r := find(i)
		g, ok := index[r]
		if !ok {
			g = len(groups)
			index[r] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], f)
	}

	shells := make([]kernel.Shell, len(groups))
	for i, g := range groups {
		shells[i] = kernel.Shell{Faces: toFaces(g)}
	}
	return shells
}
