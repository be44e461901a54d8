package query

import (
	"fmt"

	"github.com/chazu/kerf/pkg/kernel"
	"go.uber.org/zap"
)

// RedundantCuts returns the part's direct cut operations that leave no face
// on the finished part and none when applied alone to the plane-cut body.
// Add operations are never reported. Order follows the part's operations.
func (q *Querier) RedundantCuts(part kernel.Part) ([]kernel.BooleanOperation, error) {
	if part == nil {
		return nil, fmt.Errorf("redundant cuts: no part: %w", ErrInvalidArgument)
	}
	full, err := q.kernel.Solid(part, kernel.Default)
	if err != nil {
		return nil, fmt.Errorf("redundant cuts of %q: %w", part.Name(), err)
	}
	trimmed, err := q.kernel.Solid(part, kernel.PlaneCutOnly)
	if err != nil {
		return nil, fmt.Errorf("redundant cuts of %q: %w", part.Name(), err)
	}
	ops, err := q.kernel.BooleanOperations(part)
	if err != nil {
		return nil, fmt.Errorf("redundant cuts of %q: %w", part.Name(), err)
	}

	present := provenanceSet(q.kernel.Faces(full))

	var redundant []kernel.BooleanOperation
	for _, op := range ops {
		if op.Type() != kernel.Cut {
			continue
		}
		ids := traceIDs(op)
		log := q.logger.With(zap.String("cut", string(op.ID())))

		if present.any(ids) {
			log.Debug("cut leaves faces on the part")
			continue
		}

		shells, err := q.kernel.CutSolid(trimmed, op.Operative())
		if err != nil {
			return nil, fmt.Errorf("redundant cuts of %q: cut %s alone: %w", part.Name(), op.ID(), err)
		}
		alone := false
		for _, sh := range shells {
			if provenanceSet(sh.Faces).any(ids) {
				alone = true
				break
			}
		}
		if alone {
			log.Debug("cut shadowed on the part but not alone")
			continue
		}
		log.Debug("cut is redundant")
		redundant = append(redundant, op)
	}
	return redundant, nil
}

// traceIDs returns the provenance identifiers a cut can leave behind: its
// own and those of the add operations layered on its tool.
func traceIDs(op kernel.BooleanOperation) map[kernel.ID]bool {
	ids := map[kernel.ID]bool{op.ID(): true}
	for _, c := range op.Children() {
		if c.Type() == kernel.Add {
			ids[c.ID()] = true
		}
	}
	return ids
}

type idSet map[kernel.ID]bool

func provenanceSet(faces []kernel.Face) idSet {
	s := make(idSet, len(faces))
	for _, f := range faces {
		s[f.Provenance] = true
	}
	return s
}

func (s idSet) any(ids map[kernel.ID]bool) bool {
	for id := range ids {
		if s[id] {
			return true
		}
	}
	return false
}
