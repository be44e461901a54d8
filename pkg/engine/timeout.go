package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/kerf/pkg/scene"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script is still running at the limit.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned when a newer Evaluate call started while
	// this one was running.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// generations numbers Evaluate calls. Only the latest call may report.
type generations struct {
	mu      sync.Mutex
	current uint64
}

func (g *generations) next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current++
	return g.current
}

func (g *generations) latest(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen == g.current
}

// await blocks until evaluation gen delivers on ch or limit passes. A
// goroutine still running at the limit is abandoned; whatever it sends later
// goes to a buffered channel nobody reads.
func await(ch <-chan evalResult, gen uint64, gens *generations, limit time.Duration) (*scene.Scene, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !gens.latest(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
