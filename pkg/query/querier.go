// Package query answers geometric questions about modelled parts on top of
// any kernel.Kernel: point containment, where a cut sits on its part, and
// which cuts removed no material.
package query

import (
	"errors"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"go.uber.org/zap"
)

var (
	// ErrInvalidArgument is returned for arguments a query cannot use, such
	// as a zero normal or a non-cut operation.
	ErrInvalidArgument = errors.New("query: invalid argument")

	// ErrDegenerateBasis is returned when no usable in-plane basis could be
	// drawn within the retry budget.
	ErrDegenerateBasis = errors.New("query: degenerate plane basis")
)

// Options tunes the numeric behaviour of a Querier.
type Options struct {
	// RayLength is the length of the containment test segment.
	RayLength float64
	// RatioDigits is the number of decimal digits the forward-ray filter
	// compares per-axis ratios at.
	RatioDigits int
	// Tolerance is the absolute epsilon for coincidence tests.
	Tolerance float64
	// MaxBasisRetries caps random re-picks when building a plane basis.
	MaxBasisRetries int
}

// DefaultOptions returns the options a Querier uses unless told otherwise.
func DefaultOptions() Options {
	return Options{
		RayLength:       1000,
		RatioDigits:     3,
		Tolerance:       geom.Epsilon,
		MaxBasisRetries: 64,
	}
}

// withDefaults fills unset fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RayLength <= 0 {
		o.RayLength = d.RayLength
	}
	if o.RatioDigits <= 0 {
		o.RatioDigits = d.RatioDigits
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.MaxBasisRetries <= 0 {
		o.MaxBasisRetries = d.MaxBasisRetries
	}
	return o
}

// Querier runs queries against one kernel. It is not safe for concurrent
// use.
type Querier struct {
	kernel kernel.Kernel
	rand   geom.DirectionSource
	logger *zap.Logger
	opts   Options
}

// Option configures a Querier.
type Option func(*Querier)

// WithRand sets the source of random directions. Tests pass a seeded
// geom.Rand or a scripted geom.Directions.
func WithRand(r geom.DirectionSource) Option {
	return func(q *Querier) {
		if r != nil {
			q.rand = r
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(q *Querier) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithOptions replaces the numeric options. Zero fields keep their defaults.
func WithOptions(o Options) Option {
	return func(q *Querier) {
		q.opts = o.withDefaults()
	}
}

// New returns a Querier over k.
func New(k kernel.Kernel, opts ...Option) *Querier {
	q := &Querier{
		kernel: k,
		rand:   geom.NewRand(1),
		logger: zap.NewNop(),
		opts:   DefaultOptions(),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Kernel returns the kernel the Querier runs against.
func (q *Querier) Kernel() kernel.Kernel {
	return q.kernel
}

// Options returns the effective options.
func (q *Querier) Options() Options {
	return q.opts
}
