package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a scene.Vec3.
type sexpVec3 struct {
	vec scene.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpBox wraps a scene.BoxSpec returned from `box`.
type sexpBox struct {
	spec scene.BoxSpec
}

func (b *sexpBox) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(box %gx%gx%g)", b.spec.Size.X, b.spec.Size.Y, b.spec.Size.Z)
}
func (b *sexpBox) Type() *zygo.RegisteredType { return nil }

// sexpPlaneCut wraps a plane cut returned from `plane-cut`.
type sexpPlaneCut struct {
	spec *scene.PlaneCutSpec
}

func (p *sexpPlaneCut) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(plane-cut %q)", p.spec.Name)
}
func (p *sexpPlaneCut) Type() *zygo.RegisteredType { return nil }

// sexpOp wraps an operation returned from `cut` or `add`.
type sexpOp struct {
	spec *scene.OpSpec
}

func (o *sexpOp) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", o.spec.Kind, o.spec.Name)
}
func (o *sexpOp) Type() *zygo.RegisteredType { return nil }

// sexpPartRef names a part added to the scene by `defpart`.
type sexpPartRef struct {
	id   kernel.ID
	name string
}

func (r *sexpPartRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(part %q)", r.name)
}
func (r *sexpPartRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// unknownKeywords rejects keywords outside allowed.
func (a kwArgs) unknownKeywords(form string, allowed ...string) error {
	for name := range a.kw {
		known := false
		for _, k := range allowed {
			if name == k {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%s: unknown keyword :%s", form, name)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (scene.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return scene.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toBox extracts a BoxSpec from a sexpBox.
func toBox(s zygo.Sexp) (scene.BoxSpec, error) {
	if b, ok := s.(*sexpBox); ok {
		return b.spec, nil
	}
	return scene.BoxSpec{}, fmt.Errorf("expected box, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// flatten expands lists and arrays in args one level so scripts can build
// operation lists with (list ...) or map.
func flatten(args []zygo.Sexp) ([]zygo.Sexp, error) {
	var out []zygo.Sexp
	for _, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(a)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		default:
			out = append(out, a)
		}
	}
	return out, nil
}

// optionalName splits a leading string argument off args.
func optionalName(args []zygo.Sexp) (string, []zygo.Sexp) {
	if len(args) > 0 {
		if s, ok := args[0].(*zygo.SexpStr); ok {
			if _, kw := isKW(s); !kw {
				return s.S, args[1:]
			}
		}
	}
	return "", args
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL builtins into a zygomys
// environment. `defpart` adds parts to s as evaluation proceeds.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: scene.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box :size (vec3 100 50 20) :at (vec3 0 0 0) :rotate (vec3 0 0 90))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKeywords("box", "size", "at", "rotate"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("box takes keyword arguments only")
		}

		var spec scene.BoxSpec
		v, ok := pa.kw["size"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("box requires :size")
		}
		size, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		spec.Size = size

		if v, ok := pa.kw["at"]; ok {
			at, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: at: %w", err)
			}
			spec.At = at
		}
		if v, ok := pa.kw["rotate"]; ok {
			rot, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: rotate: %w", err)
			}
			spec.Rotation = rot
		}

		return &sexpBox{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (plane-cut "trim" :origin (vec3 90 0 0) :normal (vec3 1 0 0))
	//
	// Registered as "plane_cut"; the preprocessor rewrites plane-cut.
	// -----------------------------------------------------------------------
	env.AddFunction("plane_cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		cutName, rest := optionalName(args)
		pa := parseArgs(rest)
		if err := pa.unknownKeywords("plane-cut", "origin", "normal"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("plane-cut: unexpected argument %s", pa.positional[0].SexpString(nil))
		}

		spec := &scene.PlaneCutSpec{Name: cutName}
		v, ok := pa.kw["normal"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("plane-cut requires :normal")
		}
		normal, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane-cut: normal: %w", err)
		}
		spec.Normal = normal

		if v, ok := pa.kw["origin"]; ok {
			origin, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane-cut: origin: %w", err)
			}
			spec.Origin = origin
		}

		return &sexpPlaneCut{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (cut "notch" (box ...) (add "relief" (box ...)) ...)
	// (add "boss" (box ...) (cut ...) ...)
	// -----------------------------------------------------------------------
	for _, kind := range []kernel.OperationType{kernel.Cut, kernel.Add} {
		env.AddFunction(kind.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			return buildOp(kind, args)
		})
	}

	// -----------------------------------------------------------------------
	// (defpart "plate" (box ...) (plane-cut ...) (cut ...) (add ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		body, err := toBox(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart %q: body: %w", partName, err)
		}

		p := &scene.PartSpec{Name: partName, Body: body}
		items, err := flatten(args[2:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart %q: %w", partName, err)
		}
		for i, item := range items {
			switch v := item.(type) {
			case *sexpPlaneCut:
				pc := *v.spec
				p.PlaneCuts = append(p.PlaneCuts, &pc)
			case *sexpOp:
				p.Ops = append(p.Ops, cloneOp(v.spec))
			default:
				return zygo.SexpNull, fmt.Errorf("defpart %q: item %d: expected plane-cut, cut or add, got %T (%s)",
					partName, i+1, item, item.SexpString(nil))
			}
		}

		if err := s.AddPart(p); err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}
		return &sexpPartRef{id: p.ID, name: partName}, nil
	})
}

// buildOp implements `cut` and `add`: an optional name, a tool box, then
// child operations.
func buildOp(kind kernel.OperationType, args []zygo.Sexp) (zygo.Sexp, error) {
	opName, rest := optionalName(args)
	if len(rest) == 0 {
		return zygo.SexpNull, fmt.Errorf("%s requires a tool box", kind)
	}
	tool, err := toBox(rest[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s %q: tool: %w", kind, opName, err)
	}

	spec := &scene.OpSpec{Name: opName, Kind: kind, Tool: tool}
	children, err := flatten(rest[1:])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s %q: %w", kind, opName, err)
	}
	for i, c := range children {
		child, ok := c.(*sexpOp)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s %q: child %d: expected cut or add, got %T (%s)",
				kind, opName, i+1, c, c.SexpString(nil))
		}
		spec.Children = append(spec.Children, child.spec)
	}
	return &sexpOp{spec: spec}, nil
}

// cloneOp deep-copies an operation tree. A value bound with def can be used
// by several parts, and each part assigns its own ids.
func cloneOp(op *scene.OpSpec) *scene.OpSpec {
	c := *op
	c.Children = make([]*scene.OpSpec, len(op.Children))
	for i, child := range op.Children {
		c.Children[i] = cloneOp(child)
	}
	return &c
}
