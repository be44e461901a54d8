package scene

import (
	"fmt"

	"github.com/chazu/kerf/pkg/kernel"
)

// ValidationSeverity indicates whether a finding blocks the pipeline or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ID       kernel.ID          // element with the problem (empty if scene-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, Short(e.ID), e.Message)
}

// Errors returns the findings with error severity.
func Errors(findings []ValidationError) []ValidationError {
	var errs []ValidationError
	for _, f := range findings {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		}
	}
	return errs
}

// Validate checks the scene and returns its findings. An empty slice means
// the scene is valid. It never mutates the scene.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validatePartNames(s)...)
	for _, p := range s.Parts {
		errs = append(errs, validateSizes(p)...)
		errs = append(errs, validatePlaneCuts(p)...)
		errs = append(errs, validateOpNames(p)...)
		errs = append(errs, validateNesting(p)...)
		errs = append(errs, validateReach(p)...)
	}
	return errs
}

// validatePartNames checks that part names are non-empty and unique.
func validatePartNames(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)
	for _, p := range s.Parts {
		if p.Name == "" {
			errs = append(errs, ValidationError{
				ID:       p.ID,
				Message:  "part has no name",
				Severity: SeverityError,
			})
			continue
		}
		seen[p.Name]++
		if seen[p.Name] == 2 {
			errs = append(errs, ValidationError{
				ID:       p.ID,
				Message:  fmt.Sprintf("duplicate part name %q", p.Name),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateSizes checks that the body and every tool have positive extents.
func validateSizes(p *PartSpec) []ValidationError {
	var errs []ValidationError
	check := func(id kernel.ID, what string, b BoxSpec) {
		if b.Size.X <= 0 || b.Size.Y <= 0 || b.Size.Z <= 0 {
			errs = append(errs, ValidationError{
				ID:       id,
				Message:  fmt.Sprintf("%s size is %s, every component must be positive", what, b.Size),
				Severity: SeverityError,
			})
		}
	}
	check(p.ID, fmt.Sprintf("part %q body", p.Name), p.Body)
	walkOps(p.Ops, func(op *OpSpec, _ int) {
		check(op.ID, fmt.Sprintf("%s %q tool", op.Kind, op.Name), op.Tool)
	})
	return errs
}

// validatePlaneCuts checks that every plane cut has a usable normal and a
// name unique within the part.
func validatePlaneCuts(p *PartSpec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, pc := range p.PlaneCuts {
		if pc.Name != "" && seen[pc.Name] {
			errs = append(errs, ValidationError{
				ID:       pc.ID,
				Message:  fmt.Sprintf("duplicate plane cut name %q in part %q", pc.Name, p.Name),
				Severity: SeverityError,
			})
		}
		seen[pc.Name] = true
		if pc.Normal.Vector().Length() == 0 {
			errs = append(errs, ValidationError{
				ID:       pc.ID,
				Message:  fmt.Sprintf("plane cut %q has a zero normal", pc.Name),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateOpNames checks that operation names are unique within the part.
func validateOpNames(p *PartSpec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	walkOps(p.Ops, func(op *OpSpec, _ int) {
		if op.Name == "" {
			return
		}
		if seen[op.Name] {
			errs = append(errs, ValidationError{
				ID:       op.ID,
				Message:  fmt.Sprintf("duplicate operation name %q in part %q", op.Name, p.Name),
				Severity: SeverityError,
			})
		}
		seen[op.Name] = true
	})
	return errs
}

// validateNesting checks that child operations carry no children of their
// own.
func validateNesting(p *PartSpec) []ValidationError {
	var errs []ValidationError
	walkOps(p.Ops, func(op *OpSpec, depth int) {
		if depth == 1 && len(op.Children) > 0 {
			errs = append(errs, ValidationError{
				ID:       op.ID,
				Message:  fmt.Sprintf("%s %q nests operations more than one level deep", op.Kind, op.Name),
				Severity: SeverityError,
			})
		}
	})
	return errs
}

// validateReach warns about unrotated cut tools that miss an unrotated body
// entirely. Such cuts are reported redundant.
func validateReach(p *PartSpec) []ValidationError {
	if p.Body.Rotated() {
		return nil
	}
	var warnings []ValidationError
	for _, op := range p.Ops {
		if op.Kind != kernel.Cut || op.Tool.Rotated() || len(op.Children) > 0 {
			continue
		}
		if !boxesOverlap(p.Body, op.Tool) {
			warnings = append(warnings, ValidationError{
				ID:       op.ID,
				Message:  fmt.Sprintf("cut %q does not reach part %q", op.Name, p.Name),
				Severity: SeverityWarning,
			})
		}
	}
	return warnings
}

func boxesOverlap(a, b BoxSpec) bool {
	amin, amax := a.At.Vector(), a.At.Vector().Add(a.Size.Vector())
	bmin, bmax := b.At.Vector(), b.At.Vector().Add(b.Size.Vector())
	return amin.X < bmax.X && bmin.X < amax.X &&
		amin.Y < bmax.Y && bmin.Y < amax.Y &&
		amin.Z < bmax.Z && bmin.Z < amax.Z
}

// walkOps visits ops depth-first with their nesting depth.
func walkOps(ops []*OpSpec, fn func(op *OpSpec, depth int)) {
	var walk func(ops []*OpSpec, depth int)
	walk = func(ops []*OpSpec, depth int) {
		for _, op := range ops {
			fn(op, depth)
			walk(op.Children, depth+1)
		}
	}
	walk(ops, 0)
}
