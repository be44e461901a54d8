package scene

import (
	"errors"
	"fmt"

	"github.com/chazu/kerf/pkg/kernel"
)

// ErrDuplicateName is returned when a part name is already taken.
var ErrDuplicateName = errors.New("scene: duplicate name")

// Scene is the output of one evaluation. It is never mutated after the
// engine returns it; each evaluation produces a new scene.
type Scene struct {
	Parts     []*PartSpec          `json:"parts" yaml:"parts"`
	NameIndex map[string]kernel.ID `json:"name_index" yaml:"-"`
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{NameIndex: make(map[string]kernel.ID)}
}

// AddPart appends p after assigning its ids.
func (s *Scene) AddPart(p *PartSpec) error {
	if _, ok := s.NameIndex[p.Name]; ok {
		return fmt.Errorf("part %q: %w", p.Name, ErrDuplicateName)
	}
	p.AssignIDs()
	s.Parts = append(s.Parts, p)
	s.NameIndex[p.Name] = p.ID
	return nil
}

// Lookup returns the part with the given name, or nil.
func (s *Scene) Lookup(name string) *PartSpec {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Get(id)
}

// Get returns the part with the given id, or nil.
func (s *Scene) Get(id kernel.ID) *PartSpec {
	for _, p := range s.Parts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PartCount returns the number of parts.
func (s *Scene) PartCount() int {
	return len(s.Parts)
}
