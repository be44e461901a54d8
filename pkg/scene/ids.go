package scene

import (
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/google/uuid"
)

// namespace scopes scene ids so the same path always yields the same id.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("kerf:scene"))

// NewID returns the content-addressed id for an element at path, e.g.
// "part/plate/cut/notch".
func NewID(path string) kernel.ID {
	return kernel.ID(uuid.NewSHA1(namespace, []byte(path)).String())
}

// Short returns the first eight characters of id, for messages.
func Short(id kernel.ID) string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}
