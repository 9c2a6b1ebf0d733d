// Package schema translates OGC process and collection schema fragments into
// the parameter schemas attached to callable operations, and derives stable
// operation names from process identifiers.
package schema

import (
	"fmt"
	"strings"
)

// operationPrefix is prepended to every synthesized process operation name.
const operationPrefix = "execute_"

// Slug lowers an identifier and collapses every run of non-alphanumeric
// characters into a single underscore. Leading and trailing separators are
// trimmed: "Cool--Spot.demo" -> "cool_spot_demo".
func Slug(id string) string {
	var b strings.Builder
	b.Grow(len(id))

	pendingSep := false
	for _, r := range strings.ToLower(id) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}

	return b.String()
}

// Namer assigns unique operation names for a sequence of process identifiers.
// Callers must feed identifiers in a deterministic order (the discoverer sorts
// processes lexicographically by ID); the first identifier slugging to a name
// keeps it, later ones receive numeric suffixes (_2, _3, ...). Feeding the
// same ordered identifier set always yields the same names.
type Namer struct {
	taken map[string]bool
}

// NewNamer creates an empty Namer.
func NewNamer() *Namer {
	return &Namer{taken: make(map[string]bool)}
}

// Reserve marks a name as taken so no synthesized operation can claim it.
// Used to keep built-in operation names out of the dynamic namespace.
func (n *Namer) Reserve(name string) {
	n.taken[name] = true
}

// OperationName returns the unique operation name for a process identifier.
// Every returned name, suffixed or not, is claimed, so a later identifier
// slugging directly to a suffixed form ("buffer-2" after "buffer"/"buffer!")
// still gets a name of its own.
func (n *Namer) OperationName(processID string) string {
	slug := Slug(processID)
	if slug == "" {
		slug = "process"
	}
	base := operationPrefix + slug

	if !n.taken[base] {
		n.taken[base] = true
		return base
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !n.taken[candidate] {
			n.taken[candidate] = true
			return candidate
		}
	}
}
