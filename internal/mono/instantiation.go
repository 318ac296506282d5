// Package mono discovers every concrete instantiation of the generic
// entities reachable from the exported surface and replaces them with
// monomorphized copies carrying mangled names.
package mono

import (
	"strings"

	"github.com/defermelowie/cbindgen/internal/ir"
)

// Key is a comparable instantiation key.
//
// Note: Go maps cannot use slices as keys, so the normalized type
// arguments are flattened into a stable ArgsKey string; the structured
// arguments live in the Entry.
type Key struct {
	Name    string // canonical name of the generic entity
	ArgsKey string
}

// Entry is one deduplicated instantiation: a distinct argument tuple maps
// to exactly one synthesized entity.
type Entry struct {
	Key      Key
	TypeArgs []ir.TypeRef
	Mangled  string
	Entity   *ir.Entity
}

// argsKey produces the stable key for an argument tuple.
func argsKey(args []ir.TypeRef) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte('#')
		}
		b.WriteString(arg.Key())
	}
	return b.String()
}

// instantiationMap tracks all instantiations of one invocation. The cache
// is scoped to a single Library; nothing survives across invocations.
type instantiationMap struct {
	entries map[Key]*Entry
	// mangled maps synthesized export names back to the key that produced
	// them, to detect collisions between distinct argument tuples.
	mangled map[string]Key
}

func newInstantiationMap() *instantiationMap {
	return &instantiationMap{
		entries: make(map[Key]*Entry),
		mangled: make(map[string]Key),
	}
}
