package ir

import (
	"github.com/defermelowie/cbindgen/internal/diag"
)

// Library is the top-level owned collection of IR entities for one
// invocation. It owns every Entity; TypeRefs resolve against it by name.
// A Library is confined to a single invocation and discarded afterwards.
type Library struct {
	entities map[string]*Entity
	order    []string // canonical names in declaration order
}

func NewLibrary() *Library {
	return &Library{
		entities: make(map[string]*Entity),
	}
}

// Add inserts an entity under its canonical name. Duplicate canonical
// names within one invocation are a fatal error.
func (l *Library) Add(e *Entity) error {
	if prev, ok := l.entities[e.Name]; ok {
		return diag.Errorf(diag.StageBuild, diag.BuildDuplicateDeclaration, e.Name,
			"%s %q conflicts with earlier %s declaration", e.Kind, e.Name, prev.Kind)
	}
	l.entities[e.Name] = e
	l.order = append(l.order, e.Name)
	return nil
}

// Lookup resolves a canonical name to its entity.
func (l *Library) Lookup(name string) (*Entity, bool) {
	e, ok := l.entities[name]
	return e, ok
}

// Remove drops an entity. Unknown names are ignored.
func (l *Library) Remove(name string) {
	if _, ok := l.entities[name]; !ok {
		return
	}
	delete(l.entities, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Entities returns all entities in declaration order. Synthesized entities
// appear after the declaration they were instantiated from was added.
func (l *Library) Entities() []*Entity {
	out := make([]*Entity, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.entities[name])
	}
	return out
}

func (l *Library) Len() int {
	return len(l.order)
}

// Merge moves every entity of other into l, preserving other's declaration
// order after l's. Used when several crates feed one invocation; duplicate
// canonical names across crates are as fatal as within one.
func (l *Library) Merge(other *Library) error {
	for _, e := range other.Entities() {
		if err := l.Add(e); err != nil {
			return err
		}
	}
	return nil
}
