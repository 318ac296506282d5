package mono

import (
	"strings"

	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/ir"
)

// DefaultMaxDepth bounds legitimate deep nesting of generic arguments.
// An instantiation chain deeper than this fails instead of looping.
const DefaultMaxDepth = 32

// Specialize walks the exported surface from its roots (every non-generic
// entity), monomorphizes each generic instantiation it reaches, and drops
// the generic templates. Afterwards every signature in the library refers
// only to concrete entities.
func Specialize(lib *ir.Library, maxDepth int, reporter diag.Reporter) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	eng := &engine{
		lib:      lib,
		reporter: reporter,
		maxDepth: maxDepth,
		insts:    newInstantiationMap(),
		generics: make(map[string]*ir.Entity),
	}

	var roots []*ir.Entity
	for _, e := range lib.Entities() {
		if e.IsGeneric() {
			eng.generics[e.Name] = e
			continue
		}
		roots = append(roots, e)
	}

	for _, root := range roots {
		if err := eng.rewriteEntity(root, nil); err != nil {
			return err
		}
	}

	// Generic templates never reach the emission stream; reachable ones
	// have concrete copies by now and unreachable ones are simply unused.
	for name := range eng.generics {
		lib.Remove(name)
	}
	return nil
}

type engine struct {
	lib      *ir.Library
	reporter diag.Reporter
	maxDepth int
	insts    *instantiationMap
	generics map[string]*ir.Entity
}

// rewriteEntity replaces every generic reference inside e with a reference
// to the corresponding synthesized entity.
func (g *engine) rewriteEntity(e *ir.Entity, stack []Key) error {
	var firstErr error
	e.TypeRefs(func(ref *ir.TypeRef) {
		if firstErr != nil {
			return
		}
		out, err := g.rewriteRef(*ref, stack)
		if err != nil {
			firstErr = err
			return
		}
		*ref = out
	})
	return firstErr
}

func (g *engine) rewriteRef(t ir.TypeRef, stack []Key) (ir.TypeRef, error) {
	var err error
	switch t.Kind {
	case ir.RefPointer, ir.RefArray:
		elem, err := g.rewriteRef(*t.Elem, stack)
		if err != nil {
			return t, err
		}
		t.Elem = &elem
		return t, nil
	case ir.RefFuncPtr:
		for i := range t.Params {
			if t.Params[i], err = g.rewriteRef(t.Params[i], stack); err != nil {
				return t, err
			}
		}
		if t.Ret != nil {
			ret, err := g.rewriteRef(*t.Ret, stack)
			if err != nil {
				return t, err
			}
			t.Ret = &ret
		}
		return t, nil
	case ir.RefPath:
		for i := range t.Args {
			if t.Args[i], err = g.rewriteRef(t.Args[i], stack); err != nil {
				return t, err
			}
		}
		template, ok := g.lookupTemplate(t.Name)
		if !ok {
			// External reference; resolution is deferred to emission.
			return t, nil
		}
		if !template.IsGeneric() {
			if len(t.Args) > 0 {
				return t, diag.Errorf(diag.StageMono, diag.MonoArityMismatch, template.Name,
					"%s %s is not generic but is instantiated with %d type arguments",
					template.Kind, template.Name, len(t.Args))
			}
			return t, nil
		}
		if len(t.Args) != len(template.GenericParams) {
			return t, diag.Errorf(diag.StageMono, diag.MonoArityMismatch, template.Name,
				"%s expects %d type arguments, got %d",
				template.Name, len(template.GenericParams), len(t.Args))
		}
		entry, err := g.ensure(template, t.Args, stack)
		if err != nil {
			return t, err
		}
		return ir.Path(entry.Entity.Name), nil
	}
	return t, nil
}

func (g *engine) lookupTemplate(name string) (*ir.Entity, bool) {
	if e, ok := g.generics[name]; ok {
		return e, true
	}
	e, ok := g.lib.Lookup(name)
	return e, ok
}

// ensure looks up or creates the instantiation of template with args.
// Structurally equal argument tuples always map to the same entry; the
// synthesized entity is registered in the cache before its body is
// rewritten, so self-referential pointer types terminate naturally.
func (g *engine) ensure(template *ir.Entity, args []ir.TypeRef, stack []Key) (*Entry, error) {
	key := Key{Name: template.Name, ArgsKey: argsKey(args)}
	if entry, ok := g.insts.entries[key]; ok {
		return entry, nil
	}

	if len(stack) >= g.maxDepth {
		return nil, diag.Errorf(diag.StageMono, diag.MonoUnboundedSpecialization, template.Name,
			"specialization of %s exceeds depth %d: %s",
			template.Name, g.maxDepth, formatStack(append(stack, key)))
	}

	mangled := mangle(template.ExportName, args, g.exportNameOf)
	if prev, ok := g.insts.mangled[mangled]; ok && prev != key {
		return nil, diag.Errorf(diag.StageMono, diag.MonoMangledNameCollision, template.Name,
			"instantiations %s<%s> and %s<%s> both mangle to %q",
			prev.Name, prev.ArgsKey, key.Name, key.ArgsKey, mangled)
	}
	if _, taken := g.lib.Lookup(mangled); taken {
		return nil, diag.Errorf(diag.StageMono, diag.MonoMangledNameCollision, template.Name,
			"mangled name %q collides with an existing declaration", mangled)
	}

	clone := template.Clone()
	clone.Name = mangled
	clone.ExportName = mangled
	clone.GenericParams = nil
	clone.Cond = nil // pruning already ran; the template survived
	clone.Synthesized = true

	clonedArgs := make([]ir.TypeRef, len(args))
	for i, a := range args {
		clonedArgs[i] = a.Clone()
	}
	entry := &Entry{Key: key, TypeArgs: clonedArgs, Mangled: mangled, Entity: clone}
	g.insts.entries[key] = entry
	g.insts.mangled[mangled] = key

	newSubst(template.GenericParams, args).applyEntity(clone)
	if err := g.lib.Add(clone); err != nil {
		return nil, err
	}
	if err := g.rewriteEntity(clone, append(stack, key)); err != nil {
		return nil, err
	}
	return entry, nil
}

func (g *engine) exportNameOf(canonical string) string {
	if e, ok := g.lookupTemplate(canonical); ok {
		return e.ExportName
	}
	return canonical
}

func formatStack(stack []Key) string {
	parts := make([]string, len(stack))
	for i, k := range stack {
		parts[i] = k.Name + "<" + k.ArgsKey + ">"
	}
	return strings.Join(parts, " -> ")
}
