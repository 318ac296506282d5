package emit

import (
	"testing"

	"github.com/defermelowie/cbindgen/internal/dag"
	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/ir"
	"github.com/defermelowie/cbindgen/internal/mono"
	"github.com/defermelowie/cbindgen/internal/syntax"
)

// pipeline runs build, specialization and ordering, stopping before the
// event stream, so tests exercise BuildStream against realistic input.
func pipeline(t *testing.T, src string) (*ir.Library, *dag.Order) {
	t.Helper()
	decls, err := syntax.Parse(1, []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	lib, err := ir.Build(decls, diag.NopReporter{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := mono.Specialize(lib, 0, diag.NopReporter{}); err != nil {
		t.Fatalf("specialize failed: %v", err)
	}
	order, err := dag.Compute(lib)
	if err != nil {
		t.Fatalf("order failed: %v", err)
	}
	return lib, order
}

func streamOf(t *testing.T, src string) []Event {
	t.Helper()
	lib, order := pipeline(t, src)
	events, err := BuildStream(lib, order)
	if err != nil {
		t.Fatalf("BuildStream failed: %v", err)
	}
	return events
}

func kindsAndNames(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Kind.String() + " " + ev.Entity.ExportName
	}
	return out
}

func TestStreamOrderingSoundness(t *testing.T) {
	events := streamOf(t, `
struct Node { value: i32, next: *mut Node }
struct Outer { inner: Inner }
struct Inner { a: i32 }
fn touch(n: *mut Node);
const LIMIT: u32 = 4;
`)

	defined := make(map[string]bool)
	declared := make(map[string]bool)
	for _, ev := range events {
		e := ev.Entity
		switch ev.Kind {
		case ForwardDeclare:
			declared[e.Name] = true
		case DefineType:
			// Every by-value reference must already be defined; every
			// pointer reference must at least be declared.
			e.TypeRefs(func(root *ir.TypeRef) {
				root.Walk(func(ref *ir.TypeRef, ctx ir.RefContext) {
					if ref.Kind != ir.RefPath {
						return
					}
					if ctx == ir.ByValue && !defined[ref.Name] {
						t.Errorf("%s defined before by-value dependency %s", e.Name, ref.Name)
					}
					if ctx == ir.ByPointer && !defined[ref.Name] && !declared[ref.Name] {
						t.Errorf("%s defined before pointer target %s was declared", e.Name, ref.Name)
					}
				})
			})
			defined[e.Name] = true
		}
	}

	// Constants precede functions; types precede both.
	var sawConst, sawFn bool
	for _, ev := range events {
		switch ev.Kind {
		case DeclareConstant:
			if sawFn {
				t.Error("constant emitted after a function")
			}
			sawConst = true
		case DeclareFunction:
			sawFn = true
		case DefineType:
			if sawConst || sawFn {
				t.Error("type defined after constants or functions began")
			}
		}
	}
}

func TestStreamForwardsComeFirst(t *testing.T) {
	events := streamOf(t, `
struct Node { next: *mut Node }
struct Plain { a: i32 }
`)
	past := false
	for _, ev := range events {
		if ev.Kind != ForwardDeclare {
			past = true
			continue
		}
		if past {
			t.Fatalf("forward declaration after other events: %v", kindsAndNames(events))
		}
	}
}

func TestStreamExternalPointerBecomesOpaqueForward(t *testing.T) {
	events := streamOf(t, `
struct Holder { handle: *mut vendor::Context }
`)
	first := events[0]
	if first.Kind != ForwardDeclare || first.Entity.Name != "vendor::Context" {
		t.Fatalf("events = %v, want synthesized forward for vendor::Context first", kindsAndNames(events))
	}
	if !first.Entity.Synthesized || !first.Entity.OpaqueOnly {
		t.Errorf("synthesized external = %+v", first.Entity)
	}
}

func TestStreamExternalByValueFatal(t *testing.T) {
	lib, order := pipeline(t, `
struct Holder { embedded: vendor::Blob }
`)
	_, err := BuildStream(lib, order)
	if err == nil {
		t.Fatal("BuildStream accepted an unknown by-value type")
	}
	if code := diag.CodeOf(err); code != diag.EmitUnresolvedType {
		t.Errorf("code = %v, want EmitUnresolvedType", code)
	}
}

func TestStreamLeftoverGenericArgsFatal(t *testing.T) {
	// A reference to an unknown name that still carries type arguments
	// can never be resolved, even behind a pointer.
	lib, order := pipeline(t, `
struct Holder { v: *mut vendor::Vec<i32> }
`)
	_, err := BuildStream(lib, order)
	if err == nil {
		t.Fatal("BuildStream accepted a reference with leftover type arguments")
	}
	if code := diag.CodeOf(err); code != diag.EmitUnresolvedType {
		t.Errorf("code = %v, want EmitUnresolvedType", code)
	}
}

func TestStreamDuplicateExportNameFatal(t *testing.T) {
	lib := ir.NewLibrary()
	for _, e := range []*ir.Entity{
		{Kind: ir.KindStruct, Name: "A", ExportName: "same"},
		{Kind: ir.KindStruct, Name: "B", ExportName: "same"},
	} {
		if err := lib.Add(e); err != nil {
			t.Fatal(err)
		}
	}
	order, err := dag.Compute(lib)
	if err != nil {
		t.Fatal(err)
	}
	_, err = BuildStream(lib, order)
	if err == nil {
		t.Fatal("BuildStream accepted duplicate export names")
	}
	if code := diag.CodeOf(err); code != diag.EmitDuplicateName {
		t.Errorf("code = %v, want EmitDuplicateName", code)
	}
}

func TestStreamForwardPlusDefineNotDuplicate(t *testing.T) {
	// A forward declaration and the definition of the same entity share
	// an export name by construction; that is not a collision.
	events := streamOf(t, `
struct Node { next: *mut Node }
`)
	if len(events) != 2 || events[0].Kind != ForwardDeclare || events[1].Kind != DefineType {
		t.Fatalf("events = %v", kindsAndNames(events))
	}
}
