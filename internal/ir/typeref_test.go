package ir

import (
	"testing"
)

func TestTypeRefKey(t *testing.T) {
	tests := []struct {
		ref  TypeRef
		want string
	}{
		{Primitive(PrimI32), "i32"},
		{Path("Pair", Primitive(PrimI32), Primitive(PrimF64)), "Pair<i32,f64>"},
		{PointerTo(Primitive(PrimU8), true), "*const u8"},
		{PointerTo(Path("Node"), false), "*mut Node"},
		{ArrayOf(Primitive(PrimU8), "16"), "[u8;16]"},
	}
	for _, tt := range tests {
		if got := tt.ref.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}
}

func TestTypeRefKeyDistinguishesStructure(t *testing.T) {
	a := Path("Pair", Primitive(PrimI32), Primitive(PrimF64))
	b := Path("Pair", Primitive(PrimF64), Primitive(PrimI32))
	if a.Key() == b.Key() {
		t.Error("argument order must be part of the key")
	}
}

func TestWalkContext(t *testing.T) {
	// Outer { direct: Inner, behind: *mut Inner, arr: [Inner; 4], cb: fn(Inner) }
	refs := []TypeRef{
		Path("Inner"),
		PointerTo(Path("Inner"), false),
		ArrayOf(Path("Inner"), "4"),
		{Kind: RefFuncPtr, Params: []TypeRef{Path("Inner")}},
	}
	wantCtx := []RefContext{ByValue, ByPointer, ByValue, ByPointer}
	for i, ref := range refs {
		var got []RefContext
		ref.Walk(func(r *TypeRef, ctx RefContext) {
			if r.Kind == RefPath && r.Name == "Inner" {
				got = append(got, ctx)
			}
		})
		if len(got) != 1 || got[0] != wantCtx[i] {
			t.Errorf("case %d: contexts = %v, want [%v]", i, got, wantCtx[i])
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := PointerTo(Path("Pair", Primitive(PrimI32)), false)
	clone := orig.Clone()
	clone.Elem.Args[0] = Primitive(PrimU64)
	if orig.Elem.Args[0].Prim != PrimI32 {
		t.Error("mutating the clone changed the original")
	}
}

func TestIsConcrete(t *testing.T) {
	params := map[string]bool{"T": true}
	if Path("T").IsConcrete(params) {
		t.Error("bare parameter reported concrete")
	}
	if PointerTo(Path("T"), false).IsConcrete(params) {
		t.Error("pointer to parameter reported concrete")
	}
	if !Path("Pair", Primitive(PrimI32)).IsConcrete(params) {
		t.Error("fully concrete path reported generic")
	}
}
