package emit

import (
	"strings"
	"testing"

	"github.com/defermelowie/cbindgen/internal/ir"
)

func render(cfg WriterConfig, events ...Event) string {
	return string(NewCWriter(cfg).Render(events))
}

// contains fails with the full rendering when any wanted fragment is
// missing, so a broken layout shows up once with context.
func contains(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n--- rendered ---\n%s", want, got)
		}
	}
}

func TestRenderPrologueAndEpilogue(t *testing.T) {
	got := render(WriterConfig{
		IncludeGuard: "GFX_BINDINGS_H",
		Header:       "/* generated, do not edit */",
		Trailer:      "/* end of bindings */",
		SysIncludes:  []string{"stdint.h"},
		Includes:     []string{"gfx_platform.h"},
	})
	contains(t, got,
		"/* generated, do not edit */",
		"#ifndef GFX_BINDINGS_H\n#define GFX_BINDINGS_H\n",
		"#include <stdint.h>\n",
		"#include \"gfx_platform.h\"\n",
		"#ifdef __cplusplus\nextern \"C\" {\n#endif\n",
		"#ifdef __cplusplus\n} // extern \"C\"\n#endif\n",
		"#endif // GFX_BINDINGS_H",
		"/* end of bindings */",
	)
	if idx := strings.Index(got, "extern \"C\""); idx < strings.Index(got, "#include <stdint.h>") {
		t.Error("extern \"C\" opened before includes")
	}
}

func TestRenderNoGuardNoExtras(t *testing.T) {
	got := render(WriterConfig{})
	if strings.Contains(got, "#ifndef") || strings.Contains(got, "#include") {
		t.Errorf("bare config produced guard or includes:\n%s", got)
	}
	contains(t, got, "extern \"C\"")
}

func TestRenderStructTypedef(t *testing.T) {
	point := &ir.Entity{
		Kind:       ir.KindStruct,
		Name:       "Point",
		ExportName: "gfx_point",
		Doc:        "A 2D point.",
		Fields: []ir.Field{
			{Name: "x", Type: ir.Primitive(ir.PrimF32)},
			{Name: "y", Type: ir.Primitive(ir.PrimF32)},
		},
	}
	got := render(WriterConfig{}, Event{Kind: DefineType, Entity: point})
	contains(t, got,
		"/**\n * A 2D point.\n */\n",
		"typedef struct gfx_point {\n  float x;\n  float y;\n} gfx_point;\n",
	)
}

func TestRenderForwardedStructUsesTagForm(t *testing.T) {
	node := &ir.Entity{
		Kind:       ir.KindStruct,
		Name:       "Node",
		ExportName: "Node",
		Fields: []ir.Field{
			{Name: "next", Type: ir.PointerTo(ir.Path("Node"), false)},
		},
	}
	got := render(WriterConfig{},
		Event{Kind: ForwardDeclare, Entity: node},
		Event{Kind: DefineType, Entity: node},
	)
	contains(t, got,
		"typedef struct Node Node;\n",
		"struct Node {\n  Node *next;\n};\n",
	)
	if strings.Contains(got, "typedef struct Node {") {
		t.Errorf("forwarded struct still used the typedef definition form:\n%s", got)
	}
}

func TestRenderPackedStruct(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindStruct,
		Name:       "Wire",
		ExportName: "Wire",
		Repr:       ir.Repr{C: true, Packed: true},
		Fields:     []ir.Field{{Name: "op", Type: ir.Primitive(ir.PrimU8)}},
	}
	got := render(WriterConfig{}, Event{Kind: DefineType, Entity: e})
	contains(t, got,
		"#pragma pack(push, 1)\ntypedef struct Wire {\n",
		"} Wire;\n#pragma pack(pop)\n",
	)
}

func TestRenderUnion(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindUnion,
		Name:       "Scalar",
		ExportName: "Scalar",
		Fields: []ir.Field{
			{Name: "i", Type: ir.Primitive(ir.PrimI64)},
			{Name: "f", Type: ir.Primitive(ir.PrimF64)},
		},
	}
	got := render(WriterConfig{}, Event{Kind: DefineType, Entity: e})
	contains(t, got, "typedef union Scalar {\n  int64_t i;\n  double f;\n} Scalar;\n")
}

func TestRenderPlainEnum(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindEnum,
		Name:       "Mode",
		ExportName: "Mode",
		Variants: []ir.Variant{
			{Name: "Read"},
			{Name: "Write", Discriminant: "4"},
		},
	}
	got := render(WriterConfig{EnumPrefix: true}, Event{Kind: DefineType, Entity: e})
	contains(t, got, "typedef enum Mode {\n  Mode_Read,\n  Mode_Write = 4,\n} Mode;\n")
}

func TestRenderSizedEnum(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindEnum,
		Name:       "Flag",
		ExportName: "Flag",
		Repr:       ir.Repr{EnumSize: ir.PrimU8},
		Variants:   []ir.Variant{{Name: "Off"}, {Name: "On"}},
	}
	got := render(WriterConfig{EnumPrefix: true}, Event{Kind: DefineType, Entity: e})
	contains(t, got,
		"enum Flag {\n  Flag_Off,\n  Flag_On,\n};\n",
		"typedef uint8_t Flag;\n",
	)
}

func TestRenderEnumWithoutPrefix(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindEnum,
		Name:       "Mode",
		ExportName: "Mode",
		Variants:   []ir.Variant{{Name: "Read"}},
	}
	got := render(WriterConfig{}, Event{Kind: DefineType, Entity: e})
	contains(t, got, "  Read,\n")
	if strings.Contains(got, "Mode_Read") {
		t.Errorf("enumerator was prefixed despite EnumPrefix=false:\n%s", got)
	}
}

func TestRenderTaggedEnum(t *testing.T) {
	payload := ir.Primitive(ir.PrimI32)
	msg := ir.Path("Message")
	e := &ir.Entity{
		Kind:       ir.KindEnum,
		Name:       "Event",
		ExportName: "Event",
		Variants: []ir.Variant{
			{Name: "Quit"},
			{Name: "KeyPress", Payload: &payload},
			{Name: "UserMessage", Payload: &msg},
		},
	}
	got := render(WriterConfig{EnumPrefix: true}, Event{Kind: DefineType, Entity: e})
	contains(t, got,
		"typedef enum Event_Tag {\n  Event_Tag_Quit,\n  Event_Tag_KeyPress,\n  Event_Tag_UserMessage,\n} Event_Tag;\n",
		"typedef struct Event {\n  Event_Tag tag;\n  union {\n    int32_t key_press;\n    Message user_message;\n  };\n} Event;\n",
	)
}

func TestRenderAlias(t *testing.T) {
	target := ir.PointerTo(ir.Primitive(ir.PrimVoid), false)
	e := &ir.Entity{Kind: ir.KindAlias, Name: "Handle", ExportName: "Handle", Aliased: &target}
	got := render(WriterConfig{}, Event{Kind: DefineType, Entity: e})
	contains(t, got, "typedef void *Handle;\n")
}

func TestRenderFunction(t *testing.T) {
	ret := ir.Primitive(ir.PrimBool)
	e := &ir.Entity{
		Kind:       ir.KindFunction,
		Name:       "open",
		ExportName: "net_open",
		Sig: &ir.Signature{
			Params: []ir.Param{
				{Name: "path", Type: ir.PointerTo(ir.Primitive(ir.PrimCChar), true)},
				{Name: "flags", Type: ir.Primitive(ir.PrimU32)},
			},
			Ret: &ret,
		},
	}
	got := render(WriterConfig{}, Event{Kind: DeclareFunction, Entity: e})
	contains(t, got, "bool net_open(const char *path, uint32_t flags);\n")
}

func TestRenderVoidFunction(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindFunction,
		Name:       "tick",
		ExportName: "tick",
		Sig:        &ir.Signature{},
	}
	got := render(WriterConfig{}, Event{Kind: DeclareFunction, Entity: e})
	contains(t, got, "void tick(void);\n")
}

func TestRenderVariadicFunction(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindFunction,
		Name:       "logf",
		ExportName: "logf",
		Sig: &ir.Signature{
			Params:   []ir.Param{{Name: "fmt", Type: ir.PointerTo(ir.Primitive(ir.PrimCChar), true)}},
			Variadic: true,
		},
	}
	got := render(WriterConfig{}, Event{Kind: DeclareFunction, Entity: e})
	contains(t, got, "void logf(const char *fmt, ...);\n")
}

func TestRenderExternDeclSkipped(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindFunction,
		Name:       "malloc",
		ExportName: "malloc",
		ExternDecl: true,
		Sig:        &ir.Signature{},
	}
	got := render(WriterConfig{}, Event{Kind: DeclareFunction, Entity: e})
	if strings.Contains(got, "malloc") {
		t.Errorf("extern declaration leaked into the header:\n%s", got)
	}
}

func TestRenderConstantAndStatic(t *testing.T) {
	ty := ir.Primitive(ir.PrimU64)
	got := render(WriterConfig{},
		Event{Kind: DeclareConstant, Entity: &ir.Entity{
			Kind: ir.KindConstant, Name: "MAX", ExportName: "NET_MAX", Value: "4096",
		}},
		Event{Kind: DeclareStatic, Entity: &ir.Entity{
			Kind: ir.KindStatic, Name: "COUNTER", ExportName: "net_counter", Type: &ty,
		}},
	)
	contains(t, got,
		"#define NET_MAX 4096\n",
		"extern uint64_t net_counter;\n",
	)
}

func TestRenderReferencesUseExportNames(t *testing.T) {
	inner := &ir.Entity{Kind: ir.KindStruct, Name: "Inner", ExportName: "gfx_inner"}
	outer := &ir.Entity{
		Kind:       ir.KindStruct,
		Name:       "Outer",
		ExportName: "gfx_outer",
		Fields:     []ir.Field{{Name: "inner", Type: ir.Path("Inner")}},
	}
	got := render(WriterConfig{},
		Event{Kind: DefineType, Entity: inner},
		Event{Kind: DefineType, Entity: outer},
	)
	contains(t, got, "  gfx_inner inner;\n")
	if strings.Contains(got, "Inner inner;") {
		t.Errorf("field used the canonical name instead of the export name:\n%s", got)
	}
}

func TestRenderOpaqueForward(t *testing.T) {
	e := &ir.Entity{
		Kind:       ir.KindOpaque,
		Name:       "vendor::Context",
		ExportName: "vendor_Context",
		OpaqueOnly: true,
	}
	got := render(WriterConfig{}, Event{Kind: ForwardDeclare, Entity: e})
	contains(t, got, "typedef struct vendor_Context vendor_Context;\n")
}

func TestCdecl(t *testing.T) {
	u8 := ir.Primitive(ir.PrimU8)
	i32 := ir.Primitive(ir.PrimI32)
	ident := func(name string) string { return name }

	tests := []struct {
		name string
		ref  ir.TypeRef
		want string
	}{
		{"primitive", u8, "uint8_t x"},
		{"pointer", ir.PointerTo(u8, false), "uint8_t *x"},
		{"pointer to const", ir.PointerTo(u8, true), "const uint8_t *x"},
		{"double pointer", ir.PointerTo(ir.PointerTo(u8, false), false), "uint8_t **x"},
		{"array", ir.ArrayOf(u8, "16"), "uint8_t x[16]"},
		{"array of pointers", ir.ArrayOf(ir.PointerTo(u8, false), "4"), "uint8_t *x[4]"},
		{"pointer to array", ir.PointerTo(ir.ArrayOf(u8, "16"), false), "uint8_t (*x)[16]"},
		{
			"function pointer",
			ir.TypeRef{Kind: ir.RefFuncPtr, Params: []ir.TypeRef{i32}, Ret: &i32},
			"int32_t (*x)(int32_t)",
		},
		{
			"function pointer no params",
			ir.TypeRef{Kind: ir.RefFuncPtr},
			"void (*x)(void)",
		},
		{
			"pointer to function pointer",
			ir.PointerTo(ir.TypeRef{Kind: ir.RefFuncPtr, Params: []ir.TypeRef{i32}}, false),
			"void (*(*x))(int32_t)",
		},
		{"named type", ir.Path("Point"), "Point x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cdecl(tt.ref, "x", false, ident); got != tt.want {
				t.Errorf("cdecl = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCdeclAbstract(t *testing.T) {
	got := cdecl(ir.PointerTo(ir.Primitive(ir.PrimU8), false), "", false, func(s string) string { return s })
	if got != "uint8_t *" {
		t.Errorf("abstract declarator = %q, want %q", got, "uint8_t *")
	}
}
