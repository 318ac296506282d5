package ir

import (
	"testing"
)

func TestRenameRuleApply(t *testing.T) {
	tests := []struct {
		rule RenameRule
		in   string
		want string
	}{
		{RenameNone, "FooBar", "FooBar"},
		{RenameLowerCase, "FooBar", "foobar"},
		{RenameUpperCase, "foo_bar", "FOOBAR"},
		{RenamePascalCase, "foo_bar", "FooBar"},
		{RenamePascalCase, "fooBar", "FooBar"},
		{RenameCamelCase, "foo_bar", "fooBar"},
		{RenameCamelCase, "FooBar", "fooBar"},
		{RenameSnakeCase, "FooBar", "foo_bar"},
		{RenameSnakeCase, "already_snake", "already_snake"},
		{RenameScreamingSnakeCase, "FooBar", "FOO_BAR"},
		{RenameScreamingSnakeCase, "maxClients", "MAX_CLIENTS"},
		{RenameGeckoCase, "foo_bar", "mFooBar"},
		{RenameGeckoCase, "FooBar", "mFooBar"},
		{RenameQualifiedScreamingSnakeCase, "FooBar", "FOO_BAR"},
	}
	for _, tt := range tests {
		if got := tt.rule.Apply(tt.in); got != tt.want {
			t.Errorf("rule %d Apply(%q) = %q, want %q", tt.rule, tt.in, got, tt.want)
		}
	}
}

func TestParseRenameRule(t *testing.T) {
	valid := map[string]RenameRule{
		"":                            RenameNone,
		"none":                        RenameNone,
		"lowercase":                   RenameLowerCase,
		"uppercase":                   RenameUpperCase,
		"PascalCase":                  RenamePascalCase,
		"camelCase":                   RenameCamelCase,
		"snake_case":                  RenameSnakeCase,
		"SCREAMING_SNAKE_CASE":        RenameScreamingSnakeCase,
		"GeckoCase":                   RenameGeckoCase,
		"QualifiedScreamingSnakeCase": RenameQualifiedScreamingSnakeCase,
	}
	for s, want := range valid {
		got, err := ParseRenameRule(s)
		if err != nil || got != want {
			t.Errorf("ParseRenameRule(%q) = (%v, %v), want (%v, nil)", s, got, err, want)
		}
	}
	if _, err := ParseRenameRule("kebab-case"); err == nil {
		t.Error("ParseRenameRule accepted an unknown rule")
	}
}

func TestApplyExportNames(t *testing.T) {
	lib := NewLibrary()
	add := func(e *Entity) {
		t.Helper()
		if err := lib.Add(e); err != nil {
			t.Fatal(err)
		}
	}
	add(&Entity{Kind: KindStruct, Name: "render_target", ExportName: "render_target"})
	add(&Entity{Kind: KindFunction, Name: "DrawFrame", ExportName: "DrawFrame"})
	add(&Entity{Kind: KindConstant, Name: "maxClients", ExportName: "maxClients"})
	add(&Entity{Kind: KindStruct, Name: "Legacy", ExportName: "Legacy"})
	add(&Entity{Kind: KindFunction, Name: "attributed", ExportName: "custom_name"})

	ApplyExportNames(lib, ExportNaming{
		TypeRule:     RenamePascalCase,
		FunctionRule: RenameSnakeCase,
		ConstRule:    RenameScreamingSnakeCase,
		Prefix:       "gfx_",
		Overrides:    map[string]string{"Legacy": "GfxLegacyBlob"},
		OpaqueOnly:   []string{"render_target"},
	})

	want := map[string]string{
		"render_target": "gfx_RenderTarget",
		"DrawFrame":     "gfx_draw_frame",
		"maxClients":    "gfx_MAX_CLIENTS",
		"Legacy":        "GfxLegacyBlob",  // override beats rule and prefix
		"attributed":    "custom_name",    // attribute beats rule and prefix
	}
	for name, exported := range want {
		e, ok := lib.Lookup(name)
		if !ok {
			t.Fatalf("%s missing", name)
		}
		if e.ExportName != exported {
			t.Errorf("%s export name = %q, want %q", name, e.ExportName, exported)
		}
	}
	if e, _ := lib.Lookup("render_target"); !e.OpaqueOnly {
		t.Error("render_target not marked opaque-only")
	}
}
