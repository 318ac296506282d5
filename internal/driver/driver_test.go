package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/defermelowie/cbindgen/internal/config"
	"github.com/defermelowie/cbindgen/internal/diag"
)

func writeCrate(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

const fixture = `
/// Screen-space position.
struct Point { x: f32, y: f32 }

struct Pair<K, V> { first: K, second: V }

struct Lookup {
	ints: Pair<i32, i32>,
	floats: Pair<f64, f64>,
}

fn lookup_new() -> *mut Lookup;

const MAX_ENTRIES: u32 = 256;
`

func TestGenerateEndToEnd(t *testing.T) {
	root := writeCrate(t, map[string]string{"lib.cbi": fixture})
	out := filepath.Join(t.TempDir(), "bindings.h")

	conf := config.Default()
	conf.Header.Guard = "LOOKUP_H"
	res, err := Generate(context.Background(), conf, Options{
		Crates: []string{root},
		Output: out,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v\n%s", err, bagText(res.Bag))
	}

	written, readErr := os.ReadFile(out)
	if readErr != nil {
		t.Fatalf("output file missing: %v", readErr)
	}
	if !bytes.Equal(written, res.Header) {
		t.Error("file on disk differs from the rendered header")
	}

	got := string(res.Header)
	for _, want := range []string{
		"#ifndef LOOKUP_H",
		"typedef struct Point {",
		"typedef struct Pair_i32_i32 {",
		"typedef struct Pair_f64_f64 {",
		"Lookup *lookup_new(void);",
		"#define MAX_ENTRIES 256",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("header missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "Pair<") {
		t.Errorf("generic template leaked into the header:\n%s", got)
	}
	if i, j := strings.Index(got, "Pair_i32_i32"), strings.Index(got, "struct Lookup"); i < 0 || j < 0 || i > j {
		t.Error("specialization not defined before its by-value user")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	root := writeCrate(t, map[string]string{
		"a.cbi": "struct Alpha { p: Pair<i32, u8> }\nstruct Pair<K, V> { k: K, v: V }\n",
		"b.cbi": "struct Beta { p: Pair<u8, i32> }\nfn run(a: *const Alpha, b: *const Beta);\n",
	})
	conf := config.Default()

	var first []byte
	for i := 0; i < 5; i++ {
		res, err := Generate(context.Background(), conf, Options{Crates: []string{root}})
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if first == nil {
			first = res.Header
			continue
		}
		if !bytes.Equal(first, res.Header) {
			t.Fatalf("run %d produced different output", i)
		}
	}
}

func TestGenerateDuplicateDeclarationFails(t *testing.T) {
	root := writeCrate(t, map[string]string{
		"one.cbi": "struct Config { a: i32 }\n",
		"two.cbi": "struct Config { b: i64 }\n",
	})
	out := filepath.Join(t.TempDir(), "bindings.h")

	res, err := Generate(context.Background(), config.Default(), Options{
		Crates: []string{root},
		Output: out,
	})
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("err = %v, want ErrDiagnostics", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("bag carries no errors")
	}
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.BuildDuplicateDeclaration {
			found = true
		}
	}
	if !found {
		t.Errorf("no duplicate-declaration diagnostic in:\n%s", bagText(res.Bag))
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("output file written despite a failed run")
	}
}

func TestGenerateSyntaxErrorFails(t *testing.T) {
	root := writeCrate(t, map[string]string{"bad.cbi": "struct {"})
	res, err := Generate(context.Background(), config.Default(), Options{Crates: []string{root}})
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("err = %v, want ErrDiagnostics", err)
	}
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.BuildSyntaxError {
			found = true
		}
	}
	if !found {
		t.Errorf("no syntax diagnostic in:\n%s", bagText(res.Bag))
	}
}

func TestGenerateRenderOnly(t *testing.T) {
	root := writeCrate(t, map[string]string{"lib.cbi": "struct S { a: i32 }\n"})
	res, err := Generate(context.Background(), config.Default(), Options{Crates: []string{root}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(res.Header) == 0 {
		t.Fatal("render-only run produced no header")
	}
}

func TestGenerateUsesDiskCache(t *testing.T) {
	root := writeCrate(t, map[string]string{"lib.cbi": fixture})
	cache, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCache failed: %v", err)
	}
	opts := Options{Crates: []string{root}, Cache: cache}

	cold, err := Generate(context.Background(), config.Default(), opts)
	if err != nil {
		t.Fatalf("cold run failed: %v", err)
	}
	if cold.Crates[0].Cached {
		t.Fatal("cold run reported a cache hit")
	}

	warm, err := Generate(context.Background(), config.Default(), opts)
	if err != nil {
		t.Fatalf("warm run failed: %v", err)
	}
	if !warm.Crates[0].Cached {
		t.Fatal("warm run missed the cache")
	}
	if !bytes.Equal(cold.Header, warm.Header) {
		t.Error("cached run rendered a different header")
	}

	// Editing a file invalidates the crate digest.
	if err := os.WriteFile(filepath.Join(root, "lib.cbi"), []byte(fixture+"\nconst EXTRA: u8 = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	edited, err := Generate(context.Background(), config.Default(), opts)
	if err != nil {
		t.Fatalf("post-edit run failed: %v", err)
	}
	if edited.Crates[0].Cached {
		t.Error("stale cache entry served after an edit")
	}
	if !strings.Contains(string(edited.Header), "EXTRA") {
		t.Error("edited declaration missing from the header")
	}
}

func TestGenerateProgressEvents(t *testing.T) {
	root := writeCrate(t, map[string]string{"lib.cbi": "struct S { a: i32 }\n"})
	var events []Event
	_, err := Generate(context.Background(), config.Default(), Options{
		Crates: []string{root},
		Sink:   SinkFunc(func(ev Event) { events = append(events, ev) }),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	seen := make(map[Stage]bool)
	for _, ev := range events {
		seen[ev.Stage] = true
		if ev.Status == StatusError {
			t.Errorf("unexpected error event: %+v", ev)
		}
	}
	for _, st := range []Stage{StageParse, StageBuild, StageResolve, StageSpecialize, StageOrder, StageEmit} {
		if !seen[st] {
			t.Errorf("no event for stage %s", st)
		}
	}
	if seen[StageWrite] {
		t.Error("write stage ran without an output path")
	}
}

func bagText(bag *diag.Bag) string {
	var b strings.Builder
	for _, d := range bag.Items() {
		b.WriteString(d.Code.ID() + " " + d.Message + "\n")
	}
	return b.String()
}
