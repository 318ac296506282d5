package emit

import (
	"testing"
)

// One representative crate through the whole back half of the pipeline,
// compared byte for byte against the expected header.
func TestRenderGoldenHeader(t *testing.T) {
	lib, order := pipeline(t, `
/// Linked list node.
struct Node { value: i32, next: *mut Node }

struct Pair<K, V> { a: K, b: V }

#[repr(u8)]
enum Mode { Read, Write = 2 }

enum Event { Quit, Key(i32) }

struct Holder { ints: Pair<i32, i32> }

const LIMIT: u32 = 8;

fn process(n: *const Node, cb: fn(i32) -> i32, ...) -> bool;
`)
	events, err := BuildStream(lib, order)
	if err != nil {
		t.Fatalf("BuildStream failed: %v", err)
	}

	cfg := DefaultWriterConfig()
	cfg.IncludeGuard = "BINDINGS_H"
	got := string(NewCWriter(cfg).Render(events))

	want := `#ifndef BINDINGS_H
#define BINDINGS_H

#include <stdarg.h>
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>

#ifdef __cplusplus
extern "C" {
#endif

typedef struct Node Node;

/**
 * Linked list node.
 */
struct Node {
  int32_t value;
  Node *next;
};

enum Mode {
  Mode_Read,
  Mode_Write = 2,
};
typedef uint8_t Mode;

typedef enum Event_Tag {
  Event_Tag_Quit,
  Event_Tag_Key,
} Event_Tag;

typedef struct Event {
  Event_Tag tag;
  union {
    int32_t key;
  };
} Event;

typedef struct Pair_i32_i32 {
  int32_t a;
  int32_t b;
} Pair_i32_i32;

typedef struct Holder {
  Pair_i32_i32 ints;
} Holder;

#define LIMIT 8

bool process(const Node *n, int32_t (*cb)(int32_t), ...);

#ifdef __cplusplus
} // extern "C"
#endif

#endif // BINDINGS_H
`
	if got != want {
		t.Errorf("rendered header differs\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}
