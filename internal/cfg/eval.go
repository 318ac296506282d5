package cfg

import (
	"sort"
)

// Env is the evaluation environment: the set of enabled leaves plus the
// set of leaves the invocation knows about. A leaf outside both sets
// evaluates to false and is reported once as unknown, so that partial
// environments degrade to exclusion rather than failure.
type Env struct {
	enabled map[string]bool
	known   map[string]bool
}

// NewEnv builds an environment from enabled leaves and additionally-known
// (but disabled) leaves. Leaves use canonical form: `name` for bare flags,
// `key=value` for valued ones.
func NewEnv(enabled, known []string) *Env {
	env := &Env{
		enabled: make(map[string]bool, len(enabled)),
		known:   make(map[string]bool, len(enabled)+len(known)),
	}
	for _, leaf := range enabled {
		env.enabled[leaf] = true
		env.known[leaf] = true
	}
	for _, leaf := range known {
		env.known[leaf] = true
	}
	return env
}

// Leaves returns the enabled leaves in sorted order, for digests and logs.
func (env *Env) Leaves() []string {
	out := make([]string, 0, len(env.enabled))
	for leaf := range env.enabled {
		out = append(out, leaf)
	}
	sort.Strings(out)
	return out
}

// Eval evaluates the predicate against the environment. Unknown leaves are
// collected (deduplicated, in first-seen order) so the caller can warn.
// A nil predicate is always true.
func (e *Expr) Eval(env *Env) (result bool, unknown []string) {
	seen := make(map[string]bool)
	var walk func(*Expr) bool
	walk = func(x *Expr) bool {
		switch x.Kind {
		case KindFlag, KindKeyValue:
			leaf := x.Key
			if x.Kind == KindKeyValue {
				leaf = x.Key + "=" + x.Value
			}
			if !env.known[leaf] && !seen[leaf] {
				seen[leaf] = true
				unknown = append(unknown, leaf)
			}
			return env.enabled[leaf]
		case KindNot:
			return !walk(&x.Children[0])
		case KindAll:
			for i := range x.Children {
				if !walk(&x.Children[i]) {
					return false
				}
			}
			return true
		case KindAny:
			for i := range x.Children {
				if walk(&x.Children[i]) {
					return true
				}
			}
			return false
		}
		return false
	}
	if e == nil {
		return true, nil
	}
	return walk(e), unknown
}
