package ir

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RenameRule is one of the identifier-casing transformations that can be
// applied per item class before emission.
type RenameRule uint8

const (
	RenameNone RenameRule = iota
	RenameLowerCase
	RenameUpperCase
	RenamePascalCase
	RenameCamelCase
	RenameSnakeCase
	RenameScreamingSnakeCase
	// RenameGeckoCase is Gecko member naming: an `m` prefix on the
	// PascalCase spelling.
	RenameGeckoCase
	// RenameQualifiedScreamingSnakeCase is SCREAMING_SNAKE_CASE; the
	// qualifying container prefix only applies where a container exists,
	// so at the top level it matches the unqualified rule.
	RenameQualifiedScreamingSnakeCase
)

// ParseRenameRule resolves the textual configuration spelling of a rule.
func ParseRenameRule(s string) (RenameRule, error) {
	switch s {
	case "", "none":
		return RenameNone, nil
	case "lowercase":
		return RenameLowerCase, nil
	case "uppercase":
		return RenameUpperCase, nil
	case "PascalCase":
		return RenamePascalCase, nil
	case "camelCase":
		return RenameCamelCase, nil
	case "snake_case":
		return RenameSnakeCase, nil
	case "SCREAMING_SNAKE_CASE":
		return RenameScreamingSnakeCase, nil
	case "GeckoCase":
		return RenameGeckoCase, nil
	case "QualifiedScreamingSnakeCase":
		return RenameQualifiedScreamingSnakeCase, nil
	}
	return RenameNone, fmt.Errorf("unknown rename rule %q", s)
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// Apply transforms an identifier according to the rule. Word boundaries
// are underscores and lower-to-upper case transitions.
func (r RenameRule) Apply(name string) string {
	if r == RenameNone || name == "" {
		return name
	}
	words := splitWords(name)
	switch r {
	case RenameLowerCase:
		return strings.ToLower(strings.Join(words, ""))
	case RenameUpperCase:
		return strings.ToUpper(strings.Join(words, ""))
	case RenamePascalCase, RenameGeckoCase:
		for i, w := range words {
			words[i] = titleCaser.String(strings.ToLower(w))
		}
		if r == RenameGeckoCase {
			return "m" + strings.Join(words, "")
		}
		return strings.Join(words, "")
	case RenameCamelCase:
		for i, w := range words {
			if i == 0 {
				words[i] = strings.ToLower(w)
				continue
			}
			words[i] = titleCaser.String(strings.ToLower(w))
		}
		return strings.Join(words, "")
	case RenameSnakeCase:
		for i, w := range words {
			words[i] = strings.ToLower(w)
		}
		return strings.Join(words, "_")
	case RenameScreamingSnakeCase, RenameQualifiedScreamingSnakeCase:
		for i, w := range words {
			words[i] = strings.ToUpper(w)
		}
		return strings.Join(words, "_")
	}
	return name
}

func splitWords(name string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	prevLower := false
	for _, r := range name {
		switch {
		case r == '_':
			flush()
			prevLower = false
			continue
		case r >= 'A' && r <= 'Z' && prevLower:
			flush()
		}
		prevLower = r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		cur.WriteRune(r)
	}
	flush()
	return words
}

// ExportNaming controls how canonical names become export names.
type ExportNaming struct {
	TypeRule     RenameRule
	FunctionRule RenameRule
	ConstRule    RenameRule
	Prefix       string
	// Overrides maps canonical names to explicit export names; an
	// override beats both rule and prefix. An `export_name` attribute set
	// during IR building is preserved the same way.
	Overrides map[string]string
	// OpaqueOnly lists canonical names forced to forward-declare only.
	OpaqueOnly []string
}

// ApplyExportNames assigns export names across the whole library. The
// assignment happens before specialization so that mangled names derive
// from the renamed spellings.
func ApplyExportNames(lib *Library, naming ExportNaming) {
	opaque := make(map[string]bool, len(naming.OpaqueOnly))
	for _, name := range naming.OpaqueOnly {
		opaque[name] = true
	}
	for _, e := range lib.Entities() {
		if opaque[e.Name] {
			e.OpaqueOnly = true
		}
		if override, ok := naming.Overrides[e.Name]; ok {
			e.ExportName = override
			continue
		}
		if e.ExportName != e.Name {
			continue // explicit export_name attribute wins over rules
		}
		rule := naming.TypeRule
		switch e.Kind {
		case KindFunction, KindStatic:
			rule = naming.FunctionRule
		case KindConstant:
			rule = naming.ConstRule
		}
		e.ExportName = naming.Prefix + rule.Apply(e.Name)
	}
}
