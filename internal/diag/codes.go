package diag

import (
	"fmt"
)

type Code uint16

const (
	// UnknownCode is the fallback for diagnostics without a dedicated code.
	UnknownCode Code = 0

	// IR building
	BuildInfo                 Code = 1000
	BuildDuplicateDeclaration Code = 1001
	BuildUnknownAttribute     Code = 1002
	BuildBadTypeExpression    Code = 1003
	BuildBadReprAttribute     Code = 1004
	BuildBadRenameAttribute   Code = 1005
	BuildSyntaxError          Code = 1006

	// Conditional compilation
	CfgInfo          Code = 2000
	CfgBadPredicate  Code = 2001
	CfgUnknownFlag   Code = 2002
	CfgRemovedTarget Code = 2003

	// Specialization
	MonoInfo                   Code = 3000
	MonoMangledNameCollision   Code = 3001
	MonoUnboundedSpecialization Code = 3002
	MonoArityMismatch          Code = 3003

	// Dependency ordering
	OrderInfo                 Code = 4000
	OrderUnrepresentableCycle Code = 4001

	// Emission
	EmitInfo           Code = 5000
	EmitUnresolvedType Code = 5001
	EmitDuplicateName  Code = 5002

	// I/O and configuration surface
	IOInfo               Code = 6000
	IOLoadFileError      Code = 6001
	ConfigInvalid        Code = 6002
	ExportUnknownItem    Code = 6003
	ExportExcludedTarget Code = 6004
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	BuildInfo:                 "IR builder information",
	BuildDuplicateDeclaration: "Duplicate declaration",
	BuildUnknownAttribute:     "Unrecognized attribute",
	BuildBadTypeExpression:    "Malformed type expression",
	BuildBadReprAttribute:     "Malformed repr attribute",
	BuildBadRenameAttribute:   "Malformed rename attribute",
	BuildSyntaxError:          "Declaration syntax error",

	CfgInfo:          "Conditional compilation information",
	CfgBadPredicate:  "Malformed cfg predicate",
	CfgUnknownFlag:   "Unknown cfg flag",
	CfgRemovedTarget: "Reference to conditionally removed type",

	MonoInfo:                    "Specialization information",
	MonoMangledNameCollision:    "Mangled name collision",
	MonoUnboundedSpecialization: "Unbounded generic specialization",
	MonoArityMismatch:           "Generic argument count mismatch",

	OrderInfo:                 "Ordering information",
	OrderUnrepresentableCycle: "Unrepresentable by-value type cycle",

	EmitInfo:           "Emission information",
	EmitUnresolvedType: "Unresolved type reference",
	EmitDuplicateName:  "Duplicate export name",

	IOInfo:               "I/O information",
	IOLoadFileError:      "Failed to load file",
	ConfigInvalid:        "Invalid configuration",
	ExportUnknownItem:    "Export list names unknown item",
	ExportExcludedTarget: "Reference to excluded item",
}

// ID returns the stable short identifier used in rendered diagnostics.
func (c Code) ID() string {
	if c == UnknownCode {
		return "E0000"
	}
	return fmt.Sprintf("E%04d", uint16(c))
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
