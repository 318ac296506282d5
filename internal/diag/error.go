package diag

import (
	"errors"
	"fmt"
)

// Stage names the pipeline stage an error escaped from.
type Stage string

const (
	StageBuild Stage = "ir-build"
	StageCfg   Stage = "cfg-resolve"
	StageMono  Stage = "specialize"
	StageOrder Stage = "order"
	StageEmit  Stage = "emit"
)

// Error is the single fatal error type the pipeline surfaces. It carries
// enough context for the CLI to print the failing stage, the offending
// entity and the error kind.
type Error struct {
	Stage  Stage
	Code   Code
	Entity string
	Msg    string
}

func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s: %s (%s)", e.Stage, e.Code.ID(), e.Msg, e.Entity)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Code.ID(), e.Msg)
}

// Errorf constructs a stage error with a formatted message.
func Errorf(stage Stage, code Code, entity, format string, args ...any) *Error {
	return &Error{
		Stage:  stage,
		Code:   code,
		Entity: entity,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the diagnostic code from err, or UnknownCode.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return UnknownCode
}
