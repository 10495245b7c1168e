package report

import (
	"fmt"
	"strings"
)

// CompileError is a spanned error in a gold source unit: a syntax error from
// the lexer/parser or a type/storage error from the checker.  Compile errors
// accumulate in the reporter; they stop the pipeline only at stage boundaries.
type CompileError struct {
	// The error message.
	Message string

	// The span over which the error occurs.  May be nil when no position
	// information is available.
	Span *TextSpan

	// The path of the source file the error occurred in.
	Path string
}

func (ce *CompileError) Error() string {
	if ce.Span == nil {
		return ce.Message
	}

	return fmt.Sprintf("%d:%d: %s", ce.Span.StartLine+1, ce.Span.StartCol+1, ce.Message)
}

// Raise creates a new compile error over the given span.  The error carries no
// path: the path is attached by the reporting context that catches it.
func Raise(span *TextSpan, msg string, args ...interface{}) *CompileError {
	return &CompileError{Message: fmt.Sprintf(msg, args...), Span: span}
}

// -----------------------------------------------------------------------------

// UnitError is a unit resolution error: a missing unit or a `use` cycle.
// These are fatal before any code generation begins.
type UnitError struct {
	// The name of the unit the error is attributed to.
	Unit string

	// The error message.
	Message string

	// For cycle errors, the names of the units forming the cycle, in order.
	Cycle []string
}

func (ue *UnitError) Error() string {
	if len(ue.Cycle) > 0 {
		return fmt.Sprintf("%s: %s: %s", ue.Unit, ue.Message, strings.Join(ue.Cycle, " -> "))
	}

	return fmt.Sprintf("%s: %s", ue.Unit, ue.Message)
}

// RaiseUnit creates a new unit resolution error.
func RaiseUnit(unit, msg string, args ...interface{}) *UnitError {
	return &UnitError{Unit: unit, Message: fmt.Sprintf(msg, args...)}
}

// RaiseCycle creates a unit resolution error naming a `use` cycle.
func RaiseCycle(unit string, cycle []string) *UnitError {
	return &UnitError{Unit: unit, Message: "cyclic unit reference", Cycle: cycle}
}

// -----------------------------------------------------------------------------

// LinkError is a link-time error: an unresolved or duplicated symbol.  These
// are fatal and name the offending symbol and units.
type LinkError struct {
	// The symbol the error is attributed to.
	Symbol string

	// The units involved: one unit for an unresolved symbol, both exporting
	// units for a duplicate.
	Units []string

	// The error message.
	Message string
}

func (le *LinkError) Error() string {
	return fmt.Sprintf("%s: symbol `%s` (%s)", le.Message, le.Symbol, strings.Join(le.Units, ", "))
}

// RaiseUnresolved creates a link error for a relocation whose target symbol is
// absent from the global symbol table.
func RaiseUnresolved(symbol, unit string) *LinkError {
	return &LinkError{Symbol: symbol, Units: []string{unit}, Message: "unresolved symbol"}
}

// RaiseDuplicate creates a link error for a symbol exported by two units.
func RaiseDuplicate(symbol, first, second string) *LinkError {
	return &LinkError{Symbol: symbol, Units: []string{first, second}, Message: "duplicate symbol"}
}
