package interpreter

import (
	"fmt"

	"github.com/aledsdavies/rocket/pkgs/value"
)

// RuntimeError is a language-level failure: an undefined variable, a type
// error, a failed call, and so on. try/catch observes exactly these.
//
// Line/Col follow the original's convention: a position of -1,-1 omits
// the "<line>:<col>: " prefix entirely rather than printing "-1:-1:".
type RuntimeError struct {
	Line, Col int
	Msg       string
}

func NewRuntimeError(line, col int, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string {
	if e.Line == -1 || e.Col == -1 {
		return e.Msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// InternalError marks an invariant violation in the interpreter itself
// (an AST node type the evaluator doesn't know how to handle, a control
// signal that escaped its handler). It is never raised as an error value;
// it is panicked and recovered only at the top of Evaluate, so try/catch
// can never observe it, matching the source's "Sentinel escaped" guard.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return fmt.Sprintf("internal error: %s", e.Msg) }

func internalf(format string, args ...any) {
	panic(&InternalError{Msg: fmt.Sprintf(format, args...)})
}

// breakSignal, continueSignal, and returnSignal are control-flow
// transfers threaded through ordinary (value.Value, error) returns. They
// implement error only so they can travel the same return path as a
// RuntimeError; evalTry must recognize and re-propagate them unhandled,
// and evalBlockBody callers for While/ForEach/function calls must recognize
// and consume them at the appropriate boundary.
type breakSignal struct{}

func (breakSignal) Error() string { return "break" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue" }

type returnSignal struct {
	Val value.Value // nil for a bare "return;"
}

func (returnSignal) Error() string { return "return" }
