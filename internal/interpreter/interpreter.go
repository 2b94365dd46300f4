// Package interpreter walks an *ast.Root against a lexically scoped
// environment seeded with built-ins, implementing the evaluator half of
// the lexer -> parser -> evaluator pipeline.
package interpreter

import (
	"fmt"
	"io"

	"github.com/aledsdavies/rocket/pkgs/ast"
	"github.com/aledsdavies/rocket/pkgs/builtins"
	"github.com/aledsdavies/rocket/pkgs/value"
)

// DebugLevel controls step tracing, following the teacher's
// executor.Config/DebugLevel idiom: zero overhead at DebugOff, since the
// evaluator only touches Config.Trace when Debug >= DebugTrace.
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	DebugTrace
)

// Config configures a single Evaluate call.
type Config struct {
	Debug    DebugLevel
	Trace    io.Writer          // written to when Debug >= DebugTrace; ignored otherwise
	Stdout   io.Writer          // "print" target; defaults to io.Discard if nil
	Stdin    io.Reader          // "input" source; defaults to an empty reader if nil
	Builtins *builtins.Registry // defaults to builtins.Standard if nil
}

type interp struct {
	cfg      Config
	builtins *builtins.Registry
}

// Evaluate runs a parsed program to completion. InternalError panics
// (invariant violations in the interpreter itself) are recovered here
// and returned as a plain error; they never reach a program's try/catch.
func Evaluate(root *ast.Root, cfg Config) (err error) {
	if cfg.Builtins == nil {
		cfg.Builtins = builtins.Standard
	}
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.Stdin == nil {
		cfg.Stdin = emptyReader{}
	}
	cfg.Builtins.BindIO(cfg.Stdout, cfg.Stdin)

	it := &interp{cfg: cfg, builtins: cfg.Builtins}

	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InternalError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()

	env := it.baseEnv()

	// First pass: declare every function name as value.Undefined up front
	// so mutually recursive functions can refer to one another regardless
	// of definition order.
	for _, item := range root.Items {
		if fn, ok := item.(*ast.FnDefinition); ok && !env.Has(fn.Name) {
			env = env.Declare(fn.Name, value.Undefined{Name: fn.Name})
		}
	}

	// Second pass: build closures (overwriting the sentinel) and execute
	// top-level statements in order, sharing one declared-name set across
	// the whole program the same way a block shares one across its body.
	declared := make(map[string]bool)
	for _, item := range root.Items {
		if fn, ok := item.(*ast.FnDefinition); ok {
			closure := &value.Function{Name: fn.Name, Params: fn.Params, Body: fn.Body, Env: env.Snapshot()}
			if !env.Assign(fn.Name, closure) {
				internalf("function %s not pre-declared", fn.Name)
			}
			continue
		}
		stmt := item.(ast.Stmt)
		var serr error
		env, serr = it.evalStmt(stmt, env, declared)
		if serr != nil {
			return unwrapTopLevel(serr)
		}
	}
	return nil
}

// unwrapTopLevel converts a control-flow signal that escaped to the top
// level into an InternalError: a well-formed program's parser rejects
// break/continue/return outside their required context, so reaching here
// means the parser's context tracking was bypassed.
func unwrapTopLevel(err error) error {
	switch err.(type) {
	case breakSignal, continueSignal, returnSignal:
		return &InternalError{Msg: "control-flow signal escaped to top level"}
	default:
		return err
	}
}

func (it *interp) baseEnv() *Env {
	var env *Env
	for _, name := range it.builtins.Names() {
		fn, _ := it.builtins.Get(name)
		env = env.Declare(name, value.BuiltinFunc{Name: name, Call: fn})
	}
	return env
}

func (it *interp) trace(format string, args ...any) {
	if it.cfg.Debug >= DebugTrace && it.cfg.Trace != nil {
		fmt.Fprintf(it.cfg.Trace, format+"\n", args...)
	}
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }
