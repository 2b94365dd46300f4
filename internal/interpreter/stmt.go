package interpreter

import (
	"errors"

	"github.com/aledsdavies/rocket/pkgs/ast"
	"github.com/aledsdavies/rocket/pkgs/value"
)

// evalBlockBody executes block's statements against env, threading a
// fresh declared-name set so re-declaring a name directly in this block
// is a RuntimeError while the same name may still shadow an outer
// binding. Declarations made here never leak to the caller: the caller
// keeps using whatever *Env it already had once this returns.
func (it *interp) evalBlockBody(block *ast.Block, env *Env) error {
	declared := make(map[string]bool)
	for _, stmt := range block.Stmts {
		var err error
		env, err = it.evalStmt(stmt, env, declared)
		if err != nil {
			return err
		}
	}
	return nil
}

// evalStmt evaluates one statement, returning the environment to use for
// whatever statement follows it in the same list (only VarDecl changes
// this; every other kind returns env unchanged) and any error, which may
// be a RuntimeError or a break/continue/return control signal.
func (it *interp) evalStmt(stmt ast.Stmt, env *Env, declared map[string]bool) (*Env, error) {
	switch s := stmt.(type) {
	case *ast.Block:
		return env, it.evalBlockBody(s, env)

	case *ast.VarDecl:
		val, err := it.evalExpr(s.Expr, env)
		if err != nil {
			return env, err
		}
		if declared[s.Name] {
			return env, NewRuntimeError(s.Line, s.Col, "cannot redeclare variable in same scope: %s", s.Name)
		}
		declared[s.Name] = true
		return env.Declare(s.Name, val), nil

	case *ast.If:
		return env, it.evalIf(s, env)

	case *ast.While:
		return env, it.evalWhile(s, env)

	case *ast.ForEach:
		return env, it.evalForEach(s, env)

	case *ast.Break:
		return env, breakSignal{}

	case *ast.Continue:
		return env, continueSignal{}

	case *ast.Return:
		if s.Expr == nil {
			return env, returnSignal{}
		}
		val, err := it.evalExpr(s.Expr, env)
		if err != nil {
			return env, err
		}
		return env, returnSignal{Val: val}

	case *ast.Try:
		return env, it.evalTry(s, env)

	default:
		if expr, ok := stmt.(ast.Expr); ok {
			_, err := it.evalExpr(expr, env)
			return env, err
		}
		internalf("unhandled statement node type: %T", stmt)
		return env, nil
	}
}

// evalIf opens exactly one scope for the whole statement (covering both
// the condition's effects and whichever branch runs), matching the
// source's single `with env.enter_scope()` wrapping if/elif/else — an
// "else if" is a nested *ast.If (the parser's lowering per the grammar
// comment) and opens its own scope in turn via recursion.
func (it *interp) evalIf(s *ast.If, env *Env) error {
	cond, err := it.evalExpr(s.Cond, env)
	if err != nil {
		return err
	}
	if cond.Truthy() {
		return it.evalBlockBody(s.Then, env)
	}
	switch e := s.Else.(type) {
	case nil:
		return nil
	case *ast.Block:
		return it.evalBlockBody(e, env)
	case *ast.If:
		return it.evalIf(e, env)
	default:
		internalf("if statement else-branch has unexpected type %T", e)
		return nil
	}
}

func (it *interp) evalWhile(s *ast.While, env *Env) error {
	for {
		cond, err := it.evalExpr(s.Cond, env)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}
		err = it.evalBlockBody(s.Body, env)
		if err == nil {
			continue
		}
		switch err.(type) {
		case breakSignal:
			return nil
		case continueSignal:
			continue
		default:
			return err
		}
	}
}

func (it *interp) evalForEach(s *ast.ForEach, env *Env) error {
	iterable, err := it.evalExpr(s.Iterable, env)
	if err != nil {
		return err
	}

	var loopErr error
	iterErr := iterateValue(iterable, func(item value.Value) (stop bool) {
		itemEnv := env.Declare(s.Binding, item)
		berr := it.evalBlockBody(s.Body, itemEnv)
		if berr == nil {
			return false
		}
		switch berr.(type) {
		case breakSignal:
			return true
		case continueSignal:
			return false
		default:
			loopErr = berr
			return true
		}
	})
	if iterErr != nil {
		return NewRuntimeError(s.Line, s.Col, "cannot iterate over value of type %s", iterable.Kind())
	}
	return loopErr
}

// iterateValue calls visit once per element of an iterable value in the
// order spec.md prescribes: lists by insertion, dicts by insertion order
// of keys (the iteration variable is bound to each key, matching Python's
// default dict iteration), strings by code point, ranges in natural
// order. visit returns true to stop early (break) without signalling an
// error here: the caller inspects its own state to tell break from a
// propagating error.
func iterateValue(v value.Value, visit func(value.Value) (stop bool)) error {
	switch x := v.(type) {
	case *value.List:
		for _, e := range x.Elems {
			if visit(e) {
				return nil
			}
		}
	case *value.Dict:
		for _, k := range x.Keys() {
			if visit(k) {
				return nil
			}
		}
	case value.Str:
		for _, r := range string(x) {
			if visit(value.Str(string(r))) {
				return nil
			}
		}
	case *value.Range:
		x.Iterate(func(i value.Int) bool { return !visit(i) })
	default:
		return errNotIterable
	}
	return nil
}

// errNotIterable is a sentinel evalForEach checks for by identity to
// produce a RuntimeError carrying the ForEach statement's own position;
// it never escapes this package.
var errNotIterable = errors.New("not iterable")

// evalTry executes the try-body in its own scope; a RuntimeError is
// caught (running the catch-body, with the error optionally bound to a
// string describing it) while break/continue/return signals propagate
// through untouched, so e.g. a return inside a try still returns from
// the enclosing function.
func (it *interp) evalTry(s *ast.Try, env *Env) error {
	terr := it.evalBlockBody(s.TryBody, env)
	if terr == nil {
		return nil
	}
	switch terr.(type) {
	case breakSignal, continueSignal, returnSignal:
		return terr
	}

	catchEnv := env
	if s.ErrBinding != "" {
		catchEnv = env.Declare(s.ErrBinding, value.Str(terr.Error()))
	}
	return it.evalBlockBody(s.CatchBody, catchEnv)
}
