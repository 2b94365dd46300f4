package interpreter

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/rocket/pkgs/ast"
	"github.com/aledsdavies/rocket/pkgs/value"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

func (it *interp) evalExpr(expr ast.Expr, env *Env) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.BoolLit:
		return value.Bool(e.Val), nil
	case *ast.IntLit:
		return value.Int(e.Val), nil
	case *ast.FloatLit:
		return value.Float(e.Val), nil
	case *ast.StrLit:
		return value.Str(e.Val), nil
	case *ast.NullLit:
		return value.Null{}, nil

	case *ast.ListLit:
		elems := make([]value.Value, len(e.Elems))
		for i, el := range e.Elems {
			v, err := it.evalExpr(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewList(elems), nil

	case *ast.DictLit:
		d := value.NewDict()
		for _, entry := range e.Entries {
			k, err := it.evalExpr(entry.Key, env)
			if err != nil {
				return nil, err
			}
			if !value.IsHashable(k) {
				return nil, NewRuntimeError(e.Line, e.Col, "unhashable type used as dict key: %s", k.Kind())
			}
			v, err := it.evalExpr(entry.Val, env)
			if err != nil {
				return nil, err
			}
			d.Set(k, v)
		}
		return d, nil

	case *ast.Access:
		v, ok := env.Lookup(e.Name)
		if !ok {
			return nil, NewRuntimeError(e.Line, e.Col, "%s", undefinedMsg("undefined variable", e.Name, env.Names()))
		}
		return v, nil

	case *ast.Assignment:
		val, err := it.evalExpr(e.Expr, env)
		if err != nil {
			return nil, err
		}
		if !env.Assign(e.Name, val) {
			return nil, NewRuntimeError(e.Line, e.Col, "%s", undefinedMsg("cannot assign to undeclared variable", e.Name, env.Names()))
		}
		return val, nil

	case *ast.AttrAccess:
		return it.evalAttrAccess(e, env)
	case *ast.AttrAssign:
		return it.evalAttrAssign(e, env)
	case *ast.ItemAccess:
		return it.evalItemAccess(e, env)
	case *ast.ItemAssign:
		return it.evalItemAssign(e, env)
	case *ast.Call:
		return it.evalCall(e, env)

	default:
		internalf("unhandled expression node type: %T", expr)
		return nil, nil
	}
}

// undefinedMsg builds a RuntimeError message with an optional "did you
// mean" suggestion: the candidate with the smallest case-insensitive edit
// distance to name, if it is within half of name's length.
func undefinedMsg(prefix, name string, candidates []string) string {
	msg := fmt.Sprintf("%s: %s", prefix, name)
	if s := suggest(name, candidates); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return msg
}

func suggest(name string, candidates []string) string {
	best, bestDist := "", len(name)/2+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// evalAttrAccess implements the closed attribute model: on a Dict, .name
// is pure sugar for item access by string key; on List/Str, the only
// attribute is the read-only "length" accessor. There is no general
// getattr passthrough.
func (it *interp) evalAttrAccess(e *ast.AttrAccess, env *Env) (value.Value, error) {
	obj, err := it.evalExpr(e.Obj, env)
	if err != nil {
		return nil, err
	}
	if d, ok := obj.(*value.Dict); ok {
		v, found := d.Get(value.Str(e.Name))
		if !found {
			return nil, NewRuntimeError(e.Line, e.Col, "cannot access attribute %q on value of type %s", e.Name, obj.Kind())
		}
		return v, nil
	}
	if e.Name == "length" {
		switch o := obj.(type) {
		case *value.List:
			return value.Int(len(o.Elems)), nil
		case value.Str:
			return value.Int(len([]rune(string(o)))), nil
		}
	}
	return nil, NewRuntimeError(e.Line, e.Col, "cannot access attribute %q on value of type %s", e.Name, obj.Kind())
}

// evalAttrAssign: only Dict supports attribute assignment, as sugar for
// ItemAssign by string key. "length" is read-only on List/Str, and there
// is nothing else to assign on any other kind.
func (it *interp) evalAttrAssign(e *ast.AttrAssign, env *Env) (value.Value, error) {
	obj, err := it.evalExpr(e.Obj, env)
	if err != nil {
		return nil, err
	}
	val, err := it.evalExpr(e.Expr, env)
	if err != nil {
		return nil, err
	}
	d, ok := obj.(*value.Dict)
	if !ok {
		return nil, NewRuntimeError(e.Line, e.Col, "cannot set attribute %q on value of type %s", e.Name, obj.Kind())
	}
	d.Set(value.Str(e.Name), val)
	return val, nil
}

func (it *interp) evalItemAccess(e *ast.ItemAccess, env *Env) (value.Value, error) {
	obj, err := it.evalExpr(e.Obj, env)
	if err != nil {
		return nil, err
	}
	key, err := it.evalExpr(e.Key, env)
	if err != nil {
		return nil, err
	}
	v, ok := indexGet(obj, key)
	if !ok {
		return nil, NewRuntimeError(e.Line, e.Col, "cannot access item %s on value of type %s", key, obj.Kind())
	}
	return v, nil
}

func (it *interp) evalItemAssign(e *ast.ItemAssign, env *Env) (value.Value, error) {
	obj, err := it.evalExpr(e.Obj, env)
	if err != nil {
		return nil, err
	}
	key, err := it.evalExpr(e.Key, env)
	if err != nil {
		return nil, err
	}
	val, err := it.evalExpr(e.Expr, env)
	if err != nil {
		return nil, err
	}
	if !indexSet(obj, key, val) {
		return nil, NewRuntimeError(e.Line, e.Col, "cannot assign item %s on value of type %s", key, obj.Kind())
	}
	return val, nil
}

// indexGet supports List/Str indexing by int (negative indices count
// from the end, as in the source language) and Dict indexing by any
// hashable key.
func indexGet(obj, key value.Value) (value.Value, bool) {
	switch o := obj.(type) {
	case *value.List:
		idx, ok := asIndex(key, len(o.Elems))
		if !ok {
			return nil, false
		}
		return o.Elems[idx], true
	case value.Str:
		runes := []rune(string(o))
		idx, ok := asIndex(key, len(runes))
		if !ok {
			return nil, false
		}
		return value.Str(string(runes[idx])), true
	case *value.Dict:
		if !value.IsHashable(key) {
			return nil, false
		}
		return o.Get(key)
	default:
		return nil, false
	}
}

// indexSet supports List element replacement and Dict key assignment.
// Strings are immutable: item assignment on a Str is always rejected.
func indexSet(obj, key, val value.Value) bool {
	switch o := obj.(type) {
	case *value.List:
		idx, ok := asIndex(key, len(o.Elems))
		if !ok {
			return false
		}
		o.Elems[idx] = val
		return true
	case *value.Dict:
		if !value.IsHashable(key) {
			return false
		}
		o.Set(key, val)
		return true
	default:
		return false
	}
}

func asIndex(key value.Value, length int) (int, bool) {
	n, ok := key.(value.Int)
	if !ok {
		return 0, false
	}
	i := int(n)
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

// evalCall dispatches on the callee's runtime kind: a user-defined
// *value.Function closure, a host-provided value.BuiltinFunc, the
// value.Undefined forward-reference sentinel (a call too early in a
// mutual-recursion cycle), or anything else, which is not callable.
func (it *interp) evalCall(e *ast.Call, env *Env) (value.Value, error) {
	callee, err := it.evalExpr(e.Callee, env)
	if err != nil {
		return nil, err
	}

	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := it.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch fn := callee.(type) {
	case value.Undefined:
		return nil, NewRuntimeError(e.Line, e.Col, "cannot call fn %s before it is defined", e.Callee)
	case value.BuiltinFunc:
		v, err := fn.Call(args)
		if err != nil {
			return nil, NewRuntimeError(e.Line, e.Col, "error calling %s: %s", e.Callee, err)
		}
		return v, nil
	case *value.Function:
		return it.callFunction(fn, args, e.Line, e.Col)
	default:
		return nil, NewRuntimeError(e.Line, e.Col, "cannot call non-callable value %s of type %s", e.Callee, callee.Kind())
	}
}

func (it *interp) callFunction(fn *value.Function, args []value.Value, line, col int) (value.Value, error) {
	if len(fn.Params) != len(args) {
		return nil, NewRuntimeError(line, col, "call %s: want %d arg(s), got %d", fn.Name, len(fn.Params), len(args))
	}

	it.trace("call enter: %s", fn.Name)
	defer it.trace("call exit: %s", fn.Name)

	callEnv, _ := fn.Env.(*Env)
	for i, p := range fn.Params {
		// Parameters are bound directly with Declare, outside any block's
		// declared-name set, so they are never checked for redeclaration.
		callEnv = callEnv.Declare(p, args[i])
	}

	body, ok := fn.Body.(*ast.Block)
	if !ok {
		internalf("function %s: body has unexpected type %T", fn.Name, fn.Body)
	}

	err := it.evalBlockBody(body, callEnv)
	if err == nil {
		return value.Null{}, nil
	}
	if rs, ok := err.(returnSignal); ok {
		if rs.Val == nil {
			return value.Null{}, nil
		}
		return rs.Val, nil
	}
	return nil, err
}
