package interpreter

import "github.com/aledsdavies/rocket/pkgs/value"

// cell is a mutable binding slot shared by every Env node that points to
// it, so assignment (which must update every binding with a matching
// name — see spec note on assignment semantics) is visible through every
// alias of that node without needing to rebuild the chain.
type cell struct {
	val value.Value
}

// Env is a persistent (immutable-once-created) singly-linked binding
// chain: declaring a variable prepends a new node and returns it,
// leaving every existing Env value pointing at the unchanged tail. A
// closure does not simply keep a pointer into this live chain — see
// Snapshot — because assignment mutates a binding's *cell in place, and
// the defining scope keeps running (and reassigning) after the closure
// is built.
type Env struct {
	name   string
	cell   *cell
	parent *Env
}

// Declare extends e with a new binding, returning the chain to use for
// whatever follows (the rest of the current block, or the callee's
// parameter list). It does not check for redeclaration: that is a
// per-block concern enforced by the caller (see evalBlockBody).
func (e *Env) Declare(name string, val value.Value) *Env {
	return &Env{name: name, cell: &cell{val: val}, parent: e}
}

// Lookup finds the nearest binding for name, innermost scope first.
func (e *Env) Lookup(name string) (value.Value, bool) {
	for s := e; s != nil; s = s.parent {
		if s.name == name {
			return s.cell.val, true
		}
	}
	return nil, false
}

// Assign updates every binding matching name anywhere in the chain (not
// just the nearest one), matching the source's observable assignment
// behavior. Reports whether any binding was found.
func (e *Env) Assign(name string, val value.Value) bool {
	found := false
	for s := e; s != nil; s = s.parent {
		if s.name == name {
			s.cell.val = val
			found = true
		}
	}
	return found
}

// Has reports whether name is bound anywhere in the chain.
func (e *Env) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Snapshot returns an independent copy of e's binding chain for a
// closure to capture at definition time: every binding gets a fresh
// *cell holding a copy of its current value, so assignment to the live
// chain afterward (including reassigning a variable that existed at
// capture time) is never visible inside the closure — only mutations
// the closure's own execution makes to its own snapshot are.
//
// The one exception is a cell still holding the value.Undefined
// forward-declaration sentinel: that cell is shared by reference
// instead of copied, so the pre-declaration pass's later fixup (Assign
// replacing the sentinel with the real closure, once built) stays
// visible to every sibling snapshot taken in between — which is what
// lets mutually recursive top-level functions call each other
// regardless of definition order.
func (e *Env) Snapshot() *Env {
	if e == nil {
		return nil
	}
	parent := e.parent.Snapshot()
	c := e.cell
	if _, ok := c.val.(value.Undefined); !ok {
		c = &cell{val: c.val}
	}
	return &Env{name: e.name, cell: c, parent: parent}
}

// Names returns every distinct visible binding name, nearest first. Used
// to rank "did you mean" suggestions against everything currently in
// scope.
func (e *Env) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for s := e; s != nil; s = s.parent {
		if !seen[s.name] {
			seen[s.name] = true
			names = append(names, s.name)
		}
	}
	return names
}
