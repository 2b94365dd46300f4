package parser

import (
	"strings"
	"testing"

	"github.com/aledsdavies/rocket/pkgs/ast"
)

func mustParse(t *testing.T, src string) *ast.Root {
	t.Helper()
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", src, err)
	}
	return root
}

func TestParseVarDeclAndExpr(t *testing.T) {
	root := mustParse(t, `let x = 1; x = 2;`)
	if len(root.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(root.Items))
	}
	if _, ok := root.Items[0].(*ast.VarDecl); !ok {
		t.Errorf("item 0 = %T, want *ast.VarDecl", root.Items[0])
	}
	if _, ok := root.Items[1].(*ast.Assignment); !ok {
		t.Errorf("item 1 = %T, want *ast.Assignment", root.Items[1])
	}
}

func TestParseFnDefinition(t *testing.T) {
	root := mustParse(t, `fn add(a, b) { return a; }`)
	fn, ok := root.Items[0].(*ast.FnDefinition)
	if !ok {
		t.Fatalf("item 0 = %T, want *ast.FnDefinition", root.Items[0])
	}
	if fn.Name != "add" {
		t.Errorf("Name = %q, want %q", fn.Name, "add")
	}
	if len(fn.Params) != 2 || fn.Params[0] != "a" || fn.Params[1] != "b" {
		t.Errorf("Params = %v, want [a b]", fn.Params)
	}
}

func TestParseIfElseChain(t *testing.T) {
	root := mustParse(t, `if (x) { y; } else if (z) { w; } else { v; }`)
	ifStmt, ok := root.Items[0].(*ast.If)
	if !ok {
		t.Fatalf("item 0 = %T, want *ast.If", root.Items[0])
	}
	elseIf, ok := ifStmt.Else.(*ast.If)
	if !ok {
		t.Fatalf("Else = %T, want *ast.If", ifStmt.Else)
	}
	if _, ok := elseIf.Else.(*ast.Block); !ok {
		t.Errorf("nested Else = %T, want *ast.Block", elseIf.Else)
	}
}

func TestParseForEach(t *testing.T) {
	root := mustParse(t, `for (let item in list) { print(item); }`)
	fe, ok := root.Items[0].(*ast.ForEach)
	if !ok {
		t.Fatalf("item 0 = %T, want *ast.ForEach", root.Items[0])
	}
	if fe.Binding != "item" {
		t.Errorf("Binding = %q, want %q", fe.Binding, "item")
	}
}

// A C-style for loop lowers to a Block containing an init VarDecl followed
// by a While whose body ends with the post-expression injected before
// every continue (including the implicit one appended at the bottom).
func TestParseCStyleForDesugarsToWhile(t *testing.T) {
	root := mustParse(t, `for (let i = 0; lt(i, 10); i = add(i, 1)) { print(i); }`)
	block, ok := root.Items[0].(*ast.Block)
	if !ok {
		t.Fatalf("item 0 = %T, want *ast.Block", root.Items[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("got %d statements in lowered block, want 2", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*ast.VarDecl); !ok {
		t.Errorf("stmt 0 = %T, want *ast.VarDecl", block.Stmts[0])
	}
	whileStmt, ok := block.Stmts[1].(*ast.While)
	if !ok {
		t.Fatalf("stmt 1 = %T, want *ast.While", block.Stmts[1])
	}
	// The body should end in a Block wrapping [post-expr, continue] because
	// parseCStyleFor appends an implicit trailing continue before rewriting.
	n := len(whileStmt.Body.Stmts)
	if n == 0 {
		t.Fatal("while body has no statements")
	}
	last, ok := whileStmt.Body.Stmts[n-1].(*ast.Block)
	if !ok {
		t.Fatalf("last stmt = %T, want *ast.Block wrapping [post, continue]", whileStmt.Body.Stmts[n-1])
	}
	if len(last.Stmts) != 2 {
		t.Fatalf("wrapped post/continue block has %d stmts, want 2", len(last.Stmts))
	}
	if _, ok := last.Stmts[1].(*ast.Continue); !ok {
		t.Errorf("wrapped stmt 1 = %T, want *ast.Continue", last.Stmts[1])
	}
}

// An explicit continue inside a C-style for body must also be rewritten to
// run the post-expression first, not just the implicit trailing one.
func TestParseCStyleForRewritesExplicitContinue(t *testing.T) {
	root := mustParse(t, `for (let i = 0; lt(i, 10); i = add(i, 1)) { if (eq(i, 5)) { continue; } print(i); }`)
	block := root.Items[0].(*ast.Block)
	whileStmt := block.Stmts[1].(*ast.While)
	ifStmt := whileStmt.Body.Stmts[0].(*ast.If)
	wrapped, ok := ifStmt.Then.Stmts[0].(*ast.Block)
	if !ok {
		t.Fatalf("rewritten continue = %T, want *ast.Block wrapping [post, continue]", ifStmt.Then.Stmts[0])
	}
	if len(wrapped.Stmts) != 2 {
		t.Fatalf("wrapped block has %d stmts, want 2", len(wrapped.Stmts))
	}
	if _, ok := wrapped.Stmts[1].(*ast.Continue); !ok {
		t.Errorf("wrapped stmt 1 = %T, want *ast.Continue", wrapped.Stmts[1])
	}
}

// A continue inside a loop NESTED within a C-style for body must NOT be
// rewritten: it belongs to the inner loop, not the outer one's post-expr.
func TestParseCStyleForDoesNotRewriteNestedLoopContinue(t *testing.T) {
	root := mustParse(t, `for (let i = 0; lt(i, 10); i = add(i, 1)) { while (true) { continue; } }`)
	block := root.Items[0].(*ast.Block)
	whileStmt := block.Stmts[1].(*ast.While)
	inner := whileStmt.Body.Stmts[0].(*ast.While)
	if _, ok := inner.Body.Stmts[0].(*ast.Continue); !ok {
		t.Errorf("inner loop's continue was rewritten to %T, want untouched *ast.Continue", inner.Body.Stmts[0])
	}
}

func TestParseTryCatchWithBinding(t *testing.T) {
	root := mustParse(t, `try { risky(); } catch (e) { print(e); }`)
	tryStmt, ok := root.Items[0].(*ast.Try)
	if !ok {
		t.Fatalf("item 0 = %T, want *ast.Try", root.Items[0])
	}
	if tryStmt.ErrBinding != "e" {
		t.Errorf("ErrBinding = %q, want %q", tryStmt.ErrBinding, "e")
	}
}

func TestParseTryCatchWithoutBinding(t *testing.T) {
	root := mustParse(t, `try { risky(); } catch { recover(); }`)
	tryStmt := root.Items[0].(*ast.Try)
	if tryStmt.ErrBinding != "" {
		t.Errorf("ErrBinding = %q, want empty", tryStmt.ErrBinding)
	}
}

func TestBreakOutsideLoopIsSyntaxError(t *testing.T) {
	_, err := Parse(`break;`)
	if err == nil {
		t.Fatal("expected an error for break outside loop")
	}
	if !strings.Contains(err.Error(), "break") {
		t.Errorf("error %q does not mention break", err.Error())
	}
}

func TestContinueOutsideLoopIsSyntaxError(t *testing.T) {
	_, err := Parse(`continue;`)
	if err == nil {
		t.Fatal("expected an error for continue outside loop")
	}
}

func TestReturnOutsideFunctionIsSyntaxError(t *testing.T) {
	_, err := Parse(`return 1;`)
	if err == nil {
		t.Fatal("expected an error for return outside a function")
	}
}

func TestBreakInsideFunctionInsideLoopIsValid(t *testing.T) {
	root, err := Parse(`fn f() { while (true) { break; } return 1; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := root.Items[0].(*ast.FnDefinition)
	if len(fn.Body.Stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(fn.Body.Stmts))
	}
}

func TestParseCallAttrAndItemSuffixes(t *testing.T) {
	root := mustParse(t, `x.foo()[0].bar = y;`)
	assign, ok := root.Items[0].(*ast.AttrAssign)
	if !ok {
		t.Fatalf("item 0 = %T, want *ast.AttrAssign", root.Items[0])
	}
	if assign.Name != "bar" {
		t.Errorf("Name = %q, want %q", assign.Name, "bar")
	}
	if _, ok := assign.Obj.(*ast.ItemAccess); !ok {
		t.Errorf("Obj = %T, want *ast.ItemAccess", assign.Obj)
	}
}

func TestParseListAndDictLiterals(t *testing.T) {
	root := mustParse(t, `let x = [1, 2, 3]; let y = {"a": 1, "b": 2};`)
	listDecl := root.Items[0].(*ast.VarDecl)
	list, ok := listDecl.Expr.(*ast.ListLit)
	if !ok || len(list.Elems) != 3 {
		t.Fatalf("Expr = %T, want *ast.ListLit with 3 elements", listDecl.Expr)
	}
	dictDecl := root.Items[1].(*ast.VarDecl)
	dict, ok := dictDecl.Expr.(*ast.DictLit)
	if !ok || len(dict.Entries) != 2 {
		t.Fatalf("Expr = %T, want *ast.DictLit with 2 entries", dictDecl.Expr)
	}
}

func TestSyntaxErrorReportsTokenPosition(t *testing.T) {
	_, err := Parse("let x = ;")
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("error = %T, want *SyntaxError", err)
	}
	if se.Line != 1 {
		t.Errorf("Line = %d, want 1", se.Line)
	}
}
