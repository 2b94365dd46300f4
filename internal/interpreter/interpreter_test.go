package interpreter_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aledsdavies/rocket/internal/interpreter"
	"github.com/aledsdavies/rocket/pkgs/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (stdout string, err error) {
	t.Helper()
	root, perr := parser.Parse(src)
	require.NoError(t, perr, "source failed to parse: %s", src)

	var out bytes.Buffer
	err = interpreter.Evaluate(root, interpreter.Config{Stdout: &out})
	return out.String(), err
}

func TestVarDeclAndPrint(t *testing.T) {
	out, err := run(t, `let x = add(1, 2); print(x);`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestRedeclareInSameScopeIsError(t *testing.T) {
	_, err := run(t, `let x = 1; let x = 2;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redeclare")
}

func TestShadowingInNestedBlockIsAllowed(t *testing.T) {
	out, err := run(t, `
		let x = 1;
		if (true) {
			let x = 2;
			print(x);
		}
		print(x);
	`)
	require.NoError(t, err)
	assert.Equal(t, "2\n1\n", out)
}

func TestAssignmentUpdatesOuterScope(t *testing.T) {
	out, err := run(t, `
		let x = 1;
		if (true) {
			x = 2;
		}
		print(x);
	`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestWhileLoopWithBreakAndContinue(t *testing.T) {
	out, err := run(t, `
		let i = 0;
		while (lt(i, 10)) {
			i = add(i, 1);
			if (eq(mod(i, 2), 0)) {
				continue;
			}
			if (eq(i, 7)) {
				break;
			}
			print(i);
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n3\n5\n", out)
}

func TestCStyleForLoopDesugarsAndRunsPostOnContinue(t *testing.T) {
	out, err := run(t, `
		for (let i = 0; lt(i, 5); i = add(i, 1)) {
			if (eq(mod(i, 2), 0)) {
				continue;
			}
			print(i);
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n3\n", out)
}

func TestForEachOverListDictStringAndRange(t *testing.T) {
	out, err := run(t, `
		for (let v in [1, 2, 3]) { print(v); }
		for (let k in {"a": 1, "b": 2}) { print(k); }
		for (let c in "ab") { print(c); }
		for (let r in range(3)) { print(r); }
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\na\nb\na\nb\n0\n1\n2\n", out)
}

func TestForEachBreakStopsIteration(t *testing.T) {
	out, err := run(t, `
		for (let v in range(1000000000)) {
			if (eq(v, 3)) {
				break;
			}
			print(v);
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestFunctionClosureCapturesDefiningScopeNotCallSite(t *testing.T) {
	out, err := run(t, `
		let x = 1;
		fn makeAdder() {
			return x;
		}
		if (true) {
			let x = 99;
			print(makeAdder());
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestFunctionClosureIsIsolatedFromLaterAssignmentToCapturedVariable(t *testing.T) {
	out, err := run(t, `
		let x = 1;
		fn get() {
			return x;
		}
		x = 99;
		print(get());
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestMutualRecursionViaForwardDeclaration(t *testing.T) {
	out, err := run(t, `
		fn isEven(n) {
			if (eq(n, 0)) {
				return true;
			}
			return isOdd(sub(n, 1));
		}
		fn isOdd(n) {
			if (eq(n, 0)) {
				return false;
			}
			return isEven(sub(n, 1));
		}
		print(isEven(10));
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestCallingFnBeforeDefinitionIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		let result = early();
		fn early() { return 1; }
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before it is defined")
}

func TestTryCatchBindsErrorMessage(t *testing.T) {
	out, err := run(t, `
		try {
			let x = undeclared_name;
		} catch (e) {
			print(e);
		}
	`)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "undefined variable: undeclared_name"))
}

func TestReturnInsideTryPropagatesThroughCatch(t *testing.T) {
	out, err := run(t, `
		fn f() {
			try {
				return 1;
			} catch (e) {
				return 2;
			}
		}
		print(f());
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestDictAttrAccessIsSugarForItemAccess(t *testing.T) {
	out, err := run(t, `
		let d = {"name": "rocket"};
		print(d.name);
		d.name = "liftoff";
		print(d["name"]);
	`)
	require.NoError(t, err)
	assert.Equal(t, "rocket\nliftoff\n", out)
}

func TestListAndStringExposeOnlyLengthAttribute(t *testing.T) {
	out, err := run(t, `
		let l = [1, 2, 3];
		print(l.length);
		print("hello".length);
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n5\n", out)
}

func TestListAttrOtherThanLengthIsRuntimeError(t *testing.T) {
	_, err := run(t, `let l = [1]; print(l.nope);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access attribute")
}

func TestListItemAssignSupportsNegativeIndex(t *testing.T) {
	out, err := run(t, `
		let l = [1, 2, 3];
		l[-1] = 99;
		print(l[0]);
		print(l[2]);
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n99\n", out)
}

func TestDictRejectsUnhashableKey(t *testing.T) {
	_, err := run(t, `let d = {}; d[[1, 2]] = 1;`)
	require.Error(t, err)
}

func TestUndefinedVariableSuggestsClosestName(t *testing.T) {
	_, err := run(t, `let count = 1; print(coutn);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "count"?`)
}

func TestFunctionArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		fn f(a, b) { return a; }
		f(1);
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 2 arg(s), got 1")
}
