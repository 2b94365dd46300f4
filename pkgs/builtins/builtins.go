// Package builtins implements the registry of host-provided functions
// callable from Rocket source, and the standard catalogue bound into
// every interpreter's base scope.
package builtins

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/rocket/pkgs/value"
)

// Func is a host function's implementation: already-evaluated arguments
// in, a Value or an error out. Arity mismatches and type errors are
// reported the same way: a plain error, which the caller (the evaluator)
// wraps into a RuntimeError with call-site position.
type Func func(args []value.Value) (value.Value, error)

// Builtin pairs a catalogue entry's name with its implementation so the
// registry can expose a name-sorted listing (Catalogue) without a second
// lookup.
type Builtin struct {
	Name string
	Fn   Func
}

// Registry holds the set of built-in functions visible to a program,
// following the teacher's DecoratorRegistry: a mutex-guarded map behind a
// small read/write API, safe to extend at runtime (e.g. host embedders
// adding domain-specific functions) without synchronizing callers.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]Func
}

// NewRegistry returns a Registry pre-populated with the standard
// catalogue.
func NewRegistry() *Registry {
	r := &Registry{fns: make(map[string]Func)}
	r.registerStandard()
	return r
}

// Register adds or replaces a named builtin.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = fn
}

// Get returns the builtin bound to name, if any.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalogue returns every registered builtin, name-sorted.
func (r *Registry) Catalogue() []Builtin {
	names := r.Names()
	out := make([]Builtin, len(names))
	for i, name := range names {
		fn, _ := r.Get(name)
		out[i] = Builtin{Name: name, Fn: fn}
	}
	return out
}

// Suggest ranks name against every registered builtin by case-insensitive
// edit distance and returns the closest match, or "" if nothing is within
// half of name's length.
func (r *Registry) Suggest(name string) string {
	best, bestDist := "", len(name)/2+1
	for _, c := range r.Names() {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Standard is the process-wide default registry, following the teacher's
// package-level StandardDecorators instance.
var Standard = NewRegistry()

func (r *Registry) registerStandard() {
	// comparison
	r.Register("lt", compareFn(func(c int) bool { return c < 0 }))
	r.Register("le", compareFn(func(c int) bool { return c <= 0 }))
	r.Register("eq", eqFn(true))
	r.Register("ne", eqFn(false))
	r.Register("ge", compareFn(func(c int) bool { return c >= 0 }))
	r.Register("gt", compareFn(func(c int) bool { return c > 0 }))

	// arithmetic
	r.Register("abs", absFn)
	r.Register("add", arithFn("add", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	r.Register("sub", arithFn("sub", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }))
	r.Register("mul", arithFn("mul", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	r.Register("div", divFn)
	r.Register("pow", powFn)
	r.Register("neg", negFn)
	r.Register("mod", modFn)
	r.Register("floor_div", floorDivFn)

	// logical
	r.Register("not", notFn)
	r.Register("or", orFn)
	r.Register("and", andFn)

	// parsing
	r.Register("parse_int", parseIntFn)
	r.Register("parse_float", parseFloatFn)

	// misc
	r.Register("format", formatFn)
	r.Register("range", rangeFn)
	r.Register("len", lenFn)
}

// BindIO registers "print" and "input" against the given streams. Kept
// separate from registerStandard because the streams are a per-run
// concern (the interpreter's Config), not a process-wide default.
func (r *Registry) BindIO(out io.Writer, in io.Reader) {
	r.Register("print", printFn(out))
	r.Register("input", inputFn(in))
}

func wrongArgs(name string, want string, got int) error {
	return fmt.Errorf("%s: want %s argument(s), got %d", name, want, got)
}

func typeError(name string, v value.Value) error {
	return fmt.Errorf("%s: unsupported operand type %s", name, v.Kind())
}

func asNumber(v value.Value) (float64, bool, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), false, true
	case value.Float:
		return float64(n), true, true
	default:
		return 0, false, false
	}
}

func compareFn(accept func(cmp int) bool) Func {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, wrongArgs("compare", "2", len(args))
		}
		c, err := compareValues(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return value.Bool(accept(c)), nil
	}
}

func compareValues(a, b value.Value) (int, error) {
	af, _, aok := asNumber(a)
	bf, _, bok := asNumber(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	as, aok := a.(value.Str)
	bs, bok := b.(value.Str)
	if aok && bok {
		return strings.Compare(string(as), string(bs)), nil
	}
	return 0, fmt.Errorf("cannot compare %s and %s", a.Kind(), b.Kind())
}

func eqFn(wantEqual bool) Func {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, wrongArgs("eq/ne", "2", len(args))
		}
		eq := valuesEqual(args[0], args[1])
		return value.Bool(eq == wantEqual), nil
	}
}

func valuesEqual(a, b value.Value) bool {
	if af, _, aok := asNumber(a); aok {
		if bf, _, bok := asNumber(b); bok {
			return af == bf
		}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case value.Bool:
		return av == b.(value.Bool)
	case value.Str:
		return av == b.(value.Str)
	case value.Null:
		return true
	default:
		return a == b
	}
}

func absFn(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, wrongArgs("abs", "1", len(args))
	}
	switch n := args[0].(type) {
	case value.Int:
		if n < 0 {
			return -n, nil
		}
		return n, nil
	case value.Float:
		if n < 0 {
			return -n, nil
		}
		return n, nil
	default:
		return nil, typeError("abs", args[0])
	}
}

func arithFn(name string, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) Func {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, wrongArgs(name, "2", len(args))
		}
		ai, aIsFloat, aok := asNumber(args[0])
		bi, bIsFloat, bok := asNumber(args[1])
		if !aok {
			return nil, typeError(name, args[0])
		}
		if !bok {
			return nil, typeError(name, args[1])
		}
		if aIsFloat || bIsFloat {
			return value.Float(floatOp(ai, bi)), nil
		}
		return value.Int(intOp(int64(ai), int64(bi))), nil
	}
}

func divFn(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, wrongArgs("div", "2", len(args))
	}
	a, _, aok := asNumber(args[0])
	b, _, bok := asNumber(args[1])
	if !aok {
		return nil, typeError("div", args[0])
	}
	if !bok {
		return nil, typeError("div", args[1])
	}
	if b == 0 {
		return nil, fmt.Errorf("div: division by zero")
	}
	return value.Float(a / b), nil
}

// powFn binds "pow" to exponentiation. The Python original bound it to
// operator.pos (unary plus) by mistake; see the catalogue note in
// SPEC_FULL.md for the corrected behavior implemented here.
func powFn(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, wrongArgs("pow", "2", len(args))
	}
	base, baseIsFloat, aok := asNumber(args[0])
	exp, expIsFloat, bok := asNumber(args[1])
	if !aok {
		return nil, typeError("pow", args[0])
	}
	if !bok {
		return nil, typeError("pow", args[1])
	}
	if !baseIsFloat && !expIsFloat && exp >= 0 {
		result := int64(1)
		b := int64(base)
		for i := int64(0); i < int64(exp); i++ {
			result *= b
		}
		return value.Int(result), nil
	}
	return value.Float(ipow(base, exp)), nil
}

func ipow(base, exp float64) float64 {
	return math.Pow(base, exp)
}

func negFn(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, wrongArgs("neg", "1", len(args))
	}
	switch n := args[0].(type) {
	case value.Int:
		return -n, nil
	case value.Float:
		return -n, nil
	default:
		return nil, typeError("neg", args[0])
	}
}

func modFn(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, wrongArgs("mod", "2", len(args))
	}
	a, aIsFloat, aok := asNumber(args[0])
	b, bIsFloat, bok := asNumber(args[1])
	if !aok {
		return nil, typeError("mod", args[0])
	}
	if !bok {
		return nil, typeError("mod", args[1])
	}
	if b == 0 {
		return nil, fmt.Errorf("mod: division by zero")
	}
	if aIsFloat || bIsFloat {
		m := a - b*float64(int64(a/b))
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return value.Float(m), nil
	}
	ai, bi := int64(a), int64(b)
	m := ai % bi
	if m != 0 && (m < 0) != (bi < 0) {
		m += bi
	}
	return value.Int(m), nil
}

func floorDivFn(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, wrongArgs("floor_div", "2", len(args))
	}
	a, aIsFloat, aok := asNumber(args[0])
	b, bIsFloat, bok := asNumber(args[1])
	if !aok {
		return nil, typeError("floor_div", args[0])
	}
	if !bok {
		return nil, typeError("floor_div", args[1])
	}
	if b == 0 {
		return nil, fmt.Errorf("floor_div: division by zero")
	}
	q := a / b
	fq := float64(int64(q))
	if q < 0 && fq != q {
		fq--
	}
	if aIsFloat || bIsFloat {
		return value.Float(fq), nil
	}
	return value.Int(int64(fq)), nil
}

func notFn(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, wrongArgs("not", "1", len(args))
	}
	return value.Bool(!args[0].Truthy()), nil
}

// orFn returns the first truthy argument, or the last argument if none
// are truthy — the original's short-circuit-over-return-value semantics
// (not a strict boolean "or"), applied to an arbitrary number of operands.
func orFn(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, wrongArgs("or", "at least 2", len(args))
	}
	for _, a := range args {
		if a.Truthy() {
			return a, nil
		}
	}
	return args[len(args)-1], nil
}

// andFn returns the first falsy argument, or the last argument if all are
// truthy.
func andFn(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, wrongArgs("and", "at least 2", len(args))
	}
	for _, a := range args {
		if !a.Truthy() {
			return a, nil
		}
	}
	return args[len(args)-1], nil
}

func parseIntFn(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, wrongArgs("parse_int", "1", len(args))
	}
	s, ok := args[0].(value.Str)
	if !ok {
		return nil, typeError("parse_int", args[0])
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(s)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse_int: invalid literal %q", string(s))
	}
	return value.Int(n), nil
}

func parseFloatFn(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, wrongArgs("parse_float", "1", len(args))
	}
	s, ok := args[0].(value.Str)
	if !ok {
		return nil, typeError("parse_float", args[0])
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return nil, fmt.Errorf("parse_float: invalid literal %q", string(s))
	}
	return value.Float(f), nil
}

// formatFn implements the original's str.format-style substitution,
// restricted to "{}" positional placeholders (no field names, no format
// specs) since the language has no string-method syntax to spell them.
func formatFn(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, wrongArgs("format", "at least 1", len(args))
	}
	tmpl, ok := args[0].(value.Str)
	if !ok {
		return nil, typeError("format", args[0])
	}
	rest := args[1:]
	var sb strings.Builder
	argIdx := 0
	s := string(tmpl)
	for i := 0; i < len(s); i++ {
		if s[i] == '{' && i+1 < len(s) && s[i+1] == '}' {
			if argIdx >= len(rest) {
				return nil, fmt.Errorf("format: not enough arguments for template %q", s)
			}
			sb.WriteString(rest[argIdx].String())
			argIdx++
			i++
			continue
		}
		sb.WriteByte(s[i])
	}
	return value.Str(sb.String()), nil
}

func rangeFn(args []value.Value) (value.Value, error) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		n, ok := args[0].(value.Int)
		if !ok {
			return nil, typeError("range", args[0])
		}
		stop = int64(n)
	case 2, 3:
		a, ok := args[0].(value.Int)
		if !ok {
			return nil, typeError("range", args[0])
		}
		b, ok := args[1].(value.Int)
		if !ok {
			return nil, typeError("range", args[1])
		}
		start, stop = int64(a), int64(b)
		if len(args) == 3 {
			s, ok := args[2].(value.Int)
			if !ok {
				return nil, typeError("range", args[2])
			}
			step = int64(s)
			if step == 0 {
				return nil, fmt.Errorf("range: step must not be zero")
			}
		}
	default:
		return nil, wrongArgs("range", "1, 2, or 3", len(args))
	}
	return value.NewRange(start, stop, step), nil
}

func lenFn(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, wrongArgs("len", "1", len(args))
	}
	switch v := args[0].(type) {
	case value.Str:
		return value.Int(len([]rune(string(v)))), nil
	case *value.List:
		return value.Int(len(v.Elems)), nil
	case *value.Dict:
		return value.Int(v.Len()), nil
	case *value.Range:
		return value.Int(v.Len()), nil
	default:
		return nil, typeError("len", args[0])
	}
}

func printFn(out io.Writer) Func {
	return func(args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
		return value.Null{}, nil
	}
}

func inputFn(in io.Reader) Func {
	return func(args []value.Value) (value.Value, error) {
		var line string
		_, err := fmt.Fscanln(in, &line)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("input: %w", err)
		}
		return value.Str(line), nil
	}
}
