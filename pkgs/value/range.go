package value

import "fmt"

// Range is a lazy integer sequence produced by the range() builtin. It
// never materializes its elements: ForEach walks it through Iterate, which
// computes each element on the fly, so "for (let i in range(1000000000)) { break; }" costs
// O(1) rather than allocating a billion-element list.
type Range struct {
	start, stop, step int64
}

// NewRange builds a Range from already-normalized start/stop/step
// (step must be non-zero; the builtin validates this before construction).
func NewRange(start, stop, step int64) *Range {
	return &Range{start: start, stop: stop, step: step}
}

func (*Range) Kind() Kind { return KindRange }

func (r *Range) Truthy() bool { return r.Len() > 0 }

func (r *Range) String() string {
	return fmt.Sprintf("range(%d, %d, %d)", r.start, r.stop, r.step)
}

// Len returns the number of elements the range produces, without
// iterating them.
func (r *Range) Len() int {
	if r.step > 0 {
		if r.stop <= r.start {
			return 0
		}
		return int((r.stop - r.start + r.step - 1) / r.step)
	}
	if r.stop >= r.start {
		return 0
	}
	return int((r.start - r.stop - r.step - 1) / -r.step)
}

// Iterate calls visit once per element in order, stopping early if visit
// returns false.
func (r *Range) Iterate(visit func(Int) bool) {
	if r.step > 0 {
		for i := r.start; i < r.stop; i += r.step {
			if !visit(Int(i)) {
				return
			}
		}
		return
	}
	for i := r.start; i > r.stop; i += r.step {
		if !visit(Int(i)) {
			return
		}
	}
}
