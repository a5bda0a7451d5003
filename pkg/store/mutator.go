package store

// Mutator describes how Set computes the next value for a key.
// Build one with Value or Reduce.
type Mutator interface {
	apply(current any) any
}

// Value returns a Mutator that replaces the current value with v.
//
// v is stored as-is even when it is itself a function; only Reduce runs
// code against the current value.
func Value(v any) Mutator {
	return valueMutator{v: v}
}

// Reduce returns a Mutator that computes the next value from the current
// one. fn receives nil when the key has no value.
//
// fn should be pure: it runs outside the store lock and may be invoked
// while other writes to the same key are in flight.
func Reduce(fn func(current any) any) Mutator {
	return reduceMutator{fn: fn}
}

type valueMutator struct {
	v any
}

func (m valueMutator) apply(any) any {
	return m.v
}

type reduceMutator struct {
	fn func(any) any
}

func (m reduceMutator) apply(current any) any {
	if m.fn == nil {
		return current
	}
	return m.fn(current)
}
