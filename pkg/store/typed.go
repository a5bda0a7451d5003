package store

// Lookup returns the value under key as a T. The boolean is false when the
// key is absent or holds a value of another type.
func Lookup[T any](s *Store, key Key) (T, bool) {
	v, ok := s.Get(key).(T)
	return v, ok
}

// ValueOf returns the value under key as a T, or T's zero value.
func ValueOf[T any](s *Store, key Key) T {
	v, _ := Lookup[T](s, key)
	return v
}

// ReduceOf adapts a typed reducer into a Mutator. fn receives T's zero value
// when the current value is absent or not a T.
//
//	s.Set("counter", store.ReduceOf(func(c int) int { return c - 1 }))
func ReduceOf[T any](fn func(T) T) Mutator {
	return Reduce(func(current any) any {
		v, _ := current.(T)
		return fn(v)
	})
}
