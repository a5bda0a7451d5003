// Package store provides an observable key-value store.
//
// A Store maps keys to arbitrary values and lets observers subscribe to
// individual keys. Writing a key with Set commits the new value and then
// synchronously notifies every observer of that key.
//
// Usage:
//
//	s := store.New()
//
//	counter := store.NewObserver(func() {
//	    fmt.Println("counter is now", s.Get("counter"))
//	})
//	s.Subscribe("counter", counter)
//
//	s.Set("counter", store.Value(75))
//	s.Set("counter", store.ReduceOf(func(c int) int { return c - 1 }))
//
//	s.Unsubscribe("counter", counter)
//
// Keys:
//
// Keys are strings. Multi-segment keys are built with Path and joined with
// Delimiter, so Path("user", 7, "name") and "user.7.name" are the same key.
//
// Seeding:
//
// Initialize writes a value without notifying anyone. Binding layers use it
// to store a default on first read so that seeding never looks like a
// change. Has reports whether a key was ever written, which is the only way
// to tell an absent key from one that holds nil.
//
// Notification:
//
// Observers run after the write is committed, outside the store lock, over
// a copy of the observer list taken at that point. An observer that calls
// Set, Subscribe or Unsubscribe from inside Notify does not disturb the pass
// that is running: every observer in the copy is called exactly once.
package store
