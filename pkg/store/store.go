package store

import (
	"log/slog"
	"sort"
	"sync"
)

// Store is an observable key-value table.
//
// Every write commits before any observer runs, and observers are called
// without the store lock held, so an observer may read, write, subscribe or
// unsubscribe on the same store. Concurrent writers to one key are resolved
// by last writer wins.
type Store struct {
	mu sync.RWMutex

	// values holds one entry per key that has been set or initialized.
	// A present key may map to nil.
	values map[Key]any

	// observers holds the observer set of each key that was ever
	// subscribed to. Sets are kept when they become empty.
	observers map[Key]*observerSet

	logger *slog.Logger
	inst   Instrument
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		values:    make(map[Key]any),
		observers: make(map[Key]*observerSet),
		logger:    slog.Default().With("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	shared     *Store
	sharedOnce sync.Once
)

// Shared returns the process-wide Store, creating it on first use.
// Code that needs isolation, tests in particular, should use New instead.
func Shared() *Store {
	sharedOnce.Do(func() {
		shared = New()
	})
	return shared
}

// Subscribe registers o for changes to key. Subscribing the same observer
// to the same key again has no effect. NoKey is ignored, matching
// Unsubscribe.
func (s *Store) Subscribe(key Key, o Observer) {
	if key == NoKey || o == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.observers[key]
	if !ok {
		set = newObserverSet()
		s.observers[key] = set
	}
	set.add(o)
}

// Unsubscribe removes o from the observers of key.
//
// NoKey is ignored so teardown code can run before a key is known.
// A key that never had observers is logged as a warning and otherwise
// ignored.
func (s *Store) Unsubscribe(key Key, o Observer) {
	if key == NoKey || o == nil {
		return
	}

	s.mu.Lock()
	set, ok := s.observers[key]
	if ok {
		set.remove(o)
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Warn("unsubscribe from key with no observers", "key", string(key))
		if s.inst != nil {
			s.inst.Orphaned(key)
		}
	}
}

// Set computes the next value of key from m, commits it, and then notifies
// every observer registered for key before returning.
//
// A Reduce mutator receives the current value, or nil when key is absent.
// A nil Mutator stores nil.
func (s *Store) Set(key Key, m Mutator) {
	s.mu.RLock()
	current := s.values[key]
	s.mu.RUnlock()

	var next any
	if m != nil {
		next = m.apply(current)
	}

	s.mu.Lock()
	s.values[key] = next
	subs := s.snapshotLocked(key)
	s.mu.Unlock()

	if s.inst != nil {
		s.inst.Write(OpSet, key)
	}
	s.notify(key, subs)
}

// Initialize stores value under key without notifying observers.
// It is meant for seeding defaults on first read.
func (s *Store) Initialize(key Key, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	if s.inst != nil {
		s.inst.Write(OpInitialize, key)
	}
}

// Delete removes key from the value table and notifies its observers.
// Has reports false as soon as the observers run. Deleting an absent key
// does nothing and returns false. Observer registrations are kept.
func (s *Store) Delete(key Key) bool {
	s.mu.Lock()
	if _, ok := s.values[key]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.values, key)
	subs := s.snapshotLocked(key)
	s.mu.Unlock()

	if s.inst != nil {
		s.inst.Write(OpDelete, key)
	}
	s.notify(key, subs)
	return true
}

// Get returns the value stored under key, or nil if there is none.
// Use Has to tell an absent key from one that holds nil.
func (s *Store) Get(key Key) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Has reports whether key has been set or initialized.
func (s *Store) Has(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Keys returns the present keys in sorted order.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of present keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Observers returns how many observers are registered for key.
func (s *Store) Observers(key Key) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if set, ok := s.observers[key]; ok {
		return set.len()
	}
	return 0
}

// snapshotLocked copies the observers of key. Caller holds s.mu.
func (s *Store) snapshotLocked(key Key) []Observer {
	if set, ok := s.observers[key]; ok {
		return set.snapshot()
	}
	return nil
}

// notify runs one pass over subs. Each observer is called exactly once even
// if the set changes while the pass is running.
func (s *Store) notify(key Key, subs []Observer) {
	if len(subs) == 0 {
		return
	}
	if s.inst != nil {
		if done := s.inst.Notify(key, len(subs)); done != nil {
			defer done()
		}
	}
	for _, o := range subs {
		o.Notify()
	}
}
