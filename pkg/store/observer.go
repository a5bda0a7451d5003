package store

import "sync/atomic"

// Observer is notified after the value of a key it is subscribed to changes.
//
// Observers are identified by ID, not by value. Two observers that do the
// same thing but were created separately are distinct registrations, and
// Unsubscribe only removes the one whose ID matches.
type Observer interface {
	// Notify is called synchronously from Set or Delete once the new value
	// is committed. It may call back into the store.
	Notify()

	// ID returns a process-unique identifier for this observer.
	ID() uint64
}

// Func adapts a plain callback into an Observer with its own identity.
type Func struct {
	id uint64
	fn func()
}

// NewObserver wraps fn in a Func with a fresh ID.
// Keep the returned pointer to unsubscribe later.
func NewObserver(fn func()) *Func {
	return &Func{id: NextID(), fn: fn}
}

// Notify calls the wrapped callback.
func (f *Func) Notify() {
	if f.fn != nil {
		f.fn()
	}
}

// ID returns the observer's identifier.
func (f *Func) ID() uint64 {
	return f.id
}

// idCounter is the source of observer IDs. IDs are never reused.
var idCounter uint64

// NextID returns the next process-unique observer ID. Types that implement
// Observer directly should take their ID from here.
func NextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// observerSet is an insertion-ordered set of observers keyed by ID.
type observerSet struct {
	list  []Observer
	index map[uint64]int
}

func newObserverSet() *observerSet {
	return &observerSet{index: make(map[uint64]int)}
}

// add appends o unless an observer with the same ID is already present.
func (s *observerSet) add(o Observer) bool {
	id := o.ID()
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.list)
	s.list = append(s.list, o)
	return true
}

// remove deletes o and keeps the remaining observers in insertion order.
func (s *observerSet) remove(o Observer) bool {
	id := o.ID()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	copy(s.list[i:], s.list[i+1:])
	s.list[len(s.list)-1] = nil
	s.list = s.list[:len(s.list)-1]
	delete(s.index, id)
	for j := i; j < len(s.list); j++ {
		s.index[s.list[j].ID()] = j
	}
	return true
}

// snapshot copies the current observers so notification can run without
// the store lock and without seeing concurrent edits to the set.
func (s *observerSet) snapshot() []Observer {
	if len(s.list) == 0 {
		return nil
	}
	subs := make([]Observer, len(s.list))
	copy(subs, s.list)
	return subs
}

func (s *observerSet) len() int {
	return len(s.list)
}
