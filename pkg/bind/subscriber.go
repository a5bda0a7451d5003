package bind

import (
	"context"
	"sync"

	"github.com/vango-dev/kvstore/pkg/store"
)

// Subscriber is a reactive view of one store key.
//
// It registers itself as the single observer for its key and calls refresh
// whenever the key changes. Switching keys with Rebind or tearing down with
// Close unsubscribes that same registration, so a subscriber never leaves
// stale entries behind.
type Subscriber[T any] struct {
	id      uint64
	store   *store.Store
	def     T
	refresh func()

	mu     sync.Mutex
	key    store.Key
	closed bool
}

// Use creates a Subscriber on the store provided by ctx.
// It panics with ErrNoStore if ctx carries no store.
//
//	ctx = bind.WithStore(ctx, s)
//	count := bind.Use(ctx, "counter", 0, rerender)
//	defer count.Close()
func Use[T any](ctx context.Context, key store.Key, def T, refresh func()) *Subscriber[T] {
	return New(MustFromContext(ctx), key, def, refresh)
}

// New creates a Subscriber for key on s. If key has no value yet, def is
// stored with Initialize so seeding does not notify other observers.
func New[T any](s *store.Store, key store.Key, def T, refresh func()) *Subscriber[T] {
	sub := &Subscriber[T]{
		id:      store.NextID(),
		store:   s,
		def:     def,
		refresh: refresh,
		key:     key,
	}
	sub.attach(key)
	return sub
}

// attach seeds the default and registers the subscriber on key. A
// subscriber on NoKey stays detached until rebound.
func (sub *Subscriber[T]) attach(key store.Key) {
	if key == store.NoKey {
		return
	}
	if !sub.store.Has(key) {
		sub.store.Initialize(key, sub.def)
	}
	sub.store.Subscribe(key, sub)
}

// Key returns the key currently observed.
func (sub *Subscriber[T]) Key() store.Key {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.key
}

// Get returns the current value, or the default when the key is absent or
// holds a value that is not a T.
func (sub *Subscriber[T]) Get() T {
	if v, ok := store.Lookup[T](sub.store, sub.Key()); ok {
		return v
	}
	return sub.def
}

// Set writes the key through the store, notifying all of its observers.
func (sub *Subscriber[T]) Set(m store.Mutator) {
	sub.store.Set(sub.Key(), m)
}

// Update applies fn to the current value. fn receives the default when the
// key is absent or holds a value that is not a T.
func (sub *Subscriber[T]) Update(fn func(T) T) {
	def := sub.def
	sub.store.Set(sub.Key(), store.Reduce(func(current any) any {
		v, ok := current.(T)
		if !ok {
			v = def
		}
		return fn(v)
	}))
}

// Rebind moves the subscriber to a different key. The registration on the
// old key is removed first. Rebinding to the current key, or after Close,
// does nothing.
func (sub *Subscriber[T]) Rebind(key store.Key) {
	sub.mu.Lock()
	if sub.closed || sub.key == key {
		sub.mu.Unlock()
		return
	}
	old := sub.key
	sub.key = key
	sub.mu.Unlock()

	sub.store.Unsubscribe(old, sub)
	sub.attach(key)
}

// Close removes the subscriber from the store. It is safe to call more
// than once.
func (sub *Subscriber[T]) Close() {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.closed = true
	key := sub.key
	sub.mu.Unlock()

	sub.store.Unsubscribe(key, sub)
}

// Notify implements store.Observer.
func (sub *Subscriber[T]) Notify() {
	sub.mu.Lock()
	closed := sub.closed
	sub.mu.Unlock()

	if closed || sub.refresh == nil {
		return
	}
	sub.refresh()
}

// ID implements store.Observer.
func (sub *Subscriber[T]) ID() uint64 {
	return sub.id
}
