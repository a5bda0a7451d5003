package bind

import (
	"context"

	"github.com/vango-dev/kvstore/internal/errors"
	"github.com/vango-dev/kvstore/pkg/store"
)

// ErrNoStore is returned (or panicked with) when a binding is used on a
// context that carries no store. Compare with errors.Is.
var ErrNoStore error = errors.New("K001")

// storeKey is the context key for the provided store.
var storeKey = &struct{ name string }{"kvstore"}

// WithStore returns a copy of ctx that provides s to bindings created from
// it. A nil store is treated as no provider.
func WithStore(ctx context.Context, s *store.Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// FromContext returns the store provided on ctx, or ErrNoStore.
func FromContext(ctx context.Context) (*store.Store, error) {
	if ctx == nil {
		return nil, ErrNoStore
	}
	s, ok := ctx.Value(storeKey).(*store.Store)
	if !ok || s == nil {
		return nil, ErrNoStore
	}
	return s, nil
}

// MustFromContext is like FromContext but panics with ErrNoStore when no
// store is provided. Bindings fail fast here rather than continue without
// reactivity.
func MustFromContext(ctx context.Context) *store.Store {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
