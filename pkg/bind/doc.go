// Package bind connects a store.Store to code that needs to refresh when a
// key changes.
//
// A store is provided on a context.Context with WithStore and looked up with
// FromContext. Use creates a Subscriber from that context and panics with
// ErrNoStore when no store was provided, since carrying on would silently
// drop updates.
//
// Usage:
//
//	ctx := bind.WithStore(context.Background(), store.New())
//
//	count := bind.Use(ctx, "counter", 0, func() {
//	    redraw()
//	})
//	defer count.Close()
//
//	count.Update(func(n int) int { return n + 1 })
//
// A Subscriber follows the binding contract expected by the store: defaults
// are seeded with Initialize rather than Set, each subscriber holds exactly
// one observer registration, and that registration is removed when the
// subscriber is closed or moved to another key.
package bind
