package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/kvstore/internal/logging"
	"github.com/vango-dev/kvstore/pkg/bind"
	"github.com/vango-dev/kvstore/pkg/store"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the counter scenario against a fresh store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runDemo(cmd.OutOrStdout())
			return nil
		},
	}
}

// runDemo sets a counter, decrements it with a reducer and shows each
// notification, then does the same through a bound subscriber.
func runDemo(w io.Writer) {
	s := store.New(store.WithLogger(logging.For("store")))

	info(w, "subscribe counter")
	var calls int
	obs := store.NewObserver(func() {
		calls++
		info(w, "notify #%d: counter = %v", calls, s.Get("counter"))
	})
	s.Subscribe("counter", obs)

	info(w, "set counter = 75")
	s.Set("counter", store.Value(75))

	info(w, "set counter with reducer c - 1")
	s.Set("counter", store.ReduceOf(func(c int) int { return c - 1 }))

	s.Unsubscribe("counter", obs)
	success(w, "counter = %v after %d notifications", s.Get("counter"), calls)

	ctx := bind.WithStore(context.Background(), s)
	key := store.Path("user", "name")

	var refreshes int
	name := bind.Use(ctx, key, "anon", func() { refreshes++ })
	info(w, "bound %s, default %q seeded without notifying", name.Key(), name.Get())

	name.Set(store.Value("ada"))
	info(w, "%s = %q after %d refresh", name.Key(), name.Get(), refreshes)

	name.Close()
	if n := s.Observers(key); n != 0 {
		warn(w, "%d observers left on %s", n, key)
	}
	success(w, "subscriber closed")
}
