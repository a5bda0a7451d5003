package store

import "log/slog"

// Op names a committed write.
type Op string

const (
	OpSet        Op = "set"
	OpInitialize Op = "initialize"
	OpDelete     Op = "delete"
)

// Instrument observes store activity. Implementations live in
// pkg/instrument; a Store without one skips all calls.
type Instrument interface {
	// Write is called after a write has been committed.
	Write(op Op, key Key)

	// Notify is called before a notification pass over observers.
	// The returned function, if non-nil, runs once the pass is complete.
	Notify(key Key, observers int) func()

	// Orphaned is called when Unsubscribe targets a key that has no
	// observer set.
	Orphaned(key Key)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInstrument attaches an Instrument to the store.
func WithInstrument(inst Instrument) Option {
	return func(s *Store) {
		s.inst = inst
	}
}
