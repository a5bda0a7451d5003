package instrument

import "github.com/vango-dev/kvstore/pkg/store"

type multi []store.Instrument

// Multi fans every call out to each instrument in order. Nil entries are
// dropped; with nothing left Multi returns nil, which a Store ignores.
func Multi(instruments ...store.Instrument) store.Instrument {
	var m multi
	for _, inst := range instruments {
		if inst != nil {
			m = append(m, inst)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

func (m multi) Write(op store.Op, key store.Key) {
	for _, inst := range m {
		inst.Write(op, key)
	}
}

func (m multi) Notify(key store.Key, observers int) func() {
	var done []func()
	for _, inst := range m {
		if fn := inst.Notify(key, observers); fn != nil {
			done = append(done, fn)
		}
	}
	if len(done) == 0 {
		return nil
	}
	return func() {
		for i := len(done) - 1; i >= 0; i-- {
			done[i]()
		}
	}
}

func (m multi) Orphaned(key store.Key) {
	for _, inst := range m {
		inst.Orphaned(key)
	}
}
