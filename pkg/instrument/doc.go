// Package instrument provides store.Instrument implementations backed by
// Prometheus and OpenTelemetry.
//
//	reg := prometheus.NewRegistry()
//	s := store.New(store.WithInstrument(instrument.Multi(
//	    instrument.Prometheus(instrument.WithRegistry(reg)),
//	    instrument.OpenTelemetry(),
//	)))
package instrument
