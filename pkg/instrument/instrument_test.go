package instrument

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/kvstore/pkg/store"
)

func quietStore(inst store.Instrument) *store.Store {
	return store.New(
		store.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		store.WithInstrument(inst),
	)
}

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mf := findFamily(t, reg, name)
	if mf == nil {
		return 0
	}
	for _, m := range mf.GetMetric() {
		if labelsMatch(m, labels) {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func histogramCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	mf := findFamily(t, reg, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0
	}
	return mf.GetMetric()[0].GetHistogram().GetSampleCount()
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestPrometheusRecordsStoreActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := quietStore(Prometheus(WithRegistry(reg)))

	s.Subscribe("counter", store.NewObserver(func() {}))
	s.Subscribe("counter", store.NewObserver(func() {}))

	s.Initialize("counter", 75)
	s.Set("counter", store.Value(74))
	s.Set("other", store.Value(1))
	s.Delete("counter")
	s.Unsubscribe("ghost", store.NewObserver(func() {}))

	if got := counterValue(t, reg, "kvstore_writes_total", map[string]string{"op": "set"}); got != 2 {
		t.Errorf("writes_total{op=set} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "kvstore_writes_total", map[string]string{"op": "initialize"}); got != 1 {
		t.Errorf("writes_total{op=initialize} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "kvstore_writes_total", map[string]string{"op": "delete"}); got != 1 {
		t.Errorf("writes_total{op=delete} = %v, want 1", got)
	}

	// Only the set and delete on "counter" had observers.
	if got := counterValue(t, reg, "kvstore_notifications_total", nil); got != 2 {
		t.Errorf("notifications_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "kvstore_observers_notified_total", nil); got != 4 {
		t.Errorf("observers_notified_total = %v, want 4", got)
	}
	if got := histogramCount(t, reg, "kvstore_notify_duration_seconds"); got != 2 {
		t.Errorf("notify_duration_seconds count = %d, want 2", got)
	}
	if got := counterValue(t, reg, "kvstore_orphaned_unsubscribes_total", nil); got != 1 {
		t.Errorf("orphaned_unsubscribes_total = %v, want 1", got)
	}
}

func TestPrometheusOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := quietStore(Prometheus(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("cache"),
		WithConstLabels(prometheus.Labels{"instance": "a"}),
		WithBuckets([]float64{0.001, 0.01}),
	))

	s.Set("k", store.Value(1))

	if got := counterValue(t, reg, "app_cache_writes_total", map[string]string{"op": "set", "instance": "a"}); got != 1 {
		t.Errorf("app_cache_writes_total = %v, want 1", got)
	}
	if findFamily(t, reg, "kvstore_writes_total") != nil {
		t.Error("default namespace should not be used when overridden")
	}
}

func TestPrometheusSeparateRegistries(t *testing.T) {
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()
	a := quietStore(Prometheus(WithRegistry(regA)))
	_ = quietStore(Prometheus(WithRegistry(regB)))

	a.Set("k", store.Value(1))

	if got := counterValue(t, regA, "kvstore_writes_total", map[string]string{"op": "set"}); got != 1 {
		t.Errorf("registry A writes = %v, want 1", got)
	}
	if got := counterValue(t, regB, "kvstore_writes_total", map[string]string{"op": "set"}); got != 0 {
		t.Errorf("registry B writes = %v, want 0", got)
	}
}

// recordingProvider hands out a tracer that records started spans.
type recordingProvider struct {
	noop.TracerProvider

	mu    sync.Mutex
	names []string
	spans []*recordedSpan
}

func (p *recordingProvider) Tracer(name string, _ ...trace.TracerOption) trace.Tracer {
	p.mu.Lock()
	p.names = append(p.names, name)
	p.mu.Unlock()
	return &recordingTracer{provider: p}
}

type recordingTracer struct {
	noop.Tracer
	provider *recordingProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordedSpan{name: name, attrs: cfg.Attributes()}
	t.provider.mu.Lock()
	t.provider.spans = append(t.provider.spans, span)
	t.provider.mu.Unlock()
	return ctx, span
}

type recordedSpan struct {
	noop.Span
	name   string
	attrs  []attribute.KeyValue
	events []string
	ended  bool
}

func (s *recordedSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.events = append(s.events, name)
}

func (s *recordedSpan) End(...trace.SpanEndOption) {
	s.ended = true
}

func (s *recordedSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOpenTelemetryNotifySpan(t *testing.T) {
	provider := &recordingProvider{}
	s := quietStore(OpenTelemetry(WithTracerProvider(provider)))

	var spansDuringNotify int
	s.Subscribe("user.name", store.NewObserver(func() {
		spansDuringNotify = len(provider.spans)
	}))
	s.Subscribe("user.name", store.NewObserver(func() {}))

	s.Initialize("user.name", "anon")
	s.Set(store.Path("user", "name"), store.Value("ada"))

	if len(provider.spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(provider.spans))
	}
	span := provider.spans[0]
	if span.name != SpanNotify {
		t.Errorf("span name = %q, want %q", span.name, SpanNotify)
	}
	if !span.ended {
		t.Error("span should be ended after the pass")
	}
	if spansDuringNotify != 1 {
		t.Error("span should be started before observers run")
	}
	if v, ok := span.attr("kvstore.key"); !ok || v.AsString() != "user.name" {
		t.Errorf("kvstore.key = %v, want user.name", v.Emit())
	}
	if v, ok := span.attr("kvstore.observers"); !ok || v.AsInt64() != 2 {
		t.Errorf("kvstore.observers = %v, want 2", v.Emit())
	}
}

func TestOpenTelemetryOrphanedSpan(t *testing.T) {
	provider := &recordingProvider{}
	s := quietStore(OpenTelemetry(WithTracerProvider(provider), WithTracerName("custom")))

	s.Unsubscribe("ghost", store.NewObserver(func() {}))

	if len(provider.names) != 1 || provider.names[0] != "custom" {
		t.Errorf("tracer names = %v, want [custom]", provider.names)
	}
	if len(provider.spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(provider.spans))
	}
	span := provider.spans[0]
	if span.name != SpanUnsubscribe {
		t.Errorf("span name = %q, want %q", span.name, SpanUnsubscribe)
	}
	if len(span.events) != 1 || span.events[0] != "orphaned" {
		t.Errorf("events = %v, want [orphaned]", span.events)
	}
	if !span.ended {
		t.Error("span should be ended")
	}
}

func TestOpenTelemetryDefaultProvider(t *testing.T) {
	s := quietStore(OpenTelemetry())
	var calls int
	s.Subscribe("k", store.NewObserver(func() { calls++ }))

	s.Set("k", store.Value(1))

	if calls != 1 {
		t.Errorf("expected 1 call with the global provider, got %d", calls)
	}
}

type countingInstrument struct {
	name string
	log  *[]string
}

func (c countingInstrument) Write(op store.Op, _ store.Key) {
	*c.log = append(*c.log, c.name+":write:"+string(op))
}

func (c countingInstrument) Notify(store.Key, int) func() {
	*c.log = append(*c.log, c.name+":notify")
	return func() { *c.log = append(*c.log, c.name+":done") }
}

func (c countingInstrument) Orphaned(store.Key) {
	*c.log = append(*c.log, c.name+":orphaned")
}

func TestMulti(t *testing.T) {
	var log []string
	inst := Multi(countingInstrument{"a", &log}, nil, countingInstrument{"b", &log})
	s := quietStore(inst)
	s.Subscribe("k", store.NewObserver(func() { log = append(log, "observer") }))

	s.Set("k", store.Value(1))
	s.Unsubscribe("ghost", store.NewObserver(func() {}))

	want := []string{
		"a:write:set", "b:write:set",
		"a:notify", "b:notify",
		"observer",
		"b:done", "a:done",
		"a:orphaned", "b:orphaned",
	}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestMultiCollapses(t *testing.T) {
	if Multi() != nil {
		t.Error("Multi() should be nil")
	}
	if Multi(nil, nil) != nil {
		t.Error("Multi of nils should be nil")
	}
	var log []string
	single := countingInstrument{"a", &log}
	if got := Multi(single); got != store.Instrument(single) {
		t.Error("Multi with one instrument should return it unchanged")
	}
}
