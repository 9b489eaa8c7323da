package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/rcrowley/go-metrics"
)

// Metrics is the go-metrics backed Engine.
type Metrics struct {
	MetricsRegistry metrics.Registry

	RequestMeters  map[RequestKind]metrics.Meter
	RequestTimers  map[RequestKind]metrics.Timer
	WrapperDepth   metrics.Histogram
	BreakStarted   metrics.Meter
	BreakCompleted metrics.Meter

	// failure meters appear dynamically per error code
	failureMeters  map[string]metrics.Meter
	failureRWMutex sync.RWMutex

	// beacon meters appear dynamically per event name
	beaconMeters  map[string]metrics.Meter
	beaconRWMutex sync.RWMutex
}

// NewMetrics creates an Engine registering everything on the given registry.
func NewMetrics(registry metrics.Registry) *Metrics {
	m := &Metrics{
		MetricsRegistry: registry,
		RequestMeters:   make(map[RequestKind]metrics.Meter),
		RequestTimers:   make(map[RequestKind]metrics.Timer),
		WrapperDepth:    metrics.GetOrRegisterHistogram("wrapper_depth", registry, metrics.NewExpDecaySample(1028, 0.015)),
		BreakStarted:    metrics.GetOrRegisterMeter("breaks.started", registry),
		BreakCompleted:  metrics.GetOrRegisterMeter("breaks.completed", registry),
		failureMeters:   make(map[string]metrics.Meter),
		beaconMeters:    make(map[string]metrics.Meter),
	}
	for _, kind := range RequestKinds() {
		m.RequestMeters[kind] = metrics.GetOrRegisterMeter(fmt.Sprintf("requests.%s", kind), registry)
		m.RequestTimers[kind] = metrics.GetOrRegisterTimer(fmt.Sprintf("request_time.%s", kind), registry)
	}
	return m
}

// NewEngine returns a registry-backed engine when collection is enabled and
// the blank engine otherwise.
func NewEngine(enabled bool) Engine {
	if enabled {
		return NewMetrics(metrics.NewRegistry())
	}
	return NewBlankMetrics()
}

// NewBlankMetrics creates an Engine backed entirely by nil metrics. Useful
// for tests and for hosts that do not collect metrics.
func NewBlankMetrics() *Metrics {
	m := &Metrics{
		MetricsRegistry: metrics.NewRegistry(),
		RequestMeters:   make(map[RequestKind]metrics.Meter),
		RequestTimers:   make(map[RequestKind]metrics.Timer),
		WrapperDepth:    metrics.NilHistogram{},
		BreakStarted:    &metrics.NilMeter{},
		BreakCompleted:  &metrics.NilMeter{},
		failureMeters:   make(map[string]metrics.Meter),
		beaconMeters:    make(map[string]metrics.Meter),
	}
	for _, kind := range RequestKinds() {
		m.RequestMeters[kind] = &metrics.NilMeter{}
		m.RequestTimers[kind] = &metrics.NilTimer{}
	}
	return m
}

func (m *Metrics) RecordRequest(kind RequestKind) {
	if meter, ok := m.RequestMeters[kind]; ok {
		meter.Mark(1)
	}
}

func (m *Metrics) RecordRequestTime(kind RequestKind, length time.Duration) {
	if timer, ok := m.RequestTimers[kind]; ok {
		timer.Update(length)
	}
}

func (m *Metrics) RecordFailure(kind RequestKind, errorCode int) {
	m.getOrCreate(&m.failureRWMutex, m.failureMeters, fmt.Sprintf("failures.%s.%d", kind, errorCode)).Mark(1)
}

func (m *Metrics) RecordWrapperDepth(depth int) {
	m.WrapperDepth.Update(int64(depth))
}

func (m *Metrics) RecordBeacon(event string) {
	m.getOrCreate(&m.beaconRWMutex, m.beaconMeters, fmt.Sprintf("beacons.%s", event)).Mark(1)
}

func (m *Metrics) RecordBeaconFailure(event string) {
	m.getOrCreate(&m.beaconRWMutex, m.beaconMeters, fmt.Sprintf("beacons.%s.dropped", event)).Mark(1)
}

func (m *Metrics) RecordBreakStarted() {
	m.BreakStarted.Mark(1)
}

func (m *Metrics) RecordBreakCompleted() {
	m.BreakCompleted.Mark(1)
}

func (m *Metrics) getOrCreate(mu *sync.RWMutex, meters map[string]metrics.Meter, name string) metrics.Meter {
	mu.RLock()
	meter, ok := meters[name]
	mu.RUnlock()
	if ok {
		return meter
	}

	mu.Lock()
	defer mu.Unlock()
	meter, ok = meters[name]
	if !ok {
		meter = metrics.GetOrRegisterMeter(name, m.MetricsRegistry)
		meters[name] = meter
	}
	return meter
}
