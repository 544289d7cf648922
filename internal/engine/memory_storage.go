package engine

import (
	"sync"
	"time"
)

type memoryCircuitLog struct {
	mu        sync.Mutex
	events    []Event
	maxEvents int
	status    StatusRecord
	hasStatus bool
}

// Memory is the per-event bounded-buffer Storage backend (spec.md §4.5).
// Each circuit gets its own capped ring of events; insertion evicts the
// oldest. Counting walks the buffer and includes events with
// monotonic_ts >= now - window. Guarded by a per-circuit lock.
type Memory struct {
	mu        sync.Mutex
	clock     Clock
	maxEvents int
	circuits  map[string]*memoryCircuitLog
}

// NewMemory builds a Memory backend capping each circuit's event buffer at
// maxEvents (default 1000 if <= 0).
func NewMemory(maxEvents int, clock Clock) *Memory {
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	if clock == nil {
		clock = defaultClock
	}
	return &Memory{clock: clock, maxEvents: maxEvents, circuits: make(map[string]*memoryCircuitLog)}
}

func (m *Memory) logFor(name string) *memoryCircuitLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.circuits[name]
	if !ok {
		l = &memoryCircuitLog{maxEvents: m.maxEvents}
		m.circuits[name] = l
	}
	return l
}

func (m *Memory) record(name string, ev Event) {
	l := m.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	if len(l.events) > l.maxEvents {
		l.events = l.events[len(l.events)-l.maxEvents:]
	}
}

func (m *Memory) RecordSuccess(name string, d time.Duration) {
	m.record(name, Event{Kind: EventSuccessKind, Timestamp: m.clock.Monotonic(), Duration: d, CorrelationID: newCorrelationID()})
}

func (m *Memory) RecordFailure(name string, d time.Duration, errInfo string) {
	m.record(name, Event{Kind: EventFailureKind, Timestamp: m.clock.Monotonic(), Duration: d, ErrorClass: errInfo, CorrelationID: newCorrelationID()})
}

func (m *Memory) count(name string, window time.Duration, kind EventKind) int {
	l := m.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := m.clock.Monotonic() - int64(window)
	n := 0
	for _, ev := range l.events {
		if ev.Kind == kind && ev.Timestamp >= cutoff {
			n++
		}
	}
	return n
}

func (m *Memory) SuccessCount(name string, window time.Duration) int {
	return m.count(name, window, EventSuccessKind)
}

func (m *Memory) FailureCount(name string, window time.Duration) int {
	return m.count(name, window, EventFailureKind)
}

func (m *Memory) GetStatus(name string) (StatusRecord, bool) {
	l := m.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status, l.hasStatus
}

func (m *Memory) SetStatus(name string, rec StatusRecord) {
	l := m.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = rec
	l.hasStatus = true
}

func (m *Memory) Clear(name string) {
	m.mu.Lock()
	delete(m.circuits, name)
	m.mu.Unlock()
}

func (m *Memory) ClearAll() {
	m.mu.Lock()
	m.circuits = make(map[string]*memoryCircuitLog)
	m.mu.Unlock()
}

func (m *Memory) EventLog(name string, limit int) []Event {
	l := m.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.events) {
		limit = len(l.events)
	}
	out := make([]Event, limit)
	copy(out, l.events[len(l.events)-limit:])
	return out
}
