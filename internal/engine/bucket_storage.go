package engine

import (
	"sync"
	"time"
)

type bucket struct {
	windowStart int64 // unix seconds this bucket currently represents
	successes   uint32
	failures    uint32
}

type bucketCircuitLog struct {
	mu        sync.Mutex
	buckets   []bucket
	status    StatusRecord
	hasStatus bool
	eventsLog []Event // small ring for EventLog(); independent of bucket counts
}

const bucketEventLogCap = 64

// BucketMemory is the default Storage backend: a ring of 1-second-wide
// buckets, each circuit independent. Memory is O(bucket_count) regardless
// of event rate. Grounded on itsneelabh-gomind/resilience's SlidingWindow
// bucket-ring technique (rotateBuckets), adapted to the simpler
// fixed-width-second bucket spec.md §4.5 calls for.
type BucketMemory struct {
	mu          sync.Mutex
	bucketCount int
	clock       Clock
	circuits    map[string]*bucketCircuitLog
}

// NewBucketMemory builds a BucketMemory with bucketCount 1-second buckets
// (default 60 if <= 0).
func NewBucketMemory(bucketCount int, clock Clock) *BucketMemory {
	if bucketCount <= 0 {
		bucketCount = 60
	}
	if clock == nil {
		clock = defaultClock
	}
	return &BucketMemory{bucketCount: bucketCount, clock: clock, circuits: make(map[string]*bucketCircuitLog)}
}

func (b *BucketMemory) logFor(name string) *bucketCircuitLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.circuits[name]
	if !ok {
		l = &bucketCircuitLog{buckets: make([]bucket, b.bucketCount)}
		b.circuits[name] = l
	}
	return l
}

func (b *BucketMemory) nowSec() int64 { return b.clock.Now().Unix() }

// index computes the bucket slot and resets it if stale, per spec.md §4.5:
// "bucket = floor(now) mod bucket_count; if that bucket's timestamp is
// stale (older than bucket_count seconds), it is reset before incrementing."
func (l *bucketCircuitLog) index(now int64, bucketCount int) *bucket {
	idx := now % int64(bucketCount)
	buck := &l.buckets[idx]
	if now-buck.windowStart >= int64(bucketCount) || buck.windowStart == 0 {
		buck.windowStart = now
		buck.successes = 0
		buck.failures = 0
	}
	return buck
}

func (b *BucketMemory) recordEvent(l *bucketCircuitLog, ev Event) {
	l.eventsLog = append(l.eventsLog, ev)
	if len(l.eventsLog) > bucketEventLogCap {
		l.eventsLog = l.eventsLog[len(l.eventsLog)-bucketEventLogCap:]
	}
}

func (b *BucketMemory) RecordSuccess(name string, d time.Duration) {
	l := b.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	buck := l.index(b.nowSec(), b.bucketCount)
	if buck.successes < ^uint32(0) {
		buck.successes++
	}
	b.recordEvent(l, Event{Kind: EventSuccessKind, Timestamp: b.clock.Monotonic(), Duration: d, CorrelationID: newCorrelationID()})
}

func (b *BucketMemory) RecordFailure(name string, d time.Duration, errInfo string) {
	l := b.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	buck := l.index(b.nowSec(), b.bucketCount)
	if buck.failures < ^uint32(0) {
		buck.failures++
	}
	b.recordEvent(l, Event{Kind: EventFailureKind, Timestamp: b.clock.Monotonic(), Duration: d, ErrorClass: errInfo, CorrelationID: newCorrelationID()})
}

// sum adds up the last windowSeconds buckets (capped at bucketCount).
func (l *bucketCircuitLog) sum(now int64, bucketCount, windowSeconds int, failures bool) int {
	if windowSeconds > bucketCount {
		windowSeconds = bucketCount
	}
	total := 0
	for i := 0; i < windowSeconds; i++ {
		sec := now - int64(i)
		idx := ((sec % int64(bucketCount)) + int64(bucketCount)) % int64(bucketCount)
		buck := &l.buckets[idx]
		if now-buck.windowStart >= int64(bucketCount) {
			continue // stale, treat as empty without mutating
		}
		if buck.windowStart != sec {
			continue // this slot currently represents a different second
		}
		if failures {
			total += int(buck.failures)
		} else {
			total += int(buck.successes)
		}
	}
	return total
}

func (b *BucketMemory) SuccessCount(name string, window time.Duration) int {
	l := b.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sum(b.nowSec(), b.bucketCount, int(window.Seconds())+1, false)
}

func (b *BucketMemory) FailureCount(name string, window time.Duration) int {
	l := b.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sum(b.nowSec(), b.bucketCount, int(window.Seconds())+1, true)
}

func (b *BucketMemory) GetStatus(name string) (StatusRecord, bool) {
	l := b.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status, l.hasStatus
}

func (b *BucketMemory) SetStatus(name string, rec StatusRecord) {
	l := b.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = rec
	l.hasStatus = true
}

func (b *BucketMemory) Clear(name string) {
	b.mu.Lock()
	delete(b.circuits, name)
	b.mu.Unlock()
}

func (b *BucketMemory) ClearAll() {
	b.mu.Lock()
	b.circuits = make(map[string]*bucketCircuitLog)
	b.mu.Unlock()
}

func (b *BucketMemory) EventLog(name string, limit int) []Event {
	l := b.logFor(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.eventsLog) {
		limit = len(l.eventsLog)
	}
	out := make([]Event, limit)
	copy(out, l.eventsLog[len(l.eventsLog)-limit:])
	return out
}
