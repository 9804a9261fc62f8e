package metrics

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Kind classifies a metric event.
type Kind string

// Metric kinds.
const (
	Counter Kind = "counter"
	Gauge   Kind = "gauge"
	Timer   Kind = "timer"
)

// Metric names emitted by the search path. Failure counters append the
// outcome class to FailurePrefix.
const (
	CounterRequests = "search.requests"
	CounterSuccess  = "search.success"
	CounterNoMatch  = "search.no_match"
	FailurePrefix   = "search.failure."
	GaugeActive     = "search.active"
	TimerDuration   = "search.duration"
)

// Event is a single metric observation. Timer values are in seconds.
type Event struct {
	Name  string
	Kind  Kind
	Value float64
	At    time.Time
}

// TimerSummary is the running aggregate of one timer.
type TimerSummary struct {
	Count int64         `json:"count"`
	Sum   time.Duration `json:"sum"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Avg   time.Duration `json:"avg"`
}

// Snapshot is a point-in-time projection of the store. Derived fields
// are computed at snapshot time, never stored.
type Snapshot struct {
	Counters       map[string]float64      `json:"counters"`
	Gauges         map[string]float64      `json:"gauges"`
	Timers         map[string]TimerSummary `json:"timers"`
	SuccessRate    float64                 `json:"success_rate"`
	ActiveRequests int                     `json:"active_requests"`
}

// timerStats keeps count/sum/min/max under a per-timer mutex, so the
// average is O(1) and no sample history is retained.
type timerStats struct {
	mu    sync.Mutex
	count int64
	sum   time.Duration
	min   time.Duration
	max   time.Duration
}

// Aggregator is a concurrent-safe counter/gauge/timer store. Counters
// and gauges use atomic float-bit updates; timers contend only on their
// own name. There is no global lock on the write path.
type Aggregator struct {
	counters sync.Map // string -> *atomic.Uint64 (float64 bits)
	gauges   sync.Map // string -> *atomic.Uint64 (float64 bits)
	timers   sync.Map // string -> *timerStats
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Record applies one event. It never fails; events with unknown kinds
// are dropped.
func (a *Aggregator) Record(e Event) {
	switch e.Kind {
	case Counter:
		a.Inc(e.Name, e.Value)
	case Gauge:
		a.SetGauge(e.Name, e.Value)
	case Timer:
		a.Observe(e.Name, time.Duration(e.Value*float64(time.Second)))
	}
}

// Inc adds delta to a monotonically increasing counter.
func (a *Aggregator) Inc(name string, delta float64) {
	addFloat(a.loadOrStoreBits(&a.counters, name), delta)
}

// SetGauge stores the last-written value for a gauge.
func (a *Aggregator) SetGauge(name string, value float64) {
	a.loadOrStoreBits(&a.gauges, name).Store(math.Float64bits(value))
}

// Observe records one duration sample into a timer.
func (a *Aggregator) Observe(name string, d time.Duration) {
	v, ok := a.timers.Load(name)
	if !ok {
		v, _ = a.timers.LoadOrStore(name, &timerStats{})
	}
	ts := v.(*timerStats)

	ts.mu.Lock()
	if ts.count == 0 || d < ts.min {
		ts.min = d
	}
	if d > ts.max {
		ts.max = d
	}
	ts.count++
	ts.sum += d
	ts.mu.Unlock()
}

// Snapshot builds a read-only projection. Recordings concurrent with
// the snapshot may or may not be reflected, but every number read is a
// complete write.
func (a *Aggregator) Snapshot() Snapshot {
	snap := Snapshot{
		Counters: make(map[string]float64),
		Gauges:   make(map[string]float64),
		Timers:   make(map[string]TimerSummary),
	}

	a.counters.Range(func(k, v any) bool {
		snap.Counters[k.(string)] = math.Float64frombits(v.(*atomic.Uint64).Load())
		return true
	})
	a.gauges.Range(func(k, v any) bool {
		snap.Gauges[k.(string)] = math.Float64frombits(v.(*atomic.Uint64).Load())
		return true
	})
	a.timers.Range(func(k, v any) bool {
		ts := v.(*timerStats)
		ts.mu.Lock()
		s := TimerSummary{Count: ts.count, Sum: ts.sum, Min: ts.min, Max: ts.max}
		ts.mu.Unlock()
		if s.Count > 0 {
			s.Avg = s.Sum / time.Duration(s.Count)
		}
		snap.Timers[k.(string)] = s
		return true
	})

	// Empty results are a valid outcome, so they count as successes.
	success := snap.Counters[CounterSuccess] + snap.Counters[CounterNoMatch]
	total := success
	for name, v := range snap.Counters {
		if strings.HasPrefix(name, FailurePrefix) {
			total += v
		}
	}
	if total > 0 {
		snap.SuccessRate = success / total
	}
	snap.ActiveRequests = int(snap.Gauges[GaugeActive])

	return snap
}

func (a *Aggregator) loadOrStoreBits(m *sync.Map, name string) *atomic.Uint64 {
	v, ok := m.Load(name)
	if !ok {
		v, _ = m.LoadOrStore(name, new(atomic.Uint64))
	}
	return v.(*atomic.Uint64)
}

// addFloat performs a lock-free float64 addition via CAS on the bits.
func addFloat(bits *atomic.Uint64, delta float64) {
	for {
		old := bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if bits.CompareAndSwap(old, next) {
			return
		}
	}
}
