package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInc_Accumulates(t *testing.T) {
	a := New()

	a.Inc("requests", 1)
	a.Inc("requests", 1)
	a.Inc("requests", 3)

	snap := a.Snapshot()
	if snap.Counters["requests"] != 5 {
		t.Errorf("expected counter 5, got %v", snap.Counters["requests"])
	}
}

func TestSetGauge_KeepsLastValue(t *testing.T) {
	a := New()

	a.SetGauge("queue.depth", 10)
	a.SetGauge("queue.depth", 3)

	snap := a.Snapshot()
	if snap.Gauges["queue.depth"] != 3 {
		t.Errorf("expected gauge 3, got %v", snap.Gauges["queue.depth"])
	}
}

func TestObserve_DeterministicAverage(t *testing.T) {
	a := New()

	a.Observe("search.duration", 10*time.Millisecond)
	a.Observe("search.duration", 20*time.Millisecond)
	a.Observe("search.duration", 30*time.Millisecond)

	s := a.Snapshot().Timers["search.duration"]
	if s.Count != 3 {
		t.Fatalf("expected count 3, got %d", s.Count)
	}
	if s.Sum != 60*time.Millisecond {
		t.Errorf("expected sum 60ms, got %v", s.Sum)
	}
	if s.Min != 10*time.Millisecond {
		t.Errorf("expected min 10ms, got %v", s.Min)
	}
	if s.Max != 30*time.Millisecond {
		t.Errorf("expected max 30ms, got %v", s.Max)
	}
	if s.Avg != 20*time.Millisecond {
		t.Errorf("avg must equal sum/count exactly: expected 20ms, got %v", s.Avg)
	}
}

func TestRecord_DispatchesByKind(t *testing.T) {
	a := New()
	now := time.Now()

	a.Record(Event{Name: "c", Kind: Counter, Value: 2, At: now})
	a.Record(Event{Name: "g", Kind: Gauge, Value: 7, At: now})
	a.Record(Event{Name: "t", Kind: Timer, Value: 0.5, At: now})
	a.Record(Event{Name: "x", Kind: "histogram", Value: 1, At: now}) // dropped

	snap := a.Snapshot()
	if snap.Counters["c"] != 2 {
		t.Errorf("expected counter 2, got %v", snap.Counters["c"])
	}
	if snap.Gauges["g"] != 7 {
		t.Errorf("expected gauge 7, got %v", snap.Gauges["g"])
	}
	if snap.Timers["t"].Sum != 500*time.Millisecond {
		t.Errorf("expected timer sum 500ms, got %v", snap.Timers["t"].Sum)
	}
	if _, ok := snap.Counters["x"]; ok {
		t.Error("unknown kind must be dropped")
	}
}

func TestSnapshot_SuccessRate(t *testing.T) {
	a := New()

	for i := 0; i < 7; i++ {
		a.Inc(CounterSuccess, 1)
	}
	a.Inc(CounterNoMatch, 2)
	a.Inc(FailurePrefix+"backend_timeout", 1)
	a.Inc(FailurePrefix+"backend_unavailable", 2)

	snap := a.Snapshot()
	want := 9.0 / 12.0
	if snap.SuccessRate != want {
		t.Errorf("expected success rate %v, got %v", want, snap.SuccessRate)
	}
}

func TestSnapshot_SuccessRateEmptyStore(t *testing.T) {
	snap := New().Snapshot()
	if snap.SuccessRate != 0 {
		t.Errorf("empty store must report 0 success rate, got %v", snap.SuccessRate)
	}
}

func TestSnapshot_ActiveRequests(t *testing.T) {
	a := New()
	a.SetGauge(GaugeActive, 4)

	if got := a.Snapshot().ActiveRequests; got != 4 {
		t.Errorf("expected 4 active requests, got %d", got)
	}
}

func TestConcurrentWrites(t *testing.T) {
	a := New()

	const workers = 16
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				a.Inc("hits", 1)
				a.Observe("latency", time.Millisecond)
				a.SetGauge("level", float64(i))
			}
		}()
	}
	wg.Wait()

	snap := a.Snapshot()
	if snap.Counters["hits"] != workers*perWorker {
		t.Errorf("expected %d hits, got %v", workers*perWorker, snap.Counters["hits"])
	}
	lat := snap.Timers["latency"]
	if lat.Count != workers*perWorker {
		t.Errorf("expected %d samples, got %d", workers*perWorker, lat.Count)
	}
	if lat.Sum != time.Duration(workers*perWorker)*time.Millisecond {
		t.Errorf("unexpected timer sum %v", lat.Sum)
	}
	if lat.Min != time.Millisecond || lat.Max != time.Millisecond {
		t.Errorf("unexpected min/max %v/%v", lat.Min, lat.Max)
	}
}

func TestSnapshot_IsIsolatedCopy(t *testing.T) {
	a := New()
	a.Inc("hits", 1)

	snap := a.Snapshot()
	snap.Counters["hits"] = 100

	if a.Snapshot().Counters["hits"] != 1 {
		t.Error("mutating a snapshot must not affect the store")
	}
}
