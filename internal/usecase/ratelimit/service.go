package ratelimit

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// Window sizes for the two quotas.
const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

const shardCount = 64

// Default quota configuration.
const (
	DefaultPerMinute     = 60
	DefaultPerHour       = 1000
	DefaultSweepInterval = 5 * time.Minute
)

// Config holds the quota limits.
type Config struct {
	PerMinute     int
	PerHour       int
	SweepInterval time.Duration
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.PerMinute <= 0 {
		c.PerMinute = DefaultPerMinute
	}
	if c.PerHour <= 0 {
		c.PerHour = DefaultPerHour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
}

// Decision is the outcome of a rate-limit check. RetryAfter is only
// meaningful when Allowed is false.
type Decision struct {
	Allowed         bool
	RemainingMinute int
	RemainingHour   int
	RetryAfter      time.Duration
}

// Stats is the queryable per-client window state.
type Stats struct {
	MinuteCount     int
	HourCount       int
	LimitMinute     int
	LimitHour       int
	RemainingMinute int
	RemainingHour   int
}

// GlobalStats summarizes limiter-wide state.
type GlobalStats struct {
	ActiveClients   int
	TrackedRequests int
}

// clientWindow is the per-client request log. Timestamps are ordered
// ascending and pruned to the hour horizon before every decision.
type clientWindow struct {
	stamps []time.Time
}

type shard struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
}

// Service enforces dual sliding-window quotas per client. State is
// sharded by client-id hash so disjoint clients never contend on one
// lock; decisions for the same client are serialized by its shard.
type Service struct {
	cfg       Config
	clock     Clock
	shards    [shardCount]*shard
	lastSweep atomic.Int64 // unix nanos of the last global sweep
}

// New creates a rate limiter. A nil clock defaults to the system clock.
func New(cfg Config, clock Clock) *Service {
	cfg.ApplyDefaults()
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Service{cfg: cfg, clock: clock}
	for i := range s.shards {
		s.shards[i] = &shard{clients: make(map[string]*clientWindow)}
	}
	s.lastSweep.Store(clock.Now().UnixNano())
	return s
}

// CheckAndRecord prunes, counts and decides for one client atomically.
// The request is recorded only when both windows have headroom; a denied
// request never consumes quota.
func (s *Service) CheckAndRecord(clientID string) Decision {
	now := s.clock.Now()
	s.maybeSweep(now)

	sh := s.shardFor(clientID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	cw := sh.clients[clientID]
	if cw == nil {
		cw = &clientWindow{}
		sh.clients[clientID] = cw
	}
	cw.prune(now)

	minuteCount := cw.countSince(now.Add(-minuteWindow))
	hourCount := len(cw.stamps)

	minuteExceeded := minuteCount >= s.cfg.PerMinute
	hourExceeded := hourCount >= s.cfg.PerHour

	if minuteExceeded || hourExceeded {
		var retry time.Duration
		if minuteExceeded {
			retry = cw.retryAfter(now, minuteWindow)
		}
		if hourExceeded {
			if r := cw.retryAfter(now, hourWindow); r > retry {
				retry = r
			}
		}
		return Decision{
			Allowed:         false,
			RemainingMinute: remaining(s.cfg.PerMinute, minuteCount),
			RemainingHour:   remaining(s.cfg.PerHour, hourCount),
			RetryAfter:      retry,
		}
	}

	cw.stamps = append(cw.stamps, now)
	return Decision{
		Allowed:         true,
		RemainingMinute: remaining(s.cfg.PerMinute, minuteCount+1),
		RemainingHour:   remaining(s.cfg.PerHour, hourCount+1),
	}
}

// Stats reports the current window counts for a client without
// consuming quota.
func (s *Service) Stats(clientID string) Stats {
	now := s.clock.Now()

	sh := s.shardFor(clientID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	var minuteCount, hourCount int
	if cw := sh.clients[clientID]; cw != nil {
		cw.prune(now)
		minuteCount = cw.countSince(now.Add(-minuteWindow))
		hourCount = len(cw.stamps)
	}

	return Stats{
		MinuteCount:     minuteCount,
		HourCount:       hourCount,
		LimitMinute:     s.cfg.PerMinute,
		LimitHour:       s.cfg.PerHour,
		RemainingMinute: remaining(s.cfg.PerMinute, minuteCount),
		RemainingHour:   remaining(s.cfg.PerHour, hourCount),
	}
}

// Global reports limiter-wide state across all shards.
func (s *Service) Global() GlobalStats {
	var g GlobalStats
	for _, sh := range s.shards {
		sh.mu.Lock()
		g.ActiveClients += len(sh.clients)
		for _, cw := range sh.clients {
			g.TrackedRequests += len(cw.stamps)
		}
		sh.mu.Unlock()
	}
	return g
}

func (s *Service) shardFor(clientID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(clientID))
	return s.shards[h.Sum32()%shardCount]
}

// maybeSweep evicts clients with no requests inside the hour window.
// At most one caller sweeps per interval.
func (s *Service) maybeSweep(now time.Time) {
	last := s.lastSweep.Load()
	if now.UnixNano()-last < s.cfg.SweepInterval.Nanoseconds() {
		return
	}
	if !s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, cw := range sh.clients {
			cw.prune(now)
			if len(cw.stamps) == 0 {
				delete(sh.clients, id)
			}
		}
		sh.mu.Unlock()
	}
}

// prune drops timestamps older than the hour horizon.
func (cw *clientWindow) prune(now time.Time) {
	horizon := now.Add(-hourWindow)
	i := 0
	for i < len(cw.stamps) && !cw.stamps[i].After(horizon) {
		i++
	}
	if i > 0 {
		cw.stamps = append(cw.stamps[:0], cw.stamps[i:]...)
	}
}

// countSince counts timestamps strictly after cutoff. Stamps are
// ordered, so scan from the tail.
func (cw *clientWindow) countSince(cutoff time.Time) int {
	n := 0
	for i := len(cw.stamps) - 1; i >= 0; i-- {
		if !cw.stamps[i].After(cutoff) {
			break
		}
		n++
	}
	return n
}

// retryAfter is the time until the oldest timestamp inside the given
// window leaves it, rounded up to whole seconds.
func (cw *clientWindow) retryAfter(now time.Time, window time.Duration) time.Duration {
	cutoff := now.Add(-window)
	for _, ts := range cw.stamps {
		if ts.After(cutoff) {
			d := ts.Add(window).Sub(now)
			if d <= 0 {
				return time.Second
			}
			return ceilSeconds(d)
		}
	}
	return time.Second
}

func ceilSeconds(d time.Duration) time.Duration {
	if d%time.Second == 0 {
		return d
	}
	return (d/time.Second + 1) * time.Second
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}
