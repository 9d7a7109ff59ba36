package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const window = time.Minute

// Governor bounds outbound LLM traffic two ways: no more than a fixed
// number of calls in any trailing 60-second window, and no more than a
// fixed number of calls concurrently in flight. An optional per-second
// smoothing limiter spreads bursts out on top of the window bound.
//
// One Governor instance is constructed per pipeline run and injected into
// every component that talks to the provider.
type Governor struct {
	mu         sync.Mutex
	timestamps []time.Time

	maxPerMinute int
	inflight     chan struct{}
	smoother     *rate.Limiter

	now func() time.Time
}

// NewGovernor creates a governor with the given ceilings. callsPerSecond
// of 0 disables smoothing.
func NewGovernor(maxPerMinute, maxConcurrent int, callsPerSecond float64) *Governor {
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	g := &Governor{
		maxPerMinute: maxPerMinute,
		inflight:     make(chan struct{}, maxConcurrent),
		now:          time.Now,
	}
	if callsPerSecond > 0 {
		g.smoother = rate.NewLimiter(rate.Limit(callsPerSecond), 1)
	}
	return g
}

// Acquire blocks until both ceilings admit a new call, then records the
// call in the sliding window. Every successful Acquire must be paired with
// a Release once the call finishes.
func (g *Governor) Acquire(ctx context.Context) error {
	select {
	case g.inflight <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if g.smoother != nil {
		if err := g.smoother.Wait(ctx); err != nil {
			<-g.inflight
			return err
		}
	}

	for {
		wait, ok := g.tryRecord()
		if ok {
			return nil
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			<-g.inflight
			return ctx.Err()
		}
	}
}

// Release frees the in-flight slot taken by Acquire.
func (g *Governor) Release() {
	select {
	case <-g.inflight:
	default:
	}
}

// tryRecord checks the window bound and, if there is room, appends the
// call timestamp under the same lock. Check and append are atomic so
// concurrent acquirers can never push the window past its limit.
func (g *Governor) tryRecord() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.prune(now)

	if len(g.timestamps) < g.maxPerMinute {
		g.timestamps = append(g.timestamps, now)
		return 0, true
	}

	// Window is full: wait until the oldest call ages out.
	wait := g.timestamps[0].Add(window).Sub(now)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait, false
}

func (g *Governor) prune(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(g.timestamps) && !g.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		g.timestamps = append(g.timestamps[:0], g.timestamps[i:]...)
	}
}

// CallsInWindow reports how many calls were recorded in the trailing
// 60 seconds.
func (g *Governor) CallsInWindow() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune(g.now())
	return len(g.timestamps)
}

// InFlight reports how many calls are currently between Acquire and
// Release.
func (g *Governor) InFlight() int {
	return len(g.inflight)
}
