// Package scheduler provides the tick source outputs render from.
//
// Every output cadence in a process comes from one Scheduler, so stopping it
// stops every render loop. Tests use Manual to fire ticks by hand.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs callbacks at a fixed interval.
type Scheduler interface {
	// Every calls fn every d until the returned cancel func is called or
	// the scheduler stops. Calls for one registration never overlap.
	Every(d time.Duration, fn func()) (cancel func())
}

// Ticker is a Scheduler backed by time.Ticker, one goroutine per
// registration.
type Ticker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTicker returns a running Ticker. Cancelling ctx stops it.
func NewTicker(ctx context.Context) *Ticker {
	ctx, cancel := context.WithCancel(ctx)
	return &Ticker{ctx: ctx, cancel: cancel}
}

func (t *Ticker) Every(d time.Duration, fn func()) func() {
	ctx, cancel := context.WithCancel(t.ctx)
	if d <= 0 {
		cancel()
		return cancel
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		tick := time.NewTicker(d)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				fn()
			}
		}
	}()
	return cancel
}

// Stop cancels every registration and waits for in-flight calls.
func (t *Ticker) Stop() {
	t.cancel()
	t.wg.Wait()
}

// Manual is a Scheduler that only ticks when Fire is called.
type Manual struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]job
}

type job struct {
	every time.Duration
	fn    func()
}

// NewManual returns an idle Manual scheduler.
func NewManual() *Manual {
	return &Manual{jobs: make(map[int]job)}
}

func (m *Manual) Every(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.jobs[id] = job{every: d, fn: fn}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.jobs, id)
	}
}

// Fire runs every registered callback once, in registration order.
func (m *Manual) Fire() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.jobs))
	for id := 0; id < m.nextID; id++ {
		if j, ok := m.jobs[id]; ok {
			fns = append(fns, j.fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of live registrations.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Intervals returns the interval of each live registration in
// registration order.
func (m *Manual) Intervals() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Duration
	for id := 0; id < m.nextID; id++ {
		if j, ok := m.jobs[id]; ok {
			out = append(out, j.every)
		}
	}
	return out
}
