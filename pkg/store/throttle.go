package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultSaveInterval is the minimum spacing between throttled writes.
const DefaultSaveInterval = time.Second

// ThrottleOptions configures a Throttle.
type ThrottleOptions struct {
	// Interval defaults to DefaultSaveInterval.
	Interval time.Duration
	Backoff  Backoff
	// Timeout bounds each write. Zero means ten seconds.
	Timeout time.Duration
	Logger  *log.Logger
	// After replaces time.After in tests.
	After func(time.Duration) <-chan time.Time
}

// Throttle coalesces saves. The first save after a quiet period is written
// at once; saves arriving within the following interval are held, and only
// the latest is written when the interval ends.
type Throttle struct {
	store Store
	opts  ThrottleOptions

	mu      sync.Mutex
	pending []byte

	kick    chan struct{}
	flush   chan chan error
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// NewThrottle starts a throttle writing to s. Close stops it.
func NewThrottle(s Store, opts ThrottleOptions) *Throttle {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSaveInterval
	}
	if opts.Backoff.Attempts == 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.After == nil {
		opts.After = time.After
	}
	t := &Throttle{
		store: s,
		opts:  opts,
		kick:  make(chan struct{}, 1),
		flush: make(chan chan error),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go t.run()
	return t
}

// Save queues data for writing. It never blocks on the store.
func (t *Throttle) Save(data []byte) {
	t.mu.Lock()
	t.pending = data
	t.mu.Unlock()
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

// Flush writes any held save now.
func (t *Throttle) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case t.flush <- reply:
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes any held save and stops the throttle. Later saves are
// dropped.
func (t *Throttle) Close(ctx context.Context) error {
	t.stopped.Do(func() { close(t.stop) })
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Throttle) run() {
	defer close(t.done)
	var window <-chan time.Time
	for {
		select {
		case <-t.kick:
			if window == nil {
				t.write()
				window = t.opts.After(t.opts.Interval)
			}
		case <-window:
			if wrote, _ := t.write(); wrote {
				window = t.opts.After(t.opts.Interval)
			} else {
				window = nil
			}
		case reply := <-t.flush:
			_, err := t.write()
			reply <- err
		case <-t.stop:
			t.write()
			return
		}
	}
}

// write saves the held document, if any, and reports whether there was one.
func (t *Throttle) write() (bool, error) {
	t.mu.Lock()
	data := t.pending
	t.pending = nil
	t.mu.Unlock()
	if data == nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.opts.Timeout)
	defer cancel()
	err := RetryWithBackoff(ctx, t.opts.Backoff, func() error {
		return t.store.Save(ctx, data)
	})
	if err != nil {
		t.opts.Logger.Error("save config", "bytes", len(data), "err", err)
	}
	return true, err
}
