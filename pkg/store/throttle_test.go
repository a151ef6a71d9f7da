package store

import (
	"context"
	"testing"
	"time"
)

type recorder struct {
	saves chan string
}

func (r *recorder) Load(context.Context) ([]byte, error) { return nil, ErrNotFound }
func (r *recorder) Close() error                         { return nil }

func (r *recorder) Save(_ context.Context, data []byte) error {
	r.saves <- string(data)
	return nil
}

func (r *recorder) next(t *testing.T) string {
	t.Helper()
	select {
	case s := <-r.saves:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no save")
		return ""
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case s := <-r.saves:
		t.Errorf("unexpected save %q", s)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestThrottleLeadingAndTrailing(t *testing.T) {
	rec := &recorder{saves: make(chan string, 8)}
	window := make(chan time.Time)
	th := NewThrottle(rec, ThrottleOptions{
		After: func(time.Duration) <-chan time.Time { return window },
	})
	defer th.Close(context.Background())

	th.Save([]byte("a"))
	if got := rec.next(t); got != "a" {
		t.Errorf("leading save = %q, want a", got)
	}

	th.Save([]byte("b"))
	th.Save([]byte("c"))
	rec.none(t)

	window <- time.Time{}
	if got := rec.next(t); got != "c" {
		t.Errorf("trailing save = %q, want c", got)
	}

	// Quiet window closes; the next save is leading again.
	window <- time.Time{}
	th.Save([]byte("d"))
	if got := rec.next(t); got != "d" {
		t.Errorf("save after quiet window = %q, want d", got)
	}
}

func TestThrottleCloseFlushesPending(t *testing.T) {
	rec := &recorder{saves: make(chan string, 8)}
	window := make(chan time.Time)
	th := NewThrottle(rec, ThrottleOptions{
		After: func(time.Duration) <-chan time.Time { return window },
	})

	th.Save([]byte("a"))
	rec.next(t)
	th.Save([]byte("b"))

	if err := th.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := rec.next(t); got != "b" {
		t.Errorf("flushed save = %q, want b", got)
	}

	th.Save([]byte("c"))
	rec.none(t)
	if err := th.Flush(context.Background()); err != nil {
		t.Errorf("Flush() after Close = %v", err)
	}
}

func TestThrottleFlush(t *testing.T) {
	rec := &recorder{saves: make(chan string, 8)}
	window := make(chan time.Time)
	th := NewThrottle(rec, ThrottleOptions{
		After: func(time.Duration) <-chan time.Time { return window },
	})
	defer th.Close(context.Background())

	th.Save([]byte("a"))
	rec.next(t)
	th.Save([]byte("b"))
	if err := th.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := rec.next(t); got != "b" {
		t.Errorf("flushed save = %q, want b", got)
	}
}
