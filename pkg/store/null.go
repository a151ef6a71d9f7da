package store

import (
	"bytes"
	"context"
	"sync"
)

// Null never stores anything.
type Null struct{}

// Load always returns ErrNotFound.
func (Null) Load(context.Context) ([]byte, error) { return nil, ErrNotFound }

// Save discards data.
func (Null) Save(context.Context, []byte) error { return nil }

// Close does nothing.
func (Null) Close() error { return nil }

// Memory keeps the document in process. Saves are also delivered to
// watchers, which makes it a stand-in for a shared backend in tests.
type Memory struct {
	mu       sync.Mutex
	data     []byte
	saves    int
	watchers []chan []byte
}

// NewMemory returns a memory store holding initial, or nothing if initial
// is nil.
func NewMemory(initial []byte) *Memory {
	return &Memory{data: bytes.Clone(initial)}
}

func (m *Memory) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return bytes.Clone(m.data), nil
}

func (m *Memory) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = bytes.Clone(data)
	m.saves++
	for _, w := range m.watchers {
		select {
		case w <- bytes.Clone(data):
		default:
		}
	}
	return nil
}

// Saves returns the number of Save calls.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Memory) Watch(ctx context.Context, fn func([]byte)) error {
	ch := make(chan []byte, 16)
	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-ch:
			fn(data)
		}
	}
}

func (m *Memory) Close() error { return nil }

var (
	_ Store   = Null{}
	_ Store   = (*Memory)(nil)
	_ Watcher = (*Memory)(nil)
)
