package modules

import (
	"sync"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/playback"
)

// SyncOptions bounds the opacity of a SyncModulate.
type SyncOptions struct {
	// IdleAlpha applies when nothing is playing.
	IdleAlpha float64 `json:"idleAlpha"`
	// ActiveMinAlpha applies at zero amplitude while something plays.
	ActiveMinAlpha float64 `json:"activeMinAlpha"`
	// ActiveMaxAlpha applies at full amplitude.
	ActiveMaxAlpha float64 `json:"activeMaxAlpha"`
}

// DefaultSyncOptions returns the defaults: opaque when idle, pulsing
// between 0.1 and 1 while playing.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{IdleAlpha: 1, ActiveMinAlpha: 0.1, ActiveMaxAlpha: 1}
}

// SyncModulate scales a child's opacity by the amplitude of the events
// playing right now, as reported by the render state.
type SyncModulate[S any] struct {
	child    compositor.Module[S]
	clock    clock.Clock
	playback func(S) *playback.Snapshot

	mu   sync.RWMutex
	opts SyncOptions
}

// NewSyncModulate wraps child. get extracts the playback snapshot from the
// render state and may return nil.
func NewSyncModulate[S any](child compositor.Module[S], get func(S) *playback.Snapshot, opts SyncOptions, clk clock.Clock) *SyncModulate[S] {
	return &SyncModulate[S]{
		child:    child,
		clock:    clock.Or(clk),
		playback: get,
		opts:     opts,
	}
}

// SetOptions replaces the opacity bounds.
func (m *SyncModulate[S]) SetOptions(opts SyncOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = opts
}

// Options returns the opacity bounds.
func (m *SyncModulate[S]) Options() SyncOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

// AlphaAt returns the opacity factor for snap at now.
func (o SyncOptions) AlphaAt(snap *playback.Snapshot, nowMillis float64) float64 {
	if snap == nil || len(snap.Play.Layers) == 0 {
		return o.IdleAlpha
	}
	amp := snap.Amplitude(nowMillis)
	return o.ActiveMinAlpha + (o.ActiveMaxAlpha-o.ActiveMinAlpha)*amp
}

func (m *SyncModulate[S]) Render(pm compositor.PixelMap, pixels []compositor.PixelInfo, state S) []color.RGBA {
	now := float64(m.clock.Now().UnixMilli())
	var snap *playback.Snapshot
	if m.playback != nil {
		snap = m.playback(state)
	}
	a := m.Options().AlphaAt(snap, now)
	return scaleFrame(m.child.Render(pm, pixels, state), a)
}
