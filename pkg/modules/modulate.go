package modules

import (
	"sync"

	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
)

// Modulate scales a child's output alpha by a settable factor, and by a
// per-frame factor when built with NewModulateFunc.
type Modulate[S any] struct {
	child compositor.Module[S]
	frame func(S) float64

	mu    sync.RWMutex
	alpha float64
}

// NewModulate returns a Modulate at full opacity.
func NewModulate[S any](child compositor.Module[S]) *Modulate[S] {
	return &Modulate[S]{child: child, alpha: 1}
}

// NewModulateFunc returns a Modulate at full opacity whose output is also
// scaled by frame(state) on every render. Values outside [0, 1] are
// clamped.
func NewModulateFunc[S any](child compositor.Module[S], frame func(S) float64) *Modulate[S] {
	return &Modulate[S]{child: child, frame: frame, alpha: 1}
}

// SetAlpha sets the factor, clamped to [0, 1].
func (m *Modulate[S]) SetAlpha(a float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alpha = min(max(a, 0), 1)
}

// Alpha returns the current factor.
func (m *Modulate[S]) Alpha() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.alpha
}

func (m *Modulate[S]) Render(pm compositor.PixelMap, pixels []compositor.PixelInfo, state S) []color.RGBA {
	a := m.Alpha()
	if m.frame != nil {
		a *= min(max(m.frame(state), 0), 1)
	}
	return scaleFrame(m.child.Render(pm, pixels, state), a)
}

// scaleFrame multiplies every alpha by a. A factor of 1 returns frame as-is.
func scaleFrame(frame []color.RGBA, a float64) []color.RGBA {
	if a == 1 {
		return frame
	}
	out := make([]color.RGBA, len(frame))
	for i, c := range frame {
		out[i] = c.ScaleAlpha(a)
	}
	return out
}
