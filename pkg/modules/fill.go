package modules

import (
	"sync"

	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
)

// Fill renders one color to every pixel. The color is either fixed or
// computed from the render state once per frame.
type Fill[S any] struct {
	mu    sync.RWMutex
	color color.RGBA
	fn    func(S) color.RGBA
}

// NewFill returns a Fill with a fixed color.
func NewFill[S any](c color.RGBA) *Fill[S] {
	return &Fill[S]{color: c}
}

// NewFillFunc returns a Fill whose color is computed from the state.
func NewFillFunc[S any](fn func(S) color.RGBA) *Fill[S] {
	return &Fill[S]{fn: fn}
}

// SetColor switches the fill to the fixed color c.
func (f *Fill[S]) SetColor(c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.color = c
	f.fn = nil
}

// Color returns the fixed color, or the color computed for state.
func (f *Fill[S]) Color(state S) color.RGBA {
	f.mu.RLock()
	c, fn := f.color, f.fn
	f.mu.RUnlock()
	if fn != nil {
		return fn(state)
	}
	return c
}

func (f *Fill[S]) Render(_ compositor.PixelMap, pixels []compositor.PixelInfo, state S) []color.RGBA {
	return Solid(len(pixels), f.Color(state))
}

// Solid returns a frame of n pixels all set to c.
func Solid(n int, c color.RGBA) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		out[i] = c
	}
	return out
}
