package modules

import (
	"errors"
	"sync"

	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
)

// ErrNoLayers is returned when an Add is given an empty layer list.
var ErrNoLayers = errors.New("must supply at least one layer")

// Add composites its layers in order: each layer is drawn over everything
// before it.
type Add[S any] struct {
	mu     sync.RWMutex
	layers []compositor.Module[S]
}

// NewAdd returns an Add over layers, bottom first.
func NewAdd[S any](layers ...compositor.Module[S]) (*Add[S], error) {
	a := &Add[S]{}
	if err := a.SetLayers(layers...); err != nil {
		return nil, err
	}
	return a, nil
}

// SetLayers replaces the layer list.
func (a *Add[S]) SetLayers(layers ...compositor.Module[S]) error {
	if len(layers) == 0 {
		return ErrNoLayers
	}
	own := make([]compositor.Module[S], len(layers))
	copy(own, layers)
	a.mu.Lock()
	a.layers = own
	a.mu.Unlock()
	return nil
}

// Layers returns the number of layers.
func (a *Add[S]) Layers() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.layers)
}

func (a *Add[S]) Render(m compositor.PixelMap, pixels []compositor.PixelInfo, state S) []color.RGBA {
	a.mu.RLock()
	layers := a.layers
	a.mu.RUnlock()

	out := make([]color.RGBA, len(pixels))
	for li, layer := range layers {
		frame := layer.Render(m, pixels, state)
		compositor.CheckFrame("add layer", frame, len(pixels))
		if li == 0 {
			copy(out, frame)
			continue
		}
		for i := range out {
			out[i] = color.AlphaCombine(out[i], frame[i])
		}
	}
	return out
}
