package modules

import (
	"sync"
	"time"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
)

type layer[S any] struct {
	module compositor.Module[S]
	// amount is how far the layer has faded in; ignored for the base layer.
	amount float64
	// speed is the amount gained per second.
	speed float64
}

// Transition crossfades between modules. The oldest layer is always fully
// present; each newer layer fades in over it. Once a layer is fully in,
// every layer beneath it is dropped.
type Transition[S any] struct {
	mu     sync.Mutex
	layers []layer[S]
	watch  *clock.Stopwatch
}

// NewTransition returns a transition showing initial.
func NewTransition[S any](initial compositor.Module[S], clk clock.Clock) *Transition[S] {
	return &Transition[S]{
		layers: []layer[S]{{module: initial, amount: 1}},
		watch:  clock.NewStopwatch(clk),
	}
}

// Transition fades next in over d. A non-positive d swaps on the next
// frame. Fades already in progress keep running.
func (t *Transition[S]) Transition(next compositor.Module[S], d time.Duration) {
	l := layer[S]{module: next}
	if d <= 0 {
		l.amount = 1
	} else {
		l.speed = 1 / d.Seconds()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.layers = append(t.layers, l)
}

// Depth returns the number of layers on the stack.
func (t *Transition[S]) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.layers)
}

// Target returns the most recently pushed module.
func (t *Transition[S]) Target() compositor.Module[S] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.layers[len(t.layers)-1].module
}

func (t *Transition[S]) Render(m compositor.PixelMap, pixels []compositor.PixelInfo, state S) []color.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := t.watch.Lap()

	base := t.layers[0].module.Render(m, pixels, state)
	compositor.CheckFrame("transition", base, len(pixels))
	out := make([]color.RGBA, len(base))
	copy(out, base)
	for _, l := range t.layers[1:] {
		next := l.module.Render(m, pixels, state)
		compositor.CheckFrame("transition", next, len(pixels))
		for i := range out {
			out[i] = out[i].Transition(next[i], l.amount)
		}
	}

	drop := 0
	for i := 1; i < len(t.layers); i++ {
		t.layers[i].amount += elapsed * t.layers[i].speed
		if t.layers[i].amount >= 1 {
			drop = i
		}
	}
	if drop > 0 {
		t.layers = append([]layer[S](nil), t.layers[drop:]...)
	}
	return out
}
