package modules

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
)

// DefaultChaseSpeed is the default advance, in sequence steps per second.
const DefaultChaseSpeed = 0.3

// ChaseOptions configures a Chase.
type ChaseOptions struct {
	// AdvancePerSecond is how many sequence steps each pixel moves per
	// second. Zero freezes the chase.
	AdvancePerSecond float64
	// Clock defaults to the system clock.
	Clock clock.Clock
	// Rand seeds each pixel's starting phase. Nil uses the global source.
	Rand *rand.Rand
}

// Chase moves every pixel through a sequence of modules, blending between
// neighbouring steps. Each pixel starts at a random phase.
type Chase[S any] struct {
	sequence []compositor.Module[S]

	mu      sync.Mutex
	advance float64
	phases  map[int]float64
	watch   *clock.Stopwatch
	rnd     *rand.Rand
}

// NewChase returns a chase over sequence. An empty sequence renders
// transparent.
func NewChase[S any](sequence []compositor.Module[S], opts ChaseOptions) *Chase[S] {
	own := make([]compositor.Module[S], len(sequence))
	copy(own, sequence)
	return &Chase[S]{
		sequence: own,
		advance:  opts.AdvancePerSecond,
		phases:   make(map[int]float64),
		watch:    clock.NewStopwatch(opts.Clock),
		rnd:      opts.Rand,
	}
}

// SetAdvancePerSecond changes the chase speed without resetting phases.
func (c *Chase[S]) SetAdvancePerSecond(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance = v
}

// Len returns the sequence length.
func (c *Chase[S]) Len() int { return len(c.sequence) }

func (c *Chase[S]) random() float64 {
	if c.rnd != nil {
		return c.rnd.Float64()
	}
	return rand.Float64()
}

func (c *Chase[S]) Render(m compositor.PixelMap, pixels []compositor.PixelInfo, state S) []color.RGBA {
	n := len(c.sequence)
	out := make([]color.RGBA, len(pixels))
	if n == 0 {
		return out
	}

	frames := make([][]color.RGBA, n)
	for k, mod := range c.sequence {
		frames[k] = mod.Render(m, pixels, state)
		compositor.CheckFrame("chase step", frames[k], len(pixels))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	step := c.watch.Lap() * c.advance
	size := float64(n)
	for i, p := range pixels {
		pos, ok := c.phases[p.Index]
		if !ok {
			pos = c.random() * size
		}
		pos = math.Mod(pos+step, size)
		if pos < 0 {
			pos += size
		}
		c.phases[p.Index] = pos

		a := min(max(int(math.Floor(pos)), 0), n-1)
		b := (a + 1) % n
		t := min(max(pos-float64(a), 0), 1)
		out[i] = frames[a][i].Transition(frames[b][i], t)
	}
	return out
}
