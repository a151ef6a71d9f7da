package modules

import (
	"math"
	"sync"
	"time"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
)

// ScanOptions configures a Scan beam.
type ScanOptions struct {
	// BeamWidth is the beam's width as a proportion of the map width.
	BeamWidth float64 `json:"beamWidth"`
	// Delay is extra empty travel, in map widths, between passes.
	Delay float64 `json:"delay"`
	// Speed is how far the beam moves per second, in map widths.
	Speed float64 `json:"speed"`
}

// DefaultScanOptions returns a narrow beam that crosses the map in about
// three seconds.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{BeamWidth: 0.2, Delay: 0.5, Speed: 0.5}
}

type scanBounds struct {
	min, max, shift float64
	fade            float64
}

func (o ScanOptions) bounds() scanBounds {
	b := scanBounds{
		min:  -o.BeamWidth/2 - o.Delay/2,
		max:  1 + o.BeamWidth/2 + o.Delay/2,
		fade: o.BeamWidth / 2,
	}
	b.shift = b.max - b.min
	return b
}

// uniform reports whether the beam is the whole map: it does not move, has
// no empty travel, and is at least as wide as the map.
func (o ScanOptions) uniform() bool {
	return o.Speed == 0 && o.Delay <= 0 && o.BeamWidth >= 1
}

// Scan sweeps a beam of color along the x axis, fading linearly from the
// beam's center to its edges.
//
// A beam that does not move, has no delay and is at least as wide as the map
// lights every pixel at full strength. Any other stationary beam stays where
// it stopped.
type Scan[S any] struct {
	clock clock.Clock

	mu      sync.Mutex
	color   color.RGBA
	opts    ScanOptions
	bounds  scanBounds
	originT time.Time
	originX float64
}

// NewScan returns a beam of color c starting just off the left of the map.
func NewScan[S any](c color.RGBA, opts ScanOptions, clk clock.Clock) *Scan[S] {
	clk = clock.Or(clk)
	b := opts.bounds()
	return &Scan[S]{
		clock:   clk,
		color:   c,
		opts:    opts,
		bounds:  b,
		originT: clk.Now(),
		originX: b.min,
	}
}

// SetOptions replaces the options. The beam continues from its current
// position.
func (s *Scan[S]) SetOptions(opts ScanOptions) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originX, s.originT = s.position(now), now
	s.opts = opts
	s.bounds = opts.bounds()
}

// Options returns the current options.
func (s *Scan[S]) Options() ScanOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SetColor replaces the beam color.
func (s *Scan[S]) SetColor(c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = c
}

// position returns the beam center at now, re-anchoring the origin when the
// beam has left the wrap bounds. Callers hold s.mu.
func (s *Scan[S]) position(now time.Time) float64 {
	b := s.bounds
	x := s.originX + now.Sub(s.originT).Seconds()*s.opts.Speed
	if b.shift <= 0 {
		return x
	}
	if x > b.max {
		x -= math.Ceil((x-b.max)/b.shift) * b.shift
		s.originT, s.originX = now, x
	}
	if x < b.min {
		x += math.Ceil((b.min-x)/b.shift) * b.shift
		s.originT, s.originX = now, x
	}
	return x
}

func (s *Scan[S]) Render(m compositor.PixelMap, pixels []compositor.PixelInfo, _ S) []color.RGBA {
	now := s.clock.Now()
	s.mu.Lock()
	x := s.position(now)
	c, opts, fade := s.color, s.opts, s.bounds.fade
	s.mu.Unlock()

	if opts.uniform() {
		return Solid(len(pixels), c)
	}
	out := make([]color.RGBA, len(pixels))
	if fade <= 0 {
		return out
	}
	for i, p := range pixels {
		d := math.Abs(m.NormalizeX(p.X) - x)
		brightness := math.Max(0, 1-d/fade)
		if brightness == 0 {
			continue
		}
		out[i] = c.ScaleAlpha(brightness)
	}
	return out
}
