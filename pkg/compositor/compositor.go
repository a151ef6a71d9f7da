package compositor

import (
	"fmt"
	"math"
	"sync"

	"github.com/matzehuels/lightdesk/pkg/color"
)

// PixelMap is the bounding box of a pixel layout.
type PixelMap struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Width returns XMax - XMin.
func (m PixelMap) Width() float64 { return m.XMax - m.XMin }

// Height returns YMax - YMin.
func (m PixelMap) Height() float64 { return m.YMax - m.YMin }

// NormalizeX maps x onto [0, 1] across the map width. A map with zero
// width places every pixel at 0.
func (m PixelMap) NormalizeX(x float64) float64 {
	w := m.Width()
	if w == 0 {
		return 0
	}
	return (x - m.XMin) / w
}

// NewPixelMap computes the bounding box of pixels. An empty list yields the
// zero map.
func NewPixelMap(pixels []PixelInfo) PixelMap {
	if len(pixels) == 0 {
		return PixelMap{}
	}
	m := PixelMap{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	for _, p := range pixels {
		m.XMin = math.Min(m.XMin, p.X)
		m.XMax = math.Max(m.XMax, p.X)
		m.YMin = math.Min(m.YMin, p.Y)
		m.YMax = math.Max(m.YMax, p.Y)
	}
	return m
}

// PixelInfo describes one physical pixel.
type PixelInfo struct {
	// Index is the pixel's position in the session's pixel list. Caches
	// key per-pixel decisions on it.
	Index int
	X, Y  float64
	// Data is opaque to the compositing core.
	Data any
}

// Module renders one color per pixel.
//
// Implementations must return a slice of len(pixels) colors in pixel order
// and must not block.
type Module[S any] interface {
	Render(m PixelMap, pixels []PixelInfo, state S) []color.RGBA
}

// ModuleFunc adapts a function to the Module interface.
type ModuleFunc[S any] func(m PixelMap, pixels []PixelInfo, state S) []color.RGBA

// Render calls f.
func (f ModuleFunc[S]) Render(m PixelMap, pixels []PixelInfo, state S) []color.RGBA {
	return f(m, pixels, state)
}

// CheckFrame panics if a module returned the wrong number of colors.
func CheckFrame(who string, frame []color.RGBA, pixels int) {
	if len(frame) != pixels {
		panic(fmt.Sprintf("%s: rendered %d colors for %d pixels", who, len(frame), pixels))
	}
}

// Output pairs a pixel with its rendered color.
type Output struct {
	Pixel PixelInfo
	Color color.RGBA
}

// Compositor owns a fixed pixel list and the root module rendered over it.
type Compositor[S any] struct {
	root   Module[S]
	pixels []PixelInfo
	pmap   PixelMap

	mu    sync.RWMutex
	state S
}

// New builds a compositor over pixels. Pixel indices are reassigned to
// their position in the list.
func New[S any](root Module[S], pixels []PixelInfo, initial S) *Compositor[S] {
	return NewAt(root, pixels, initial, 0)
}

// NewAt is like New but numbers pixels from base. Compositors sharing one
// module tree must use disjoint index ranges, since modules cache per-pixel
// decisions by index.
func NewAt[S any](root Module[S], pixels []PixelInfo, initial S, base int) *Compositor[S] {
	own := make([]PixelInfo, len(pixels))
	copy(own, pixels)
	for i := range own {
		own[i].Index = base + i
	}
	return &Compositor[S]{
		root:   root,
		pixels: own,
		pmap:   NewPixelMap(own),
		state:  initial,
	}
}

// Map returns the pixel map derived at construction.
func (c *Compositor[S]) Map() PixelMap { return c.pmap }

// Pixels returns a copy of the pixel list.
func (c *Compositor[S]) Pixels() []PixelInfo {
	out := make([]PixelInfo, len(c.pixels))
	copy(out, c.pixels)
	return out
}

// State returns the current state value.
func (c *Compositor[S]) State() S {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetState replaces the state passed to the root module on the next frame.
func (c *Compositor[S]) SetState(s S) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// RenderFrame renders the root module once and pairs every pixel with its
// color. It panics if the root returns the wrong number of colors.
func (c *Compositor[S]) RenderFrame() []Output {
	frame := c.root.Render(c.pmap, c.pixels, c.State())
	CheckFrame("compositor", frame, len(c.pixels))
	out := make([]Output, len(c.pixels))
	for i, p := range c.pixels {
		out[i] = Output{Pixel: p, Color: frame[i]}
	}
	return out
}

// Colors renders one frame and returns only the colors.
func (c *Compositor[S]) Colors() []color.RGBA {
	frame := c.root.Render(c.pmap, c.pixels, c.State())
	CheckFrame("compositor", frame, len(c.pixels))
	return frame
}

// Line returns n pixels laid out on y = 0 at x = 0..n-1.
func Line(n int) []PixelInfo {
	out := make([]PixelInfo, n)
	for i := range out {
		out[i] = PixelInfo{Index: i, X: float64(i)}
	}
	return out
}
