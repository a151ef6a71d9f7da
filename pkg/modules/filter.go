package modules

import (
	"sync"

	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
)

// Route sends the pixels its Match accepts to Module.
type Route[S any] struct {
	Match  func(compositor.PixelInfo) bool
	Module compositor.Module[S]
}

// Filter renders each pixel from the first route that matches it. Pixels no
// route matches are transparent.
//
// Route choices are cached per pixel index and only recomputed after
// SetRoutes; a pixel whose Data changes keeps its cached route.
type Filter[S any] struct {
	mu     sync.Mutex
	routes []Route[S]
	cache  map[int]int
}

// NewFilter returns a filter over routes.
func NewFilter[S any](routes ...Route[S]) *Filter[S] {
	f := &Filter[S]{}
	f.SetRoutes(routes...)
	return f
}

// SetRoutes replaces the routes and clears the route cache.
func (f *Filter[S]) SetRoutes(routes ...Route[S]) {
	own := make([]Route[S], len(routes))
	copy(own, routes)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = own
	f.cache = make(map[int]int)
}

// route returns the index of the first matching route, or -1. Callers hold
// f.mu.
func (f *Filter[S]) route(p compositor.PixelInfo) int {
	if r, ok := f.cache[p.Index]; ok {
		return r
	}
	r := -1
	for i, rt := range f.routes {
		if rt.Match != nil && rt.Match(p) {
			r = i
			break
		}
	}
	f.cache[p.Index] = r
	return r
}

func (f *Filter[S]) Render(m compositor.PixelMap, pixels []compositor.PixelInfo, state S) []color.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()

	frames := make([][]color.RGBA, len(f.routes))
	for i, rt := range f.routes {
		frames[i] = rt.Module.Render(m, pixels, state)
		compositor.CheckFrame("filter route", frames[i], len(pixels))
	}
	out := make([]color.RGBA, len(pixels))
	for i, p := range pixels {
		if r := f.route(p); r >= 0 {
			out[i] = frames[r][i]
		}
	}
	return out
}
