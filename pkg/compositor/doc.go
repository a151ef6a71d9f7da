// Package compositor defines the render contract shared by every pixel
// effect and the Compositor that drives a root module over a fixed set of
// pixels.
//
// # Pixels and the map
//
// A session's pixels are fixed: each [PixelInfo] carries a stable Index, a
// 2D position and an opaque Data payload that only routing modules inspect.
// The [PixelMap] is the bounding box of all positions and is computed once
// when the Compositor is built.
//
// # Modules
//
// A [Module] turns the map, the ordered pixel list and a caller supplied
// state value into exactly one color per pixel, in pixel order. Returning a
// frame of any other length is a programming error and panics.
//
//	root := modules.NewAdd[State](
//	    modules.NewFill[State](color.Red),
//	    modules.NewFill[State](color.Blue.WithAlpha(0.5)),
//	)
//	c := compositor.New[State](root, pixels, State{})
//	for _, out := range c.RenderFrame() {
//	    send(out.Pixel, out.Color)
//	}
package compositor
