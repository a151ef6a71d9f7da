package color

import "math"

// AlphaCombine composites top over bottom.
//
// If either operand is fully transparent the other is returned unchanged.
// The result channels are rounded to whole numbers. The operator is not
// commutative; fold it left to right to flatten an ordered stack.
func AlphaCombine(bottom, top RGBA) RGBA {
	if bottom.A == 0 {
		return top
	}
	if top.A == 0 {
		return bottom
	}
	a := 1 - (1-top.A)*(1-bottom.A)
	ch := func(t, b float64) float64 {
		return math.Round(t*top.A/a + b*bottom.A*(1-top.A)/a)
	}
	return RGBA{
		R: ch(top.R, bottom.R),
		G: ch(top.G, bottom.G),
		B: ch(top.B, bottom.B),
		A: a,
	}
}

// Flatten folds AlphaCombine across layers, bottom first.
// It returns Transparent for an empty stack.
func Flatten(layers ...RGBA) RGBA {
	if len(layers) == 0 {
		return Transparent
	}
	out := layers[0]
	for _, l := range layers[1:] {
		out = AlphaCombine(out, l)
	}
	return out
}
