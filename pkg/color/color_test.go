package color

import (
	stdcolor "image/color"
	"testing"
)

func TestTransitionBoundaries(t *testing.T) {
	colors := []RGBA{
		Transparent,
		Black,
		White,
		{R: 12.5, G: 200, B: 31, A: 0.25},
		{R: 255, G: 0, B: 128, A: 1},
	}

	for _, a := range colors {
		for _, b := range colors {
			if got := a.Transition(b, 0); got != a {
				t.Errorf("%v.Transition(%v, 0) = %v, want %v", a, b, got, a)
			}
			if got := a.Transition(b, 1); got != b {
				t.Errorf("%v.Transition(%v, 1) = %v, want %v", a, b, got, b)
			}
		}
	}
}

func TestTransitionClampsRatio(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  RGBA
	}{
		{"below zero", -3, Black},
		{"above one", 7, White},
		{"halfway", 0.5, RGBA{127.5, 127.5, 127.5, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Black.Transition(White, tt.ratio); got != tt.want {
				t.Errorf("Transition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewClamps(t *testing.T) {
	got := New(-10, 300, 128, 1.5)
	want := RGBA{0, 255, 128, 1}
	if got != want {
		t.Errorf("New() = %v, want %v", got, want)
	}
}

func TestRGB(t *testing.T) {
	tests := []struct {
		c    RGBA
		want [3]uint8
	}{
		{White, [3]uint8{255, 255, 255}},
		{Transparent, [3]uint8{0, 0, 0}},
		{RGBA{255, 100, 0, 0.5}, [3]uint8{128, 50, 0}},
	}

	for _, tt := range tests {
		if got := tt.c.RGB(); got != tt.want {
			t.Errorf("%v.RGB() = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestImplementsColor(t *testing.T) {
	var c stdcolor.Color = RGBA{255, 0, 0, 1}
	r, g, b, a := c.RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("RGBA() = %d %d %d %d", r, g, b, a)
	}
}

func TestHex(t *testing.T) {
	if got := (RGBA{255, 16, 0, 1}).Hex(); got != "#ff1000" {
		t.Errorf("Hex() = %q, want %q", got, "#ff1000")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGBA
		wantErr bool
	}{
		{"#fff", White, false},
		{"ff0000", Red, false},
		{"#00000000", Transparent, false},
		{"#0000ff", Blue, false},
		{"#12", RGBA{}, true},
		{"#gg0000", RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
