package kinds

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/playback"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
	"github.com/matzehuels/lightdesk/pkg/tempo"
)

type state struct {
	snap *playback.Snapshot
	beat tempo.Beat
}

var now = time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

func newRegistry(t *testing.T) *reconcile.Registry[state] {
	t.Helper()
	reg := reconcile.NewRegistry[state](reconcile.Options{
		Fade:  -1,
		Clock: clock.NewManual(now),
	})
	err := Register(reg, Options[state]{
		Playback: func(s state) *playback.Snapshot { return s.snap },
		Beat:     func(s state) tempo.Beat { return s.beat },
		Rand:     rand.New(rand.NewPCG(1, 2)),
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return reg
}

func apply(t *testing.T, reg *reconcile.Registry[state], n *config.Node) *reconcile.Socket[state] {
	t.Helper()
	s := reconcile.NewSocket(reg, "test", nil)
	if err := s.Apply(context.Background(), n); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return s
}

func render(s *reconcile.Socket[state], pixels []compositor.PixelInfo, st state) []string {
	frame := s.Module().Render(compositor.NewPixelMap(pixels), pixels, st)
	out := make([]string, len(frame))
	for i, c := range frame {
		out[i] = c.String()
	}
	return out
}

func fill(r, g, b, a float64) *config.Node {
	return config.MustNew(KindFill, FillConfig{ColorConfig{R: r, G: g, B: b, Alpha: a}})
}

func colors(n int, c color.RGBA) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = c.String()
	}
	return out
}

func TestRegisterAll(t *testing.T) {
	reg := newRegistry(t)
	var got []string
	for _, k := range reg.Kinds() {
		got = append(got, k.Name)
	}
	want := []string{"add", "beat", "chase", "fill", "filter", "modulate", "scan", "sync"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Kinds() mismatch (-want +got):\n%s", diff)
	}
	if err := Register(reg, Options[state]{}); !errors.Is(err, errors.ErrCodeDuplicateKind) {
		t.Errorf("second Register() = %v, want DUPLICATE_KIND", err)
	}
}

func TestInitialConfigsValidate(t *testing.T) {
	for _, k := range All(Options[state]{}) {
		t.Run(k.Name, func(t *testing.T) {
			if k.Validate == nil {
				return
			}
			if err := k.Validate(k.InitialConfig); err != nil {
				t.Errorf("Validate(InitialConfig) = %v", err)
			}
		})
	}
}

func TestFill(t *testing.T) {
	reg := newRegistry(t)
	s := apply(t, reg, fill(255, 0, 0, 1))
	pixels := compositor.Line(3)

	if diff := cmp.Diff(colors(3, color.Red), render(s, pixels, state{})); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}

	if err := s.Apply(context.Background(), fill(0, 0, 255, 1)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(colors(3, color.Blue), render(s, pixels, state{})); diff != "" {
		t.Errorf("render after update mismatch (-want +got):\n%s", diff)
	}
}

func TestValidation(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		name string
		kind string
		raw  string
	}{
		{"fill channel", KindFill, `{"r":300,"g":0,"b":0,"alpha":1}`},
		{"fill alpha", KindFill, `{"r":0,"g":0,"b":0,"alpha":2}`},
		{"fill unknown field", KindFill, `{"r":0,"g":0,"b":0,"alpha":1,"hue":3}`},
		{"scan beam", KindScan, `{"r":0,"g":0,"b":0,"alpha":1,"beamWidth":-1,"delay":0,"speed":1}`},
		{"chase speed", KindChase, `{"advanceAmountPerSecond":-1,"sequence":[]}`},
		{"modulate alpha", KindModulate, `{"alpha":1.5,"input":null}`},
		{"sync alpha", KindSync, `{"idleAlpha":-1,"activeMinAlpha":0,"activeMaxAlpha":1,"input":null}`},
		{"add shape", KindAdd, `{"layers":[]}`},
		{"filter shape", KindFilter, `[{"filter":{"side":3},"input":null}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Check(&config.Node{Kind: tt.kind, Config: json.RawMessage(tt.raw)})
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Check() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestInvalidScanFallsBackToDefault(t *testing.T) {
	reg := newRegistry(t)
	s := reconcile.NewSocket(reg, "test", nil)
	err := s.Apply(context.Background(), &config.Node{Kind: KindScan, Config: json.RawMessage(`{"alpha":7}`)})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("Apply() = %v, want INVALID_CONFIG", err)
	}
	in := s.Instance().(*scanInput[state])
	if diff := cmp.Diff(DefaultScanConfig().ScanOptions, in.module.Options()); diff != "" {
		t.Errorf("scan options mismatch (-want +got):\n%s", diff)
	}
}

func TestAdd(t *testing.T) {
	reg := newRegistry(t)
	pixels := compositor.Line(2)

	s := apply(t, reg, config.MustNew(KindAdd, AddConfig{fill(255, 0, 0, 1), fill(0, 0, 255, 0.5)}))
	got := render(s, pixels, state{})
	want := colors(2, color.AlphaCombine(color.Red, color.Blue.WithAlpha(0.5)))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}

	if err := s.Apply(context.Background(), config.MustNew(KindAdd, AddConfig{})); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(colors(2, color.Transparent), render(s, pixels, state{})); diff != "" {
		t.Errorf("empty add mismatch (-want +got):\n%s", diff)
	}
}

func TestAddKeepsUnchangedLayers(t *testing.T) {
	reg := newRegistry(t)
	s := apply(t, reg, config.MustNew(KindAdd, AddConfig{fill(255, 0, 0, 1), fill(0, 255, 0, 1)}))
	in := s.Instance().(*addInput[state])
	first := in.layers.Sockets()[0].Instance()

	if err := s.Apply(context.Background(), config.MustNew(KindAdd, AddConfig{fill(255, 0, 0, 1), fill(0, 0, 255, 1)})); err != nil {
		t.Fatal(err)
	}
	if s.Instance() != in {
		t.Error("add instance replaced")
	}
	if in.layers.Sockets()[0].Instance() != first {
		t.Error("unchanged layer replaced")
	}
	if got := in.group.Len(); got != 2 {
		t.Errorf("mounted controls = %d, want 2", got)
	}
}

func TestFilter(t *testing.T) {
	reg := newRegistry(t)
	pixels := []compositor.PixelInfo{
		{Index: 0, X: 0, Data: map[string]string{"side": "left"}},
		{Index: 1, X: 1, Data: map[string]any{"properties": map[string]any{"side": "right", "n": 2}}},
		{Index: 2, X: 2},
	}
	cfg := FilterConfig{
		{Filter: map[string]string{"side": "left"}, Input: fill(255, 0, 0, 1)},
		{Filter: map[string]string{"side": "right"}, Input: fill(0, 0, 255, 1)},
	}
	s := apply(t, reg, config.MustNew(KindFilter, cfg))

	want := []string{color.Red.String(), color.Blue.String(), color.Transparent.String()}
	if diff := cmp.Diff(want, render(s, pixels, state{})); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}

	// An empty filter catches the rest.
	cfg = append(cfg, FilterRoute{Filter: map[string]string{}, Input: fill(0, 255, 0, 1)})
	if err := s.Apply(context.Background(), config.MustNew(KindFilter, cfg)); err != nil {
		t.Fatal(err)
	}
	want[2] = color.Green.String()
	if diff := cmp.Diff(want, render(s, pixels, state{})); diff != "" {
		t.Errorf("render with catch-all mismatch (-want +got):\n%s", diff)
	}
}

type fixture struct{ props map[string]string }

func (f fixture) Properties() map[string]string { return f.props }

func TestMatcher(t *testing.T) {
	tests := []struct {
		name   string
		filter map[string]string
		data   any
		want   bool
	}{
		{"empty filter", nil, nil, true},
		{"string map", map[string]string{"a": "1"}, map[string]string{"a": "1", "b": "2"}, true},
		{"mismatch", map[string]string{"a": "1"}, map[string]string{"a": "2"}, false},
		{"missing", map[string]string{"a": "1"}, map[string]string{"b": "1"}, false},
		{"any map skips non-strings", map[string]string{"a": "1"}, map[string]any{"a": 1}, false},
		{"any map", map[string]string{"a": "1"}, map[string]any{"a": "1"}, true},
		{"nested properties", map[string]string{"a": "1"}, map[string]any{"properties": map[string]any{"a": "1"}}, true},
		{"propertied", map[string]string{"a": "1"}, fixture{map[string]string{"a": "1"}}, true},
		{"no data", map[string]string{"a": "1"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matcher(tt.filter)(compositor.PixelInfo{Data: tt.data}); got != tt.want {
				t.Errorf("Matcher(%v)(%v) = %v, want %v", tt.filter, tt.data, got, tt.want)
			}
		})
	}
}

func TestChaseRebuildsOnlyOnLengthChange(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	cfg := ChaseConfig{AdvanceAmountPerSecond: 1, Sequence: []*config.Node{fill(255, 0, 0, 1), fill(0, 0, 255, 1)}}
	s := apply(t, reg, config.MustNew(KindChase, cfg))
	in := s.Instance().(*chaseInput[state])
	first := in.chase
	if first == nil || first.Len() != 2 {
		t.Fatalf("chase not built: %v", first)
	}

	cfg.AdvanceAmountPerSecond = 2
	cfg.Sequence[1] = fill(0, 255, 0, 1)
	if err := s.Apply(ctx, config.MustNew(KindChase, cfg)); err != nil {
		t.Fatal(err)
	}
	if in.chase != first {
		t.Error("chase rebuilt for a speed or step change")
	}

	cfg.Sequence = append(cfg.Sequence, fill(0, 0, 0, 1))
	if err := s.Apply(ctx, config.MustNew(KindChase, cfg)); err != nil {
		t.Fatal(err)
	}
	if in.chase == first || in.chase.Len() != 3 {
		t.Error("chase not rebuilt after the sequence grew")
	}

	cfg.Sequence = nil
	if err := s.Apply(ctx, config.MustNew(KindChase, cfg)); err != nil {
		t.Fatal(err)
	}
	if in.chase != nil {
		t.Error("empty sequence kept a chase")
	}
	pixels := compositor.Line(4)
	render(s, pixels, state{})
	if diff := cmp.Diff(colors(4, color.Transparent), render(s, pixels, state{})); diff != "" {
		t.Errorf("empty chase mismatch (-want +got):\n%s", diff)
	}
}

func TestChaseSingleStep(t *testing.T) {
	reg := newRegistry(t)
	cfg := ChaseConfig{AdvanceAmountPerSecond: 1, Sequence: []*config.Node{fill(255, 0, 0, 1)}}
	s := apply(t, reg, config.MustNew(KindChase, cfg))
	pixels := compositor.Line(3)
	render(s, pixels, state{})
	if diff := cmp.Diff(colors(3, color.Red), render(s, pixels, state{})); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestModulate(t *testing.T) {
	reg := newRegistry(t)
	s := apply(t, reg, config.MustNew(KindModulate, ModulateConfig{Alpha: 0.5, Input: fill(255, 0, 0, 1)}))
	pixels := compositor.Line(2)
	if diff := cmp.Diff(colors(2, color.Red.WithAlpha(0.5)), render(s, pixels, state{})); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}

	// Replacing the input keeps the modulate instance.
	in := s.Instance()
	if err := s.Apply(context.Background(), config.MustNew(KindModulate, ModulateConfig{Alpha: 0.5, Input: fill(0, 0, 255, 1)})); err != nil {
		t.Fatal(err)
	}
	if s.Instance() != in {
		t.Error("modulate instance replaced")
	}
	if diff := cmp.Diff(colors(2, color.Blue.WithAlpha(0.5)), render(s, pixels, state{})); diff != "" {
		t.Errorf("render after input change mismatch (-want +got):\n%s", diff)
	}
}

func TestSync(t *testing.T) {
	reg := newRegistry(t)
	cfg := SyncConfig{Input: fill(255, 0, 0, 1)}
	cfg.IdleAlpha, cfg.ActiveMinAlpha, cfg.ActiveMaxAlpha = 0.3, 0.2, 1
	s := apply(t, reg, config.MustNew(KindSync, cfg))
	pixels := compositor.Line(1)

	if diff := cmp.Diff(colors(1, color.Red.WithAlpha(0.3)), render(s, pixels, state{})); diff != "" {
		t.Errorf("idle mismatch (-want +got):\n%s", diff)
	}

	// A layer playing a file with no events sits at the active minimum.
	snap := &playback.Snapshot{
		Play:  playback.PlayState{Layers: []playback.PlayingLayer{{FileHash: "silence", PlaySpeed: 1, Amplitude: 1}}},
		Files: map[string]*playback.CueFile{"silence": {LengthMillis: 1000}},
	}
	if diff := cmp.Diff(colors(1, color.Red.WithAlpha(0.2)), render(s, pixels, state{snap: snap})); diff != "" {
		t.Errorf("active mismatch (-want +got):\n%s", diff)
	}
}

func TestBeat(t *testing.T) {
	reg := newRegistry(t)
	s := apply(t, reg, config.MustNew(KindBeat, BeatConfig{Input: fill(255, 0, 0, 1)}))
	pixels := compositor.Line(2)
	period := 500 * time.Millisecond

	tests := []struct {
		name  string
		beat  tempo.Beat
		alpha float64
	}{
		{"no beat yet", tempo.Beat{}, 0},
		{"on the beat", tempo.Beat{Start: now, Period: period}, 1},
		{"half a period in", tempo.Beat{Start: now.Add(-250 * time.Millisecond), Period: period}, 0.5},
		{"period over", tempo.Beat{Start: now.Add(-600 * time.Millisecond), Period: period}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(s, pixels, state{beat: tt.beat})
			if diff := cmp.Diff(colors(2, color.Red.WithAlpha(tt.alpha)), got); diff != "" {
				t.Errorf("render mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBeatFollowsTapper(t *testing.T) {
	reg := newRegistry(t)
	s := apply(t, reg, config.MustNew(KindBeat, BeatConfig{Input: fill(0, 0, 255, 1)}))
	pixels := compositor.Line(1)

	// Two taps a period apart, the second half a period ago.
	clk := clock.NewManual(now.Add(-750 * time.Millisecond))
	tp := tempo.NewTapper(clk)
	tp.Tap()
	clk.Advance(500 * time.Millisecond)
	tp.Tap()
	clk.Advance(250 * time.Millisecond)

	got := render(s, pixels, state{beat: tp.Beat()})
	if diff := cmp.Diff(colors(1, color.Blue.WithAlpha(0.5)), got); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownNestedKind(t *testing.T) {
	reg := newRegistry(t)
	s := reconcile.NewSocket(reg, "test", nil)
	err := s.Apply(context.Background(), config.MustNew(KindModulate, ModulateConfig{Alpha: 1, Input: &config.Node{Kind: "strobe"}}))
	if !errors.Is(err, errors.ErrCodeUnknownKind) {
		t.Errorf("Apply() = %v, want UNKNOWN_KIND", err)
	}
	if s.Kind() != KindModulate {
		t.Errorf("Kind() = %q, want %q", s.Kind(), KindModulate)
	}
}

func TestDestroyReleasesChildren(t *testing.T) {
	reg := newRegistry(t)
	s := apply(t, reg, config.MustNew(KindAdd, AddConfig{fill(1, 2, 3, 1), fill(4, 5, 6, 1)}))
	in := s.Instance().(*addInput[state])
	if err := s.Destroy(context.Background()); err != nil {
		t.Fatal(err)
	}
	if in.layers.Len() != 0 {
		t.Errorf("layers left after Destroy: %d", in.layers.Len())
	}
}
