package stage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/kinds"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
	"github.com/matzehuels/lightdesk/pkg/scheduler"
	"github.com/matzehuels/lightdesk/pkg/store"
	"github.com/matzehuels/lightdesk/pkg/tempo"
)

type sinkConfig struct {
	Pixels int `json:"pixels"`
}

// sink is an output that renders on demand.
type sink struct {
	env       OutputEnv
	comp      *compositor.Compositor[State]
	configs   []string
	destroyed bool
}

func (p *sink) SetConfig(_ context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, sinkConfig{})
	if err != nil {
		return err
	}
	p.configs = append(p.configs, string(raw))
	p.comp = p.env.NewCompositor(compositor.Line(cfg.Pixels))
	return nil
}

func (p *sink) Control() desk.Component { return desk.NewLabel("sink") }

func (p *sink) Destroy(context.Context) error {
	p.destroyed = true
	return nil
}

func (p *sink) colors() []string {
	frame := p.comp.Colors()
	out := make([]string, len(frame))
	for i, c := range frame {
		out[i] = c.String()
	}
	return out
}

type fixture struct {
	ctx   context.Context
	clk   *clock.Manual
	stage *Stage
	store *store.Memory
	sinks []*sink
}

func newFixture(t *testing.T, stored []byte) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		clk:   clock.NewManual(time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)),
		store: store.NewMemory(stored),
	}

	reg := reconcile.NewRegistry[State](reconcile.Options{Fade: -1, Clock: f.clk})
	if err := kinds.Register(reg, kinds.Options[State]{Playback: PlaybackOf, Beat: BeatOf}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	sinkKind := OutputKind{
		Name:          "sink",
		InitialConfig: json.RawMessage(`{"pixels":2}`),
		Validate: func(raw json.RawMessage) error {
			cfg, err := config.Decode(raw, sinkConfig{})
			if err != nil {
				return err
			}
			if cfg.Pixels < 1 {
				return errors.New(errors.ErrCodeInvalidConfig, "pixels must be positive")
			}
			return nil
		},
		Create: func(env OutputEnv) (Output, error) {
			p := &sink{env: env}
			f.sinks = append(f.sinks, p)
			return p, nil
		},
	}

	st, err := New(Options{
		Inputs:      reg,
		OutputKinds: []OutputKind{sinkKind},
		Store:       f.store,
		Scheduler:   scheduler.NewManual(),
		Tempo:       tempo.NewTapper(f.clk),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })
	f.stage = st
	return f
}

func (f *fixture) stored(t *testing.T) Config {
	t.Helper()
	if err := f.stage.Flush(f.ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	data, err := f.store.Load(f.ctx)
	if err != nil {
		t.Fatalf("store Load() error = %v", err)
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	return cfg
}

func red() *config.Node {
	return config.MustNew(kinds.KindFill, kinds.FillConfig{ColorConfig: kinds.ColorConfig{R: 255, Alpha: 1}})
}

func strs(cs ...color.RGBA) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func TestNewRequiresInputs(t *testing.T) {
	_, err := New(Options{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New() error = %v, want %v", err, errors.ErrCodeInvalidInput)
	}
}

func TestNewRejectsBadOutputKinds(t *testing.T) {
	reg := reconcile.NewRegistry[State](reconcile.Options{})
	create := func(OutputEnv) (Output, error) { return nil, nil }
	tests := []struct {
		name  string
		kinds []OutputKind
		code  errors.Code
	}{
		{"bad name", []OutputKind{{Name: "Art Net", Create: create}}, errors.ErrCodeInvalidKind},
		{"no create", []OutputKind{{Name: "virtual"}}, errors.ErrCodeInvalidKind},
		{"duplicate", []OutputKind{{Name: "virtual", Create: create}, {Name: "virtual", Create: create}}, errors.ErrCodeDuplicateKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{Inputs: reg, OutputKinds: tt.kinds})
			if !errors.Is(err, tt.code) {
				t.Errorf("New() error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		stored  []byte
		wantErr bool
		outputs int
	}{
		{"nothing stored", nil, false, 0},
		{"malformed document", []byte("{"), false, 0},
		{"one output", []byte(`{"outputs":{"a":{"name":"Strip","kind":"sink","config":{"pixels":3}}}}`), false, 1},
		{"unknown output kind", []byte(`{"outputs":{"a":{"name":"Laser","kind":"laser"}}}`), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.stored)
			err := f.stage.Load(f.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(f.sinks) != tt.outputs {
				t.Errorf("outputs created = %d, want %d", len(f.sinks), tt.outputs)
			}
			if got := f.store.Saves(); got != 0 {
				t.Errorf("store saves after Load = %d, want 0", got)
			}
		})
	}
}

func TestLoadInvalidOutputConfigFallsBack(t *testing.T) {
	f := newFixture(t, []byte(`{"outputs":{"a":{"kind":"sink","config":{"pixels":0}}}}`))

	err := f.stage.Load(f.ctx)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load() error = %v, want %v", err, errors.ErrCodeInvalidConfig)
	}
	if len(f.sinks) != 1 {
		t.Fatalf("outputs created = %d, want 1", len(f.sinks))
	}
	if diff := cmp.Diff([]string{`{"pixels":2}`}, f.sinks[0].configs); diff != "" {
		t.Errorf("configs mismatch (-want +got):\n%s", diff)
	}
	// The document keeps what the user wrote.
	if got := string(f.stage.Config().Outputs["a"].Config); got != `{"pixels":0}` {
		t.Errorf("stored output config = %s", got)
	}
}

func TestCueOnStage(t *testing.T) {
	f := newFixture(t, nil)
	outID, err := f.stage.AddOutput(f.ctx, "sink", "Strip")
	if err != nil {
		t.Fatalf("AddOutput() error = %v", err)
	}
	p := f.sinks[0]

	if diff := cmp.Diff(strs(color.Transparent, color.Transparent), p.colors()); diff != "" {
		t.Errorf("empty stage mismatch (-want +got):\n%s", diff)
	}

	cueID, err := f.stage.AddCue(f.ctx, "Intro")
	if err != nil {
		t.Fatalf("AddCue() error = %v", err)
	}
	if err := f.stage.SetCueModule(f.ctx, cueID, red()); err != nil {
		t.Fatalf("SetCueModule() error = %v", err)
	}
	if diff := cmp.Diff(strs(color.Transparent, color.Transparent), p.colors()); diff != "" {
		t.Errorf("cue not current mismatch (-want +got):\n%s", diff)
	}

	if err := f.stage.SetCurrentCue(f.ctx, &cueID); err != nil {
		t.Fatalf("SetCurrentCue() error = %v", err)
	}
	if diff := cmp.Diff(strs(color.Red, color.Red), p.colors()); diff != "" {
		t.Errorf("current cue mismatch (-want +got):\n%s", diff)
	}

	if err := f.stage.SetDimmer(f.ctx, 0.5); err != nil {
		t.Fatalf("SetDimmer() error = %v", err)
	}
	half := color.Red.ScaleAlpha(0.5)
	if diff := cmp.Diff(strs(half, half), p.colors()); diff != "" {
		t.Errorf("dimmed mismatch (-want +got):\n%s", diff)
	}

	stored := f.stored(t)
	live, _ := f.stage.Config().Encode()
	saved, _ := stored.Encode()
	if diff := cmp.Diff(string(live), string(saved)); diff != "" {
		t.Errorf("stored document mismatch (-live +stored):\n%s", diff)
	}
	if stored.Outputs[outID].Name != "Strip" {
		t.Errorf("stored output name = %q, want Strip", stored.Outputs[outID].Name)
	}
}

func TestDeleteCurrentCue(t *testing.T) {
	f := newFixture(t, nil)
	f.stage.AddOutput(f.ctx, "sink", "")
	id, _ := f.stage.AddCue(f.ctx, "")
	f.stage.SetCueModule(f.ctx, id, red())
	f.stage.SetCurrentCue(f.ctx, &id)

	if err := f.stage.DeleteCue(f.ctx, id); err != nil {
		t.Fatalf("DeleteCue() error = %v", err)
	}
	cfg := f.stage.Config()
	if cfg.CurrentCue() != "" {
		t.Errorf("CurrentCue() = %q, want none", cfg.CurrentCue())
	}
	if len(cfg.Cues()) != 0 {
		t.Errorf("Cues() = %v, want empty", cfg.Cues())
	}
	if diff := cmp.Diff(strs(color.Transparent, color.Transparent), f.sinks[0].colors()); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%s", diff)
	}
}

func TestClearCurrentCue(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.stage.AddCue(f.ctx, "")
	f.stage.SetCurrentCue(f.ctx, &id)

	if err := f.stage.SetCurrentCue(f.ctx, nil); err != nil {
		t.Fatalf("SetCurrentCue(nil) error = %v", err)
	}
	if got := f.stage.Config().CurrentCue(); got != "" {
		t.Errorf("CurrentCue() = %q, want none", got)
	}
}

func TestOperationErrors(t *testing.T) {
	f := newFixture(t, nil)
	missing := "missing"
	tests := []struct {
		name string
		op   func() error
		code errors.Code
	}{
		{"delete cue", func() error { return f.stage.DeleteCue(f.ctx, missing) }, errors.ErrCodeNotFound},
		{"rename cue", func() error { return f.stage.RenameCue(f.ctx, missing, "x") }, errors.ErrCodeNotFound},
		{"set cue module", func() error { return f.stage.SetCueModule(f.ctx, missing, red()) }, errors.ErrCodeNotFound},
		{"set current cue", func() error { return f.stage.SetCurrentCue(f.ctx, &missing) }, errors.ErrCodeNotFound},
		{"delete output", func() error { return f.stage.DeleteOutput(f.ctx, missing) }, errors.ErrCodeNotFound},
		{"rename output", func() error { return f.stage.RenameOutput(f.ctx, missing, "x") }, errors.ErrCodeNotFound},
		{"set output config", func() error { return f.stage.SetOutputConfig(f.ctx, missing, nil) }, errors.ErrCodeNotFound},
		{"dimmer too high", func() error { return f.stage.SetDimmer(f.ctx, 2) }, errors.ErrCodeInvalidConfig},
		{"control character", func() error { _, err := f.stage.AddCue(f.ctx, "a\x01"); return err }, errors.ErrCodeInvalidInput},
		{"unknown output kind", func() error { _, err := f.stage.AddOutput(f.ctx, "laser", ""); return err }, errors.ErrCodeUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %v", err, tt.code)
			}
		})
	}
	if diff := cmp.Diff(Config{}, f.stage.Config()); diff != "" {
		t.Errorf("failed operations changed the document:\n%s", diff)
	}
}

func TestSetCueModuleRejectsBeforeChanging(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.stage.AddCue(f.ctx, "")
	f.stage.SetCueModule(f.ctx, id, red())

	tests := []struct {
		name string
		node *config.Node
		code errors.Code
	}{
		{"unknown kind", &config.Node{Kind: "strobe"}, errors.ErrCodeUnknownKind},
		{"invalid config", &config.Node{Kind: kinds.KindFill, Config: json.RawMessage(`{"r":999}`)}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.stage.SetCueModule(f.ctx, id, tt.node); !errors.Is(err, tt.code) {
				t.Errorf("SetCueModule() error = %v, want %v", err, tt.code)
			}
			if got := f.stage.Config().Cues()[id].Module; !config.Equal(got, red()) {
				t.Errorf("cue module = %+v, want unchanged", got)
			}
		})
	}
}

func TestOutputLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	id, err := f.stage.AddOutput(f.ctx, "sink", "Strip")
	if err != nil {
		t.Fatalf("AddOutput() error = %v", err)
	}
	if len(f.sinks) != 1 {
		t.Fatalf("outputs created = %d, want 1", len(f.sinks))
	}
	p := f.sinks[0]

	if err := f.stage.SetOutputConfig(f.ctx, id, json.RawMessage(`{"pixels":3}`)); err != nil {
		t.Fatalf("SetOutputConfig() error = %v", err)
	}
	if err := f.stage.SetOutputConfig(f.ctx, id, json.RawMessage(`{"pixels":0}`)); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("SetOutputConfig(invalid) error = %v, want %v", err, errors.ErrCodeInvalidConfig)
	}
	if err := f.stage.RenameOutput(f.ctx, id, "Front"); err != nil {
		t.Fatalf("RenameOutput() error = %v", err)
	}
	want := []string{`{"pixels":2}`, `{"pixels":3}`}
	if diff := cmp.Diff(want, p.configs); diff != "" {
		t.Errorf("configs mismatch (-want +got):\n%s", diff)
	}
	if len(f.sinks) != 1 {
		t.Errorf("outputs created = %d, want 1", len(f.sinks))
	}
	if got := len(p.colors()); got != 3 {
		t.Errorf("frame length = %d, want 3", got)
	}

	if out, ok := f.stage.Output(id); !ok || out != Output(p) {
		t.Errorf("Output(%s) = %v, %v", id, out, ok)
	}
	if err := f.stage.DeleteOutput(f.ctx, id); err != nil {
		t.Fatalf("DeleteOutput() error = %v", err)
	}
	if !p.destroyed {
		t.Error("output not destroyed")
	}
	if _, ok := f.stage.Output(id); ok {
		t.Error("Output() found a deleted output")
	}
}

func TestOutputSaveConfig(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.stage.AddOutput(f.ctx, "sink", "")
	p := f.sinks[0]

	p.env.SaveConfig(json.RawMessage(`{"pixels":4}`))

	if got := string(f.stage.Config().Outputs[id].Config); got != `{"pixels":4}` {
		t.Errorf("output config = %s", got)
	}
	if got := f.stored(t).Outputs[id].Config; !config.RawEqual(got, json.RawMessage(`{"pixels":4}`)) {
		t.Errorf("stored output config = %s", got)
	}
}

func TestOutputsUseDisjointPixelIndices(t *testing.T) {
	f := newFixture(t, nil)
	f.stage.AddOutput(f.ctx, "sink", "a")
	f.stage.AddOutput(f.ctx, "sink", "b")

	seen := map[int]bool{}
	for _, p := range f.sinks {
		for _, px := range p.comp.Pixels() {
			if seen[px.Index] {
				t.Errorf("pixel index %d used twice", px.Index)
			}
			seen[px.Index] = true
		}
	}
}

func TestCheck(t *testing.T) {
	f := newFixture(t, nil)
	cur := "c1"
	dimmer := 1.5
	tests := []struct {
		name string
		cfg  Config
		code errors.Code
	}{
		{"empty", Config{}, ""},
		{"unknown output kind", Config{Outputs: map[string]OutputConfig{"a": {Kind: "laser"}}}, errors.ErrCodeUnknownKind},
		{"invalid output config", Config{Outputs: map[string]OutputConfig{"a": {Kind: "sink", Config: json.RawMessage(`{"pixels":0}`)}}}, errors.ErrCodeInvalidConfig},
		{"nested unknown kind", Config{Compositor: &CompositorConfig{Cues: map[string]CueConfig{
			"c1": {Module: config.MustNew(kinds.KindAdd, []*config.Node{{Kind: "strobe"}})},
		}}}, errors.ErrCodeUnknownKind},
		{"missing current cue", Config{Compositor: &CompositorConfig{Current: &cur}}, errors.ErrCodeNotFound},
		{"dimmer out of range", Config{Compositor: &CompositorConfig{Dimmer: &dimmer}}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.stage.Check(tt.cfg)
			if tt.code == "" {
				if err != nil {
					t.Errorf("Check() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Check() error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestReplaceWithoutSave(t *testing.T) {
	f := newFixture(t, nil)
	id := "c1"
	cfg := Config{Compositor: &CompositorConfig{Current: &id, Cues: map[string]CueConfig{id: {Name: "Intro", Module: red()}}}}

	if err := f.stage.Replace(f.ctx, cfg, false); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if diff := cmp.Diff(cfg, f.stage.Config()); diff != "" {
		t.Errorf("Config() mismatch (-want +got):\n%s", diff)
	}
	f.stage.Flush(f.ctx)
	if got := f.store.Saves(); got != 0 {
		t.Errorf("store saves = %d, want 0", got)
	}
}

func TestUpdateConfig(t *testing.T) {
	f := newFixture(t, nil)
	err := f.stage.UpdateConfig(f.ctx, func(c Config) Config {
		c.compositor().Cues["c1"] = CueConfig{Name: "Outro"}
		return c
	})
	if err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}
	if got := f.stored(t).Cues()["c1"].Name; got != "Outro" {
		t.Errorf("stored cue name = %q, want Outro", got)
	}
}

func TestDesk(t *testing.T) {
	f := newFixture(t, nil)
	f.stage.AddOutput(f.ctx, "sink", "Strip")
	id, _ := f.stage.AddCue(f.ctx, "Intro")
	f.stage.SetCurrentCue(f.ctx, &id)

	root := f.stage.Desk()
	if len(root.Children) != 2 {
		t.Fatalf("desk root children = %d, want 2", len(root.Children))
	}
	outputs, comp := root.Children[0], root.Children[1]
	if len(outputs.Children) != 1 || outputs.Children[0].Title != "Strip" {
		t.Errorf("outputs group = %+v", outputs)
	}
	labels := []string{comp.Children[0].Text, comp.Children[1].Text, comp.Children[2].Text}
	if diff := cmp.Diff([]string{"Dimmer: 100%", "Current cue: Intro", "Beat: stopped"}, labels); diff != "" {
		t.Errorf("compositor labels mismatch (-want +got):\n%s", diff)
	}
	cues := comp.Children[3]
	if len(cues.Children) != 1 || cues.Children[0].Title != "Intro" {
		t.Errorf("cues group = %+v", cues)
	}
}

func TestBeatFlashesCue(t *testing.T) {
	f := newFixture(t, nil)
	f.stage.AddOutput(f.ctx, "sink", "")
	id, _ := f.stage.AddCue(f.ctx, "Pulse")
	if err := f.stage.SetCueModule(f.ctx, id, config.MustNew(kinds.KindBeat, kinds.BeatConfig{Input: red()})); err != nil {
		t.Fatalf("SetCueModule() error = %v", err)
	}
	f.stage.SetCurrentCue(f.ctx, &id)
	out := f.sinks[0]
	beatLabel := func() string { return f.stage.Desk().Children[1].Children[2].Text }

	if diff := cmp.Diff(strs(color.Red.WithAlpha(0), color.Red.WithAlpha(0)), out.colors()); diff != "" {
		t.Errorf("before any tap mismatch (-want +got):\n%s", diff)
	}

	f.stage.TapBeat()
	if got := beatLabel(); got != "Beat: 1 taps" {
		t.Errorf("label after first tap = %q", got)
	}
	f.clk.Advance(500 * time.Millisecond)
	st := f.stage.TapBeat()
	if !st.Running || st.BPM != 120 {
		t.Errorf("TapBeat() = %+v, want running at 120 bpm", st)
	}
	if got := beatLabel(); got != "Beat: 120.0 bpm" {
		t.Errorf("label while running = %q", got)
	}
	if diff := cmp.Diff(strs(color.Red, color.Red), out.colors()); diff != "" {
		t.Errorf("on the beat mismatch (-want +got):\n%s", diff)
	}

	f.clk.Advance(250 * time.Millisecond)
	if diff := cmp.Diff(strs(color.Red.WithAlpha(0.5), color.Red.WithAlpha(0.5)), out.colors()); diff != "" {
		t.Errorf("half a beat later mismatch (-want +got):\n%s", diff)
	}
	f.clk.Advance(250 * time.Millisecond)
	if diff := cmp.Diff(strs(color.Red, color.Red), out.colors()); diff != "" {
		t.Errorf("next beat mismatch (-want +got):\n%s", diff)
	}

	f.stage.StopBeat()
	if got := beatLabel(); got != "Beat: stopped" {
		t.Errorf("label after stop = %q", got)
	}
	f.clk.Advance(time.Second)
	if diff := cmp.Diff(strs(color.Red.WithAlpha(0), color.Red.WithAlpha(0)), out.colors()); diff != "" {
		t.Errorf("after stop mismatch (-want +got):\n%s", diff)
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t, nil)
	f.stage.AddOutput(f.ctx, "sink", "")
	f.stage.AddCue(f.ctx, "Intro")

	if err := f.stage.Close(f.ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !f.sinks[0].destroyed {
		t.Error("output not destroyed on Close")
	}
	data, err := f.store.Load(f.ctx)
	if err != nil {
		t.Fatalf("store Load() error = %v", err)
	}
	cfg, _ := DecodeConfig(data)
	if len(cfg.Cues()) != 1 {
		t.Errorf("stored cues = %d, want 1", len(cfg.Cues()))
	}
	if _, err := f.stage.AddCue(f.ctx, "late"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("AddCue() after Close error = %v, want %v", err, errors.ErrCodeUnsupported)
	}
	if err := f.stage.Close(f.ctx); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestConfigClone(t *testing.T) {
	cur, dim := "a", 0.5
	c := Config{
		Outputs:    map[string]OutputConfig{"o": {Kind: "sink", Config: json.RawMessage(`{"pixels":1}`)}},
		Compositor: &CompositorConfig{Current: &cur, Dimmer: &dim, Cues: map[string]CueConfig{"a": {Module: red()}}},
	}
	cp := c.Clone()
	*cp.Compositor.Current = "b"
	*cp.Compositor.Dimmer = 1
	cp.Outputs["o"].Config[0] = '['
	cp.Compositor.Cues["a"].Module.Kind = "scan"

	if c.CurrentCue() != "a" || c.DimmerValue() != 0.5 {
		t.Errorf("Clone() shares compositor pointers")
	}
	if string(c.Outputs["o"].Config) != `{"pixels":1}` {
		t.Errorf("Clone() shares output config bytes")
	}
	if c.Cues()["a"].Module.Kind != kinds.KindFill {
		t.Errorf("Clone() shares cue modules")
	}
}

func TestDecodeConfig(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"empty", "", false},
		{"whitespace", " \n", false},
		{"object", `{"compositor":{"current":null,"cues":{}}}`, false},
		{"unknown fields ignored", `{"version":3}`, false},
		{"malformed", `{"outputs":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeConfig([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
