package outputs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/observability"
	"github.com/matzehuels/lightdesk/pkg/stage"
)

// MaxVirtualPixels bounds the virtual output size.
const MaxVirtualPixels = 10000

// maxSwatches is how many sample colors the control surface shows.
const maxSwatches = 10

// VirtualConfig configures a virtual output.
type VirtualConfig struct {
	Pixels int `json:"pixels"`
}

func (c VirtualConfig) validate() error {
	if c.Pixels < 1 || c.Pixels > MaxVirtualPixels {
		return errors.New(errors.ErrCodeInvalidConfig, "pixels must be between 1 and %d, got %d", MaxVirtualPixels, c.Pixels)
	}
	return nil
}

// Frame is one rendered frame of a virtual output.
type Frame struct {
	Seq    uint64       `json:"seq"`
	Colors []color.RGBA `json:"-"`
}

// Hex returns the frame's colors as "#rrggbb" strings.
func (f Frame) Hex() []string {
	out := make([]string, len(f.Colors))
	for i, c := range f.Colors {
		out[i] = c.Hex()
	}
	return out
}

func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seq    uint64   `json:"seq"`
		Colors []string `json:"colors"`
	}{f.Seq, f.Hex()})
}

// Virtual returns the virtual output kind.
func Virtual(opts Options) stage.OutputKind {
	return stage.OutputKind{
		Name:          KindVirtual,
		Description:   "Renders into memory for previews and the frame stream",
		InitialConfig: json.RawMessage(`{"pixels":1}`),
		Validate: func(raw json.RawMessage) error {
			cfg, err := config.Decode(raw, VirtualConfig{})
			if err != nil {
				return err
			}
			return cfg.validate()
		},
		Create: func(env stage.OutputEnv) (stage.Output, error) {
			v := &VirtualOutput{
				env:    env,
				group:  desk.NewGroup("virtual"),
				pixels: desk.NewLabel(""),
				subs:   make(map[chan Frame]struct{}),
			}
			v.group.Add(v.pixels)
			v.cancel = env.Scheduler.Every(opts.interval(), v.tick)
			return v, nil
		},
	}
}

// VirtualOutput keeps the latest frame and fans it out to subscribers.
type VirtualOutput struct {
	env    stage.OutputEnv
	cancel func()
	group  *desk.Group
	pixels *desk.Label

	mu       sync.Mutex
	comp     *compositor.Compositor[stage.State]
	swatches []*desk.Label
	latest   Frame
	subs     map[chan Frame]struct{}
	closed   bool
}

func (v *VirtualOutput) SetConfig(_ context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, VirtualConfig{})
	if err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.comp != nil && len(v.comp.Pixels()) == cfg.Pixels {
		return nil
	}
	v.comp = v.env.NewCompositor(compositor.Line(cfg.Pixels))
	v.pixels.SetText(fmt.Sprintf("pixels: %d", cfg.Pixels))
	for _, s := range v.swatches {
		v.group.Remove(s)
	}
	v.swatches = v.swatches[:0]
	for range min(cfg.Pixels, maxSwatches) {
		s := desk.NewLabel("")
		v.swatches = append(v.swatches, s)
		v.group.Add(s)
	}
	return nil
}

func (v *VirtualOutput) Control() desk.Component { return v.group }

func (v *VirtualOutput) Destroy(context.Context) error {
	v.cancel()
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	for ch := range v.subs {
		close(ch)
	}
	clear(v.subs)
	return nil
}

// Latest returns the most recent frame. Its Seq is 0 before the first
// frame.
func (v *VirtualOutput) Latest() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.latest
}

// Subscribe returns a channel receiving every frame from now on. A slow
// reader misses intermediate frames but always gets the newest one. The
// channel is closed by cancel or when the output is destroyed.
func (v *VirtualOutput) Subscribe() (frames <-chan Frame, cancel func()) {
	ch := make(chan Frame, 1)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		close(ch)
		return ch, func() {}
	}
	v.subs[ch] = struct{}{}
	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if _, ok := v.subs[ch]; ok {
			delete(v.subs, ch)
			close(ch)
		}
	}
}

// Render renders and publishes one frame.
func (v *VirtualOutput) Render() Frame {
	v.mu.Lock()
	comp := v.comp
	v.mu.Unlock()
	if comp == nil {
		return Frame{}
	}

	start := time.Now()
	colors := comp.Colors()
	observability.Render().OnFrame(context.Background(), v.env.ID, len(colors), time.Since(start))

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.comp != comp {
		return v.latest
	}
	v.latest = Frame{Seq: v.latest.Seq + 1, Colors: colors}
	for i, s := range v.swatches {
		s.SetText(colors[sample(i, len(v.swatches), len(colors))].Hex())
	}
	for ch := range v.subs {
		publish(ch, v.latest)
	}
	return v.latest
}

func (v *VirtualOutput) tick() { v.Render() }

// sample spreads n swatches evenly over total pixels.
func sample(i, n, total int) int {
	if n <= 1 {
		return 0
	}
	return (i*(total-1) + (n-1)/2) / (n - 1)
}

// publish replaces any unread frame in ch with f.
func publish(ch chan Frame, f Frame) {
	for {
		select {
		case ch <- f:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
