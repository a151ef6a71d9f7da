package kinds

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
	"github.com/matzehuels/lightdesk/pkg/tempo"
)

// BeatConfig configures the beat kind.
type BeatConfig struct {
	Input *config.Node `json:"input"`
}

// Beat flashes its input on every beat: fully opaque as the beat lands,
// fading out over the beat's period. Before the first beat the input is
// hidden.
func Beat[S any](opts Options[S]) reconcile.Kind[S] {
	get := opts.Beat
	if get == nil {
		get = func(S) tempo.Beat { return tempo.Beat{} }
	}
	return reconcile.Kind[S]{
		Name:          KindBeat,
		Description:   "input flashing on the beat",
		InitialConfig: mustMarshal(BeatConfig{}),
		Validate:      validator[BeatConfig](nil),
		Create: func(env reconcile.Env[S]) (reconcile.Instance[S], error) {
			clk := clock.Or(env.Clock)
			in := &beatInput[S]{env: env, group: desk.NewGroup(KindBeat)}
			in.input = env.NewSocket("input", in.saveInput)
			in.module = modules.NewModulateFunc(in.input.Module(), func(state S) float64 {
				return get(state).Flash(clk.Now())
			})
			in.group.Add(in.input.Control())
			return in, nil
		},
	}
}

type beatInput[S any] struct {
	env    reconcile.Env[S]
	input  *reconcile.Socket[S]
	module *modules.Modulate[S]
	group  *desk.Group
	cfg    BeatConfig
}

func (in *beatInput[S]) saveInput(n *config.Node) {
	in.cfg.Input = n
	saveConfig(in.env, in.cfg)
}

func (in *beatInput[S]) SetConfig(ctx context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, BeatConfig{})
	if err != nil {
		return err
	}
	in.cfg = cfg
	return in.input.Apply(ctx, cfg.Input)
}

func (in *beatInput[S]) Module() compositor.Module[S] { return in.module }
func (in *beatInput[S]) Control() desk.Component      { return in.group }

func (in *beatInput[S]) Destroy(ctx context.Context) error {
	return in.input.Destroy(ctx)
}
