package kinds

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
)

// ModulateConfig configures the modulate kind.
type ModulateConfig struct {
	Alpha float64      `json:"alpha"`
	Input *config.Node `json:"input"`
}

// DefaultModulateConfig passes an empty input through unchanged.
func DefaultModulateConfig() ModulateConfig {
	return ModulateConfig{Alpha: 1}
}

// Modulate scales its input's opacity.
func Modulate[S any]() reconcile.Kind[S] {
	return reconcile.Kind[S]{
		Name:          KindModulate,
		Description:   "input with scaled opacity",
		InitialConfig: mustMarshal(DefaultModulateConfig()),
		Validate: validator(func(c ModulateConfig) error {
			return errors.ValidateAlpha("alpha", c.Alpha)
		}),
		Create: func(env reconcile.Env[S]) (reconcile.Instance[S], error) {
			in := &modulateInput[S]{env: env, group: desk.NewGroup(KindModulate), level: desk.NewLabel("")}
			in.input = env.NewSocket("input", in.saveInput)
			in.module = modules.NewModulate(in.input.Module())
			in.group.Add(in.level, in.input.Control())
			return in, nil
		},
	}
}

type modulateInput[S any] struct {
	env    reconcile.Env[S]
	input  *reconcile.Socket[S]
	module *modules.Modulate[S]
	group  *desk.Group
	level  *desk.Label
	cfg    ModulateConfig
}

func (in *modulateInput[S]) saveInput(n *config.Node) {
	in.cfg.Input = n
	saveConfig(in.env, in.cfg)
}

func (in *modulateInput[S]) SetConfig(ctx context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, DefaultModulateConfig())
	if err != nil {
		return err
	}
	in.cfg = cfg
	in.module.SetAlpha(cfg.Alpha)
	in.level.SetText(fmt.Sprintf("alpha %g", cfg.Alpha))
	return in.input.Apply(ctx, cfg.Input)
}

func (in *modulateInput[S]) Module() compositor.Module[S] { return in.module }
func (in *modulateInput[S]) Control() desk.Component      { return in.group }

func (in *modulateInput[S]) Destroy(ctx context.Context) error {
	return in.input.Destroy(ctx)
}
