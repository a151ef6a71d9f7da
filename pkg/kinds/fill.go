package kinds

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
)

// FillConfig configures the fill kind.
type FillConfig struct {
	ColorConfig
}

// DefaultFillConfig is opaque black.
func DefaultFillConfig() FillConfig {
	return FillConfig{ColorConfig{Alpha: 1}}
}

// Fill paints every pixel one color.
func Fill[S any]() reconcile.Kind[S] {
	return reconcile.Kind[S]{
		Name:          KindFill,
		Description:   "solid color",
		InitialConfig: mustMarshal(DefaultFillConfig()),
		Validate:      validator(func(c FillConfig) error { return c.validate() }),
		Create: func(env reconcile.Env[S]) (reconcile.Instance[S], error) {
			in := &fillInput[S]{
				module: modules.NewFill[S](DefaultFillConfig().RGBA()),
				group:  desk.NewGroup(KindFill),
				swatch: desk.NewLabel(""),
			}
			in.group.Add(in.swatch)
			return in, nil
		},
	}
}

type fillInput[S any] struct {
	module *modules.Fill[S]
	group  *desk.Group
	swatch *desk.Label
}

func (in *fillInput[S]) SetConfig(_ context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, DefaultFillConfig())
	if err != nil {
		return err
	}
	in.module.SetColor(cfg.RGBA())
	in.swatch.SetText(cfg.describe())
	return nil
}

func (in *fillInput[S]) Module() compositor.Module[S]  { return in.module }
func (in *fillInput[S]) Control() desk.Component       { return in.group }
func (in *fillInput[S]) Destroy(context.Context) error { return nil }
