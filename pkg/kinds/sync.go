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
	"github.com/matzehuels/lightdesk/pkg/playback"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
)

// SyncConfig configures the sync kind.
type SyncConfig struct {
	modules.SyncOptions
	Input *config.Node `json:"input"`
}

// DefaultSyncConfig uses the default opacity bounds with an empty input.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{SyncOptions: modules.DefaultSyncOptions()}
}

func (c SyncConfig) validate() error {
	if err := errors.ValidateAlpha("idleAlpha", c.IdleAlpha); err != nil {
		return err
	}
	if err := errors.ValidateAlpha("activeMinAlpha", c.ActiveMinAlpha); err != nil {
		return err
	}
	return errors.ValidateAlpha("activeMaxAlpha", c.ActiveMaxAlpha)
}

// Sync pulses its input's opacity with whatever is playing.
func Sync[S any](opts Options[S]) reconcile.Kind[S] {
	get := opts.Playback
	if get == nil {
		get = func(S) *playback.Snapshot { return nil }
	}
	return reconcile.Kind[S]{
		Name:          KindSync,
		Description:   "input pulsing with playback amplitude",
		InitialConfig: mustMarshal(DefaultSyncConfig()),
		Validate:      validator(SyncConfig.validate),
		Create: func(env reconcile.Env[S]) (reconcile.Instance[S], error) {
			in := &syncInput[S]{env: env, group: desk.NewGroup(KindSync), bounds: desk.NewLabel("")}
			in.input = env.NewSocket("input", in.saveInput)
			in.module = modules.NewSyncModulate(in.input.Module(), get, modules.DefaultSyncOptions(), env.Clock)
			in.group.Add(in.bounds, in.input.Control())
			return in, nil
		},
	}
}

type syncInput[S any] struct {
	env    reconcile.Env[S]
	input  *reconcile.Socket[S]
	module *modules.SyncModulate[S]
	group  *desk.Group
	bounds *desk.Label
	cfg    SyncConfig
}

func (in *syncInput[S]) saveInput(n *config.Node) {
	in.cfg.Input = n
	saveConfig(in.env, in.cfg)
}

func (in *syncInput[S]) SetConfig(ctx context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, DefaultSyncConfig())
	if err != nil {
		return err
	}
	in.cfg = cfg
	in.module.SetOptions(cfg.SyncOptions)
	in.bounds.SetText(fmt.Sprintf("idle %g, active %g to %g", cfg.IdleAlpha, cfg.ActiveMinAlpha, cfg.ActiveMaxAlpha))
	return in.input.Apply(ctx, cfg.Input)
}

func (in *syncInput[S]) Module() compositor.Module[S] { return in.module }
func (in *syncInput[S]) Control() desk.Component      { return in.group }

func (in *syncInput[S]) Destroy(ctx context.Context) error {
	return in.input.Destroy(ctx)
}
