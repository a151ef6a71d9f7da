package kinds

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
)

// ScanConfig configures the scan kind.
type ScanConfig struct {
	ColorConfig
	modules.ScanOptions
}

// DefaultScanConfig is a faint white beam.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		ColorConfig: ColorConfig{R: 255, G: 255, B: 255, Alpha: 0.1},
		ScanOptions: modules.DefaultScanOptions(),
	}
}

func (c ScanConfig) validate() error {
	if err := c.ColorConfig.validate(); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("beamWidth", c.BeamWidth); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("delay", c.Delay); err != nil {
		return err
	}
	return validateFinite("speed", c.Speed)
}

// Scan sweeps a beam across the pixel map.
func Scan[S any]() reconcile.Kind[S] {
	return reconcile.Kind[S]{
		Name:          KindScan,
		Description:   "beam sweeping across the map",
		InitialConfig: mustMarshal(DefaultScanConfig()),
		Validate:      validator(ScanConfig.validate),
		Create: func(env reconcile.Env[S]) (reconcile.Instance[S], error) {
			in := &scanInput[S]{
				module: modules.NewScan[S](color.Transparent, modules.DefaultScanOptions(), env.Clock),
				group:  desk.NewGroup(KindScan),
				swatch: desk.NewLabel(""),
				motion: desk.NewLabel(""),
			}
			in.group.Add(in.swatch, in.motion)
			return in, nil
		},
	}
}

type scanInput[S any] struct {
	module *modules.Scan[S]
	group  *desk.Group
	swatch *desk.Label
	motion *desk.Label
}

func (in *scanInput[S]) SetConfig(_ context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, DefaultScanConfig())
	if err != nil {
		return err
	}
	in.module.SetColor(cfg.RGBA())
	in.module.SetOptions(cfg.ScanOptions)
	in.swatch.SetText(cfg.describe())
	in.motion.SetText(fmt.Sprintf("beam %g, delay %g, speed %g", cfg.BeamWidth, cfg.Delay, cfg.Speed))
	return nil
}

func (in *scanInput[S]) Module() compositor.Module[S]  { return in.module }
func (in *scanInput[S]) Control() desk.Component       { return in.group }
func (in *scanInput[S]) Destroy(context.Context) error { return nil }
