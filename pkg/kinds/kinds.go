// Package kinds provides the built-in input kinds: the configurable wrappers
// that turn config nodes into live modules.
//
// Leaf kinds (fill, scan) own a single primitive module. Composite kinds
// (add, chase, filter, modulate, sync, beat) embed child nodes in their
// config and reconcile them through child sockets, so a change deep in the
// tree only touches the instances it names.
//
//	reg := reconcile.NewRegistry[stage.State](reconcile.Options{})
//	if err := kinds.Register(reg, kinds.Options[stage.State]{
//	    Playback: func(s stage.State) *playback.Snapshot { return s.Playback },
//	}); err != nil {
//	    return err
//	}
package kinds

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/playback"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
	"github.com/matzehuels/lightdesk/pkg/tempo"
)

// Kind names.
const (
	KindFill     = "fill"
	KindAdd      = "add"
	KindScan     = "scan"
	KindChase    = "chase"
	KindFilter   = "filter"
	KindModulate = "modulate"
	KindSync     = "sync"
	KindBeat     = "beat"
)

// Options configures the built-in kinds.
type Options[S any] struct {
	// Playback extracts the playback snapshot from the render state for the
	// sync kind. Nil means nothing is ever playing.
	Playback func(S) *playback.Snapshot
	// Beat extracts the latest beat from the render state for the beat
	// kind. Nil means no beat ever lands.
	Beat func(S) tempo.Beat
	// Rand seeds chase phases. Nil uses the global source.
	Rand *rand.Rand
}

// All returns every built-in kind.
func All[S any](opts Options[S]) []reconcile.Kind[S] {
	return []reconcile.Kind[S]{
		Fill[S](),
		Add[S](),
		Scan[S](),
		Chase(opts),
		Filter[S](),
		Modulate[S](),
		Sync(opts),
		Beat(opts),
	}
}

// Register adds every built-in kind to reg.
func Register[S any](reg *reconcile.Registry[S], opts Options[S]) error {
	for _, k := range All(opts) {
		if err := reg.Register(k); err != nil {
			return fmt.Errorf("register %s: %w", k.Name, err)
		}
	}
	return nil
}

// ColorConfig is the color shared by the leaf kinds.
type ColorConfig struct {
	R     float64 `json:"r"`
	G     float64 `json:"g"`
	B     float64 `json:"b"`
	Alpha float64 `json:"alpha"`
}

// RGBA returns the configured color.
func (c ColorConfig) RGBA() color.RGBA {
	return color.New(c.R, c.G, c.B, c.Alpha)
}

func (c ColorConfig) validate() error {
	for _, ch := range []struct {
		name string
		v    float64
	}{{"r", c.R}, {"g", c.G}, {"b", c.B}} {
		if err := errors.ValidateChannel(ch.name, ch.v); err != nil {
			return err
		}
	}
	return errors.ValidateAlpha("alpha", c.Alpha)
}

func (c ColorConfig) describe() string {
	return fmt.Sprintf("rgb(%g, %g, %g) alpha %g", c.R, c.G, c.B, c.Alpha)
}

// validator decodes a config into T with strict field checking and runs
// check on the result.
func validator[T any](check func(T) error) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		var zero T
		cfg, err := config.Decode(raw, zero)
		if err != nil {
			return err
		}
		if check == nil {
			return nil
		}
		return check(cfg)
	}
}

func validateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "%s must be a finite number, got %v", field, v)
	}
	return nil
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// saveConfig pushes cfg up the tree on behalf of an instance.
func saveConfig[S any](env reconcile.Env[S], cfg any) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		env.Logger.Error("encode config", "err", err)
		return
	}
	env.SaveConfig(raw)
}

func transparent[S any]() compositor.Module[S] {
	return modules.NewFill[S](color.Transparent)
}

// mount replaces g's children with the controls of sockets.
func mount[S any](g *desk.Group, sockets ...*reconcile.Socket[S]) {
	g.Clear()
	for _, s := range sockets {
		g.Add(s.Control())
	}
}
