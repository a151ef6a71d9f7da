package kinds

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
)

// ChaseConfig configures the chase kind.
type ChaseConfig struct {
	AdvanceAmountPerSecond float64        `json:"advanceAmountPerSecond"`
	Sequence               []*config.Node `json:"sequence"`
}

// DefaultChaseConfig is an empty sequence at the default speed.
func DefaultChaseConfig() ChaseConfig {
	return ChaseConfig{AdvanceAmountPerSecond: modules.DefaultChaseSpeed, Sequence: []*config.Node{}}
}

// Chase moves pixels through a sequence of steps. The chase module is
// rebuilt, and crossfaded in, only when the number of steps changes; speed
// changes apply in place.
func Chase[S any](opts Options[S]) reconcile.Kind[S] {
	return reconcile.Kind[S]{
		Name:          KindChase,
		Description:   "pixels cycling through a sequence",
		InitialConfig: mustMarshal(DefaultChaseConfig()),
		Validate: validator(func(c ChaseConfig) error {
			return errors.ValidateNonNegative("advanceAmountPerSecond", c.AdvanceAmountPerSecond)
		}),
		Create: func(env reconcile.Env[S]) (reconcile.Instance[S], error) {
			in := &chaseInput[S]{
				env:    env,
				opts:   opts,
				out:    modules.NewTransition(transparent[S](), env.Clock),
				length: -1,
				group:  desk.NewGroup(KindChase),
				speed:  desk.NewLabel(""),
				steps:  desk.NewGroup("sequence"),
			}
			in.sequence = env.NewList("sequence", in.saveStep)
			in.group.Add(in.speed, in.steps)
			return in, nil
		},
	}
}

type chaseInput[S any] struct {
	env      reconcile.Env[S]
	opts     Options[S]
	sequence *reconcile.List[S]
	out      *modules.Transition[S]
	chase    *modules.Chase[S]
	length   int
	group    *desk.Group
	speed    *desk.Label
	steps    *desk.Group
	cfg      ChaseConfig
}

func (in *chaseInput[S]) saveStep(i int, n *config.Node) {
	if i >= len(in.cfg.Sequence) {
		return
	}
	next := in.cfg
	next.Sequence = slices.Clone(in.cfg.Sequence)
	next.Sequence[i] = n
	in.cfg = next
	saveConfig(in.env, next)
}

func (in *chaseInput[S]) SetConfig(ctx context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, DefaultChaseConfig())
	if err != nil {
		return err
	}
	in.cfg = cfg
	err = in.sequence.Apply(ctx, cfg.Sequence)

	if in.chase != nil {
		in.chase.SetAdvancePerSecond(cfg.AdvanceAmountPerSecond)
	}
	if n := in.sequence.Len(); n != in.length {
		in.length = n
		var next compositor.Module[S]
		if n == 0 {
			in.chase = nil
			next = transparent[S]()
		} else {
			in.chase = modules.NewChase(in.sequence.Modules(), modules.ChaseOptions{
				AdvancePerSecond: cfg.AdvanceAmountPerSecond,
				Clock:            in.env.Clock,
				Rand:             in.opts.Rand,
			})
			next = in.chase
		}
		in.out.Transition(next, in.env.Registry.Fade())
	}

	in.speed.SetText(fmt.Sprintf("speed %g", cfg.AdvanceAmountPerSecond))
	mount(in.steps, in.sequence.Sockets()...)
	return err
}

func (in *chaseInput[S]) Module() compositor.Module[S] { return in.out }
func (in *chaseInput[S]) Control() desk.Component      { return in.group }

func (in *chaseInput[S]) Destroy(ctx context.Context) error {
	return in.sequence.Destroy(ctx)
}
