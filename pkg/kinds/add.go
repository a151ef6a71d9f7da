package kinds

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
)

// AddConfig is the add kind's layer list, bottom first. Nil entries are
// empty layers.
type AddConfig []*config.Node

// Add stacks its layers, each drawn over the ones before it.
func Add[S any]() reconcile.Kind[S] {
	return reconcile.Kind[S]{
		Name:          KindAdd,
		Description:   "layers composited bottom to top",
		InitialConfig: json.RawMessage("[]"),
		Validate:      validator[AddConfig](nil),
		Create: func(env reconcile.Env[S]) (reconcile.Instance[S], error) {
			module, err := modules.NewAdd(transparent[S]())
			if err != nil {
				return nil, err
			}
			in := &addInput[S]{env: env, module: module, group: desk.NewGroup(KindAdd)}
			in.layers = env.NewList("layers", in.saveLayer)
			return in, nil
		},
	}
}

type addInput[S any] struct {
	env    reconcile.Env[S]
	layers *reconcile.List[S]
	module *modules.Add[S]
	group  *desk.Group
	cfg    AddConfig
}

func (in *addInput[S]) saveLayer(i int, n *config.Node) {
	if i >= len(in.cfg) {
		return
	}
	next := slices.Clone(in.cfg)
	next[i] = n
	in.cfg = next
	saveConfig(in.env, next)
}

func (in *addInput[S]) SetConfig(ctx context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode[AddConfig](raw, nil)
	if err != nil {
		return err
	}
	in.cfg = cfg
	err = in.layers.Apply(ctx, cfg)

	if in.layers.Len() == 0 {
		_ = in.module.SetLayers(transparent[S]())
	} else {
		_ = in.module.SetLayers(in.layers.Modules()...)
	}
	mount(in.group, in.layers.Sockets()...)
	in.group.SetTitle(fmt.Sprintf("%s (%d layers)", KindAdd, len(cfg)))
	return err
}

func (in *addInput[S]) Module() compositor.Module[S] { return in.module }
func (in *addInput[S]) Control() desk.Component      { return in.group }

func (in *addInput[S]) Destroy(ctx context.Context) error {
	return in.layers.Destroy(ctx)
}
