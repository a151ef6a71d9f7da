package kinds

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
)

// FilterRoute sends the pixels whose properties include every entry of
// Filter to Input. An empty filter matches every pixel.
type FilterRoute struct {
	Filter map[string]string `json:"filter"`
	Input  *config.Node      `json:"input"`
}

// FilterConfig is the filter kind's route list. The first matching route
// wins.
type FilterConfig []FilterRoute

// Propertied is implemented by pixel data that carries string properties.
type Propertied interface {
	Properties() map[string]string
}

// Properties returns the string properties of a pixel's data. It accepts
// map[string]string, the string values of a map[string]any (or of its
// nested "properties" map), and Propertied values.
func Properties(data any) map[string]string {
	switch d := data.(type) {
	case map[string]string:
		return d
	case Propertied:
		return d.Properties()
	case map[string]any:
		if nested, ok := d["properties"].(map[string]any); ok {
			d = nested
		}
		out := make(map[string]string, len(d))
		for k, v := range d {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

// Matcher returns a predicate accepting pixels whose properties are a
// superset of filter.
func Matcher(filter map[string]string) func(compositor.PixelInfo) bool {
	want := maps.Clone(filter)
	return func(p compositor.PixelInfo) bool {
		if len(want) == 0 {
			return true
		}
		props := Properties(p.Data)
		for k, v := range want {
			if got, ok := props[k]; !ok || got != v {
				return false
			}
		}
		return true
	}
}

// Filter routes pixels to inputs by their properties.
func Filter[S any]() reconcile.Kind[S] {
	return reconcile.Kind[S]{
		Name:          KindFilter,
		Description:   "inputs selected by pixel properties",
		InitialConfig: json.RawMessage("[]"),
		Validate:      validator[FilterConfig](nil),
		Create: func(env reconcile.Env[S]) (reconcile.Instance[S], error) {
			in := &filterInput[S]{env: env, module: modules.NewFilter[S](), group: desk.NewGroup(KindFilter)}
			in.inputs = env.NewList("routes", in.saveInput)
			return in, nil
		},
	}
}

type filterInput[S any] struct {
	env    reconcile.Env[S]
	inputs *reconcile.List[S]
	module *modules.Filter[S]
	group  *desk.Group
	cfg    FilterConfig
}

func (in *filterInput[S]) saveInput(i int, n *config.Node) {
	if i >= len(in.cfg) {
		return
	}
	next := slices.Clone(in.cfg)
	next[i].Input = n
	in.cfg = next
	saveConfig(in.env, next)
}

func (in *filterInput[S]) SetConfig(ctx context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode[FilterConfig](raw, nil)
	if err != nil {
		return err
	}
	in.cfg = cfg

	nodes := make([]*config.Node, len(cfg))
	for i, r := range cfg {
		nodes[i] = r.Input
	}
	err = in.inputs.Apply(ctx, nodes)

	sockets := in.inputs.Sockets()
	routes := make([]modules.Route[S], len(sockets))
	in.group.Clear()
	for i, s := range sockets {
		routes[i] = modules.Route[S]{Match: Matcher(cfg[i].Filter), Module: s.Module()}
		g := desk.NewGroup(describeFilter(cfg[i].Filter))
		g.Add(s.Control())
		in.group.Add(g)
	}
	in.module.SetRoutes(routes...)
	return err
}

func describeFilter(filter map[string]string) string {
	if len(filter) == 0 {
		return "all pixels"
	}
	parts := make([]string, 0, len(filter))
	for _, k := range slices.Sorted(maps.Keys(filter)) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, filter[k]))
	}
	return strings.Join(parts, ", ")
}

func (in *filterInput[S]) Module() compositor.Module[S] { return in.module }
func (in *filterInput[S]) Control() desk.Component      { return in.group }

func (in *filterInput[S]) Destroy(ctx context.Context) error {
	return in.inputs.Destroy(ctx)
}
