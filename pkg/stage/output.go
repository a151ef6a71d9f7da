package stage

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/scheduler"
)

// Output is a live output instance: something that pulls frames from the
// stage and hands them to a transport.
type Output interface {
	// SetConfig applies a validated config. It runs with the stage locked
	// and must not render.
	SetConfig(ctx context.Context, raw json.RawMessage) error
	// Control returns the output's control surface, or nil.
	Control() desk.Component
	// Destroy stops rendering and releases the transport.
	Destroy(ctx context.Context) error
}

// OutputKind describes how to build outputs of one kind.
type OutputKind struct {
	Name          string
	Description   string
	InitialConfig json.RawMessage
	Validate      func(raw json.RawMessage) error
	Create        func(env OutputEnv) (Output, error)
}

func (k OutputKind) validate(raw json.RawMessage) error {
	if k.Validate == nil {
		return nil
	}
	return k.Validate(raw)
}

// OutputEnv is handed to OutputKind.Create.
type OutputEnv struct {
	ID        string
	Logger    *log.Logger
	Scheduler scheduler.Scheduler
	Clock     clock.Clock

	stage *Stage
}

// NewCompositor returns a compositor over pixels whose frames come from
// the stage. Rendering takes the stage lock, so frames must be rendered
// from scheduler callbacks, never from SetConfig.
func (e OutputEnv) NewCompositor(pixels []compositor.PixelInfo) *compositor.Compositor[State] {
	base := int(e.stage.nextPixel.Add(int64(len(pixels)))) - len(pixels)
	return compositor.NewAt[State](lockedRoot{e.stage}, pixels, State{}, base)
}

// SaveConfig replaces this output's config in the stage document. It takes
// the stage lock and must not be called from SetConfig.
func (e OutputEnv) SaveConfig(raw json.RawMessage) {
	err := e.stage.update(context.Background(), true, func(c *Config) error {
		o, ok := c.Outputs[e.ID]
		if !ok {
			return nil
		}
		o.Config = raw
		c.Outputs[e.ID] = o
		return nil
	})
	if err != nil {
		e.Logger.Warn("save output config", "err", err)
	}
}

// lockedRoot renders the stage root under the stage lock with the latest
// playback snapshot and beat.
type lockedRoot struct{ s *Stage }

func (r lockedRoot) Render(m compositor.PixelMap, pixels []compositor.PixelInfo, _ State) []color.RGBA {
	state := State{Playback: r.s.playback.Load(), Beat: r.s.tempo.Beat()}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.root.Render(m, pixels, state)
}

func registerOutputKinds(kinds []OutputKind) (map[string]OutputKind, error) {
	out := make(map[string]OutputKind, len(kinds))
	for _, k := range kinds {
		if err := errors.ValidateKindName(k.Name); err != nil {
			return nil, err
		}
		if k.Create == nil {
			return nil, errors.New(errors.ErrCodeInvalidKind, "output kind %q has no Create function", k.Name)
		}
		if _, ok := out[k.Name]; ok {
			return nil, errors.New(errors.ErrCodeDuplicateKind, "output kind %q already registered", k.Name)
		}
		if len(k.InitialConfig) == 0 {
			k.InitialConfig = json.RawMessage("{}")
		}
		if err := k.validate(k.InitialConfig); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidKind, err, "output kind %q rejects its own initial config", k.Name)
		}
		out[k.Name] = k
	}
	return out, nil
}

func sortedKinds(m map[string]OutputKind) []OutputKind {
	out := make([]OutputKind, 0, len(m))
	for _, k := range m {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b OutputKind) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// applyOutputs converges the live outputs on next. s.mu must be held.
func (s *Stage) applyOutputs(ctx context.Context, next Config) error {
	var errs []error
	ids := sortedKeys(next.Outputs)
	for _, id := range sortedKeys(s.outputs) {
		if _, ok := next.Outputs[id]; !ok {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		active := s.outputs[id]
		oc, ok := next.Outputs[id]
		if active != nil && (!ok || active.kind != oc.Kind) {
			errs = append(errs, s.destroyOutput(ctx, id))
			active = nil
		}
		if !ok {
			continue
		}
		kind, known := s.outputKinds[oc.Kind]
		if !known {
			errs = append(errs, errors.New(errors.ErrCodeUnknownKind, "output %s: no output kind registered as %q", id, oc.Kind))
			continue
		}
		if active == nil {
			errs = append(errs, s.createOutput(ctx, id, kind, oc))
			continue
		}
		active.group.SetTitle(outputTitle(oc))
		if config.RawEqual(active.cfg, oc.Config) {
			continue
		}
		raw := oc.Config
		if len(raw) == 0 {
			raw = kind.InitialConfig
		}
		if err := kind.validate(raw); err != nil {
			errs = append(errs, errors.Wrap(errors.ErrCodeInvalidConfig, err, "output %s", id))
			continue
		}
		if err := active.output.SetConfig(ctx, raw); err != nil {
			errs = append(errs, errors.Wrap(errors.ErrCodeInvalidConfig, err, "output %s", id))
			continue
		}
		active.cfg = bytes.Clone(oc.Config)
	}
	return stderrors.Join(errs...)
}

func (s *Stage) createOutput(ctx context.Context, id string, kind OutputKind, oc OutputConfig) error {
	var invalid error
	raw := oc.Config
	if len(raw) == 0 {
		raw = kind.InitialConfig
	}
	if err := kind.validate(raw); err != nil {
		invalid = errors.Wrap(errors.ErrCodeInvalidConfig, err, "output %s: using initial %s config", id, kind.Name)
		raw = kind.InitialConfig
	}

	env := OutputEnv{
		ID:        id,
		Logger:    s.logger.With("output", id, "kind", kind.Name),
		Scheduler: s.sched,
		Clock:     s.clock,
		stage:     s,
	}
	out, err := kind.Create(env)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "output %s: create %s", id, kind.Name)
	}
	if err := out.SetConfig(ctx, raw); err != nil {
		if derr := out.Destroy(ctx); derr != nil {
			env.Logger.Warn("destroy output", "err", derr)
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "output %s: configure %s", id, kind.Name)
	}

	group := desk.NewGroup(outputTitle(oc))
	group.Add(desk.NewLabel(kind.Name), out.Control())
	s.outputs[id] = &activeOutput{kind: kind.Name, output: out, group: group, cfg: bytes.Clone(oc.Config)}
	env.Logger.Info("output created")
	return invalid
}

// destroyOutput removes the output from the stage even if Destroy fails.
func (s *Stage) destroyOutput(ctx context.Context, id string) error {
	active, ok := s.outputs[id]
	if !ok {
		return nil
	}
	delete(s.outputs, id)
	if err := active.output.Destroy(ctx); err != nil {
		s.logger.Warn("destroy output", "output", id, "err", err)
		return errors.Wrap(errors.ErrCodeInternal, err, "output %s: destroy", id)
	}
	return nil
}

func outputTitle(oc OutputConfig) string {
	if oc.Name != "" {
		return oc.Name
	}
	return oc.Kind
}
