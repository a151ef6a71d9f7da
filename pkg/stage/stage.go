// Package stage ties the pieces together: it owns the stage document, the
// live cue sockets and outputs built from it, and the throttled writes of
// the document back to its store.
//
// Every change goes through one path. The caller's edit is applied to a
// copy of the document, the live objects converge on the copy, the copy
// becomes current and is queued for saving:
//
//	st, _ := stage.New(stage.Options{Inputs: reg, OutputKinds: outputs.All(), Store: s})
//	_ = st.Load(ctx)
//	id, _ := st.AddCue(ctx, "Intro")
//	_ = st.SetCurrentCue(ctx, &id)
package stage

import (
	"context"
	stderrors "errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/playback"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
	"github.com/matzehuels/lightdesk/pkg/scheduler"
	"github.com/matzehuels/lightdesk/pkg/store"
	"github.com/matzehuels/lightdesk/pkg/tempo"
)

// State is the per-frame state handed to every module.
type State struct {
	Playback *playback.Snapshot
	Beat     tempo.Beat
}

// PlaybackOf returns s.Playback. It is the getter input kinds use to reach
// the playback snapshot.
func PlaybackOf(s State) *playback.Snapshot { return s.Playback }

// BeatOf returns s.Beat.
func BeatOf(s State) tempo.Beat { return s.Beat }

// Options configures a Stage.
type Options struct {
	// Inputs holds the module kinds cues are built from. Required.
	Inputs      *reconcile.Registry[State]
	OutputKinds []OutputKind
	// Store persists the document. Nil keeps it in memory only.
	Store store.Store
	// Scheduler drives output frame loops. Nil uses a ticker that stops
	// on Close.
	Scheduler scheduler.Scheduler
	Playback  *playback.Source
	// Tempo is the tap-tempo source for beat inputs. Nil uses a tapper on
	// Clock.
	Tempo  *tempo.Tapper
	Clock  clock.Clock
	Logger *log.Logger
	// CueFade is the crossfade between cues. Zero uses the input
	// registry's fade.
	CueFade time.Duration
	Save    store.ThrottleOptions
}

// Stage is the running lighting desk.
type Stage struct {
	logger      *log.Logger
	inputs      *reconcile.Registry[State]
	outputKinds map[string]OutputKind
	sched       scheduler.Scheduler
	stopSched   func()
	clock       clock.Clock
	playback    *playback.Source
	tempo       *tempo.Tapper
	cueFade     time.Duration
	store       store.Store
	saver       *store.Throttle
	nextPixel   atomic.Int64

	mu      sync.Mutex
	cfg     Config
	root    *modules.Modulate[State]
	show    *modules.Transition[State]
	blank   compositor.Module[State]
	cues    *reconcile.Map[State]
	current string
	outputs map[string]*activeOutput
	closed  bool

	deskRoot     *desk.Group
	deskOutputs  *desk.Group
	deskCues     *desk.Group
	dimmerLabel  *desk.Label
	currentLabel *desk.Label
	beatLabel    *desk.Label
}

type activeOutput struct {
	kind   string
	output Output
	group  *desk.Group
	cfg    []byte
}

// New builds an empty stage. Call Load to adopt the stored document.
func New(opts Options) (*Stage, error) {
	if opts.Inputs == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "stage needs an input registry")
	}
	kinds, err := registerOutputKinds(opts.OutputKinds)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Playback == nil {
		opts.Playback = playback.NewSource()
	}
	if opts.Tempo == nil {
		opts.Tempo = tempo.NewTapper(opts.Clock)
	}
	if opts.CueFade == 0 {
		opts.CueFade = opts.Inputs.Fade()
	}
	opts.CueFade = max(opts.CueFade, 0)

	s := &Stage{
		logger:      opts.Logger,
		inputs:      opts.Inputs,
		outputKinds: kinds,
		sched:       opts.Scheduler,
		clock:       clock.Or(opts.Clock),
		playback:    opts.Playback,
		tempo:       opts.Tempo,
		cueFade:     opts.CueFade,
		outputs:     make(map[string]*activeOutput),
	}
	if s.sched == nil {
		t := scheduler.NewTicker(context.Background())
		s.sched, s.stopSched = t, t.Stop
	}
	if opts.Store != nil {
		if opts.Save.Logger == nil {
			opts.Save.Logger = opts.Logger
		}
		s.store = opts.Store
		s.saver = store.NewThrottle(opts.Store, opts.Save)
	}

	s.blank = modules.NewFill[State](color.Transparent)
	s.show = modules.NewTransition[State](s.blank, opts.Inputs.Clock())
	s.root = modules.NewModulate[State](s.show)
	s.cues = reconcile.NewMap(opts.Inputs, "cues", s.saveCue)

	s.deskRoot = desk.NewGroup("lightdesk")
	s.deskOutputs = desk.NewGroup("Outputs")
	s.deskCues = desk.NewGroup("Cues")
	s.dimmerLabel = desk.NewLabel("")
	s.currentLabel = desk.NewLabel("")
	s.beatLabel = desk.NewLabel(beatText(s.tempo.Status()))
	comp := desk.NewGroup("Compositor")
	comp.Add(s.dimmerLabel, s.currentLabel, s.beatLabel, s.deskCues)
	s.deskRoot.Add(s.deskOutputs, comp)
	s.refreshDesk()
	return s, nil
}

// Load reads the document from the store and applies it without saving it
// back. A missing or unreadable document leaves an empty stage; the error
// is still returned when the store failed.
func (s *Stage) Load(ctx context.Context) error {
	var data []byte
	var loadErr error
	if s.store != nil {
		data, loadErr = s.store.Load(ctx)
	}
	switch {
	case stderrors.Is(loadErr, store.ErrNotFound):
		s.logger.Info("no stored config, starting empty")
		loadErr = nil
	case loadErr != nil:
		s.logger.Error("load config", "err", loadErr)
		loadErr = errors.Wrap(errors.ErrCodeStore, loadErr, "load config")
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		s.logger.Error("stored config is invalid, starting empty", "err", err)
		cfg = Config{}
	}
	return stderrors.Join(loadErr, s.Replace(ctx, cfg, false))
}

// Replace applies cfg as a whole. save queues the result for writing.
func (s *Stage) Replace(ctx context.Context, cfg Config, save bool) error {
	return s.update(ctx, save, func(c *Config) error {
		*c = cfg.Clone()
		return nil
	})
}

// Config returns a copy of the current document.
func (s *Stage) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// UpdateConfig applies fn to a copy of the document and converges on the
// result.
func (s *Stage) UpdateConfig(ctx context.Context, fn func(Config) Config) error {
	return s.update(ctx, true, func(c *Config) error {
		*c = fn(c.Clone())
		return nil
	})
}

// Check reports problems in cfg without applying it: unknown kinds and
// configs that fail validation anywhere in the document.
func (s *Stage) Check(cfg Config) error {
	var errs []error
	for _, id := range sortedKeys(cfg.Outputs) {
		o := cfg.Outputs[id]
		k, ok := s.outputKinds[o.Kind]
		if !ok {
			errs = append(errs, errors.New(errors.ErrCodeUnknownKind, "output %s: no output kind registered as %q", id, o.Kind))
			continue
		}
		if len(o.Config) > 0 {
			if err := k.validate(o.Config); err != nil {
				errs = append(errs, errors.Wrap(errors.ErrCodeInvalidConfig, err, "output %s", id))
			}
		}
	}
	cues := cfg.Cues()
	for _, id := range sortedKeys(cues) {
		errs = append(errs, s.checkTree("cues/"+id, cues[id].Module))
	}
	if err := errors.ValidateAlpha("dimmer", cfg.DimmerValue()); err != nil {
		errs = append(errs, err)
	}
	if cur := cfg.CurrentCue(); cur != "" {
		if _, ok := cues[cur]; !ok {
			errs = append(errs, errors.New(errors.ErrCodeNotFound, "current cue %s does not exist", cur))
		}
	}
	return stderrors.Join(errs...)
}

// checkTree checks n and every node nested in its config. Children of a
// failing node are not checked.
func (s *Stage) checkTree(path string, n *config.Node) error {
	var errs []error
	config.Walk(n, func(sub string, node *config.Node) bool {
		err := s.inputs.Check(node)
		if err != nil {
			if sub != "" {
				sub = "/" + sub
			}
			errs = append(errs, errors.Wrap(errors.GetCode(err), err, "%s%s", path, sub))
		}
		return err == nil
	})
	return stderrors.Join(errs...)
}

// update is the single mutation path.
func (s *Stage) update(ctx context.Context, save bool, fn func(*Config) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeUnsupported, "stage is closed")
	}
	next := s.cfg.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	err := s.apply(ctx, next)
	if save && s.saver != nil {
		// Queued under the lock so saves reach the store in apply order.
		if data, encErr := next.Encode(); encErr != nil {
			err = stderrors.Join(err, errors.Wrap(errors.ErrCodeInternal, encErr, "encode config"))
		} else {
			s.saver.Save(data)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("config applied with errors", "err", err)
	}
	return err
}

// apply converges the live objects on next. s.mu must be held.
func (s *Stage) apply(ctx context.Context, next Config) error {
	errs := []error{
		s.applyOutputs(ctx, next),
		s.applyCompositor(ctx, next),
	}
	s.cfg = next
	s.refreshDesk()
	return stderrors.Join(errs...)
}

func (s *Stage) applyCompositor(ctx context.Context, next Config) error {
	var errs []error
	dimmer := next.DimmerValue()
	if err := errors.ValidateAlpha("dimmer", dimmer); err != nil {
		errs = append(errs, err)
		dimmer = min(max(dimmer, 0), 1)
	}
	s.root.SetAlpha(dimmer)

	nodes := make(map[string]*config.Node, len(next.Cues()))
	for id, cue := range next.Cues() {
		nodes[id] = cue.Module
	}
	errs = append(errs, s.cues.Apply(ctx, nodes))

	cur := next.CurrentCue()
	if _, ok := nodes[cur]; !ok {
		if cur != "" {
			errs = append(errs, errors.New(errors.ErrCodeNotFound, "current cue %s does not exist", cur))
		}
		cur = ""
	}
	if cur != s.current {
		target := s.blank
		if sock, ok := s.cues.Get(cur); ok {
			target = sock.Module()
		}
		s.logger.Debug("switch cue", "from", s.current, "to", cur)
		s.show.Transition(target, s.cueFade)
		s.current = cur
	}
	return stderrors.Join(errs...)
}

func (s *Stage) saveCue(id string, n *config.Node) {
	err := s.update(context.Background(), true, func(c *Config) error {
		cues := c.Cues()
		cue, ok := cues[id]
		if !ok {
			return nil
		}
		cue.Module = n
		cues[id] = cue
		return nil
	})
	if err != nil {
		s.logger.Warn("save cue", "cue", id, "err", err)
	}
}

// Flush writes any queued document now.
func (s *Stage) Flush(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	return s.saver.Flush(ctx)
}

// Close destroys every output and cue and writes any queued document.
func (s *Stage) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var errs []error
	for _, id := range sortedKeys(s.outputs) {
		errs = append(errs, s.destroyOutput(ctx, id))
	}
	errs = append(errs, s.cues.Destroy(ctx))
	s.mu.Unlock()

	if s.stopSched != nil {
		s.stopSched()
	}
	if s.saver != nil {
		errs = append(errs, s.saver.Close(ctx))
	}
	return stderrors.Join(errs...)
}

// Playback returns the source input kinds read playback state from.
func (s *Stage) Playback() *playback.Source { return s.playback }

// Tempo returns the tap-tempo source beat inputs follow.
func (s *Stage) Tempo() *tempo.Tapper { return s.tempo }

// TapBeat records a tempo tap.
func (s *Stage) TapBeat() tempo.Status {
	st := s.tempo.Tap()
	s.beatLabel.SetText(beatText(st))
	s.logger.Debug("beat tap", "taps", st.Taps, "bpm", st.BPM)
	return st
}

// StopBeat stops the repeating beat.
func (s *Stage) StopBeat() tempo.Status {
	st := s.tempo.Stop()
	s.beatLabel.SetText(beatText(st))
	return st
}

// Inputs returns the input kind registry.
func (s *Stage) Inputs() *reconcile.Registry[State] { return s.inputs }

// OutputKinds returns the registered output kinds sorted by name.
func (s *Stage) OutputKinds() []OutputKind { return sortedKinds(s.outputKinds) }

// Desk returns the control surface.
func (s *Stage) Desk() desk.Node { return s.deskRoot.Describe() }

// Output returns the live output with the given id.
func (s *Stage) Output(id string) (Output, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.outputs[id]
	if !ok {
		return nil, false
	}
	return a.output, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
