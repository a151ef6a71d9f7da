package reconcile

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightdesk/pkg/clock"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
)

// DefaultFade is the crossfade used when a socket swaps instances.
const DefaultFade = time.Second

// Instance is a live module bound to one tree position.
type Instance[S any] interface {
	// SetConfig applies a validated config. Applying the same config twice
	// must have no visible effect.
	SetConfig(ctx context.Context, raw json.RawMessage) error
	// Module returns the instance's render module. It must return the same
	// module for the life of the instance.
	Module() compositor.Module[S]
	// Control returns the control surface to mount, or nil.
	Control() desk.Component
	// Destroy releases resources. It is called exactly once. The module may
	// still be rendered afterwards while it fades out.
	Destroy(ctx context.Context) error
}

// Kind describes how to build instances of one kind.
type Kind[S any] struct {
	Name        string
	Description string
	// InitialConfig is used for new nodes and whenever a node's config
	// fails validation.
	InitialConfig json.RawMessage
	// Validate rejects configs SetConfig must never see. Optional.
	Validate func(raw json.RawMessage) error
	// Create builds an instance. SetConfig is called right after.
	Create func(env Env[S]) (Instance[S], error)
}

// Env is handed to Kind.Create.
type Env[S any] struct {
	// Path identifies the instance's tree position.
	Path     string
	Registry *Registry[S]
	Logger   *log.Logger
	Clock    clock.Clock
	// SaveConfig writes a new config for this instance up the tree. Calls
	// made after the instance has been replaced are dropped. It must not be
	// called from inside SetConfig.
	SaveConfig func(raw json.RawMessage)
}

// NewSocket returns a child socket below this instance. save receives the
// child's new node whenever the child saves its config.
func (e Env[S]) NewSocket(name string, save func(n *config.Node)) *Socket[S] {
	return NewSocket(e.Registry, e.Path+"/"+name, save)
}

// Options configures a Registry.
type Options struct {
	// Fade is the crossfade when a socket swaps instances. Zero uses
	// DefaultFade; negative swaps instantly.
	Fade   time.Duration
	Clock  clock.Clock
	Logger *log.Logger
}

// Registry maps kind names to kinds. It is safe for concurrent use.
type Registry[S any] struct {
	fade   time.Duration
	clock  clock.Clock
	logger *log.Logger

	mu    sync.RWMutex
	kinds map[string]Kind[S]
}

// NewRegistry returns an empty registry.
func NewRegistry[S any](opts Options) *Registry[S] {
	if opts.Fade == 0 {
		opts.Fade = DefaultFade
	}
	if opts.Fade < 0 {
		opts.Fade = 0
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Registry[S]{
		fade:   opts.Fade,
		clock:  clock.Or(opts.Clock),
		logger: opts.Logger,
		kinds:  make(map[string]Kind[S]),
	}
}

// Register adds k. Names must be valid and unique, and Create is required.
func (r *Registry[S]) Register(k Kind[S]) error {
	if err := errors.ValidateKindName(k.Name); err != nil {
		return err
	}
	if k.Create == nil {
		return errors.New(errors.ErrCodeInvalidKind, "kind %q has no Create function", k.Name)
	}
	if len(k.InitialConfig) == 0 {
		k.InitialConfig = json.RawMessage("{}")
	}
	if k.Validate != nil {
		if err := k.Validate(k.InitialConfig); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidKind, err, "kind %q rejects its own initial config", k.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kinds[k.Name]; ok {
		return errors.New(errors.ErrCodeDuplicateKind, "kind %q already registered", k.Name)
	}
	r.kinds[k.Name] = k
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry[S]) MustRegister(k Kind[S]) {
	if err := r.Register(k); err != nil {
		panic(err)
	}
}

// Lookup returns the kind registered as name.
func (r *Registry[S]) Lookup(name string) (Kind[S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// Kinds returns every registered kind sorted by name.
func (r *Registry[S]) Kinds() []Kind[S] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind[S], 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b Kind[S]) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Fade returns the configured crossfade.
func (r *Registry[S]) Fade() time.Duration { return r.fade }

// Clock returns the registry's clock.
func (r *Registry[S]) Clock() clock.Clock { return r.clock }

// Logger returns the registry's logger.
func (r *Registry[S]) Logger() *log.Logger { return r.logger }

// Check reports whether a node could be applied: its kind must be
// registered and its config must validate. Nested nodes are not checked.
func (r *Registry[S]) Check(n *config.Node) error {
	if n == nil {
		return nil
	}
	k, ok := r.Lookup(n.Kind)
	if !ok {
		return errors.New(errors.ErrCodeUnknownKind, "no kind registered as %q", n.Kind)
	}
	if k.Validate != nil {
		if err := k.Validate(n.Config); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid %s config", n.Kind)
		}
	}
	return nil
}
