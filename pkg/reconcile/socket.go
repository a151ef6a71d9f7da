package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightdesk/pkg/color"
	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/modules"
	"github.com/matzehuels/lightdesk/pkg/observability"
)

// Socket is one position in the live tree. It owns at most one instance and
// the transition its module is shown through.
type Socket[S any] struct {
	reg   *Registry[S]
	path  string
	save  func(*config.Node)
	out   *modules.Transition[S]
	blank compositor.Module[S]
	group *desk.Group

	kind    string
	inst    Instance[S]
	gen     int
	last    *config.Node
	applied bool
}

// NewSocket returns an empty socket at path. save, if not nil, receives the
// node whenever the socket's instance saves its own config.
func NewSocket[S any](reg *Registry[S], path string, save func(*config.Node)) *Socket[S] {
	blank := modules.NewFill[S](color.Transparent)
	return &Socket[S]{
		reg:   reg,
		path:  path,
		save:  save,
		out:   modules.NewTransition[S](blank, reg.Clock()),
		blank: blank,
		group: desk.NewGroup(path),
	}
}

// Module returns the socket's output. It is the same module for the life of
// the socket.
func (s *Socket[S]) Module() compositor.Module[S] { return s.out }

// Control returns the group the current instance's control is mounted in.
func (s *Socket[S]) Control() *desk.Group { return s.group }

// Path returns the socket's tree position.
func (s *Socket[S]) Path() string { return s.path }

// Kind returns the current instance's kind, or "" when empty.
func (s *Socket[S]) Kind() string { return s.kind }

// Instance returns the current instance, or nil.
func (s *Socket[S]) Instance() Instance[S] { return s.inst }

// Apply converges the socket on n.
//
// An unregistered kind is rejected and leaves the socket untouched. A config
// that fails validation is replaced by the kind's initial config; the
// returned error reports the substitution. A failed destroy of the replaced
// instance is reported too, but the new node is still applied.
func (s *Socket[S]) Apply(ctx context.Context, n *config.Node) error {
	if s.applied && config.Equal(n, s.last) {
		return nil
	}

	var k Kind[S]
	if n != nil {
		var ok bool
		if k, ok = s.reg.Lookup(n.Kind); !ok {
			return errors.New(errors.ErrCodeUnknownKind, "%s: no kind registered as %q", s.path, n.Kind)
		}
	}

	var destroyErr error
	if s.inst != nil && (n == nil || n.Kind != s.kind) {
		s.out.Transition(s.blank, s.reg.Fade())
		destroyErr = s.teardown(ctx)
	}
	if n == nil {
		s.last, s.applied = nil, true
		return destroyErr
	}

	raw := n.Config
	var invalid error
	if k.Validate != nil {
		if err := k.Validate(raw); err != nil {
			invalid = errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: invalid %s config, using defaults", s.path, n.Kind)
			s.logger().Warn("invalid config, using defaults", "kind", n.Kind, "err", err)
			raw = k.InitialConfig
		}
	}

	if s.inst == nil {
		if err := s.create(ctx, k, raw); err != nil {
			return stderrors.Join(destroyErr, err)
		}
	} else {
		err := s.inst.SetConfig(ctx, raw)
		observability.Reconcile().OnUpdate(ctx, s.path, s.kind, err)
		if err != nil {
			s.applied = false
			return errors.Wrap(codeOr(err, errors.ErrCodeInvalidConfig), err, "%s: update %s", s.path, s.kind)
		}
	}
	s.last, s.applied = n.Clone(), true
	return stderrors.Join(destroyErr, invalid)
}

// Destroy tears down the current instance, leaving the socket empty.
func (s *Socket[S]) Destroy(ctx context.Context) error {
	s.last, s.applied = nil, false
	if s.inst == nil {
		return nil
	}
	s.out.Transition(s.blank, 0)
	return s.teardown(ctx)
}

func (s *Socket[S]) create(ctx context.Context, k Kind[S], raw json.RawMessage) error {
	s.gen++
	gen := s.gen
	env := Env[S]{
		Path:     s.path,
		Registry: s.reg,
		Logger:   s.logger().With("kind", k.Name),
		Clock:    s.reg.Clock(),
		SaveConfig: func(raw json.RawMessage) {
			if s.gen != gen || s.inst == nil {
				return
			}
			n := &config.Node{Kind: k.Name, Config: bytes.Clone(raw)}
			s.last = n.Clone()
			if s.save != nil {
				s.save(n)
			}
		},
	}

	inst, err := k.Create(env)
	if err != nil {
		observability.Reconcile().OnCreate(ctx, s.path, k.Name, err)
		s.applied = false
		return errors.Wrap(errors.ErrCodeInternal, err, "%s: create %s", s.path, k.Name)
	}

	s.inst, s.kind = inst, k.Name
	s.group.Add(inst.Control())
	s.out.Transition(inst.Module(), s.reg.Fade())

	// A failed first SetConfig usually means a nested child was rejected.
	// The instance stays mounted and the next Apply retries.
	err = inst.SetConfig(ctx, raw)
	observability.Reconcile().OnCreate(ctx, s.path, k.Name, err)
	if err != nil {
		s.applied = false
		return errors.Wrap(codeOr(err, errors.ErrCodeInternal), err, "%s: configure %s", s.path, k.Name)
	}
	s.logger().Debug("instance created", "kind", k.Name)
	return nil
}

func codeOr(err error, def errors.Code) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return def
}

// teardown destroys the instance. Errors are logged and reported but never
// stop the caller.
func (s *Socket[S]) teardown(ctx context.Context) error {
	inst, kind := s.inst, s.kind
	s.inst, s.kind = nil, ""
	s.gen++
	s.group.Clear()

	err := inst.Destroy(ctx)
	observability.Reconcile().OnDestroy(ctx, s.path, kind, err)
	if err != nil {
		s.logger().Error("destroy failed", "kind", kind, "err", err)
		return errors.Wrap(errors.ErrCodeInternal, err, "%s: destroy %s", s.path, kind)
	}
	s.logger().Debug("instance destroyed", "kind", kind)
	return nil
}

func (s *Socket[S]) logger() *log.Logger {
	return s.reg.Logger().With("path", s.path)
}
