package stage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/errors"
)

// AddCue adds an empty cue and returns its id.
func (s *Stage) AddCue(ctx context.Context, name string) (string, error) {
	if err := errors.ValidateName(name); err != nil {
		return "", err
	}
	id := uuid.NewString()
	err := s.update(ctx, true, func(c *Config) error {
		c.compositor().Cues[id] = CueConfig{Name: name}
		return nil
	})
	return id, err
}

// DeleteCue removes a cue. Deleting the current cue leaves none current.
func (s *Stage) DeleteCue(ctx context.Context, id string) error {
	return s.update(ctx, true, func(c *Config) error {
		comp := c.compositor()
		if _, ok := comp.Cues[id]; !ok {
			return cueNotFound(id)
		}
		delete(comp.Cues, id)
		if comp.Current != nil && *comp.Current == id {
			comp.Current = nil
		}
		return nil
	})
}

// RenameCue sets a cue's display name.
func (s *Stage) RenameCue(ctx context.Context, id, name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	return s.update(ctx, true, func(c *Config) error {
		comp := c.compositor()
		cue, ok := comp.Cues[id]
		if !ok {
			return cueNotFound(id)
		}
		cue.Name = name
		comp.Cues[id] = cue
		return nil
	})
}

// SetCueModule replaces a cue's module tree. A nil node clears the cue.
// A top-level node with an unknown kind or an invalid config is rejected
// before anything changes.
func (s *Stage) SetCueModule(ctx context.Context, id string, n *config.Node) error {
	if err := s.inputs.Check(n); err != nil {
		return err
	}
	return s.update(ctx, true, func(c *Config) error {
		comp := c.compositor()
		cue, ok := comp.Cues[id]
		if !ok {
			return cueNotFound(id)
		}
		cue.Module = n.Clone()
		comp.Cues[id] = cue
		return nil
	})
}

// SetCurrentCue puts a cue on stage, or clears the stage when id is nil.
func (s *Stage) SetCurrentCue(ctx context.Context, id *string) error {
	return s.update(ctx, true, func(c *Config) error {
		comp := c.compositor()
		if id == nil {
			comp.Current = nil
			return nil
		}
		if _, ok := comp.Cues[*id]; !ok {
			return cueNotFound(*id)
		}
		cur := *id
		comp.Current = &cur
		return nil
	})
}

// SetDimmer sets the master brightness in [0, 1].
func (s *Stage) SetDimmer(ctx context.Context, v float64) error {
	if err := errors.ValidateAlpha("dimmer", v); err != nil {
		return err
	}
	return s.update(ctx, true, func(c *Config) error {
		c.compositor().Dimmer = &v
		return nil
	})
}

// AddOutput adds an output of kind with its initial config and returns its
// id.
func (s *Stage) AddOutput(ctx context.Context, kind, name string) (string, error) {
	k, ok := s.outputKinds[kind]
	if !ok {
		return "", errors.New(errors.ErrCodeUnknownKind, "no output kind registered as %q", kind)
	}
	if err := errors.ValidateName(name); err != nil {
		return "", err
	}
	id := uuid.NewString()
	err := s.update(ctx, true, func(c *Config) error {
		c.outputs()[id] = OutputConfig{Name: name, Kind: kind, Config: k.InitialConfig}
		return nil
	})
	return id, err
}

// DeleteOutput removes an output.
func (s *Stage) DeleteOutput(ctx context.Context, id string) error {
	return s.update(ctx, true, func(c *Config) error {
		if _, ok := c.Outputs[id]; !ok {
			return outputNotFound(id)
		}
		delete(c.Outputs, id)
		return nil
	})
}

// RenameOutput sets an output's display name.
func (s *Stage) RenameOutput(ctx context.Context, id, name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	return s.update(ctx, true, func(c *Config) error {
		o, ok := c.Outputs[id]
		if !ok {
			return outputNotFound(id)
		}
		o.Name = name
		c.Outputs[id] = o
		return nil
	})
}

// SetOutputConfig replaces an output's config. Configs that fail the
// kind's validation are rejected before anything changes.
func (s *Stage) SetOutputConfig(ctx context.Context, id string, raw json.RawMessage) error {
	return s.update(ctx, true, func(c *Config) error {
		o, ok := c.Outputs[id]
		if !ok {
			return outputNotFound(id)
		}
		if k, ok := s.outputKinds[o.Kind]; ok {
			if err := k.validate(raw); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output %s", id)
			}
		}
		o.Config = raw
		c.Outputs[id] = o
		return nil
	})
}

func cueNotFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "cue %s not found", id)
}

func outputNotFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "output %s not found", id)
}
