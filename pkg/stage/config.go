package stage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/matzehuels/lightdesk/pkg/config"
)

// Config is the whole stage document: the outputs, and the cues the
// compositor switches between.
type Config struct {
	Outputs    map[string]OutputConfig `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Compositor *CompositorConfig       `json:"compositor,omitempty" yaml:"compositor,omitempty"`
}

// OutputConfig configures one output.
type OutputConfig struct {
	Name   string          `json:"name"`
	Kind   string          `json:"kind"`
	Config json.RawMessage `json:"config,omitempty"`
}

// CompositorConfig selects what the outputs show.
type CompositorConfig struct {
	// Current is the cue on stage, or nil for none.
	Current *string `json:"current"`
	// Dimmer scales the whole frame. Nil means full brightness.
	Dimmer *float64             `json:"dimmer,omitempty"`
	Cues   map[string]CueConfig `json:"cues"`
}

// CueConfig is one named module tree.
type CueConfig struct {
	Name   string       `json:"name,omitempty"`
	Module *config.Node `json:"module,omitempty"`
}

// DecodeConfig parses a stage document. Empty input is an empty config.
func DecodeConfig(data []byte) (Config, error) {
	var c Config
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("decode stage config: %w", err)
	}
	return c, nil
}

// Encode returns the indented JSON form of c.
func (c Config) Encode() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := Config{}
	if c.Outputs != nil {
		out.Outputs = make(map[string]OutputConfig, len(c.Outputs))
		for id, o := range c.Outputs {
			o.Config = bytes.Clone(o.Config)
			out.Outputs[id] = o
		}
	}
	if c.Compositor != nil {
		comp := *c.Compositor
		if comp.Current != nil {
			cur := *comp.Current
			comp.Current = &cur
		}
		if comp.Dimmer != nil {
			d := *comp.Dimmer
			comp.Dimmer = &d
		}
		comp.Cues = maps.Clone(comp.Cues)
		for id, cue := range comp.Cues {
			cue.Module = cue.Module.Clone()
			comp.Cues[id] = cue
		}
		out.Compositor = &comp
	}
	return out
}

// DimmerValue returns the dimmer, defaulting to 1.
func (c Config) DimmerValue() float64 {
	if c.Compositor == nil || c.Compositor.Dimmer == nil {
		return 1
	}
	return *c.Compositor.Dimmer
}

// CurrentCue returns the current cue id, or "".
func (c Config) CurrentCue() string {
	if c.Compositor == nil || c.Compositor.Current == nil {
		return ""
	}
	return *c.Compositor.Current
}

// Cues returns the cue map, which may be nil.
func (c Config) Cues() map[string]CueConfig {
	if c.Compositor == nil {
		return nil
	}
	return c.Compositor.Cues
}

// compositor returns c.Compositor, creating it and its cue map if needed.
func (c *Config) compositor() *CompositorConfig {
	if c.Compositor == nil {
		c.Compositor = &CompositorConfig{}
	}
	if c.Compositor.Cues == nil {
		c.Compositor.Cues = make(map[string]CueConfig)
	}
	return c.Compositor
}

func (c *Config) outputs() map[string]OutputConfig {
	if c.Outputs == nil {
		c.Outputs = make(map[string]OutputConfig)
	}
	return c.Outputs
}
