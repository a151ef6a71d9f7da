// Package settings loads the daemon settings file.
//
// Settings are process-level: where the stage document is stored, how
// often outputs render and where the HTTP API listens. The stage document
// itself lives in the store and is edited at runtime.
//
//	[store]
//	backend = "redis"
//
//	[store.redis]
//	addr = "localhost:6379"
//	channel = "lightdesk:changes"
//
//	[render]
//	interval = "20ms"
//	fade = "1.5s"
//
//	[server]
//	addr = "0.0.0.0:8420"
package settings

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/outputs"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
	"github.com/matzehuels/lightdesk/pkg/server"
	"github.com/matzehuels/lightdesk/pkg/store"
)

// Defaults.
const (
	DefaultPreviewPixels = 30
	MaxRenderInterval    = time.Second
)

// Settings is the parsed settings file.
type Settings struct {
	Store   store.Config `toml:"store"`
	Render  Render       `toml:"render"`
	Server  Server       `toml:"server"`
	Preview Preview      `toml:"preview"`
}

// Render controls frame timing.
type Render struct {
	// Interval between output frames.
	Interval Duration `toml:"interval"`
	// Fade is the crossfade used when a module or cue is replaced. A
	// negative value swaps instantly.
	Fade Duration `toml:"fade"`
	// SaveInterval spaces out writes of the stage document.
	SaveInterval Duration `toml:"save_interval"`
}

// Server configures the HTTP control API.
type Server struct {
	Disabled       bool     `toml:"disabled"`
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Preview configures `lightdesk preview`.
type Preview struct {
	Pixels int `toml:"pixels"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns settings with every default applied.
func Default() *Settings {
	s := &Settings{}
	s.SetDefaults()
	return s
}

// DefaultPath returns $XDG_CONFIG_HOME/lightdesk/lightdesk.toml or the
// platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "lightdesk", "lightdesk.toml")
}

// Load reads and validates the settings file at path. A missing file
// yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read settings")
	}
	s, err := Decode(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return s, nil
}

// Decode parses TOML settings, applies defaults and validates the result.
// Unknown keys are rejected so typos do not pass silently.
func Decode(data string) (*Settings, error) {
	var s Settings
	md, err := toml.Decode(data, &s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse settings")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown settings: %s", strings.Join(keys, ", "))
	}
	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Encode writes s as TOML.
func (s *Settings) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// SetDefaults fills unset fields.
func (s *Settings) SetDefaults() {
	if s.Store.Backend == "" {
		s.Store.Backend = store.BackendFile
	}
	if s.Render.Interval == 0 {
		s.Render.Interval = Duration(outputs.DefaultInterval)
	}
	if s.Render.Fade == 0 {
		s.Render.Fade = Duration(reconcile.DefaultFade)
	}
	if s.Render.SaveInterval == 0 {
		s.Render.SaveInterval = Duration(store.DefaultSaveInterval)
	}
	if s.Server.Addr == "" {
		s.Server.Addr = server.DefaultAddr
	}
	if s.Preview.Pixels == 0 {
		s.Preview.Pixels = DefaultPreviewPixels
	}
}

var backends = []string{
	store.BackendFile,
	store.BackendBolt,
	store.BackendRedis,
	store.BackendMongo,
	store.BackendMemory,
	store.BackendNull,
}

// Validate checks every section and joins the problems found.
func (s *Settings) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, errors.New(errors.ErrCodeInvalidConfig, format, args...))
	}

	if !slices.Contains(backends, s.Store.Backend) {
		invalid("store.backend %q is not one of %s", s.Store.Backend, strings.Join(backends, ", "))
	}

	if iv := s.Render.Interval.Std(); iv <= 0 || iv > MaxRenderInterval {
		invalid("render.interval %s must be in (0, %s]", iv, MaxRenderInterval)
	}
	if s.Render.SaveInterval < 0 {
		invalid("render.save_interval must not be negative")
	}

	if !s.Server.Disabled {
		if _, port, err := net.SplitHostPort(s.Server.Addr); err != nil || port == "" {
			invalid("server.addr %q must be host:port", s.Server.Addr)
		}
	}

	if p := s.Preview.Pixels; p < 1 || p > outputs.MaxVirtualPixels {
		invalid("preview.pixels %d must be between 1 and %d", p, outputs.MaxVirtualPixels)
	}
	return stderrors.Join(errs...)
}

// String summarizes where the daemon stores and serves.
func (s *Settings) String() string {
	srv := "off"
	if !s.Server.Disabled {
		srv = s.Server.Addr
	}
	return fmt.Sprintf("store=%s interval=%s server=%s", s.Store.Backend, s.Render.Interval.Std(), srv)
}
