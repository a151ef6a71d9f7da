// Package store persists the stage configuration.
//
// A Store holds exactly one document: the serialized stage config. Backends
// differ only in where that document lives:
//
//   - [File]: a JSON file, watched with fsnotify for external edits
//   - [Bolt]: a key in a bbolt database
//   - [Redis]: a key in Redis, with pub/sub notifications between daemons
//   - [Mongo]: a document in a MongoDB collection
//   - [Memory] and [Null]: in-process backends for previews and tests
//
// Writes from the stage go through a [Throttle], which coalesces bursts of
// edits into at most one write per interval.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	lderrors "github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/observability"
)

// Sentinel errors.
var (
	// ErrNotFound is returned by Load when no config has been saved yet.
	ErrNotFound = errors.New("config not found")

	// ErrWatchUnsupported is returned by Watch on backends that cannot
	// report external changes.
	ErrWatchUnsupported = errors.New("backend does not support watching")
)

// Store loads and saves the raw config document.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// Watcher is implemented by stores that can report changes made by other
// writers. Watch blocks, calling fn with each new document, until ctx is
// done or the watch fails.
type Watcher interface {
	Watch(ctx context.Context, fn func(data []byte)) error
}

// Backend names.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendNull   = "null"
)

// Config selects and configures a backend.
type Config struct {
	Backend string       `toml:"backend"`
	Path    string       `toml:"path"`
	Redis   RedisOptions `toml:"redis"`
	Mongo   MongoOptions `toml:"mongo"`
}

// DefaultPath returns the default config file location under the user's
// config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "lightdesk", "config.json")
}

// Open connects to the backend named by cfg. The returned store reports
// loads and saves to the observability hooks and always implements
// Watcher, returning ErrWatchUnsupported where the backend cannot watch.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", BackendFile:
		path := cfg.Path
		if path == "" {
			path = DefaultPath()
		}
		s, err = NewFile(path, logger)
	case BackendBolt:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(filepath.Dir(DefaultPath()), "lightdesk.db")
		}
		s, err = NewBolt(path)
	case BackendRedis:
		s, err = NewRedis(ctx, cfg.Redis, logger)
	case BackendMongo:
		s, err = NewMongo(ctx, cfg.Mongo)
	case BackendMemory:
		s = NewMemory(nil)
	case BackendNull:
		s = Null{}
	default:
		return nil, lderrors.New(lderrors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, lderrors.Wrap(lderrors.ErrCodeStore, err, "open %s store", cfg.Backend)
	}
	name := cfg.Backend
	if name == "" {
		name = BackendFile
	}
	return Observe(name, s), nil
}

// Observe wraps s so every Load and Save is reported to the store hooks.
func Observe(backend string, s Store) Store {
	return &observed{Store: s, backend: backend}
}

type observed struct {
	Store
	backend string
}

func (o *observed) Load(ctx context.Context) ([]byte, error) {
	start := time.Now()
	data, err := o.Store.Load(ctx)
	observability.Store().OnLoad(ctx, o.backend, len(data), time.Since(start), err)
	return data, err
}

func (o *observed) Save(ctx context.Context, data []byte) error {
	start := time.Now()
	err := o.Store.Save(ctx, data)
	observability.Store().OnSave(ctx, o.backend, len(data), time.Since(start), err)
	return err
}

func (o *observed) Watch(ctx context.Context, fn func([]byte)) error {
	w, ok := o.Store.(Watcher)
	if !ok {
		return fmt.Errorf("%s: %w", o.backend, ErrWatchUnsupported)
	}
	return w.Watch(ctx, fn)
}

// Unwrap returns the wrapped backend.
func (o *observed) Unwrap() Store { return o.Store }
