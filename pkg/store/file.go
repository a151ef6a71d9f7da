package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// File stores the config as a JSON file. Saves replace the file atomically.
type File struct {
	path   string
	logger *log.Logger

	mu      sync.Mutex
	written []byte
}

// NewFile returns a file store at path, creating its directory.
func NewFile(path string, logger *log.Logger) (*File, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &File{path: filepath.Clean(path), logger: logger}, nil
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

func (f *File) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return data, nil
}

func (f *File) Save(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	f.written = bytes.Clone(data)
	return nil
}

// Watch reports edits made to the file by other programs. Writes made
// through this store are not reported.
func (f *File) Watch(ctx context.Context, fn func([]byte)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace files, so watch the directory.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("config watch error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			data, err := os.ReadFile(f.path)
			if err != nil || len(data) == 0 {
				continue
			}
			f.mu.Lock()
			own := bytes.Equal(data, f.written)
			f.mu.Unlock()
			if own {
				continue
			}
			f.logger.Debug("config file changed", "path", f.path)
			fn(data)
		}
	}
}

func (f *File) Close() error { return nil }

var (
	_ Store   = (*File)(nil)
	_ Watcher = (*File)(nil)
)
