// Package cli implements the lightdesk command-line interface.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lightdesk/pkg/buildinfo"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/kinds"
	"github.com/matzehuels/lightdesk/pkg/outputs"
	"github.com/matzehuels/lightdesk/pkg/reconcile"
	"github.com/matzehuels/lightdesk/pkg/scheduler"
	"github.com/matzehuels/lightdesk/pkg/settings"
	"github.com/matzehuels/lightdesk/pkg/stage"
	"github.com/matzehuels/lightdesk/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "lightdesk"

	// shutdownTimeout bounds flushing the stage on exit.
	shutdownTimeout = 5 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	settingsPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the observability
// hooks are routed to the logger as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Lightdesk composes lighting cues and drives pixel outputs",
		Long:         `Lightdesk is a lighting desk daemon. Cues are trees of compositing modules; the current cue is rendered to every configured output (Art-Net fixtures, in-memory previews) and controlled over an HTTP API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.settingsPath, "settings", "", "settings file (default "+settings.DefaultPath()+")")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.kindsCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Settings & Wiring
// =============================================================================

// loadSettings reads --settings, or the default settings file if present.
func (c *CLI) loadSettings() (*settings.Settings, error) {
	path := c.settingsPath
	if path == "" {
		path = settings.DefaultPath()
	} else if _, err := os.Stat(path); stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.New(errors.ErrCodeNotFound, "settings file %s does not exist", path)
	}
	s, err := settings.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded settings", "path", path, "settings", s)
	return s, nil
}

// openStore opens the configured store backend.
func (c *CLI) openStore(ctx context.Context, s *settings.Settings) (store.Store, error) {
	prog := newProgress(c.Logger)
	st, err := store.Open(ctx, s.Store, c.Logger)
	if err != nil {
		return nil, err
	}
	prog.done("Opened " + s.Store.Backend + " store")
	return st, nil
}

// newRegistry returns an input registry holding the built-in kinds.
func (c *CLI) newRegistry(s *settings.Settings) (*reconcile.Registry[stage.State], error) {
	reg := reconcile.NewRegistry[stage.State](reconcile.Options{
		Fade:   s.Render.Fade.Std(),
		Logger: c.Logger,
	})
	err := kinds.Register(reg, kinds.Options[stage.State]{Playback: stage.PlaybackOf, Beat: stage.BeatOf})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// newStage builds a stage with the built-in input and output kinds. st may
// be nil for a stage that never persists.
func (c *CLI) newStage(s *settings.Settings, st store.Store, sched scheduler.Scheduler) (*stage.Stage, error) {
	reg, err := c.newRegistry(s)
	if err != nil {
		return nil, err
	}
	return stage.New(stage.Options{
		Inputs:      reg,
		OutputKinds: outputs.All(outputs.Options{Interval: s.Render.Interval.Std()}),
		Store:       st,
		Scheduler:   sched,
		Logger:      c.Logger,
		Save:        store.ThrottleOptions{Interval: s.Render.SaveInterval.Std()},
	})
}

// closeStage flushes and tears down st with a fresh deadline, since the
// command context is usually already cancelled.
func closeStage(st *stage.Stage) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return st.Close(ctx)
}
