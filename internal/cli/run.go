package cli

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lightdesk/pkg/scheduler"
	"github.com/matzehuels/lightdesk/pkg/server"
	"github.com/matzehuels/lightdesk/pkg/stage"
	"github.com/matzehuels/lightdesk/pkg/store"
)

// runOpts holds the command-line flags for the run command. Non-empty
// flags override the settings file.
type runOpts struct {
	addr     string
	noServer bool
}

func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the lighting desk",
		Long: `Run loads the stage document from the configured store, starts every
output and serves the HTTP control API until interrupted.

Changes written to the store by other processes (another daemon sharing a
redis key, an edited config file) are applied live.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides settings)")
	cmd.Flags().BoolVar(&opts.noServer, "no-server", false, "do not serve the HTTP API")
	return cmd
}

func (c *CLI) run(ctx context.Context, opts runOpts) error {
	set, err := c.loadSettings()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		set.Server.Addr = opts.addr
	}
	if opts.noServer {
		set.Server.Disabled = true
	}
	if err := set.Validate(); err != nil {
		return err
	}
	c.Logger.Info("starting", "settings", set)

	st, err := c.openStore(ctx, set)
	if err != nil {
		return err
	}
	defer st.Close()

	sched := scheduler.NewTicker(ctx)
	defer sched.Stop()

	stg, err := c.newStage(set, st, sched)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStage(stg); err != nil {
			c.Logger.Error("close stage", "err", err)
		}
	}()

	prog := newProgress(c.Logger)
	if err := stg.Load(ctx); err != nil {
		c.Logger.Warn("config loaded with errors", "err", err)
	}
	cfg := stg.Config()
	prog.done("Stage ready")
	c.Logger.Info("stage", "outputs", len(cfg.Outputs), "cues", len(cfg.Cues()), "current", cfg.CurrentCue())

	if w, ok := st.(store.Watcher); ok {
		go watchStore(ctx, w, stg, loggerFromContext(ctx))
	}

	if set.Server.Disabled {
		<-ctx.Done()
		return nil
	}
	srv := server.New(stg, server.Options{
		Addr:           set.Server.Addr,
		Logger:         c.Logger,
		AllowedOrigins: set.Server.AllowedOrigins,
	})
	return srv.ListenAndServe(ctx)
}

// watchStore applies documents written to the store by other processes
// until ctx is done.
func watchStore(ctx context.Context, w store.Watcher, st *stage.Stage, logger *log.Logger) {
	err := w.Watch(ctx, func(data []byte) {
		cfg, err := stage.DecodeConfig(data)
		if err != nil {
			logger.Warn("ignoring invalid config from store", "err", err)
			return
		}
		if err := st.Replace(ctx, cfg, false); err != nil {
			logger.Warn("stored config applied with errors", "err", err)
			return
		}
		logger.Info("reloaded config from store")
	})
	switch {
	case stderrors.Is(err, store.ErrWatchUnsupported):
		logger.Debug("store does not report external changes")
	case err != nil && ctx.Err() == nil:
		logger.Error("watch store", "err", err)
	}
}
