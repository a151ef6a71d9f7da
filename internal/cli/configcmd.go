package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/scheduler"
	"github.com/matzehuels/lightdesk/pkg/settings"
	"github.com/matzehuels/lightdesk/pkg/stage"
	"github.com/matzehuels/lightdesk/pkg/store"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the stored stage document",
		Long: `The stage document holds every output and cue. It lives in the store
named in the settings file. Files passed to these commands may be JSON or
YAML, chosen by extension.`,
	}
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configValidateCommand())
	cmd.AddCommand(c.configImportCommand())
	cmd.AddCommand(c.configExportCommand())
	cmd.AddCommand(c.configPathCommand())
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored stage document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd.Context(), "")
			if err != nil {
				return err
			}
			data, err := encodeConfig(cfg, asYAML)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print YAML instead of JSON")
	return cmd
}

func (c *CLI) configValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a stage document against the registered kinds",
		Long:  `Validate checks file, or the stored document if no file is given, without applying it.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := c.loadConfig(cmd.Context(), path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := c.check(cfg); err != nil {
				for _, e := range flatten(err) {
					printError(out, "%s", userError(e))
				}
				return errors.New(errors.ErrCodeInvalidConfig, "stage document is invalid")
			}
			printSuccess(out, "Valid: %d outputs, %d cues", len(cfg.Outputs), len(cfg.Cues()))
			return nil
		},
	}
}

func (c *CLI) configImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a document and write it to the store",
		Long: `Import replaces the stored stage document. A running daemon watching the
same store picks the change up live.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := readConfigFile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := c.check(cfg); err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			set, err := c.loadSettings()
			if err != nil {
				return err
			}
			st, err := c.openStore(ctx, set)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Save(ctx, data); err != nil {
				return errors.Wrap(errors.ErrCodeStore, err, "save config")
			}
			printSuccess(cmd.OutOrStdout(), "Imported %d outputs, %d cues", len(cfg.Outputs), len(cfg.Cues()))
			return nil
		},
	}
}

func (c *CLI) configExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the stored document to a file",
		Long:  `Export writes the stored document to file, or to stdout if file is omitted or "-".`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := c.loadConfig(cmd.Context(), "")
			if err != nil {
				return err
			}
			data, err := encodeConfig(cfg, isYAML(path))
			if err != nil {
				return err
			}
			if path == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			printFile(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where settings and the stage document live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := c.loadSettings()
			if err != nil {
				return err
			}
			settingsPath := c.settingsPath
			if settingsPath == "" {
				settingsPath = settings.DefaultPath()
			}
			out := cmd.OutOrStdout()
			printKeyValue(out, "settings", settingsPath)
			printKeyValue(out, "backend", set.Store.Backend)
			switch set.Store.Backend {
			case store.BackendFile, store.BackendBolt:
				path := set.Store.Path
				if path == "" && set.Store.Backend == store.BackendFile {
					path = store.DefaultPath()
				}
				if path != "" {
					printKeyValue(out, "path", path)
				}
			}
			return nil
		},
	}
}

// check validates cfg against the built-in kinds without applying it.
func (c *CLI) check(cfg stage.Config) error {
	stg, err := c.newStage(settings.Default(), nil, scheduler.NewManual())
	if err != nil {
		return err
	}
	defer closeStage(stg)
	return stg.Check(cfg)
}

// loadConfig reads the document at path, or the stored one if path is "".
func (c *CLI) loadConfig(ctx context.Context, path string) (stage.Config, error) {
	if path != "" {
		return readConfigFile(path, os.Stdin)
	}
	set, err := c.loadSettings()
	if err != nil {
		return stage.Config{}, err
	}
	st, err := c.openStore(ctx, set)
	if err != nil {
		return stage.Config{}, err
	}
	defer st.Close()

	data, err := st.Load(ctx)
	if stderrors.Is(err, store.ErrNotFound) {
		return stage.Config{}, nil
	}
	if err != nil {
		return stage.Config{}, errors.Wrap(errors.ErrCodeStore, err, "load config")
	}
	cfg, err := stage.DecodeConfig(data)
	if err != nil {
		return stage.Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "stored config")
	}
	return cfg, nil
}

// readConfigFile reads a JSON or YAML stage document. "-" reads stdin.
func readConfigFile(path string, stdin io.Reader) (stage.Config, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return stage.Config{}, err
	}
	if isYAML(path) {
		if data, err = config.YAMLToJSON(data); err != nil {
			return stage.Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
		}
	}
	cfg, err := stage.DecodeConfig(data)
	if err != nil {
		return stage.Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

func encodeConfig(cfg stage.Config, asYAML bool) ([]byte, error) {
	data, err := cfg.Encode()
	if err != nil {
		return nil, err
	}
	if asYAML {
		return config.JSONToYAML(data)
	}
	return append(data, '\n'), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// flatten splits joined errors so each can be printed on its own line.
func flatten(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// describeCue names a cue for display.
func describeCue(cfg stage.Config, id string) string {
	if id == "" {
		return "none"
	}
	if cue, ok := cfg.Cues()[id]; ok && cue.Name != "" {
		return fmt.Sprintf("%s (%s)", cue.Name, id)
	}
	return id
}

// userError formats err without error codes.
func userError(err error) string {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + userError(e.Cause)
}
