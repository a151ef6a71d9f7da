package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/outputs"
	"github.com/matzehuels/lightdesk/pkg/scheduler"
	"github.com/matzehuels/lightdesk/pkg/settings"
	"github.com/matzehuels/lightdesk/pkg/stage"
)

// previewOutput is the id of the virtual output preview adds.
const previewOutput = "preview"

type previewOpts struct {
	config string
	cue    string
	pixels int
	once   bool
}

func (c *CLI) previewCommand() *cobra.Command {
	var opts previewOpts
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show a cue as colored blocks in the terminal",
		Long: `Preview renders a cue on an in-process virtual output and draws its pixels
in the terminal. Configured outputs are not started and nothing is saved.

Without a terminal, or with --once, a single frame is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.preview(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.config, "config", "", "stage document to preview instead of the stored one")
	cmd.Flags().StringVar(&opts.cue, "cue", "", "cue id or name (default: the current cue)")
	cmd.Flags().IntVar(&opts.pixels, "pixels", 0, "pixel count (default from settings)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "print one frame and exit")
	return cmd
}

func (c *CLI) preview(cmd *cobra.Command, opts previewOpts) error {
	ctx := cmd.Context()
	set, err := c.loadSettings()
	if err != nil {
		return err
	}
	if opts.pixels == 0 {
		opts.pixels = set.Preview.Pixels
	}
	// No crossfade from black when the cue first comes up.
	set.Render.Fade = settings.Duration(-1)

	cfg, err := c.loadConfig(ctx, opts.config)
	if err != nil {
		return err
	}
	cfg, err = previewConfig(cfg, opts.cue, opts.pixels)
	if err != nil {
		return err
	}

	sched := scheduler.NewTicker(ctx)
	defer sched.Stop()
	stg, err := c.newStage(set, nil, sched)
	if err != nil {
		return err
	}
	defer closeStage(stg)
	if err := stg.Replace(ctx, cfg, false); err != nil {
		return err
	}
	out, ok := stg.Output(previewOutput)
	if !ok {
		return errors.New(errors.ErrCodeInternal, "preview output did not start")
	}
	virtual := out.(*outputs.VirtualOutput)
	title := "Cue " + describeCue(cfg, cfg.CurrentCue())

	w := cmd.OutOrStdout()
	if opts.once || !isatty.IsTerminal(os.Stdout.Fd()) {
		f := virtual.Render()
		fmt.Fprintln(w, StyleTitle.Render(title))
		fmt.Fprintln(w, swatches(f.Hex(), 0))
		return nil
	}

	frames, cancel := virtual.Subscribe()
	defer cancel()
	p := tea.NewProgram(newPreviewModel(title, frames), tea.WithContext(ctx), tea.WithOutput(w))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// previewConfig swaps cfg's outputs for a single virtual output and makes
// ref current. An empty ref keeps the current cue.
func previewConfig(cfg stage.Config, ref string, pixels int) (stage.Config, error) {
	cfg = cfg.Clone()
	raw, err := json.Marshal(outputs.VirtualConfig{Pixels: pixels})
	if err != nil {
		return cfg, err
	}
	cfg.Outputs = map[string]stage.OutputConfig{
		previewOutput: {Name: "Preview", Kind: outputs.KindVirtual, Config: raw},
	}
	if ref == "" {
		return cfg, nil
	}
	id, err := findCue(cfg, ref)
	if err != nil {
		return cfg, err
	}
	cfg.Compositor.Current = &id
	return cfg, nil
}

// findCue resolves a cue id or a unique cue name.
func findCue(cfg stage.Config, ref string) (string, error) {
	cues := cfg.Cues()
	if _, ok := cues[ref]; ok {
		return ref, nil
	}
	var found []string
	for id, cue := range cues {
		if strings.EqualFold(cue.Name, ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", errors.New(errors.ErrCodeNotFound, "no cue %q", ref)
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "%d cues are named %q, use an id", len(found), ref)
	}
}

// =============================================================================
// previewModel - live pixel view
// =============================================================================

type (
	frameMsg      outputs.Frame
	framesDoneMsg struct{}
)

type previewModel struct {
	title  string
	frames <-chan outputs.Frame
	frame  outputs.Frame
	width  int
}

func newPreviewModel(title string, frames <-chan outputs.Frame) previewModel {
	return previewModel{title: title, frames: frames}
}

// next waits for the next frame.
func (m previewModel) next() tea.Cmd {
	return func() tea.Msg {
		f, ok := <-m.frames
		if !ok {
			return framesDoneMsg{}
		}
		return frameMsg(f)
	}
}

func (m previewModel) Init() tea.Cmd {
	return m.next()
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case frameMsg:
		m.frame = outputs.Frame(msg)
		return m, m.next()
	case framesDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m previewModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n\n")
	if m.frame.Seq == 0 {
		b.WriteString(StyleDim.Render("waiting for the first frame..."))
	} else {
		b.WriteString(swatches(m.frame.Hex(), m.width))
	}
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%d pixels · frame %d · q quit", len(m.frame.Colors), m.frame.Seq)))
	return b.String()
}
