package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lightdesk/pkg/outputs"
	"github.com/matzehuels/lightdesk/pkg/settings"
)

// kindRow is one line of the kinds table.
type kindRow struct {
	name, role, description string
	initial                 json.RawMessage
}

func (c *CLI) kindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the module and output kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := c.kindRows()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), kindsTable(rows))
			return nil
		},
	}
}

// kindRows lists input kinds, then output kinds, each sorted by name.
func (c *CLI) kindRows() ([]kindRow, error) {
	reg, err := c.newRegistry(settings.Default())
	if err != nil {
		return nil, err
	}
	var rows []kindRow
	for _, k := range reg.Kinds() {
		rows = append(rows, kindRow{k.Name, "module", k.Description, k.InitialConfig})
	}
	outs := outputs.All(outputs.Options{})
	for _, k := range outs {
		rows = append(rows, kindRow{k.Name, "output", k.Description, k.InitialConfig})
	}
	return rows, nil
}

func kindsTable(rows []kindRow) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		var initial bytes.Buffer
		if err := json.Compact(&initial, r.initial); err != nil {
			initial.Reset()
			initial.Write(r.initial)
		}
		cells[i] = []string{r.name, r.role, r.description, initial.String()}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Kind", "Role", "Description", "Initial config").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return base.Inherit(styleHeader)
			case col == 0:
				return base.Foreground(colorCyan)
			case col == 3:
				return base.Foreground(colorGray)
			}
			return base
		}).
		Render()
}
