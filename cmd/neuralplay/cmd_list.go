package main

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-neural/engine"
	"github.com/Carmen-Shannon/oxy-neural/engine/architecture"
	"github.com/Carmen-Shannon/oxy-neural/engine/preset"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List architectures and presets",
		Args:  cobra.NoArgs,
		RunE:  listHandler,
	}
}

func listHandler(cmd *cobra.Command, args []string) error {
	var data [][]string
	for i, name := range engine.Selections() {
		row := []string{fmt.Sprint(i), name, "", "", ""}
		if info, ok := architecture.Lookup(name); ok {
			row[2] = info.Kind.String()
			row[3] = fmt.Sprintf("x%d", info.Scale)
			if g, err := architecture.Graph(name); err == nil && g != nil {
				row[4] = fmt.Sprintf("%d stages", len(g.Nodes))
			}
		} else if mode, ok := preset.LookupMode(strings.TrimPrefix(name, engine.PresetPrefix)); ok {
			row[2] = "preset"
			row[3] = "target"
			row[4] = presetSummary(mode)
		}
		data = append(data, row)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"#", "NAME", "KIND", "SCALE", "DETAIL"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}

func presetSummary(m preset.Mode) string {
	var parts []string
	for _, n := range []string{m.Restore, m.Upscale, m.SecondRestore, m.SecondUpscale} {
		if n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " > ")
}
