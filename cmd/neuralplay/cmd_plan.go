package main

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-neural/config"
	"github.com/Carmen-Shannon/oxy-neural/engine/preset"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the steps a preset runs for a source and target resolution",
		Args:  cobra.NoArgs,
		RunE:  planHandler,
	}
	cmd.Flags().String("native", "1920x1080", "Source resolution, WxH")
	cmd.Flags().String("mode", preset.ModeC.Name, "Preset mode ("+strings.Join(preset.Modes(), ", ")+")")
	return cmd
}

func planHandler(cmd *cobra.Command, args []string) error {
	nativeFlag, _ := cmd.Flags().GetString("native")
	native, err := config.ParseDimensions(nativeFlag)
	if err != nil {
		return err
	}
	targetFlag, _ := cmd.Flags().GetString("target")
	if targetFlag == "" {
		return fmt.Errorf("--target is required")
	}
	target, err := config.ParseDimensions(targetFlag)
	if err != nil {
		return err
	}
	modeName, _ := cmd.Flags().GetString("mode")
	mode, ok := preset.LookupMode(modeName)
	if !ok {
		return fmt.Errorf("unknown mode %q, expected one of %s", modeName, strings.Join(preset.Modes(), ", "))
	}

	steps := preset.Plan(native, target, mode)
	var data [][]string
	for i, s := range steps {
		data = append(data, []string{fmt.Sprint(i + 1), s.Kind.String(), s.Architecture, s.Output.String()})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"STEP", "KIND", "ARCHITECTURE", "OUTPUT"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", mode.Name, native, steps.Output(native))
	return nil
}
