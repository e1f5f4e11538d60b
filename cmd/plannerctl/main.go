// Command plannerctl drives the floor-plan editing engine from the command
// line.
//
// Replay a scripted pointer session and print the resulting records:
//
//	plannerctl replay session.yaml
//
// Render a saved drawing:
//
//	plannerctl render plan.json --format png --out plan.png --fit
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/planner/internal/document"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "plannerctl",
		Short:        "Floor-plan engine tooling",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		buildReplayCmd(),
		buildRenderCmd(),
		buildSampleCmd(),
	)
	return rootCmd
}

func buildSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print the sample floor plan as records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeRecords(cmd.OutOrStdout(), document.NewSampleDrawing().Records())
		},
	}
}

func writeRecords(w io.Writer, records []document.Record) error {
	if records == nil {
		records = []document.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}
