package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/export"
)

type renderFlags struct {
	format  string
	out     string
	width   int
	height  int
	fit     bool
	drawing int
}

func buildRenderCmd() *cobra.Command {
	defaults := export.DefaultOptions()
	f := renderFlags{}
	cmd := &cobra.Command{
		Use:   "render DOC",
		Short: "Render a records or workbook JSON file to SVG or PNG",
		Long: `Render reads either a JSON array of element records or a workbook
({"drawings":[...]}) and writes one drawing as SVG or PNG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "svg", "output format (svg or png)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file")
	cmd.Flags().IntVar(&f.width, "width", defaults.Width, "canvas width in pixels")
	cmd.Flags().IntVar(&f.height, "height", defaults.Height, "canvas height in pixels")
	cmd.Flags().BoolVar(&f.fit, "fit", false, "scale the drawing to fit the canvas")
	cmd.Flags().IntVar(&f.drawing, "drawing", 0, "drawing index when rendering a workbook")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runRender(path string, f renderFlags) error {
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	c, err := decodeDrawing(data, f.drawing)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.Width, opts.Height, opts.Fit = f.width, f.height, f.fit

	var buf bytes.Buffer
	if err := export.Write(&buf, format, c, opts); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := os.WriteFile(f.out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// decodeDrawing accepts a bare records array or a workbook.
func decodeDrawing(data []byte, index int) (document.Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []document.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return document.Collection{}, fmt.Errorf("decode records: %w", err)
		}
		return document.FromRecords(records)
	}

	wb := document.NewWorkbook()
	if err := json.Unmarshal(trimmed, wb); err != nil {
		return document.Collection{}, fmt.Errorf("decode workbook: %w", err)
	}
	c, ok := wb.Drawing(index)
	if !ok {
		return document.Collection{}, fmt.Errorf("drawing %d out of range (workbook has %d)", index, wb.Len())
	}
	return c, nil
}
