package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/engine"
	"github.com/inamate/planner/internal/geometry"
)

// Script is a recorded pointer session.
type Script struct {
	Tool    string       `yaml:"tool"`
	Initial []Shape      `yaml:"initial"`
	Steps   []ScriptStep `yaml:"steps"`
}

// Shape seeds the document before the steps run.
type Shape struct {
	Kind   geometry.Kind `yaml:"kind"`
	Coords [4]float64    `yaml:"coords"`
}

// ScriptStep holds exactly one action.
type ScriptStep struct {
	Tool   string    `yaml:"tool,omitempty"`
	Down   []float64 `yaml:"down,omitempty"`
	Move   []float64 `yaml:"move,omitempty"`
	Up     bool      `yaml:"up,omitempty"`
	Cancel bool      `yaml:"cancel,omitempty"`
}

var errEmptyStep = errors.New("step has no action")

func buildReplayCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "replay SCRIPT",
		Short: "Replay a YAML pointer script and print the resulting records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			script, err := parseScript(data)
			if err != nil {
				return err
			}
			records, err := replay(script)
			if err != nil {
				return err
			}
			if out == "" {
				return writeRecords(cmd.OutOrStdout(), records)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			if err := writeRecords(f, records); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write records to this file instead of stdout")
	return cmd
}

func parseScript(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	return s, nil
}

func replay(s Script) ([]document.Record, error) {
	opts := []engine.Option{}
	if s.Tool != "" {
		tool, err := engine.ParseTool(s.Tool)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithTool(tool))
	}
	e := engine.New(opts...)

	if len(s.Initial) > 0 {
		records := make([]document.Record, len(s.Initial))
		for i, sh := range s.Initial {
			c := sh.Coords
			records[i] = document.Record{ID: i, Kind: sh.Kind, Coords: geometry.C(c[0], c[1], c[2], c[3])}
		}
		if err := e.LoadDocument(records); err != nil {
			return nil, fmt.Errorf("initial shapes: %w", err)
		}
	}

	for i, step := range s.Steps {
		if err := apply(e, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return e.ExportDocument(), nil
}

func apply(e *engine.Engine, step ScriptStep) error {
	switch {
	case step.Tool != "":
		tool, err := engine.ParseTool(step.Tool)
		if err != nil {
			return err
		}
		e.SetActiveTool(tool)
	case step.Down != nil:
		x, y, err := pair(step.Down)
		if err != nil {
			return err
		}
		e.OnPointerDown(x, y)
	case step.Move != nil:
		x, y, err := pair(step.Move)
		if err != nil {
			return err
		}
		e.OnPointerMove(x, y)
	case step.Up:
		e.OnPointerUp()
	case step.Cancel:
		e.CancelDrag()
	default:
		return errEmptyStep
	}
	return nil
}

func pair(v []float64) (float64, float64, error) {
	if len(v) != 2 {
		return 0, 0, fmt.Errorf("expected [x, y], got %d values", len(v))
	}
	return v[0], v[1], nil
}
