package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/dgallion1/studyplan/internal/render"
)

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// writeData encodes data as yaml or json.
func writeData(w io.Writer, format string, data any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// writePlan encodes p as data or renders it for reading.
func writePlan(w io.Writer, format string, p *plan.StudyPlan) error {
	switch format {
	case "json", "yaml":
		return writeData(w, format, p)
	}
	r, err := render.ForFormat(format)
	if err != nil {
		return err
	}
	return r.Render(w, p)
}

// readPlan loads a plan saved by "generate -o json" or "-o yaml".
func readPlan(path string) (*plan.StudyPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	// JSON is valid YAML, so one decoder covers both.
	var p plan.StudyPlan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if len(p.Days) == 0 {
		return nil, fmt.Errorf("plan %s has no days", path)
	}
	return &p, nil
}
