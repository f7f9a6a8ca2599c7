package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeExperiment(t *testing.T) (configPath string) {
	t.Helper()
	dir := t.TempDir()

	var data strings.Builder
	data.WriteString("user,item,rating\n")
	for k := 0; k < 6; k++ {
		for u := 0; u < 8; u++ {
			fmt.Fprintf(&data, "u%d,i%d,%d\n", u, (u*3+k)%12, 1+(u+k)%5)
		}
	}
	dataPath := filepath.Join(dir, "events.csv")
	if err := os.WriteFile(dataPath, []byte(data.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := `
dataset:
  path: ` + dataPath + `
  has_header: true
  columns: {user: 0, item: 1, value: 2}
  filter: "value >= 2.0"
evaluation:
  n_epoch: 2
  seed: 1
  top_n: 5
models:
  - {name: random, type: random, params: {seed: 3}}
  - {name: popular, type: popular}
  - {name: mf, type: mf, params: {factors: 4, seed: 5}}
log:
  level: error
`
	configPath = filepath.Join(dir, "experiment.yaml")
	if err := os.WriteFile(configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), cliOptions{configPath: writeExperiment(t)}, &out)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"MODEL", "random", "popular", "mf"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_ListTypes(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), cliOptions{listTypes: true}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "feature.similarity") {
		t.Errorf("list-types output = %q", out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts cliOptions
	}{
		{name: "missing config", opts: cliOptions{configPath: filepath.Join(t.TempDir(), "nope.yaml")}},
		{name: "missing data", opts: cliOptions{configPath: writeExperiment(t), dataPath: "/nonexistent/events.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.opts, &bytes.Buffer{}); err == nil {
				t.Error("run() should fail")
			}
		})
	}
}
