package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/streamrec/config"
	_ "github.com/rushteam/streamrec/config/builders"
	"github.com/rushteam/streamrec/core"
	"github.com/rushteam/streamrec/recommender"
)

const sampleYAML = `
dataset:
  path: data/events.tsv
  format: tsv
  has_header: true
  columns:
    user: 0
    item: 1
    value: 2
  filter: "value >= 4.0"
evaluation:
  n_epoch: 3
  can_repeat: false
  seed: 42
models:
  - name: baseline
    type: random
    params:
      seed: 7
  - name: mf-small
    type: mf
    params:
      factors: 8
      learn_rate: 0.01
store:
  backend: memory
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	cfg, err := config.LoadFromYAML(writeFile(t, "exp.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Evaluation.NEpoch != 3 || cfg.Evaluation.Seed == nil || *cfg.Evaluation.Seed != 42 {
		t.Errorf("evaluation = %+v", cfg.Evaluation)
	}
	// 默认值
	if cfg.Evaluation.TopN != 10 || cfg.Log.Level != "info" || cfg.Store.KeyPrefix != "streamrec" {
		t.Errorf("defaults not applied: top_n=%d level=%q prefix=%q",
			cfg.Evaluation.TopN, cfg.Log.Level, cfg.Store.KeyPrefix)
	}
	if train, test := cfg.Dataset.Ratios(); train != 0.3 || test != 0.2 {
		t.Errorf("split ratios = %v/%v", train, test)
	}

	opts := cfg.DatasetOptions()
	if opts.Delimiter != '\t' || !opts.HasHeader || opts.ValueColumn != 2 {
		t.Errorf("DatasetOptions() = %+v", opts)
	}
}

func TestLoadFromJSON(t *testing.T) {
	content := `{"dataset":{"path":"a.csv"},"models":[{"name":"pop","type":"popular"}]}`
	cfg, err := config.Load(writeFile(t, "exp.json", content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	opts := cfg.DatasetOptions()
	if opts.Delimiter != ',' || opts.ItemColumn != 1 || opts.ValueColumn != -1 {
		t.Errorf("DatasetOptions() = %+v", opts)
	}
}

func TestApplyDefaults_ExplicitZero(t *testing.T) {
	tests := []struct {
		name       string
		dataset    string
		wantTrain  float64
		wantTest   float64
		wantUser   int
		wantItem   int
		wantVector [3]int
	}{
		{
			name:       "omitted",
			dataset:    "{path: a.csv}",
			wantTrain:  0.3,
			wantTest:   0.2,
			wantUser:   0,
			wantItem:   1,
			wantVector: [3]int{-1, -1, -1},
		},
		{
			// 整个日志都进入 stream
			name:       "zero ratios",
			dataset:    "{path: a.csv, train_ratio: 0, test_ratio: 0}",
			wantTrain:  0,
			wantTest:   0,
			wantUser:   0,
			wantItem:   1,
			wantVector: [3]int{-1, -1, -1},
		},
		{
			name:       "zero columns",
			dataset:    "{path: a.csv, columns: {user: 0, item: 0}}",
			wantTrain:  0.3,
			wantTest:   0.2,
			wantUser:   0,
			wantItem:   0,
			wantVector: [3]int{-1, -1, -1},
		},
		{
			name:       "vector columns",
			dataset:    "{path: a.csv, columns: {user_feature: 2, item_feature: 3, context: 0}}",
			wantTrain:  0.3,
			wantTest:   0.2,
			wantUser:   0,
			wantItem:   1,
			wantVector: [3]int{2, 3, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := "dataset: " + tt.dataset + "\nmodels: [{name: pop, type: popular}]\n"
			cfg, err := config.LoadFromYAML(writeFile(t, "exp.yaml", content))
			if err != nil {
				t.Fatalf("LoadFromYAML() error = %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if train, test := cfg.Dataset.Ratios(); train != tt.wantTrain || test != tt.wantTest {
				t.Errorf("Ratios() = %v/%v, want %v/%v", train, test, tt.wantTrain, tt.wantTest)
			}
			opts := cfg.DatasetOptions()
			if opts.UserColumn != tt.wantUser || opts.ItemColumn != tt.wantItem {
				t.Errorf("columns = %d/%d, want %d/%d", opts.UserColumn, opts.ItemColumn, tt.wantUser, tt.wantItem)
			}
			got := [3]int{opts.UserFeatureColumn, opts.ItemFeatureColumn, opts.ContextColumn}
			if got != tt.wantVector {
				t.Errorf("vector columns = %v, want %v", got, tt.wantVector)
			}
			if opts.VectorSeparator != ';' {
				t.Errorf("VectorSeparator = %q, want ';'", opts.VectorSeparator)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		cfg := &config.Config{
			Dataset: config.DatasetConfig{Path: "a.csv"},
			Models:  []config.ModelConfig{{Name: "a", Type: "random"}},
		}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantCode string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "missing path", mutate: func(c *config.Config) { c.Dataset.Path = "" }, wantCode: core.ErrorCodeInvalidInput},
		{name: "no models", mutate: func(c *config.Config) { c.Models = nil }, wantCode: core.ErrorCodeInvalidInput},
		{name: "duplicate model names", mutate: func(c *config.Config) {
			c.Models = append(c.Models, config.ModelConfig{Name: "a", Type: "popular"})
		}, wantCode: core.ErrorCodeInvalidInput},
		{name: "negative epochs", mutate: func(c *config.Config) { c.Evaluation.NEpoch = -1 }, wantCode: core.ErrorCodeInvalidInput},
		{name: "ratios exceed one", mutate: func(c *config.Config) {
			train, test := 0.7, 0.5
			c.Dataset.TrainRatio, c.Dataset.TestRatio = &train, &test
		}, wantCode: core.ErrorCodeInvalidInput},
		{name: "redis without addr", mutate: func(c *config.Config) { c.Store.Backend = "redis" }, wantCode: core.ErrorCodeInvalidInput},
		{name: "unknown model type", mutate: func(c *config.Config) { c.Models[0].Type = "deepfm" }, wantCode: core.ErrorCodeNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			de := core.GetDomainError(err)
			if de == nil || de.Code != tt.wantCode {
				t.Errorf("Validate() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestRegistryBuild(t *testing.T) {
	types := config.SupportedTypes()
	want := []string{"feature.similarity", "mf", "popular", "random"}
	for _, w := range want {
		found := false
		for _, got := range types {
			if got == w {
				found = true
			}
		}
		if !found {
			t.Errorf("SupportedTypes() = %v, missing %q", types, w)
		}
	}

	rec, err := config.Build("mf", map[string]any{"factors": 8, "learn_rate": 0.05, "seed": 3})
	if err != nil {
		t.Fatalf("Build(mf) error = %v", err)
	}
	mf, ok := rec.(*recommender.MF)
	if !ok {
		t.Fatalf("Build(mf) = %T", rec)
	}
	if got := mf.Config(); got.Factors != 8 || got.LearnRate != 0.05 || got.Seed != 3 {
		t.Errorf("MF config = %+v", got)
	}

	if _, err := config.Build("feature.similarity", nil); err != nil {
		t.Errorf("Build(feature.similarity) error = %v", err)
	}
	if _, err := config.Build("mf", map[string]any{"seed": -1}); err == nil {
		t.Error("Build(mf) with negative seed should fail")
	}
	if _, err := config.Build("nope", nil); !core.IsNotSupported(err) {
		t.Errorf("Build(nope) error = %v, want NOT_SUPPORTED", err)
	}
}
