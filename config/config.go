package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/streamrec/core"
	"github.com/rushteam/streamrec/dataset"
)

// Config 是一次离线评估实验的完整配置（支持 YAML/JSON）。
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset" json:"dataset"`
	Evaluation EvaluationConfig `yaml:"evaluation" json:"evaluation"`
	Models     []ModelConfig    `yaml:"models" json:"models" validate:"required,min=1,unique=Name,dive"`
	Log        LogConfig        `yaml:"log" json:"log"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
}

// DatasetConfig 描述交互日志的位置与格式。
type DatasetConfig struct {
	Path      string        `yaml:"path" json:"path" validate:"required"`
	Format    string        `yaml:"format" json:"format" validate:"omitempty,oneof=csv tsv"`
	Delimiter string        `yaml:"delimiter" json:"delimiter" validate:"omitempty,len=1"`
	HasHeader bool          `yaml:"has_header" json:"has_header"`
	Columns   ColumnsConfig `yaml:"columns" json:"columns"`

	// VectorSeparator 是向量列内的分量分隔符，默认 ';'
	VectorSeparator string `yaml:"vector_separator" json:"vector_separator" validate:"omitempty,len=1"`

	// 为空时使用 dataset.DefaultTrainRatio / DefaultTestRatio；显式的 0 保留
	TrainRatio *float64 `yaml:"train_ratio" json:"train_ratio" validate:"omitempty,gte=0,lte=1"`
	TestRatio  *float64 `yaml:"test_ratio" json:"test_ratio" validate:"omitempty,gte=0,lte=1"`

	// Filter 是 CEL 表达式，见 pkg/dsl.EventFilter
	Filter string `yaml:"filter" json:"filter"`
}

// ColumnsConfig 是各字段所在列（从 0 开始）。User / Item 为空时分别取 0 / 1；
// Value 为空表示隐式反馈（恒为 1）；特征与上下文列为空表示事件不带向量。
type ColumnsConfig struct {
	User  *int `yaml:"user" json:"user" validate:"omitempty,gte=0"`
	Item  *int `yaml:"item" json:"item" validate:"omitempty,gte=0"`
	Value *int `yaml:"value" json:"value" validate:"omitempty,gte=0"`

	UserFeature *int `yaml:"user_feature" json:"user_feature" validate:"omitempty,gte=0"`
	ItemFeature *int `yaml:"item_feature" json:"item_feature" validate:"omitempty,gte=0"`
	Context     *int `yaml:"context" json:"context" validate:"omitempty,gte=0"`
}

// Ratios 返回 train / test 切分比例，未设置的一侧取 0。
func (d DatasetConfig) Ratios() (train, test float64) {
	if d.TrainRatio != nil {
		train = *d.TrainRatio
	}
	if d.TestRatio != nil {
		test = *d.TestRatio
	}
	return train, test
}

// EvaluationConfig 对应评估器的配置面。
type EvaluationConfig struct {
	NEpoch    int  `yaml:"n_epoch" json:"n_epoch" validate:"gte=1"`
	CanRepeat bool `yaml:"can_repeat" json:"can_repeat"`
	// Seed 为空时每次运行使用不同的随机源
	Seed          *uint64 `yaml:"seed" json:"seed"`
	TopN          int     `yaml:"top_n" json:"top_n" validate:"gte=1"`
	MaxConcurrent int     `yaml:"max_concurrent" json:"max_concurrent" validate:"gte=0"`
}

// ModelConfig 是单个推荐器的配置，Type 必须已通过 Register 注册。
type ModelConfig struct {
	Name   string         `yaml:"name" json:"name" validate:"required"`
	Type   string         `yaml:"type" json:"type" validate:"required"`
	Params map[string]any `yaml:"params" json:"params"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=json console"`
}

// StoreConfig 是评估报告的存储后端。
type StoreConfig struct {
	Backend   string `yaml:"backend" json:"backend" validate:"omitempty,oneof=memory redis"`
	Addr      string `yaml:"addr" json:"addr" validate:"required_if=Backend redis"`
	DB        int    `yaml:"db" json:"db" validate:"gte=0"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr" validate:"required_if=Enabled true"`
}

// LoadFromYAML 从 YAML 文件加载配置并填充默认值。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载配置并填充默认值。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Load 按扩展名选择 YAML 或 JSON。
func Load(path string) (*Config, error) {
	if strings.HasSuffix(path, ".json") {
		return LoadFromJSON(path)
	}
	return LoadFromYAML(path)
}

// ApplyDefaults 填充未设置的字段。
func (c *Config) ApplyDefaults() {
	if c.Dataset.Format == "" {
		c.Dataset.Format = "csv"
	}
	// 只填充缺省的指针字段，显式写出的 0 不会被覆盖
	if c.Dataset.TrainRatio == nil {
		c.Dataset.TrainRatio = ptr(dataset.DefaultTrainRatio)
	}
	if c.Dataset.TestRatio == nil {
		c.Dataset.TestRatio = ptr(dataset.DefaultTestRatio)
	}
	if c.Dataset.Columns.User == nil {
		c.Dataset.Columns.User = ptr(0)
	}
	if c.Dataset.Columns.Item == nil {
		c.Dataset.Columns.Item = ptr(1)
	}
	if c.Evaluation.NEpoch == 0 {
		c.Evaluation.NEpoch = 1
	}
	if c.Evaluation.TopN == 0 {
		c.Evaluation.TopN = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "streamrec"
	}
}

// DatasetOptions 把数据集配置转换为 dataset.Options（不含过滤器）。
func (c *Config) DatasetOptions() dataset.Options {
	opts := dataset.DefaultOptions()
	opts.HasHeader = c.Dataset.HasHeader
	cols := c.Dataset.Columns
	opts.UserColumn = deref(cols.User, opts.UserColumn)
	opts.ItemColumn = deref(cols.Item, opts.ItemColumn)
	opts.ValueColumn = deref(cols.Value, opts.ValueColumn)
	opts.UserFeatureColumn = deref(cols.UserFeature, opts.UserFeatureColumn)
	opts.ItemFeatureColumn = deref(cols.ItemFeature, opts.ItemFeatureColumn)
	opts.ContextColumn = deref(cols.Context, opts.ContextColumn)
	if c.Dataset.VectorSeparator != "" {
		opts.VectorSeparator = []rune(c.Dataset.VectorSeparator)[0]
	}
	switch {
	case c.Dataset.Delimiter != "":
		opts.Delimiter = []rune(c.Dataset.Delimiter)[0]
	case c.Dataset.Format == "tsv":
		opts.Delimiter = '\t'
	}
	return opts
}

func ptr[T any](v T) *T { return &v }

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 校验字段约束、切分比例与模型类型是否已注册。
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				"config: "+strings.Join(msgs, "; "), err)
		}
		return core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "config: validation failed", err)
	}
	if train, test := c.Dataset.Ratios(); train+test > 1 {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			fmt.Sprintf("config: train_ratio + test_ratio = %v exceeds 1", train+test))
	}
	return ValidateConfig(c)
}
