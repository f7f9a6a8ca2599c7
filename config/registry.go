// Package config 负责实验配置的加载、校验，以及按类型名构建推荐器的注册表。
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/streamrec/core"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/streamrec/config/builders"
// 以触发内置推荐器（random、popular、mf、feature.similarity）的 init 注册。

// Builder 根据 params 构建推荐器。返回值须实现 core.Recommender 或 core.FeatureRecommender，
// 由 evaluator.New 按能力选择调用路径。
type Builder func(params map[string]any) (any, error)

var (
	defaultBuilders   = make(map[string]Builder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种推荐器的构建逻辑。
// 建议在各组件的 init 中调用，例如：func init() { config.Register("mf", BuildMF) }
func Register(typeName string, builder Builder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build 按类型名构建推荐器。
func Build(typeName string, params map[string]any) (any, error) {
	defaultBuildersMu.RLock()
	builder, ok := defaultBuilders[typeName]
	defaultBuildersMu.RUnlock()
	if !ok {
		return nil, unsupported(typeName)
	}

	rec, err := builder(params)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", typeName, err)
	}
	return rec, nil
}

// ValidateConfig 校验所有模型类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	for _, m := range cfg.Models {
		defaultBuildersMu.RLock()
		_, ok := defaultBuilders[m.Type]
		defaultBuildersMu.RUnlock()
		if !ok {
			return unsupported(m.Type)
		}
	}
	return nil
}

func unsupported(typeName string) error {
	return core.NewDomainError(core.ModuleConfig, core.ErrorCodeNotSupported,
		fmt.Sprintf("unsupported model type %q (supported: %v)", typeName, SupportedTypes()))
}
