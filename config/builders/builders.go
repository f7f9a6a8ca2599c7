// Package builders 在 init 中把内置推荐器注册到 config 注册表。
package builders

import (
	"fmt"

	"github.com/rushteam/streamrec/config"
	"github.com/rushteam/streamrec/pkg/conv"
	"github.com/rushteam/streamrec/recommender"
)

func init() {
	config.Register("random", BuildRandom)
	config.Register("popular", BuildPopular)
	config.Register("mf", BuildMF)
	config.Register("feature.similarity", BuildFeatureSimilarity)
}

// BuildRandom 参数：seed（默认 0）。
func BuildRandom(params map[string]any) (any, error) {
	seed, err := seedParam(params)
	if err != nil {
		return nil, err
	}
	return recommender.NewRandom(seed), nil
}

func BuildPopular(map[string]any) (any, error) {
	return recommender.NewPopular(), nil
}

// BuildMF 参数：factors、learn_rate、reg、init_stddev、seed，未设置时使用 MFConfig 默认值。
func BuildMF(params map[string]any) (any, error) {
	seed, err := seedParam(params)
	if err != nil {
		return nil, err
	}
	cfg := recommender.MFConfig{
		Factors:    conv.ConfigGetInt(params, "factors", 0),
		LearnRate:  conv.ConfigGetFloat64(params, "learn_rate", 0),
		Reg:        conv.ConfigGetFloat64(params, "reg", 0),
		InitStdDev: conv.ConfigGetFloat64(params, "init_stddev", 0),
		Seed:       seed,
	}
	if cfg.Factors < 0 {
		return nil, fmt.Errorf("factors must be positive, got %d", cfg.Factors)
	}
	if cfg.LearnRate < 0 {
		return nil, fmt.Errorf("learn_rate must be positive, got %v", cfg.LearnRate)
	}
	return recommender.NewMF(cfg), nil
}

func BuildFeatureSimilarity(map[string]any) (any, error) {
	return recommender.NewFeatureSimilarity(), nil
}

func seedParam(params map[string]any) (uint64, error) {
	seed := conv.ConfigGetInt(params, "seed", 0)
	if seed < 0 {
		return 0, fmt.Errorf("seed must be non-negative, got %d", seed)
	}
	return uint64(seed), nil
}
