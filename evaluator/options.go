package evaluator

import (
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// Option 配置 Evaluator。
type Option func(*Evaluator)

// WithCanRepeat 设置用户是否可以被推荐已交互过的物品（默认 false）。
func WithCanRepeat(canRepeat bool) Option {
	return func(ev *Evaluator) {
		ev.canRepeat = canRepeat
	}
}

// WithEpochs 设置 Fit 中批量训练的轮数（默认 1，<1 时 Fit 返回 INVALID_INPUT）。
func WithEpochs(n int) Option {
	return func(ev *Evaluator) {
		ev.nEpoch = n
	}
}

// WithSeed 使用固定种子打乱训练事件（仅 n_epoch != 1 时打乱）。
func WithSeed(seed uint64) Option {
	return func(ev *Evaluator) {
		ev.rng = rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	}
}

// WithRand 直接指定打乱使用的随机源。
func WithRand(rng *rand.Rand) Option {
	return func(ev *Evaluator) {
		if rng != nil {
			ev.rng = rng
		}
	}
}

// WithLogger 设置日志（默认 zerolog.Nop()）。
func WithLogger(logger zerolog.Logger) Option {
	return func(ev *Evaluator) {
		ev.logger = logger
	}
}

// WithObserver 设置观测回调（例如 Prometheus 指标采集）。
func WithObserver(o Observer) Option {
	return func(ev *Evaluator) {
		if o != nil {
			ev.observer = o
		}
	}
}

func defaultRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1))
}
