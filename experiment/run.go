// Package experiment 把数据切分、评估器、汇总与持久化串成一次完整的离线实验。
package experiment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/streamrec/core"
	"github.com/rushteam/streamrec/evaluator"
	"github.com/rushteam/streamrec/report"
)

// Spec 描述一次实验：一个推荐器 + 一份数据切分 + 评估配置。
//
// Recommender 必须实现 core.Recommender 或 core.FeatureRecommender，
// 且每个 Spec 独占自己的实例；事件切片只读，可在多个 Spec 之间共享。
type Spec struct {
	Name        string
	Recommender any

	Train  []core.Event
	Test   []core.Event
	Stream []core.Event

	NEpoch    int
	CanRepeat bool
	// Seed 为 nil 时使用时间种子打乱训练事件
	Seed *uint64
	TopN int

	// RunID 为空时自动生成 UUID
	RunID string

	// Store 非 nil 时把逐事件记录、运行元数据与排行榜写入存储
	Store     core.KeyValueStore
	KeyPrefix string

	Observer evaluator.Observer
	Logger   zerolog.Logger
}

// Run 执行一次实验：Fit(train, test) 后对 stream 逐事件评估。
func Run(ctx context.Context, spec Spec) (*report.Summary, error) {
	if spec.RunID == "" {
		spec.RunID = uuid.NewString()
	}
	if spec.NEpoch == 0 {
		spec.NEpoch = 1
	}
	logger := spec.Logger.With().
		Str("model", spec.Name).
		Str("run_id", spec.RunID).
		Logger()

	sum := report.NewSummary(spec.Name, spec.RunID, spec.TopN)

	opts := []evaluator.Option{
		evaluator.WithEpochs(spec.NEpoch),
		evaluator.WithCanRepeat(spec.CanRepeat),
		evaluator.WithLogger(logger),
		evaluator.WithObserver(evaluator.Observers(sum, spec.Observer)),
	}
	if spec.Seed != nil {
		opts = append(opts, evaluator.WithSeed(*spec.Seed))
	}
	ev, err := evaluator.New(spec.Recommender, opts...)
	if err != nil {
		return nil, err
	}

	var sink *report.StoreSink
	if spec.Store != nil {
		sink = report.NewStoreSink(spec.Store, spec.KeyPrefix, spec.RunID)
	}

	logger.Info().
		Bool("feature_aware", ev.FeatureAware()).
		Int("train", len(spec.Train)).
		Int("test", len(spec.Test)).
		Int("stream", len(spec.Stream)).
		Msg("experiment started")

	start := time.Now()
	if err := ev.Fit(ctx, spec.Train, spec.Test); err != nil {
		return nil, fmt.Errorf("fit %s: %w", spec.Name, err)
	}

	for r, err := range ev.EvaluateSlice(ctx, spec.Stream) {
		if err != nil {
			return sum, fmt.Errorf("evaluate %s: %w", spec.Name, err)
		}
		if sink != nil {
			if err := sink.Write(ctx, r); err != nil {
				return sum, err
			}
		}
	}

	if sink != nil {
		meta := map[string]string{
			"n_epoch":    strconv.Itoa(spec.NEpoch),
			"can_repeat": strconv.FormatBool(spec.CanRepeat),
			"num_users":  strconv.Itoa(ev.NumUsers()),
			"num_items":  strconv.Itoa(ev.NumItems()),
		}
		if err := sink.Finish(ctx, sum, meta); err != nil {
			return sum, err
		}
	}

	logger.Info().
		Int("events", sum.Count()).
		Float64("mpr", sum.MPR()).
		Float64("recall", sum.Recall()).
		Dur("elapsed", time.Since(start)).
		Msg("experiment finished")
	return sum, nil
}
