// Package evaluator 实现正反馈增量推荐的评估协议：
//
//	Fit:      冷启动注册 → 批量训练 + 批量评估（MPR）→ 测试事件折入
//	Evaluate: 逐事件 recommend → 计算排名 → 标记已观测 → update
//
// 核心不变量：对任一事件，打分严格发生在该事件被吸收进模型状态之前；
// 事件 i 的状态变更在事件 i+1 打分之前全部完成。
//
// Evaluator 与其持有的推荐器单线程使用，不能被多个 goroutine 并发调用。
package evaluator

import (
	"context"
	"fmt"
	"iter"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/streamrec/core"
)

// ErrSequenceConsumed 表示 Evaluate 返回的惰性序列被第二次遍历。
var ErrSequenceConsumed = core.NewDomainError(core.ModuleEvaluator, core.ErrorCodeSequenceConsumed,
	"evaluator: incremental sequence already consumed")

// Evaluator 独占一个推荐器，负责候选集、冷启动注册与指标计算。
type Evaluator struct {
	path dispatcher

	canRepeat bool
	nEpoch    int
	rng       *rand.Rand
	logger    zerolog.Logger
	observer  Observer

	observed observedTable
	items    itemIndex
	numUsers int
}

// New 根据推荐器声明的能力一次性选定调用路径：
// core.FeatureRecommender 走特征路径，core.Recommender 走普通路径，其他类型返回 INVALID_INPUT。
func New(rec any, opts ...Option) (*Evaluator, error) {
	switch r := rec.(type) {
	case core.FeatureRecommender:
		return NewFeature(r, opts...), nil
	case core.Recommender:
		return NewPlain(r, opts...), nil
	default:
		return nil, core.NewDomainError(core.ModuleEvaluator, core.ErrorCodeInvalidInput,
			fmt.Sprintf("evaluator: %T implements neither core.Recommender nor core.FeatureRecommender", rec))
	}
}

// NewPlain 为普通推荐器创建 Evaluator。
func NewPlain(rec core.Recommender, opts ...Option) *Evaluator {
	return newEvaluator(plainPath{rec: rec}, opts)
}

// NewFeature 为特征感知推荐器创建 Evaluator。
func NewFeature(rec core.FeatureRecommender, opts ...Option) *Evaluator {
	return newEvaluator(featurePath{rec: rec}, opts)
}

func newEvaluator(path dispatcher, opts []Option) *Evaluator {
	ev := &Evaluator{
		path:     path,
		nEpoch:   1,
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(ev)
	}
	if ev.rng == nil {
		ev.rng = defaultRand()
	}
	ev.reset()
	return ev
}

// SetCanRepeat 设置用户是否可以被推荐已交互过的物品。
func (ev *Evaluator) SetCanRepeat(canRepeat bool) { ev.canRepeat = canRepeat }

// CanRepeat 返回当前的重复交互设置。
func (ev *Evaluator) CanRepeat() bool { return ev.canRepeat }

// FeatureAware 返回构造时选定的是否为特征路径。
func (ev *Evaluator) FeatureAware() bool { return ev.path.kind() == "feature" }

// NumUsers / NumItems 返回本次运行中已注册的用户、物品数，只增不减（直到下一次 Fit）。
func (ev *Evaluator) NumUsers() int { return ev.numUsers }
func (ev *Evaluator) NumItems() int { return len(ev.items) }

// Observed 返回用户已观测物品的升序副本。
func (ev *Evaluator) Observed(u int) []int { return ev.observed.sorted(u) }

func (ev *Evaluator) reset() {
	ev.path.initModel()
	ev.observed = make(observedTable)
	ev.items = nil
	ev.numUsers = 0
}

// Fit 用训练事件预热模型，用测试事件做批量评估，然后把测试事件折入模型历史。
//
//  1. 重置模型
//  2. 训练事件：注册新实体并标记为已观测（不调用 update）
//  3. 测试事件：只注册新实体，不标记已观测，使批量评估把它们当作未观测目标
//  4. BatchUpdate
//  5. 测试事件：标记已观测，然后逐个在线 update
func (ev *Evaluator) Fit(ctx context.Context, train, test []core.Event) error {
	if ev.nEpoch < 1 {
		return core.NewDomainError(core.ModuleEvaluator, core.ErrorCodeInvalidInput,
			fmt.Sprintf("evaluator: n_epoch must be >= 1, got %d", ev.nEpoch))
	}
	ev.reset()

	for _, e := range train {
		if err := ev.validate(e); err != nil {
			return fmt.Errorf("bootstrap train events: %w", err)
		}
		ev.observed.add(e.User.Index, e.Item.Index)
	}
	for _, e := range test {
		if err := ev.validate(e); err != nil {
			return fmt.Errorf("register test events: %w", err)
		}
	}

	if _, err := ev.BatchUpdate(ctx, train, test, ev.nEpoch); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range test {
		ev.observed.add(e.User.Index, e.Item.Index)
		if err := ev.path.update(e, false); err != nil {
			return fmt.Errorf("fold in test event (user=%d item=%d): %w", e.User.Index, e.Item.Index, err)
		}
	}

	ev.logger.Info().
		Str("recommender", ev.path.kind()).
		Int("train_events", len(train)).
		Int("test_events", len(test)).
		Int("users", ev.numUsers).
		Int("items", len(ev.items)).
		Msg("fit finished")
	return nil
}

// BatchUpdate 执行 nEpoch 轮批量训练，每轮结束后用 test 计算 MPR 并上报。
// nEpoch != 1 时每轮训练前打乱训练事件（打乱的是副本，不修改入参）；
// nEpoch == 1 视为确定性单遍训练，保持原始顺序。返回每轮的 MPR。
// MPR 只用于观测，不控制是否继续训练。
func (ev *Evaluator) BatchUpdate(ctx context.Context, train, test []core.Event, nEpoch int) ([]float64, error) {
	if nEpoch < 1 {
		return nil, core.NewDomainError(core.ModuleEvaluator, core.ErrorCodeInvalidInput,
			fmt.Sprintf("evaluator: n_epoch must be >= 1, got %d", nEpoch))
	}

	events := train
	if nEpoch != 1 {
		events = slices.Clone(train)
	}

	mprs := make([]float64, 0, nEpoch)
	for epoch := 1; epoch <= nEpoch; epoch++ {
		if err := ctx.Err(); err != nil {
			return mprs, err
		}
		if nEpoch != 1 {
			ev.rng.Shuffle(len(events), func(a, b int) {
				events[a], events[b] = events[b], events[a]
			})
		}

		for _, e := range events {
			if err := ev.path.update(e, true); err != nil {
				return mprs, fmt.Errorf("batch update epoch %d (user=%d item=%d): %w",
					epoch, e.User.Index, e.Item.Index, err)
			}
		}

		mpr, err := ev.BatchEvaluate(test)
		if err != nil {
			return mprs, fmt.Errorf("batch evaluate epoch %d: %w", epoch, err)
		}
		mprs = append(mprs, mpr)

		ev.logger.Debug().Int("epoch", epoch).Float64("mpr", mpr).Msg("batch evaluation")
		ev.observer.ObserveEpoch(epoch, mpr)
	}
	return mprs, nil
}

// BatchEvaluate 计算 test 上的平均百分位排名（MPR，越低越好），不修改任何状态。
// test 为空时返回 0。
func (ev *Evaluator) BatchEvaluate(test []core.Event) (float64, error) {
	if len(test) == 0 {
		return 0, nil
	}

	var sum float64
	for _, e := range test {
		candidates := ev.candidates(e.User.Index, e.Item.Index)
		recos, scores, err := ev.path.recommend(e, candidates)
		if err != nil {
			return 0, fmt.Errorf("recommend (user=%d item=%d): %w", e.User.Index, e.Item.Index, err)
		}
		pos, err := rankOf(e, candidates, recos, scores)
		if err != nil {
			return 0, err
		}
		sum += Percentile(pos, len(recos))
	}
	return sum / float64(len(test)), nil
}

// Evaluate 返回惰性、单遍、不可重启的增量评估序列，每个输入事件产出一个 Result。
//
// 对每个事件：注册新实体 → 构建候选集 → recommend（计时）→ 计算排名 →
// 标记已观测 → 在线 update（计时）→ yield。
// 调用方提前停止遍历是安全的：已消费事件的状态变更都已完成。
// 出错时 yield 一次错误并结束；第二次遍历会得到 ErrSequenceConsumed。
func (ev *Evaluator) Evaluate(ctx context.Context, events iter.Seq[core.Event]) iter.Seq2[Result, error] {
	consumed := false
	return func(yield func(Result, error) bool) {
		if consumed {
			yield(Result{}, ErrSequenceConsumed)
			return
		}
		consumed = true

		for e := range events {
			if err := ctx.Err(); err != nil {
				yield(Result{}, err)
				return
			}
			res, err := ev.step(e)
			if err != nil {
				yield(Result{}, err)
				return
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

// EvaluateSlice 是 Evaluate 的切片版本。
func (ev *Evaluator) EvaluateSlice(ctx context.Context, events []core.Event) iter.Seq2[Result, error] {
	return ev.Evaluate(ctx, slices.Values(events))
}

func (ev *Evaluator) step(e core.Event) (Result, error) {
	if err := ev.validate(e); err != nil {
		return Result{}, err
	}
	u, i := e.User.Index, e.Item.Index
	candidates := ev.candidates(u, i)

	start := time.Now()
	recos, scores, err := ev.path.recommend(e, candidates)
	recommendTime := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("recommend (user=%d item=%d): %w", u, i, err)
	}

	rank, err := rankOf(e, candidates, recos, scores)
	if err != nil {
		return Result{}, err
	}

	// 打分之后才把真实物品记为已观测
	ev.observed.add(u, i)

	start = time.Now()
	err = ev.path.update(e, false)
	updateTime := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("update (user=%d item=%d): %w", u, i, err)
	}

	res := Result{
		Top1Score:     scores[0],
		Rank:          rank,
		RecommendTime: recommendTime,
		UpdateTime:    updateTime,
		NumCandidates: len(candidates),
		User:          u,
		Item:          i,
	}
	ev.observer.ObserveResult(res)
	return res, nil
}

// candidates 构建升序候选集：全部已注册物品；不允许重复时去掉用户已观测物品，
// 但真实物品始终保留。
func (ev *Evaluator) candidates(u, target int) []int {
	out := make([]int, 0, len(ev.items)+1)
	if !ev.items.contains(target) {
		// 只有绕过注册直接调用 BatchEvaluate 时才会走到这里，推荐器会报 NOT_REGISTERED
		out = append(out, target)
	}
	for _, i := range ev.items {
		if !ev.canRepeat && i != target && ev.observed.has(u, i) {
			continue
		}
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// validate 懒注册事件中首次出现的用户与物品。
// 推荐器无法撤销注册：用户注册成功而物品注册失败时，该用户保持已注册，
// numUsers 与 items 始终只记录推荐器确认过的实体，与推荐器状态一致。
func (ev *Evaluator) validate(e core.Event) error {
	if ev.path.isNewUser(e.User.Index) {
		if err := ev.path.addUser(e); err != nil {
			return fmt.Errorf("add user %d: %w", e.User.Index, err)
		}
		ev.numUsers++
	}
	if ev.path.isNewItem(e.Item.Index) {
		if err := ev.path.addItem(e); err != nil {
			return fmt.Errorf("add item %d: %w", e.Item.Index, err)
		}
		ev.items.insert(e.Item.Index)
	}
	return nil
}

// rankOf 返回真实物品在推荐结果中的位置，同时校验推荐器是否遵守输出契约。
func rankOf(e core.Event, candidates, recos []int, scores []float64) (int, error) {
	if len(recos) != len(candidates) || len(scores) != len(recos) {
		return 0, core.NewDomainError(core.ModuleEvaluator, core.ErrorCodeInternalError,
			fmt.Sprintf("evaluator: recommender returned %d items / %d scores for %d candidates",
				len(recos), len(scores), len(candidates)))
	}
	for pos, i := range recos {
		if i == e.Item.Index {
			return pos, nil
		}
	}
	return 0, core.NewDomainError(core.ModuleEvaluator, core.ErrorCodeInternalError,
		fmt.Sprintf("evaluator: true item %d missing from ranking for user %d", e.Item.Index, e.User.Index))
}
