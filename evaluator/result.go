package evaluator

import (
	"iter"
	"time"
)

// Result 是增量评估中单个事件的结果。
type Result struct {
	// Top1Score 是排名第一的候选的分数（不一定是真实物品的分数）
	Top1Score float64
	// Rank 是真实物品在推荐结果中的位置（0 为第一）
	Rank int
	// RecommendTime / UpdateTime 使用单调时钟计时，只用于观测
	RecommendTime time.Duration
	UpdateTime    time.Duration

	// NumCandidates 是本次打分的候选集大小
	NumCandidates int
	User          int
	Item          int
}

// Percentile 将 Rank 换算为百分位（0 最好，100 最差）。
func (r Result) Percentile() float64 {
	return Percentile(r.Rank, r.NumCandidates)
}

// Percentile 计算 pos / (n-1) * 100。
// 候选集只有 1 个元素时百分位无定义，这里约定为 0（唯一的候选必然排第一）。
func Percentile(pos, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(pos) / float64(n-1) * 100
}

// Observer 接收评估过程中的观测信号，不影响控制流。
type Observer interface {
	// ObserveEpoch 在每轮批量训练后上报 MPR
	ObserveEpoch(epoch int, mpr float64)
	// ObserveResult 在每个增量事件完成 update 后上报结果
	ObserveResult(r Result)
}

type nopObserver struct{}

func (nopObserver) ObserveEpoch(int, float64) {}
func (nopObserver) ObserveResult(Result)      {}

// Observers 把多个 Observer 组合为一个，按顺序回调；nil 会被忽略。
func Observers(obs ...Observer) Observer {
	list := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) ObserveEpoch(epoch int, mpr float64) {
	for _, o := range m {
		o.ObserveEpoch(epoch, mpr)
	}
}

func (m multiObserver) ObserveResult(r Result) {
	for _, o := range m {
		o.ObserveResult(r)
	}
}

// Collect 消费整个增量序列，遇到第一个错误即返回已收集的结果与该错误。
func Collect(seq iter.Seq2[Result, error]) ([]Result, error) {
	var out []Result
	for r, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}
