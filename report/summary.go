// Package report 汇总增量评估结果，并可将其持久化到 core.KeyValueStore。
package report

import (
	"time"

	"github.com/rushteam/streamrec/evaluator"
)

// Summary 累积一次运行的指标。实现 evaluator.Observer，可直接挂在 Evaluator 上。
type Summary struct {
	Model string
	RunID string
	// TopN 决定 Recall@N：真实物品排名 < TopN 视为命中
	TopN int

	// BatchMPRs 是 Fit 阶段每轮批量训练后的 MPR
	BatchMPRs []float64

	count         int
	hits          int
	sumRank       float64
	sumPercentile float64
	sumRecommend  time.Duration
	sumUpdate     time.Duration
}

// NewSummary 创建空汇总，topN <= 0 时取 10。
func NewSummary(model, runID string, topN int) *Summary {
	if topN <= 0 {
		topN = 10
	}
	return &Summary{Model: model, RunID: runID, TopN: topN}
}

func (s *Summary) ObserveEpoch(_ int, mpr float64) {
	s.BatchMPRs = append(s.BatchMPRs, mpr)
}

func (s *Summary) ObserveResult(r evaluator.Result) {
	s.Add(r)
}

// Add 计入一个增量事件的结果。
func (s *Summary) Add(r evaluator.Result) {
	s.count++
	s.sumRank += float64(r.Rank)
	s.sumPercentile += r.Percentile()
	if r.Rank < s.TopN {
		s.hits++
	}
	s.sumRecommend += r.RecommendTime
	s.sumUpdate += r.UpdateTime
}

// Count 返回已计入的事件数。
func (s *Summary) Count() int { return s.count }

// MeanRank 返回平均排名（0 为第一）。
func (s *Summary) MeanRank() float64 { return s.mean(s.sumRank) }

// MPR 返回增量流上的平均百分位排名（0 最好，100 最差）。
func (s *Summary) MPR() float64 { return s.mean(s.sumPercentile) }

// Recall 返回 Recall@TopN。
func (s *Summary) Recall() float64 { return s.mean(float64(s.hits)) }

func (s *Summary) MeanRecommendTime() time.Duration { return s.meanDuration(s.sumRecommend) }

func (s *Summary) MeanUpdateTime() time.Duration { return s.meanDuration(s.sumUpdate) }

// FinalBatchMPR 返回最后一轮批量训练的 MPR，没有批量阶段时返回 false。
func (s *Summary) FinalBatchMPR() (float64, bool) {
	if len(s.BatchMPRs) == 0 {
		return 0, false
	}
	return s.BatchMPRs[len(s.BatchMPRs)-1], true
}

func (s *Summary) mean(sum float64) float64 {
	if s.count == 0 {
		return 0
	}
	return sum / float64(s.count)
}

func (s *Summary) meanDuration(sum time.Duration) time.Duration {
	if s.count == 0 {
		return 0
	}
	return sum / time.Duration(s.count)
}
