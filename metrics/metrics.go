// Package metrics 把评估过程的观测信号导出为 Prometheus 指标。
//
// 指标只用于观测：Collector 实现 evaluator.Observer，不参与任何控制流。
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/streamrec/evaluator"
)

// Collector 持有所有评估指标，按 model 标签区分不同实验。
type Collector struct {
	RecommendDuration *prometheus.HistogramVec
	UpdateDuration    *prometheus.HistogramVec
	RankPercentile    *prometheus.HistogramVec
	Candidates        *prometheus.HistogramVec
	EventsTotal       *prometheus.CounterVec
	BatchMPR          *prometheus.GaugeVec
	Top1Score         *prometheus.GaugeVec
}

// NewCollector 在 reg 上注册全部指标。reg 为 nil 时使用 prometheus.DefaultRegisterer。
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		RecommendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streamrec_recommend_duration_seconds",
				Help:    "Duration of recommend calls during incremental evaluation",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs .. ~2.6s
			},
			[]string{"model"},
		),
		UpdateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streamrec_update_duration_seconds",
				Help:    "Duration of incremental update calls",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"model"},
		),
		RankPercentile: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streamrec_rank_percentile",
				Help:    "Percentile rank of the true item (0 best, 100 worst)",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
			[]string{"model"},
		),
		Candidates: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streamrec_candidates",
				Help:    "Candidate set size per incremental event",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"model"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamrec_events_total",
				Help: "Total number of incrementally evaluated events",
			},
			[]string{"model"},
		),
		BatchMPR: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamrec_batch_mpr",
				Help: "Mean percentile rank on the test split after each batch epoch",
			},
			[]string{"model", "epoch"},
		),
		Top1Score: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamrec_top1_score",
				Help: "Score of the top recommended candidate for the latest event",
			},
			[]string{"model"},
		),
	}
}

// ForModel 返回绑定了 model 标签的 evaluator.Observer。
func (c *Collector) ForModel(model string) evaluator.Observer {
	return &modelObserver{c: c, model: model}
}

type modelObserver struct {
	c     *Collector
	model string
}

func (o *modelObserver) ObserveEpoch(epoch int, mpr float64) {
	o.c.BatchMPR.WithLabelValues(o.model, strconv.Itoa(epoch)).Set(mpr)
}

func (o *modelObserver) ObserveResult(r evaluator.Result) {
	o.c.RecommendDuration.WithLabelValues(o.model).Observe(r.RecommendTime.Seconds())
	o.c.UpdateDuration.WithLabelValues(o.model).Observe(r.UpdateTime.Seconds())
	o.c.RankPercentile.WithLabelValues(o.model).Observe(r.Percentile())
	o.c.Candidates.WithLabelValues(o.model).Observe(float64(r.NumCandidates))
	o.c.EventsTotal.WithLabelValues(o.model).Inc()
	o.c.Top1Score.WithLabelValues(o.model).Set(r.Top1Score)
}
