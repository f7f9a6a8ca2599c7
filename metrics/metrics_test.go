package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/rushteam/streamrec/evaluator"
)

// getHistogramCount 读取单个 histogram 的样本数
func getHistogramCount(t *testing.T, h prometheus.Observer) uint64 {
	t.Helper()
	m, ok := h.(prometheus.Metric)
	if !ok {
		t.Fatalf("%T is not a prometheus.Metric", h)
	}
	var out io_prometheus_client.Metric
	if err := m.Write(&out); err != nil {
		t.Fatal(err)
	}
	return out.GetHistogram().GetSampleCount()
}

func TestCollector_ObserveResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	obs := c.ForModel("mf")

	obs.ObserveResult(evaluator.Result{
		Top1Score:     0.8,
		Rank:          2,
		NumCandidates: 5,
		RecommendTime: 3 * time.Millisecond,
		UpdateTime:    time.Millisecond,
	})
	obs.ObserveResult(evaluator.Result{Rank: 0, NumCandidates: 1, Top1Score: 0.1})

	if got := testutil.ToFloat64(c.EventsTotal.WithLabelValues("mf")); got != 2 {
		t.Errorf("events_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Top1Score.WithLabelValues("mf")); got != 0.1 {
		t.Errorf("top1_score = %v, want 0.1", got)
	}
	if got := getHistogramCount(t, c.RankPercentile.WithLabelValues("mf")); got != 2 {
		t.Errorf("rank_percentile count = %d, want 2", got)
	}
	// 其他 model 标签互不影响
	if got := testutil.ToFloat64(c.EventsTotal.WithLabelValues("random")); got != 0 {
		t.Errorf("events_total{model=random} = %v, want 0", got)
	}
}

func TestCollector_ObserveEpoch(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	obs := c.ForModel("popular")

	obs.ObserveEpoch(0, 42.5)
	obs.ObserveEpoch(1, 30)

	if got := testutil.ToFloat64(c.BatchMPR.WithLabelValues("popular", "0")); got != 42.5 {
		t.Errorf("batch_mpr{epoch=0} = %v, want 42.5", got)
	}
	if got := testutil.ToFloat64(c.BatchMPR.WithLabelValues("popular", "1")); got != 30 {
		t.Errorf("batch_mpr{epoch=1} = %v, want 30", got)
	}
	if n := testutil.CollectAndCount(c.BatchMPR); n != 2 {
		t.Errorf("batch_mpr series = %d, want 2", n)
	}
}
