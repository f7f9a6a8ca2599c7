package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/streamrec/core"
	"github.com/rushteam/streamrec/evaluator"
)

// Record 是持久化的单事件结果。
type Record struct {
	Seq           int     `json:"seq"`
	User          int     `json:"user"`
	Item          int     `json:"item"`
	Rank          int     `json:"rank"`
	Percentile    float64 `json:"percentile"`
	NumCandidates int     `json:"num_candidates"`
	Top1Score     float64 `json:"top1_score"`
	RecommendNs   int64   `json:"recommend_ns"`
	UpdateNs      int64   `json:"update_ns"`
}

// StoreSink 把一次运行的结果写入 KeyValueStore：
//
//	{prefix}:run:{runID}:event:{seq}  逐事件 JSON 记录（按批 BatchSet）
//	{prefix}:run:{runID}              运行元数据（Hash）
//	{prefix}:leaderboard              排行榜（ZSet，score = 100 - MPR，降序即最优在前）
//
// StoreSink 不是并发安全的，每个运行独占一个。
type StoreSink struct {
	store     core.KeyValueStore
	prefix    string
	runID     string
	batchSize int
	ttl       []int

	seq     int
	pending map[string][]byte
}

// SinkOption 配置 StoreSink。
type SinkOption func(*StoreSink)

// WithBatchSize 设置逐事件记录的批量写入大小（默认 256）。
func WithBatchSize(n int) SinkOption {
	return func(s *StoreSink) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithTTL 设置逐事件记录的过期时间（秒）。元数据与排行榜不过期。
func WithTTL(seconds int) SinkOption {
	return func(s *StoreSink) {
		if seconds > 0 {
			s.ttl = []int{seconds}
		}
	}
}

func NewStoreSink(store core.KeyValueStore, prefix, runID string, opts ...SinkOption) *StoreSink {
	s := &StoreSink{
		store:     store,
		prefix:    prefix,
		runID:     runID,
		batchSize: 256,
		pending:   make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunKey 返回运行元数据的 key。
func (s *StoreSink) RunKey() string { return RunKey(s.prefix, s.runID) }

// EventKey 返回第 seq 个事件记录的 key。
func (s *StoreSink) EventKey(seq int) string {
	return s.RunKey() + ":event:" + strconv.Itoa(seq)
}

// Write 缓存一条结果，达到批量大小时写入存储。
func (s *StoreSink) Write(ctx context.Context, r evaluator.Result) error {
	rec := Record{
		Seq:           s.seq,
		User:          r.User,
		Item:          r.Item,
		Rank:          r.Rank,
		Percentile:    r.Percentile(),
		NumCandidates: r.NumCandidates,
		Top1Score:     r.Top1Score,
		RecommendNs:   r.RecommendTime.Nanoseconds(),
		UpdateNs:      r.UpdateTime.Nanoseconds(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %d: %w", s.seq, err)
	}
	s.pending[s.EventKey(s.seq)] = data
	s.seq++

	if len(s.pending) >= s.batchSize {
		return s.Flush(ctx)
	}
	return nil
}

// Flush 写入所有缓存的记录。
func (s *StoreSink) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.store.BatchSet(ctx, s.pending, s.ttl...); err != nil {
		return fmt.Errorf("flush %d records: %w", len(s.pending), err)
	}
	s.pending = make(map[string][]byte)
	return nil
}

// Finish 写入剩余记录、运行元数据，并更新排行榜。
// 没有评估任何事件的运行 MPR 无意义，只写元数据，不进入排行榜。
func (s *StoreSink) Finish(ctx context.Context, sum *Summary, meta map[string]string) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}

	fields := map[string]string{
		"run_id":            s.runID,
		"model":             sum.Model,
		"count":             strconv.Itoa(sum.Count()),
		"mpr":               formatFloat(sum.MPR()),
		"mean_rank":         formatFloat(sum.MeanRank()),
		"top_n":             strconv.Itoa(sum.TopN),
		"recall":            formatFloat(sum.Recall()),
		"mean_recommend_ns": strconv.FormatInt(sum.MeanRecommendTime().Nanoseconds(), 10),
		"mean_update_ns":    strconv.FormatInt(sum.MeanUpdateTime().Nanoseconds(), 10),
		"finished_at":       time.Now().UTC().Format(time.RFC3339),
	}
	if mprs, err := json.Marshal(sum.BatchMPRs); err == nil {
		fields["batch_mprs"] = string(mprs)
	}
	for k, v := range meta {
		fields[k] = v
	}

	key := s.RunKey()
	for field, value := range fields {
		if err := s.store.HSet(ctx, key, field, []byte(value)); err != nil {
			return fmt.Errorf("write run metadata %s: %w", field, err)
		}
	}

	if sum.Count() == 0 {
		return nil
	}
	if err := s.store.ZAdd(ctx, LeaderboardKey(s.prefix), 100-sum.MPR(), s.runID); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	return nil
}

// Entry 是排行榜上的一次运行。
type Entry struct {
	RunID string
	Model string
	MPR   float64
}

// Leaderboard 返回 MPR 最低（最好）的前 n 次运行。
func Leaderboard(ctx context.Context, store core.KeyValueStore, prefix string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	runIDs, err := store.ZRange(ctx, LeaderboardKey(prefix), 0, int64(n-1))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(runIDs))
	for _, id := range runIDs {
		score, err := store.ZScore(ctx, LeaderboardKey(prefix), id)
		if err != nil {
			return nil, err
		}
		e := Entry{RunID: id, MPR: 100 - score}
		if model, err := store.HGet(ctx, RunKey(prefix, id), "model"); err == nil {
			e.Model = string(model)
		} else if !core.IsStoreNotFound(err) {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadRecord 读取一条逐事件记录。
func LoadRecord(ctx context.Context, store core.Store, key string) (Record, error) {
	var rec Record
	data, err := store.Get(ctx, key)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	return rec, nil
}

func RunKey(prefix, runID string) string { return prefix + ":run:" + runID }

func LeaderboardKey(prefix string) string { return prefix + ":leaderboard" }

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', 4, 64) }
