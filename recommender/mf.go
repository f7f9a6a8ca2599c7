package recommender

import (
	"math/rand/v2"

	"github.com/rushteam/streamrec/core"
)

// MFConfig 是增量矩阵分解的超参数。
type MFConfig struct {
	Factors    int     // 隐向量维度，默认 40
	LearnRate  float64 // SGD 学习率，默认 0.003
	Reg        float64 // L2 正则，默认 0.01
	InitStdDev float64 // 隐向量初始化标准差，默认 0.1
	Seed       uint64  // 初始化随机种子
}

func (c MFConfig) withDefaults() MFConfig {
	if c.Factors <= 0 {
		c.Factors = 40
	}
	if c.LearnRate <= 0 {
		c.LearnRate = 0.003
	}
	if c.Reg <= 0 {
		c.Reg = 0.01
	}
	if c.InitStdDev <= 0 {
		c.InitStdDev = 0.1
	}
	return c
}

// MF 是基于正反馈的增量矩阵分解（Incremental SGD）。
//
// 核心思想：预测分数 = 用户隐向量 · 物品隐向量；
// 每观测到一次交互 (u, i, v)，对误差 v - p_u·q_i 做一步 SGD。
//
// 工程特征：
//   - 新用户/物品注册时按 N(0, InitStdDev²) 初始化隐向量
//   - 批量训练与在线更新使用同一步更新（isBatchTrain 仅被接受）
//   - 相同 Seed 下完全确定
type MF struct {
	Registry

	cfg MFConfig
	rng *rand.Rand
	P   map[int][]float64 // 用户隐向量
	Q   map[int][]float64 // 物品隐向量
}

var _ core.Recommender = (*MF)(nil)

// NewMF 用补齐默认值后的超参数创建 MF。
func NewMF(cfg MFConfig) *MF {
	m := &MF{cfg: cfg.withDefaults()}
	m.InitModel()
	return m
}

// Config 返回补齐默认值后的超参数。
func (m *MF) Config() MFConfig { return m.cfg }

// InitModel 丢弃全部隐向量，并按 Seed 重建随机源。
func (m *MF) InitModel() {
	m.Reset()
	m.rng = rand.New(rand.NewPCG(m.cfg.Seed, m.cfg.Seed+1))
	m.P = make(map[int][]float64)
	m.Q = make(map[int][]float64)
}

// AddUser 登记用户并随机初始化其隐向量。
func (m *MF) AddUser(u int) error {
	if err := m.RegisterUser(u); err != nil {
		return err
	}
	m.P[u] = m.initVector()
	return nil
}

// AddItem 登记物品并随机初始化其隐向量。
func (m *MF) AddItem(i int) error {
	if err := m.RegisterItem(i); err != nil {
		return err
	}
	m.Q[i] = m.initVector()
	return nil
}

func (m *MF) initVector() []float64 {
	v := make([]float64, m.cfg.Factors)
	for k := range v {
		v[k] = m.rng.NormFloat64() * m.cfg.InitStdDev
	}
	return v
}

// Update 对 (u, i, value) 做一步 SGD。
func (m *MF) Update(u, i int, value float64, isBatchTrain bool) error {
	if err := m.CheckPair(u, i); err != nil {
		return err
	}
	p, q := m.P[u], m.Q[i]
	err := value - dot(p, q)
	lr, reg := m.cfg.LearnRate, m.cfg.Reg
	for k := range p {
		pk, qk := p[k], q[k]
		p[k] += lr * (err*qk - reg*pk)
		q[k] += lr * (err*pk - reg*qk)
	}
	return nil
}

// Score 返回用户隐向量与各候选物品隐向量的内积。
func (m *MF) Score(u int, candidates []int) ([]float64, error) {
	if err := m.CheckCandidates(u, candidates); err != nil {
		return nil, err
	}
	p := m.P[u]
	scores := make([]float64, len(candidates))
	for k, i := range candidates {
		scores[k] = dot(p, m.Q[i])
	}
	return scores, nil
}

// Recommend 按内积降序返回候选。
func (m *MF) Recommend(u int, candidates []int) ([]int, []float64, error) {
	scores, err := m.Score(u, candidates)
	if err != nil {
		return nil, nil, err
	}
	ranked, rankedScores := core.RankByScore(candidates, scores)
	return ranked, rankedScores, nil
}

// dot 计算两个向量的点积，长度不同时按较短者截断（缺失维度视为 0）。
func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for k := 0; k < n; k++ {
		sum += a[k] * b[k]
	}
	return sum
}
