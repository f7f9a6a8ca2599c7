package recommender

import (
	"math/rand/v2"

	"github.com/rushteam/streamrec/core"
)

// Random 是随机基线：每次打分都是与用户/物品无关的 [0,1) 均匀噪声，Update 不改变任何状态。
// 常用作 MPR 的参照线（期望 MPR ≈ 50）。
type Random struct {
	Registry

	seed uint64
	rng  *rand.Rand
}

var _ core.Recommender = (*Random)(nil)

// NewRandom 创建随机基线；相同 seed 在 InitModel 后产生相同的分数序列。
func NewRandom(seed uint64) *Random {
	r := &Random{seed: seed}
	r.InitModel()
	return r
}

// InitModel 清空注册信息并按 seed 重建随机源。
func (r *Random) InitModel() {
	r.Reset()
	r.rng = rand.New(rand.NewPCG(r.seed, r.seed^0x9e3779b97f4a7c15))
}

// AddUser 登记用户，随机基线没有用户参数。
func (r *Random) AddUser(u int) error { return r.RegisterUser(u) }

// AddItem 登记物品。
func (r *Random) AddItem(i int) error { return r.RegisterItem(i) }

// Update 只校验注册状态，不学习。
func (r *Random) Update(u, i int, value float64, isBatchTrain bool) error {
	return r.CheckPair(u, i)
}

// Score 为每个候选抽取一个 [0,1) 均匀分数。
func (r *Random) Score(u int, candidates []int) ([]float64, error) {
	if err := r.CheckCandidates(u, candidates); err != nil {
		return nil, err
	}
	scores := make([]float64, len(candidates))
	for k := range scores {
		scores[k] = r.rng.Float64()
	}
	return scores, nil
}

// Recommend 按随机分数降序返回候选。
func (r *Random) Recommend(u int, candidates []int) ([]int, []float64, error) {
	scores, err := r.Score(u, candidates)
	if err != nil {
		return nil, nil, err
	}
	ranked, rankedScores := core.RankByScore(candidates, scores)
	return ranked, rankedScores, nil
}
