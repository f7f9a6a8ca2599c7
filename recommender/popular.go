package recommender

import "github.com/rushteam/streamrec/core"

// Popular 按物品累计反馈强度打分，与用户无关。
type Popular struct {
	Registry

	counts map[int]float64
}

var _ core.Recommender = (*Popular)(nil)

// NewPopular 创建流行度推荐器。
func NewPopular() *Popular {
	p := &Popular{}
	p.InitModel()
	return p
}

// InitModel 清空注册信息与计数。
func (p *Popular) InitModel() {
	p.Reset()
	p.counts = make(map[int]float64)
}

// AddUser 登记用户。
func (p *Popular) AddUser(u int) error { return p.RegisterUser(u) }

// AddItem 登记物品，初始计数为 0。
func (p *Popular) AddItem(i int) error {
	if err := p.RegisterItem(i); err != nil {
		return err
	}
	p.counts[i] = 0
	return nil
}

// Update 把反馈强度累加到物品计数。
func (p *Popular) Update(u, i int, value float64, isBatchTrain bool) error {
	if err := p.CheckPair(u, i); err != nil {
		return err
	}
	p.counts[i] += value
	return nil
}

// Score 返回候选物品的累计计数。
func (p *Popular) Score(u int, candidates []int) ([]float64, error) {
	if err := p.CheckCandidates(u, candidates); err != nil {
		return nil, err
	}
	scores := make([]float64, len(candidates))
	for k, i := range candidates {
		scores[k] = p.counts[i]
	}
	return scores, nil
}

// Recommend 按累计计数降序返回候选。
func (p *Popular) Recommend(u int, candidates []int) ([]int, []float64, error) {
	scores, err := p.Score(u, candidates)
	if err != nil {
		return nil, nil, err
	}
	ranked, rankedScores := core.RankByScore(candidates, scores)
	return ranked, rankedScores, nil
}
