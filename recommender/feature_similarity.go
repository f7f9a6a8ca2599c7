package recommender

import "github.com/rushteam/streamrec/core"

// FeatureSimilarity 是特征感知推荐器：
//
//	query(u, ctx) = 用户特征 + 上下文 + 已消费物品特征的均值
//	score(u, i)   = query(u, ctx) · 物品特征
//
// 向量按位相加，长度不同时较短者补 0。没有特征的物品得分为 0。
type FeatureSimilarity struct {
	Registry

	userFeature map[int][]float64
	itemFeature map[int][]float64
	profileSum  map[int][]float64
	profileN    map[int]float64
}

var _ core.FeatureRecommender = (*FeatureSimilarity)(nil)

// NewFeatureSimilarity 创建特征相似度推荐器。
func NewFeatureSimilarity() *FeatureSimilarity {
	f := &FeatureSimilarity{}
	f.InitModel()
	return f
}

// InitModel 清空注册信息、特征与用户画像。
func (f *FeatureSimilarity) InitModel() {
	f.Reset()
	f.userFeature = make(map[int][]float64)
	f.itemFeature = make(map[int][]float64)
	f.profileSum = make(map[int][]float64)
	f.profileN = make(map[int]float64)
}

// AddUser 以注册时的上下文作为用户初始特征。
func (f *FeatureSimilarity) AddUser(u int, context []float64) error {
	if err := f.RegisterUser(u); err != nil {
		return err
	}
	f.userFeature[u] = clone(context)
	return nil
}

// AddItem 登记物品并保存其初始特征。
func (f *FeatureSimilarity) AddItem(i int, feature []float64) error {
	if err := f.RegisterItem(i); err != nil {
		return err
	}
	f.itemFeature[i] = clone(feature)
	return nil
}

// UpdateUserFeature 刷新用户特征；nil 表示事件未携带特征，保留原值。
func (f *FeatureSimilarity) UpdateUserFeature(u int, feature []float64) error {
	if err := f.CheckUser(u); err != nil {
		return err
	}
	if feature != nil {
		f.userFeature[u] = clone(feature)
	}
	return nil
}

// UpdateItemFeature 刷新物品特征；nil 表示事件未携带特征，保留原值。
func (f *FeatureSimilarity) UpdateItemFeature(i int, feature []float64) error {
	if err := f.CheckItem(i); err != nil {
		return err
	}
	if feature != nil {
		f.itemFeature[i] = clone(feature)
	}
	return nil
}

// Update 把物品特征按反馈强度累加到用户画像。
func (f *FeatureSimilarity) Update(u, i int, value float64, context []float64, isBatchTrain bool) error {
	if err := f.CheckPair(u, i); err != nil {
		return err
	}
	f.profileSum[u] = addScaled(f.profileSum[u], f.itemFeature[i], value)
	f.profileN[u] += value
	return nil
}

// Score 返回 query(u, context) 与各候选物品特征的内积。
func (f *FeatureSimilarity) Score(u int, candidates []int, context []float64) ([]float64, error) {
	if err := f.CheckCandidates(u, candidates); err != nil {
		return nil, err
	}
	query := f.query(u, context)
	scores := make([]float64, len(candidates))
	for k, i := range candidates {
		scores[k] = dot(query, f.itemFeature[i])
	}
	return scores, nil
}

// Recommend 按特征内积降序返回候选。
func (f *FeatureSimilarity) Recommend(u int, candidates []int, context []float64) ([]int, []float64, error) {
	scores, err := f.Score(u, candidates, context)
	if err != nil {
		return nil, nil, err
	}
	ranked, rankedScores := core.RankByScore(candidates, scores)
	return ranked, rankedScores, nil
}

func (f *FeatureSimilarity) query(u int, context []float64) []float64 {
	q := addScaled(nil, f.userFeature[u], 1)
	q = addScaled(q, context, 1)
	if n := f.profileN[u]; n != 0 {
		q = addScaled(q, f.profileSum[u], 1/n)
	}
	return q
}

// addScaled 返回 dst + scale*src，dst 长度不足时扩展。
func addScaled(dst, src []float64, scale float64) []float64 {
	if len(dst) < len(src) {
		grown := make([]float64, len(src))
		copy(grown, dst)
		dst = grown
	}
	for k, v := range src {
		dst[k] += scale * v
	}
	return dst
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
