package core

import "sort"

// Recommender 是增量推荐器的能力契约（普通变体，仅基于 user/item 下标）。
//
// 设计原则：
//   - 定义在领域层（core），由 recommender 包或外部算法实现
//   - Evaluator 保证只对已注册的用户/物品调用 Update/Score/Recommend
//   - 直接调用方绕过 Evaluator 时，未注册的下标必须返回 NOT_REGISTERED 错误，不得静默破坏状态
type Recommender interface {
	// InitModel 分配/重置全部可学习参数，幂等，总是回到未训练状态
	InitModel()

	// IsNewUser / IsNewItem 是纯谓词，判断下标是否尚未注册
	IsNewUser(u int) bool
	IsNewItem(i int) bool

	// AddUser / AddItem 注册新实体；重复注册返回 ALREADY_REGISTERED
	AddUser(u int) error
	AddItem(i int) error

	// Update 吸收一次观测到的交互。
	// isBatchTrain 区分离线批量训练与单事件在线更新，模型可以相同处理但必须接受该标志。
	Update(u, i int, value float64, isBatchTrain bool) error

	// Score 对候选物品打分，返回长度、顺序与 candidates 一致，分数越高越相关
	Score(u int, candidates []int) ([]float64, error)

	// Recommend 返回按分数降序排列的候选及对应分数
	Recommend(u int, candidates []int) ([]int, []float64, error)
}

// FeatureRecommender 是特征感知变体：注册、更新、打分时额外消费用户/物品特征与上下文。
type FeatureRecommender interface {
	InitModel()

	IsNewUser(u int) bool
	IsNewItem(i int) bool

	AddUser(u int, context []float64) error
	AddItem(i int, feature []float64) error

	// UpdateUserFeature / UpdateItemFeature 在打分或训练某实体前刷新其侧信息
	UpdateUserFeature(u int, feature []float64) error
	UpdateItemFeature(i int, feature []float64) error

	Update(u, i int, value float64, context []float64, isBatchTrain bool) error

	Score(u int, candidates []int, context []float64) ([]float64, error)

	Recommend(u int, candidates []int, context []float64) ([]int, []float64, error)
}

// RankByScore 将候选按分数降序排序，分数相同按物品下标升序（固定的确定性规则）。
// 返回新的切片，不修改入参。
func RankByScore(candidates []int, scores []float64) ([]int, []float64) {
	order := make([]int, len(candidates))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if sa != sb {
			return sa > sb
		}
		return candidates[order[a]] < candidates[order[b]]
	})

	ranked := make([]int, len(order))
	rankedScores := make([]float64, len(order))
	for k, idx := range order {
		ranked[k] = candidates[idx]
		rankedScores[k] = scores[idx]
	}
	return ranked, rankedScores
}

// 推荐器注册状态错误（使用统一的 DomainError）
var (
	// ErrNotRegistered 表示用户/物品尚未注册
	ErrNotRegistered = NewDomainError(ModuleRecommender, ErrorCodeNotRegistered, "recommender: entity not registered")

	// ErrAlreadyRegistered 表示用户/物品已注册
	ErrAlreadyRegistered = NewDomainError(ModuleRecommender, ErrorCodeAlreadyRegistered, "recommender: entity already registered")
)
