// Package recommender 提供实现 core.Recommender / core.FeatureRecommender 的内置增量推荐器。
//
// 内置算法：
//   - Random：随机基线，分数为独立均匀噪声
//   - Popular：物品流行度（累计反馈强度）
//   - MF：增量矩阵分解（逐事件 SGD）
//   - FeatureSimilarity：特征感知，用户画像与物品特征内积
//
// 所有推荐器单线程使用，不是并发安全的；Recommend 的并列规则统一为 core.RankByScore。
package recommender

import (
	"fmt"

	"github.com/rushteam/streamrec/core"
)

// Registry 是推荐器共用的注册簿：记录已注册的用户/物品下标。
// 具体算法嵌入 Registry 即获得 IsNewUser / IsNewItem，并在 AddUser / AddItem 中调用 Register*。
type Registry struct {
	users map[int]struct{}
	items map[int]struct{}
}

// Reset 清空所有注册信息。
func (r *Registry) Reset() {
	r.users = make(map[int]struct{})
	r.items = make(map[int]struct{})
}

// IsNewUser 报告用户 u 是否尚未注册。
func (r *Registry) IsNewUser(u int) bool {
	_, ok := r.users[u]
	return !ok
}

// IsNewItem 报告物品 i 是否尚未注册。
func (r *Registry) IsNewItem(i int) bool {
	_, ok := r.items[i]
	return !ok
}

// NumUsers 返回已注册用户数。
func (r *Registry) NumUsers() int { return len(r.users) }

// NumItems 返回已注册物品数。
func (r *Registry) NumItems() int { return len(r.items) }

// RegisterUser 登记新用户，重复登记返回 ALREADY_REGISTERED。
func (r *Registry) RegisterUser(u int) error {
	if u < 0 {
		return core.NewDomainError(core.ModuleRecommender, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommender: negative user index %d", u))
	}
	if r.users == nil {
		r.Reset()
	}
	if _, ok := r.users[u]; ok {
		return alreadyRegistered("user", u)
	}
	r.users[u] = struct{}{}
	return nil
}

// RegisterItem 登记新物品，重复登记返回 ALREADY_REGISTERED。
func (r *Registry) RegisterItem(i int) error {
	if i < 0 {
		return core.NewDomainError(core.ModuleRecommender, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommender: negative item index %d", i))
	}
	if r.items == nil {
		r.Reset()
	}
	if _, ok := r.items[i]; ok {
		return alreadyRegistered("item", i)
	}
	r.items[i] = struct{}{}
	return nil
}

// CheckUser 要求用户已注册。
func (r *Registry) CheckUser(u int) error {
	if r.IsNewUser(u) {
		return notRegistered("user", u)
	}
	return nil
}

// CheckItem 要求物品已注册。
func (r *Registry) CheckItem(i int) error {
	if r.IsNewItem(i) {
		return notRegistered("item", i)
	}
	return nil
}

// CheckPair 要求用户与物品均已注册（Update 的前置条件）。
func (r *Registry) CheckPair(u, i int) error {
	if err := r.CheckUser(u); err != nil {
		return err
	}
	return r.CheckItem(i)
}

// CheckCandidates 要求用户与全部候选物品已注册（Score 的前置条件）。
func (r *Registry) CheckCandidates(u int, candidates []int) error {
	if err := r.CheckUser(u); err != nil {
		return err
	}
	for _, i := range candidates {
		if err := r.CheckItem(i); err != nil {
			return err
		}
	}
	return nil
}

func notRegistered(kind string, index int) error {
	return core.NewDomainError(core.ModuleRecommender, core.ErrorCodeNotRegistered,
		fmt.Sprintf("recommender: %s %d not registered", kind, index))
}

func alreadyRegistered(kind string, index int) error {
	return core.NewDomainError(core.ModuleRecommender, core.ErrorCodeAlreadyRegistered,
		fmt.Sprintf("recommender: %s %d already registered", kind, index))
}
