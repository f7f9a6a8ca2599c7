// Package dataset 负责把原始交互日志转换为评估用的事件序列：
// 原始 ID → 稠密下标、可选的 CEL 过滤、按时间顺序切分 train/test/stream。
package dataset

// Indexer 在首次出现时为原始字符串 ID 分配稠密下标（0, 1, 2, ...），下标不复用。
type Indexer struct {
	index map[string]int
	ids   []string
}

// NewIndexer 创建空的 Indexer。
func NewIndexer() *Indexer {
	return &Indexer{index: make(map[string]int)}
}

// Index 返回 id 的下标，未出现过时分配新的下标。
func (x *Indexer) Index(id string) int {
	if i, ok := x.index[id]; ok {
		return i
	}
	i := len(x.ids)
	x.index[id] = i
	x.ids = append(x.ids, id)
	return i
}

// Lookup 查询已分配的下标，不分配新下标。
func (x *Indexer) Lookup(id string) (int, bool) {
	i, ok := x.index[id]
	return i, ok
}

// ID 返回下标对应的原始 ID。
func (x *Indexer) ID(i int) (string, bool) {
	if i < 0 || i >= len(x.ids) {
		return "", false
	}
	return x.ids[i], true
}

// Len 返回已分配的下标数量。
func (x *Indexer) Len() int { return len(x.ids) }
