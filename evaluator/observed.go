package evaluator

import "sort"

// observedTable 是 Evaluator 独占的侧表：user -> 已正反馈过的物品集合。
// 推荐器只能通过 Evaluator.Observed 读取副本。
type observedTable map[int]map[int]struct{}

func (t observedTable) add(u, i int) {
	s, ok := t[u]
	if !ok {
		s = make(map[int]struct{})
		t[u] = s
	}
	s[i] = struct{}{}
}

func (t observedTable) has(u, i int) bool {
	_, ok := t[u][i]
	return ok
}

func (t observedTable) sorted(u int) []int {
	s := t[u]
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// itemIndex 是已注册物品的有序下标集合，作为候选全集。
type itemIndex []int

// insert 插入新下标并保持升序；已存在时忽略。
func (x *itemIndex) insert(i int) {
	s := *x
	pos := sort.SearchInts(s, i)
	if pos < len(s) && s[pos] == i {
		return
	}
	s = append(s, 0)
	copy(s[pos+1:], s[pos:])
	s[pos] = i
	*x = s
}

func (x itemIndex) contains(i int) bool {
	pos := sort.SearchInts(x, i)
	return pos < len(x) && x[pos] == i
}
