package core

// User 是交互中的用户实体。
// Index 是首次出现时分配的稠密非负整数，单调递增、不复用。
// Feature 仅对特征感知推荐器（FeatureRecommender）有意义。
type User struct {
	Index   int
	Feature []float64
}

// Item 是交互中的物品实体，语义同 User。
type Item struct {
	Index   int
	Feature []float64
}

// Event 是一次正反馈交互（user, item, value, context）。
//
// Value 是隐式反馈强度（通常为常数 1）；Context 是可选的上下文向量，
// 仅对特征感知推荐器有意义。Event 创建后不可变，按输入顺序处理。
type Event struct {
	User    User
	Item    Item
	Value   float64
	Context []float64
}

// NewEvent 创建一个不带特征的事件。
func NewEvent(userIndex, itemIndex int, value float64) Event {
	return Event{
		User:  User{Index: userIndex},
		Item:  Item{Index: itemIndex},
		Value: value,
	}
}

// WithContext 返回携带上下文向量的事件副本。
func (e Event) WithContext(context []float64) Event {
	e.Context = cloneVector(context)
	return e
}

// WithFeatures 返回携带用户/物品特征的事件副本。
func (e Event) WithFeatures(userFeature, itemFeature []float64) Event {
	e.User.Feature = cloneVector(userFeature)
	e.Item.Feature = cloneVector(itemFeature)
	return e
}

func cloneVector(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
