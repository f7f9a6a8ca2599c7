package evaluator

import "github.com/rushteam/streamrec/core"

// dispatcher 是构造时一次性选定的调用路径：普通推荐器或特征感知推荐器。
// 运行期间不再按能力分支，只走选定的那条路径。
type dispatcher interface {
	kind() string
	initModel()
	isNewUser(u int) bool
	isNewItem(i int) bool
	addUser(e core.Event) error
	addItem(e core.Event) error
	recommend(e core.Event, candidates []int) ([]int, []float64, error)
	update(e core.Event, isBatchTrain bool) error
}

// plainPath 只使用 user/item 下标。
type plainPath struct {
	rec core.Recommender
}

func (p plainPath) kind() string               { return "plain" }
func (p plainPath) initModel()                 { p.rec.InitModel() }
func (p plainPath) isNewUser(u int) bool       { return p.rec.IsNewUser(u) }
func (p plainPath) isNewItem(i int) bool       { return p.rec.IsNewItem(i) }
func (p plainPath) addUser(e core.Event) error { return p.rec.AddUser(e.User.Index) }
func (p plainPath) addItem(e core.Event) error { return p.rec.AddItem(e.Item.Index) }

func (p plainPath) recommend(e core.Event, candidates []int) ([]int, []float64, error) {
	return p.rec.Recommend(e.User.Index, candidates)
}

func (p plainPath) update(e core.Event, isBatchTrain bool) error {
	return p.rec.Update(e.User.Index, e.Item.Index, e.Value, isBatchTrain)
}

// featurePath 在每次 recommend / update 前刷新该事件的用户、物品特征。
type featurePath struct {
	rec core.FeatureRecommender
}

func (p featurePath) kind() string         { return "feature" }
func (p featurePath) initModel()           { p.rec.InitModel() }
func (p featurePath) isNewUser(u int) bool { return p.rec.IsNewUser(u) }
func (p featurePath) isNewItem(i int) bool { return p.rec.IsNewItem(i) }

func (p featurePath) addUser(e core.Event) error {
	return p.rec.AddUser(e.User.Index, e.Context)
}

func (p featurePath) addItem(e core.Event) error {
	return p.rec.AddItem(e.Item.Index, e.Item.Feature)
}

func (p featurePath) refresh(e core.Event) error {
	if err := p.rec.UpdateUserFeature(e.User.Index, e.User.Feature); err != nil {
		return err
	}
	return p.rec.UpdateItemFeature(e.Item.Index, e.Item.Feature)
}

func (p featurePath) recommend(e core.Event, candidates []int) ([]int, []float64, error) {
	if err := p.refresh(e); err != nil {
		return nil, nil, err
	}
	return p.rec.Recommend(e.User.Index, candidates, e.Context)
}

func (p featurePath) update(e core.Event, isBatchTrain bool) error {
	if err := p.refresh(e); err != nil {
		return err
	}
	return p.rec.Update(e.User.Index, e.Item.Index, e.Value, e.Context, isBatchTrain)
}
