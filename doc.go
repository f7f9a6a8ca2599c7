// Package streamrec 是一个面向正反馈数据的增量推荐评估工具包。
//
// 设计要点：
// - Evaluate-first: 每个事件先打分、再计算排名、最后才吸收进模型状态，杜绝信息泄漏
// - Capability-dispatch: 普通推荐器与特征感知推荐器在构造时一次性选定调用路径
// - Config-driven: 推荐器按类型名注册，实验通过 YAML/JSON 配置组合
package streamrec

import (
	"github.com/rushteam/streamrec/core"
	"github.com/rushteam/streamrec/evaluator"
)

// 轻量 facade：便于用户直接 import "streamrec" 使用核心抽象。
type Event = core.Event
type User = core.User
type Item = core.Item
type Recommender = core.Recommender
type FeatureRecommender = core.FeatureRecommender
type Evaluator = evaluator.Evaluator
type Result = evaluator.Result

// NewEvent 创建一个不带特征的事件。
func NewEvent(user, item int, value float64) Event { return core.NewEvent(user, item, value) }

// NewEvaluator 按推荐器能力创建 Evaluator，见 evaluator.New。
func NewEvaluator(rec any, opts ...evaluator.Option) (*Evaluator, error) {
	return evaluator.New(rec, opts...)
}
