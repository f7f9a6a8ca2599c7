// Package dsl 提供基于 CEL（Common Expression Language）的事件过滤表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义事件变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("user", cel.StringType),
		cel.Variable("item", cel.StringType),
		cel.Variable("value", cel.DoubleType),
		cel.Variable("fields", cel.MapType(cel.StringType, cel.StringType)),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// EventFilter 是编译后的事件过滤表达式，在数据加载阶段（分配下标之前）决定是否保留一条交互。
//
// 可用变量：
//   - user / item：原始 ID（字符串）
//   - value：反馈强度
//   - fields：整行按列名索引的原始字段
//
// 示例：
//   - `value >= 4.0` → 只保留高评分交互作为正反馈
//   - `fields.rating != "0" && user != "guest"`
//   - `item.startsWith("movie:")`
type EventFilter struct {
	expr string
	prg  cel.Program
}

// NewEventFilter 编译表达式；表达式必须返回 bool。
func NewEventFilter(expr string) (*EventFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &EventFilter{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式。
func (f *EventFilter) Expr() string { return f.expr }

// Match 对一条交互求值。fields 为 nil 时按空 map 处理。
func (f *EventFilter) Match(user, item string, value float64, fields map[string]string) (bool, error) {
	if fields == nil {
		fields = map[string]string{}
	}
	out, _, err := f.prg.Eval(map[string]any{
		"user":   user,
		"item":   item,
		"value":  value,
		"fields": fields,
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}
