package store

import (
	"context"
	"fmt"

	"github.com/rushteam/streamrec/core"
)

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
//
// 示例：
//   var kvStore core.KeyValueStore = NewMemoryStore()

// Open 按后端名称创建 KeyValueStore："memory"（默认）或 "redis"。
func Open(ctx context.Context, backend, addr string, db int) (core.KeyValueStore, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, addr, db)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unknown backend %q", backend))
	}
}
