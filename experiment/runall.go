package experiment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/streamrec/report"
)

// RunAll 并发执行多个互相独立的实验，结果与 specs 一一对应。
// maxConcurrent <= 0 表示不限制并发数。任一实验失败时取消其余实验并返回第一个错误。
func RunAll(ctx context.Context, specs []Spec, maxConcurrent int) ([]*report.Summary, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	results := make([]*report.Summary, len(specs))
	eg, egCtx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		eg.SetLimit(maxConcurrent)
	}

	for i := range specs {
		eg.Go(func() error {
			// 每个 goroutine 只写自己的下标，无需加锁
			sum, err := Run(egCtx, specs[i])
			if err != nil {
				return fmt.Errorf("experiment %q: %w", specs[i].Name, err)
			}
			results[i] = sum
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
