package workerpool

import (
	"context"
	"errors"
	"sync"
)

// Batch 在 Pool 上运行一组任务并收集全部错误
// 队列已满时任务在调用方 goroutine 中直接执行，形成反压
type Batch struct {
	pool *Pool
	ctx  context.Context

	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

// NewBatch 创建绑定到 ctx 的任务批次
func (p *Pool) NewBatch(ctx context.Context) *Batch {
	return &Batch{pool: p, ctx: ctx}
}

// Go 提交一个任务
func (b *Batch) Go(fn func(context.Context) error) {
	b.wg.Add(1)
	run := func(context.Context) error {
		defer b.wg.Done()
		if err := b.ctx.Err(); err != nil {
			b.record(err)
			return nil
		}
		b.record(fn(b.ctx))
		return nil
	}

	// 任务本身检查 b.ctx，提交时不绑定 ctx，保证每个任务都会执行 Done
	err := b.pool.SubmitAsync(context.Background(), run)
	switch {
	case err == nil:
	case errors.Is(err, ErrPoolFull):
		_ = run(b.ctx)
	default:
		b.wg.Done()
		b.record(err)
	}
}

// Wait 等待所有任务结束，返回合并后的错误
func (b *Batch) Wait() error {
	b.wg.Wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.errs...)
}

func (b *Batch) record(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	b.errs = append(b.errs, err)
	b.mu.Unlock()
}
