// Package writequeue provides a serialized store write queue
// Package writequeue 提供串行化的存储写队列
// Every write against the shared store handle passes through one FIFO lane so a
// logical store operation finishes before the next one starts ("database is locked")
// 所有针对共享存储句柄的写操作都经过同一条 FIFO 通道，保证一个逻辑写操作完成后才开始下一个
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Error definitions
// 错误定义
var (
	// ErrQueueFull returned when the write queue is full
	// ErrQueueFull 当写队列已满时返回
	ErrQueueFull = errors.New("write queue is full")
	// ErrQueueClosed returned when the write queue is closed
	// ErrQueueClosed 当写队列已关闭时返回
	ErrQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when write operation timeout
	// ErrWriteTimeout 当写操作超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity pending operation capacity, default 100
	// QueueCapacity 等待中的操作容量，默认 100
	QueueCapacity int
	// WriteTimeout how long an operation may wait in the queue before it starts, default 30 seconds
	// WriteTimeout 操作开始执行前在队列中等待的最长时间，默认 30 秒
	WriteTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
	}
}

const (
	opPending int32 = iota
	opRunning
	opAbandoned
)

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
	state  atomic.Int32
}

// Queue serializes write operations in FIFO order
// Queue 按 FIFO 顺序串行执行写操作
type Queue struct {
	config Config
	logger *zap.Logger

	ch       chan *writeOp
	stopCh   chan struct{}
	workerWg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// New creates the write queue and starts its worker
// New 创建写队列并启动 worker
// cfg: configuration, if nil use default configuration
// cfg: 配置，如果为 nil 则使用默认配置
// logger: zap logger, if nil use nop logger
// logger: zap 日志器，如果为 nil 则使用 nop logger
func New(cfg *Config, logger *zap.Logger) *Queue {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 100
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		config: *cfg,
		logger: logger,
		ch:     make(chan *writeOp, cfg.QueueCapacity),
		stopCh: make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	q.workerWg.Add(1)
	go q.worker()

	q.logger.Debug("write queue started",
		zap.Int("queueCapacity", cfg.QueueCapacity),
		zap.Duration("writeTimeout", cfg.WriteTimeout))

	return q
}

// Execute runs fn on the queue worker and waits for its result
// Execute 在队列 worker 上执行 fn 并等待结果
// A timeout or cancellation only abandons an operation that has not started yet; once fn
// is running Execute waits for it, so an error return always means fn did not commit
// 超时或取消只会放弃尚未开始的操作；fn 一旦开始执行就等待其结果，返回错误时 fn 一定没有提交
func (q *Queue) Execute(ctx context.Context, fn func() error) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	result := make(chan error, 1)
	op := &writeOp{ctx: ctx, fn: fn, result: result}

	select {
	case q.ch <- op:
	default:
		return ErrQueueFull
	}

	timeout := q.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var giveUp error
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		giveUp = ctx.Err()
	case <-timer.C:
		giveUp = ErrWriteTimeout
	case <-q.ctx.Done():
		giveUp = ErrQueueClosed
	}

	if op.state.CompareAndSwap(opPending, opAbandoned) {
		return giveUp
	}
	// worker 已接手（正在执行或已回传错误），等待其结果
	return <-result
}

func (q *Queue) worker() {
	defer q.workerWg.Done()

	for {
		select {
		case <-q.stopCh:
			q.drain()
			return
		case op := <-q.ch:
			q.executeOp(op)
		}
	}
}

func (q *Queue) executeOp(op *writeOp) {
	// 调用方的 ctx 已结束，由 worker 放弃并回传错误
	if err := op.ctx.Err(); err != nil {
		if op.state.CompareAndSwap(opPending, opAbandoned) {
			op.result <- err
		}
		return
	}
	// 调用方已放弃的操作不再执行
	if !op.state.CompareAndSwap(opPending, opRunning) {
		return
	}

	op.result <- op.fn()
}

func (q *Queue) drain() {
	for {
		select {
		case op := <-q.ch:
			q.executeOp(op)
		default:
			return
		}
	}
}

// Shutdown stops accepting operations and waits for queued ones to finish
// Shutdown 停止接收新操作，并等待已排队操作完成
// ctx is used to control shutdown timeout
// ctx 用于控制关闭超时
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	close(q.stopCh)

	done := make(chan struct{})
	go func() {
		q.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Debug("write queue shutdown completed")
		return nil
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("write queue shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}

// QueuedCount returns number of operations waiting in the queue
// QueuedCount 返回队列中等待的操作数
func (q *Queue) QueuedCount() int {
	return len(q.ch)
}

// IsClosed returns if the queue is closed
// IsClosed 返回队列是否已关闭
func (q *Queue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
