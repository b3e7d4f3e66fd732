// Package task 定时任务调度
package task

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/course-sync/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	Schedule() cron.Schedule       // 执行计划，nil 时只执行启动那一次
	IsStartupRun() bool            // 是否立即执行一次
}

// ParseSchedule 解析五段 cron 表达式，也支持 @every 1h、@daily 等描述符
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(expr)
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	wg     sync.WaitGroup
}

// NewScheduler 创建任务调度器
func NewScheduler(lg *zap.Logger) *Scheduler {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Scheduler{
		logger: lg,
		tasks:  make([]Task, 0),
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Len 已添加的任务数量
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Start 启动所有任务，ctx 取消后任务循环退出
func (s *Scheduler) Start(ctx context.Context) {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int(logger.FieldCount, len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
}

// Wait 等待所有任务循环退出
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	// 同一任务的执行互不重叠，启动执行结束后才进入定时循环
	if task.IsStartupRun() {
		s.run(ctx, task, "startupRun")
	}

	schedule := task.Schedule()
	if schedule == nil {
		return
	}

	for {
		next := schedule.Next(time.Now())
		if next.IsZero() {
			return
		}
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			s.run(ctx, task, "loopRun")
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("task stopped", zap.String(logger.FieldTask, task.Name()))
			return
		}
	}
}

func (s *Scheduler) run(ctx context.Context, task Task, kind string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String(logger.FieldTask, task.Name()),
				zap.String("type", kind),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	if ctx.Err() != nil {
		return
	}

	s.logger.Info("task running", zap.String(logger.FieldTask, task.Name()), zap.String("type", kind))
	if err := task.Run(ctx); err != nil {
		s.logger.Error("task running error",
			zap.String(logger.FieldTask, task.Name()),
			zap.String("type", kind),
			zap.Error(err))
	}
}
