package task

import (
	"context"
	"fmt"

	"github.com/haierkeys/course-sync/pkg/code"

	"go.uber.org/zap"
)

// Manager 任务管理器,负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	syncer    Syncer
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(syncer Syncer, lg *zap.Logger) *Manager {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Manager{
		scheduler: NewScheduler(lg),
		syncer:    syncer,
		logger:    lg,
	}
}

// RegisterTasks 注册所有任务
// expr 为同步任务的 cron 表达式，为空时同步任务只在启动时执行一次
func (m *Manager) RegisterTasks(expr string) error {
	task := NewSyncTask(m.syncer, nil, true, m.logger)
	if expr != "" {
		schedule, err := ParseSchedule(expr)
		if err != nil {
			m.logger.Error("failed to parse cron expression", zap.String("expr", expr), zap.Error(err))
			return code.ErrorInvalidParams.Wrap(fmt.Errorf("schedule %q: %w", expr, err))
		}
		task.schedule = schedule
	}
	m.scheduler.AddTask(task)
	return nil
}

// Start 启动所有已注册的任务
func (m *Manager) Start(ctx context.Context) {
	m.scheduler.Start(ctx)
}

// Wait 等待所有任务退出
func (m *Manager) Wait() {
	m.scheduler.Wait()
}
