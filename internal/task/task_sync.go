package task

import (
	"context"
	"errors"

	"github.com/haierkeys/course-sync/internal/service"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Syncer 同步任务依赖的应用能力，*app.App 实现该接口
type Syncer interface {
	SyncFromSnapshot(ctx context.Context) (*service.SyncResult, error)
	Notify(ctx context.Context, notifiers ...service.Notifier) (int, error)
}

// SyncTask 读取快照、同步并发送通知
type SyncTask struct {
	syncer    Syncer
	schedule  cron.Schedule
	startup   bool
	notifiers []service.Notifier
	logger    *zap.Logger
}

// NewSyncTask 创建同步任务，notifiers 为空时使用应用默认的通知渠道
func NewSyncTask(syncer Syncer, schedule cron.Schedule, startup bool, lg *zap.Logger, notifiers ...service.Notifier) *SyncTask {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &SyncTask{
		syncer:    syncer,
		schedule:  schedule,
		startup:   startup,
		notifiers: notifiers,
		logger:    lg,
	}
}

// Name 返回任务名称
func (t *SyncTask) Name() string {
	return "CourseSync"
}

// Schedule 返回执行计划
func (t *SyncTask) Schedule() cron.Schedule {
	return t.schedule
}

// IsStartupRun 是否立即执行一次
func (t *SyncTask) IsStartupRun() bool {
	return t.startup
}

// Run 执行一次同步
// 下载失败时删除与已保存的变化依然有效，继续发送通知
func (t *SyncTask) Run(ctx context.Context) error {
	res, err := t.syncer.SyncFromSnapshot(ctx)
	if err != nil && !errors.Is(err, code.ErrorDownloadFailed) {
		return err
	}
	if res != nil {
		t.logger.Info("task log",
			zap.String(logger.FieldTask, t.Name()),
			zap.String(logger.FieldRunID, res.RunID),
			zap.Int(logger.FieldCount, res.Summary.Total()))
	}

	n, nerr := t.syncer.Notify(ctx, t.notifiers...)
	if nerr != nil {
		return errors.Join(err, nerr)
	}
	t.logger.Info("task log",
		zap.String(logger.FieldTask, t.Name()),
		zap.String("msg", "notified"),
		zap.Int(logger.FieldCount, n))
	return err
}
