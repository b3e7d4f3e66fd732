package service

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/internal/reconcile"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/logger"
	"github.com/haierkeys/course-sync/pkg/workerpool"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SyncResult 一次同步的结果
type SyncResult struct {
	RunID   string
	Changes []*domain.Course
	Summary reconcile.Summary
}

// SyncService 同步流程业务服务接口
type SyncService interface {
	// Run 比较已存储状态与 current，预先标记删除，下载并保存其余变化
	// 并发调用共享正在执行的那一次同步的结果
	Run(ctx context.Context, current []*domain.Course) (*SyncResult, error)
	// Notify 将未通知的变化发送到所有渠道，全部成功后才标记为已通知
	Notify(ctx context.Context, notifiers ...Notifier) (int, error)
}

type syncService struct {
	state      StateService
	downloader Downloader
	pool       *workerpool.Pool
	config     SyncConfig
	logger     *zap.Logger
	metrics    *SyncMetrics
	sf         singleflight.Group
}

// SyncOption SyncService 选项
type SyncOption func(*syncService)

// WithMetrics 记录同步指标
func WithMetrics(m *SyncMetrics) SyncOption {
	return func(s *syncService) {
		s.metrics = m
	}
}

// NewSyncService 创建 SyncService，pool 为 nil 时下载在当前 goroutine 中依次执行
func NewSyncService(state StateService, downloader Downloader, pool *workerpool.Pool, cfg SyncConfig, lg *zap.Logger, opts ...SyncOption) SyncService {
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &syncService{
		state:      state,
		downloader: downloader,
		pool:       pool,
		config:     cfg,
		logger:     lg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *syncService) Run(ctx context.Context, current []*domain.Course) (*SyncResult, error) {
	v, err, shared := s.sf.Do("sync", func() (any, error) {
		return s.run(ctx, current)
	})
	if shared {
		s.logger.Debug("sync coalesced with a run in progress")
	}
	res, _ := v.(*SyncResult)
	return res, err
}

func (s *syncService) run(ctx context.Context, current []*domain.Course) (res *SyncResult, err error) {
	start := time.Now()
	res = &SyncResult{RunID: uuid.New().String()}
	lg := s.logger.With(zap.String(logger.FieldRunID, res.RunID))
	defer func() {
		s.metrics.observeRun(res.Summary, time.Since(start), err)
	}()

	stored, err := s.state.GetStoredFiles(ctx)
	if err != nil {
		return res, err
	}

	res.Changes = reconcile.Changes(s.config.FilterStored(stored), s.config.Prepare(current))
	res.Summary = reconcile.Summarize(res.Changes)
	lg.Info("changes detected",
		zap.Int("new", res.Summary.New),
		zap.Int("modified", res.Summary.Modified),
		zap.Int("moved", res.Summary.Moved),
		zap.Int("deleted", res.Summary.Deleted))

	// 先标记删除，跳过下载时后续的通知查询也能看到删除状态
	if err := s.state.BatchDeleteFiles(ctx, res.Changes); err != nil {
		return res, err
	}

	if err := s.download(ctx, lg, res.Changes); err != nil {
		return res, err
	}

	lg.Info("sync finished",
		zap.Int(logger.FieldCount, res.Summary.Total()),
		zap.Duration(logger.FieldDuration, time.Since(start)))
	return res, nil
}

func (s *syncService) download(ctx context.Context, lg *zap.Logger, changes []*domain.Course) error {
	task := func(c *domain.Course, f *domain.File) func(context.Context) error {
		return func(ctx context.Context) error {
			if err := s.downloader.Download(ctx, c, f); err != nil {
				s.metrics.downloadFailed()
				lg.Warn("download failed",
					zap.Int64(logger.FieldCourseID, c.ID),
					zap.String(logger.FieldPath, f.ContentFilepath+f.ContentFilename),
					zap.Error(err))
				return code.ErrorDownloadFailed.Wrap(err)
			}
			return s.state.SaveFile(ctx, c.ID, c.Fullname, f)
		}
	}

	if s.pool == nil {
		var errs []error
		for _, c := range changes {
			for _, f := range c.Files {
				if f.Deleted {
					continue
				}
				if err := ctx.Err(); err != nil {
					return errors.Join(append(errs, err)...)
				}
				if err := task(c, f)(ctx); err != nil {
					errs = append(errs, err)
				}
			}
		}
		return errors.Join(errs...)
	}

	batch := s.pool.NewBatch(ctx)
	for _, c := range changes {
		for _, f := range c.Files {
			if f.Deleted {
				continue
			}
			batch.Go(task(c, f))
		}
	}
	return batch.Wait()
}

func (s *syncService) Notify(ctx context.Context, notifiers ...Notifier) (int, error) {
	changes, err := s.state.ChangesToNotify(ctx)
	if err != nil {
		return 0, err
	}
	n := domain.CountFiles(changes)
	if n == 0 {
		return 0, nil
	}

	var errs []error
	for _, notifier := range notifiers {
		if err := notifier.Notify(ctx, changes); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		// 任一渠道失败都保留 notified=0，下次重新发送
		return 0, code.ErrorNotifyFailed.Wrap(errors.Join(errs...))
	}

	if err := s.state.Notified(ctx, changes); err != nil {
		return 0, err
	}
	s.metrics.observeNotified(n)
	s.logger.Info("changes notified", zap.Int(logger.FieldCount, n))
	return n, nil
}
