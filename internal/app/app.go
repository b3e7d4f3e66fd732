// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/haierkeys/course-sync/internal/dao"
	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/internal/dto"
	"github.com/haierkeys/course-sync/internal/service"
	"github.com/haierkeys/course-sync/internal/upgrade"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/fileurl"
	"github.com/haierkeys/course-sync/pkg/logger"
	"github.com/haierkeys/course-sync/pkg/validator"
	"github.com/haierkeys/course-sync/pkg/workerpool"
	"github.com/haierkeys/course-sync/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	workerPool *workerpool.Pool
	writeQueue *writequeue.Queue

	Validator *validator.Validator
	Metrics   *service.SyncMetrics

	// Repository 层
	FileRepo domain.FileRepository

	// Service 层
	StateService    service.StateService
	SyncService     service.SyncService
	DatabaseService service.DatabaseService

	downloader service.Downloader

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// Option 应用容器选项
type Option func(*App)

// WithDownloader 使用自定义下载器，download-files 为 false 时仍只记录状态
func WithDownloader(d service.Downloader) Option {
	return func(a *App) {
		a.downloader = d
	}
}

// OpenStore 打开状态库并升级到当前结构
// 所有错误都可以用 errors.Is(err, dao.ErrStoreInit) 判断
func OpenStore(ctx context.Context, cfg *AppConfig, lg *zap.Logger) (*gorm.DB, error) {
	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), lg)
	if err != nil {
		return nil, code.ErrorStoreInit.Wrap(err)
	}
	if err := upgrade.Execute(ctx, db, lg); err != nil {
		if sqlDB, cerr := db.DB(); cerr == nil {
			_ = sqlDB.Close()
		}
		return nil, code.ErrorStoreInit.Wrap(fmt.Errorf("%w: %w", dao.ErrStoreInit, err))
	}
	return db, nil
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 已升级的数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	v, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}
	a.Validator = v

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueue = writequeue.New(&wqConfig, logger)

	a.Dao = dao.New(db, logger)
	a.FileRepo = dao.NewFileRepository(a.Dao)

	if a.downloader == nil || !cfg.ShouldDownloadFiles() {
		a.downloader = &service.RecordOnlyDownloader{Root: cfg.DownloadRoot()}
	}

	a.Metrics = service.NewSyncMetrics()
	a.StateService = service.NewStateService(a.FileRepo, a.writeQueue, logger)
	a.SyncService = service.NewSyncService(a.StateService, a.downloader, a.workerPool, cfg.GetSyncConfig(), logger,
		service.WithMetrics(a.Metrics))
	a.DatabaseService = service.NewDatabaseService(a.StateService, logger)

	return a, nil
}

// Config 返回应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 返回日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// SyncFromSnapshot 读取配置中的快照文件并执行一次同步
func (a *App) SyncFromSnapshot(ctx context.Context) (*service.SyncResult, error) {
	if a.IsShuttingDown() {
		return nil, writequeue.ErrQueueClosed
	}
	done := a.TrackOperation()
	defer done()

	defer a.writeMetrics()

	courses, err := dto.LoadSnapshot(a.config.SnapshotPath(), a.Validator)
	if err != nil {
		return nil, err
	}
	return a.SyncService.Run(ctx, courses)
}

// Notify 发送未通知的变化，nil 时使用日志通知
func (a *App) Notify(ctx context.Context, notifiers ...service.Notifier) (int, error) {
	if len(notifiers) == 0 {
		notifiers = []service.Notifier{&service.LogNotifier{Logger: a.logger}}
	}
	done := a.TrackOperation()
	defer done()
	defer a.writeMetrics()
	return a.SyncService.Notify(ctx, notifiers...)
}

// writeMetrics 配置了 metrics-file 时写出指标
func (a *App) writeMetrics() {
	path := a.config.MetricsPath()
	if path == "" {
		return
	}
	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		a.logger.Warn("metrics dir create failed", zap.String(logger.FieldPath, path), zap.Error(err))
		return
	}
	if err := a.Metrics.WriteToTextfile(path); err != nil {
		a.logger.Warn("metrics write failed", zap.String(logger.FieldPath, path), zap.Error(err))
	}
}

// Close 释放数据库连接
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> Write Queue -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		return nil
	default:
		close(a.shutdownCh)
	}
	a.logger.Debug("app container shutting down")

	var errs []error

	// 1. 等待进行中的同步与通知
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 2. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		}
	}

	// 3. 关闭 Write Queue（排空队列）
	if a.writeQueue != nil {
		if err := a.writeQueue.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue shutdown: %w", err))
		}
	}

	// 4. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}
	a.logger.Debug("app container shutdown completed")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
