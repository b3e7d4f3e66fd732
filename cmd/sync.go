package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalApp "github.com/haierkeys/course-sync/internal/app"
	"github.com/haierkeys/course-sync/internal/task"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/logger"

	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type syncFlags struct {
	withoutDownloading bool   // Only record state, skip downloads // 只记录状态不下载
	skipNotify         bool   // Do not send notifications // 不发送通知
	watch              bool   // Re-sync when the snapshot file changes // 快照文件变化时重新同步
	cron               string // Cron expression, overrides sync.schedule // 定时表达式，覆盖 sync.schedule
	daemon             bool   // Keep running with sync.schedule // 按 sync.schedule 常驻运行
}

func init() {
	syncEnv := new(syncFlags)

	var syncCommand = &cobra.Command{
		Use:   "sync [-c config_file] [--watch] [--cron expr]",
		Short: "Detect course changes from the snapshot and record them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootApp(cmd.Context(), cmd, func(cfg *internalApp.AppConfig) {
				if syncEnv.withoutDownloading {
					off := false
					cfg.Sync.DownloadFiles = &off
				}
				if syncEnv.cron != "" {
					cfg.Sync.Schedule = syncEnv.cron
				}
			})
			if err != nil {
				bootstrapLogger.Error("app init failed", zap.Error(err))
				return err
			}

			if syncEnv.watch || syncEnv.daemon || syncEnv.cron != "" {
				return runDaemon(a, syncEnv)
			}
			return runOnce(cmd.Context(), a, syncEnv)
		},
	}

	rootCmd.AddCommand(syncCommand)
	fs := syncCommand.Flags()
	fs.BoolVar(&syncEnv.withoutDownloading, "without-downloading-files", false, "record changes without downloading files")
	fs.BoolVar(&syncEnv.skipNotify, "skip-notify", false, "do not send notifications after syncing")
	fs.BoolVarP(&syncEnv.watch, "watch", "w", false, "sync again whenever the snapshot file is written")
	fs.StringVar(&syncEnv.cron, "cron", "", "cron expression for periodic syncing, e.g. \"@every 30m\"")
	fs.BoolVarP(&syncEnv.daemon, "daemon", "d", false, "keep running and sync on sync.schedule")
}

// runOnce 执行一次同步和通知后退出
func runOnce(ctx context.Context, a *internalApp.App, env *syncFlags) error {
	defer shutdownApp(a)

	res, err := a.SyncFromSnapshot(ctx)
	if err != nil && !errors.Is(err, code.ErrorDownloadFailed) {
		return err
	}
	if res != nil {
		fmt.Printf("run %s: %d new, %d modified, %d moved, %d deleted\n",
			res.RunID, res.Summary.New, res.Summary.Modified, res.Summary.Moved, res.Summary.Deleted)
	}

	if env.skipNotify {
		return err
	}
	n, nerr := a.Notify(ctx)
	if nerr != nil {
		return nerr
	}
	fmt.Printf("%d changes notified\n", n)
	return err
}

// runDaemon 按计划或快照变化持续同步，收到退出信号后优雅关闭
func runDaemon(a *internalApp.App, env *syncFlags) error {
	lg := a.Logger()

	quit, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := task.NewManager(a, lg)
	if err := m.RegisterTasks(a.Config().Sync.Schedule); err != nil {
		shutdownApp(a)
		return err
	}
	m.Start(quit)

	var w *watcher.Watcher
	if env.watch {
		w = watcher.New()

		// Set MaxEvents to 1 to receive at most 1 event in each listening cycle
		// 将 SetMaxEvents 设置为 1，以便在每个监听周期中至多接收 1 个事件
		w.SetMaxEvents(1)

		// Only notify write events.
		// 只通知写入事件。
		w.FilterOps(watcher.Write)

		onChange := task.NewSyncTask(a, nil, false, lg)
		go func() {
			for {
				select {
				case event := <-w.Event:
					lg.Info("snapshot watcher change", zap.String("event", event.Op.String()), zap.String(logger.FieldPath, event.Path))
					if err := onChange.Run(quit); err != nil {
						lg.Error("snapshot sync failed", zap.Error(err))
					}
				case err := <-w.Error:
					lg.Error("snapshot watcher error", zap.Error(err))
				case <-w.Closed:
					lg.Info("snapshot watcher closed")
					return
				}
			}
		}()

		// 监听快照文件
		if err := w.Add(a.Config().SnapshotPath()); err != nil {
			lg.Error("snapshot watcher file error", zap.Error(err))
		}

		go func() {
			if err := w.Start(time.Second * 5); err != nil {
				lg.Error("snapshot watcher start error", zap.Error(err))
			}
		}()
	}

	<-quit.Done()
	lg.Info("Received shutdown signal, initiating graceful shutdown...")
	if w != nil {
		w.Close()
	}
	m.Wait()
	shutdownApp(a)
	lg.Info("Service has been shut down gracefully.")
	return nil
}

func shutdownApp(a *internalApp.App) {
	ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	_ = a.Logger().Sync()
}
