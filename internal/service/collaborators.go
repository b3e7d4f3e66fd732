package service

import (
	"context"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/logger"
	"github.com/haierkeys/course-sync/pkg/util"

	"go.uber.org/zap"
)

// Downloader 下载单个文件并设置 SavedTo 与 TimeStamp
// 每个文件在各自的任务中调用，实现需要支持并发
type Downloader interface {
	Download(ctx context.Context, course *domain.Course, f *domain.File) error
}

// Notifier 通知渠道
type Notifier interface {
	Notify(ctx context.Context, courses []*domain.Course) error
}

// RecordOnlyDownloader 只记录状态不传输内容（--without-downloading-files）
// SavedTo 按课程名、可选的章节目录与 content_filepath 计算
type RecordOnlyDownloader struct {
	Root string
}

func (d *RecordOnlyDownloader) Download(ctx context.Context, course *domain.Course, f *domain.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.SavedTo = SavePath(d.Root, course, f)
	f.TimeStamp = util.UnixNow()
	return nil
}

// SavePath 计算文件的本地保存路径
// 课程名、章节名与文件名各自只占一级目录，只有 content_filepath 会展开为多级
func SavePath(root string, course *domain.Course, f *domain.File) string {
	dirs := []string{util.SanitizePathSegment(course.DisplayName())}
	if course.CreateDirectoryStructure {
		dirs = append(dirs, util.SanitizePathSegment(f.SectionName))
	}
	dirs = append(dirs, f.ContentFilepath, util.SanitizePathSegment(f.ContentFilename))
	return util.JoinContentPath(root, dirs...)
}

// LogNotifier 将变化写入日志
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, courses []*domain.Course) error {
	lg := n.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	for _, c := range courses {
		for _, f := range c.Files {
			fields := []zap.Field{
				zap.Int64(logger.FieldCourseID, c.ID),
				zap.Int64(logger.FieldFileID, f.FileID),
				zap.String(logger.FieldAction, changeAction(f)),
				zap.String(logger.FieldPath, f.ContentFilepath+f.ContentFilename),
			}
			if f.NewFile != nil {
				fields = append(fields, zap.String("newPath", f.NewFile.ContentFilepath+f.NewFile.ContentFilename))
			}
			lg.Info(c.DisplayName(), fields...)
		}
	}
	return nil
}

func changeAction(f *domain.File) string {
	switch {
	case f.Modified:
		return domain.ChangeModified.String()
	case f.Moved:
		return domain.ChangeMoved.String()
	case f.Deleted:
		return "deleted"
	}
	return "new"
}
