package service

import (
	"context"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/logger"
	"github.com/haierkeys/course-sync/pkg/util"
	"github.com/haierkeys/course-sync/pkg/writequeue"

	"go.uber.org/zap"
)

// StateService 持久化状态业务服务接口
// 写操作经过写队列串行执行，一次存储调用完全结束后下一次才会开始
// 写操作返回错误时该操作一定没有提交；已开始执行的写操作不会因超时而被提前返回
type StateService interface {
	// SaveFile 按文件的变化标记写入：新增、修改、移动或删除
	SaveFile(ctx context.Context, courseID int64, courseFullname string, f *domain.File) error
	// BatchDeleteFiles 将课程列表中所有标记为删除的文件在库中标记删除
	BatchDeleteFiles(ctx context.Context, courses []*domain.Course) error
	// BatchDeleteFilesFromDB 物理删除记录，仅供数据库管理使用
	BatchDeleteFilesFromDB(ctx context.Context, files []*domain.File) (int64, error)
	// GetStoredFiles 当前有效记录（未删除、未修改、未移动）
	GetStoredFiles(ctx context.Context) ([]*domain.Course, error)
	// ChangesToNotify 未通知的记录，修改与移动的记录带有 NewFile
	ChangesToNotify(ctx context.Context) ([]*domain.Course, error)
	// Notified 将传入的记录标记为已通知
	Notified(ctx context.Context, courses []*domain.Course) error
	// LastTimestampsPerModule modname -> 课程 ID -> 最大 content_timemodified
	LastTimestampsPerModule(ctx context.Context) (map[string]map[int64]int64, error)
}

type stateService struct {
	repo   domain.FileRepository
	wq     *writequeue.Queue
	logger *zap.Logger
}

// NewStateService 创建 StateService，wq 为 nil 时写操作直接执行
func NewStateService(repo domain.FileRepository, wq *writequeue.Queue, lg *zap.Logger) StateService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &stateService{repo: repo, wq: wq, logger: lg}
}

func (s *stateService) write(ctx context.Context, fn func() error) error {
	var err error
	if s.wq == nil {
		err = fn()
	} else {
		err = s.wq.Execute(ctx, fn)
	}
	if err != nil {
		return code.ErrorDBWrite.Wrap(err)
	}
	return nil
}

func (s *stateService) SaveFile(ctx context.Context, courseID int64, courseFullname string, f *domain.File) error {
	if f.Deleted {
		return s.deleteFile(ctx, f)
	}
	if f.TimeStamp == 0 {
		f.TimeStamp = util.UnixNow()
	}

	if !f.Modified && !f.Moved {
		return s.write(ctx, func() error {
			return s.repo.Insert(ctx, courseID, courseFullname, f, false)
		})
	}

	change := domain.ChangeModified
	if f.Moved {
		change = domain.ChangeMoved
	}

	if f.OldFile == nil {
		s.logger.Warn("changed file has no stored predecessor, saving as new",
			zap.Int64(logger.FieldCourseID, courseID),
			zap.String(logger.FieldAction, change.String()),
			zap.String(logger.FieldPath, f.ContentFilepath+f.ContentFilename))
		return s.write(ctx, func() error {
			return s.repo.Insert(ctx, courseID, courseFullname, f, false)
		})
	}

	return s.write(ctx, func() error {
		return s.repo.Supersede(ctx, courseID, courseFullname, f, f.OldFile, change)
	})
}

func (s *stateService) deleteFile(ctx context.Context, f *domain.File) error {
	now := util.UnixNow()
	err := s.write(ctx, func() error {
		return s.repo.MarkDeleted(ctx, []int64{f.FileID}, now)
	})
	if err != nil {
		return err
	}
	f.TimeStamp = now
	f.Notified = false
	return nil
}

func (s *stateService) BatchDeleteFiles(ctx context.Context, courses []*domain.Course) error {
	var deleted []*domain.File
	var ids []int64
	for _, c := range courses {
		for _, f := range c.Files {
			if f.Deleted && f.FileID != 0 {
				deleted = append(deleted, f)
				ids = append(ids, f.FileID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	now := util.UnixNow()
	err := s.write(ctx, func() error {
		return s.repo.MarkDeleted(ctx, ids, now)
	})
	if err != nil {
		return err
	}
	for _, f := range deleted {
		f.TimeStamp = now
		f.Notified = false
	}
	s.logger.Debug("files marked deleted", zap.Int(logger.FieldCount, len(ids)))
	return nil
}

func (s *stateService) BatchDeleteFilesFromDB(ctx context.Context, files []*domain.File) (int64, error) {
	ids := make([]int64, 0, len(files))
	for _, f := range files {
		if f.FileID != 0 {
			ids = append(ids, f.FileID)
		}
	}

	var n int64
	err := s.write(ctx, func() error {
		var err error
		n, err = s.repo.DeleteByIDs(ctx, util.Unique(ids))
		return err
	})
	return n, err
}

func (s *stateService) GetStoredFiles(ctx context.Context) ([]*domain.Course, error) {
	courses, err := s.repo.ListSettled(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.Wrap(err)
	}
	return courses, nil
}

func (s *stateService) ChangesToNotify(ctx context.Context) ([]*domain.Course, error) {
	courses, err := s.repo.ListUnnotified(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.Wrap(err)
	}
	for _, c := range courses {
		for _, f := range c.Files {
			if !f.Modified && !f.Moved {
				continue
			}
			next, err := s.repo.GetByOldFileID(ctx, f.FileID)
			if err != nil {
				return nil, code.ErrorDBQuery.Wrap(err)
			}
			f.NewFile = next
		}
	}
	return courses, nil
}

func (s *stateService) Notified(ctx context.Context, courses []*domain.Course) error {
	var ids []int64
	for _, c := range courses {
		for _, f := range c.Files {
			if f.FileID != 0 {
				ids = append(ids, f.FileID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	err := s.write(ctx, func() error {
		return s.repo.MarkNotified(ctx, ids)
	})
	if err != nil {
		return err
	}
	for _, c := range courses {
		for _, f := range c.Files {
			f.Notified = true
		}
	}
	return nil
}

func (s *stateService) LastTimestampsPerModule(ctx context.Context) (map[string]map[int64]int64, error) {
	last, err := s.repo.LastTimestampsPerModule(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.Wrap(err)
	}
	return last, nil
}
