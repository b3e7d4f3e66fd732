package service

import (
	"context"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/fileurl"
	"github.com/haierkeys/course-sync/pkg/logger"

	"go.uber.org/zap"
)

// DatabaseService 状态库管理
type DatabaseService interface {
	// OfflineFiles 保存路径在本地已不存在的有效记录
	OfflineFiles(ctx context.Context) ([]*domain.Course, error)
	// DeleteOfflineFiles 物理删除本地已不存在的记录，下次同步时会重新下载
	DeleteOfflineFiles(ctx context.Context) (int64, error)
	// DeleteFiles 按 file_id 物理删除
	DeleteFiles(ctx context.Context, fileIDs []int64) (int64, error)
}

type databaseService struct {
	state  StateService
	logger *zap.Logger
}

func NewDatabaseService(state StateService, lg *zap.Logger) DatabaseService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &databaseService{state: state, logger: lg}
}

func (s *databaseService) OfflineFiles(ctx context.Context) ([]*domain.Course, error) {
	stored, err := s.state.GetStoredFiles(ctx)
	if err != nil {
		return nil, err
	}

	var offline []*domain.Course
	for _, c := range stored {
		var files []*domain.File
		for _, f := range c.Files {
			if f.SavedTo == "" || fileurl.IsFile(f.SavedTo) {
				continue
			}
			files = append(files, f)
		}
		if len(files) > 0 {
			offline = append(offline, &domain.Course{ID: c.ID, Fullname: c.Fullname, Files: files})
		}
	}
	return offline, nil
}

func (s *databaseService) DeleteOfflineFiles(ctx context.Context) (int64, error) {
	offline, err := s.OfflineFiles(ctx)
	if err != nil {
		return 0, err
	}

	var files []*domain.File
	for _, c := range offline {
		files = append(files, c.Files...)
	}
	if len(files) == 0 {
		return 0, nil
	}

	n, err := s.state.BatchDeleteFilesFromDB(ctx, files)
	if err != nil {
		return 0, err
	}
	s.logger.Info("offline files removed from database", zap.Int64(logger.FieldCount, n))
	return n, nil
}

func (s *databaseService) DeleteFiles(ctx context.Context, fileIDs []int64) (int64, error) {
	files := make([]*domain.File, 0, len(fileIDs))
	for _, id := range fileIDs {
		files = append(files, &domain.File{FileID: id})
	}
	return s.state.BatchDeleteFilesFromDB(ctx, files)
}
