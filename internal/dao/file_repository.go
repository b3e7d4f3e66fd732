package dao

import (
	"context"
	"errors"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/internal/model"

	"gorm.io/gorm"
)

// fileRepository 实现 domain.FileRepository 接口
type fileRepository struct {
	dao *Dao
}

// NewFileRepository 创建 FileRepository 实例
func NewFileRepository(dao *Dao) domain.FileRepository {
	return &fileRepository{dao: dao}
}

func (r *fileRepository) db(ctx context.Context) *gorm.DB {
	return r.dao.Db.WithContext(ctx)
}

// settled 未删除、未修改、未移动的有效记录
func settled(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ? AND modified = ? AND moved = ?", 0, 0, 0)
}

// groupByCourse 按课程分组，保持首次出现的顺序
func groupByCourse(rows []*model.File) []*domain.Course {
	courses := make([]*domain.Course, 0)
	index := make(map[int64]*domain.Course)
	for _, m := range rows {
		c, ok := index[m.CourseID]
		if !ok {
			c = &domain.Course{ID: m.CourseID, Fullname: m.CourseFullname}
			index[m.CourseID] = c
			courses = append(courses, c)
		}
		c.Files = append(c.Files, model.FileToDomain(m))
	}
	return courses
}

// Insert 插入新记录
func (r *fileRepository) Insert(ctx context.Context, courseID int64, courseFullname string, f *domain.File, notified bool) error {
	m := model.FileFromDomain(f, courseID, courseFullname)
	if notified {
		m.Notified = 1
	}
	if err := r.db(ctx).Create(m).Error; err != nil {
		return err
	}
	f.FileID = m.FileID
	f.OldFileID = 0
	f.Notified = notified
	return nil
}

// Supersede 插入替代记录并标记旧记录
func (r *fileRepository) Supersede(ctx context.Context, courseID int64, courseFullname string, f *domain.File, old *domain.File, change domain.ChangeKind) error {
	oldID := old.FileID
	m := model.FileFromDomain(f, courseID, courseFullname)
	m.OldFileID = &oldID
	m.Notified = 1

	updates := map[string]any{"notified": 0}
	switch change {
	case domain.ChangeModified:
		updates["modified"] = 1
		updates["saved_to"] = old.SavedTo
	case domain.ChangeMoved:
		updates["moved"] = 1
	default:
		return errors.New("supersede: unknown change kind")
	}

	err := r.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&model.File{}).Where("file_id = ?", oldID).Updates(updates).Error
	})
	if err != nil {
		return err
	}

	f.FileID = m.FileID
	f.OldFileID = oldID
	f.Notified = true
	return nil
}

// MarkDeleted 标记删除
func (r *fileRepository) MarkDeleted(ctx context.Context, fileIDs []int64, timeStamp int64) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&model.File{}).
			Where("file_id IN ?", fileIDs).
			Updates(map[string]any{"deleted": 1, "notified": 0, "time_stamp": timeStamp}).Error
	})
}

// DeleteByIDs 物理删除
func (r *fileRepository) DeleteByIDs(ctx context.Context, fileIDs []int64) (int64, error) {
	if len(fileIDs) == 0 {
		return 0, nil
	}
	res := r.db(ctx).Where("file_id IN ?", fileIDs).Delete(&model.File{})
	return res.RowsAffected, res.Error
}

// MarkNotified 标记已通知
func (r *fileRepository) MarkNotified(ctx context.Context, fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return r.db(ctx).Model(&model.File{}).
		Where("file_id IN ?", fileIDs).
		Update("notified", 1).Error
}

// ListSettled 获取当前有效记录
func (r *fileRepository) ListSettled(ctx context.Context) ([]*domain.Course, error) {
	var rows []*model.File
	if err := settled(r.db(ctx)).Order("course_id, file_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return groupByCourse(rows), nil
}

// ListUnnotified 获取未通知记录
func (r *fileRepository) ListUnnotified(ctx context.Context) ([]*domain.Course, error) {
	var rows []*model.File
	if err := r.db(ctx).Where("notified = ?", 0).Order("course_id, file_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return groupByCourse(rows), nil
}

// GetByOldFileID 获取替代记录
func (r *fileRepository) GetByOldFileID(ctx context.Context, oldFileID int64) (*domain.File, error) {
	var m model.File
	err := r.db(ctx).Where("old_file_id = ?", oldFileID).Order("file_id").First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.FileToDomain(&m), nil
}

// LastTimestampsPerModule 每个 modname、每门课程的最大 content_timemodified
func (r *fileRepository) LastTimestampsPerModule(ctx context.Context) (map[string]map[int64]int64, error) {
	var rows []struct {
		ModuleModname string
		CourseID      int64
		Last          int64
	}
	err := settled(r.db(ctx).Model(&model.File{})).
		Select("module_modname, course_id, MAX(content_timemodified) AS last").
		Group("module_modname, course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]map[int64]int64)
	for _, row := range rows {
		if result[row.ModuleModname] == nil {
			result[row.ModuleModname] = make(map[int64]int64)
		}
		result[row.ModuleModname][row.CourseID] = row.Last
	}
	return result, nil
}

var _ domain.FileRepository = (*fileRepository)(nil)
