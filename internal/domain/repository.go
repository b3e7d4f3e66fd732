package domain

import "context"

// ChangeKind 替代类变化的种类
type ChangeKind int

const (
	ChangeModified ChangeKind = iota + 1
	ChangeMoved
)

// String 返回变化种类名称
func (c ChangeKind) String() string {
	switch c {
	case ChangeModified:
		return "modified"
	case ChangeMoved:
		return "moved"
	}
	return "unknown"
}

// FileRepository 文件状态仓储接口
// 每个写方法是一个完整的事务
type FileRepository interface {
	// Insert 插入新记录（变化标记全为 0，old_file_id 为空），分配的 file_id 回写到 f
	Insert(ctx context.Context, courseID int64, courseFullname string, f *File, notified bool) error

	// Supersede 在同一事务内插入替代记录并标记旧记录
	// 新记录 old_file_id=old.FileID、notified=1；旧记录 modified=1 或 moved=1、notified=0
	// modified 时旧记录的 saved_to 同时更新为 old.SavedTo
	Supersede(ctx context.Context, courseID int64, courseFullname string, f *File, old *File, change ChangeKind) error

	// MarkDeleted 将记录标记为已删除（deleted=1, notified=0）
	MarkDeleted(ctx context.Context, fileIDs []int64, timeStamp int64) error

	// DeleteByIDs 物理删除记录，返回删除行数
	DeleteByIDs(ctx context.Context, fileIDs []int64) (int64, error)

	// MarkNotified 设置 notified=1
	MarkNotified(ctx context.Context, fileIDs []int64) error

	// ListSettled 获取当前有效记录（deleted=0 AND modified=0 AND moved=0），按课程分组
	ListSettled(ctx context.Context) ([]*Course, error)

	// ListUnnotified 获取未通知记录（notified=0），按课程分组
	ListUnnotified(ctx context.Context) ([]*Course, error)

	// GetByOldFileID 获取替代指定记录的新记录，不存在时返回 nil
	GetByOldFileID(ctx context.Context, oldFileID int64) (*File, error)

	// LastTimestampsPerModule 有效记录中每个 modname、每门课程的最大 content_timemodified
	LastTimestampsPerModule(ctx context.Context) (map[string]map[int64]int64, error)
}
