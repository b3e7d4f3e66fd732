package logger

// 统一的日志字段命名常量
// Shared log field names, keep them stable so logs stay queryable
const (
	// FieldRunID 单次同步运行 ID 字段
	FieldRunID = "runId"

	// FieldCourseID 课程 ID 字段
	FieldCourseID = "courseId"

	// FieldFileID 文件记录 ID 字段
	FieldFileID = "fileId"

	// FieldOldFileID 被替代的旧文件记录 ID 字段
	FieldOldFileID = "oldFileId"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldPath 文件路径字段
	FieldPath = "path"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldCount 数量字段
	FieldCount = "count"

	// FieldTask 定时任务名称字段
	FieldTask = "task"

	// FieldVersion 版本字段
	FieldVersion = "version"
)
