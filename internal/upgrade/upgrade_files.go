package upgrade

import (
	"context"
	"strings"

	"github.com/haierkeys/course-sync/internal/model"

	"gorm.io/gorm"
)

const filesTable = model.TableNameFile

// CreateFilesTable 创建原始布局的 files 表（无 hash、moved、file_id）
type CreateFilesTable struct{}

func (*CreateFilesTable) Version() string     { return "0" }
func (*CreateFilesTable) Description() string { return "create files table" }

func (*CreateFilesTable) Up(db *gorm.DB, ctx context.Context) error {
	if db.Migrator().HasTable(filesTable) {
		return nil
	}
	return db.Exec(`CREATE TABLE files (
		course_id BIGINT NOT NULL,
		course_fullname TEXT NOT NULL,
		module_id BIGINT NOT NULL,
		section_name TEXT NOT NULL,
		module_name TEXT NOT NULL,
		content_filepath TEXT NOT NULL,
		content_filename TEXT NOT NULL,
		content_fileurl TEXT NOT NULL,
		content_filesize BIGINT NOT NULL,
		content_timemodified BIGINT NOT NULL,
		module_modname TEXT NOT NULL,
		content_type TEXT NOT NULL,
		content_isexternalfile BIGINT NOT NULL,
		saved_to TEXT NOT NULL,
		time_stamp BIGINT NOT NULL,
		modified BIGINT DEFAULT 0 NOT NULL,
		deleted BIGINT DEFAULT 0 NOT NULL,
		notified BIGINT DEFAULT 0 NOT NULL
	)`).Error
}

// AddHashColumn 描述类内容按 sha1 比较
type AddHashColumn struct{}

func (*AddHashColumn) Version() string     { return "1" }
func (*AddHashColumn) Description() string { return "add hash column" }

func (*AddHashColumn) Up(db *gorm.DB, ctx context.Context) error {
	if db.Migrator().HasColumn(filesTable, "hash") {
		return nil
	}
	return db.Exec("ALTER TABLE files ADD COLUMN hash TEXT NULL").Error
}

// AddMovedColumn 移动检测标记
type AddMovedColumn struct{}

func (*AddMovedColumn) Version() string     { return "2" }
func (*AddMovedColumn) Description() string { return "add moved column" }

func (*AddMovedColumn) Up(db *gorm.DB, ctx context.Context) error {
	if db.Migrator().HasColumn(filesTable, "moved") {
		return nil
	}
	return db.Exec("ALTER TABLE files ADD COLUMN moved BIGINT DEFAULT 0 NOT NULL").Error
}

// ResetModifiedFlag 旧版本写入的 modified=1 记录没有替代记录指向它们，全部重置
type ResetModifiedFlag struct{}

func (*ResetModifiedFlag) Version() string     { return "3" }
func (*ResetModifiedFlag) Description() string { return "reset modified flags" }

func (*ResetModifiedFlag) Up(db *gorm.DB, ctx context.Context) error {
	return db.Exec("UPDATE files SET modified = 0 WHERE modified = 1").Error
}

// RebuildWithFileID 以 file_id 自增主键和 old_file_id 重建 files 表
type RebuildWithFileID struct{}

func (*RebuildWithFileID) Version() string     { return "4" }
func (*RebuildWithFileID) Description() string { return "rebuild files table with file_id" }

func (*RebuildWithFileID) Up(db *gorm.DB, ctx context.Context) error {
	m := db.Migrator()
	if m.HasColumn(filesTable, "file_id") {
		return nil
	}

	const tmpTable = "files_new"
	if err := db.Exec("DROP TABLE IF EXISTS " + tmpTable).Error; err != nil {
		return err
	}
	if err := db.Table(tmpTable).Migrator().CreateTable(&model.File{}); err != nil {
		return err
	}

	columns := make([]string, 0, len(model.LegacyFileColumns)+3)
	for _, col := range append(append([]string{}, model.LegacyFileColumns...), "hash", "moved", "section_id") {
		if m.HasColumn(filesTable, col) {
			columns = append(columns, col)
		}
	}
	list := strings.Join(columns, ", ")

	if err := db.Exec("INSERT INTO " + tmpTable + " (" + list + ") SELECT " + list + " FROM " + filesTable).Error; err != nil {
		return err
	}
	if err := db.Exec("DROP TABLE " + filesTable).Error; err != nil {
		return err
	}
	return db.Exec("ALTER TABLE " + tmpTable + " RENAME TO " + filesTable).Error
}

// AddSectionIDColumn 章节 ID，用于排除章节
type AddSectionIDColumn struct{}

func (*AddSectionIDColumn) Version() string     { return "5" }
func (*AddSectionIDColumn) Description() string { return "add section_id column" }

func (*AddSectionIDColumn) Up(db *gorm.DB, ctx context.Context) error {
	if db.Migrator().HasColumn(filesTable, "section_id") {
		return nil
	}
	return db.Exec("ALTER TABLE files ADD COLUMN section_id BIGINT DEFAULT 0 NOT NULL").Error
}

// AddLookupIndexes 按课程与替代链接查询的索引
type AddLookupIndexes struct{}

func (*AddLookupIndexes) Version() string     { return "6" }
func (*AddLookupIndexes) Description() string { return "add course_id and old_file_id indexes" }

func (*AddLookupIndexes) Up(db *gorm.DB, ctx context.Context) error {
	indexes := []struct{ name, column string }{
		{"idx_files_course_id", "course_id"},
		{"idx_files_old_file_id", "old_file_id"},
	}
	for _, idx := range indexes {
		if db.Migrator().HasIndex(filesTable, idx.name) {
			continue
		}
		if err := db.Exec("CREATE INDEX " + idx.name + " ON files (" + idx.column + ")").Error; err != nil {
			return err
		}
	}
	return nil
}
