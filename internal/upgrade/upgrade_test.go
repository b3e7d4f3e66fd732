package upgrade

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "state.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func countVersions(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&SchemaVersion{}).Count(&n).Error)
	return n
}

const legacyInsert = `INSERT INTO files (course_id, course_fullname, module_id, section_name, module_name,
	content_filepath, content_filename, content_fileurl, content_filesize, content_timemodified,
	module_modname, content_type, content_isexternalfile, saved_to, time_stamp, modified, deleted, notified)
	VALUES (?, 'Algebra', ?, 'Week 1', 'Slides', '/', ?, 'https://lms.example/f', 10, 100,
	'resource', 'file', 0, '/tmp/x', 1, ?, 0, 1)`

func TestRunFreshStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	manager := NewMigrationManager(db, zap.NewNop())

	executed, err := manager.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(manager.Migrations()), executed)

	m := db.Migrator()
	for _, col := range []string{"file_id", "old_file_id", "hash", "moved", "section_id", "course_id"} {
		assert.True(t, m.HasColumn("files", col), col)
	}
	assert.True(t, m.HasIndex("files", "idx_files_course_id"))
	assert.True(t, m.HasIndex("files", "idx_files_old_file_id"))
	assert.False(t, m.HasTable("files_new"))

	// second run is a no-op
	executed, err = manager.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, executed)
	assert.Equal(t, int64(len(manager.Migrations())), countVersions(t, db))
}

func TestRunUpgradesLegacyStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, (&CreateFilesTable{}).Up(db, ctx))
	require.NoError(t, db.Exec(legacyInsert, 5, 1, "a.pdf", 0).Error)
	require.NoError(t, db.Exec(legacyInsert, 5, 2, "b.pdf", 1).Error)
	require.NoError(t, db.Exec(legacyInsert, 6, 3, "c.pdf", 0).Error)

	_, err := NewMigrationManager(db, zap.NewNop()).Run(ctx)
	require.NoError(t, err)

	type row struct {
		FileID          int64
		OldFileID       *int64
		CourseID        int64
		ContentFilename string
		Modified        int64
		Moved           int64
		Notified        int64
		Hash            *string
		SectionID       int64
	}
	var rows []row
	require.NoError(t, db.Table("files").Order("file_id").Find(&rows).Error)
	require.Len(t, rows, 3)

	for i, r := range rows {
		assert.Equal(t, int64(i+1), r.FileID)
		assert.Nil(t, r.OldFileID)
		assert.Nil(t, r.Hash)
		assert.Equal(t, int64(0), r.Modified, "modified flags are reset")
		assert.Equal(t, int64(0), r.Moved)
		assert.Equal(t, int64(1), r.Notified)
		assert.Equal(t, int64(0), r.SectionID)
	}
	assert.Equal(t, "b.pdf", rows[1].ContentFilename)
	assert.Equal(t, int64(6), rows[2].CourseID)
}

func TestRunAdoptsUserVersion(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// a store written by a client that tracked its layout in PRAGMA user_version
	for _, step := range []Migration{&CreateFilesTable{}, &AddHashColumn{}, &AddMovedColumn{}, &RebuildWithFileID{}} {
		require.NoError(t, step.Up(db, ctx))
	}
	require.NoError(t, db.Exec("ALTER TABLE files DROP COLUMN section_id").Error)
	require.NoError(t, db.Exec(legacyInsert, 5, 1, "a.pdf", 1).Error)
	require.NoError(t, db.Exec("PRAGMA user_version = 4").Error)

	manager := NewMigrationManager(db, zap.NewNop())
	executed, err := manager.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, executed, "only section_id and indexes remain")
	assert.True(t, db.Migrator().HasColumn("files", "section_id"))

	// the reset step counts as applied and must not run again
	var modified int64
	require.NoError(t, db.Table("files").Select("modified").Scan(&modified).Error)
	assert.Equal(t, int64(1), modified)
	assert.Equal(t, int64(len(manager.Migrations())), countVersions(t, db))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, migration := range NewMigrationManager(db, nil).Migrations() {
		require.NoError(t, migration.Up(db, ctx), migration.Description())
		require.NoError(t, migration.Up(db, ctx), "second run of "+migration.Description())
	}
	assert.True(t, db.Migrator().HasColumn("files", "file_id"))
}

func TestExecuteRequiresDB(t *testing.T) {
	assert.Error(t, Execute(context.Background(), nil, nil))
}
