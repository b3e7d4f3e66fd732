// Package upgrade 执行存储结构的版本化升级
package upgrade

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SchemaVersion 数据库版本记录表
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"applied_at"`
}

// TableName 指定表名
func (SchemaVersion) TableName() string {
	return "schema_version"
}

// Migration 定义升级接口
// Up 必须在任何旧版本结构上都可以安全执行
type Migration interface {
	Version() string
	Description() string
	Up(db *gorm.DB, ctx context.Context) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db         *gorm.DB
	logger     *zap.Logger
	migrations []Migration
}

// NewMigrationManager 创建升级管理器
func NewMigrationManager(db *gorm.DB, logger *zap.Logger) *MigrationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationManager{
		db:     db,
		logger: logger,
		migrations: []Migration{
			// 按顺序注册所有升级脚本，版本号只增不改
			&CreateFilesTable{},
			&AddHashColumn{},
			&AddMovedColumn{},
			&ResetModifiedFlag{},
			&RebuildWithFileID{},
			&AddSectionIDColumn{},
			&AddLookupIndexes{},
		},
	}
}

// Migrations 返回已注册的升级脚本
func (m *MigrationManager) Migrations() []Migration {
	return m.migrations
}

// Run 执行所有未执行的升级，返回本次执行的数量
func (m *MigrationManager) Run(ctx context.Context) (int, error) {
	// 确保 schema_version 表存在
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return 0, fmt.Errorf("failed to create schema_version table: %w", err)
	}

	if err := m.adoptLegacyVersion(ctx); err != nil {
		return 0, fmt.Errorf("failed to adopt legacy user_version: %w", err)
	}

	appliedVersions, err := m.getAppliedVersions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get applied versions: %w", err)
	}

	executed := 0
	for _, migration := range m.migrations {
		if appliedVersions[migration.Version()] {
			continue
		}

		m.logger.Info("applying migration",
			zap.String("scriptVersion", migration.Version()),
			zap.String("desc", migration.Description()))

		// 在事务中执行升级
		if err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx, ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			record := &SchemaVersion{
				Version:     migration.Version(),
				Description: migration.Description(),
				AppliedAt:   time.Now(),
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to record version: %w", err)
			}
			return nil
		}); err != nil {
			return executed, fmt.Errorf("failed to apply migration %s: %w", migration.Version(), err)
		}

		executed++
	}

	if executed == 0 {
		m.logger.Debug("database is already up to date")
	} else {
		m.logger.Info("upgrade completed", zap.Int("migrations_applied", executed))
	}
	return executed, nil
}

// getAppliedVersions 获取已应用的数据库版本
func (m *MigrationManager) getAppliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []SchemaVersion
	if err := m.db.WithContext(ctx).Find(&versions).Error; err != nil {
		return nil, err
	}

	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v.Version] = true
	}
	return applied, nil
}

// adoptLegacyVersion 旧版本客户端用 PRAGMA user_version 记录结构版本
// 首次运行时把它换算为 schema_version 记录，避免重复执行已应用的步骤
func (m *MigrationManager) adoptLegacyVersion(ctx context.Context) error {
	if m.db.Dialector.Name() != "sqlite" {
		return nil
	}

	var count int64
	if err := m.db.WithContext(ctx).Model(&SchemaVersion{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var userVersion int
	if err := m.db.WithContext(ctx).Raw("PRAGMA user_version").Scan(&userVersion).Error; err != nil {
		return err
	}
	if userVersion <= 0 {
		return nil
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, migration := range m.migrations {
			v, err := strconv.Atoi(migration.Version())
			if err != nil || v > userVersion {
				continue
			}
			record := &SchemaVersion{
				Version:     migration.Version(),
				Description: migration.Description() + " (user_version)",
				AppliedAt:   time.Now(),
			}
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}
		m.logger.Info("adopted legacy schema version", zap.Int("userVersion", userVersion))
		return nil
	})
}

// Execute 执行升级(便捷方法)
func Execute(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	_, err := NewMigrationManager(db, logger).Run(ctx)
	return err
}
