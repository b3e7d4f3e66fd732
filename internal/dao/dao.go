// Package dao 实现数据访问层
package dao

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/haierkeys/course-sync/pkg/fileurl"
	"github.com/haierkeys/course-sync/pkg/util"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrStoreInit 存储无法打开或无法升级到当前结构
var ErrStoreInit = errors.New("could not initialize store")

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite | mysql | postgres
	Type string
	// Path SQLite 数据库文件路径
	Path            string
	UserName        string
	Password        string
	Host            string
	Name            string
	Charset         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	// Debug 输出 SQL
	Debug bool
}

// Dao 持有共享的数据库句柄
type Dao struct {
	Db     *gorm.DB
	logger *zap.Logger
}

// New 创建 Dao
func New(db *gorm.DB, lg *zap.Logger) *Dao {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Dao{Db: db, logger: lg}
}

// NewDBEngineWithConfig 打开数据库，所有错误都包装为 ErrStoreInit
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	dialector, err := userDialector(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreInit, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreInit, err)
	}
	if c.Debug {
		db.Config.Logger = logger.Default.LogMode(logger.Info)
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreInit, err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreInit, err)
	}

	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	lifetime := 30 * time.Minute
	if c.ConnMaxLifetime != "" {
		if d, err := util.ParseDuration(c.ConnMaxLifetime); err == nil {
			lifetime = d
		}
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	if lg != nil {
		lg.Debug("database opened", zap.String("type", c.Type), zap.String("path", c.Path))
	}
	return db, nil
}

func userDialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=true&loc=Local",
			c.UserName, c.Password, c.Host, c.Name, charset)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.UserName, c.Password, c.Name)), nil
	case "sqlite", "":
		if c.Path == "" {
			return nil, errors.New("sqlite path is empty")
		}
		if !fileurl.IsExist(c.Path) {
			if err := fileurl.CreatePath(c.Path, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(c.Path), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", c.Type)
}

// Close 关闭底层连接
func (d *Dao) Close() error {
	sqlDB, err := d.Db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
