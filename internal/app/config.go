// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"

	"github.com/haierkeys/course-sync/internal/dao"
	"github.com/haierkeys/course-sync/internal/service"
	"github.com/haierkeys/course-sync/pkg/logger"
	"github.com/haierkeys/course-sync/pkg/util"
	"github.com/haierkeys/course-sync/pkg/workerpool"
	"github.com/haierkeys/course-sync/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Language string         `yaml:"language" default:"en"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Sync     SyncConfig     `yaml:"sync"`
	Courses  []CourseConfig `yaml:"courses"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	// 指针类型，显式配置的 false 不会被默认值覆盖
	Production *bool `yaml:"production" default:"true"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型 sqlite | mysql | postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/state.db"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// Charset 字符集
	Charset string `yaml:"charset"`
	// MaxIdleConns 最大闲置连接数，默认 10
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数，默认 100
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，支持格式：30m（分钟）、1h（小时），默认 30m
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// Debug 输出 SQL
	Debug bool `yaml:"debug"`
}

// SyncConfig 同步配置
type SyncConfig struct {
	// Snapshot 结果构建器输出的课程快照文件
	Snapshot string `yaml:"snapshot" default:"storage/snapshot.json"`
	// DownloadPath 文件保存根目录
	DownloadPath string `yaml:"download-path" default:"storage/downloads"`
	// DownloadFiles 为 false 时只记录状态不下载
	DownloadFiles *bool `yaml:"download-files" default:"true"`
	// MetricsFile 每次同步后写出 Prometheus textfile 指标，为空时不写
	MetricsFile string `yaml:"metrics-file"`
	// Schedule 定时同步的 cron 表达式，支持 @every 1h，为空时不启用
	Schedule string `yaml:"schedule"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"8"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"256"`

	// Write Queue 配置，超时只限制排队等待的时间
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`

	// DownloadCourseIDs 非空时只同步这些课程
	DownloadCourseIDs []int64 `yaml:"download-course-ids"`
	// DontDownloadCourseIDs 不同步的课程
	DontDownloadCourseIDs []int64 `yaml:"dont-download-course-ids"`
}

// CourseConfig 课程级选项
type CourseConfig struct {
	ID                       int64   `yaml:"id"`
	OverwriteNameWith        string  `yaml:"overwrite-name-with"`
	CreateDirectoryStructure bool    `yaml:"create-directory-structure"`
	ExcludedSections         []int64 `yaml:"excluded-sections"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

// resolvePath 相对路径以配置文件所在目录为基准
func (c *AppConfig) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.File == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.File), p)
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.resolvePath(c.Log.File),
		Production: c.Log.Production == nil || *c.Log.Production,
	}
}

// GetDatabaseConfig 获取 DAO 使用的数据库配置
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.resolvePath(c.Database.Path),
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Name:            c.Database.Name,
		Charset:         c.Database.Charset,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		Debug:           c.Database.Debug,
	}
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.Sync.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.Sync.WorkerPoolMaxWorkers
	}
	if c.Sync.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.Sync.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.Sync.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.Sync.WriteQueueCapacity
	}
	if c.Sync.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.Sync.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}

	return cfg
}

// CourseOptions 获取课程选项，未配置时返回零值
func (c *AppConfig) CourseOptions(id int64) CourseConfig {
	for _, o := range c.Courses {
		if o.ID == id {
			return o
		}
	}
	return CourseConfig{ID: id}
}

// ShouldSyncCourse 判断课程是否参与同步
func (c *AppConfig) ShouldSyncCourse(id int64) bool {
	return c.GetSyncConfig().ShouldSync(id)
}

// GetSyncConfig 获取同步流程配置
func (c *AppConfig) GetSyncConfig() service.SyncConfig {
	cfg := service.SyncConfig{
		DownloadCourseIDs:     c.Sync.DownloadCourseIDs,
		DontDownloadCourseIDs: c.Sync.DontDownloadCourseIDs,
	}
	for _, o := range c.Courses {
		cfg.Courses = append(cfg.Courses, service.CourseConfig{
			ID:                       o.ID,
			OverwriteNameWith:        o.OverwriteNameWith,
			CreateDirectoryStructure: o.CreateDirectoryStructure,
			ExcludedSections:         o.ExcludedSections,
		})
	}
	return cfg
}

// ShouldDownloadFiles 是否下载文件内容
func (c *AppConfig) ShouldDownloadFiles() bool {
	return c.Sync.DownloadFiles == nil || *c.Sync.DownloadFiles
}

// SnapshotPath 快照文件绝对路径
func (c *AppConfig) SnapshotPath() string {
	return c.resolvePath(c.Sync.Snapshot)
}

// MetricsPath 指标文件绝对路径，未配置时为空
func (c *AppConfig) MetricsPath() string {
	return c.resolvePath(c.Sync.MetricsFile)
}

// DownloadRoot 下载根目录绝对路径
func (c *AppConfig) DownloadRoot() string {
	return c.resolvePath(c.Sync.DownloadPath)
}
