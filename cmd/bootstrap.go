package cmd

import (
	"context"
	"os"

	internalApp "github.com/haierkeys/course-sync/internal/app"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/fileurl"
	"github.com/haierkeys/course-sync/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bootstrapLogger bootstrap stage logger
// bootstrapLogger 启动阶段日志器
// Used to record logs during the startup process before the main logger is initialized
// 用于在主日志器初始化之前记录启动过程中的日志
var bootstrapLogger *zap.Logger

func init() {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Set log level based on DEBUG environment variable
	// 根据 DEBUG 环境变量设置日志级别
	level := zapcore.InfoLevel
	if os.Getenv("DEBUG") != "" {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level)
	bootstrapLogger = zap.New(core, zap.AddCaller())
}

// resolveConfigPath 按 config/config-dev.yaml、config.yaml、config/config.yaml 的顺序查找配置
// 都不存在时写入默认配置
func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	for _, candidate := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
		if fileurl.IsExist(candidate) {
			return candidate, nil
		}
	}

	path = "config/config.yaml"
	bootstrapLogger.Warn("config file not found, creating default config", zap.String(logger.FieldPath, path))
	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(configDefault), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// bootApp 加载配置、初始化日志与状态库，创建应用容器
// overrides 在配置加载后、容器创建前执行，用于命令行参数覆盖配置
func bootApp(ctx context.Context, cmd *cobra.Command, overrides ...func(*internalApp.AppConfig)) (*internalApp.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	configPath, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	cfg, realpath, err := internalApp.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	bootstrapLogger.Debug("config loaded", zap.String(logger.FieldPath, realpath))
	for _, override := range overrides {
		override(cfg)
	}

	if err := code.SetGlobalDefaultLang(cfg.Language); err != nil {
		bootstrapLogger.Warn("language", zap.Error(err))
	}

	lg, err := logger.NewLogger(cfg.GetLoggerConfig())
	if err != nil {
		return nil, err
	}

	db, err := internalApp.OpenStore(ctx, cfg, lg)
	if err != nil {
		return nil, err
	}
	return internalApp.NewApp(cfg, lg, db)
}
