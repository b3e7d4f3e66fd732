package cmd

import (
	"fmt"

	internalApp "github.com/haierkeys/course-sync/internal/app"
	"github.com/haierkeys/course-sync/pkg/logger"

	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the state database schema to the latest version",
	Long: `Upgrade the state database schema to the latest version.

This command will check the current database version and apply all pending migrations.
Databases created by older releases that only carry PRAGMA user_version are adopted.
It is safe to run this command multiple times - already applied migrations will be skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		configPath, err := resolveConfigPath(configPath)
		if err != nil {
			return err
		}

		appConfig, configRealpath, err := internalApp.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		fmt.Printf("Loading config from: %s\n", configRealpath)

		lg, err := logger.NewLogger(appConfig.GetLoggerConfig())
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		defer lg.Sync()

		fmt.Println("Starting database upgrade...")

		// OpenStore 打开数据库并执行所有待执行的迁移
		db, err := internalApp.OpenStore(cmd.Context(), appConfig, lg)
		if err != nil {
			return fmt.Errorf("upgrade failed: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		fmt.Println("Database upgrade completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}
