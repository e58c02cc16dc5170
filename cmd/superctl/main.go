// Package main implements superctl, the SuperviseMe operations CLI.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/config"
	"superviseme/backend/internal/repository"
	"superviseme/backend/pkg/database"
	applogger "superviseme/backend/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:          "superctl",
	Short:        "SuperviseMe operations: migrations, weekly digest, Telegram diagnostics",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("SUPERVISEME_CONFIG"), "path to config file")
}

// runtimeEnv 子命令共享的运行环境
type runtimeEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
}

// openEnv 加载配置、日志并连接数据库
func openEnv() (*runtimeEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	return &runtimeEnv{cfg: cfg, logger: logger, db: db, repo: repository.NewRepository(db)}, nil
}

func (e *runtimeEnv) close() {
	if sqlDB, _ := e.db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	e.logger.Sync()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
