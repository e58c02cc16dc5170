package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"superviseme/backend/config"
	"superviseme/backend/internal/api/handler"
	"superviseme/backend/internal/api/router"
	"superviseme/backend/internal/repository"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/database"
	"superviseme/backend/pkg/jwt"
	applogger "superviseme/backend/pkg/logger"
	"superviseme/backend/pkg/mail"
	"superviseme/backend/pkg/redis"
	"superviseme/backend/pkg/telegram"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("SUPERVISEME_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("mail_provider", cfg.Mail.Provider),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var locker service.Locker
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，限流与周报分布式锁将不可用", zap.Error(err))
		rdb = nil
	} else {
		locker = rdb
	}

	// 5. 外部渠道：邮件 + Telegram
	sender, err := mail.NewSender(&cfg.Mail, logger)
	if err != nil {
		logger.Fatal("初始化邮件发送器失败", zap.Error(err))
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, service.Deps{
		Mail:     sender,
		Telegram: telegram.NewFactory(&cfg.Telegram),
		Locker:   locker,
	}, logger)

	// 7. 周报调度器
	loc, err := cfg.Digest.Location()
	if err != nil {
		logger.Fatal("周报时区配置错误", zap.Error(err))
	}
	scheduler, err := service.NewDigestScheduler(svc.Digest, cfg.Digest.Schedule, loc, logger)
	if err != nil {
		logger.Fatal("初始化周报调度器失败", zap.Error(err))
	}
	if cfg.Digest.Enabled {
		if err := scheduler.Start(); err != nil {
			logger.Fatal("启动周报调度器失败", zap.Error(err))
		}
	} else {
		logger.Info("周报调度器已禁用，仅支持手动触发")
	}

	h := handler.NewHandler(svc, scheduler)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, svc.User, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // 手动触发周报同步返回
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待进行中的周报任务结束
	if err := scheduler.Stop(ctx); err != nil {
		logger.Warn("周报任务未在超时前结束", zap.Error(err))
	}

	// 关闭数据库连接
	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
