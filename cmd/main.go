package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/app"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/config"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/logger"
)

func main() {
	configPath := flag.String("config", config.GetEnv("CONFIG_FILE", "configs/config.yaml"), "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.Service.Name,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting service",
		zap.String("service", cfg.Service.Name),
		zap.String("env", cfg.Service.Env),
		zap.Int("port", cfg.Server.Port))

	// 初始化数据库
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to init database", zap.Error(err))
	}

	// 自动迁移
	if err := app.AutoMigrate(db); err != nil {
		logger.Fatal("failed to auto migrate", zap.Error(err))
	}
	logger.Info("database migrated")

	// 初始化 Redis
	redisClient, err := initRedis(cfg)
	if err != nil {
		logger.Fatal("failed to init redis", zap.Error(err))
	}
	defer redisClient.Close()

	// 创建并初始化应用
	application := app.New(cfg, db, redisClient)
	if err := application.Init(); err != nil {
		logger.Fatal("failed to init application", zap.Error(err))
	}

	// 启动服务
	go func() {
		if err := application.Run(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to run application", zap.Error(err))
		}
	}()

	// 等待终止信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		logger.Error("application shutdown error", zap.Error(err))
	}

	logger.Info("service stopped")
}

// initDatabase 初始化数据库连接
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected",
		zap.String("host", cfg.Postgres.Host),
		zap.Int("port", cfg.Postgres.Port),
		zap.String("database", cfg.Postgres.Database))

	return db, nil
}

// initRedis 初始化 Redis 连接
func initRedis(cfg *config.Config) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Redis.Addresses,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connected", zap.Strings("addresses", cfg.Redis.Addresses))

	return client, nil
}
