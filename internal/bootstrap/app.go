package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Nikcet/ycla-ai-chat/internal/ai"
	"github.com/Nikcet/ycla-ai-chat/internal/config"
	"github.com/Nikcet/ycla-ai-chat/internal/index"
	"github.com/Nikcet/ycla-ai-chat/internal/model"
	mysqlClient "github.com/Nikcet/ycla-ai-chat/internal/platform/mysql"
	rabbitmqClient "github.com/Nikcet/ycla-ai-chat/internal/platform/rabbitmq"
	redisClient "github.com/Nikcet/ycla-ai-chat/internal/platform/redis"
)

// App holds the shared infrastructure both binaries build their services on.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	MySQL   *gorm.DB
	Redis   *redis.Client
	MQConn  *amqp.Connection
	Index   *index.ChromemIndex
	Gateway *ai.Gateway

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("app", cfg.App.Name).
		Logger()
	if cfg.App.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.Company{}, &model.Document{}, &model.AdminPrompt{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	searchIndex, err := index.NewChromemIndex(cfg.Index.Path, cfg.Index.Collection)
	if err != nil {
		return nil, fmt.Errorf("open retrieval index failed: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		MySQL:     mysqlDB,
		Redis:     redisCli,
		MQConn:    mqConn,
		Index:     searchIndex,
		Gateway:   newGateway(cfg, logger),
		StartedAt: time.Now(),
	}, nil
}

func newGateway(cfg *config.Config, logger zerolog.Logger) *ai.Gateway {
	primary := ai.NewOpenAICompatibleBackend(ai.BackendConfig{
		BaseURL:        cfg.LLM.Primary.BaseURL,
		APIKey:         cfg.LLM.Primary.APIKey,
		Model:          cfg.LLM.Primary.Model,
		EmbeddingModel: cfg.LLM.Primary.EmbeddingModel,
	})

	// Fallback is optional; with no secondary configured the gateway runs
	// single-backend.
	var secondary ai.Backend
	if cfg.LLM.Secondary.BaseURL != "" && cfg.LLM.Secondary.APIKey != "" {
		secondary = ai.NewOpenAICompatibleBackend(ai.BackendConfig{
			BaseURL:        cfg.LLM.Secondary.BaseURL,
			APIKey:         cfg.LLM.Secondary.APIKey,
			Model:          cfg.LLM.Secondary.Model,
			EmbeddingModel: cfg.LLM.Secondary.EmbeddingModel,
		})
	}

	return ai.NewGateway(primary, secondary, logger)
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
