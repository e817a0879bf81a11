package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nikcet/ycla-ai-chat/internal/bootstrap"
	"github.com/Nikcet/ycla-ai-chat/internal/repository"
	"github.com/Nikcet/ycla-ai-chat/internal/task"
	"github.com/Nikcet/ycla-ai-chat/internal/worker"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close resources failed: %v", err)
		}
	}()

	cfg := app.Config
	logger := app.Logger.With().Str("component", "worker").Logger()

	taskStore := task.NewRedisStore(app.Redis,
		time.Duration(cfg.Redis.TaskResultTTLMin)*time.Minute)
	notifier := task.NewWebhookNotifier(
		time.Duration(cfg.Ingest.WebhookTimeoutS) * time.Second)

	orchestrator := task.NewOrchestrator(
		taskStore,
		notifier,
		app.Index,
		app.Gateway,
		repository.NewDocumentRepository(app.MySQL),
		repository.NewPromptRepository(app.MySQL),
		repository.NewCompanyRepository(app.MySQL),
		cfg.Ingest.ChunkSize,
		logger,
	)

	taskWorker := worker.NewTaskWorker(
		app.MQConn,
		orchestrator,
		cfg.Ingest.TaskQueue,
		cfg.Ingest.WorkerPoolSize,
		logger,
	)
	if err := taskWorker.Start(ctx); err != nil {
		log.Fatalf("start task worker failed: %v", err)
	}
	logger.Info().Str("queue", cfg.Ingest.TaskQueue).Int("pool", cfg.Ingest.WorkerPoolSize).Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Stop consuming and let in-flight jobs finish before the deferred Close
	// tears the connections down.
	taskWorker.Close()
}
