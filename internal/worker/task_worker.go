package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/Nikcet/ycla-ai-chat/internal/task"
)

// TaskWorker consumes job envelopes from the durable queue and runs each one
// through the orchestrator on a bounded goroutine pool. A job is acked only
// after its result has been written, so a worker crash mid-job redelivers.
//
// Jobs are not cancellable once dispatched: shutdown stops the intake but the
// orchestrator runs dispatched jobs to completion on a context detached from
// the shutdown cancel.
type TaskWorker struct {
	conn         *amqp.Connection
	orchestrator *task.Orchestrator
	queueName    string
	poolSize     int
	logger       zerolog.Logger

	cancel context.CancelFunc
	pool   *ants.Pool
	ch     *amqp.Channel
	wg     sync.WaitGroup
}

func NewTaskWorker(conn *amqp.Connection, orchestrator *task.Orchestrator, queueName string, poolSize int, logger zerolog.Logger) *TaskWorker {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &TaskWorker{
		conn:         conn,
		orchestrator: orchestrator,
		queueName:    queueName,
		poolSize:     poolSize,
		logger:       logger,
	}
}

func (w *TaskWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	pool, err := ants.NewPool(w.poolSize)
	if err != nil {
		cancel()
		return fmt.Errorf("create worker pool failed: %w", err)
	}
	w.pool = pool

	ch, err := w.conn.Channel()
	if err != nil {
		pool.Release()
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	w.ch = ch

	if err := ch.Qos(w.poolSize, 0, false); err != nil {
		_ = ch.Close()
		pool.Release()
		cancel()
		return fmt.Errorf("set worker prefetch failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		pool.Release()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		pool.Release()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.dispatch(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *TaskWorker) dispatch(ctx context.Context, d amqp.Delivery) {
	var job task.Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.logger.Error().Err(err).Msg("worker decode job failed")
		_ = d.Nack(false, false)
		return
	}

	// The job must survive a shutdown cancel once dispatched: only the
	// delivery loop listens to ctx, the run itself does not.
	jobCtx := context.WithoutCancel(ctx)

	w.wg.Add(1)
	err := w.pool.Submit(func() {
		defer w.wg.Done()

		result := w.orchestrator.Run(jobCtx, job)
		w.logger.Info().
			Str("task_id", job.TaskID).
			Str("kind", string(job.Kind)).
			Uint("company_id", job.CompanyID).
			Bool("success", result.Success).
			Int("errors", len(result.Errors)).
			Msg("job finished")
		_ = d.Ack(false)
	})
	if err != nil {
		w.wg.Done()
		w.logger.Error().Err(err).Str("task_id", job.TaskID).Msg("submit job to pool failed")
		_ = d.Nack(false, true)
	}
}

// Close stops the intake, waits for in-flight jobs to finish and ack, and only
// then closes the channel and releases the pool.
func (w *TaskWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	if w.ch != nil {
		_ = w.ch.Close()
	}
	if w.pool != nil {
		w.pool.Release()
	}
}
