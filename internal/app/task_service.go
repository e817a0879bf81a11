package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nikcet/ycla-ai-chat/internal/extract"
	"github.com/Nikcet/ycla-ai-chat/internal/task"
)

// JobQueue is the enqueue side of the durable job queue.
type JobQueue interface {
	Publish(ctx context.Context, job task.Job) error
}

// TaskStore is the submission-side slice of the task result store.
type TaskStore interface {
	SavePending(ctx context.Context, taskID string) error
	Get(ctx context.Context, taskID string) (*task.StatusRecord, error)
}

// TaskService validates submissions synchronously and hands accepted jobs to
// the queue. It never waits for a job to run.
type TaskService struct {
	queue        JobQueue
	store        TaskStore
	maxFileBytes int64
}

func NewTaskService(queue JobQueue, store TaskStore, maxFileBytes int64) *TaskService {
	if maxFileBytes <= 0 {
		maxFileBytes = 10 << 20
	}
	return &TaskService{
		queue:        queue,
		store:        store,
		maxFileBytes: maxFileBytes,
	}
}

type UploadFile struct {
	Name string
	Data []byte
}

// SubmitIngest rejects bad files before any task exists: violations are
// client errors, not task failures.
func (s *TaskService) SubmitIngest(ctx context.Context, companyID uint, files []UploadFile, callbackURL string) (string, error) {
	if companyID == 0 || len(files) == 0 {
		return "", ErrInvalidInput
	}
	for _, f := range files {
		if !extract.Supported(f.Name) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, f.Name)
		}
		if int64(len(f.Data)) > s.maxFileBytes {
			return "", fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name)
		}
		if len(f.Data) == 0 {
			return "", fmt.Errorf("%w: %s is empty", ErrInvalidInput, f.Name)
		}
	}

	payloads := make([]task.FilePayload, 0, len(files))
	for _, f := range files {
		payloads = append(payloads, task.FilePayload{Name: f.Name, Data: f.Data})
	}

	return s.submit(ctx, task.Job{
		TaskID:      task.NewTaskID(),
		Kind:        task.KindIngest,
		CompanyID:   companyID,
		CallbackURL: strings.TrimSpace(callbackURL),
		Files:       payloads,
	})
}

// SubmitDelete enqueues deletion of one document, or of all the company's
// documents when documentID is empty.
func (s *TaskService) SubmitDelete(ctx context.Context, companyID uint, documentID, callbackURL string) (string, error) {
	if companyID == 0 {
		return "", ErrInvalidInput
	}
	return s.submit(ctx, task.Job{
		TaskID:      task.NewTaskID(),
		Kind:        task.KindDelete,
		CompanyID:   companyID,
		CallbackURL: strings.TrimSpace(callbackURL),
		DocumentID:  strings.TrimSpace(documentID),
	})
}

func (s *TaskService) SubmitTeardown(ctx context.Context, companyID uint, callbackURL string) (string, error) {
	if companyID == 0 {
		return "", ErrInvalidInput
	}
	return s.submit(ctx, task.Job{
		TaskID:      task.NewTaskID(),
		Kind:        task.KindTeardown,
		CompanyID:   companyID,
		CallbackURL: strings.TrimSpace(callbackURL),
	})
}

func (s *TaskService) GetStatus(ctx context.Context, taskID string) (*task.StatusRecord, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, ErrInvalidInput
	}
	record, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTaskNotFound
	}
	return record, nil
}

func (s *TaskService) submit(ctx context.Context, job task.Job) (string, error) {
	if err := s.store.SavePending(ctx, job.TaskID); err != nil {
		return "", err
	}
	if err := s.queue.Publish(ctx, job); err != nil {
		return "", ErrTaskEnqueue
	}
	return job.TaskID, nil
}
