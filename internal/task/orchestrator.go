package task

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nikcet/ycla-ai-chat/internal/extract"
	"github.com/Nikcet/ycla-ai-chat/internal/index"
	"github.com/Nikcet/ycla-ai-chat/internal/model"
)

const (
	teardownMaxAttempts    = 3
	defaultTeardownBackoff = 2 * time.Second
)

// Embedder is the slice of the provider gateway the orchestrator needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ResultStore persists task outcomes for the polling endpoint.
type ResultStore interface {
	SaveResult(ctx context.Context, t *Task) error
}

// Notifier delivers the final task result to the caller's webhook.
type Notifier interface {
	Notify(ctx context.Context, callbackURL string, t *Task) error
}

// DocumentStore is the relational metadata surface the jobs touch.
type DocumentStore interface {
	Create(doc *model.Document) error
	DeleteByDocID(companyID uint, docID string) error
	DeleteByCompanyID(companyID uint) error
}

type PromptStore interface {
	DeleteByCompanyID(companyID uint) error
}

type CompanyStore interface {
	GetByID(id uint) (*model.Company, error)
	Delete(id uint) error
}

// Orchestrator executes one job at a time. Sub-step failures accumulate in
// the task's errors and details; every exit path saves a result and attempts
// the webhook.
type Orchestrator struct {
	store     ResultStore
	notifier  Notifier
	search    index.SearchIndex
	embedder  Embedder
	documents DocumentStore
	prompts   PromptStore
	companies CompanyStore
	chunkSize int
	logger    zerolog.Logger

	// teardownBackoff spaces retry attempts; tests shrink it.
	teardownBackoff time.Duration
}

func NewOrchestrator(
	store ResultStore,
	notifier Notifier,
	search index.SearchIndex,
	embedder Embedder,
	documents DocumentStore,
	prompts PromptStore,
	companies CompanyStore,
	chunkSize int,
	logger zerolog.Logger,
) *Orchestrator {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &Orchestrator{
		store:           store,
		notifier:        notifier,
		search:          search,
		embedder:        embedder,
		documents:       documents,
		prompts:         prompts,
		companies:       companies,
		chunkSize:       chunkSize,
		logger:          logger,
		teardownBackoff: defaultTeardownBackoff,
	}
}

// Run executes the job and always finishes with a stored result plus a
// notification attempt, whatever happened in between.
func (o *Orchestrator) Run(ctx context.Context, job Job) *Task {
	t := New(job.TaskID, job.CompanyID)

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Success = false
				t.Errors = append(t.Errors, fmt.Sprintf("job panicked: %v", r))
				o.logger.Error().Str("task_id", job.TaskID).Interface("panic", r).Msg("job panicked")
			}
		}()

		switch job.Kind {
		case KindIngest:
			o.runIngest(ctx, job, t)
		case KindDelete:
			o.runDelete(ctx, job, t)
		case KindTeardown:
			o.runTeardown(ctx, job, t)
		default:
			t.Errors = append(t.Errors, fmt.Sprintf("unknown job kind: %s", job.Kind))
		}
	}()

	if err := o.store.SaveResult(ctx, t); err != nil {
		o.logger.Error().Err(err).Str("task_id", t.ID).Msg("save task result failed")
	}

	if job.CallbackURL != "" {
		if err := o.notifier.Notify(ctx, job.CallbackURL, t); err != nil {
			o.logger.Warn().Err(err).Str("task_id", t.ID).Msg("webhook delivery failed")
			t.Errors = append(t.Errors, fmt.Sprintf("webhook delivery failed: %v", err))
			if err := o.store.SaveResult(ctx, t); err != nil {
				o.logger.Error().Err(err).Str("task_id", t.ID).Msg("save task result failed")
			}
		}
	}
	return t
}

// runIngest processes each file independently: one bad file records an error
// and the batch moves on. The task succeeds only when every file got at
// least one chunk into the index.
func (o *Orchestrator) runIngest(ctx context.Context, job Job, t *Task) {
	t.Success = true
	for _, file := range job.Files {
		count, err := o.ingestFile(ctx, job.CompanyID, file)
		if err != nil {
			o.logger.Warn().Err(err).Str("task_id", t.ID).Str("file", file.Name).Msg("ingest file failed")
			t.Errors = append(t.Errors, fmt.Sprintf("%s: %v", file.Name, err))
			t.Details[file.Name] = false
			t.Success = false
			continue
		}
		t.Details[file.Name] = true
		o.logger.Info().Str("task_id", t.ID).Str("file", file.Name).Int("chunks", count).Msg("file indexed")
	}
}

func (o *Orchestrator) ingestFile(ctx context.Context, companyID uint, file FilePayload) (int, error) {
	text, err := extract.Extract(file.Data, file.Name)
	if err != nil {
		return 0, err
	}
	if text == "" {
		return 0, fmt.Errorf("no text extracted")
	}

	companyKey := strconv.FormatUint(uint64(companyID), 10)
	docID := index.NewChunkID(companyKey)

	chunks := splitText(text, o.chunkSize)
	batch := make([]index.Chunk, 0, len(chunks))
	for i, content := range chunks {
		vec, err := o.embedder.Embed(ctx, content)
		if err != nil {
			// One failed chunk is dropped, not fatal for the document.
			o.logger.Warn().Err(err).Str("file", file.Name).Int("chunk", i).Msg("embed chunk failed, dropping")
			continue
		}
		batch = append(batch, index.Chunk{
			ID:         index.NewChunkID(companyKey),
			CompanyID:  companyKey,
			DocumentID: docID,
			Content:    content,
			Embedding:  vec,
		})
	}
	if len(batch) == 0 {
		return 0, fmt.Errorf("no chunks indexed")
	}

	if err := o.search.Upsert(ctx, batch); err != nil {
		return 0, err
	}

	doc := &model.Document{
		CompanyID:  companyID,
		DocID:      docID,
		Name:       file.Name,
		ChunkCount: len(batch),
	}
	if err := o.documents.Create(doc); err != nil {
		return 0, fmt.Errorf("persist document metadata failed: %w", err)
	}
	return len(batch), nil
}

// runDelete removes chunks from the index first and only then the metadata
// rows. A failed index delete leaves the metadata in place so a retry can
// still find the document.
func (o *Orchestrator) runDelete(ctx context.Context, job Job, t *Task) {
	filter := index.Filter{
		CompanyID:  strconv.FormatUint(uint64(job.CompanyID), 10),
		DocumentID: job.DocumentID,
	}

	affected, err := o.search.Delete(ctx, filter)
	if err != nil {
		t.Errors = append(t.Errors, fmt.Sprintf("index delete failed: %v", err))
		t.Details["index_deleted"] = false
		t.Success = false
		return
	}
	t.Details["index_deleted"] = true
	o.logger.Info().Str("task_id", t.ID).Int("chunks", affected).Msg("index chunks deleted")

	if job.DocumentID != "" {
		err = o.documents.DeleteByDocID(job.CompanyID, job.DocumentID)
	} else {
		err = o.documents.DeleteByCompanyID(job.CompanyID)
	}
	if err != nil {
		t.Errors = append(t.Errors, fmt.Sprintf("metadata delete failed: %v", err))
		t.Details["metadata_deleted"] = false
		t.Success = false
		return
	}
	t.Details["metadata_deleted"] = true
	t.Success = true
}

// runTeardown attempts the three-step company removal up to three times with
// a fixed backoff; each attempt reruns all steps since every one is an
// idempotent delete.
func (o *Orchestrator) runTeardown(ctx context.Context, job Job, t *Task) {
	for attempt := 1; attempt <= teardownMaxAttempts; attempt++ {
		t.Errors = t.Errors[:0]
		o.teardownOnce(ctx, job, t)
		if t.Success {
			return
		}
		o.logger.Warn().Str("task_id", t.ID).Int("attempt", attempt).Strs("errors", t.Errors).Msg("teardown attempt failed")
		if attempt < teardownMaxAttempts {
			select {
			case <-ctx.Done():
				t.Errors = append(t.Errors, fmt.Sprintf("teardown aborted: %v", ctx.Err()))
				return
			case <-time.After(o.teardownBackoff):
			}
		}
	}
}

func (o *Orchestrator) teardownOnce(ctx context.Context, job Job, t *Task) {
	companyKey := strconv.FormatUint(uint64(job.CompanyID), 10)

	docsOK := true
	if _, err := o.search.Delete(ctx, index.Filter{CompanyID: companyKey}); err != nil {
		t.Errors = append(t.Errors, fmt.Sprintf("delete documents failed: %v", err))
		docsOK = false
	} else if err := o.documents.DeleteByCompanyID(job.CompanyID); err != nil {
		t.Errors = append(t.Errors, fmt.Sprintf("delete document metadata failed: %v", err))
		docsOK = false
	}
	t.Details["documents_deleted"] = docsOK

	promptsOK := true
	if err := o.prompts.DeleteByCompanyID(job.CompanyID); err != nil {
		t.Errors = append(t.Errors, fmt.Sprintf("delete admin prompt failed: %v", err))
		promptsOK = false
	}
	t.Details["prompts_deleted"] = promptsOK

	companyOK := false
	company, err := o.companies.GetByID(job.CompanyID)
	switch {
	case err != nil:
		t.Errors = append(t.Errors, fmt.Sprintf("load company failed: %v", err))
	case company == nil:
		t.Errors = append(t.Errors, fmt.Sprintf("company %d not found", job.CompanyID))
	default:
		if err := o.companies.Delete(job.CompanyID); err != nil {
			t.Errors = append(t.Errors, fmt.Sprintf("delete company failed: %v", err))
		} else {
			companyOK = true
		}
	}
	t.Details["company_deleted"] = companyOK

	t.Success = docsOK && promptsOK && companyOK
}

// splitText slices text into fixed-size rune windows, no overlap.
func splitText(text string, size int) []string {
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
