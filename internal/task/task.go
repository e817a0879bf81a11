// Package task runs the asynchronous document-lifecycle jobs: ingest, bulk
// delete, and company teardown. Jobs travel through a durable queue, execute
// on a worker pool, and always end in a stored result plus a best-effort
// webhook notification.
package task

import "github.com/google/uuid"

type Kind string

const (
	KindIngest   Kind = "ingest"
	KindDelete   Kind = "delete"
	KindTeardown Kind = "teardown"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Task is the structured result of one background job. It is terminal once
// the job returns; until then the status endpoint reports pending.
type Task struct {
	ID        string          `json:"task_id"`
	CompanyID uint            `json:"company_id"`
	Success   bool            `json:"success"`
	Errors    []string        `json:"errors"`
	Details   map[string]bool `json:"details"`
}

func New(id string, companyID uint) *Task {
	return &Task{
		ID:        id,
		CompanyID: companyID,
		Errors:    []string{},
		Details:   map[string]bool{},
	}
}

func (t *Task) Status() Status {
	if t.Success {
		return StatusSuccess
	}
	return StatusFailure
}

// FilePayload is one uploaded file carried inside a job envelope.
// Data is base64-encoded on the wire by encoding/json.
type FilePayload struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Job is the queue envelope for one task.
type Job struct {
	TaskID      string        `json:"task_id"`
	Kind        Kind          `json:"kind"`
	CompanyID   uint          `json:"company_id"`
	CallbackURL string        `json:"callback_url,omitempty"`
	Files       []FilePayload `json:"files,omitempty"`
	DocumentID  string        `json:"document_id,omitempty"`
}

func NewTaskID() string {
	return uuid.NewString()
}
