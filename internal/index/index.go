// Package index is the adapter around the vector store holding document
// chunks. Callers only see the SearchIndex contract; the store itself is
// replaceable.
package index

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// Chunk is the unit stored in the retrieval index: one slice of a document's
// text plus its embedding, tagged with its owning company and document.
type Chunk struct {
	ID         string
	CompanyID  string
	DocumentID string
	Content    string
	Embedding  []float32
}

// Filter selects chunks by exact-match company and, optionally, document id.
type Filter struct {
	CompanyID  string
	DocumentID string
}

type SearchIndex interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	// Delete removes all chunks matching the filter and returns how many
	// were removed. Deleting when nothing matches is a no-op, not an error.
	Delete(ctx context.Context, f Filter) (int, error)
	Search(ctx context.Context, vector []float32, k int, f Filter) ([]Chunk, error)
	Count() int
}

// NewChunkID returns a fresh chunk id with enough entropy that concurrent
// ingest batches for the same company never collide.
func NewChunkID(companyID string) string {
	return fmt.Sprintf("%s-%s", companyID, uuid.NewString())
}

// EncodeKey makes a chunk id safe for index systems that forbid raw separator
// characters in document keys.
func EncodeKey(key string) string {
	return base64.URLEncoding.EncodeToString([]byte(key))
}
