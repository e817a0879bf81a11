package index

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

const (
	metaCompanyID  = "company_id"
	metaDocumentID = "document_id"
)

// ChromemIndex implements SearchIndex on an embedded chromem-go collection.
// Embeddings are always supplied by the caller, so the collection is created
// with a no-op embedding function.
type ChromemIndex struct {
	mu         sync.Mutex
	collection *chromem.Collection
}

func NewChromemIndex(path, collectionName string) (*ChromemIndex, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open index db failed: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("open index collection failed: %w", err)
	}
	return &ChromemIndex{collection: collection}, nil
}

func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("index requires precomputed embeddings")
}

func (x *ChromemIndex) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, chromem.Document{
			ID: EncodeKey(c.ID),
			Metadata: map[string]string{
				metaCompanyID:  c.CompanyID,
				metaDocumentID: c.DocumentID,
			},
			Content:   c.Content,
			Embedding: c.Embedding,
		})
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("index upsert failed: %w", err)
	}
	return nil
}

func (x *ChromemIndex) Delete(ctx context.Context, f Filter) (int, error) {
	where := whereClause(f)
	if len(where) == 0 {
		return 0, fmt.Errorf("index delete requires a filter")
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	before := x.collection.Count()
	if before == 0 {
		return 0, nil
	}
	if err := x.collection.Delete(ctx, where, nil); err != nil {
		return 0, fmt.Errorf("index delete failed: %w", err)
	}
	return before - x.collection.Count(), nil
}

func (x *ChromemIndex) Search(ctx context.Context, vector []float32, k int, f Filter) ([]Chunk, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	// chromem rejects queries asking for more results than the collection holds.
	if total := x.collection.Count(); k > total {
		k = total
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := x.collection.QueryEmbedding(ctx, vector, k, whereClause(f), nil)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	chunks := make([]Chunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, Chunk{
			ID:         r.ID,
			CompanyID:  r.Metadata[metaCompanyID],
			DocumentID: r.Metadata[metaDocumentID],
			Content:    r.Content,
			Embedding:  r.Embedding,
		})
	}
	return chunks, nil
}

func (x *ChromemIndex) Count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collection.Count()
}

func whereClause(f Filter) map[string]string {
	where := map[string]string{}
	if f.CompanyID != "" {
		where[metaCompanyID] = f.CompanyID
	}
	if f.DocumentID != "" {
		where[metaDocumentID] = f.DocumentID
	}
	return where
}
