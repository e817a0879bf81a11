package index

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	x, err := NewChromemIndex("", "chunks-test")
	require.NoError(t, err)
	return x
}

func TestUpsertAndSearchFiltersByCompany(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()

	err := x.Upsert(ctx, []Chunk{
		{ID: NewChunkID("1"), CompanyID: "1", DocumentID: "doc-a", Content: "alpha", Embedding: []float32{1, 0, 0}},
		{ID: NewChunkID("1"), CompanyID: "1", DocumentID: "doc-a", Content: "beta", Embedding: []float32{0, 1, 0}},
		{ID: NewChunkID("2"), CompanyID: "2", DocumentID: "doc-b", Content: "gamma", Embedding: []float32{1, 0, 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, x.Count())

	results, err := x.Search(ctx, []float32{1, 0, 0}, 1, Filter{CompanyID: "1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha", results[0].Content)
	assert.Equal(t, "1", results[0].CompanyID)
}

func TestSearchEmptyIndexReturnsNothing(t *testing.T) {
	x := newTestIndex(t)
	results, err := x.Search(context.Background(), []float32{1, 0, 0}, 5, Filter{CompanyID: "1"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteByCompanyAndDocument(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, x.Upsert(ctx, []Chunk{
		{ID: NewChunkID("1"), CompanyID: "1", DocumentID: "doc-a", Content: "a", Embedding: []float32{1, 0, 0}},
		{ID: NewChunkID("1"), CompanyID: "1", DocumentID: "doc-b", Content: "b", Embedding: []float32{0, 1, 0}},
		{ID: NewChunkID("2"), CompanyID: "2", DocumentID: "doc-c", Content: "c", Embedding: []float32{0, 0, 1}},
	}))

	affected, err := x.Delete(ctx, Filter{CompanyID: "1", DocumentID: "doc-a"})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)
	assert.Equal(t, 2, x.Count())

	affected, err = x.Delete(ctx, Filter{CompanyID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)
	assert.Equal(t, 1, x.Count())
}

func TestDeleteOnEmptyIndexIsNoOp(t *testing.T) {
	x := newTestIndex(t)
	affected, err := x.Delete(context.Background(), Filter{CompanyID: "1"})
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestDeleteWithoutFilterRejected(t *testing.T) {
	x := newTestIndex(t)
	_, err := x.Delete(context.Background(), Filter{})
	require.Error(t, err)
}

func TestChunkIDsAreUniqueAndURLSafe(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewChunkID("42")
		assert.False(t, seen[id])
		seen[id] = true
	}

	encoded := EncodeKey(NewChunkID("42"))
	assert.False(t, strings.ContainsAny(encoded, "/+ "))
}
