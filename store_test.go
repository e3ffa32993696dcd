package askdocs

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedding maps text to a deterministic unit vector so store tests run
// without network access. Identical texts always embed identically.
func testEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		v := make([]float32, 16)
		for i, r := range text {
			v[i%16] += float32(r % 97)
		}
		var norm float64
		for _, x := range v {
			norm += float64(x * x)
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}
		for i := range v {
			v[i] = float32(float64(v[i]) / norm)
		}
		return v, nil
	}
}

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	store, err := NewDocumentStore(
		WithEmbedding(testEmbedding()),
		WithChunking(50, 10),
		WithTopK(3),
	)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addFixture(t *testing.T, store *DocumentStore, filename, content string) Status {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return store.AddDocument(context.Background(), path, filename)
}

func TestNewDocumentStoreRequiresEmbedding(t *testing.T) {
	_, err := NewDocumentStore()
	require.Error(t, err)
}

func TestAddDocument(t *testing.T) {
	store := newTestStore(t)

	status := addFixture(t, store, "notes.txt", "The mitochondria is the powerhouse of the cell.")
	require.True(t, status.OK())
	assert.Equal(t, fmt.Sprintf("Successfully added notes.txt (%d chunks).", store.ChunkCount()), status.Message)
	assert.Greater(t, store.ChunkCount(), 0)
}

func TestAddPDFDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	status := store.AddDocument(ctx, filepath.Join("testdata", "sample.pdf"), "sample.pdf")
	require.True(t, status.OK())
	assert.Contains(t, status.Message, "Successfully added sample.pdf")
	assert.Equal(t, []string{"sample.pdf"}, store.ListDocuments(ctx))

	chunks, err := store.Retriever().Retrieve(ctx, "Whales are the largest marine mammals.")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "sample.pdf", chunks[0].Source)
	assert.Contains(t, chunks[0].Content, "marine mammals")
}

func TestAddDocumentMissingFile(t *testing.T) {
	store := newTestStore(t)

	status := store.AddDocument(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), "absent.txt")
	assert.False(t, status.OK())
	assert.Equal(t, -1, status.Code)
	assert.Equal(t, 0, store.ChunkCount())
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Equal(t, []string{}, store.ListDocuments(ctx))

	addFixture(t, store, "zebra.txt", "Zebras have stripes.")
	addFixture(t, store, "alpha.txt", "Alpacas have wool.")

	assert.Equal(t, []string{"alpha.txt", "zebra.txt"}, store.ListDocuments(ctx))
}

func TestDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, addFixture(t, store, "keep.txt", "Kept content about whales.").OK())
	before := store.ChunkCount()
	require.True(t, addFixture(t, store, "drop.txt", "Dropped content about birds.").OK())

	status := store.DeleteDocument(ctx, "drop.txt")
	require.True(t, status.OK())
	assert.Equal(t, "Deleted drop.txt.", status.Message)
	assert.Equal(t, []string{"keep.txt"}, store.ListDocuments(ctx))
	assert.Equal(t, before, store.ChunkCount())
}

func TestDeleteDocumentNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	addFixture(t, store, "keep.txt", "Kept content.")
	before := store.ChunkCount()

	status := store.DeleteDocument(ctx, "missing.txt")
	assert.False(t, status.OK())
	assert.Equal(t, "File not found in database.", status.Message)
	assert.Equal(t, before, store.ChunkCount())
}

func TestReingestThenDeleteRemovesEveryChunk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, addFixture(t, store, "keep.txt", "Kept content about whales.").OK())
	before := store.ChunkCount()

	require.True(t, addFixture(t, store, "dup.txt", "First version of the text.").OK())
	require.True(t, addFixture(t, store, "dup.txt", "Second, longer version of the same file's text.").OK())

	require.True(t, store.DeleteDocument(ctx, "dup.txt").OK())
	assert.Equal(t, before, store.ChunkCount(), "delete removes chunks from every ingest of the filename")
	assert.Equal(t, []string{"keep.txt"}, store.ListDocuments(ctx))
}

func TestAddDeleteLeavesStoreEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, addFixture(t, store, "only.txt", "The only document in the store.").OK())
	require.True(t, store.DeleteDocument(ctx, "only.txt").OK())

	assert.Equal(t, []string{}, store.ListDocuments(ctx))
	assert.Equal(t, 0, store.ChunkCount())
}

func TestRetrieve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	whales := "Whales are marine mammals that sing."
	birds := "Birds build nests in tall trees."
	require.True(t, addFixture(t, store, "whales.txt", whales).OK())
	require.True(t, addFixture(t, store, "birds.txt", birds).OK())

	chunks, err := store.Retriever().Retrieve(ctx, whales)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "whales.txt", chunks[0].Source)
	assert.Contains(t, chunks[0].Content, "Whales")
	assert.InDelta(t, 1.0, float64(chunks[0].Score), 0.001)
}

func TestRetrieveEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	chunks, err := store.Retriever().Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveClampsTopKToStoredChunks(t *testing.T) {
	store := newTestStore(t)

	require.True(t, addFixture(t, store, "tiny.txt", "One short sentence.").OK())

	chunks, err := store.Retriever().Retrieve(context.Background(), "short")
	require.NoError(t, err)
	assert.Len(t, chunks, store.ChunkCount())
}
