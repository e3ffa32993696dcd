package askdocs

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

// DocumentStore owns the lifecycle of ingested documents inside the
// persistent vector collection. Chunks carry their owning filename in the
// `source` metadata field, so deletion and listing are plain metadata
// lookups.
//
// Writes and reads may interleave; the store layers no locking on top of the
// underlying engines. Concurrent add and delete of the same filename can
// leave the manifest and collection out of step.
type DocumentStore struct {
	db       *chromem.DB
	col      *chromem.Collection
	manifest *manifest
	parser   *ParserManager
	chunker  Chunker
	topK     int
	logger   Logger
}

type storeConfig struct {
	path         string
	collection   string
	chunkSize    int
	chunkOverlap int
	topK         int
	embedding    chromem.EmbeddingFunc
	logger       Logger
}

// StoreOption configures a DocumentStore.
type StoreOption func(*storeConfig)

// WithStorePath sets the directory holding the durable collection and the
// document manifest. An empty path keeps everything in memory.
func WithStorePath(path string) StoreOption {
	return func(c *storeConfig) { c.path = path }
}

// WithCollection overrides the collection name.
func WithCollection(name string) StoreOption {
	return func(c *storeConfig) { c.collection = name }
}

// WithChunking sets the chunk size and overlap in tokens.
func WithChunking(size, overlap int) StoreOption {
	return func(c *storeConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	}
}

// WithTopK sets how many chunks the retriever returns.
func WithTopK(k int) StoreOption {
	return func(c *storeConfig) { c.topK = k }
}

// WithEmbedding sets the embedding function used for chunks and queries.
func WithEmbedding(fn chromem.EmbeddingFunc) StoreOption {
	return func(c *storeConfig) { c.embedding = fn }
}

// WithOpenAIEmbedding embeds via the OpenAI API with the given model.
func WithOpenAIEmbedding(apiKey, model string) StoreOption {
	return func(c *storeConfig) {
		c.embedding = chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(model))
	}
}

// WithStoreLogger sets the logger used by the store and its retriever.
func WithStoreLogger(l Logger) StoreOption {
	return func(c *storeConfig) { c.logger = l }
}

// NewDocumentStore opens (or creates) the collection and its manifest.
// An embedding function is required.
func NewDocumentStore(opts ...StoreOption) (*DocumentStore, error) {
	cfg := &storeConfig{
		collection:   "knowledge_base",
		chunkSize:    1000,
		chunkOverlap: 200,
		topK:         5,
		logger:       GlobalLogger,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.embedding == nil {
		return nil, fmt.Errorf("an embedding function is required")
	}

	var db *chromem.DB
	var err error
	if cfg.path != "" {
		db, err = chromem.NewPersistentDB(cfg.path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store at %s: %w", cfg.path, err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(cfg.collection, nil, cfg.embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", cfg.collection, err)
	}

	mf, err := openManifest(cfg.path)
	if err != nil {
		return nil, err
	}

	chunker, err := NewChunker(ChunkSize(cfg.chunkSize), ChunkOverlap(cfg.chunkOverlap))
	if err != nil {
		mf.Close()
		return nil, err
	}

	return &DocumentStore{
		db:       db,
		col:      col,
		manifest: mf,
		parser:   NewParser(),
		chunker:  chunker,
		topK:     cfg.topK,
		logger:   cfg.logger,
	}, nil
}

// AddDocument parses the file at path, splits it into chunks tagged with
// source=filename, and appends them to the collection. Failures are reported
// through the returned Status so the caller can keep operating.
func (s *DocumentStore) AddDocument(ctx context.Context, path, filename string) Status {
	doc, err := s.parser.Parse(path)
	if err != nil {
		return failuref("failed to read %s: %v", filename, err)
	}

	chunks := s.chunker.Chunk(doc.Content)
	if len(chunks) == 0 {
		return failuref("no text extracted from %s", filename)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      uuid.NewString(),
			Content: chunk.Text,
			Metadata: map[string]string{
				"source": filename,
			},
		}
	}

	if err := s.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return failuref("failed to store %s: %v", filename, err)
	}

	if err := s.manifest.Add(ctx, filename, len(chunks)); err != nil {
		return failuref("failed to record %s: %v", filename, err)
	}

	s.logger.Info("added document", "source", filename, "chunks", len(chunks))
	return successf("Successfully added %s (%d chunks).", filename, len(chunks))
}

// ListDocuments returns the distinct source filenames currently in the
// collection, sorted, without duplicates. A read failure is logged and
// surfaces as an empty list.
func (s *DocumentStore) ListDocuments(ctx context.Context) []string {
	filenames, err := s.manifest.List(ctx)
	if err != nil {
		s.logger.Warn("failed to list documents", "error", err)
		return []string{}
	}
	if filenames == nil {
		filenames = []string{}
	}
	return filenames
}

// DeleteDocument removes every chunk whose source metadata equals filename.
// An unknown filename is a defined not-found status, not an error.
func (s *DocumentStore) DeleteDocument(ctx context.Context, filename string) Status {
	known, err := s.manifest.Has(ctx, filename)
	if err != nil {
		return failuref("failed to look up %s: %v", filename, err)
	}
	if !known {
		return failuref("File not found in database.")
	}

	if err := s.col.Delete(ctx, map[string]string{"source": filename}, nil); err != nil {
		return failuref("failed to delete %s: %v", filename, err)
	}

	if err := s.manifest.Remove(ctx, filename); err != nil {
		return failuref("failed to unrecord %s: %v", filename, err)
	}

	s.logger.Info("deleted document", "source", filename)
	return successf("Deleted %s.", filename)
}

// Retriever returns the similarity-search accessor over the collection,
// configured for the store's top-k.
func (s *DocumentStore) Retriever() *Retriever {
	return &Retriever{col: s.col, topK: s.topK, logger: s.logger}
}

// ChunkCount reports how many chunks the collection currently holds.
func (s *DocumentStore) ChunkCount() int {
	return s.col.Count()
}

// Close releases the manifest database. The vector store itself needs no
// explicit shutdown.
func (s *DocumentStore) Close() error {
	return s.manifest.Close()
}
