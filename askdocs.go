// Package askdocs is a small retrieval-augmented-generation (RAG) core: it
// ingests PDF documents into a persistent vector collection and answers
// questions about them by retrieving the most similar chunks and prompting a
// language model with them.
//
// The package exposes two components. DocumentStore owns the document
// lifecycle (add, list, delete, retrieve) over a durable chromem-go
// collection; Engine composes retrieval and generation into a single ask
// pipeline. Everything else in the repository drives these two.
package askdocs

import (
	"github.com/askdocs/askdocs/config"
)

// OpenStore builds the DocumentStore described by the configuration.
func OpenStore(cfg *config.Config) (*DocumentStore, error) {
	if level, err := ParseLogLevel(cfg.LogLevel); err == nil {
		SetLogLevel(level)
	}
	return NewDocumentStore(
		WithStorePath(cfg.StorePath),
		WithCollection(config.Collection),
		WithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
		WithTopK(cfg.TopK),
		WithOpenAIEmbedding(cfg.APIKey, cfg.EmbeddingModel),
	)
}

// OpenEngine builds the Engine described by the configuration, answering
// from the given store.
func OpenEngine(cfg *config.Config, store *DocumentStore) (*Engine, error) {
	generator, err := NewOpenAIGenerator(cfg.APIKey, cfg.LLMModel, cfg.Temperature, cfg.MaxRetries, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return NewEngine(store, generator,
		WithRewrite(cfg.EnableRewrite),
		WithTimeout(cfg.Timeout),
	), nil
}
