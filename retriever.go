package askdocs

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// RetrievedChunk is one similarity-search hit, ordered by descending
// similarity.
type RetrievedChunk struct {
	Content string
	Source  string
	Score   float64
}

// Retriever runs similarity search over the collection. It is created by
// DocumentStore.Retriever and used by the answer engine.
type Retriever struct {
	col    *chromem.Collection
	topK   int
	logger Logger
}

// Retrieve embeds the query and returns up to topK most similar chunks in
// retrieval order. An empty collection yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]RetrievedChunk, error) {
	// The collection refuses to return more results than it holds.
	k := r.topK
	if count := r.col.Count(); count < k {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := r.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	chunks := make([]RetrievedChunk, len(results))
	for i, res := range results {
		chunks[i] = RetrievedChunk{
			Content: res.Content,
			Source:  res.Metadata["source"],
			Score:   float64(res.Similarity),
		}
	}
	r.logger.Debug("retrieved chunks", "query", query, "count", len(chunks))
	return chunks, nil
}
