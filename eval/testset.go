// Package eval generates synthetic question/answer test sets from an
// ingested corpus and scores the answer engine's live output with LLM judge
// metrics.
//
// The harness is deliberately peripheral: it only consumes the engine's
// async ask. It is not production-hardened and is sensitive to provider API
// limits, which is why every model call goes through a rate limiter.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/askdocs/askdocs"
)

// Sample is one test-set row: a question, the expected answer, and the
// reference supporting text.
type Sample struct {
	UserInput         string   `json:"user_input"`
	Reference         string   `json:"reference"`
	RetrievedContexts []string `json:"retrieved_contexts"`
}

// LoadTestset reads a JSON test set from disk.
func LoadTestset(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test set %s: %w", path, err)
	}
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse test set %s: %w", path, err)
	}
	return samples, nil
}

// SaveTestset writes the samples as an indented JSON array.
func SaveTestset(path string, samples []Sample) error {
	data, err := json.MarshalIndent(samples, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode test set: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write test set %s: %w", path, err)
	}
	return nil
}

const questionPrompt = `Read the following passage from a document and write one specific question that the passage answers, together with the correct answer.

Respond with a JSON object only, no prose and no code fences:
{"question": "...", "answer": "..."}

<passage>
%s
</passage>`

// TestsetGenerator builds synthetic samples by asking a language model to
// write a question/answer pair for individual document chunks.
type TestsetGenerator struct {
	generator askdocs.Generator
	parser    *askdocs.ParserManager
	chunker   askdocs.Chunker
	limiter   *rate.Limiter
	logger    askdocs.Logger
}

// NewTestsetGenerator creates a generator chunking documents with the given
// size and overlap.
func NewTestsetGenerator(generator askdocs.Generator, chunkSize, chunkOverlap int) (*TestsetGenerator, error) {
	chunker, err := askdocs.NewChunker(askdocs.ChunkSize(chunkSize), askdocs.ChunkOverlap(chunkOverlap))
	if err != nil {
		return nil, err
	}
	return &TestsetGenerator{
		generator: generator,
		parser:    askdocs.NewParser(),
		chunker:   chunker,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		logger:    askdocs.GlobalLogger,
	}, nil
}

// Generate loads every PDF under docsDir and produces up to size samples,
// spread evenly across the corpus chunks.
func (g *TestsetGenerator) Generate(ctx context.Context, docsDir string, size int) ([]Sample, error) {
	paths, err := filepath.Glob(filepath.Join(docsDir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", docsDir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no PDF documents found in %s", docsDir)
	}

	var contexts []string
	for _, path := range paths {
		doc, err := g.parser.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		for _, chunk := range g.chunker.Chunk(doc.Content) {
			contexts = append(contexts, chunk.Text)
		}
	}
	if len(contexts) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", docsDir)
	}

	if size <= 0 || size > len(contexts) {
		size = len(contexts)
	}
	step := len(contexts) / size

	var samples []Sample
	for i := 0; i < size; i++ {
		passage := contexts[i*step]

		if err := g.limiter.Wait(ctx); err != nil {
			return samples, err
		}
		raw, err := g.generator.Generate(ctx, fmt.Sprintf(questionPrompt, passage))
		if err != nil {
			return samples, fmt.Errorf("failed to generate sample %d: %w", i+1, err)
		}

		var pair struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		}
		if err := json.Unmarshal([]byte(stripCodeFences(raw)), &pair); err != nil {
			g.logger.Warn("skipping malformed testset row", "row", i+1, "error", err)
			continue
		}
		if pair.Question == "" || pair.Answer == "" {
			g.logger.Warn("skipping incomplete testset row", "row", i+1)
			continue
		}

		samples = append(samples, Sample{
			UserInput:         pair.Question,
			Reference:         pair.Answer,
			RetrievedContexts: []string{passage},
		})
	}

	g.logger.Info("generated test set", "samples", len(samples), "documents", len(paths))
	return samples, nil
}

// stripCodeFences unwraps model output that arrives inside a fenced code
// block despite the prompt asking for bare JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
