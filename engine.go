package askdocs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teilomillet/gollm"
)

// promptForInput is returned for empty queries, without touching retrieval
// or generation.
const promptForInput = "What would you like to know?"

const answerPrompt = `You are an assistant for question-answering tasks.
Your goal is to answer the user's question based strictly on the provided context below.

Guidelines:
1. Context Only: Do not use your internal knowledge or training data. If the answer is not in the context, say that you don't have any information about this.
2. Format: Answer concise and direct. Do not use phrases like "Based on the provided text".

<context>
%s
</context>

Question: %s`

const rewritePrompt = `Rewrite the following question so it retrieves well from a document collection: remove filler words and make it keyword-rich. Do not answer it and do not add information it does not contain. Return only the rewritten question.

Question: %s`

// Generator is the narrow port through which the engine talks to a language
// model. The production implementation wraps gollm; tests inject fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type gollmGenerator struct {
	llm gollm.LLM
}

func (g *gollmGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.llm.Generate(ctx, gollm.NewPrompt(prompt))
}

// NewOpenAIGenerator builds the production Generator on top of gollm,
// retrying transient failures and bounding each call by timeout.
func NewOpenAIGenerator(apiKey, model string, temperature float64, maxRetries int, timeout time.Duration) (Generator, error) {
	llm, err := gollm.NewLLM(
		gollm.SetProvider("openai"),
		gollm.SetModel(model),
		gollm.SetAPIKey(apiKey),
		gollm.SetTemperature(temperature),
		gollm.SetMaxRetries(maxRetries),
		gollm.SetRetryDelay(2*time.Second),
		gollm.SetTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return &gollmGenerator{llm: llm}, nil
}

// Answer is a generated response together with the chunks it was grounded
// on, in retrieval order.
type Answer struct {
	Text   string
	Chunks []RetrievedChunk
}

// Engine turns a user query into a grounded answer: optional rewrite, then
// retrieve, format the context block, and generate. The engine is stateless
// between calls; independent queries may run concurrently.
type Engine struct {
	retriever *Retriever
	generator Generator
	rewrite   bool
	timeout   time.Duration
	logger    Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRewrite enables the query-rewrite step before retrieval.
func WithRewrite(enabled bool) EngineOption {
	return func(e *Engine) { e.rewrite = enabled }
}

// WithTimeout bounds each ask, rewrite and retrieval included. Zero means
// no deadline.
func WithTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) { e.timeout = timeout }
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine answering from the given store through the
// given generator.
func NewEngine(store *DocumentStore, generator Generator, opts ...EngineOption) *Engine {
	e := &Engine{
		retriever: store.Retriever(),
		generator: generator,
		logger:    GlobalLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ask answers the query. It never fails: pipeline errors come back as a
// descriptive answer string.
func (e *Engine) Ask(ctx context.Context, query string) string {
	return e.AskWithSources(ctx, query).Text
}

// AskWithSources answers the query and also returns the retrieved chunks,
// for callers that score or display the supporting context.
func (e *Engine) AskWithSources(ctx context.Context, query string) Answer {
	if strings.TrimSpace(query) == "" {
		return Answer{Text: promptForInput}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	searchQuery := query
	if e.rewrite {
		searchQuery = e.rewriteQuery(ctx, query)
	}

	chunks, err := e.retriever.Retrieve(ctx, searchQuery)
	if err != nil {
		e.logger.Error("retrieval failed", "query", query, "error", err)
		return Answer{Text: fmt.Sprintf("Error generating response: %v", err)}
	}

	prompt := fmt.Sprintf(answerPrompt, formatChunks(chunks), query)
	text, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		e.logger.Error("generation failed", "query", query, "error", err)
		return Answer{Text: fmt.Sprintf("Error generating response: %v", err), Chunks: chunks}
	}

	return Answer{Text: strings.TrimSpace(text), Chunks: chunks}
}

// AskAsync runs AskWithSources without blocking the caller. Exactly one
// Answer is delivered on the returned channel, then it is closed.
func (e *Engine) AskAsync(ctx context.Context, query string) <-chan Answer {
	out := make(chan Answer, 1)
	go func() {
		defer close(out)
		out <- e.AskWithSources(ctx, query)
	}()
	return out
}

// rewriteQuery makes the query retrieval-friendly. It fails soft: on any
// error, or an empty rewrite, the original query is used unchanged.
func (e *Engine) rewriteQuery(ctx context.Context, query string) string {
	rewritten, err := e.generator.Generate(ctx, fmt.Sprintf(rewritePrompt, query))
	if err != nil {
		e.logger.Warn("query rewrite failed, using original query", "error", err)
		return query
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return query
	}
	e.logger.Debug("rewrote query", "original", query, "rewritten", rewritten)
	return rewritten
}

// formatChunks joins chunk texts into a single context block, separated by
// blank lines, preserving retrieval order.
func formatChunks(chunks []RetrievedChunk) string {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	return strings.Join(texts, "\n\n")
}
