package askdocs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	prompts []string
	reply   func(prompt string) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.reply != nil {
		return f.reply(prompt)
	}
	return "generated answer", nil
}

func newTestEngine(t *testing.T, gen Generator, opts ...EngineOption) (*Engine, *DocumentStore) {
	t.Helper()
	store := newTestStore(t)
	return NewEngine(store, gen, opts...), store
}

func TestAskEmptyQuery(t *testing.T) {
	gen := &fakeGenerator{}
	engine, _ := newTestEngine(t, gen)

	assert.Equal(t, "What would you like to know?", engine.Ask(context.Background(), "   "))
	assert.Empty(t, gen.prompts, "empty query must not reach the generator")
}

func TestAskBuildsGroundedPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	engine, store := newTestEngine(t, gen)
	require.True(t, addFixture(t, store, "whales.txt", "Whales are marine mammals that sing.").OK())

	answer := engine.Ask(context.Background(), "What do whales do?")
	assert.Equal(t, "generated answer", answer)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Whales are marine mammals")
	assert.Contains(t, prompt, "What do whales do?")
	assert.Contains(t, prompt, "don't have any information")
}

func TestAskGenerationError(t *testing.T) {
	gen := &fakeGenerator{reply: func(string) (string, error) {
		return "", errors.New("rate limited")
	}}
	engine, store := newTestEngine(t, gen)
	require.True(t, addFixture(t, store, "notes.txt", "Some indexed text.").OK())

	answer := engine.AskWithSources(context.Background(), "anything")
	assert.Equal(t, "Error generating response: rate limited", answer.Text)
	assert.NotEmpty(t, answer.Chunks, "retrieved chunks survive a generation failure")
}

func TestAskWithSourcesReturnsChunks(t *testing.T) {
	gen := &fakeGenerator{}
	engine, store := newTestEngine(t, gen)
	require.True(t, addFixture(t, store, "whales.txt", "Whales are marine mammals that sing.").OK())

	answer := engine.AskWithSources(context.Background(), "Whales are marine mammals that sing.")
	require.NotEmpty(t, answer.Chunks)
	assert.Equal(t, "whales.txt", answer.Chunks[0].Source)
}

func TestRewriteFailsSoftToOriginalQuery(t *testing.T) {
	gen := &fakeGenerator{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Rewrite the following question") {
			return "", errors.New("rewrite model down")
		}
		return "answer despite failed rewrite", nil
	}}
	engine, store := newTestEngine(t, gen, WithRewrite(true))
	require.True(t, addFixture(t, store, "notes.txt", "Some indexed text.").OK())

	answer := engine.Ask(context.Background(), "original question?")
	assert.Equal(t, "answer despite failed rewrite", answer)
}

func TestRewriteEmptyOutputKeepsOriginalQuery(t *testing.T) {
	gen := &fakeGenerator{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Rewrite the following question") {
			return "   ", nil
		}
		return "answer", nil
	}}
	engine, store := newTestEngine(t, gen, WithRewrite(true))
	require.True(t, addFixture(t, store, "notes.txt", "Some indexed text.").OK())

	assert.Equal(t, "answer", engine.Ask(context.Background(), "original question?"))

	// Both calls happened: the failed rewrite, then the answer built on the
	// original question.
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "original question?")
}

func TestRewriteDisabledByDefault(t *testing.T) {
	gen := &fakeGenerator{}
	engine, store := newTestEngine(t, gen)
	require.True(t, addFixture(t, store, "notes.txt", "Some indexed text.").OK())

	engine.Ask(context.Background(), "a question")
	require.Len(t, gen.prompts, 1)
	assert.NotContains(t, gen.prompts[0], "Rewrite the following question")
}

type stalledGenerator struct{}

func (stalledGenerator) Generate(ctx context.Context, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(5 * time.Second):
		return "too late", nil
	}
}

func TestAskTimeoutBoundsStalledGeneration(t *testing.T) {
	engine, store := newTestEngine(t, stalledGenerator{}, WithTimeout(20*time.Millisecond))
	require.True(t, addFixture(t, store, "notes.txt", "Some indexed text.").OK())

	start := time.Now()
	answer := engine.Ask(context.Background(), "a question")
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "Error generating response: context deadline exceeded", answer)
}

type deadlineRecorder struct{ hasDeadline bool }

func (d *deadlineRecorder) Generate(ctx context.Context, _ string) (string, error) {
	_, d.hasDeadline = ctx.Deadline()
	return "done", nil
}

func TestAskWithoutTimeoutLeavesContextUnbounded(t *testing.T) {
	gen := &deadlineRecorder{}
	engine, store := newTestEngine(t, gen)
	require.True(t, addFixture(t, store, "notes.txt", "Some indexed text.").OK())

	assert.Equal(t, "done", engine.Ask(context.Background(), "a question"))
	assert.False(t, gen.hasDeadline)
}

func TestAskAsyncDeliversOneAnswer(t *testing.T) {
	gen := &fakeGenerator{}
	engine, store := newTestEngine(t, gen)
	require.True(t, addFixture(t, store, "notes.txt", "Some indexed text.").OK())

	ch := engine.AskAsync(context.Background(), "a question")
	answer, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, "generated answer", answer.Text)

	_, ok = <-ch
	assert.False(t, ok, "channel closes after one answer")
}
