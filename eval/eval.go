package eval

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/askdocs/askdocs"
)

// Asker is the engine surface the harness consumes: an async ask that
// returns the answer together with the retrieved chunks.
type Asker interface {
	AskAsync(ctx context.Context, query string) <-chan askdocs.Answer
}

// Scores holds the five judge metrics, each in [0, 1].
type Scores struct {
	Faithfulness      float64 `json:"faithfulness"`
	AnswerRelevancy   float64 `json:"answer_relevancy"`
	ContextPrecision  float64 `json:"context_precision"`
	ContextRecall     float64 `json:"context_recall"`
	AnswerCorrectness float64 `json:"answer_correctness"`
}

// Result is one scored test-set row.
type Result struct {
	Sample
	Response          string   `json:"response"`
	RetrievedContexts []string `json:"live_retrieved_contexts"`
	Scores            Scores   `json:"scores"`
}

// Evaluator pipelines test-set rows through the engine and scores each
// answer with independent judge prompts.
type Evaluator struct {
	engine  Asker
	judge   askdocs.Generator
	limiter *rate.Limiter
	workers int
	logger  askdocs.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithRateLimit caps judge calls per second.
func WithRateLimit(perSecond float64) EvaluatorOption {
	return func(ev *Evaluator) { ev.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// WithWorkers sets how many rows are evaluated concurrently.
func WithWorkers(n int) EvaluatorOption {
	return func(ev *Evaluator) { ev.workers = n }
}

// NewEvaluator creates an Evaluator judging with the given generator.
func NewEvaluator(engine Asker, judge askdocs.Generator, opts ...EvaluatorOption) *Evaluator {
	ev := &Evaluator{
		engine:  engine,
		judge:   judge,
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		workers: 4,
		logger:  askdocs.GlobalLogger,
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// Run evaluates every sample and returns results in sample order. Rows run
// concurrently up to the configured worker count; a row whose judging fails
// carries zero scores and the error is logged, so one bad row does not sink
// the run.
func (ev *Evaluator) Run(ctx context.Context, samples []Sample) ([]Result, error) {
	results := make([]Result, len(samples))
	sem := make(chan struct{}, ev.workers)
	var wg sync.WaitGroup

	for i, sample := range samples {
		wg.Add(1)
		go func(i int, sample Sample) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			answer := <-ev.engine.AskAsync(ctx, sample.UserInput)

			contexts := make([]string, len(answer.Chunks))
			for j, chunk := range answer.Chunks {
				contexts[j] = chunk.Content
			}

			result := Result{
				Sample:            sample,
				Response:          answer.Text,
				RetrievedContexts: contexts,
			}

			scores, err := ev.score(ctx, sample, answer.Text, contexts)
			if err != nil {
				ev.logger.Error("failed to score row", "row", i+1, "error", err)
			} else {
				result.Scores = scores
			}
			results[i] = result
		}(i, sample)
	}

	wg.Wait()
	return results, ctx.Err()
}

const (
	faithfulnessPrompt = `Rate from 0 to 1 how faithful the answer is to the context: 1 means every claim in the answer is supported by the context, 0 means none are.

<context>
%s
</context>

Answer: %s

Respond with a single number between 0 and 1 and nothing else.`

	answerRelevancyPrompt = `Rate from 0 to 1 how directly the answer addresses the question, ignoring whether it is factually correct. 1 means fully on topic, 0 means unrelated.

Question: %s
Answer: %s

Respond with a single number between 0 and 1 and nothing else.`

	contextPrecisionPrompt = `Rate from 0 to 1 what fraction of the retrieved context below is relevant to answering the question, given the reference answer.

Question: %s
Reference answer: %s

<retrieved>
%s
</retrieved>

Respond with a single number between 0 and 1 and nothing else.`

	contextRecallPrompt = `Rate from 0 to 1 how much of the information needed to produce the reference answer is present in the retrieved context below.

Question: %s
Reference answer: %s

<retrieved>
%s
</retrieved>

Respond with a single number between 0 and 1 and nothing else.`

	answerCorrectnessPrompt = `Rate from 0 to 1 how well the answer matches the reference answer in factual content. 1 means equivalent, 0 means contradictory or unrelated.

Question: %s
Reference answer: %s
Answer: %s

Respond with a single number between 0 and 1 and nothing else.`
)

func (ev *Evaluator) score(ctx context.Context, sample Sample, response string, contexts []string) (Scores, error) {
	contextBlock := strings.Join(contexts, "\n\n")

	faithfulness, err := ev.judgeScore(ctx, fmt.Sprintf(faithfulnessPrompt, contextBlock, response))
	if err != nil {
		return Scores{}, fmt.Errorf("faithfulness: %w", err)
	}
	relevancy, err := ev.judgeScore(ctx, fmt.Sprintf(answerRelevancyPrompt, sample.UserInput, response))
	if err != nil {
		return Scores{}, fmt.Errorf("answer relevancy: %w", err)
	}
	precision, err := ev.judgeScore(ctx, fmt.Sprintf(contextPrecisionPrompt, sample.UserInput, sample.Reference, contextBlock))
	if err != nil {
		return Scores{}, fmt.Errorf("context precision: %w", err)
	}
	recall, err := ev.judgeScore(ctx, fmt.Sprintf(contextRecallPrompt, sample.UserInput, sample.Reference, contextBlock))
	if err != nil {
		return Scores{}, fmt.Errorf("context recall: %w", err)
	}
	correctness, err := ev.judgeScore(ctx, fmt.Sprintf(answerCorrectnessPrompt, sample.UserInput, sample.Reference, response))
	if err != nil {
		return Scores{}, fmt.Errorf("answer correctness: %w", err)
	}

	return Scores{
		Faithfulness:      faithfulness,
		AnswerRelevancy:   relevancy,
		ContextPrecision:  precision,
		ContextRecall:     recall,
		AnswerCorrectness: correctness,
	}, nil
}

func (ev *Evaluator) judgeScore(ctx context.Context, prompt string) (float64, error) {
	if err := ev.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	raw, err := ev.judge.Generate(ctx, prompt)
	if err != nil {
		return 0, err
	}
	return parseScore(raw)
}

var numberRe = regexp.MustCompile(`[01](?:\.\d+)?|\.\d+`)

// parseScore extracts the first numeric value from a judge reply and clamps
// it to [0, 1]. Judges occasionally wrap the number in prose.
func parseScore(raw string) (float64, error) {
	match := numberRe.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no score in judge reply: %q", strings.TrimSpace(raw))
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("bad score in judge reply: %q", raw)
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

// Mean averages the per-row scores of a run.
func Mean(results []Result) Scores {
	if len(results) == 0 {
		return Scores{}
	}
	var sum Scores
	for _, r := range results {
		sum.Faithfulness += r.Scores.Faithfulness
		sum.AnswerRelevancy += r.Scores.AnswerRelevancy
		sum.ContextPrecision += r.Scores.ContextPrecision
		sum.ContextRecall += r.Scores.ContextRecall
		sum.AnswerCorrectness += r.Scores.AnswerCorrectness
	}
	n := float64(len(results))
	return Scores{
		Faithfulness:      sum.Faithfulness / n,
		AnswerRelevancy:   sum.AnswerRelevancy / n,
		ContextPrecision:  sum.ContextPrecision / n,
		ContextRecall:     sum.ContextRecall / n,
		AnswerCorrectness: sum.AnswerCorrectness / n,
	}
}
