// Command askdocs-eval generates evaluation testsets and scores the
// question answering pipeline with an LLM judge.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/askdocs/askdocs"
	"github.com/askdocs/askdocs/config"
	"github.com/askdocs/askdocs/eval"
)

func main() {
	var (
		generate = flag.Bool("generate", false, "generate a testset from the document directory instead of running an evaluation")
		testset  = flag.String("testset", "evaluation/testset.json", "path to the testset JSON file")
		size     = flag.Int("size", 10, "number of samples to generate")
		out      = flag.String("out", "evaluation/results.json", "path to write evaluation results")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	judge, err := askdocs.NewOpenAIGenerator(cfg.APIKey, cfg.LLMModel, cfg.Temperature, cfg.MaxRetries, cfg.Timeout)
	if err != nil {
		log.Fatalf("failed to create judge: %v", err)
	}

	ctx := context.Background()

	if *generate {
		if err := generateTestset(ctx, cfg, judge, *testset, *size); err != nil {
			log.Fatalf("testset generation failed: %v", err)
		}
		return
	}

	if err := runEvaluation(ctx, cfg, judge, *testset, *out); err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}
}

func generateTestset(ctx context.Context, cfg *config.Config, judge askdocs.Generator, path string, size int) error {
	gen, err := eval.NewTestsetGenerator(judge, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return err
	}

	samples, err := gen.Generate(ctx, cfg.DataDir, size)
	if err != nil {
		return err
	}
	if err := eval.SaveTestset(path, samples); err != nil {
		return err
	}

	fmt.Printf("Wrote %d samples to %s\n", len(samples), path)
	return nil
}

func runEvaluation(ctx context.Context, cfg *config.Config, judge askdocs.Generator, testsetPath, outPath string) error {
	samples, err := eval.LoadTestset(testsetPath)
	if err != nil {
		return err
	}

	store, err := askdocs.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := askdocs.OpenEngine(cfg, store)
	if err != nil {
		return err
	}

	evaluator := eval.NewEvaluator(engine, judge)
	results, err := evaluator.Run(ctx, samples)
	if err != nil {
		return err
	}

	mean := eval.Mean(results)
	fmt.Printf("Evaluated %d samples\n", len(results))
	fmt.Printf("  faithfulness:       %.3f\n", mean.Faithfulness)
	fmt.Printf("  answer relevancy:   %.3f\n", mean.AnswerRelevancy)
	fmt.Printf("  context precision:  %.3f\n", mean.ContextPrecision)
	fmt.Printf("  context recall:     %.3f\n", mean.ContextRecall)
	fmt.Printf("  answer correctness: %.3f\n", mean.AnswerCorrectness)

	data, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	fmt.Println("Results written to", outPath)
	return nil
}
