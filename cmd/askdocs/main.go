// Command askdocs is the prompt-driven debug CLI: a numbered menu to ingest,
// list and delete documents and to ask questions against them.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/askdocs/askdocs"
	"github.com/askdocs/askdocs/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	store, err := askdocs.OpenStore(cfg)
	if err != nil {
		log.Fatalf("failed to open document store: %v", err)
	}
	defer store.Close()

	engine, err := askdocs.OpenEngine(cfg, store)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\n" + strings.Repeat("=", 40))
		fmt.Printf("       askdocs CLI (source: %s)\n", cfg.DataDir)
		fmt.Println(strings.Repeat("=", 40))
		fmt.Println("1. Ingest all PDFs from", cfg.DataDir)
		fmt.Println("2. List ingested documents")
		fmt.Println("3. Delete a document")
		fmt.Println("4. Ask a question")
		fmt.Println("q. Exit")

		choice := strings.ToLower(readLine(scanner, "\nEnter choice: "))

		switch choice {
		case "1":
			ingestAll(ctx, store, cfg.DataDir)
		case "2":
			listDocuments(ctx, store)
		case "3":
			deleteDocument(ctx, store, scanner)
		case "4":
			askQuestion(ctx, engine, scanner)
		case "q", "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

func ingestAll(ctx context.Context, store *askdocs.DocumentStore, dataDir string) {
	paths, err := filepath.Glob(filepath.Join(dataDir, "*.pdf"))
	if err != nil || len(paths) == 0 {
		fmt.Println("No PDFs found in", dataDir)
		return
	}

	existing := make(map[string]bool)
	for _, name := range store.ListDocuments(ctx) {
		existing[name] = true
	}

	for _, path := range paths {
		filename := filepath.Base(path)
		if existing[filename] {
			continue
		}
		status := store.AddDocument(ctx, path, filename)
		if status.OK() {
			fmt.Println(status.Message)
		} else {
			fmt.Println("Error:", status.Message)
		}
	}
}

func listDocuments(ctx context.Context, store *askdocs.DocumentStore) {
	files := store.ListDocuments(ctx)
	if len(files) == 0 {
		fmt.Println("No documents found in the knowledge base.")
		return
	}
	for i, f := range files {
		fmt.Printf("%d. %s\n", i+1, f)
	}
}

func deleteDocument(ctx context.Context, store *askdocs.DocumentStore, scanner *bufio.Scanner) {
	files := store.ListDocuments(ctx)
	if len(files) == 0 {
		fmt.Println("No files to delete.")
		return
	}

	fmt.Println("\n--- Delete document ---")
	for i, f := range files {
		fmt.Printf("%d. %s\n", i+1, f)
	}

	selection := readLine(scanner, "Enter number to delete: ")
	idx, err := strconv.Atoi(selection)
	if err != nil || idx < 1 || idx > len(files) {
		fmt.Println("Invalid number.")
		return
	}

	status := store.DeleteDocument(ctx, files[idx-1])
	fmt.Println("Result:", status.Message)
}

func askQuestion(ctx context.Context, engine *askdocs.Engine, scanner *bufio.Scanner) {
	question := readLine(scanner, "\nQuestion: ")
	if question == "" {
		return
	}
	fmt.Println("\nThinking...")
	fmt.Printf("\naskdocs: %s\n", engine.Ask(ctx, question))
}

func readLine(scanner *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !scanner.Scan() {
		return "q"
	}
	return strings.TrimSpace(scanner.Text())
}
