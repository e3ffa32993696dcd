package askdocs

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk is a contiguous span of document text, the atomic unit stored and
// retrieved.
type Chunk struct {
	Text          string
	TokenSize     int
	StartSentence int
	EndSentence   int
}

// Chunker splits text into chunks for embedding and retrieval.
type Chunker interface {
	Chunk(text string) []Chunk
}

// TokenCounter counts tokens in a text segment.
type TokenCounter interface {
	Count(text string) int
}

// TextChunker splits text on sentence boundaries into chunks of roughly
// ChunkSize tokens, with ChunkOverlap tokens shared between adjacent chunks.
type TextChunker struct {
	ChunkSize        int
	ChunkOverlap     int
	TokenCounter     TokenCounter
	SentenceSplitter func(string) []string
}

// TextChunkerOption configures a TextChunker.
type TextChunkerOption func(*TextChunker)

// ChunkSize sets the target chunk size in tokens.
func ChunkSize(size int) TextChunkerOption {
	return func(tc *TextChunker) { tc.ChunkSize = size }
}

// ChunkOverlap sets the token overlap between adjacent chunks.
func ChunkOverlap(overlap int) TextChunkerOption {
	return func(tc *TextChunker) { tc.ChunkOverlap = overlap }
}

// WithTokenCounter sets a custom token counter.
func WithTokenCounter(counter TokenCounter) TextChunkerOption {
	return func(tc *TextChunker) { tc.TokenCounter = counter }
}

// WithSentenceSplitter sets a custom sentence splitter.
func WithSentenceSplitter(splitter func(string) []string) TextChunkerOption {
	return func(tc *TextChunker) { tc.SentenceSplitter = splitter }
}

// NewChunker creates a TextChunker. Without options it chunks to 1000 tokens
// with an overlap of 200, counting tokens by whitespace-separated words.
func NewChunker(options ...TextChunkerOption) (*TextChunker, error) {
	tc := &TextChunker{
		ChunkSize:        1000,
		ChunkOverlap:     200,
		TokenCounter:     &DefaultTokenCounter{},
		SentenceSplitter: SentenceSplitter,
	}
	for _, option := range options {
		option(tc)
	}
	if tc.ChunkOverlap >= tc.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", tc.ChunkOverlap, tc.ChunkSize)
	}
	return tc, nil
}

// Chunk splits the input into sentence-aligned chunks. A new chunk starts
// when adding the next sentence would exceed ChunkSize, carrying roughly
// ChunkOverlap tokens from the tail of the previous chunk.
func (tc *TextChunker) Chunk(text string) []Chunk {
	sentences := tc.SentenceSplitter(text)
	var chunks []Chunk
	var current Chunk
	tokenCount := 0

	for i, sentence := range sentences {
		sentenceTokens := tc.TokenCounter.Count(sentence)

		if tokenCount+sentenceTokens > tc.ChunkSize && tokenCount > 0 {
			chunks = append(chunks, current)

			overlapStart := max(current.StartSentence, current.EndSentence-tc.overlapSentences(sentences, current.EndSentence))
			current = Chunk{
				Text:          strings.Join(sentences[overlapStart:i+1], " "),
				StartSentence: overlapStart,
				EndSentence:   i + 1,
			}
			tokenCount = 0
			for j := overlapStart; j <= i; j++ {
				tokenCount += tc.TokenCounter.Count(sentences[j])
			}
		} else {
			if tokenCount == 0 {
				current.StartSentence = i
				current.Text = sentence
			} else {
				current.Text += " " + sentence
			}
			current.EndSentence = i + 1
			tokenCount += sentenceTokens
		}
		current.TokenSize = tokenCount
	}

	if current.TokenSize > 0 {
		chunks = append(chunks, current)
	}

	return chunks
}

// overlapSentences counts how many sentences from the end of the previous
// chunk are needed to reach the configured token overlap.
func (tc *TextChunker) overlapSentences(sentences []string, endSentence int) int {
	tokens := 0
	count := 0
	for i := endSentence - 1; i >= 0 && tokens < tc.ChunkOverlap; i-- {
		tokens += tc.TokenCounter.Count(sentences[i])
		count++
	}
	return count
}

// SentenceSplitter splits text into sentences, handling quoted passages and
// keeping terminal punctuation attached.
func SentenceSplitter(text string) []string {
	var sentences []string
	var current strings.Builder
	inQuote := false

	for _, r := range text {
		current.WriteRune(r)

		if r == '"' {
			inQuote = !inQuote
		}

		if (r == '.' || r == '!' || r == '?') && !inQuote {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// DefaultTokenCounter approximates token counts by whitespace-separated
// words.
type DefaultTokenCounter struct{}

func (dtc *DefaultTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter counts tokens exactly as OpenAI models tokenize, via the
// tiktoken library.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a counter for the given encoding, e.g.
// "cl100k_base".
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

func (ttc *TikTokenCounter) Count(text string) int {
	return len(ttc.tke.Encode(text, nil, nil))
}
