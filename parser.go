package askdocs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is the raw text extracted from a source file, before chunking.
// Content is transient: it is never persisted after ingestion.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Parser extracts text from a file on disk.
type Parser interface {
	Parse(filePath string) (Document, error)
}

// ParserManager routes files to a registered Parser based on file type.
type ParserManager struct {
	fileTypeDetector func(string) string
	parsers          map[string]Parser
}

// NewParser creates a ParserManager with PDF and plain-text parsers
// registered.
func NewParser() *ParserManager {
	return &ParserManager{
		fileTypeDetector: detectFileType,
		parsers: map[string]Parser{
			"pdf":  &PDFParser{},
			"text": &TextParser{},
		},
	}
}

// Parse extracts the text of the file at filePath using the parser registered
// for its type.
func (pm *ParserManager) Parse(filePath string) (Document, error) {
	fileType := pm.fileTypeDetector(filePath)
	parser, ok := pm.parsers[fileType]
	if !ok {
		return Document{}, fmt.Errorf("no parser available for file type: %s", fileType)
	}
	doc, err := parser.Parse(filePath)
	if err != nil {
		return Document{}, err
	}
	Debug("parsed document", "path", filePath, "type", fileType)
	return doc, nil
}

// AddParser registers a parser for an additional file type.
func (pm *ParserManager) AddParser(fileType string, parser Parser) {
	pm.parsers[fileType] = parser
}

func detectFileType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return "pdf"
	case ".txt", ".md":
		return "text"
	default:
		return "unknown"
	}
}

// PDFParser extracts plain text from PDF files page by page.
type PDFParser struct{}

func (p *PDFParser) Parse(filePath string) (Document, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat file: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return Document{}, fmt.Errorf("failed to read PDF: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return Document{}, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		text.WriteString(content)
		text.WriteString("\n\n")
	}

	return Document{
		Content:  text.String(),
		Metadata: map[string]string{"file_type": "pdf", "file_path": filePath},
	}, nil
}

// TextParser reads plain text files verbatim.
type TextParser struct{}

func (p *TextParser) Parse(filePath string) (Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Document{
		Content:  string(content),
		Metadata: map[string]string{"file_type": "text", "file_path": filePath},
	}, nil
}
