// Package tui is the interactive chat surface over the askdocs core. The
// conversation history lives in the Bubble Tea model for the duration of the
// session; nothing here is persisted.
package tui

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/askdocs/askdocs"
)

// Engine is the ask surface the chat consumes.
type Engine interface {
	Ask(ctx context.Context, query string) string
}

// Store is the document-management surface behind the slash commands.
type Store interface {
	AddDocument(ctx context.Context, path, filename string) askdocs.Status
	ListDocuments(ctx context.Context) []string
	DeleteDocument(ctx context.Context, filename string) askdocs.Status
}

type turn struct {
	role    string
	content string
}

type answerMsg struct{ text string }

type statusMsg struct{ text string }

// Model is the Bubble Tea model for the chat session.
type Model struct {
	engine   Engine
	store    Store
	input    textinput.Model
	viewport viewport.Model
	history  []turn
	status   string
	busy     bool
	ready    bool
}

// New creates a chat model over the given engine and store.
func New(engine Engine, store Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /add /list /delete /quit"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		engine:   engine,
		store:    store,
		input:    ti,
		viewport: vp,
		status:   "Ready.",
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		vh := msg.Height - ch - ih - 3 // header, input line, status line
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case answerMsg:
		m.busy = false
		m.status = "Ready."
		m.history = append(m.history, turn{role: "assistant", content: msg.text})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case statusMsg:
		m.busy = false
		m.status = msg.text
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.Reset()
			if strings.HasPrefix(line, "/") {
				return m.runCommand(line)
			}
			return m.ask(line)
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(query string) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = "Thinking..."
	m.history = append(m.history, turn{role: "user", content: query})
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	engine := m.engine
	return m, func() tea.Msg {
		return answerMsg{text: engine.Ask(context.Background(), query)}
	}
}

func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch fields[0] {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/list":
		files := m.store.ListDocuments(context.Background())
		if len(files) == 0 {
			m.status = "No documents found."
		} else {
			m.status = "Documents: " + strings.Join(files, ", ")
		}
		return m, nil

	case "/add":
		if arg == "" {
			m.status = "Usage: /add <path-to-pdf>"
			return m, nil
		}
		m.busy = true
		m.status = "Processing " + arg + "..."
		store := m.store
		return m, func() tea.Msg {
			st := store.AddDocument(context.Background(), arg, filepath.Base(arg))
			return statusMsg{text: st.Message}
		}

	case "/delete":
		if arg == "" {
			m.status = "Usage: /delete <filename>"
			return m, nil
		}
		st := m.store.DeleteDocument(context.Background(), arg)
		m.status = st.Message
		return m, nil

	default:
		m.status = "Unknown command: " + fields[0]
		return m, nil
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("askdocs chat")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "Upload a document with /add, then ask away."
	}
	var b strings.Builder
	for i, t := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if t.role == "user" {
			b.WriteString(userStyle.Render("You: ") + t.content)
		} else {
			b.WriteString(assistantStyle.Render("askdocs: ") + t.content)
		}
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
