package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs"
)

type fakeEngine struct{ asked []string }

func (f *fakeEngine) Ask(_ context.Context, query string) string {
	f.asked = append(f.asked, query)
	return "answer to " + query
}

type fakeStore struct {
	docs    []string
	added   []string
	deleted []string
}

func (f *fakeStore) AddDocument(_ context.Context, path, filename string) askdocs.Status {
	f.added = append(f.added, filename)
	return askdocs.Status{Code: 0, Message: "Successfully added " + filename + " (3 chunks)."}
}

func (f *fakeStore) ListDocuments(context.Context) []string { return f.docs }

func (f *fakeStore) DeleteDocument(_ context.Context, filename string) askdocs.Status {
	f.deleted = append(f.deleted, filename)
	return askdocs.Status{Code: 0, Message: "Deleted " + filename + "."}
}

func pressEnter(m Model, line string) (Model, tea.Cmd) {
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestAskAppendsUserTurnAndQueriesEngine(t *testing.T) {
	engine := &fakeEngine{}
	m := New(engine, &fakeStore{})

	m, cmd := pressEnter(m, "why is the sky blue?")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	require.Len(t, m.history, 1)
	assert.Equal(t, "user", m.history[0].role)
	assert.Equal(t, "why is the sky blue?", m.history[0].content)

	msg := cmd()
	answer, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, "answer to why is the sky blue?", answer.text)
	assert.Equal(t, []string{"why is the sky blue?"}, engine.asked)
}

func TestAnswerMsgAppendsAssistantTurn(t *testing.T) {
	m := New(&fakeEngine{}, &fakeStore{})
	m.busy = true

	next, _ := m.Update(answerMsg{text: "the answer"})
	m = next.(Model)
	assert.False(t, m.busy)
	require.Len(t, m.history, 1)
	assert.Equal(t, "assistant", m.history[0].role)
	assert.Equal(t, "the answer", m.history[0].content)
}

func TestEmptyInputIgnored(t *testing.T) {
	m := New(&fakeEngine{}, &fakeStore{})
	m, cmd := pressEnter(m, "   ")
	assert.Nil(t, cmd)
	assert.Empty(t, m.history)
}

func TestInputIgnoredWhileBusy(t *testing.T) {
	engine := &fakeEngine{}
	m := New(engine, &fakeStore{})
	m.busy = true

	m, cmd := pressEnter(m, "a question")
	assert.Nil(t, cmd)
	assert.Empty(t, engine.asked)
}

func TestListCommand(t *testing.T) {
	m := New(&fakeEngine{}, &fakeStore{docs: []string{"a.pdf", "b.pdf"}})
	m, _ = pressEnter(m, "/list")
	assert.Equal(t, "Documents: a.pdf, b.pdf", m.status)
}

func TestListCommandEmpty(t *testing.T) {
	m := New(&fakeEngine{}, &fakeStore{})
	m, _ = pressEnter(m, "/list")
	assert.Equal(t, "No documents found.", m.status)
}

func TestAddCommand(t *testing.T) {
	store := &fakeStore{}
	m := New(&fakeEngine{}, store)

	m, cmd := pressEnter(m, "/add docs/report.pdf")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	msg := cmd()
	status, ok := msg.(statusMsg)
	require.True(t, ok)
	assert.Equal(t, "Successfully added report.pdf (3 chunks).", status.text)
	assert.Equal(t, []string{"report.pdf"}, store.added)
}

func TestAddCommandWithoutPath(t *testing.T) {
	m := New(&fakeEngine{}, &fakeStore{})
	m, _ = pressEnter(m, "/add")
	assert.Equal(t, "Usage: /add <path-to-pdf>", m.status)
}

func TestDeleteCommand(t *testing.T) {
	store := &fakeStore{}
	m := New(&fakeEngine{}, store)
	m, _ = pressEnter(m, "/delete report.pdf")
	assert.Equal(t, "Deleted report.pdf.", m.status)
	assert.Equal(t, []string{"report.pdf"}, store.deleted)
}

func TestUnknownCommand(t *testing.T) {
	m := New(&fakeEngine{}, &fakeStore{})
	m, _ = pressEnter(m, "/frobnicate")
	assert.Equal(t, "Unknown command: /frobnicate", m.status)
}

func TestQuitCommand(t *testing.T) {
	m := New(&fakeEngine{}, &fakeStore{})
	_, cmd := pressEnter(m, "/quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
