package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/larkvale/docdeck/internal/api"
	"github.com/larkvale/docdeck/internal/config"
)

func newTestApp() *App {
	cfg := config.ClientConfig{
		ServerURL:     "http://localhost:8000",
		CommandPrefix: '/',
		PollInterval:  3 * time.Second,
	}
	return NewApp(cfg, nil, nil)
}

func forceANSI(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })
}

func TestTranscriptWrapsOnVisibleWidth(t *testing.T) {
	forceANSI(t)
	a := newTestApp()

	long := strings.TrimSpace(strings.Repeat("word ", 10))
	_, ok := a.chat.Begin(long)
	require.True(t, ok)
	a.chat.Complete(&api.QueryResponse{Answer: long}, nil)

	lines := a.renderTranscript(30)
	require.Greater(t, len(lines), 2)

	styled := false
	for _, line := range lines {
		require.LessOrEqual(t, lipgloss.Width(line), 30)
		if strings.Contains(line, "\x1b[") {
			styled = true
		}
	}
	require.True(t, styled)
	// Escape bytes must not count against the limit: the first line packs
	// close to the full 30 visible columns.
	require.GreaterOrEqual(t, lipgloss.Width(lines[0]), 25)
}

func TestChatLineIsPlainText(t *testing.T) {
	a := newTestApp()
	_, ok := a.chat.Begin("question")
	require.True(t, ok)
	a.chat.Complete(&api.QueryResponse{
		Answer:  "answer",
		Sources: []api.Source{{ChunkIndex: 3}},
	}, nil)

	for _, msg := range a.chat.Transcript() {
		text, _ := a.chatLine(msg)
		require.NotContains(t, text, "\x1b[")
	}
}

func TestFilesViewStatusColumnStaysAligned(t *testing.T) {
	forceANSI(t)
	a := newTestApp()

	now := time.Now()
	seq := a.syncer.Begin()
	_, ok := a.syncer.Apply(seq, []api.FileRecord{
		{ID: 1, Filename: "a.pdf", Size: 1024, IsIndexed: true, UploadDate: now},
		{ID: 2, Filename: "b.pdf", Size: 1024, IsIndexed: false, UploadDate: now},
	})
	require.True(t, ok)

	rows := strings.Split(a.renderFilesView(), "\n")
	require.GreaterOrEqual(t, len(rows), 3)
	// Styled "indexed" and "indexing" cells pad to the same visible width,
	// so both rows line up with each other and the header.
	require.Equal(t, lipgloss.Width(rows[1]), lipgloss.Width(rows[2]))
}
