// Package tui is the end-user terminal dashboard: file collection, uploads
// with live progress, and the scoped chat surface. It follows the single
// event-loop model: every network call is issued as a command and resolves
// to a typed message; the only concurrency controls are the disabled chat
// submit while a query is in flight and the single-flight poll timer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/larkvale/docdeck/internal/api"
	"github.com/larkvale/docdeck/internal/config"
	"github.com/larkvale/docdeck/internal/query"
	"github.com/larkvale/docdeck/internal/session"
	"github.com/larkvale/docdeck/internal/sync"
)

type viewKind int

const (
	viewHome viewKind = iota
	viewFiles
	viewChat
	viewHelp
)

func (v viewKind) String() string {
	switch v {
	case viewFiles:
		return "files"
	case viewChat:
		return "chat"
	case viewHelp:
		return "help"
	default:
		return "home"
	}
}

type logLevel int

const (
	logLevelInfo logLevel = iota
	logLevelError
)

type logLine struct {
	level logLevel
	label string
	body  string
}

type commandSpec struct {
	trigger     string
	usage       string
	description string
}

// App implements tea.Model for the dashboard.
type App struct {
	cfg    config.ClientConfig
	client *api.Client
	store  *session.Store

	syncer *sync.Synchronizer
	chat   *query.Session

	identity session.Identity
	authed   bool

	uploader      *sync.Uploader
	uploadCancel  context.CancelFunc
	uploadPercent int

	view     viewKind
	width    int
	height   int
	viewport viewport.Model
	input    textinput.Model
	helper   help.Model
	bar      progress.Model

	showHelp   bool
	helpView   string
	helpHeight int

	commands []commandSpec
	logLine  logLine
	styles   styleSet
}

// NewApp wires the dashboard model.
func NewApp(cfg config.ClientConfig, client *api.Client, store *session.Store) *App {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "type a question, or / for commands"
	input.Focus()

	a := &App{
		cfg:           cfg,
		client:        client,
		store:         store,
		syncer:        sync.New(cfg.PollInterval),
		chat:          query.NewSession(),
		uploadPercent: -1,
		view:          viewHome,
		viewport:      viewport.New(0, 0),
		input:         input,
		helper:        help.New(),
		bar:           progress.New(progress.WithDefaultGradient()),
		commands:      defaultCommands(),
		styles:        buildStyles(),
	}
	a.updateViewportContent()
	return a
}

// Init restores any persisted credential before the first render.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.restoreCredential())
}

// Update handles user input and internal events.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.height = m.Height
		a.updateViewportSize()
		a.updateInputWidth()
		a.updateViewportContent()
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case restoredCredentialMsg:
		return a, a.handleRestoredCredential(m)
	case loginResultMsg:
		return a, a.handleLoginResult(m)
	case registerResultMsg:
		a.handleRegisterResult(m)
		return a, nil
	case credentialClearedMsg:
		a.handleCredentialCleared(m)
		return a, nil
	case filesResultMsg:
		return a, a.handleFilesResult(m)
	case pollTickMsg:
		return a, a.handlePollTick(m)
	case uploadEventMsg:
		return a, a.handleUploadEvent(m)
	case queryResultMsg:
		return a, a.handleQueryResult(m)
	case downloadResultMsg:
		return a, a.handleDownloadResult(m)
	case deleteResultMsg:
		return a, a.handleDeleteResult(m)
	case shareResultMsg:
		return a, a.handleShareResult(m)
	case revokeResultMsg:
		return a, a.handleRevokeResult(m)
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, a.quit()
	case tea.KeyPgUp:
		a.viewport.LineUp(a.viewport.Height)
		return a, nil
	case tea.KeyPgDown:
		a.viewport.LineDown(a.viewport.Height)
		return a, nil
	case tea.KeyTab:
		a.handleTabCompletion()
		a.updateHelp()
		return a, nil
	case tea.KeyEnter:
		value := a.input.Value()
		a.input.Reset()
		a.updateHelp()
		return a, a.handleSubmit(value)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.updateHelp()
	return a, cmd
}

func (a *App) handleSubmit(value string) tea.Cmd {
	if strings.HasPrefix(value, string(a.cfg.CommandPrefix)) {
		return a.executeCommand(value)
	}
	return a.submitQuery(value)
}

func (a *App) setView(view viewKind) {
	if a.view == view {
		return
	}
	a.view = view
	a.updateViewportContent()
}

func (a *App) logf(format string, args ...any) {
	a.logLine = logLine{level: logLevelInfo, label: "info:", body: fmt.Sprintf(format, args...)}
}

func (a *App) logErrorf(format string, args ...any) {
	a.logLine = logLine{level: logLevelError, label: "error:", body: fmt.Sprintf(format, args...)}
}
