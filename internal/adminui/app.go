// Package adminui is the administrative console: KPI dashboard, user/file/
// chat/audit tables, and confirmable mutating actions. Refreshes are
// all-or-nothing; any auth failure tears the admin session down and returns
// to the login view after a short delay.
package adminui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/larkvale/docdeck/internal/admin"
	"github.com/larkvale/docdeck/internal/api"
	"github.com/larkvale/docdeck/internal/config"
	"github.com/larkvale/docdeck/internal/session"
)

type viewKind int

const (
	viewLogin viewKind = iota
	viewDash
	viewUsers
	viewFiles
	viewChats
	viewAudit
	viewProfile
	viewHelp
)

func (v viewKind) String() string {
	switch v {
	case viewDash:
		return "dash"
	case viewUsers:
		return "users"
	case viewFiles:
		return "files"
	case viewChats:
		return "chats"
	case viewAudit:
		return "audit"
	case viewProfile:
		return "profile"
	case viewHelp:
		return "help"
	default:
		return "login"
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

// pendingAction is a destructive command awaiting /confirm.
type pendingAction struct {
	action admin.Action
	id     int
	target string
}

// App implements tea.Model for the admin console.
type App struct {
	cfg    config.ClientConfig
	client *api.Client
	store  *session.Store

	authed   bool
	username string
	snapshot *admin.Snapshot
	filter   string
	loading  bool

	pending      *pendingAction
	profileEmail string

	view     viewKind
	width    int
	height   int
	viewport viewport.Model
	input    textinput.Model
	helper   help.Model

	usersTable table.Model
	filesTable table.Model
	chatsTable table.Model
	auditTable table.Model

	showHelp   bool
	helpView   string
	helpHeight int

	commands []commandSpec
	logLine  logLine
	styles   styleSet
}

// NewApp wires the admin console model.
func NewApp(cfg config.ClientConfig, client *api.Client, store *session.Store) *App {
	input := textinput.New()
	input.Prompt = "admin> "
	input.Placeholder = "/login <username> <password>"
	input.Focus()

	a := &App{
		cfg:      cfg,
		client:   client,
		store:    store,
		view:     viewLogin,
		viewport: viewport.New(0, 0),
		input:    input,
		helper:   help.New(),
		commands: defaultCommands(),
		styles:   buildStyles(),
	}
	a.buildTables()
	a.updateViewportContent()
	return a
}

// Init restores any persisted admin credential.
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
		a.buildTables()
		a.updateViewportContent()
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case restoredCredentialMsg:
		return a, a.handleRestoredCredential(m)
	case loginResultMsg:
		return a, a.handleLoginResult(m)
	case credentialClearedMsg:
		a.handleCredentialCleared(m)
		return a, nil
	case backToLoginMsg:
		a.view = viewLogin
		a.updateViewportContent()
		return a, nil
	case loadResultMsg:
		return a, a.handleLoadResult(m)
	case actionResultMsg:
		return a, a.handleActionResult(m)
	}

	return a, a.routeScrollMsg(msg)
}

func (a *App) routeScrollMsg(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.view {
	case viewUsers:
		a.usersTable, cmd = a.usersTable.Update(msg)
	case viewFiles:
		a.filesTable, cmd = a.filesTable.Update(msg)
	case viewChats:
		a.chatsTable, cmd = a.chatsTable.Update(msg)
	case viewAudit:
		a.auditTable, cmd = a.auditTable.Update(msg)
	default:
		a.viewport, cmd = a.viewport.Update(msg)
	}
	return cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		if a.input.Value() == "" {
			return a, a.routeScrollMsg(msg)
		}
	case tea.KeyTab:
		a.handleTabCompletion()
		a.updateHelp()
		return a, nil
	case tea.KeyEnter:
		value := a.input.Value()
		a.input.Reset()
		a.updateHelp()
		return a, a.executeCommand(value)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.updateHelp()
	return a, cmd
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

func (a *App) ensureAuthed() bool {
	if !a.authed {
		a.logErrorf("Not logged in; use /login <username> <password>")
		return false
	}
	return true
}

func (a *App) handleTabCompletion() {
	value := a.input.Value()
	if value == "" || !strings.HasPrefix(value, string(a.cfg.CommandPrefix)) {
		return
	}
	if strings.ContainsAny(value, " \t") {
		return
	}
	matches := make([]string, 0)
	for _, cmd := range a.commands {
		if strings.HasPrefix(cmd.trigger, value) {
			matches = append(matches, cmd.trigger)
		}
	}
	if len(matches) == 0 {
		return
	}
	prefix := longestCommonPrefix(matches)
	if len(prefix) > len(value) {
		a.input.SetValue(prefix)
		a.input.CursorEnd()
	}
}

func longestCommonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, s := range values[1:] {
		for !strings.HasPrefix(s, prefix) {
			if prefix == "" {
				return ""
			}
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
