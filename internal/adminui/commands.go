package adminui

import (
	"context"
	"strconv"
	"strings"
	stdsync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/larkvale/docdeck/internal/admin"
	"github.com/larkvale/docdeck/internal/session"
)

// sessionExpiryDelay is how long the expiry notice stays on screen before
// the console returns to the login view.
const sessionExpiryDelay = 1500 * time.Millisecond

func (a *App) executeCommand(raw string) tea.Cmd {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	cmd := fields[0]
	var cmds []tea.Cmd

	switch cmd {
	case "/login":
		if len(fields) < 3 {
			a.logErrorf("Usage: /login <username> <password>")
			break
		}
		username := fields[1]
		password := strings.Join(fields[2:], " ")
		a.logf("Logging in as %s ...", username)
		cmds = append(cmds, a.loginCmd(username, password))
	case "/logout":
		if !a.authed {
			a.logErrorf("Not logged in")
			break
		}
		cmds = append(cmds, a.teardownCmd("Logged out", false))
	case "/refresh":
		if !a.ensureAuthed() {
			break
		}
		cmds = append(cmds, a.loadAllCmd())
	case "/dash":
		a.setView(viewDash)
	case "/users":
		a.setView(viewUsers)
	case "/files":
		a.setView(viewFiles)
	case "/chats":
		a.setView(viewChats)
	case "/audit":
		a.setView(viewAudit)
	case "/help":
		a.setView(viewHelp)
	case "/filter":
		a.filter = strings.Join(fields[1:], " ")
		if a.filter == "" {
			a.logf("Filter cleared")
		} else {
			a.logf("Filtering on %q", a.filter)
		}
		a.buildTables()
		a.updateViewportContent()
	case "/profile":
		if !a.ensureAuthed() {
			break
		}
		if len(fields) < 2 {
			a.logErrorf("Usage: /profile <email>")
			break
		}
		a.profileEmail = fields[1]
		a.setView(viewProfile)
		a.updateViewportContent()
	case "/confirm":
		cmds = append(cmds, a.confirmPending())
	case "/cancel":
		if a.pending == nil {
			a.logErrorf("Nothing to cancel")
			break
		}
		a.logf("Cancelled %s for %s", a.pending.action.Name, a.pending.target)
		a.pending = nil
	case "/verify", "/suspend", "/unsuspend", "/allow", "/block", "/deluser", "/delfile":
		cmds = append(cmds, a.stageAction(strings.TrimPrefix(cmd, "/"), fields))
	case "/quit":
		a.logf("Exiting console")
		cmds = append(cmds, tea.Quit)
	default:
		a.logErrorf("Command %s not implemented", cmd)
	}

	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

// stageAction resolves a mutating command. Destructive actions are parked
// behind /confirm; the rest execute immediately.
func (a *App) stageAction(name string, fields []string) tea.Cmd {
	if !a.ensureAuthed() {
		return nil
	}
	action, ok := admin.LookupAction(name)
	if !ok {
		a.logErrorf("Unknown action %s", name)
		return nil
	}
	if len(fields) < 2 {
		a.logErrorf("Usage: /%s <id>", name)
		return nil
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		a.logErrorf("Invalid id: %s", fields[1])
		return nil
	}

	target := fields[1]
	if !action.DeleteFile && a.snapshot != nil {
		if u := a.snapshot.UserByID(id); u != nil {
			target = u.Email
		}
	}

	if action.Destructive {
		a.pending = &pendingAction{action: action, id: id, target: target}
		a.logf("%s", action.ConfirmPrompt(target))
		return nil
	}
	return a.actionCmd(action, id, target)
}

func (a *App) confirmPending() tea.Cmd {
	if a.pending == nil {
		a.logErrorf("Nothing to confirm")
		return nil
	}
	p := a.pending
	a.pending = nil
	a.logf("Running %s on %s ...", p.action.Name, p.target)
	return a.actionCmd(p.action, p.id, p.target)
}

func (a *App) actionCmd(action admin.Action, id int, target string) tea.Cmd {
	client := a.client
	timeout := a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		var (
			message string
			err     error
		)
		switch {
		case action.DeleteUser:
			message, err = client.DeleteUser(ctx, id)
		case action.DeleteFile:
			message, err = client.DeleteAnyFile(ctx, id)
		default:
			message, err = client.UserAction(ctx, id, action.UserAction)
		}
		return actionResultMsg{action: action.Name, target: target, message: message, err: err}
	}
}

func (a *App) restoreCredential() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		token, err := store.CurrentCredential(ctx, session.ScopeAdmin)
		return restoredCredentialMsg{token: token, err: err}
	}
}

func (a *App) loginCmd(username, password string) tea.Cmd {
	client := a.client
	store := a.store
	timeout := a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		token, err := client.AdminLogin(ctx, username, password)
		if err != nil {
			return loginResultMsg{username: username, err: err}
		}
		if err := store.SetCredential(ctx, session.ScopeAdmin, token); err != nil {
			return loginResultMsg{username: username, err: err}
		}
		return loginResultMsg{username: username, token: token}
	}
}

func (a *App) teardownCmd(reason string, deferred bool) tea.Cmd {
	store := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := store.ClearCredential(ctx, session.ScopeAdmin)
		return credentialClearedMsg{reason: reason, deferred: deferred, err: err}
	}
}

// loadAllCmd issues the four collection fetches concurrently and waits for
// all of them; merging applies the all-or-nothing policy.
func (a *App) loadAllCmd() tea.Cmd {
	a.loading = true
	a.logf("Refreshing ...")
	client := a.client
	timeout := a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var res admin.FetchResults
		var wg stdsync.WaitGroup
		wg.Add(4)
		go func() {
			defer wg.Done()
			res.Users, res.UsersErr = client.ListUsers(ctx)
		}()
		go func() {
			defer wg.Done()
			res.Files, res.FilesErr = client.ListAllFiles(ctx)
		}()
		go func() {
			defer wg.Done()
			res.Chats, res.ChatsErr = client.ListChats(ctx)
		}()
		go func() {
			defer wg.Done()
			res.Audit, res.AuditErr = client.ListAuditLogs(ctx)
		}()
		wg.Wait()

		return loadResultMsg{results: res}
	}
}

func defaultCommands() []commandSpec {
	return []commandSpec{
		{trigger: "/login", usage: "/login <username> <password>", description: "Authenticate as administrator"},
		{trigger: "/logout", usage: "/logout", description: "Clear the stored admin session"},
		{trigger: "/refresh", usage: "/refresh", description: "Reload all collections"},
		{trigger: "/dash", usage: "/dash", description: "KPI dashboard"},
		{trigger: "/users", usage: "/users", description: "User table"},
		{trigger: "/files", usage: "/files", description: "File table (all owners)"},
		{trigger: "/chats", usage: "/chats", description: "Conversation log"},
		{trigger: "/audit", usage: "/audit", description: "Audit trail"},
		{trigger: "/filter", usage: "/filter [text]", description: "Filter users/files locally"},
		{trigger: "/profile", usage: "/profile <email>", description: "Per-user profile panel"},
		{trigger: "/verify", usage: "/verify <id>", description: "Mark a user verified"},
		{trigger: "/suspend", usage: "/suspend <id>", description: "Suspend a user (confirmable)"},
		{trigger: "/unsuspend", usage: "/unsuspend <id>", description: "Reactivate a user"},
		{trigger: "/allow", usage: "/allow <id>", description: "Enable uploads for a user"},
		{trigger: "/block", usage: "/block <id>", description: "Disable uploads for a user"},
		{trigger: "/deluser", usage: "/deluser <id>", description: "Delete a user (confirmable)"},
		{trigger: "/delfile", usage: "/delfile <id>", description: "Delete any file (confirmable)"},
		{trigger: "/help", usage: "/help", description: "Show command help"},
		{trigger: "/quit", usage: "/quit", description: "Exit the console"},
	}
}
