package adminui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/larkvale/docdeck/internal/admin"
	"github.com/larkvale/docdeck/internal/api"
	"github.com/larkvale/docdeck/internal/observability"
	"github.com/larkvale/docdeck/internal/session"
)

func isUnauthorized(err error) bool {
	return errors.Is(err, api.ErrUnauthorized)
}

type restoredCredentialMsg struct {
	token string
	err   error
}

type loginResultMsg struct {
	username string
	token    string
	err      error
}

type credentialClearedMsg struct {
	reason string
	// deferred leaves the current view in place; backToLoginMsg performs
	// the flip after the expiry notice has been visible for a moment.
	deferred bool
	err      error
}

type backToLoginMsg struct{}

type loadResultMsg struct {
	results admin.FetchResults
}

type actionResultMsg struct {
	action  string
	target  string
	message string
	err     error
}

func (a *App) handleRestoredCredential(m restoredCredentialMsg) tea.Cmd {
	if m.err != nil {
		a.logErrorf("Cannot read stored session: %v", m.err)
		return nil
	}
	if m.token == "" {
		return nil
	}
	identity, err := session.IdentityFromToken(m.token)
	if err != nil || !identity.Admin {
		observability.Logger().Warn("stored admin token rejected", "error", err)
		return a.teardownCmd("Stored session was invalid; please /login", false)
	}
	a.authed = true
	a.username = identity.Subject
	a.view = viewDash
	a.logf("Welcome back")
	return a.loadAllCmd()
}

func (a *App) handleLoginResult(m loginResultMsg) tea.Cmd {
	if m.err != nil {
		a.logErrorf("Login failed: %v", m.err)
		return nil
	}
	a.authed = true
	a.username = m.username
	a.view = viewDash
	a.logf("Logged in as %s", m.username)
	return a.loadAllCmd()
}

func (a *App) handleCredentialCleared(m credentialClearedMsg) {
	if m.err != nil {
		observability.Logger().Error("clearing admin credential failed", "error", m.err)
	}
	a.authed = false
	a.username = ""
	a.snapshot = nil
	a.pending = nil
	a.filter = ""
	if !m.deferred {
		a.view = viewLogin
	}
	a.buildTables()
	a.updateViewportContent()
	a.logf("%s", m.reason)
}

// expireSession tears the credential down and returns to the login view
// after the notice has been on screen briefly.
func (a *App) expireSession() tea.Cmd {
	a.logErrorf("Admin session expired; returning to login")
	return tea.Batch(
		a.teardownCmd("Session expired; please /login again", true),
		tea.Tick(sessionExpiryDelay, func(time.Time) tea.Msg { return backToLoginMsg{} }),
	)
}

func (a *App) handleLoadResult(m loadResultMsg) tea.Cmd {
	a.loading = false

	snap, err := admin.Merge(m.results, time.Now())
	if errors.Is(err, admin.ErrSessionExpired) {
		return a.expireSession()
	}
	if err != nil {
		// All-or-nothing: partial results are discarded, nothing rendered
		// from them.
		a.logErrorf("%v", err)
		return nil
	}

	a.snapshot = snap
	a.pending = nil
	a.buildTables()
	a.updateViewportContent()
	kpi := snap.KPIs()
	a.logf("Loaded %d users, %d files, %d chats", kpi.Users, kpi.Files, kpi.Chats)
	return nil
}

func (a *App) handleActionResult(m actionResultMsg) tea.Cmd {
	if m.err != nil {
		if errors.Is(m.err, admin.ErrSessionExpired) || isUnauthorized(m.err) {
			return a.expireSession()
		}
		a.logErrorf("%s failed: %v", m.action, m.err)
		return nil
	}
	if m.message != "" {
		a.logf("%s", m.message)
	} else {
		a.logf("%s applied to %s", m.action, m.target)
	}
	// No incremental patching: a successful mutation always reloads every
	// collection to keep the joins consistent.
	return a.loadAllCmd()
}
