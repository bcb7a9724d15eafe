package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/larkvale/docdeck/internal/api"
	"github.com/larkvale/docdeck/internal/observability"
	"github.com/larkvale/docdeck/internal/session"
	"github.com/larkvale/docdeck/internal/sync"
)

type restoredCredentialMsg struct {
	token string
	err   error
}

type loginResultMsg struct {
	email string
	token string
	err   error
}

type registerResultMsg struct {
	email string
	err   error
}

type credentialClearedMsg struct {
	reason string
	err    error
}

type filesResultMsg struct {
	seq   uint64
	files []api.FileRecord
	err   error
}

type pollTickMsg struct {
	gen uint64
}

type uploadEventMsg struct {
	uploader *sync.Uploader
	event    sync.UploadEvent
	ok       bool
}

type queryResultMsg struct {
	resp *api.QueryResponse
	err  error
}

type downloadResultMsg struct {
	id   int
	path string
	err  error
}

type deleteResultMsg struct {
	id  int
	err error
}

type shareResultMsg struct {
	id   int
	info *api.ShareInfo
	err  error
}

type revokeResultMsg struct {
	id  int
	err error
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
	if err != nil {
		observability.Logger().Warn("stored token unparseable", "error", err)
		return a.teardownCmd("Stored session was invalid; please /login")
	}
	a.authed = true
	a.identity = identity
	a.logf("Welcome back, %s", identity.Email)
	return a.fetchFilesCmd()
}

func (a *App) handleLoginResult(m loginResultMsg) tea.Cmd {
	if m.err != nil {
		// Login/register surfaces show the backend message verbatim.
		a.logErrorf("Login failed: %v", m.err)
		return nil
	}
	identity, err := session.IdentityFromToken(m.token)
	if err != nil {
		observability.Logger().Warn("issued token unparseable", "error", err)
		identity = session.Identity{Email: m.email}
	}
	a.authed = true
	a.identity = identity
	a.setView(viewFiles)
	a.logf("Logged in as %s", m.email)
	return a.fetchFilesCmd()
}

func (a *App) handleRegisterResult(m registerResultMsg) {
	if m.err != nil {
		a.logErrorf("Registration failed: %v", m.err)
		return
	}
	a.logf("Registered %s; check your inbox for a verification link, then /login", m.email)
}

func (a *App) handleCredentialCleared(m credentialClearedMsg) {
	if m.err != nil {
		observability.Logger().Error("clearing credential failed", "error", m.err)
	}
	a.authed = false
	a.identity = session.Identity{}
	a.chat.Reset()
	a.syncer = sync.New(a.cfg.PollInterval)
	a.setView(viewHome)
	a.logf("%s", m.reason)
	a.updateViewportContent()
}

// handleAuthFailure applies the session-teardown policy for 401/403.
func (a *App) handleAuthFailure() tea.Cmd {
	return a.teardownCmd("Session expired; please /login again")
}

func (a *App) handleFilesResult(m filesResultMsg) tea.Cmd {
	if m.err != nil {
		if errors.Is(m.err, api.ErrUnauthorized) {
			return a.handleAuthFailure()
		}
		sched, latest := a.syncer.Fail(m.seq)
		if !latest {
			return nil
		}
		a.logErrorf("Refresh failed: %v", m.err)
		return a.schedulePoll(sched)
	}

	sched, applied := a.syncer.Apply(m.seq, m.files)
	if !applied {
		// A newer fetch has been issued since; this response is stale.
		return nil
	}
	if pruned := a.chat.Prune(m.files); pruned > 0 {
		a.logf("Removed %d deleted file(s) from the query scope", pruned)
	}
	a.updateViewportContent()
	return a.schedulePoll(sched)
}

func (a *App) handlePollTick(m pollTickMsg) tea.Cmd {
	if !a.syncer.TickDue(m.gen) {
		return nil
	}
	return a.fetchFilesCmd()
}

func (a *App) handleUploadEvent(m uploadEventMsg) tea.Cmd {
	if m.uploader != a.uploader || a.uploader == nil {
		return nil
	}
	if !m.ok {
		// Channel closed after the terminal event.
		a.uploader = nil
		if a.uploadCancel != nil {
			a.uploadCancel()
			a.uploadCancel = nil
		}
		a.uploadPercent = -1
		return nil
	}

	ev := m.event
	if !ev.Done {
		if ev.Percent > a.uploadPercent {
			a.uploadPercent = ev.Percent
		}
		return listenForUpload(m.uploader)
	}

	if ev.Err != nil {
		if errors.Is(ev.Err, api.ErrUnauthorized) {
			return tea.Batch(listenForUpload(m.uploader), a.handleAuthFailure())
		}
		// The backend-supplied message is surfaced verbatim; no retry.
		a.logErrorf("Upload failed: %v", ev.Err)
		return listenForUpload(m.uploader)
	}

	a.uploadPercent = 100
	a.logf("Uploaded %s; indexing started", m.uploader.Filename)
	// Terminal success triggers exactly one immediate refetch.
	return tea.Batch(listenForUpload(m.uploader), a.fetchFilesCmd())
}

func (a *App) handleQueryResult(m queryResultMsg) tea.Cmd {
	a.chat.Complete(m.resp, m.err)
	a.updateViewportContent()
	if m.err != nil {
		a.logErrorf("Query failed")
		if errors.Is(m.err, api.ErrUnauthorized) {
			return a.handleAuthFailure()
		}
		return nil
	}
	a.logf("Answer received")
	return nil
}

func (a *App) handleDownloadResult(m downloadResultMsg) tea.Cmd {
	if m.err != nil {
		if errors.Is(m.err, api.ErrUnauthorized) {
			return a.handleAuthFailure()
		}
		a.logErrorf("Download failed: %v", m.err)
		return nil
	}
	a.logf("Downloaded file %d to %s", m.id, m.path)
	return nil
}

func (a *App) handleDeleteResult(m deleteResultMsg) tea.Cmd {
	if m.err != nil {
		if errors.Is(m.err, api.ErrUnauthorized) {
			return a.handleAuthFailure()
		}
		a.logErrorf("Delete failed: %v", m.err)
		return nil
	}
	a.logf("Deleted file %d", m.id)
	return a.fetchFilesCmd()
}

func (a *App) handleShareResult(m shareResultMsg) tea.Cmd {
	if m.err != nil {
		if errors.Is(m.err, api.ErrUnauthorized) {
			return a.handleAuthFailure()
		}
		a.logErrorf("Share failed: %v", m.err)
		return nil
	}
	a.logf("Share link for file %d: %s", m.id, m.info.ShareURL)
	return nil
}

func (a *App) handleRevokeResult(m revokeResultMsg) tea.Cmd {
	if m.err != nil {
		if errors.Is(m.err, api.ErrUnauthorized) {
			return a.handleAuthFailure()
		}
		a.logErrorf("Revoke failed: %v", m.err)
		return nil
	}
	a.logf("Share link revoked for file %d", m.id)
	return nil
}

// writeDownloadedFile saves a download next to the working directory,
// avoiding collisions with numbered suffixes.
func writeDownloadedFile(name string, data []byte) (string, error) {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = fmt.Sprintf("download_%d", time.Now().Unix())
	}

	candidate := base
	for i := 0; i < 100; i++ {
		path := filepath.Join(".", candidate)
		_, err := os.Stat(path)
		if err == nil {
			ext := filepath.Ext(base)
			stem := base[:len(base)-len(ext)]
			candidate = fmt.Sprintf("%s(%d)%s", stem, i+1, ext)
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("unable to create file for %s", base)
}
