package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/larkvale/docdeck/internal/session"
	"github.com/larkvale/docdeck/internal/sync"
)

func (a *App) executeCommand(raw string) tea.Cmd {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	cmd := fields[0]
	var cmds []tea.Cmd

	switch cmd {
	case "/home":
		a.setView(viewHome)
		a.logf("Switched to HOME view")
	case "/files":
		a.setView(viewFiles)
		a.logf("Switched to FILES view")
	case "/chat":
		a.setView(viewChat)
		a.logf("Switched to CHAT view")
	case "/help":
		a.setView(viewHelp)
		a.logf("Switched to HELP view")
	case "/register":
		if len(fields) < 3 {
			a.logErrorf("Usage: /register <email> <password>")
			break
		}
		email := fields[1]
		password := strings.Join(fields[2:], " ")
		a.logf("Registering %s ...", email)
		cmds = append(cmds, a.registerCmd(email, password))
	case "/login":
		if len(fields) < 3 {
			a.logErrorf("Usage: /login <email> <password>")
			break
		}
		email := fields[1]
		password := strings.Join(fields[2:], " ")
		a.logf("Logging in as %s ...", email)
		cmds = append(cmds, a.loginCmd(email, password))
	case "/logout":
		if !a.authed {
			a.logErrorf("Not logged in")
			break
		}
		cmds = append(cmds, a.teardownCmd("Logged out"))
	case "/refresh":
		if !a.ensureAuthed() {
			break
		}
		a.logf("Refreshing files ...")
		cmds = append(cmds, a.fetchFilesCmd())
	case "/upload":
		if !a.ensureAuthed() {
			break
		}
		if len(fields) < 2 {
			a.logErrorf("Usage: /upload <path>")
			break
		}
		if a.uploader != nil {
			a.logErrorf("An upload is already running")
			break
		}
		path := strings.Join(fields[1:], " ")
		cmds = append(cmds, a.startUpload(path)...)
	case "/download":
		if uploadCmd := a.fileIDCommand(fields, "/download <id>", a.downloadCmd); uploadCmd != nil {
			cmds = append(cmds, uploadCmd)
		}
	case "/delete":
		if deleteCmd := a.fileIDCommand(fields, "/delete <id>", a.deleteCmd); deleteCmd != nil {
			cmds = append(cmds, deleteCmd)
		}
	case "/share":
		if shareCmd := a.fileIDCommand(fields, "/share <id>", a.shareCmd); shareCmd != nil {
			cmds = append(cmds, shareCmd)
		}
	case "/revoke":
		if revokeCmd := a.fileIDCommand(fields, "/revoke <id>", a.revokeCmd); revokeCmd != nil {
			cmds = append(cmds, revokeCmd)
		}
	case "/select":
		if len(fields) < 2 {
			a.logErrorf("Usage: /select <id>")
			break
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			a.logErrorf("Invalid file id: %s", fields[1])
			break
		}
		a.chat.Toggle(id)
		if a.chat.Selected(id) {
			a.logf("File %d added to query scope (%d selected)", id, a.chat.SelectionCount())
		} else {
			a.logf("File %d removed from query scope (%d selected)", id, a.chat.SelectionCount())
		}
	case "/all":
		a.chat.SelectAll(a.syncer.Files())
		a.logf("Selected all %d files", a.chat.SelectionCount())
	case "/none":
		a.chat.ClearAll()
		a.logf("Cleared selection; queries search all documents")
	case "/quit":
		a.logf("Exiting client")
		cmds = append(cmds, a.quit())
	default:
		a.logErrorf("Command %s not implemented", cmd)
	}

	a.updateViewportContent()

	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

func (a *App) ensureAuthed() bool {
	if !a.authed {
		a.logErrorf("Not logged in; use /login first")
		return false
	}
	return true
}

func (a *App) fileIDCommand(fields []string, usage string, build func(id int) tea.Cmd) tea.Cmd {
	if !a.ensureAuthed() {
		return nil
	}
	if len(fields) < 2 {
		a.logErrorf("Usage: %s", usage)
		return nil
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		a.logErrorf("Invalid file id: %s", fields[1])
		return nil
	}
	return build(id)
}

func (a *App) restoreCredential() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		token, err := store.CurrentCredential(ctx, session.ScopeUser)
		return restoredCredentialMsg{token: token, err: err}
	}
}

func (a *App) registerCmd(email, password string) tea.Cmd {
	client := a.client
	timeout := a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := client.Register(ctx, email, password)
		return registerResultMsg{email: email, err: err}
	}
}

func (a *App) loginCmd(email, password string) tea.Cmd {
	client := a.client
	store := a.store
	timeout := a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		token, err := client.Login(ctx, email, password)
		if err != nil {
			return loginResultMsg{email: email, err: err}
		}
		if err := store.SetCredential(ctx, session.ScopeUser, token); err != nil {
			return loginResultMsg{email: email, err: err}
		}
		return loginResultMsg{email: email, token: token}
	}
}

// teardownCmd clears the stored credential and returns the client to its
// unauthenticated state. Used for logout and for detected 401/403.
func (a *App) teardownCmd(reason string) tea.Cmd {
	store := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := store.ClearCredential(ctx, session.ScopeUser)
		return credentialClearedMsg{reason: reason, err: err}
	}
}

// fetchFilesCmd issues a sequence-numbered fetch of the whole collection.
// Issuing supersedes any scheduled poll.
func (a *App) fetchFilesCmd() tea.Cmd {
	seq := a.syncer.Begin()
	client := a.client
	timeout := a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		files, err := client.ListFiles(ctx)
		return filesResultMsg{seq: seq, files: files, err: err}
	}
}

func (a *App) schedulePoll(sched sync.Schedule) tea.Cmd {
	if sched.Zero() {
		return nil
	}
	gen := sched.Gen
	return tea.Tick(sched.After, func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

func (a *App) startUpload(path string) []tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.UploadTimeout)
	uploader, err := sync.StartUpload(ctx, a.client, path, a.cfg.MaxUploadBytes)
	if err != nil {
		cancel()
		a.logErrorf("%v", err)
		return nil
	}
	a.uploader = uploader
	a.uploadCancel = cancel
	a.uploadPercent = 0
	a.logf("Uploading %s ...", uploader.Filename)
	return []tea.Cmd{listenForUpload(uploader)}
}

// listenForUpload pulls one event off the uploader channel; the handler
// re-issues it until the channel closes.
func listenForUpload(u *sync.Uploader) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-u.Events()
		return uploadEventMsg{uploader: u, event: ev, ok: ok}
	}
}

func (a *App) submitQuery(text string) tea.Cmd {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if a.view != viewChat {
		a.setView(viewChat)
	}
	if !a.ensureAuthed() {
		return nil
	}
	if a.chat.Pending() {
		a.logErrorf("Still answering the previous question")
		return nil
	}
	req, ok := a.chat.Begin(text)
	if !ok {
		return nil
	}
	a.updateViewportContent()
	a.logf("Asking ...")

	client := a.client
	timeout := a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := client.Query(ctx, req)
		return queryResultMsg{resp: resp, err: err}
	}
}

func (a *App) downloadCmd(id int) tea.Cmd {
	client := a.client
	timeout := a.cfg.UploadTimeout
	a.logf("Downloading file %d ...", id)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		name, data, err := client.Download(ctx, id)
		if err != nil {
			return downloadResultMsg{id: id, err: err}
		}
		path, err := writeDownloadedFile(name, data)
		return downloadResultMsg{id: id, path: path, err: err}
	}
}

func (a *App) deleteCmd(id int) tea.Cmd {
	client := a.client
	timeout := a.cfg.RequestTimeout
	a.logf("Deleting file %d ...", id)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := client.DeleteFile(ctx, id)
		return deleteResultMsg{id: id, err: err}
	}
}

func (a *App) shareCmd(id int) tea.Cmd {
	client := a.client
	timeout := a.cfg.RequestTimeout
	a.logf("Creating share link for file %d ...", id)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		info, err := client.Share(ctx, id)
		return shareResultMsg{id: id, info: info, err: err}
	}
}

func (a *App) revokeCmd(id int) tea.Cmd {
	client := a.client
	timeout := a.cfg.RequestTimeout
	a.logf("Revoking share link for file %d ...", id)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := client.RevokeShare(ctx, id)
		return revokeResultMsg{id: id, err: err}
	}
}

func (a *App) quit() tea.Cmd {
	if a.uploadCancel != nil {
		a.uploadCancel()
	}
	return tea.Quit
}

func defaultCommands() []commandSpec {
	return []commandSpec{
		{trigger: "/login", usage: "/login <email> <password>", description: "Authenticate with existing credentials"},
		{trigger: "/register", usage: "/register <email> <password>", description: "Create a new account"},
		{trigger: "/logout", usage: "/logout", description: "Clear the stored session"},
		{trigger: "/files", usage: "/files", description: "Show the file dashboard"},
		{trigger: "/chat", usage: "/chat", description: "Show the chat transcript"},
		{trigger: "/refresh", usage: "/refresh", description: "Refetch the file collection"},
		{trigger: "/upload", usage: "/upload <path>", description: "Upload a document (.pdf .txt .md)"},
		{trigger: "/download", usage: "/download <id>", description: "Download a file"},
		{trigger: "/delete", usage: "/delete <id>", description: "Delete a file"},
		{trigger: "/share", usage: "/share <id>", description: "Create a public share link"},
		{trigger: "/revoke", usage: "/revoke <id>", description: "Revoke a share link"},
		{trigger: "/select", usage: "/select <id>", description: "Toggle a file in the query scope"},
		{trigger: "/all", usage: "/all", description: "Select every file for queries"},
		{trigger: "/none", usage: "/none", description: "Clear the query scope"},
		{trigger: "/home", usage: "/home", description: "Show the welcome view"},
		{trigger: "/help", usage: "/help", description: "Show command help"},
		{trigger: "/quit", usage: "/quit", description: "Exit the client"},
	}
}
