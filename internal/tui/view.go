package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/larkvale/docdeck/internal/query"
)

type styleSet struct {
	title         lipgloss.Style
	view          lipgloss.Style
	statusOnline  lipgloss.Style
	statusOffline lipgloss.Style
	label         lipgloss.Style
	value         lipgloss.Style
	logLabel      lipgloss.Style
	logBody       lipgloss.Style
	logLabelError lipgloss.Style
	logBodyError  lipgloss.Style
	help          lipgloss.Style
	userMsg       lipgloss.Style
	assistantMsg  lipgloss.Style
	errorMsg      lipgloss.Style
	indexed       lipgloss.Style
	indexing      lipgloss.Style
	selected      lipgloss.Style
}

func buildStyles() styleSet {
	base := lipgloss.NewStyle()
	return styleSet{
		title:         base.Foreground(lipgloss.Color("13")).Bold(true),
		view:          base.Foreground(lipgloss.Color("14")).Bold(true),
		statusOnline:  base.Foreground(lipgloss.Color("10")).Bold(true),
		statusOffline: base.Foreground(lipgloss.Color("9")).Bold(true),
		label:         base.Foreground(lipgloss.Color("8")),
		value:         base.Foreground(lipgloss.Color("15")),
		logLabel:      base.Foreground(lipgloss.Color("11")).Bold(true),
		logBody:       base.Foreground(lipgloss.Color("7")),
		logLabelError: base.Foreground(lipgloss.Color("9")).Bold(true),
		logBodyError:  base.Foreground(lipgloss.Color("9")),
		help:          base.Foreground(lipgloss.Color("12")),
		userMsg:       base.Foreground(lipgloss.Color("14")),
		assistantMsg:  base.Foreground(lipgloss.Color("15")),
		errorMsg:      base.Foreground(lipgloss.Color("9")),
		indexed:       base.Foreground(lipgloss.Color("10")),
		indexing:      base.Foreground(lipgloss.Color("11")),
		selected:      base.Foreground(lipgloss.Color("13")),
	}
}

var homeContent = buildHomeContent()

// View renders the terminal UI.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.viewport.View())
	b.WriteString("\n")

	if a.uploader != nil && a.uploadPercent >= 0 {
		b.WriteString(fmt.Sprintf("uploading %s %s %d%%\n",
			a.uploader.Filename,
			a.bar.ViewAs(float64(a.uploadPercent)/100),
			a.uploadPercent))
	}

	if a.showHelp && a.helpView != "" {
		b.WriteString(a.styles.help.Render(a.helpView))
		b.WriteString("\n")
	}

	b.WriteString(a.input.View())
	b.WriteString("\n")
	b.WriteString(a.logLineView())
	b.WriteString("\n")
	b.WriteString(a.statusLine())

	return b.String()
}

func (a *App) updateViewportContent() {
	switch a.view {
	case viewHome:
		a.viewport.SetContent(homeContent)
	case viewFiles:
		a.viewport.SetContent(a.renderFilesView())
	case viewChat:
		width := a.viewport.Width
		if width <= 0 {
			width = a.width
		}
		lines := a.renderTranscript(width)
		if len(lines) == 0 {
			a.viewport.SetContent("No messages yet. Type a question and press Enter. Use /select to scope queries.")
		} else {
			a.viewport.SetContent(strings.Join(lines, "\n"))
		}
		a.viewport.GotoBottom()
	case viewHelp:
		a.viewport.SetContent(a.renderHelpView())
	}
}

func (a *App) renderFilesView() string {
	files := a.syncer.Files()
	if len(files) == 0 {
		return "No files yet. Use /upload <path> to add a document."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-5s %-3s %-34s %-10s %-10s %s\n", "ID", "SEL", "FILENAME", "SIZE", "STATUS", "UPLOADED"))
	for _, f := range files {
		sel := " "
		if a.chat.Selected(f.ID) {
			sel = a.styles.selected.Render("*")
		}
		// Pad before styling: escape bytes would defeat %-10s alignment.
		status := a.styles.indexed.Render(fmt.Sprintf("%-10s", "indexed"))
		if !f.IsIndexed {
			status = a.styles.indexing.Render(fmt.Sprintf("%-10s", "indexing"))
		}
		name := f.Filename
		if runewidth.StringWidth(name) > 34 {
			name = runewidth.Truncate(name, 34, "…")
		}
		b.WriteString(fmt.Sprintf("%-5d [%s] %-34s %-10s %s %s\n",
			f.ID, sel, name, humanize.Bytes(uint64(f.Size)), status,
			f.UploadDate.Local().Format("2006-01-02 15:04")))
	}
	if n := a.syncer.PendingCount(); n > 0 {
		b.WriteString(fmt.Sprintf("\n%d file(s) still indexing; the list refreshes automatically.", n))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderTranscript wraps each message on its visible width before any
// styling is applied, so escape bytes never count against the wrap limit.
func (a *App) renderTranscript(width int) []string {
	transcript := a.chat.Transcript()
	lines := make([]string, 0, len(transcript)*2)
	for _, msg := range transcript {
		text, style := a.chatLine(msg)
		for _, line := range wrapLines([]string{text}, width) {
			lines = append(lines, style.Render(line))
		}
	}
	return lines
}

func (a *App) chatLine(msg query.Message) (string, lipgloss.Style) {
	switch {
	case msg.Typing:
		return "assistant is thinking ...", a.styles.label
	case msg.Role == query.RoleUser:
		return "you: " + msg.Content, a.styles.userMsg
	case msg.IsError:
		return "assistant: " + msg.Content, a.styles.errorMsg
	default:
		text := "assistant: " + msg.Content
		if len(msg.Sources) > 0 {
			refs := make([]string, 0, len(msg.Sources))
			for _, s := range msg.Sources {
				refs = append(refs, fmt.Sprintf("chunk %d", s.ChunkIndex))
			}
			text += " [" + strings.Join(refs, ", ") + "]"
		}
		return text, a.styles.assistantMsg
	}
}

func (a *App) renderHelpView() string {
	var b strings.Builder
	b.WriteString("Docdeck Commands\n\n")
	for _, c := range a.commands {
		b.WriteString(fmt.Sprintf("%-28s %s\n", c.usage, c.description))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) updateViewportSize() {
	if a.height == 0 {
		return
	}
	fixed := 3
	if a.uploader != nil {
		fixed++
	}
	height := a.height - fixed - a.helpHeight
	if height < 3 {
		height = 3
	}
	a.viewport.Height = height
	a.viewport.Width = a.width
}

func (a *App) updateInputWidth() {
	width := a.width
	if width <= 0 {
		width = 60
	}
	promptWidth := lipgloss.Width(a.input.Prompt)
	usable := width - promptWidth - 1
	if usable < 10 {
		usable = 10
	}
	a.input.Width = usable
}

func (a *App) updateHelp() {
	value := a.input.Value()
	if value == "" || !strings.HasPrefix(value, string(a.cfg.CommandPrefix)) {
		a.showHelp = false
		a.helpView = ""
		a.helpHeight = 0
		return
	}

	token := value
	if idx := strings.IndexAny(value, " \t"); idx >= 0 {
		token = value[:idx]
	}

	bindings := a.matchingBindings(token)
	if len(bindings) == 0 {
		a.showHelp = false
		a.helpView = ""
		a.helpHeight = 0
		return
	}

	a.showHelp = true
	a.helper.Width = a.width
	view := a.helper.View(dynamicKeyMap{keys: bindings})
	view = strings.TrimRight(view, "\n")
	a.helpView = view
	a.helpHeight = countLines(view)
	a.updateViewportSize()
}

func (a *App) matchingBindings(prefix string) []key.Binding {
	prefix = strings.ToLower(prefix)
	var bindings []key.Binding
	for _, c := range a.commands {
		if strings.HasPrefix(strings.ToLower(c.trigger), prefix) {
			bindings = append(bindings, key.NewBinding(
				key.WithKeys(c.usage),
				key.WithHelp(c.usage, c.description),
			))
		}
	}
	return bindings
}

func (a *App) statusLine() string {
	status := "OFFLINE"
	if a.authed {
		status = "ONLINE"
	}

	user := "-"
	if a.identity.Email != "" {
		user = a.identity.Email
	}

	indexing := "idle"
	if n := a.syncer.PendingCount(); n > 0 {
		indexing = fmt.Sprintf("%d indexing", n)
	}

	parts := []string{
		a.styles.title.Render("Docdeck"),
		a.styles.view.Render(strings.ToUpper(a.view.String())),
		a.statusValueStyle(status).Render(status),
		a.styles.label.Render("Server") + ": " + a.styles.value.Render(a.cfg.ServerURL),
		a.styles.label.Render("User") + ": " + a.styles.value.Render(user),
		a.styles.label.Render("Scope") + ": " + a.styles.value.Render(fmt.Sprintf("%d", a.chat.SelectionCount())),
		a.styles.label.Render("Index") + ": " + a.styles.value.Render(indexing),
	}

	return strings.Join(parts, " | ")
}

func (a *App) statusValueStyle(status string) lipgloss.Style {
	if strings.EqualFold(status, "ONLINE") {
		return a.styles.statusOnline
	}
	return a.styles.statusOffline
}

func (a *App) logLineView() string {
	labelStyle := a.styles.logLabel
	bodyStyle := a.styles.logBody
	if a.logLine.level == logLevelError {
		labelStyle = a.styles.logLabelError
		bodyStyle = a.styles.logBodyError
	}
	return labelStyle.Render(a.logLine.label) + " " + bodyStyle.Render(a.logLine.body)
}

func buildHomeContent() string {
	fig := figure.NewColorFigure("DOC DECK", "3-d", "green", true)
	art := strings.TrimRight(fig.String(), "\n")
	info := []string{
		"Use /login or /register to start a session.",
		"Use /upload <path> to add a document; indexing status refreshes itself.",
		"Use /files to see the collection, /select <id> to scope queries.",
		"Type a plain question in CHAT to ask across your documents.",
		"Use /help to browse all commands.",
	}

	var b strings.Builder
	b.WriteString(art)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(info, "\n"))
	return b.String()
}

func wrapLines(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	const minWidth = 10
	if width < minWidth {
		width = minWidth
	}

	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		segment := line
		if segment == "" {
			wrapped = append(wrapped, "")
			continue
		}
		for len(segment) > 0 {
			if runewidth.StringWidth(segment) <= width {
				wrapped = append(wrapped, segment)
				break
			}
			cut := wrapCutIndex(segment, width)
			part := strings.TrimRight(segment[:cut], " ")
			if part == "" && cut > 0 {
				part = segment[:cut]
			}
			wrapped = append(wrapped, part)
			segment = strings.TrimLeft(segment[cut:], " ")
			if segment == "" {
				break
			}
		}
	}
	return wrapped
}

func wrapCutIndex(s string, limit int) int {
	var width int
	lastSpace := -1
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if width+rw > limit {
			if lastSpace >= 0 {
				return lastSpace + 1
			}
			if width == 0 {
				return i + 1
			}
			return i
		}
		width += rw
		if unicode.IsSpace(r) {
			lastSpace = i
		}
	}
	return len(s)
}

type dynamicKeyMap struct {
	keys []key.Binding
}

func (d dynamicKeyMap) ShortHelp() []key.Binding {
	return d.keys
}

func (d dynamicKeyMap) FullHelp() [][]key.Binding {
	if len(d.keys) == 0 {
		return [][]key.Binding{}
	}
	return [][]key.Binding{d.keys}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
