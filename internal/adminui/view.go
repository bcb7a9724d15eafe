package adminui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/larkvale/docdeck/internal/admin"
	"github.com/larkvale/docdeck/internal/api"
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
	heading       lipgloss.Style
	kpi           lipgloss.Style
	badgeGood     lipgloss.Style
	badgeWarn     lipgloss.Style
	badgeBad      lipgloss.Style
	pending       lipgloss.Style
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
		heading:       base.Foreground(lipgloss.Color("14")).Bold(true),
		kpi:           base.Foreground(lipgloss.Color("15")).Bold(true),
		badgeGood:     base.Foreground(lipgloss.Color("10")),
		badgeWarn:     base.Foreground(lipgloss.Color("11")),
		badgeBad:      base.Foreground(lipgloss.Color("9")),
		pending:       base.Foreground(lipgloss.Color("11")).Bold(true),
	}
}

var loginContent = buildLoginContent()

// View renders the console.
func (a *App) View() string {
	var b strings.Builder

	switch a.view {
	case viewUsers:
		b.WriteString(a.usersTable.View())
	case viewFiles:
		b.WriteString(a.filesTable.View())
	case viewChats:
		b.WriteString(a.chatsTable.View())
	case viewAudit:
		b.WriteString(a.auditTable.View())
	default:
		b.WriteString(a.viewport.View())
	}
	b.WriteString("\n")

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
	case viewLogin:
		a.viewport.SetContent(loginContent)
	case viewDash:
		a.viewport.SetContent(a.renderDashView())
	case viewProfile:
		a.viewport.SetContent(a.renderProfileView())
	case viewHelp:
		a.viewport.SetContent(a.renderHelpView())
	}
}

func (a *App) renderDashView() string {
	if a.snapshot == nil {
		return "No data loaded yet. Use /refresh to fetch all collections."
	}
	kpi := a.snapshot.KPIs()

	var b strings.Builder
	b.WriteString(a.styles.heading.Render("Overview"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s  %s  %s  %s\n",
		a.kpiCell("Users", fmt.Sprintf("%d", kpi.Users)),
		a.kpiCell("Files", fmt.Sprintf("%d", kpi.Files)),
		a.kpiCell("Chats", fmt.Sprintf("%d", kpi.Chats)),
		a.kpiCell("Storage", humanize.Bytes(uint64(kpi.StorageBytes)))))

	top := a.snapshot.TopUsersByStorage(5)
	if len(top) > 0 {
		b.WriteString("\n")
		b.WriteString(a.styles.heading.Render("Heaviest users"))
		b.WriteString("\n")
		for _, u := range top {
			b.WriteString(fmt.Sprintf("  %-32s %8s  %s\n",
				truncate(u.Email, 32),
				humanize.Bytes(uint64(u.StorageUsed)),
				a.renderBadges(u)))
		}
	}

	b.WriteString("\n")
	b.WriteString(a.styles.label.Render(
		fmt.Sprintf("Loaded %s", humanize.Time(a.snapshot.LoadedAt))))
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) kpiCell(label, value string) string {
	return a.styles.label.Render(label+":") + " " + a.styles.kpi.Render(value)
}

func (a *App) renderProfileView() string {
	if a.snapshot == nil {
		return "No data loaded yet. Use /refresh first."
	}
	p := a.snapshot.Profile(a.profileEmail, time.Now())
	if p.User == nil {
		return fmt.Sprintf("No user with email %q in the last refresh.", a.profileEmail)
	}
	u := p.User

	var b strings.Builder
	b.WriteString(a.styles.heading.Render(u.Email))
	b.WriteString("  " + a.renderBadges(*u) + "\n\n")
	if u.Name != "" {
		b.WriteString(a.profileRow("Name", u.Name))
	}
	b.WriteString(a.profileRow("Files", fmt.Sprintf("%d (%s)", len(p.Files), humanize.Bytes(uint64(p.StorageBytes)))))
	b.WriteString(a.profileRow("Queries", fmt.Sprintf("%d total, %d in 24h, %d failed",
		u.QueriesTotal, u.Queries24h, u.FailedQueries)))
	if p.LastUpload > 0 {
		b.WriteString(a.profileRow("Last upload", humanizeAgo(p.LastUpload)))
	}
	if p.LastQuery > 0 {
		b.WriteString(a.profileRow("Last query", humanizeAgo(p.LastQuery)))
	}
	if u.LastLogin != nil {
		b.WriteString(a.profileRow("Last login", humanize.Time(*u.LastLogin)))
	}
	if u.CreatedAt != nil {
		b.WriteString(a.profileRow("Member since", u.CreatedAt.Local().Format("2006-01-02")))
	}

	if len(p.Files) > 0 {
		b.WriteString("\n")
		b.WriteString(a.styles.heading.Render("Files"))
		b.WriteString("\n")
		for _, f := range p.Files {
			b.WriteString(fmt.Sprintf("  %-5d %-34s %8s  %s\n",
				f.ID, truncate(f.Filename, 34), humanize.Bytes(uint64(f.Size)),
				f.UploadDate.Local().Format("2006-01-02 15:04")))
		}
	}
	if len(p.Chats) > 0 {
		b.WriteString("\n")
		b.WriteString(a.styles.heading.Render("Recent questions"))
		b.WriteString("\n")
		for _, c := range p.Chats {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				c.Timestamp.Local().Format("2006-01-02 15:04"),
				truncate(c.Query, 70)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) profileRow(label, value string) string {
	return a.styles.label.Render(fmt.Sprintf("%-14s", label)) + a.styles.value.Render(value) + "\n"
}

func (a *App) renderBadges(u api.AdminUser) string {
	parts := make([]string, 0, 3)
	for _, badge := range admin.Badges(u) {
		var style lipgloss.Style
		switch badge {
		case admin.BadgeVerified:
			style = a.styles.badgeGood
		case admin.BadgeSuspended:
			style = a.styles.badgeBad
		default:
			style = a.styles.badgeWarn
		}
		parts = append(parts, style.Render("["+string(badge)+"]"))
	}
	return strings.Join(parts, " ")
}

func (a *App) renderHelpView() string {
	var b strings.Builder
	b.WriteString("Docdeck Admin Commands\n\n")
	for _, c := range a.commands {
		b.WriteString(fmt.Sprintf("%-28s %s\n", c.usage, c.description))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) buildTables() {
	height := a.contentHeight()
	styles := tableStyles()

	a.usersTable = table.New(
		table.WithColumns(a.userColumns()),
		table.WithRows(a.userRows()),
		table.WithHeight(height),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
	a.filesTable = table.New(
		table.WithColumns(a.fileColumns()),
		table.WithRows(a.fileRows()),
		table.WithHeight(height),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
	a.chatsTable = table.New(
		table.WithColumns(a.chatColumns()),
		table.WithRows(a.chatRows()),
		table.WithHeight(height),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
	a.auditTable = table.New(
		table.WithColumns(a.auditColumns()),
		table.WithRows(a.auditRows()),
		table.WithHeight(height),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("13"))
	return s
}

func (a *App) userColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "EMAIL", Width: 30},
		{Title: "STATUS", Width: 30},
		{Title: "FILES", Width: 6},
		{Title: "STORAGE", Width: 9},
		{Title: "QUERIES", Width: 8},
		{Title: "24H", Width: 5},
	}
}

func (a *App) userRows() []table.Row {
	if a.snapshot == nil {
		return nil
	}
	users := admin.FilterUsers(a.snapshot.Users, a.filter)
	rows := make([]table.Row, 0, len(users))
	for _, u := range users {
		badges := make([]string, 0, 3)
		for _, badge := range admin.Badges(u) {
			badges = append(badges, string(badge))
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", u.ID),
			u.Email,
			strings.Join(badges, " "),
			fmt.Sprintf("%d", u.FilesCount),
			humanize.Bytes(uint64(u.StorageUsed)),
			fmt.Sprintf("%d", u.QueriesTotal),
			fmt.Sprintf("%d", u.Queries24h),
		})
	}
	return rows
}

func (a *App) fileColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "FILENAME", Width: 34},
		{Title: "SIZE", Width: 9},
		{Title: "OWNER", Width: 28},
		{Title: "UPLOADED", Width: 16},
	}
}

func (a *App) fileRows() []table.Row {
	if a.snapshot == nil {
		return nil
	}
	files := admin.FilterFiles(a.snapshot.Files, a.filter)
	rows := make([]table.Row, 0, len(files))
	for _, f := range files {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", f.ID),
			f.Filename,
			humanize.Bytes(uint64(f.Size)),
			f.OwnerEmail,
			f.UploadDate.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func (a *App) chatColumns() []table.Column {
	return []table.Column{
		{Title: "WHEN", Width: 16},
		{Title: "USER", Width: 28},
		{Title: "QUERY", Width: 50},
	}
}

func (a *App) chatRows() []table.Row {
	if a.snapshot == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(a.snapshot.Chats))
	for _, c := range a.snapshot.Chats {
		rows = append(rows, table.Row{
			c.Timestamp.Local().Format("2006-01-02 15:04"),
			c.UserEmail,
			truncate(c.Query, 50),
		})
	}
	return rows
}

func (a *App) auditColumns() []table.Column {
	return []table.Column{
		{Title: "WHEN", Width: 16},
		{Title: "ACTOR", Width: 24},
		{Title: "ACTION", Width: 20},
		{Title: "TARGET", Width: 16},
		{Title: "DETAILS", Width: 32},
	}
}

func (a *App) auditRows() []table.Row {
	if a.snapshot == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(a.snapshot.Audit))
	for _, e := range a.snapshot.Audit {
		target := "-"
		if e.TargetID != nil {
			target = fmt.Sprintf("%s %d", e.TargetType, *e.TargetID)
		}
		rows = append(rows, table.Row{
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.ActorEmail,
			e.Action,
			target,
			truncate(e.Metadata, 32),
		})
	}
	return rows
}

func (a *App) contentHeight() int {
	if a.height == 0 {
		return 10
	}
	height := a.height - 3 - a.helpHeight
	if height < 3 {
		height = 3
	}
	return height
}

func (a *App) updateViewportSize() {
	a.viewport.Height = a.contentHeight()
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

	who := "-"
	if a.username != "" {
		who = a.username
	}

	data := "no data"
	if a.loading {
		data = "loading"
	} else if a.snapshot != nil {
		data = humanize.Time(a.snapshot.LoadedAt)
	}

	parts := []string{
		a.styles.title.Render("Docdeck Admin"),
		a.styles.view.Render(strings.ToUpper(a.view.String())),
		a.statusValueStyle(status).Render(status),
		a.styles.label.Render("Server") + ": " + a.styles.value.Render(a.cfg.ServerURL),
		a.styles.label.Render("Admin") + ": " + a.styles.value.Render(who),
		a.styles.label.Render("Data") + ": " + a.styles.value.Render(data),
	}
	if a.filter != "" {
		parts = append(parts, a.styles.label.Render("Filter")+": "+a.styles.value.Render(a.filter))
	}
	if a.pending != nil {
		parts = append(parts, a.styles.pending.Render("CONFIRM?"))
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

func buildLoginContent() string {
	fig := figure.NewColorFigure("ADMIN", "3-d", "red", true)
	art := strings.TrimRight(fig.String(), "\n")
	info := []string{
		"Use /login <username> <password> to open the console.",
		"The dashboard, tables and profile panels load after login.",
		"Destructive actions ask for /confirm before running.",
	}

	var b strings.Builder
	b.WriteString(art)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(info, "\n"))
	return b.String()
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func humanizeAgo(d time.Duration) string {
	return humanize.Time(time.Now().Add(-d))
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
