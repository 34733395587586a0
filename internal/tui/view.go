package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mu0717/email/internal/client"
	"github.com/Mu0717/email/internal/htmlview"
)

// Monochrome theme - adaptive for light and dark terminals
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgAlt    = lipgloss.AdaptiveColor{Light: "#f0f0f0", Dark: "#181818"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	// Title bar style - bold with visible background
	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	// Spinner style - NOT faint so it's visible
	spinnerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	separatorStyle = lipgloss.NewStyle().
			Faint(true).
			Background(bgBase)

	// Cursor row: subtle lighter background
	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	// Selected (checked) rows: bold
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	normalRowStyle = lipgloss.NewStyle().
			Background(bgBase)

	// Alternating rows: very subtle gray background
	altRowStyle = lipgloss.NewStyle().
			Background(bgAlt)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	loadingStyle = lipgloss.NewStyle().
			Italic(true).
			Background(bgBase)

	selectedIndicatorStyle = lipgloss.NewStyle().
				Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Background(bgBase)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}).
			Background(bgBase)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgCursor).
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Faint(true).
				Background(bgBase).
				Padding(0, 1)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width <= 0 {
		return "Initializing..."
	}

	var body string
	switch m.level {
	case levelAdminLogin:
		body = m.loginView()
	case levelAccounts:
		body = m.accountsView()
	case levelMailView:
		body = m.mailView()
	case levelMailDetail:
		body = m.mailDetailView()
	}

	out := m.buildTitleBar() + "\n" + body + "\n" + m.footerView()
	if m.confirmDelete || m.switcherOpen {
		return m.overlayModal(out)
	}
	return out
}

// buildTitleBar renders the top bar with the app name and current context.
func (m Model) buildTitleBar() string {
	title := "mailadm"
	if m.version != "" {
		title += " " + m.version
	}
	var context string
	switch m.level {
	case levelAdminLogin:
		context = "Admin Login"
	case levelAccounts:
		context = "Accounts"
	case levelMailView:
		context = "Mail · " + m.currentUser
	case levelMailDetail:
		context = "Message · " + m.currentUser
	}
	line := title + "  " + context
	return titleBarStyle.Render(padRight(line, m.width-2))
}

// contentRows is the number of body lines between title bar and the
// notification+footer lines.
func (m Model) contentRows() int {
	rows := m.height - 3
	if rows < 1 {
		rows = 1
	}
	return rows
}

// tableRows is how many account rows fit under the table chrome.
func (m Model) tableRows() int {
	// tab bar, column header, separator
	rows := m.contentRows() - 3
	if rows < 1 {
		rows = 1
	}
	return rows
}

// detailPageLines is how many body lines the detail view scrolls by.
func (m Model) detailPageLines() int {
	// header block and content tab bar
	rows := m.contentRows() - 6
	if rows < 1 {
		rows = 1
	}
	return rows
}

// fillScreen pads content with blank lines so every frame repaints the
// full body region, then appends the notification line.
func (m Model) fillScreen(content string, usedLines int) string {
	var sb strings.Builder
	sb.WriteString(content)
	if content != "" {
		sb.WriteString("\n")
	}
	for i := usedLines; i < m.contentRows(); i++ {
		sb.WriteString(normalRowStyle.Render(strings.Repeat(" ", m.width)))
		sb.WriteString("\n")
	}
	sb.WriteString(m.renderNotificationLine())
	return sb.String()
}

func (m Model) loginView() string {
	var sb strings.Builder
	sb.WriteString(normalRowStyle.Render(strings.Repeat(" ", m.width)))
	sb.WriteString("\n")
	sb.WriteString(tableHeaderStyle.Render(padRight("  Administrator password", m.width)))
	sb.WriteString("\n")
	sb.WriteString(normalRowStyle.Render(padRight("  "+m.passwordInput.View(), m.width)))
	used := 3
	if m.loading {
		sb.WriteString("\n")
		sb.WriteString(loadingStyle.Render(padRight("  "+m.spinnerIndicator()+" Checking credential...", m.width)))
		used++
	}
	return m.fillScreen(sb.String(), used)
}

// tabBar renders the account manager tab strip.
func (m Model) tabBar() string {
	labels := []string{"Single Login", "Batch Import", "Account Table"}
	var parts []string
	for i, label := range labels {
		if accountsTab(i) == m.tab {
			parts = append(parts, tabActiveStyle.Render(label))
		} else {
			parts = append(parts, tabInactiveStyle.Render(label))
		}
	}
	return padRight(strings.Join(parts, " "), m.width)
}

func (m Model) accountsView() string {
	var body string
	var used int
	switch m.tab {
	case tabSingle:
		body, used = m.singleTabView()
	case tabBatch:
		body, used = m.batchTabView()
	default:
		body, used = m.tableTabView()
	}
	return m.fillScreen(m.tabBar()+"\n"+body, used+1)
}

func (m Model) singleTabView() (string, int) {
	labels := []string{"Email", "Refresh token", "Client ID"}
	var sb strings.Builder
	used := 0
	for i, label := range labels {
		marker := "  "
		if i == m.singleFocus {
			marker = selectedIndicatorStyle.Render("▶ ")
		}
		sb.WriteString(normalRowStyle.Render(padRight(marker+label, m.width)))
		sb.WriteString("\n")
		sb.WriteString(normalRowStyle.Render(padRight("    "+m.singleInputs[i].View(), m.width)))
		sb.WriteString("\n")
		used += 2
	}
	if m.loading {
		sb.WriteString(loadingStyle.Render(padRight("  "+m.spinnerIndicator()+" Signing in...", m.width)))
		sb.WriteString("\n")
		used++
	}
	return strings.TrimSuffix(sb.String(), "\n"), used
}

func (m Model) batchTabView() (string, int) {
	var sb strings.Builder
	used := 0

	hint := "One account per line: email----password----client_id----refresh_token"
	sb.WriteString(statsStyle.Render(padRight(hint, m.width-2)))
	sb.WriteString("\n")
	used++

	for _, line := range strings.Split(m.batchInput.View(), "\n") {
		sb.WriteString(normalRowStyle.Render(padRight(line, m.width)))
		sb.WriteString("\n")
		used++
	}

	if m.loading {
		sb.WriteString(loadingStyle.Render(padRight(" "+m.spinnerIndicator()+" Working...", m.width)))
		return sb.String(), used + 1
	}

	if len(m.verifyResults) == 0 {
		return strings.TrimSuffix(sb.String(), "\n"), used
	}

	succeeded := 0
	for _, r := range m.verifyResults {
		if r.Success() {
			succeeded++
		}
	}
	summary := fmt.Sprintf("Verified: %d ok, %d failed", succeeded, len(m.verifyResults)-succeeded)
	if m.batchDropped > 0 {
		summary += fmt.Sprintf(" (%d malformed lines skipped)", m.batchDropped)
	}
	sb.WriteString(tableHeaderStyle.Render(padRight(summary, m.width)))
	sb.WriteString("\n")
	used++

	maxRows := m.tableRows() - used
	if maxRows < 1 {
		maxRows = 1
	}
	start := 0
	if m.verifyCursor >= maxRows {
		start = m.verifyCursor - maxRows + 1
	}
	end := min(start+maxRows, len(m.verifyResults))
	for i := start; i < end; i++ {
		r := m.verifyResults[i]
		check := "[ ]"
		if m.verifySelected[i] {
			check = "[x]"
		}
		status := "OK"
		if !r.Success() {
			status = "FAIL"
			if r.Message != "" {
				status += " " + truncateRunes(r.Message, 40)
			}
		}
		row := fmt.Sprintf(" %s %-40s %s", check, truncateRunes(r.Email, 40), status)
		style := normalRowStyle
		if i == m.verifyCursor {
			style = cursorRowStyle
		} else if m.verifySelected[i] {
			style = selectedRowStyle
		}
		sb.WriteString(style.Render(padRight(row, m.width)))
		sb.WriteString("\n")
		used++
	}
	return strings.TrimSuffix(sb.String(), "\n"), used
}

func (m Model) tableTabView() (string, int) {
	if m.err != nil {
		return errorStyle.Render(padRight(fmt.Sprintf("Error: %v", m.err), m.width)), 1
	}
	visible := m.visibleAccounts()
	if len(visible) == 0 {
		if m.loading {
			return loadingStyle.Render(padRight(" "+m.spinnerIndicator()+" Loading accounts...", m.width)), 1
		}
		return normalRowStyle.Render(padRight(" No accounts match", m.width)), 1
	}

	var sb strings.Builder
	used := 0

	var filterLine string
	if m.searchActive {
		filterLine = " /" + m.searchInput.View()
	} else {
		filterLine = fmt.Sprintf(" %d/%d accounts · filter: %s", len(visible), len(m.accounts), m.statusFilter)
		if m.searchQuery != "" {
			filterLine += fmt.Sprintf(" · /%s", m.searchQuery)
		}
		if len(m.selected) > 0 {
			filterLine += fmt.Sprintf(" · %d selected", len(m.selected))
		}
	}
	sb.WriteString(statsStyle.Render(padRight(filterLine, m.width-2)))
	sb.WriteString("\n")
	used++

	emailWidth := 34
	remarkWidth := m.width - emailWidth - 26
	if remarkWidth < 8 {
		remarkWidth = 8
	}
	header := fmt.Sprintf("    %-*s %-8s %-5s %s", emailWidth, "Email", "Status", "Sold", "Remark")
	sb.WriteString(tableHeaderStyle.Render(padRight(header, m.width)))
	sb.WriteString("\n")
	sb.WriteString(separatorStyle.Render(strings.Repeat("─", m.width)))
	sb.WriteString("\n")
	used += 2

	rows := m.tableRows()
	start := m.tableScroll
	if start > len(visible)-1 {
		start = 0
	}
	end := min(start+rows, len(visible))
	for i := start; i < end; i++ {
		acct := visible[i]
		indicator := "   "
		if i == m.accountCursor && m.selected[acct.Email] {
			indicator = selectedIndicatorStyle.Render("▶✓ ")
		} else if i == m.accountCursor {
			indicator = cursorRowStyle.Render("▶  ")
		} else if m.selected[acct.Email] {
			indicator = selectedIndicatorStyle.Render(" ✓ ")
		}
		sold := "no"
		if acct.IsSold {
			sold = "yes"
		}
		remark := acct.Remark
		if m.remarkEditing && i == m.accountCursor {
			remark = m.remarkInput.View()
		}
		row := fmt.Sprintf(" %-*s %-8s %-5s %s",
			emailWidth, truncateRunes(acct.Email, emailWidth),
			acct.Status, sold, truncateRunes(remark, remarkWidth))

		var style lipgloss.Style
		if i == m.accountCursor {
			style = cursorRowStyle
		} else if m.selected[acct.Email] {
			style = selectedRowStyle
		} else if i%2 == 0 {
			style = normalRowStyle
		} else {
			style = altRowStyle
		}
		sb.WriteString(indicator)
		sb.WriteString(style.Render(padRight(row, m.width-3)))
		sb.WriteString("\n")
		used++
	}
	return strings.TrimSuffix(sb.String(), "\n"), used
}

func (m Model) mailView() string {
	if m.err != nil {
		return m.fillScreen(errorStyle.Render(padRight(fmt.Sprintf("Error: %v", m.err), m.width)), 1)
	}
	if m.dual == nil {
		if m.loading {
			return m.fillScreen(loadingStyle.Render(padRight(" "+m.spinnerIndicator()+" Loading mailboxes...", m.width)), 1)
		}
		return m.fillScreen(normalRowStyle.Render(padRight(" No mail loaded", m.width)), 1)
	}

	paneWidth := (m.width - 1) / 2
	inbox := m.paneView(paneInbox, m.dual.InboxEmails, m.dual.InboxTotal, m.inboxPage, paneWidth)
	junk := m.paneView(paneJunk, m.dual.JunkEmails, m.dual.JunkTotal, m.junkPage, m.width-paneWidth-1)
	sep := make([]string, len(inbox))
	for i := range sep {
		sep[i] = separatorStyle.Render("│")
	}
	joined := lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(inbox, "\n"),
		strings.Join(sep, "\n"),
		strings.Join(junk, "\n"))
	return m.fillScreen(joined, len(inbox))
}

// paneView renders one mailbox column. Both panes always produce the same
// number of lines so they join cleanly side by side.
func (m Model) paneView(p pane, emails []client.EmailSummary, total, page, width int) []string {
	lines := make([]string, 0, m.contentRows())

	title := "Inbox"
	if p == paneJunk {
		title = "Junk"
	}
	pages := pageCount(total, mailPageSize)
	header := fmt.Sprintf(" %s (%d)", title, total)
	if pages > 1 {
		header += fmt.Sprintf("  page %d/%d", page, pages)
	}
	headerStyle := tableHeaderStyle
	if p == m.activePane {
		headerStyle = headerStyle.Background(bgCursor)
	}
	lines = append(lines, headerStyle.Render(padRight(header, width)))
	lines = append(lines, separatorStyle.Render(strings.Repeat("─", width)))

	rows := m.contentRows() - 2
	for i := 0; i < rows; i++ {
		if i >= len(emails) {
			lines = append(lines, normalRowStyle.Render(strings.Repeat(" ", width)))
			continue
		}
		email := emails[i]
		date := formatRelativeDate(email.Date, time.Now())
		subject := email.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		initial := senderInitial(email.SenderInitial, email.FromEmail)
		unread := " "
		if !email.IsRead {
			unread = "●"
		}
		attach := ""
		if email.HasAttachments {
			attach = "📎 "
		}
		dateWidth := lipgloss.Width(date)
		bodyWidth := width - dateWidth - 4
		if bodyWidth < 4 {
			bodyWidth = 4
		}
		text := truncateRunes(initial+" "+attach+email.FromEmail+": "+subject, bodyWidth)
		row := fmt.Sprintf(" %s %s", unread, padRight(text, bodyWidth))
		row += date

		style := normalRowStyle
		if p == m.activePane && i == m.paneCursor {
			style = cursorRowStyle
		} else if i%2 == 1 {
			style = altRowStyle
		}
		lines = append(lines, style.Render(padRight(row, width)))
	}
	return lines
}

func (m Model) mailDetailView() string {
	if m.detail == nil {
		if m.loading {
			return m.fillScreen(loadingStyle.Render(padRight(" "+m.spinnerIndicator()+" Loading message...", m.width)), 1)
		}
		return m.fillScreen(errorStyle.Render(padRight(" Message not found", m.width)), 1)
	}

	var sb strings.Builder
	used := 0
	writeHeader := func(label, value string) {
		sb.WriteString(normalRowStyle.Render(padRight(" "+tableHeaderStyle.Render(label+": ")+value, m.width)))
		sb.WriteString("\n")
		used++
	}
	subject := m.detail.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	writeHeader("Subject", truncateRunes(subject, m.width-12))
	writeHeader("From", truncateRunes(m.detail.FromEmail, m.width-12))
	writeHeader("To", truncateRunes(m.detail.ToEmail, m.width-12))
	writeHeader("Date", formatAbsoluteDate(m.detail.Date))

	labels := []string{"HTML", "Plain", "Raw"}
	var tabs []string
	for i, label := range labels {
		if contentTab(i) == m.contentTab {
			tabs = append(tabs, tabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(label))
		}
	}
	sb.WriteString(padRight(strings.Join(tabs, " "), m.width))
	sb.WriteString("\n")
	sb.WriteString(separatorStyle.Render(strings.Repeat("─", m.width)))
	sb.WriteString("\n")
	used += 2

	lines := m.detailBodyLines()
	pageLines := m.detailPageLines()
	start := m.detailScroll
	if start > len(lines)-1 {
		start = len(lines) - 1
	}
	if start < 0 {
		start = 0
	}
	end := min(start+pageLines, len(lines))
	for _, line := range lines[start:end] {
		sb.WriteString(normalRowStyle.Render(padRight(line, m.width)))
		sb.WriteString("\n")
		used++
	}
	return m.fillScreen(strings.TrimSuffix(sb.String(), "\n"), used)
}

// detailBodyText is the active content tab's text. The HTML tab is
// sanitized before display; Raw shows the payload untouched.
func (m Model) detailBodyText() string {
	switch m.contentTab {
	case contentHTML:
		return htmlview.ToText(htmlview.Sanitize(m.detail.BodyHTML))
	case contentPlain:
		return m.detail.BodyPlain
	default:
		if m.detail.BodyHTML != "" {
			return m.detail.BodyHTML
		}
		return m.detail.BodyPlain
	}
}

// detailBodyLines renders the active content tab as wrapped terminal lines.
func (m Model) detailBodyLines() []string {
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	text := m.detailBodyText()
	if strings.TrimSpace(text) == "" {
		return []string{"(empty)"}
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, wrapText(" "+line, width)...)
	}
	return lines
}

func (m Model) spinnerIndicator() string {
	if m.spinnerFrame < len(spinnerFrames) {
		return spinnerFrames[m.spinnerFrame]
	}
	return spinnerFrames[0]
}

// renderNotificationLine shows the flash message, a right-aligned loading
// spinner, or a blank line.
func (m Model) renderNotificationLine() string {
	if m.flashMessage != "" {
		style := flashStyle
		if m.flashIsError {
			style = errorStyle
		}
		if m.loading {
			indicator := m.spinnerIndicator()
			flash := " " + m.flashMessage
			gap := m.width - lipgloss.Width(flash) - lipgloss.Width(indicator)
			if gap < 1 {
				gap = 1
			}
			return style.Render(padRight(flash+strings.Repeat(" ", gap)+indicator, m.width))
		}
		return style.Render(padRight(" "+m.flashMessage, m.width))
	}
	if m.loading {
		indicator := spinnerStyle.Render(m.spinnerIndicator())
		gap := m.width - 1 - lipgloss.Width(m.spinnerIndicator())
		if gap < 1 {
			gap = 1
		}
		return statsStyle.Render(padRight(strings.Repeat(" ", gap)+indicator, m.width-2))
	}
	return normalRowStyle.Render(strings.Repeat(" ", m.width))
}

func (m Model) footerView() string {
	var hints string
	switch m.level {
	case levelAdminLogin:
		hints = "enter login · esc quit"
	case levelAccounts:
		switch {
		case m.confirmDelete:
			hints = "y confirm · n cancel"
		case m.searchActive:
			hints = "enter apply · esc cancel"
		case m.remarkEditing:
			hints = "enter save · esc cancel"
		case m.tab == tabSingle:
			hints = "tab field · enter sign in · ^b batch · esc table"
		case m.tab == tabBatch && m.batchEditing:
			hints = "esc done editing"
		case m.tab == tabBatch:
			hints = "e edit · v verify · space pick · a all · i import · esc table"
		default:
			hints = "enter open · space pick · s sold · e remark · / search · f filter · d delete · r reload · R recheck · ^s add · ^b batch · ^l logout · q quit"
		}
	case levelMailView:
		if m.switcherOpen {
			hints = "enter switch · esc cancel"
		} else {
			hints = "tab pane · enter open · n/p page · r refresh · A switch account · esc back"
		}
	case levelMailDetail:
		hints = "1 html · 2 plain · 3 raw · c copy · ↑↓ scroll · esc back"
	}
	return footerStyle.Render(padRight(hints, m.width-2))
}

func (m Model) renderDeleteConfirmModal() string {
	return modalTitleStyle.Render("Delete accounts") + "\n\n" +
		fmt.Sprintf("Remove %d selected account(s) from the server?", len(m.selected)) + "\n\n" +
		"y: delete    n: cancel"
}

func (m Model) renderSwitcherModal() string {
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render("Switch account"))
	sb.WriteString("\n\n")
	maxRows := 10
	start := 0
	if m.switcherCursor >= maxRows {
		start = m.switcherCursor - maxRows + 1
	}
	end := min(start+maxRows, len(m.accounts))
	for i := start; i < end; i++ {
		marker := "  "
		if i == m.switcherCursor {
			marker = "▶ "
		}
		line := marker + truncateRunes(m.accounts[i].Email, 40)
		if m.accounts[i].Email == m.currentUser {
			line += " (current)"
		}
		if !m.sessions.HasAccount(m.accounts[i].Email) {
			line += " (not cached)"
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\nenter: switch    esc: cancel")
	return sb.String()
}

// overlayModal centers the active modal over the rendered background.
func (m Model) overlayModal(background string) string {
	var modalContent string
	switch {
	case m.confirmDelete:
		modalContent = m.renderDeleteConfirmModal()
	case m.switcherOpen:
		modalContent = m.renderSwitcherModal()
	}
	if modalContent == "" {
		return background
	}

	modal := modalStyle.Render(modalContent)
	bgLines := strings.Split(background, "\n")
	modalLines := strings.Split(modal, "\n")

	startLine := (len(bgLines) - len(modalLines)) / 2
	if startLine < 0 {
		startLine = 0
	}
	modalWidth := lipgloss.Width(modal)
	leftPadding := (m.width - modalWidth) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}
	for i, modalLine := range modalLines {
		if startLine+i >= len(bgLines) {
			break
		}
		bgLines[startLine+i] = strings.Repeat(" ", leftPadding) + modalLine
	}
	return strings.Join(bgLines, "\n")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
