package tui

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mu0717/email/internal/batch"
	"github.com/Mu0717/email/internal/client"
)

// writeClipboard is swapped out in tests; the real clipboard needs a
// display server.
var writeClipboard = clipboard.WriteAll

// isUnauthorized reports whether err means the admin session is gone.
func isUnauthorized(err error) bool {
	return errors.Is(err, client.ErrUnauthorized)
}

// matchesSearch reports whether the account matches a case-insensitive
// substring query over email and remark.
func matchesSearch(acct client.Account, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(acct.Email), q) ||
		strings.Contains(strings.ToLower(acct.Remark), q)
}

// matchesStatus reports whether the account passes the status filter.
func matchesStatus(acct client.Account, f statusFilter) bool {
	switch f {
	case filterActive:
		return acct.Status == client.StatusActive
	case filterInactive:
		return acct.Status != client.StatusActive
	case filterSold:
		return acct.IsSold
	case filterUnsold:
		return !acct.IsSold
	default:
		return true
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits.
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.level {
	case levelAdminLogin:
		return m.handleLoginKeys(msg)
	case levelAccounts:
		return m.handleAccountsKeys(msg)
	case levelMailView:
		return m.handleMailViewKeys(msg)
	case levelMailDetail:
		return m.handleMailDetailKeys(msg)
	}
	return m, nil
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		password := strings.TrimSpace(m.passwordInput.Value())
		if password == "" {
			return m, m.flashError("password required")
		}
		if m.loading {
			return m, nil
		}
		spin := m.startLoad()
		return m, tea.Batch(spin, m.probeLogin(password))
	case "esc":
		m.quitting = true
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.passwordInput, cmd = m.passwordInput.Update(msg)
		return m, cmd
	}
}

func (m Model) handleAccountsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal and inline editors take the keys first.
	if m.confirmDelete {
		return m.handleConfirmDeleteKeys(msg)
	}
	if m.searchActive {
		return m.handleSearchKeys(msg)
	}
	if m.remarkEditing {
		return m.handleRemarkKeys(msg)
	}
	if m.tab == tabSingle {
		return m.handleSingleTabKeys(msg)
	}
	if m.tab == tabBatch {
		return m.handleBatchTabKeys(msg)
	}
	return m.handleTableTabKeys(msg)
}

func (m Model) switchTab(tab accountsTab) (tea.Model, tea.Cmd) {
	m.tab = tab
	m.batchEditing = false
	m.batchInput.Blur()
	for i := range m.singleInputs {
		m.singleInputs[i].Blur()
	}
	switch tab {
	case tabSingle:
		m.singleFocus = 0
		m.singleInputs[0].Focus()
		return m, textinput.Blink
	case tabTable:
		m.accountsRequestID++
		spin := m.startLoad()
		return m, tea.Batch(spin, m.loadAccounts(false))
	}
	return m, nil
}

func (m Model) handleSingleTabKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.singleInputs[m.singleFocus].Blur()
		m.singleFocus = (m.singleFocus + 1) % len(m.singleInputs)
		m.singleInputs[m.singleFocus].Focus()
		return m, textinput.Blink
	case "shift+tab", "up":
		m.singleInputs[m.singleFocus].Blur()
		m.singleFocus = (m.singleFocus + len(m.singleInputs) - 1) % len(m.singleInputs)
		m.singleInputs[m.singleFocus].Focus()
		return m, textinput.Blink
	case "enter":
		creds := client.Credentials{
			Email:        strings.TrimSpace(m.singleInputs[0].Value()),
			RefreshToken: strings.TrimSpace(m.singleInputs[1].Value()),
			ClientID:     strings.TrimSpace(m.singleInputs[2].Value()),
		}
		if creds.Email == "" || creds.RefreshToken == "" || creds.ClientID == "" {
			return m, m.flashError("email, refresh token and client id are all required")
		}
		if m.loading {
			return m, nil
		}
		spin := m.startLoad()
		return m, tea.Batch(spin, m.addAccount(creds))
	case "ctrl+b":
		return m.switchTab(tabBatch)
	case "ctrl+t", "esc":
		return m.switchTab(tabTable)
	default:
		var cmd tea.Cmd
		m.singleInputs[m.singleFocus], cmd = m.singleInputs[m.singleFocus].Update(msg)
		return m, cmd
	}
}

func (m Model) handleBatchTabKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.batchEditing {
		switch msg.String() {
		case "esc":
			m.batchEditing = false
			m.batchInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.batchInput, cmd = m.batchInput.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "e", "enter":
		if len(m.verifyResults) == 0 || msg.String() == "e" {
			m.batchEditing = true
			m.batchInput.Focus()
			return m, textinput.Blink
		}
		fallthrough
	case "i":
		return m.importSelected()
	case "v":
		candidates, dropped := batch.ParseStrict(m.batchInput.Value())
		if len(candidates) == 0 {
			return m, m.flashError("no parseable lines, expected email----password----client_id----refresh_token")
		}
		if m.loading {
			return m, nil
		}
		m.batchDropped = dropped
		m.verifyRequestID++
		spin := m.startLoad()
		return m, tea.Batch(spin, m.verifyAccounts(candidates))
	case "up", "k":
		if m.verifyCursor > 0 {
			m.verifyCursor--
		}
		return m, nil
	case "down", "j":
		if m.verifyCursor < len(m.verifyResults)-1 {
			m.verifyCursor++
		}
		return m, nil
	case " ":
		if m.verifyCursor < len(m.verifyResults) {
			m.verifySelected[m.verifyCursor] = !m.verifySelected[m.verifyCursor]
		}
		return m, nil
	case "a":
		for i := range m.verifyResults {
			m.verifySelected[i] = true
		}
		return m, nil
	case "n":
		m.verifySelected = make(map[int]bool)
		return m, nil
	case "ctrl+s":
		return m.switchTab(tabSingle)
	case "ctrl+t", "esc":
		return m.switchTab(tabTable)
	}
	return m, nil
}

// importSelected imports the checked verify rows.
func (m Model) importSelected() (tea.Model, tea.Cmd) {
	var picked []client.Credentials
	for i, r := range m.verifyResults {
		if m.verifySelected[i] && r.Credentials != nil {
			picked = append(picked, *r.Credentials)
		}
	}
	if len(picked) == 0 {
		return m, m.flashError("nothing selected to import")
	}
	if m.loading {
		return m, nil
	}
	spin := m.startLoad()
	return m, tea.Batch(spin, m.importAccounts(picked))
}

func (m Model) handleTableTabKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleAccounts()
	switch msg.String() {
	case "up", "k":
		if m.accountCursor > 0 {
			m.accountCursor--
			if m.accountCursor < m.tableScroll {
				m.tableScroll = m.accountCursor
			}
		}
		return m, nil
	case "down", "j":
		if m.accountCursor < len(visible)-1 {
			m.accountCursor++
			if rows := m.tableRows(); m.accountCursor >= m.tableScroll+rows {
				m.tableScroll = m.accountCursor - rows + 1
			}
		}
		return m, nil
	case "enter", "o":
		if m.accountCursor < len(visible) {
			return m.enterMailView(visible[m.accountCursor].Email)
		}
		return m, nil
	case " ":
		if m.accountCursor < len(visible) {
			email := visible[m.accountCursor].Email
			if m.selected[email] {
				delete(m.selected, email)
			} else {
				m.selected[email] = true
			}
		}
		return m, nil
	case "a":
		for _, acct := range visible {
			m.selected[acct.Email] = true
		}
		return m, nil
	case "n":
		m.selected = make(map[string]bool)
		return m, nil
	case "s":
		return m.toggleSold(visible)
	case "e":
		if m.accountCursor < len(visible) {
			m.remarkEditing = true
			m.remarkInput.SetValue(visible[m.accountCursor].Remark)
			m.remarkInput.Focus()
			m.remarkInput.CursorEnd()
			return m, textinput.Blink
		}
		return m, nil
	case "/":
		m.searchActive = true
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.Focus()
		m.searchInput.CursorEnd()
		return m, textinput.Blink
	case "f":
		m.statusFilter = (m.statusFilter + 1) % 5
		m.accountCursor = 0
		m.tableScroll = 0
		return m, nil
	case "r":
		m.accountsRequestID++
		spin := m.startLoad()
		return m, tea.Batch(spin, m.loadAccounts(false))
	case "R":
		// Full reload with server-side status probing.
		m.accountsRequestID++
		spin := m.startLoad()
		return m, tea.Batch(spin, m.loadAccounts(true))
	case "d":
		if len(m.selected) == 0 {
			return m, m.flashError("select accounts to delete first")
		}
		m.confirmDelete = true
		return m, nil
	case "ctrl+s":
		return m.switchTab(tabSingle)
	case "ctrl+b":
		return m.switchTab(tabBatch)
	case "ctrl+l":
		return m.logout()
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// toggleSold flips the sold flag of the cursor row optimistically and
// confirms with the server in the background.
func (m Model) toggleSold(visible []client.Account) (tea.Model, tea.Cmd) {
	if m.accountCursor >= len(visible) {
		return m, nil
	}
	email := visible[m.accountCursor].Email
	for i := range m.accounts {
		if m.accounts[i].Email == email {
			prev := m.accounts[i].IsSold
			next := !prev
			m.accounts[i].IsSold = next
			patch := client.AccountPatch{IsSold: &next}
			return m, m.updateAccount(email, patch, prev, m.accounts[i].Remark)
		}
	}
	return m, nil
}

func (m Model) handleRemarkKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.remarkEditing = false
		m.remarkInput.Blur()
		return m, nil
	case "enter":
		m.remarkEditing = false
		m.remarkInput.Blur()
		visible := m.visibleAccounts()
		if m.accountCursor >= len(visible) {
			return m, nil
		}
		email := visible[m.accountCursor].Email
		remark := m.remarkInput.Value()
		for i := range m.accounts {
			if m.accounts[i].Email == email {
				prev := m.accounts[i].Remark
				if prev == remark {
					return m, nil
				}
				m.accounts[i].Remark = remark
				patch := client.AccountPatch{Remark: &remark}
				return m, m.updateAccount(email, patch, m.accounts[i].IsSold, prev)
			}
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.remarkInput, cmd = m.remarkInput.Update(msg)
		return m, cmd
	}
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchActive = false
		m.searchInput.Blur()
		m.searchInput.SetValue(m.searchQuery)
		return m, nil
	case "enter":
		m.searchActive = false
		m.searchInput.Blur()
		m.searchQuery = m.searchInput.Value()
		m.accountCursor = 0
		m.tableScroll = 0
		return m, nil
	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		// Live filtering while typing.
		m.searchQuery = m.searchInput.Value()
		m.accountCursor = 0
		m.tableScroll = 0
		return m, cmd
	}
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirmDelete = false
		emails := make([]string, 0, len(m.selected))
		for email := range m.selected {
			emails = append(emails, email)
		}
		if m.loading {
			return m, nil
		}
		spin := m.startLoad()
		return m, tea.Batch(spin, m.deleteAccounts(emails))
	case "n", "N", "esc":
		m.confirmDelete = false
		return m, nil
	}
	return m, nil
}

// logout clears the admin credential and returns to the login panel.
func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.sessions.ClearCredential(); err != nil {
		return m, m.flashError("clear credential: " + err.Error())
	}
	m.level = levelAdminLogin
	m.accounts = nil
	m.selected = make(map[string]bool)
	m.passwordInput.SetValue("")
	m.passwordInput.Focus()
	return m, tea.Batch(textinput.Blink, m.flashSuccess("logged out"))
}

func (m Model) handleMailViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.switcherOpen {
		return m.handleSwitcherKeys(msg)
	}

	list := m.activeList()
	switch msg.String() {
	case "tab", "left", "right", "h", "l":
		if m.activePane == paneInbox {
			m.activePane = paneJunk
		} else {
			m.activePane = paneInbox
		}
		m.paneCursor = 0
		return m, nil
	case "up", "k":
		if m.paneCursor > 0 {
			m.paneCursor--
		}
		return m, nil
	case "down", "j":
		if m.paneCursor < len(list)-1 {
			m.paneCursor++
		}
		return m, nil
	case "enter", "o":
		if m.paneCursor < len(list) {
			m.level = levelMailDetail
			m.detail = nil
			m.detailRequestID++
			spin := m.startLoad()
			return m, tea.Batch(spin, m.loadEmailDetail(list[m.paneCursor].MessageID))
		}
		return m, nil
	case "n":
		return m.changePage(1)
	case "p":
		return m.changePage(-1)
	case "r":
		m.dualRequestID++
		spin := m.startLoad()
		return m, tea.Batch(spin, m.loadDualView(true))
	case "A":
		if len(m.accounts) == 0 {
			return m, m.flashError("no accounts loaded to switch to")
		}
		m.switcherOpen = true
		m.switcherCursor = 0
		return m, nil
	case "esc", "q":
		m.level = levelAccounts
		m.tab = tabTable
		m.accountsRequestID++
		spin := m.startLoad()
		return m, tea.Batch(spin, m.loadAccounts(false))
	}
	return m, nil
}

// changePage moves the focused pane by delta pages, clamped to [1, pageCount].
func (m Model) changePage(delta int) (tea.Model, tea.Cmd) {
	total, page := m.activeTotals()
	pages := pageCount(total, mailPageSize)
	if pages <= 1 {
		return m, nil
	}
	next := page + delta
	if next < 1 || next > pages {
		return m, nil
	}
	if m.activePane == paneJunk {
		m.junkPage = next
	} else {
		m.inboxPage = next
	}
	m.paneCursor = 0
	m.dualRequestID++
	spin := m.startLoad()
	return m, tea.Batch(spin, m.loadDualView(false))
}

func (m Model) handleSwitcherKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.switcherOpen = false
		return m, nil
	case "up", "k":
		if m.switcherCursor > 0 {
			m.switcherCursor--
		}
		return m, nil
	case "down", "j":
		if m.switcherCursor < len(m.accounts)-1 {
			m.switcherCursor++
		}
		return m, nil
	case "enter":
		if m.switcherCursor >= len(m.accounts) {
			return m, nil
		}
		target := m.accounts[m.switcherCursor].Email
		m.switcherOpen = false
		if target == m.currentUser {
			return m, nil
		}
		// Keep showing the current account when the target has no
		// cached credentials.
		if !m.sessions.HasAccount(target) {
			return m, m.flashError("account not in local cache, add or import it first")
		}
		return m.enterMailView(target)
	}
	return m, nil
}

func (m Model) handleMailDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.level = levelMailView
		m.detail = nil
		return m, nil
	case "1":
		m.contentTab = contentHTML
		m.detailScroll = 0
		return m, nil
	case "2":
		m.contentTab = contentPlain
		m.detailScroll = 0
		return m, nil
	case "3":
		m.contentTab = contentRaw
		m.detailScroll = 0
		return m, nil
	case "tab":
		m.contentTab = (m.contentTab + 1) % 3
		m.detailScroll = 0
		return m, nil
	case "up", "k":
		if m.detailScroll > 0 {
			m.detailScroll--
		}
		return m, nil
	case "down", "j":
		m.detailScroll++
		return m, nil
	case "pgup":
		m.detailScroll -= m.detailPageLines()
		if m.detailScroll < 0 {
			m.detailScroll = 0
		}
		return m, nil
	case "pgdown", " ":
		m.detailScroll += m.detailPageLines()
		return m, nil
	case "g":
		m.detailScroll = 0
		return m, nil
	case "c":
		if m.detail == nil {
			return m, nil
		}
		text := m.detailBodyText()
		if strings.TrimSpace(text) == "" {
			return m, m.flashError("nothing to copy")
		}
		if err := writeClipboard(text); err != nil {
			return m, m.flashError("copy failed: " + err.Error())
		}
		return m, m.flashSuccess("copied to clipboard")
	}
	return m, nil
}
