// Package tui provides the interactive terminal UI for mailadm.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mu0717/email/internal/client"
	"github.com/Mu0717/email/internal/session"
)

// mailPageSize is the fixed page size of the dual mailbox view.
const mailPageSize = 20

// viewLevel represents the current top-level panel.
type viewLevel int

const (
	levelAdminLogin viewLevel = iota
	levelAccounts
	levelMailView
	levelMailDetail
)

// accountsTab selects the pane inside the account manager.
type accountsTab int

const (
	tabSingle accountsTab = iota
	tabBatch
	tabTable
)

// statusFilter narrows the account table.
type statusFilter int

const (
	filterAll statusFilter = iota
	filterActive
	filterInactive
	filterSold
	filterUnsold
)

// String returns the filter label shown in the table footer.
func (f statusFilter) String() string {
	switch f {
	case filterActive:
		return "active"
	case filterInactive:
		return "inactive"
	case filterSold:
		return "sold"
	case filterUnsold:
		return "unsold"
	default:
		return "all"
	}
}

// pane identifies a side of the dual mailbox view.
type pane int

const (
	paneInbox pane = iota
	paneJunk
)

// contentTab selects the body representation in the detail view.
type contentTab int

const (
	contentHTML contentTab = iota
	contentPlain
	contentRaw
)

// Backend is the slice of the gateway the TUI needs.
type Backend interface {
	ProbeLogin(ctx context.Context, password string) error
	AddAccount(ctx context.Context, creds client.Credentials) error
	VerifyAccounts(ctx context.Context, candidates []client.Credentials) ([]client.VerifyResult, error)
	ImportAccounts(ctx context.Context, accounts []client.Credentials) ([]client.ImportResult, error)
	ListAccounts(ctx context.Context, checkStatus bool) ([]client.Account, error)
	UpdateAccount(ctx context.Context, email string, patch client.AccountPatch) error
	DeleteAccounts(ctx context.Context, emails []string) (*client.DeleteResult, error)
	DualView(ctx context.Context, email string, q client.DualViewQuery) (*client.DualView, error)
	GetEmail(ctx context.Context, email, messageID string) (*client.EmailDetail, error)
}

// SessionStore is the slice of the session store the TUI needs.
type SessionStore interface {
	HasCredential() bool
	SetCredential(credential string) error
	ClearCredential() error
	HasAccount(email string) bool
	SaveAccount(email string, acct session.SavedAccount) error
	SaveAccounts(accounts map[string]session.SavedAccount) error
	RemoveAccounts(emails []string) error
}

// Options configuration for the TUI.
type Options struct {
	Version string
}

// Model is the main TUI model following the Elm architecture.
type Model struct {
	backend  Backend
	sessions SessionStore
	version  string

	level viewLevel
	tab   accountsTab

	// Terminal dimensions
	width  int
	height int

	// Loading state
	loading       bool
	err           error
	spinnerFrame  int
	spinnerActive bool

	// Flash message (temporary notification)
	flashMessage   string
	flashIsError   bool
	flashExpiresAt time.Time

	// Admin login panel
	passwordInput textinput.Model

	// Single login tab: email, refresh token, client id
	singleInputs [3]textinput.Model
	singleFocus  int

	// Batch tab
	batchInput     textarea.Model
	batchEditing   bool
	batchDropped   int
	verifyResults  []client.VerifyResult
	verifySelected map[int]bool
	verifyCursor   int

	// Account table tab
	accounts      []client.Account
	accountCursor int
	tableScroll   int
	selected      map[string]bool
	searchInput   textinput.Model
	searchActive  bool
	searchQuery   string
	statusFilter  statusFilter
	remarkInput   textinput.Model
	remarkEditing bool
	confirmDelete bool

	// Mail view
	currentUser    string
	dual           *client.DualView
	inboxPage      int
	junkPage       int
	activePane     pane
	paneCursor     int
	switcherOpen   bool
	switcherCursor int

	// Mail detail
	detail       *client.EmailDetail
	contentTab   contentTab
	detailScroll int

	// Request tracking to ignore stale async results
	accountsRequestID uint64
	verifyRequestID   uint64
	dualRequestID     uint64
	detailRequestID   uint64

	quitting bool
}

// New creates a new TUI model.
func New(backend Backend, sessions SessionStore, opts Options) Model {
	password := textinput.New()
	password.Placeholder = "admin password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 200
	password.Width = 40
	password.Focus()

	var singles [3]textinput.Model
	for i, placeholder := range []string{"email", "refresh token", "client id"} {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 500
		ti.Width = 60
		singles[i] = ti
	}
	singles[0].Focus()

	batch := textarea.New()
	batch.Placeholder = "email----password----client_id----refresh_token"
	batch.CharLimit = 0
	batch.SetWidth(76)
	batch.SetHeight(8)

	search := textinput.New()
	search.Placeholder = "filter email or remark"
	search.CharLimit = 200
	search.Width = 40

	remark := textinput.New()
	remark.Placeholder = "remark"
	remark.CharLimit = 500
	remark.Width = 40

	level := levelAdminLogin
	loading := false
	if sessions.HasCredential() {
		level = levelAccounts
		loading = true
	}

	return Model{
		loading:        loading,
		spinnerActive:  loading,
		backend:        backend,
		sessions:       sessions,
		version:        opts.Version,
		level:          level,
		tab:            tabTable,
		passwordInput:  password,
		singleInputs:   singles,
		batchInput:     batch,
		searchInput:    search,
		remarkInput:    remark,
		verifySelected: make(map[int]bool),
		selected:       make(map[string]bool),
		inboxPage:      1,
		junkPage:       1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.level == levelAccounts {
		return tea.Batch(spinnerTick(), m.loadAccounts(false))
	}
	return textinput.Blink
}

// --- messages ---

type loginResultMsg struct {
	password string
	err      error
}

type accountsLoadedMsg struct {
	accounts  []client.Account
	err       error
	requestID uint64
}

type accountAddedMsg struct {
	creds client.Credentials
	err   error
}

type verifyResultsMsg struct {
	results   []client.VerifyResult
	err       error
	requestID uint64
}

type importDoneMsg struct {
	results   []client.ImportResult
	imported  []client.Credentials
	err       error
	requestID uint64
}

// accountUpdatedMsg confirms (or fails) an optimistic sold/remark update.
// The prev* fields let Update roll the row back on failure.
type accountUpdatedMsg struct {
	email      string
	prevSold   bool
	prevRemark string
	soldChange bool
	err        error
}

type accountsDeletedMsg struct {
	emails []string
	result *client.DeleteResult
	err    error
}

type dualViewMsg struct {
	view      *client.DualView
	err       error
	requestID uint64
}

type emailDetailMsg struct {
	detail    *client.EmailDetail
	err       error
	requestID uint64
}

// reloadAccountsMsg triggers the delayed list refresh after import/delete.
type reloadAccountsMsg struct{}

type flashClearMsg struct{}

type spinnerTickMsg struct{}

// errorFlashDuration and successFlashDuration match the banner timings of
// the web console this replaces.
const (
	errorFlashDuration   = 5 * time.Second
	successFlashDuration = 3 * time.Second
)

// reloadDelay is the pause before the account list refreshes after a
// mutation, long enough for the flash to register.
const reloadDelay = 800 * time.Millisecond

// spinnerFrames are the Braille dot animation frames for the loading spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is how fast the spinner animates.
const spinnerInterval = 80 * time.Millisecond

// --- commands ---

func (m Model) probeLogin(password string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		err := backend.ProbeLogin(context.Background(), password)
		return loginResultMsg{password: password, err: err}
	}
}

func (m Model) loadAccounts(checkStatus bool) tea.Cmd {
	backend := m.backend
	requestID := m.accountsRequestID
	return func() tea.Msg {
		accounts, err := backend.ListAccounts(context.Background(), checkStatus)
		return accountsLoadedMsg{accounts: accounts, err: err, requestID: requestID}
	}
}

func (m Model) addAccount(creds client.Credentials) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		err := backend.AddAccount(context.Background(), creds)
		return accountAddedMsg{creds: creds, err: err}
	}
}

func (m Model) verifyAccounts(candidates []client.Credentials) tea.Cmd {
	backend := m.backend
	requestID := m.verifyRequestID
	return func() tea.Msg {
		results, err := backend.VerifyAccounts(context.Background(), candidates)
		return verifyResultsMsg{results: results, err: err, requestID: requestID}
	}
}

func (m Model) importAccounts(accounts []client.Credentials) tea.Cmd {
	backend := m.backend
	requestID := m.verifyRequestID
	return func() tea.Msg {
		results, err := backend.ImportAccounts(context.Background(), accounts)
		return importDoneMsg{results: results, imported: accounts, err: err, requestID: requestID}
	}
}

func (m Model) updateAccount(email string, patch client.AccountPatch, prevSold bool, prevRemark string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		err := backend.UpdateAccount(context.Background(), email, patch)
		return accountUpdatedMsg{
			email:      email,
			prevSold:   prevSold,
			prevRemark: prevRemark,
			soldChange: patch.IsSold != nil,
			err:        err,
		}
	}
}

func (m Model) deleteAccounts(emails []string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		result, err := backend.DeleteAccounts(context.Background(), emails)
		return accountsDeletedMsg{emails: emails, result: result, err: err}
	}
}

func (m Model) loadDualView(forceRefresh bool) tea.Cmd {
	backend := m.backend
	email := m.currentUser
	requestID := m.dualRequestID
	q := client.DualViewQuery{
		InboxPage:    m.inboxPage,
		JunkPage:     m.junkPage,
		PageSize:     mailPageSize,
		ForceRefresh: forceRefresh,
	}
	return func() tea.Msg {
		view, err := backend.DualView(context.Background(), email, q)
		return dualViewMsg{view: view, err: err, requestID: requestID}
	}
}

func (m Model) loadEmailDetail(messageID string) tea.Cmd {
	backend := m.backend
	email := m.currentUser
	requestID := m.detailRequestID
	return func() tea.Msg {
		detail, err := backend.GetEmail(context.Background(), email, messageID)
		return emailDetailMsg{detail: detail, err: err, requestID: requestID}
	}
}

func reloadAfterDelay() tea.Cmd {
	return tea.Tick(reloadDelay, func(time.Time) tea.Msg {
		return reloadAccountsMsg{}
	})
}

// spinnerTick returns a command that fires a spinnerTickMsg after the spinner interval.
func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startLoad marks the model loading and starts the spinner if idle.
func (m *Model) startLoad() tea.Cmd {
	m.loading = true
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	m.spinnerFrame = 0
	return spinnerTick()
}

// flashError shows an auto-dismissing error banner.
func (m *Model) flashError(msg string) tea.Cmd {
	return m.flash(msg, true, errorFlashDuration)
}

// flashSuccess shows an auto-dismissing success banner.
func (m *Model) flashSuccess(msg string) tea.Cmd {
	return m.flash(msg, false, successFlashDuration)
}

func (m *Model) flash(msg string, isError bool, d time.Duration) tea.Cmd {
	m.flashMessage = msg
	m.flashIsError = isError
	m.flashExpiresAt = time.Now().Add(d)
	return tea.Tick(d, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// forceLogin routes the UI back to the admin login panel. The gateway has
// already cleared the stored credential when this runs.
func (m *Model) forceLogin() tea.Cmd {
	m.level = levelAdminLogin
	m.loading = false
	m.passwordInput.SetValue("")
	m.passwordInput.Focus()
	return tea.Batch(textinput.Blink, m.flashError("session expired, log in again"))
}

// visibleAccounts applies the search and status filters conjunctively to
// the fetched account list.
func (m Model) visibleAccounts() []client.Account {
	var out []client.Account
	for _, acct := range m.accounts {
		if !matchesSearch(acct, m.searchQuery) {
			continue
		}
		if !matchesStatus(acct, m.statusFilter) {
			continue
		}
		out = append(out, acct)
	}
	return out
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width < 0 {
			m.width = 0
		}
		if m.height < 0 {
			m.height = 0
		}
		return m, nil

	case loginResultMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.flashError("admin login failed: " + msg.err.Error())
		}
		if err := m.sessions.SetCredential(msg.password); err != nil {
			return m, m.flashError("save credential: " + err.Error())
		}
		m.level = levelAccounts
		m.tab = tabTable
		m.passwordInput.SetValue("")
		m.accountsRequestID++
		spin := m.startLoad()
		return m, tea.Batch(spin, m.loadAccounts(false), m.flashSuccess("admin login successful"))

	case accountsLoadedMsg:
		// Ignore stale responses from previous loads
		if msg.requestID != m.accountsRequestID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, m.forceLogin()
			}
			m.err = msg.err
			return m, m.flashError("load accounts: " + msg.err.Error())
		}
		m.err = nil
		m.accounts = msg.accounts
		if m.accountCursor >= len(m.visibleAccounts()) {
			m.accountCursor = 0
			m.tableScroll = 0
		}
		return m, nil

	case accountAddedMsg:
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, m.forceLogin()
			}
			return m, m.flashError("login failed: " + msg.err.Error())
		}
		if err := m.sessions.SaveAccount(msg.creds.Email, session.SavedAccount{
			RefreshToken: msg.creds.RefreshToken,
			ClientID:     msg.creds.ClientID,
		}); err != nil {
			return m, m.flashError("save account: " + err.Error())
		}
		for i := range m.singleInputs {
			m.singleInputs[i].SetValue("")
		}
		return m.enterMailView(msg.creds.Email)

	case verifyResultsMsg:
		if msg.requestID != m.verifyRequestID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, m.forceLogin()
			}
			m.verifyResults = nil
			return m, m.flashError("verification failed: " + msg.err.Error())
		}
		m.verifyResults = msg.results
		m.verifySelected = make(map[int]bool)
		// Successful rows start selected, matching the checkbox default.
		for i, r := range msg.results {
			if r.Success() {
				m.verifySelected[i] = true
			}
		}
		m.verifyCursor = 0
		return m, nil

	case importDoneMsg:
		if msg.requestID != m.verifyRequestID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, m.forceLogin()
			}
			return m, m.flashError("import failed: " + msg.err.Error())
		}
		// Mirror every imported record into the cache regardless of
		// per-item outcome; the server list remains the source of truth.
		cached := make(map[string]session.SavedAccount, len(msg.imported))
		for _, creds := range msg.imported {
			cached[creds.Email] = session.SavedAccount{
				RefreshToken: creds.RefreshToken,
				ClientID:     creds.ClientID,
			}
		}
		if err := m.sessions.SaveAccounts(cached); err != nil {
			return m, m.flashError("save accounts: " + err.Error())
		}
		succeeded := 0
		for _, r := range msg.results {
			if r.Success() {
				succeeded++
			}
		}
		m.verifyResults = nil
		m.verifySelected = make(map[int]bool)
		m.batchInput.SetValue("")
		return m, tea.Batch(
			m.flashSuccess(fmt.Sprintf("imported %d of %d accounts", succeeded, len(msg.imported))),
			reloadAfterDelay(),
		)

	case accountUpdatedMsg:
		if msg.err == nil {
			return m, nil
		}
		if isUnauthorized(msg.err) {
			return m, m.forceLogin()
		}
		// Optimistic update failed: restore the previous value.
		for i := range m.accounts {
			if m.accounts[i].Email == msg.email {
				if msg.soldChange {
					m.accounts[i].IsSold = msg.prevSold
				} else {
					m.accounts[i].Remark = msg.prevRemark
				}
				break
			}
		}
		return m, m.flashError("update failed: " + msg.err.Error())

	case accountsDeletedMsg:
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, m.forceLogin()
			}
			return m, m.flashError("delete failed: " + msg.err.Error())
		}
		if err := m.sessions.RemoveAccounts(msg.emails); err != nil {
			return m, m.flashError("update cache: " + err.Error())
		}
		m.selected = make(map[string]bool)
		message := msg.result.Message
		if message == "" {
			message = fmt.Sprintf("deleted %d accounts", msg.result.Deleted)
		}
		return m, tea.Batch(m.flashSuccess(message), reloadAfterDelay())

	case reloadAccountsMsg:
		m.tab = tabTable
		m.accountsRequestID++
		spin := m.startLoad()
		return m, tea.Batch(spin, m.loadAccounts(false))

	case dualViewMsg:
		// Ignore stale responses from previous loads
		if msg.requestID != m.dualRequestID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, m.forceLogin()
			}
			// One combined fetch feeds both panes; a failure replaces both.
			m.dual = nil
			m.err = msg.err
			return m, m.flashError("load mail: " + msg.err.Error())
		}
		m.err = nil
		m.dual = msg.view
		if m.paneCursor >= len(m.activeList()) {
			m.paneCursor = 0
		}
		return m, nil

	case emailDetailMsg:
		if msg.requestID != m.detailRequestID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if isUnauthorized(msg.err) {
				return m, m.forceLogin()
			}
			m.level = levelMailView
			return m, m.flashError("load email: " + msg.err.Error())
		}
		m.detail = msg.detail
		m.detailScroll = 0
		if msg.detail.BodyHTML != "" {
			m.contentTab = contentHTML
		} else {
			m.contentTab = contentPlain
		}
		return m, nil

	case flashClearMsg:
		if time.Now().After(m.flashExpiresAt) || m.flashExpiresAt.IsZero() {
			m.flashMessage = ""
		}
		return m, nil

	case spinnerTickMsg:
		if m.loading {
			m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
			return m, spinnerTick()
		}
		m.spinnerActive = false
		return m, nil
	}

	return m, nil
}

// enterMailView makes email the active account and loads its mailboxes.
// The target must already exist in the saved-account cache.
func (m Model) enterMailView(email string) (tea.Model, tea.Cmd) {
	if !m.sessions.HasAccount(email) {
		return m, m.flashError("account not in local cache, add or import it first")
	}
	m.currentUser = email
	m.level = levelMailView
	m.inboxPage = 1
	m.junkPage = 1
	m.activePane = paneInbox
	m.paneCursor = 0
	m.dual = nil
	m.switcherOpen = false
	m.dualRequestID++
	spin := m.startLoad()
	return m, tea.Batch(spin, m.loadDualView(false), m.flashSuccess("signed in: "+email))
}

// activeList returns the email list of the focused pane.
func (m Model) activeList() []client.EmailSummary {
	if m.dual == nil {
		return nil
	}
	if m.activePane == paneJunk {
		return m.dual.JunkEmails
	}
	return m.dual.InboxEmails
}

// activeTotals returns (total, page) for the focused pane.
func (m Model) activeTotals() (int, int) {
	if m.activePane == paneJunk {
		total := 0
		if m.dual != nil {
			total = m.dual.JunkTotal
		}
		return total, m.junkPage
	}
	total := 0
	if m.dual != nil {
		total = m.dual.InboxTotal
	}
	return total, m.inboxPage
}
