package tui

import (
	"context"
	"regexp"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Mu0717/email/internal/client"
	"github.com/Mu0717/email/internal/session"
)

// colorProfileMu serializes tests that mutate the global lipgloss color profile.
var colorProfileMu sync.Mutex

// forceColorProfile sets lipgloss to ANSI color output for tests that assert
// on styled output. It acquires colorProfileMu to prevent data races with
// parallel tests and restores the original profile via t.Cleanup.
func forceColorProfile(t *testing.T) {
	t.Helper()
	colorProfileMu.Lock()
	orig := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(orig)
		colorProfileMu.Unlock()
	})
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// mockBackend implements Backend with per-method hooks. Unset hooks return
// zero values so tests only configure what they exercise.
type mockBackend struct {
	ProbeLoginFunc     func(ctx context.Context, password string) error
	AddAccountFunc     func(ctx context.Context, creds client.Credentials) error
	VerifyAccountsFunc func(ctx context.Context, candidates []client.Credentials) ([]client.VerifyResult, error)
	ImportAccountsFunc func(ctx context.Context, accounts []client.Credentials) ([]client.ImportResult, error)
	ListAccountsFunc   func(ctx context.Context, checkStatus bool) ([]client.Account, error)
	UpdateAccountFunc  func(ctx context.Context, email string, patch client.AccountPatch) error
	DeleteAccountsFunc func(ctx context.Context, emails []string) (*client.DeleteResult, error)
	DualViewFunc       func(ctx context.Context, email string, q client.DualViewQuery) (*client.DualView, error)
	GetEmailFunc       func(ctx context.Context, email, messageID string) (*client.EmailDetail, error)
}

func (b *mockBackend) ProbeLogin(ctx context.Context, password string) error {
	if b.ProbeLoginFunc != nil {
		return b.ProbeLoginFunc(ctx, password)
	}
	return nil
}

func (b *mockBackend) AddAccount(ctx context.Context, creds client.Credentials) error {
	if b.AddAccountFunc != nil {
		return b.AddAccountFunc(ctx, creds)
	}
	return nil
}

func (b *mockBackend) VerifyAccounts(ctx context.Context, candidates []client.Credentials) ([]client.VerifyResult, error) {
	if b.VerifyAccountsFunc != nil {
		return b.VerifyAccountsFunc(ctx, candidates)
	}
	return nil, nil
}

func (b *mockBackend) ImportAccounts(ctx context.Context, accounts []client.Credentials) ([]client.ImportResult, error) {
	if b.ImportAccountsFunc != nil {
		return b.ImportAccountsFunc(ctx, accounts)
	}
	return nil, nil
}

func (b *mockBackend) ListAccounts(ctx context.Context, checkStatus bool) ([]client.Account, error) {
	if b.ListAccountsFunc != nil {
		return b.ListAccountsFunc(ctx, checkStatus)
	}
	return nil, nil
}

func (b *mockBackend) UpdateAccount(ctx context.Context, email string, patch client.AccountPatch) error {
	if b.UpdateAccountFunc != nil {
		return b.UpdateAccountFunc(ctx, email, patch)
	}
	return nil
}

func (b *mockBackend) DeleteAccounts(ctx context.Context, emails []string) (*client.DeleteResult, error) {
	if b.DeleteAccountsFunc != nil {
		return b.DeleteAccountsFunc(ctx, emails)
	}
	return &client.DeleteResult{Deleted: len(emails)}, nil
}

func (b *mockBackend) DualView(ctx context.Context, email string, q client.DualViewQuery) (*client.DualView, error) {
	if b.DualViewFunc != nil {
		return b.DualViewFunc(ctx, email, q)
	}
	return &client.DualView{}, nil
}

func (b *mockBackend) GetEmail(ctx context.Context, email, messageID string) (*client.EmailDetail, error) {
	if b.GetEmailFunc != nil {
		return b.GetEmailFunc(ctx, email, messageID)
	}
	return &client.EmailDetail{}, nil
}

// mockSessions is an in-memory SessionStore.
type mockSessions struct {
	credential string
	accounts   map[string]session.SavedAccount
	clearErr   error
}

func newMockSessions() *mockSessions {
	return &mockSessions{accounts: make(map[string]session.SavedAccount)}
}

func (s *mockSessions) HasCredential() bool { return s.credential != "" }

func (s *mockSessions) SetCredential(credential string) error {
	s.credential = credential
	return nil
}

func (s *mockSessions) ClearCredential() error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.credential = ""
	return nil
}

func (s *mockSessions) HasAccount(email string) bool {
	_, ok := s.accounts[email]
	return ok
}

func (s *mockSessions) SaveAccount(email string, acct session.SavedAccount) error {
	s.accounts[email] = acct
	return nil
}

func (s *mockSessions) SaveAccounts(accounts map[string]session.SavedAccount) error {
	for email, acct := range accounts {
		s.accounts[email] = acct
	}
	return nil
}

func (s *mockSessions) RemoveAccounts(emails []string) error {
	for _, email := range emails {
		delete(s.accounts, email)
	}
	return nil
}

// testModelConfig holds the knobs for building a test model.
type testModelConfig struct {
	backend  *mockBackend
	sessions *mockSessions
	level    viewLevel
	tab      accountsTab
	accounts []client.Account
	width    int
	height   int
}

// newTestModel builds a Model sized for rendering with a logged-in session
// unless the config starts at the login level.
func newTestModel(t *testing.T, cfg testModelConfig) Model {
	t.Helper()
	if cfg.backend == nil {
		cfg.backend = &mockBackend{}
	}
	if cfg.sessions == nil {
		cfg.sessions = newMockSessions()
	}
	if cfg.level != levelAdminLogin && cfg.sessions.credential == "" {
		cfg.sessions.credential = "test-credential"
	}
	m := New(cfg.backend, cfg.sessions, Options{Version: "test"})
	m.level = cfg.level
	m.tab = cfg.tab
	m.loading = false
	m.spinnerActive = false
	m.accounts = cfg.accounts
	if cfg.width == 0 {
		cfg.width = 100
	}
	if cfg.height == 0 {
		cfg.height = 30
	}
	m.width = cfg.width
	m.height = cfg.height
	return m
}

// sendKey sends a key through Update and returns the concrete Model.
func sendKey(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(k)
	return newM.(Model), cmd
}

// sendMsg sends any tea.Msg through Update and returns the concrete Model.
func sendMsg(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(msg)
	return newM.(Model), cmd
}

// runCmd executes a command and feeds the resulting message back through
// Update, mimicking one turn of the bubbletea runtime. Batch commands run
// each sub-command in order.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			m = runCmd(t, m, sub)
		}
		return m
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func keyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func keyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEscape}
}

func keyTab() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyTab}
}

func keyDown() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyDown}
}

func keySpace() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace}
}

// testAccounts is a small fixture shared by table tests.
func testAccounts() []client.Account {
	return []client.Account{
		{Email: "alice@example.com", Status: client.StatusActive, IsSold: false, Remark: "vip"},
		{Email: "bob@example.com", Status: client.StatusInactive, IsSold: true, Remark: ""},
		{Email: "carol@example.com", Status: client.StatusActive, IsSold: true, Remark: "resale"},
	}
}
