// Package session persists the admin credential and the saved-account
// cache under the mailadm home directory.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

const (
	credentialFile = "credential"
	accountsFile   = "accounts.json"
)

// SavedAccount holds the client-side credentials for one mail account.
// The cache mirrors server-accepted accounts and is keyed by email,
// last write wins.
type SavedAccount struct {
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
}

// Store manages session state backed by files in dataDir.
type Store struct {
	mu         sync.RWMutex
	dataDir    string
	credential string
	accounts   map[string]SavedAccount
}

// Open loads session state from dataDir, creating the directory if needed.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, eris.Wrap(err, "create session dir")
	}

	s := &Store{
		dataDir:  dataDir,
		accounts: make(map[string]SavedAccount),
	}

	if data, err := os.ReadFile(s.path(credentialFile)); err == nil {
		s.credential = strings.TrimSpace(string(data))
	}

	// A corrupt or missing accounts file is treated as an empty cache.
	if data, err := os.ReadFile(s.path(accountsFile)); err == nil {
		var accounts map[string]SavedAccount
		if err := json.Unmarshal(data, &accounts); err == nil && accounts != nil {
			s.accounts = accounts
		}
	}

	return s, nil
}

// Credential returns the stored admin credential, or "" when logged out.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// HasCredential reports whether a non-empty credential is stored.
func (s *Store) HasCredential() bool {
	return s.Credential() != ""
}

// SetCredential persists the admin credential.
func (s *Store) SetCredential(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	if err := os.WriteFile(s.path(credentialFile), []byte(credential), 0o600); err != nil {
		return eris.Wrap(err, "write credential")
	}
	return nil
}

// ClearCredential removes the stored admin credential.
func (s *Store) ClearCredential() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	if err := os.Remove(s.path(credentialFile)); err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "remove credential")
	}
	return nil
}

// SavedAccounts returns a copy of the account cache.
func (s *Store) SavedAccounts() map[string]SavedAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]SavedAccount, len(s.accounts))
	for email, acct := range s.accounts {
		out[email] = acct
	}
	return out
}

// HasAccount reports whether email exists in the cache.
func (s *Store) HasAccount(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[email]
	return ok
}

// SaveAccount merges one account into the cache and persists it.
func (s *Store) SaveAccount(email string, acct SavedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = acct
	return s.flushAccounts()
}

// SaveAccounts merges several accounts in one write.
func (s *Store) SaveAccounts(accounts map[string]SavedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, acct := range accounts {
		s.accounts[email] = acct
	}
	return s.flushAccounts()
}

// RemoveAccounts drops the given emails from the cache.
func (s *Store) RemoveAccounts(emails []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, email := range emails {
		delete(s.accounts, email)
	}
	return s.flushAccounts()
}

// flushAccounts writes the cache to disk. Caller must hold the lock.
func (s *Store) flushAccounts() error {
	data, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal accounts")
	}
	if err := os.WriteFile(s.path(accountsFile), data, 0o600); err != nil {
		return eris.Wrap(err, "write accounts")
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dataDir, name)
}
