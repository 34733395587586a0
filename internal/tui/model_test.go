package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/Mu0717/email/internal/client"
	"github.com/Mu0717/email/internal/session"
)

func TestLoginSuccessStoresCredentialAndEntersAccounts(t *testing.T) {
	var probed string
	backend := &mockBackend{
		ProbeLoginFunc: func(_ context.Context, password string) error {
			probed = password
			return nil
		},
	}
	sessions := newMockSessions()
	m := newTestModel(t, testModelConfig{backend: backend, sessions: sessions, level: levelAdminLogin})
	m.passwordInput.SetValue("hunter2")

	m, cmd := sendKey(t, m, keyEnter())
	if !m.loading {
		t.Fatal("expected loading state after submitting password")
	}
	m = runCmd(t, m, cmd)

	if probed != "hunter2" {
		t.Errorf("probe got password %q, want hunter2", probed)
	}
	if sessions.credential != "hunter2" {
		t.Errorf("stored credential = %q, want hunter2", sessions.credential)
	}
	if m.level != levelAccounts {
		t.Errorf("level = %v, want levelAccounts", m.level)
	}
	if m.tab != tabTable {
		t.Errorf("tab = %v, want tabTable", m.tab)
	}
}

func TestLoginFailureStoresNothing(t *testing.T) {
	backend := &mockBackend{
		ProbeLoginFunc: func(_ context.Context, _ string) error {
			return errors.New("admin authentication failed")
		},
	}
	sessions := newMockSessions()
	m := newTestModel(t, testModelConfig{backend: backend, sessions: sessions, level: levelAdminLogin})
	m.passwordInput.SetValue("wrong")

	m, cmd := sendKey(t, m, keyEnter())
	m = runCmd(t, m, cmd)

	if sessions.credential != "" {
		t.Errorf("credential stored on failed probe: %q", sessions.credential)
	}
	if m.level != levelAdminLogin {
		t.Errorf("level = %v, want levelAdminLogin", m.level)
	}
	if m.flashMessage == "" || !m.flashIsError {
		t.Errorf("expected error flash, got %q (isError=%v)", m.flashMessage, m.flashIsError)
	}
}

func TestEmptyPasswordRejectedLocally(t *testing.T) {
	called := false
	backend := &mockBackend{
		ProbeLoginFunc: func(_ context.Context, _ string) error {
			called = true
			return nil
		},
	}
	m := newTestModel(t, testModelConfig{backend: backend, level: levelAdminLogin})

	m, cmd := sendKey(t, m, keyEnter())
	m = runCmd(t, m, cmd)

	if called {
		t.Error("probe should not run for an empty password")
	}
	if !m.flashIsError {
		t.Error("expected error flash for empty password")
	}
}

func TestUnauthorizedRoutesToLogin(t *testing.T) {
	cases := []struct {
		name string
		msg  func(m Model) interface{}
	}{
		{"accounts load", func(m Model) interface{} {
			return accountsLoadedMsg{err: client.ErrUnauthorized, requestID: m.accountsRequestID}
		}},
		{"dual view", func(m Model) interface{} {
			return dualViewMsg{err: client.ErrUnauthorized, requestID: m.dualRequestID}
		}},
		{"email detail", func(m Model) interface{} {
			return emailDetailMsg{err: client.ErrUnauthorized, requestID: m.detailRequestID}
		}},
		{"verify", func(m Model) interface{} {
			return verifyResultsMsg{err: client.ErrUnauthorized, requestID: m.verifyRequestID}
		}},
		{"delete", func(m Model) interface{} {
			return accountsDeletedMsg{err: client.ErrUnauthorized}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestModel(t, testModelConfig{level: levelMailView})
			m, _ = sendMsg(t, m, tc.msg(m))
			if m.level != levelAdminLogin {
				t.Errorf("level = %v, want levelAdminLogin", m.level)
			}
		})
	}
}

func TestWrappedUnauthorizedRoutesToLogin(t *testing.T) {
	wrapped := errors.Join(errors.New("request failed"), client.ErrUnauthorized)
	m := newTestModel(t, testModelConfig{level: levelAccounts, tab: tabTable})
	m, _ = sendMsg(t, m, accountsLoadedMsg{err: wrapped, requestID: m.accountsRequestID})
	if m.level != levelAdminLogin {
		t.Errorf("level = %v, want levelAdminLogin", m.level)
	}
}

func TestStaleAccountsResponseIgnored(t *testing.T) {
	m := newTestModel(t, testModelConfig{level: levelAccounts, tab: tabTable})
	m.accountsRequestID = 5

	m, _ = sendMsg(t, m, accountsLoadedMsg{
		accounts:  []client.Account{{Email: "stale@example.com"}},
		requestID: 3,
	})
	if len(m.accounts) != 0 {
		t.Errorf("stale response applied, got %d accounts", len(m.accounts))
	}

	m, _ = sendMsg(t, m, accountsLoadedMsg{
		accounts:  []client.Account{{Email: "fresh@example.com"}},
		requestID: 5,
	})
	if len(m.accounts) != 1 || m.accounts[0].Email != "fresh@example.com" {
		t.Errorf("current response not applied: %+v", m.accounts)
	}
}

func TestStaleDualViewResponseIgnored(t *testing.T) {
	m := newTestModel(t, testModelConfig{level: levelMailView})
	m.dualRequestID = 7

	m, _ = sendMsg(t, m, dualViewMsg{
		view:      &client.DualView{InboxTotal: 99},
		requestID: 6,
	})
	if m.dual != nil {
		t.Error("stale dual view applied")
	}

	m, _ = sendMsg(t, m, dualViewMsg{
		view:      &client.DualView{InboxTotal: 4},
		requestID: 7,
	})
	if m.dual == nil || m.dual.InboxTotal != 4 {
		t.Errorf("current dual view not applied: %+v", m.dual)
	}
}

func TestSoldToggleOptimisticWithRollback(t *testing.T) {
	updateErr := errors.New("update failed")
	var patched client.AccountPatch
	backend := &mockBackend{
		UpdateAccountFunc: func(_ context.Context, _ string, patch client.AccountPatch) error {
			patched = patch
			return updateErr
		},
	}
	m := newTestModel(t, testModelConfig{
		backend:  backend,
		level:    levelAccounts,
		tab:      tabTable,
		accounts: testAccounts(),
	})

	m, cmd := sendKey(t, m, key('s'))
	if !m.accounts[0].IsSold {
		t.Fatal("sold flag should flip optimistically before the request completes")
	}

	m = runCmd(t, m, cmd)
	if patched.IsSold == nil || *patched.IsSold != true {
		t.Errorf("patch sent = %+v, want is_sold=true", patched)
	}
	if m.accounts[0].IsSold {
		t.Error("failed update should roll the sold flag back")
	}
	if !m.flashIsError {
		t.Error("expected error flash after rollback")
	}
}

func TestRemarkEditSendsPatchAndRollsBackOnFailure(t *testing.T) {
	backend := &mockBackend{
		UpdateAccountFunc: func(_ context.Context, _ string, _ client.AccountPatch) error {
			return errors.New("boom")
		},
	}
	m := newTestModel(t, testModelConfig{
		backend:  backend,
		level:    levelAccounts,
		tab:      tabTable,
		accounts: testAccounts(),
	})

	m, _ = sendKey(t, m, key('e'))
	if !m.remarkEditing {
		t.Fatal("expected remark editor to open")
	}
	m.remarkInput.SetValue("new remark")
	m, cmd := sendKey(t, m, keyEnter())

	if m.accounts[0].Remark != "new remark" {
		t.Fatalf("remark = %q, want optimistic value", m.accounts[0].Remark)
	}
	m = runCmd(t, m, cmd)
	if m.accounts[0].Remark != "vip" {
		t.Errorf("remark = %q, want rollback to vip", m.accounts[0].Remark)
	}
}

func TestDeleteFlowRemovesCacheAndReloads(t *testing.T) {
	var deleted []string
	backend := &mockBackend{
		DeleteAccountsFunc: func(_ context.Context, emails []string) (*client.DeleteResult, error) {
			deleted = emails
			return &client.DeleteResult{Deleted: len(emails)}, nil
		},
	}
	sessions := newMockSessions()
	sessions.accounts["alice@example.com"] = session.SavedAccount{RefreshToken: "rt"}
	m := newTestModel(t, testModelConfig{
		backend:  backend,
		sessions: sessions,
		level:    levelAccounts,
		tab:      tabTable,
		accounts: testAccounts(),
	})

	m, _ = sendKey(t, m, keySpace())
	m, _ = sendKey(t, m, key('d'))
	if !m.confirmDelete {
		t.Fatal("expected confirmation modal")
	}
	m, cmd := sendKey(t, m, key('y'))
	m = runCmd(t, m, cmd)

	want := []string{"alice@example.com"}
	if diff := cmp.Diff(want, deleted); diff != "" {
		t.Errorf("deleted emails mismatch (-want +got):\n%s", diff)
	}
	if sessions.HasAccount("alice@example.com") {
		t.Error("deleted account should leave the local cache")
	}
	if len(m.selected) != 0 {
		t.Error("selection should clear after delete")
	}
}

func TestDeleteConfirmCancel(t *testing.T) {
	called := false
	backend := &mockBackend{
		DeleteAccountsFunc: func(_ context.Context, _ []string) (*client.DeleteResult, error) {
			called = true
			return nil, nil
		},
	}
	m := newTestModel(t, testModelConfig{
		backend:  backend,
		level:    levelAccounts,
		tab:      tabTable,
		accounts: testAccounts(),
	})
	m, _ = sendKey(t, m, keySpace())
	m, _ = sendKey(t, m, key('d'))
	m, _ = sendKey(t, m, key('n'))
	if m.confirmDelete {
		t.Error("modal should close on cancel")
	}
	if called {
		t.Error("cancel must not delete")
	}
	if len(m.selected) != 1 {
		t.Error("selection should survive cancel")
	}
}

func TestVerifySelectsSuccessfulRowsByDefault(t *testing.T) {
	m := newTestModel(t, testModelConfig{level: levelAccounts, tab: tabBatch})
	results := []client.VerifyResult{
		{Email: "a@x.com", Status: "success", Credentials: &client.Credentials{Email: "a@x.com"}},
		{Email: "b@x.com", Status: "failed", Message: "invalid_grant"},
		{Email: "c@x.com", Status: "success", Credentials: &client.Credentials{Email: "c@x.com"}},
	}
	m, _ = sendMsg(t, m, verifyResultsMsg{results: results, requestID: m.verifyRequestID})

	want := map[int]bool{0: true, 2: true}
	if diff := cmp.Diff(want, m.verifySelected); diff != "" {
		t.Errorf("default selection mismatch (-want +got):\n%s", diff)
	}
}

func TestImportSendsOnlyCheckedRows(t *testing.T) {
	var imported []client.Credentials
	backend := &mockBackend{
		ImportAccountsFunc: func(_ context.Context, accounts []client.Credentials) ([]client.ImportResult, error) {
			imported = accounts
			results := make([]client.ImportResult, len(accounts))
			for i, a := range accounts {
				results[i] = client.ImportResult{Email: a.Email, Status: "success"}
			}
			return results, nil
		},
	}
	sessions := newMockSessions()
	m := newTestModel(t, testModelConfig{backend: backend, sessions: sessions, level: levelAccounts, tab: tabBatch})
	m.verifyResults = []client.VerifyResult{
		{Email: "a@x.com", Status: "success", Credentials: &client.Credentials{Email: "a@x.com", RefreshToken: "rt1", ClientID: "cid1"}},
		{Email: "b@x.com", Status: "success", Credentials: &client.Credentials{Email: "b@x.com", RefreshToken: "rt2", ClientID: "cid2"}},
	}
	m.verifySelected = map[int]bool{1: true}

	m, cmd := sendKey(t, m, key('i'))
	m = runCmd(t, m, cmd)

	if len(imported) != 1 || imported[0].Email != "b@x.com" {
		t.Fatalf("imported = %+v, want only b@x.com", imported)
	}
	if !sessions.HasAccount("b@x.com") {
		t.Error("imported account should land in the local cache")
	}
	if sessions.HasAccount("a@x.com") {
		t.Error("unchecked account must not be cached")
	}
	if len(m.verifyResults) != 0 {
		t.Error("verify results should clear after import")
	}
}

func TestSingleLoginCachesAccountAndOpensMail(t *testing.T) {
	backend := &mockBackend{}
	sessions := newMockSessions()
	m := newTestModel(t, testModelConfig{backend: backend, sessions: sessions, level: levelAccounts, tab: tabSingle})
	m.singleInputs[0].SetValue("dave@example.com")
	m.singleInputs[1].SetValue("rt")
	m.singleInputs[2].SetValue("cid")

	m, cmd := sendKey(t, m, keyEnter())
	m = runCmd(t, m, cmd)

	if !sessions.HasAccount("dave@example.com") {
		t.Fatal("successful login should cache the account")
	}
	got := sessions.accounts["dave@example.com"]
	want := session.SavedAccount{RefreshToken: "rt", ClientID: "cid"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cached account mismatch (-want +got):\n%s", diff)
	}
	if m.level != levelMailView {
		t.Errorf("level = %v, want levelMailView", m.level)
	}
	if m.currentUser != "dave@example.com" {
		t.Errorf("currentUser = %q", m.currentUser)
	}
	if m.inboxPage != 1 || m.junkPage != 1 {
		t.Errorf("pages = %d/%d, want 1/1", m.inboxPage, m.junkPage)
	}
}

func TestSingleLoginRequiresAllFields(t *testing.T) {
	called := false
	backend := &mockBackend{
		AddAccountFunc: func(_ context.Context, _ client.Credentials) error {
			called = true
			return nil
		},
	}
	m := newTestModel(t, testModelConfig{backend: backend, level: levelAccounts, tab: tabSingle})
	m.singleInputs[0].SetValue("dave@example.com")

	m, cmd := sendKey(t, m, keyEnter())
	m = runCmd(t, m, cmd)

	if called {
		t.Error("incomplete form must not hit the server")
	}
	if !m.flashIsError {
		t.Error("expected validation flash")
	}
}

func TestOpenMailRequiresCachedAccount(t *testing.T) {
	m := newTestModel(t, testModelConfig{
		level:    levelAccounts,
		tab:      tabTable,
		accounts: testAccounts(),
	})

	m, _ = sendKey(t, m, keyEnter())
	if m.level != levelAccounts {
		t.Errorf("uncached account opened mail view, level = %v", m.level)
	}
	if !m.flashIsError {
		t.Error("expected error flash for uncached account")
	}
}

func TestAccountSwitcherRejectsUncachedTarget(t *testing.T) {
	sessions := newMockSessions()
	sessions.accounts["alice@example.com"] = session.SavedAccount{RefreshToken: "rt"}
	m := newTestModel(t, testModelConfig{
		sessions: sessions,
		level:    levelMailView,
		accounts: testAccounts(),
	})
	m.currentUser = "alice@example.com"

	m, _ = sendKey(t, m, key('A'))
	if !m.switcherOpen {
		t.Fatal("expected switcher modal")
	}
	// Move to bob, who has no cached credentials.
	m, _ = sendKey(t, m, keyDown())
	m, _ = sendKey(t, m, keyEnter())

	if m.currentUser != "alice@example.com" {
		t.Errorf("currentUser = %q, want unchanged alice", m.currentUser)
	}
	if m.switcherOpen {
		t.Error("switcher should close after the rejected pick")
	}
	if !m.flashIsError {
		t.Error("expected error flash")
	}
}

func TestAccountSwitcherSwitchesToCachedTarget(t *testing.T) {
	sessions := newMockSessions()
	sessions.accounts["alice@example.com"] = session.SavedAccount{RefreshToken: "rt"}
	sessions.accounts["bob@example.com"] = session.SavedAccount{RefreshToken: "rt2"}
	m := newTestModel(t, testModelConfig{
		sessions: sessions,
		level:    levelMailView,
		accounts: testAccounts(),
	})
	m.currentUser = "alice@example.com"
	m.inboxPage = 3

	m, _ = sendKey(t, m, key('A'))
	m, _ = sendKey(t, m, keyDown())
	m, cmd := sendKey(t, m, keyEnter())
	m = runCmd(t, m, cmd)

	if m.currentUser != "bob@example.com" {
		t.Errorf("currentUser = %q, want bob", m.currentUser)
	}
	if m.inboxPage != 1 {
		t.Errorf("inbox page = %d, want reset to 1", m.inboxPage)
	}
}

func TestLogoutClearsCredential(t *testing.T) {
	sessions := newMockSessions()
	m := newTestModel(t, testModelConfig{
		sessions: sessions,
		level:    levelAccounts,
		tab:      tabTable,
		accounts: testAccounts(),
	})

	m, _ = sendKey(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if sessions.credential != "" {
		t.Error("logout should clear the stored credential")
	}
	if m.level != levelAdminLogin {
		t.Errorf("level = %v, want levelAdminLogin", m.level)
	}
}
