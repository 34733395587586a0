// Package client provides the HTTP gateway to the mail-account backend.
//
// Every request except the login probe carries the stored admin credential
// as a bearer token. A 401 from any endpoint clears the stored credential
// and surfaces ErrUnauthorized; callers must abandon their flow and send
// the admin back through login.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrUnauthorized is returned when the backend rejects the admin credential.
// The stored credential has already been cleared when this is returned.
var ErrUnauthorized = errors.New("unauthorized: admin credential rejected")

// probePath is the credential-probe endpoint. It is the only request that
// does not carry the stored credential (it carries the candidate instead).
const probePath = "/auth/config"

// CredentialStore supplies the admin credential and invalidates it on 401.
type CredentialStore interface {
	Credential() string
	ClearCredential() error
}

// Config holds configuration for creating a Client.
type Config struct {
	URL           string
	AllowInsecure bool
	Timeout       time.Duration
}

// Client talks to the mail-account backend.
type Client struct {
	baseURL    string
	creds      CredentialStore
	httpClient *http.Client
}

// New creates a backend client.
func New(cfg Config, creds CredentialStore) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("server URL is required")
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Enforce HTTPS unless AllowInsecure is set
	if parsedURL.Scheme == "http" && !cfg.AllowInsecure {
		return nil, fmt.Errorf("HTTPS required for backend connections\n\n" +
			"Options:\n" +
			"  1. Use HTTPS: [server] url = \"https://mail.example.com\"\n" +
			"  2. For trusted networks: add 'allow_insecure = true' to [server] in config.toml")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("URL scheme must be http or https, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return nil, fmt.Errorf("server URL must include a host (e.g., https://mail.example.com)")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// doRequest performs an authenticated HTTP request.
// A 401 response clears the stored credential and returns ErrUnauthorized.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, eris.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if !strings.HasPrefix(path, probePath) {
		if credential := c.creds.Credential(); credential != "" {
			req.Header.Set("Authorization", "Bearer "+credential)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "request failed")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := c.creds.ClearCredential(); err != nil {
			return nil, eris.Wrap(err, "clear rejected credential")
		}
		return nil, ErrUnauthorized
	}

	return resp, nil
}

// apiError represents an error response from the backend.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleErrorResponse reads an error response and returns an appropriate error.
func handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
	}

	return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
}

// ProbeLogin validates a candidate admin password against the probe
// endpoint. Any non-OK response is a failed login; nothing is stored
// either way, persisting the credential is the caller's decision.
func (c *Client) ProbeLogin(ctx context.Context, password string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+probePath, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("admin password rejected (%d)", resp.StatusCode)
	}
	return nil
}

// AddAccount registers a single account with the backend.
func (c *Client) AddAccount(ctx context.Context, creds Credentials) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/accounts", creds)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return handleErrorResponse(resp)
	}
	return nil
}

// verifyRequest is the body of a batch-verify call.
type verifyRequest struct {
	Accounts []Credentials `json:"accounts"`
}

// VerifyAccounts submits the full candidate list in one call and returns
// a per-record result.
func (c *Client) VerifyAccounts(ctx context.Context, candidates []Credentials) ([]VerifyResult, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/accounts/verify", verifyRequest{Accounts: candidates})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var results []VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, eris.Wrap(err, "decode verify response")
	}
	return results, nil
}

// ImportAccounts imports previously verified accounts.
//
// The response is canonically a JSON array of per-item results; a bare
// object (older backend behavior) is accepted and wrapped as a
// single-element slice.
func (c *Client) ImportAccounts(ctx context.Context, accounts []Credentials) ([]ImportResult, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/accounts/import", accounts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read import response")
	}

	var results []ImportResult
	if err := json.Unmarshal(body, &results); err == nil {
		return results, nil
	}
	var single ImportResult
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, eris.Wrap(err, "decode import response")
	}
	return []ImportResult{single}, nil
}

// ListAccounts fetches all registered accounts. When checkStatus is true
// the backend re-checks each account's liveness before answering.
func (c *Client) ListAccounts(ctx context.Context, checkStatus bool) ([]Account, error) {
	path := "/accounts?check_status=" + strconv.FormatBool(checkStatus)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var accounts []Account
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return nil, eris.Wrap(err, "decode accounts response")
	}
	return accounts, nil
}

// UpdateAccount applies a partial update to one account.
func (c *Client) UpdateAccount(ctx context.Context, email string, patch AccountPatch) error {
	resp, err := c.doRequest(ctx, http.MethodPatch, "/accounts/"+url.PathEscape(email), patch)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp)
	}
	return nil
}

// deleteRequest is the body of a bulk-delete call.
type deleteRequest struct {
	Emails []string `json:"emails"`
}

// DeleteAccounts removes the given accounts in one call.
func (c *Client) DeleteAccounts(ctx context.Context, emails []string) (*DeleteResult, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/accounts", deleteRequest{Emails: emails})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var result DeleteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, eris.Wrap(err, "decode delete response")
	}
	return &result, nil
}

// DualView fetches the inbox and junk pages of one account in a single
// combined request.
func (c *Client) DualView(ctx context.Context, email string, q DualViewQuery) (*DualView, error) {
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.InboxPage <= 0 {
		q.InboxPage = 1
	}
	if q.JunkPage <= 0 {
		q.JunkPage = 1
	}

	path := fmt.Sprintf("/emails/%s/dual-view?inbox_page=%d&junk_page=%d&page_size=%d&force_refresh=%t",
		url.PathEscape(email), q.InboxPage, q.JunkPage, q.PageSize, q.ForceRefresh)

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var view DualView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, eris.Wrap(err, "decode dual view response")
	}
	return &view, nil
}

// GetEmail fetches the full detail of one email.
func (c *Client) GetEmail(ctx context.Context, email, messageID string) (*EmailDetail, error) {
	path := "/emails/" + url.PathEscape(email) + "/" + url.PathEscape(messageID)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var detail EmailDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, eris.Wrap(err, "decode email response")
	}
	return &detail, nil
}
