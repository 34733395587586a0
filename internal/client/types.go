package client

// Credentials identifies one mail account by its OAuth refresh token.
type Credentials struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
}

// Account is the server's view of a registered mail account.
//
// Status is one of "active", "inactive", or "unknown"; IsSold and Remark
// are the admin-editable tag fields.
type Account struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	IsSold bool   `json:"is_sold"`
	Remark string `json:"remark"`
}

// Account status values reported by the backend.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusUnknown  = "unknown"
)

// VerifyResult is the outcome of verifying one candidate account.
// Credentials is set only for successful verifications.
type VerifyResult struct {
	Email       string       `json:"email"`
	Status      string       `json:"status"`
	Credentials *Credentials `json:"credentials,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// Success reports whether the verification succeeded.
func (r VerifyResult) Success() bool {
	return r.Status == "success"
}

// ImportResult is the per-item outcome of an import batch.
type ImportResult struct {
	Email   string `json:"email"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Success reports whether the item was imported.
func (r ImportResult) Success() bool {
	return r.Status == "success"
}

// AccountPatch is a partial account update. Nil fields are left unchanged.
type AccountPatch struct {
	IsSold *bool   `json:"is_sold,omitempty"`
	Remark *string `json:"remark,omitempty"`
}

// DeleteResult summarizes a bulk delete.
type DeleteResult struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message,omitempty"`
}

// EmailSummary is one row of a mailbox listing.
type EmailSummary struct {
	MessageID      string `json:"message_id"`
	Subject        string `json:"subject"`
	FromEmail      string `json:"from_email"`
	Date           string `json:"date"`
	IsRead         bool   `json:"is_read"`
	HasAttachments bool   `json:"has_attachments"`
	SenderInitial  string `json:"sender_initial"`
}

// EmailDetail is the full form of one email.
type EmailDetail struct {
	EmailSummary
	ToEmail   string `json:"to_email"`
	BodyHTML  string `json:"body_html,omitempty"`
	BodyPlain string `json:"body_plain,omitempty"`
}

// DualViewQuery selects the inbox and junk pages of a combined fetch.
type DualViewQuery struct {
	InboxPage    int
	JunkPage     int
	PageSize     int
	ForceRefresh bool
}

// DualView is the combined inbox+junk listing for one account.
type DualView struct {
	InboxTotal  int            `json:"inbox_total"`
	JunkTotal   int            `json:"junk_total"`
	InboxEmails []EmailSummary `json:"inbox_emails"`
	JunkEmails  []EmailSummary `json:"junk_emails"`
}
