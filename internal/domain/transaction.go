package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the risk classification assigned to a transaction by the
// scoring backend. SUSPICIOUS is the only non-terminal state: an analyst
// review moves it to APPROVED or REJECTED, and once reviewed no further
// review is accepted by the backend.
type Status string

const (
	// StatusApproved marks a transaction cleared for settlement.
	StatusApproved Status = "APPROVED"
	// StatusSuspicious marks a transaction held for manual review.
	StatusSuspicious Status = "SUSPICIOUS"
	// StatusRejected marks a transaction blocked by the bank.
	StatusRejected Status = "REJECTED"
)

// TransactionRecord is the client-side view of one transaction as reported
// by the backend. The backend owns the authoritative record; this struct is
// produced by a single normalization step at the transport boundary and is
// never mutated locally.
type TransactionRecord struct {
	// ID is the stable opaque identifier. It is the only safe correlation
	// key between polls and the dedup key for outcome notifications.
	ID string `json:"id"`

	// Amount is signed: negative for debits, positive for credits.
	Amount decimal.Decimal `json:"amount"`

	// Status is the current risk classification.
	Status Status `json:"status"`

	// UserAuthenticated records the account holder's answer to "did you
	// make this transaction?". nil means not yet asked or not applicable.
	UserAuthenticated *bool `json:"userAuthenticated"`

	// ReviewedBy is the analyst identifier, empty until an analyst
	// finalizes the transaction.
	ReviewedBy string `json:"reviewedBy,omitempty"`

	// ReviewedAt is set together with ReviewedBy. The pairing invariant is
	// enforced by the backend; readers here stay nil-safe rather than
	// asserting it.
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`

	// Violations are opaque reason codes from the rule engine. Rendered,
	// never parsed.
	Violations []string `json:"violations"`

	// Timestamp is the transaction creation time.
	Timestamp time.Time `json:"timestamp"`
}

// Finalized reports whether an analyst has taken a terminal decision on
// this transaction.
func (t TransactionRecord) Finalized() bool {
	return t.ReviewedBy != ""
}

// NeedsAuthentication reports whether the account holder should be asked to
// confirm the transaction: it is held as suspicious and the holder has not
// answered yet. Independent of whether an analyst already reviewed it.
func (t TransactionRecord) NeedsAuthentication() bool {
	return t.Status == StatusSuspicious && t.UserAuthenticated == nil
}
