package notify

import (
	"github.com/shopspring/decimal"
)

// Kind classifies a notification for display purposes.
type Kind string

const (
	// KindSuccess is a positive outcome (transaction approved).
	KindSuccess Kind = "success"
	// KindWarning is an outcome needing attention (rejected, or a
	// verification request).
	KindWarning Kind = "warning"
	// KindInfo is a neutral acknowledgment.
	KindInfo Kind = "info"
)

// Entry is one notification in the account holder's journal. Entries are
// owned by the client, persisted locally, and never synchronized across
// devices.
type Entry struct {
	// ID is a local identifier. Outcome notifications use "tx-<txID>" so a
	// transaction can produce at most one of them; other entries get a
	// random id.
	ID string `json:"id"`

	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`

	// CreatedAt is the display-formatted creation time.
	CreatedAt string `json:"createdAt"`

	Read bool `json:"read"`

	Meta Meta `json:"meta,omitempty"`
}

// Meta carries correlation fields used for supersession. Entries created
// before these fields existed have an empty Meta and fall back to
// amount-text matching.
type Meta struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	TxID   string           `json:"txId,omitempty"`
}

// createdAtLayout is the display format written into Entry.CreatedAt.
const createdAtLayout = "Jan 2, 2006 3:04 PM"
