package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The gateway has grown several spellings for the same fields over time:
// "id" vs "transactionId" vs "transaction_id", camel vs snake case for the
// review fields, and "PENDING_REVIEW" as a legacy alias for SUSPICIOUS.
// wireTransaction captures every spelling so the rest of the code never has
// to guess field names again.
type wireTransaction struct {
	ID               string `json:"id"`
	TransactionID    string `json:"transactionId"`
	TransactionIDAlt string `json:"transaction_id"`

	Amount *decimal.Decimal `json:"amount"`

	Status string `json:"status"`

	UserAuthenticated    *bool `json:"userAuthenticated"`
	UserAuthenticatedAlt *bool `json:"user_authenticated"`

	ReviewedBy    string `json:"reviewedBy"`
	ReviewedByAlt string `json:"reviewed_by"`

	ReviewedAt    string `json:"reviewedAt"`
	ReviewedAtAlt string `json:"reviewed_at"`

	Violations []string `json:"violations"`
	Reasons    []string `json:"reasons"`

	Timestamp   string `json:"timestamp"`
	Date        string `json:"date"`
	CreatedAt   string `json:"createdAt"`
	EvaluatedAt string `json:"evaluated_at"`
}

// ParseTransactions decodes the backend's transaction list payload and
// normalizes each element into a strict TransactionRecord. It fails only on
// malformed JSON; records with missing fields are normalized defensively.
func ParseTransactions(data []byte) ([]TransactionRecord, error) {
	var wire []wireTransaction
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode transaction list: %w", err)
	}

	records := make([]TransactionRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, w.normalize())
	}
	return records, nil
}

func (w wireTransaction) normalize() TransactionRecord {
	rec := TransactionRecord{
		ID:                firstNonEmpty(w.ID, w.TransactionID, w.TransactionIDAlt),
		Status:            normalizeStatus(w.Status),
		UserAuthenticated: w.UserAuthenticated,
		ReviewedBy:        firstNonEmpty(w.ReviewedBy, w.ReviewedByAlt),
		Violations:        w.Violations,
	}

	if w.Amount != nil {
		rec.Amount = *w.Amount
	}
	if rec.UserAuthenticated == nil {
		rec.UserAuthenticated = w.UserAuthenticatedAlt
	}
	if rec.Violations == nil {
		rec.Violations = w.Reasons
	}
	if rec.Violations == nil {
		rec.Violations = []string{}
	}

	if ts, ok := parseTime(firstNonEmpty(w.Timestamp, w.Date, w.CreatedAt, w.EvaluatedAt)); ok {
		rec.Timestamp = ts
	}
	if reviewedAt, ok := parseTime(firstNonEmpty(w.ReviewedAt, w.ReviewedAtAlt)); ok {
		rec.ReviewedAt = &reviewedAt
	}

	return rec
}

// normalizeStatus maps the wire status into the canonical enum. The backend
// historically reported held transactions as PENDING_REVIEW.
func normalizeStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "APPROVED":
		return StatusApproved
	case "REJECTED":
		return StatusRejected
	case "SUSPICIOUS", "PENDING_REVIEW":
		return StatusSuspicious
	default:
		// Unknown classifications are treated as held rather than dropped,
		// so they surface in the UI instead of disappearing.
		return StatusSuspicious
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
