package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// transaction is the gateway-side record. JSON tags mirror the shape the
// real gateway serves, which is looser than the client's strict model.
type transaction struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	UserAuthenticated *bool           `json:"userAuthenticated"`
	ReviewedBy        string          `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty"`
	AnalystComment    string          `json:"analyst_comment,omitempty"`
	Violations        []string        `json:"violations,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}

var (
	errNotFound        = errors.New("transaction not found")
	errAlreadyReviewed = errors.New("transaction already reviewed")
	errNotSuspicious   = errors.New("transaction is not under review")
)

// memStore holds the seeded dataset. All mutation goes through the same
// mutex so concurrent polls and reviews see a consistent snapshot.
type memStore struct {
	mu  sync.Mutex
	txs map[string]*transaction
}

func newMemStore() *memStore {
	return &memStore{txs: make(map[string]*transaction)}
}

// seed populates the store with a small mixed dataset for one account so
// that a freshly started daemon has something to reconcile.
func (s *memStore) seed(userID string) {
	now := time.Now().UTC()

	s.add(&transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    decimal.NewFromInt(42),
		Status:    "APPROVED",
		Timestamp: now.Add(-48 * time.Hour),
	})
	s.add(&transaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		Amount:     decimal.NewFromInt(1200),
		Status:     "SUSPICIOUS",
		Violations: []string{"AMOUNT_THRESHOLD"},
		Timestamp:  now.Add(-2 * time.Hour),
	})
	s.add(&transaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		Amount:     decimal.NewFromFloat(75),
		Status:     "SUSPICIOUS",
		Violations: []string{"VELOCITY", "GEO_MISMATCH"},
		Timestamp:  now.Add(-30 * time.Minute),
	})
}

func (s *memStore) add(tx *transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[tx.ID] = tx
}

// listForUser returns copies sorted by timestamp, newest first.
func (s *memStore) listForUser(userID string) []transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Timestamp.After(out[i].Timestamp) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// review finalizes a transaction. A transaction can be reviewed exactly
// once; any later attempt fails regardless of the decision.
func (s *memStore) review(txID, decision, comment, analystID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[txID]
	if !ok {
		return errNotFound
	}
	if tx.ReviewedBy != "" {
		return errAlreadyReviewed
	}

	now := time.Now().UTC()
	tx.Status = decision
	tx.ReviewedBy = analystID
	tx.ReviewedAt = &now
	tx.AnalystComment = comment
	return nil
}

// authenticate records the account holder's answer. Only transactions
// still flagged as suspicious accept an answer.
func (s *memStore) authenticate(txID string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[txID]
	if !ok {
		return errNotFound
	}
	if tx.Status != "SUSPICIOUS" {
		return errNotSuspicious
	}

	tx.UserAuthenticated = &confirmed
	return nil
}
