package reconcile

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fintechbank/txwatch/internal/domain"
	"github.com/fintechbank/txwatch/internal/notify"
)

// TransactionLister fetches the authoritative transaction list for one
// account. Satisfied by *backend.Client; mocked in tests.
type TransactionLister interface {
	ListTransactions(ctx context.Context, accountID string) ([]domain.TransactionRecord, error)
}

// Journal is the notification sink the poller emits into. Satisfied by
// *notify.Store.
type Journal interface {
	AlreadyNotified(txID string) bool
	RecordOutcome(tx domain.TransactionRecord) (notify.Entry, bool)
	RecordPendingAuthentication(tx domain.TransactionRecord) (notify.Entry, bool)
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	// All is the full fetched list, or the last known list when the fetch
	// failed.
	All []domain.TransactionRecord

	// NewlyFinalized holds the records whose terminal review outcome was
	// observed for the first time in this pass.
	NewlyFinalized []domain.TransactionRecord
}

// Poller detects state transitions without a push channel: it re-fetches
// the transaction list and diffs it against the journal's cursor. Diffing
// and notification emission happen inside one Poll call, so relative to the
// scheduling tick they form a single logical unit.
type Poller struct {
	lister  TransactionLister
	journal Journal
	log     zerolog.Logger

	mu        sync.Mutex
	lastKnown []domain.TransactionRecord
}

// NewPoller creates a poller emitting into journal.
func NewPoller(lister TransactionLister, journal Journal, log zerolog.Logger) *Poller {
	return &Poller{
		lister:  lister,
		journal: journal,
		log:     log,
	}
}

// Poll runs one reconciliation pass for the account. A transport failure is
// logged and resolves to an empty diff over the last known list: persisted
// notification state is never touched on failure, and the next tick retries
// unconditionally.
func (p *Poller) Poll(ctx context.Context, accountID string) Result {
	list, err := p.lister.ListTransactions(ctx, accountID)
	if err != nil {
		p.log.Warn().
			Err(err).
			Str("account_id", accountID).
			Msg("Poll failed, keeping last known state")
		return Result{All: p.snapshot()}
	}

	var newlyFinalized []domain.TransactionRecord
	for _, tx := range list {
		if tx.ID == "" {
			continue
		}
		switch {
		case tx.Finalized() && !p.journal.AlreadyNotified(tx.ID):
			if _, ok := p.journal.RecordOutcome(tx); ok {
				newlyFinalized = append(newlyFinalized, tx)
				p.log.Info().
					Str("transaction_id", tx.ID).
					Str("status", string(tx.Status)).
					Str("reviewed_by", tx.ReviewedBy).
					Msg("Review outcome notified")
			}
		case tx.NeedsAuthentication():
			if _, ok := p.journal.RecordPendingAuthentication(tx); ok {
				p.log.Info().
					Str("transaction_id", tx.ID).
					Msg("Verification request notified")
			}
		}
	}

	p.mu.Lock()
	p.lastKnown = list
	p.mu.Unlock()

	return Result{All: list, NewlyFinalized: newlyFinalized}
}

func (p *Poller) snapshot() []domain.TransactionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.TransactionRecord, len(p.lastKnown))
	copy(out, p.lastKnown)
	return out
}
