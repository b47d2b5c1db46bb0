package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fintechbank/txwatch/internal/domain"
)

const (
	outcomeIDPrefix  = "tx-"
	pendingAuthTitle = "Verification required"
)

// Storage persists the journal state. Implementations must treat a missing
// backing file as empty state, not an error; decoding failures are reported
// as errors and the store degrades to empty state.
type Storage interface {
	// LoadEntries returns the persisted notification list, most recent first.
	LoadEntries() ([]Entry, error)

	// SaveEntries rewrites the persisted notification list.
	SaveEntries(entries []Entry) error

	// LoadCursor returns the ids of transactions already notified.
	LoadCursor() ([]string, error)

	// SaveCursor rewrites the already-notified id set.
	SaveCursor(ids []string) error
}

// Store owns the notification journal and the reconciliation cursor: the
// only two pieces of shared mutable state in the client. All mutation goes
// through this type, and every mutation is persisted before the method
// returns. Losing a write to storage is logged and tolerated; losing the
// ability to notify is not.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	log      zerolog.Logger
	entries  []Entry
	notified map[string]struct{}

	// OnEmit, when set, is invoked after an entry has been appended and
	// persisted. Set it before the poller starts; it is called with the
	// store lock held.
	OnEmit func(Entry)

	now   func() time.Time
	newID func() string
}

// NewStore loads persisted state from storage and returns a ready journal.
// Missing or corrupt storage is logged and treated as empty state; NewStore
// never fails.
func NewStore(storage Storage, log zerolog.Logger) *Store {
	s := &Store{
		storage:  storage,
		log:      log,
		notified: make(map[string]struct{}),
		now:      time.Now,
		newID:    uuid.NewString,
	}

	entries, err := storage.LoadEntries()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load notification journal, starting empty")
	} else {
		s.entries = entries
	}

	ids, err := storage.LoadCursor()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load reconciliation cursor, starting empty")
	} else {
		for _, id := range ids {
			s.notified[id] = struct{}{}
		}
	}

	return s
}

// AlreadyNotified reports whether an outcome notification was already
// emitted for the given transaction id.
func (s *Store) AlreadyNotified(txID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notified[txID]
	return ok
}

// RecordOutcome emits the outcome notification for a finalized transaction:
// it supersedes any pending-authentication entry for the same transaction,
// appends exactly one entry keyed tx-<id>, marks the id as notified, and
// persists both writes before returning. The second return value is false
// when nothing was emitted (id already notified, or the record is not a
// reviewed terminal outcome).
func (s *Store) RecordOutcome(tx domain.TransactionRecord) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notified[tx.ID]; ok {
		return Entry{}, false
	}
	if !tx.Finalized() {
		return Entry{}, false
	}

	var title, message string
	var kind Kind
	switch tx.Status {
	case domain.StatusApproved:
		title = "Transaction approved"
		message = fmt.Sprintf("Your transaction of %s was approved by the analyst.", domain.FormatAmount(tx.Amount))
		kind = KindSuccess
	case domain.StatusRejected:
		title = "Transaction rejected"
		message = fmt.Sprintf("Your transaction of %s was rejected by the bank.", domain.FormatAmount(tx.Amount))
		kind = KindWarning
	default:
		// Finalized but still suspicious is a backend inconsistency; do not
		// notify on it.
		return Entry{}, false
	}

	s.supersedePending(tx)

	amount := tx.Amount
	entry := Entry{
		ID:        outcomeIDPrefix + tx.ID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: s.now().Format(createdAtLayout),
		Meta:      Meta{Amount: &amount, TxID: tx.ID},
	}

	s.entries = append([]Entry{entry}, s.entries...)
	s.notified[tx.ID] = struct{}{}
	s.persist()

	if s.OnEmit != nil {
		s.OnEmit(entry)
	}
	return entry, true
}

// RecordPendingAuthentication adds a verification-request notification for
// a suspicious transaction the holder has not answered yet. At most one
// pending entry exists per transaction; repeat calls are no-ops. Returns
// false when nothing was added.
func (s *Store) RecordPendingAuthentication(tx domain.TransactionRecord) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notified[tx.ID]; ok {
		return Entry{}, false
	}
	// Same matching rule as supersession, so a legacy entry without id
	// metadata still counts as the one pending entry for this transaction.
	amountText := domain.FormatAmount(tx.Amount)
	for _, e := range s.entries {
		if e.Title == pendingAuthTitle && s.pendingMatches(e, tx, amountText) {
			return Entry{}, false
		}
	}

	amount := tx.Amount
	entry := Entry{
		ID:        s.newID(),
		Title:     pendingAuthTitle,
		Message:   fmt.Sprintf("We detected unusual activity. Please confirm whether you made the transaction of %s.", domain.FormatAmount(tx.Amount)),
		Kind:      KindWarning,
		CreatedAt: s.now().Format(createdAtLayout),
		Meta:      Meta{Amount: &amount, TxID: tx.ID},
	}

	s.entries = append([]Entry{entry}, s.entries...)
	s.persist()

	if s.OnEmit != nil {
		s.OnEmit(entry)
	}
	return entry, true
}

// Add appends a free-form notification (holder feedback, system messages).
func (s *Store) Add(title, message string, kind Kind) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		ID:        s.newID(),
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: s.now().Format(createdAtLayout),
	}
	s.entries = append([]Entry{entry}, s.entries...)
	s.persist()

	if s.OnEmit != nil {
		s.OnEmit(entry)
	}
	return entry
}

// supersedePending removes the pending-authentication entry made obsolete
// by the finalization of tx. Correlation is by meta.txId when present. For
// legacy entries without metadata the fallback is a textual match on the
// formatted absolute amount in the message; that heuristic can over-match
// when two pending notifications share an identical formatted amount, and is
// kept only for entries created before id metadata existed.
func (s *Store) supersedePending(tx domain.TransactionRecord) {
	amountText := domain.FormatAmount(tx.Amount)

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Title == pendingAuthTitle && s.pendingMatches(e, tx, amountText) {
			s.log.Debug().
				Str("entry_id", e.ID).
				Str("transaction_id", tx.ID).
				Msg("Superseding pending-authentication notification")
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
}

func (s *Store) pendingMatches(e Entry, tx domain.TransactionRecord, amountText string) bool {
	if e.Meta.TxID != "" {
		return e.Meta.TxID == tx.ID
	}
	return strings.Contains(e.Message, amountText)
}

// Entries returns a copy of the journal, most recent first.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Unread returns the number of unread notifications.
func (s *Store) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !e.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one notification as read. Returns false for unknown ids.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			if !s.entries[i].Read {
				s.entries[i].Read = true
				s.persist()
			}
			return true
		}
	}
	return false
}

// MarkAllRead marks every notification as read.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for i := range s.entries {
		if !s.entries[i].Read {
			s.entries[i].Read = true
			changed = true
		}
	}
	if changed {
		s.persist()
	}
}

// persist writes both artifacts synchronously. Storage failures are logged
// and swallowed: losing notification history is preferable to losing the
// ability to notify at all. Caller must hold s.mu.
func (s *Store) persist() {
	if err := s.storage.SaveEntries(s.entries); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist notification journal")
	}

	ids := make([]string, 0, len(s.notified))
	for id := range s.notified {
		ids = append(ids, id)
	}
	if err := s.storage.SaveCursor(ids); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist reconciliation cursor")
	}
}
