package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintechbank/txwatch/internal/domain"
	"github.com/fintechbank/txwatch/internal/notify"
)

// fakeLister serves a mutable transaction list, optionally failing.
type fakeLister struct {
	records []domain.TransactionRecord
	err     error
	calls   int
}

func (f *fakeLister) ListTransactions(ctx context.Context, accountID string) ([]domain.TransactionRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.TransactionRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

type memStorage struct {
	entries []Entry
	cursor  []string
}

type Entry = notify.Entry

func (m *memStorage) LoadEntries() ([]Entry, error) { return m.entries, nil }
func (m *memStorage) SaveEntries(entries []Entry) error {
	m.entries = append([]Entry(nil), entries...)
	return nil
}
func (m *memStorage) LoadCursor() ([]string, error) { return m.cursor, nil }
func (m *memStorage) SaveCursor(ids []string) error {
	m.cursor = append([]string(nil), ids...)
	return nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newPollerWithJournal(lister TransactionLister, storage notify.Storage) (*Poller, *notify.Store) {
	journal := notify.NewStore(storage, zerolog.Nop())
	return NewPoller(lister, journal, zerolog.Nop()), journal
}

func TestPoll_ScenarioApprovedOutcome(t *testing.T) {
	tx := domain.TransactionRecord{
		ID:     "tx-1",
		Amount: mustDecimal("1200"),
		Status: domain.StatusSuspicious,
	}
	confirmed := true
	tx.UserAuthenticated = &confirmed // already answered, so no pending entry

	lister := &fakeLister{records: []domain.TransactionRecord{tx}}
	poller, journal := newPollerWithJournal(lister, &memStorage{})
	ctx := context.Background()

	// Poll 1: still under review, no diff.
	res := poller.Poll(ctx, "user_1")
	if len(res.NewlyFinalized) != 0 {
		t.Fatalf("poll 1 should produce no diff, got %d", len(res.NewlyFinalized))
	}
	if len(journal.Entries()) != 0 {
		t.Fatalf("journal should be unchanged after poll 1")
	}

	// Backend finalizes the transaction.
	now := time.Now()
	lister.records[0].Status = domain.StatusApproved
	lister.records[0].ReviewedBy = "analyst_7"
	lister.records[0].ReviewedAt = &now

	// Poll 2: the finalization appears exactly once.
	res = poller.Poll(ctx, "user_1")
	if len(res.NewlyFinalized) != 1 || res.NewlyFinalized[0].ID != "tx-1" {
		t.Fatalf("poll 2 diff = %+v, want [tx-1]", res.NewlyFinalized)
	}
	entries := journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(entries))
	}
	want := "Your transaction of $1,200 was approved by the analyst."
	if entries[0].Message != want {
		t.Errorf("message = %q, want %q", entries[0].Message, want)
	}
	if !journal.AlreadyNotified("tx-1") {
		t.Error("cursor should contain tx-1")
	}

	// Poll 3: unchanged backend, diff stays empty.
	res = poller.Poll(ctx, "user_1")
	if len(res.NewlyFinalized) != 0 {
		t.Errorf("poll 3 should produce no diff, got %d", len(res.NewlyFinalized))
	}
	if len(journal.Entries()) != 1 {
		t.Errorf("journal must not grow on an unchanged backend")
	}
}

func TestPoll_ScenarioRejectedSupersedesPending(t *testing.T) {
	tx := domain.TransactionRecord{
		ID:     "tx-2",
		Amount: mustDecimal("75"),
		Status: domain.StatusSuspicious,
	}
	lister := &fakeLister{records: []domain.TransactionRecord{tx}}
	poller, journal := newPollerWithJournal(lister, &memStorage{})
	ctx := context.Background()

	// First poll records the verification request.
	poller.Poll(ctx, "user_1")
	entries := journal.Entries()
	if len(entries) != 1 || entries[0].Kind != notify.KindWarning {
		t.Fatalf("expected one pending-authentication entry, got %+v", entries)
	}

	// Backend finalizes as rejected.
	lister.records[0].Status = domain.StatusRejected
	lister.records[0].ReviewedBy = "analyst_3"

	poller.Poll(ctx, "user_1")
	entries = journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected the pending entry to be superseded, got %d entries", len(entries))
	}
	if !strings.Contains(entries[0].Message, "rejected by the bank") {
		t.Errorf("surviving entry should be the rejection outcome, got %q", entries[0].Message)
	}
	if entries[0].Meta.TxID != "tx-2" {
		t.Errorf("outcome entry should reference tx-2")
	}
}

func TestPoll_OrderIndependence(t *testing.T) {
	base := domain.TransactionRecord{
		ID:     "tx-3",
		Amount: mustDecimal("300"),
		Status: domain.StatusSuspicious,
	}
	confirmed := true
	now := time.Now()

	outcomeFor := func(sequence []domain.TransactionRecord) notify.Entry {
		lister := &fakeLister{}
		poller, journal := newPollerWithJournal(lister, &memStorage{})
		for _, step := range sequence {
			lister.records = []domain.TransactionRecord{step}
			poller.Poll(context.Background(), "user_1")
		}
		for _, e := range journal.Entries() {
			if e.ID == "tx-tx-3" {
				return e
			}
		}
		t.Fatal("no outcome entry found")
		return notify.Entry{}
	}

	reviewed := base
	reviewed.Status = domain.StatusApproved
	reviewed.ReviewedBy = "analyst_7"
	reviewed.ReviewedAt = &now

	authenticated := base
	authenticated.UserAuthenticated = &confirmed

	reviewedThenAuthenticated := reviewed
	reviewedThenAuthenticated.UserAuthenticated = &confirmed

	// Holder answers first, review lands later.
	authFirst := outcomeFor([]domain.TransactionRecord{base, authenticated, reviewedThenAuthenticated})
	// Review lands first, holder answers later.
	reviewFirst := outcomeFor([]domain.TransactionRecord{base, reviewed, reviewedThenAuthenticated})

	if authFirst.Message != reviewFirst.Message || authFirst.Kind != reviewFirst.Kind {
		t.Errorf("outcome must not depend on authentication order:\n  auth first:   %+v\n  review first: %+v", authFirst, reviewFirst)
	}
}

func TestPoll_FailureIsolation(t *testing.T) {
	tx := domain.TransactionRecord{
		ID:         "tx-4",
		Amount:     mustDecimal("50"),
		Status:     domain.StatusApproved,
		ReviewedBy: "analyst_1",
	}
	lister := &fakeLister{records: []domain.TransactionRecord{tx}}
	storage := &memStorage{}
	poller, journal := newPollerWithJournal(lister, storage)
	ctx := context.Background()

	poller.Poll(ctx, "user_1")
	entriesBefore := len(journal.Entries())
	cursorBefore := len(storage.cursor)

	// Network failure: empty diff over last known list, state untouched.
	lister.err = errors.New("connection refused")
	res := poller.Poll(ctx, "user_1")

	if len(res.NewlyFinalized) != 0 {
		t.Error("failed poll must produce an empty diff")
	}
	if len(res.All) != 1 || res.All[0].ID != "tx-4" {
		t.Errorf("failed poll should return last known list, got %+v", res.All)
	}
	if len(journal.Entries()) != entriesBefore || len(storage.cursor) != cursorBefore {
		t.Error("failed poll must not change persisted notification state")
	}

	// Next tick retries unconditionally.
	lister.err = nil
	res = poller.Poll(ctx, "user_1")
	if len(res.All) != 1 {
		t.Errorf("recovered poll should fetch again, got %+v", res.All)
	}
}

func TestPoll_NoDoubleCountingAcrossRestarts(t *testing.T) {
	tx := domain.TransactionRecord{
		ID:         "tx-5",
		Amount:     mustDecimal("800"),
		Status:     domain.StatusApproved,
		ReviewedBy: "analyst_1",
	}
	lister := &fakeLister{records: []domain.TransactionRecord{tx}}
	storage := &memStorage{}

	poller, _ := newPollerWithJournal(lister, storage)
	poller.Poll(context.Background(), "user_1")

	// Restart: fresh poller and journal over the same persisted storage,
	// unchanged server list.
	restarted, journal := newPollerWithJournal(lister, storage)
	res := restarted.Poll(context.Background(), "user_1")

	if len(res.NewlyFinalized) != 0 {
		t.Errorf("restarted poller must not re-notify, got %+v", res.NewlyFinalized)
	}
	if len(journal.Entries()) != 1 {
		t.Errorf("expected 1 entry after restart, got %d", len(journal.Entries()))
	}
}

func TestPoll_SkipsRecordsWithoutID(t *testing.T) {
	lister := &fakeLister{records: []domain.TransactionRecord{
		{Amount: mustDecimal("10"), Status: domain.StatusApproved, ReviewedBy: "analyst_1"},
	}}
	poller, journal := newPollerWithJournal(lister, &memStorage{})

	res := poller.Poll(context.Background(), "user_1")
	if len(res.NewlyFinalized) != 0 || len(journal.Entries()) != 0 {
		t.Error("records without an id must be ignored, not notified")
	}
}
