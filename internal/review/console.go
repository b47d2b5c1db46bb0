package review

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fintechbank/txwatch/internal/domain"
)

// Reviewer submits analyst decisions to the gateway. Satisfied by
// *backend.Client.
type Reviewer interface {
	Review(ctx context.Context, txID string, decision domain.Status, comment, analystID string) error
}

// Console is the analyst-facing mutator: it finalizes a suspicious
// transaction as approved or rejected. The gateway alone enforces that a
// transaction is still reviewable; a rejection of the request (double
// review, unknown id) comes back as an error that is surfaced, never
// retried and never reconciled locally.
type Console struct {
	reviewer  Reviewer
	analystID string
	log       zerolog.Logger
}

// NewConsole creates a console acting as the given analyst.
func NewConsole(reviewer Reviewer, analystID string, log zerolog.Logger) *Console {
	return &Console{
		reviewer:  reviewer,
		analystID: analystID,
		log:       log,
	}
}

// Approve finalizes the transaction as APPROVED. The comment is free-form
// audit text and may be empty.
func (c *Console) Approve(ctx context.Context, txID, comment string) error {
	return c.decide(ctx, txID, domain.StatusApproved, comment)
}

// Reject finalizes the transaction as REJECTED.
func (c *Console) Reject(ctx context.Context, txID, comment string) error {
	return c.decide(ctx, txID, domain.StatusRejected, comment)
}

func (c *Console) decide(ctx context.Context, txID string, decision domain.Status, comment string) error {
	if err := c.reviewer.Review(ctx, txID, decision, comment, c.analystID); err != nil {
		c.log.Error().
			Err(err).
			Str("transaction_id", txID).
			Str("decision", string(decision)).
			Str("analyst_id", c.analystID).
			Msg("Review request rejected")
		return fmt.Errorf("review %s as %s: %w", txID, decision, err)
	}

	c.log.Info().
		Str("transaction_id", txID).
		Str("decision", string(decision)).
		Str("analyst_id", c.analystID).
		Msg("Transaction finalized")
	return nil
}
