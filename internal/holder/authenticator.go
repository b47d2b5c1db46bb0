package holder

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fintechbank/txwatch/internal/backend"
	"github.com/fintechbank/txwatch/internal/domain"
)

// Gateway is the slice of the backend client the authenticator needs.
type Gateway interface {
	AuthenticateTransaction(ctx context.Context, txID string, confirmed bool) error
	ListTransactions(ctx context.Context, accountID string) ([]domain.TransactionRecord, error)
}

// Authenticator records the account holder's answer to "did you make this
// transaction?". It keeps no local state of its own: on success it
// re-fetches the authoritative list and hands it to OnRefresh so the UI
// reflects the new flag; on failure prior state is untouched and the call
// is simply retryable.
type Authenticator struct {
	gateway   Gateway
	accountID string
	log       zerolog.Logger

	// OnRefresh receives the re-fetched list after a successful answer.
	// Optional.
	OnRefresh func([]domain.TransactionRecord)
}

// NewAuthenticator creates an authenticator for one account.
func NewAuthenticator(gateway Gateway, accountID string, log zerolog.Logger) *Authenticator {
	return &Authenticator{
		gateway:   gateway,
		accountID: accountID,
		log:       log,
	}
}

// Confirm records that the holder made the transaction.
func (a *Authenticator) Confirm(ctx context.Context, txID string) error {
	return a.answer(ctx, txID, true)
}

// Deny records that the holder did not make the transaction.
func (a *Authenticator) Deny(ctx context.Context, txID string) error {
	return a.answer(ctx, txID, false)
}

func (a *Authenticator) answer(ctx context.Context, txID string, confirmed bool) error {
	if err := a.gateway.AuthenticateTransaction(ctx, txID, confirmed); err != nil {
		a.log.Error().
			Err(err).
			Str("transaction_id", txID).
			Bool("confirmed", confirmed).
			Msg("Failed to authenticate transaction")
		return fmt.Errorf("authenticate %s: %w", txID, err)
	}

	a.log.Info().
		Str("transaction_id", txID).
		Bool("confirmed", confirmed).
		Msg("Transaction authentication recorded")

	// Refresh so the caller sees the updated flag. A refresh failure is
	// not a mutation failure: the answer was accepted, the next poll will
	// pick the list up anyway.
	list, err := a.gateway.ListTransactions(ctx, a.accountID)
	if err != nil {
		a.log.Warn().Err(err).Msg("List refresh after authentication failed")
		return nil
	}
	if a.OnRefresh != nil {
		a.OnRefresh(list)
	}
	return nil
}

// UserMessage extracts the text to show the holder for a failed mutation:
// the server reason when the gateway provided one, a generic message
// otherwise.
func UserMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "Something went wrong. Please try again."
}
