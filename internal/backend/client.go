package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintechbank/txwatch/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Client talks to the fraud gateway. The gateway owns every transaction
// record; this client only reads the authoritative list and sends mutation
// requests (review, authenticate).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a gateway client. token is the bearer token of the
// current session and may be empty for unauthenticated dev backends.
func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

// ListTransactions fetches the authoritative transaction list for one
// account and normalizes it into strict records.
func (c *Client) ListTransactions(ctx context.Context, accountID string) ([]domain.TransactionRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/user/transactions/%s", c.baseURL, url.PathEscape(accountID))

	body, err := c.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	records, err := domain.ParseTransactions(body)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return records, nil
}

// Review submits an analyst decision for a suspicious transaction. The
// gateway is the sole enforcer of the review precondition: a double review
// or unknown id comes back as an *APIError and is not retried here.
func (c *Client) Review(ctx context.Context, txID string, decision domain.Status, comment, analystID string) error {
	endpoint := fmt.Sprintf("%s/api/v1/transaction/review/%s", c.baseURL, url.PathEscape(txID))

	payload := map[string]any{
		"decision":        decision,
		"analyst_comment": comment,
	}
	headers := map[string]string{"X-Analyst-ID": analystID}

	if _, err := c.do(ctx, http.MethodPut, endpoint, payload, headers); err != nil {
		return fmt.Errorf("Review: %w", err)
	}
	return nil
}

// AuthenticateTransaction records the account holder's answer to whether
// they made the transaction.
func (c *Client) AuthenticateTransaction(ctx context.Context, txID string, confirmed bool) error {
	endpoint := fmt.Sprintf("%s/api/v1/user/transaction/%s/authenticate", c.baseURL, url.PathEscape(txID))

	payload := map[string]any{"confirmed": confirmed}
	if _, err := c.do(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		return fmt.Errorf("AuthenticateTransaction: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug().
			Str("method", method).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Gateway rejected request")
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}
