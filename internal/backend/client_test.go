package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fintechbank/txwatch/internal/domain"
)

func TestListTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/user/transactions/user_1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"transactionId":"tx-1","amount":1200,"status":"PENDING_REVIEW","violations":["AMOUNT_THRESHOLD"]},
			{"id":"tx-2","amount":75,"status":"APPROVED","reviewedBy":"analyst_7","reviewedAt":"2026-02-01T10:00:00Z"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123", zerolog.Nop())
	records, err := client.ListTransactions(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "tx-1" || records[0].Status != domain.StatusSuspicious {
		t.Errorf("first record not normalized: %+v", records[0])
	}
	if !records[1].Finalized() {
		t.Errorf("second record should be finalized: %+v", records[1])
	}
}

func TestListTransactions_TransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", zerolog.Nop())
	if _, err := client.ListTransactions(context.Background(), "user_1"); err == nil {
		t.Error("expected transport error")
	}
}

func TestReview_SendsDecisionAndAnalystHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/api/v1/transaction/review/tx-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Analyst-ID"); got != "analyst_7" {
			t.Errorf("X-Analyst-ID = %q", got)
		}
		var body struct {
			Decision string `json:"decision"`
			Comment  string `json:"analyst_comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body.Decision != "APPROVED" || body.Comment != "verified by phone" {
			t.Errorf("body = %+v", body)
		}
		w.Write([]byte(`{"status":"reviewed","decision":"APPROVED"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zerolog.Nop())
	err := client.Review(context.Background(), "tx-1", domain.StatusApproved, "verified by phone", "analyst_7")
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
}

func TestReview_DoubleReviewSurfacesServerReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"Transaction tx-1 already reviewed"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zerolog.Nop())
	err := client.Review(context.Background(), "tx-1", domain.StatusApproved, "", "analyst_7")
	if err == nil {
		t.Fatal("expected error for double review")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", apiErr.StatusCode)
	}
	if apiErr.UserMessage() != "Transaction tx-1 already reviewed" {
		t.Errorf("UserMessage = %q", apiErr.UserMessage())
	}
}

func TestAuthenticateTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/v1/user/transaction/tx-1/authenticate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Confirmed bool `json:"confirmed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if !body.Confirmed {
			t.Error("confirmed should be true")
		}
		w.Write([]byte(`{"status":"authenticated"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zerolog.Nop())
	if err := client.AuthenticateTransaction(context.Background(), "tx-1", true); err != nil {
		t.Fatalf("AuthenticateTransaction failed: %v", err)
	}
}

func TestAuthenticateTransaction_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Transaction tx-x not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zerolog.Nop())
	err := client.AuthenticateTransaction(context.Background(), "tx-x", false)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.NotFound() {
		t.Errorf("expected not-found APIError, got %v", err)
	}
}
