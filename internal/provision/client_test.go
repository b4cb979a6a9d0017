package provision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewHTTPClient(srv.URL, "secret-token", 5*time.Second), srv
}

func TestCreateCart(t *testing.T) {
	var gotAuth string
	var gotBody createCartRequest

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/carts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(createCartResponse{CartID: "cart-7"})
	}))
	defer srv.Close()

	cartID, err := client.CreateCart(context.Background(), 42, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cartID != "cart-7" {
		t.Errorf("got cartID %q, want cart-7", cartID)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("got auth header %q, want bearer token", gotAuth)
	}
	if gotBody.SessionID != 42 || gotBody.Tickets != 3 {
		t.Errorf("got body %+v, want sessionId 42 tickets 3", gotBody)
	}
}

func TestCreateCartMissingIdentifier(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := client.CreateCart(context.Background(), 1, 1); err == nil {
		t.Fatal("expected an error for a response without cartId")
	}
}

func TestPrepareBookingNonSuccessStatus(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/carts/cart-7/prepare" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		http.Error(w, "cart expired", http.StatusConflict)
	}))
	defer srv.Close()

	err := client.PrepareBooking(context.Background(), "cart-7")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("got status %d, want %d", apiErr.Status, http.StatusConflict)
	}
	if apiErr.Body != "cart expired" {
		t.Errorf("got body %q, want response snippet", apiErr.Body)
	}
}

func TestBookCart(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/carts/cart-7/book-free" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(bookCartResponse{TicketID: "ticket-9"})
	}))
	defer srv.Close()

	ticketID, err := client.BookCart(context.Background(), "cart-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticketID != "ticket-9" {
		t.Errorf("got ticketID %q, want ticket-9", ticketID)
	}
}

func TestFetchCodesPreservesOrder(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/tickets/ticket-9/codes" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(fetchCodesResponse{Codes: []codeRecord{
			{Code: "Z9"}, {Code: "A1"}, {Code: "M5"},
		}})
	}))
	defer srv.Close()

	codes, err := client.FetchCodes(context.Background(), "ticket-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Z9", "A1", "M5"}
	if len(codes) != len(want) {
		t.Fatalf("got %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, codes[i], want[i])
		}
	}
}

func TestFetchCodesMalformedPayload(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	if _, err := client.FetchCodes(context.Background(), "ticket-9"); err == nil {
		t.Fatal("expected an error for a malformed payload")
	}
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(createCartResponse{CartID: "cart-1"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", 5*time.Second)
	if _, err := client.CreateCart(context.Background(), 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}
