package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// BookingAPI is the contract for the external booking system the harness uses
// to manufacture test codes before a load run.
type BookingAPI interface {
	CreateCart(ctx context.Context, sessionID, tickets int) (string, error)
	PrepareBooking(ctx context.Context, cartID string) error
	BookCart(ctx context.Context, cartID string) (string, error)
	FetchCodes(ctx context.Context, ticketID string) ([]string, error)
}

// HTTPClient talks to the booking API over HTTP with JSON bodies and bearer
// token authentication.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHTTPClient creates a booking API client. Requests are traced through the
// OpenTelemetry HTTP transport.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

type createCartRequest struct {
	SessionID int `json:"sessionId"`
	Tickets   int `json:"tickets"`
}

type createCartResponse struct {
	CartID string `json:"cartId"`
}

type bookCartResponse struct {
	TicketID string `json:"ticketId"`
}

type codeRecord struct {
	Code string `json:"code"`
}

type fetchCodesResponse struct {
	Codes []codeRecord `json:"codes"`
}

// CreateCart opens a new cart for the given session holding the requested
// number of tickets and returns its identifier.
func (c *HTTPClient) CreateCart(ctx context.Context, sessionID, tickets int) (string, error) {
	var out createCartResponse
	err := c.do(ctx, http.MethodPost, "/carts", createCartRequest{SessionID: sessionID, Tickets: tickets}, &out)
	if err != nil {
		return "", err
	}
	if out.CartID == "" {
		return "", fmt.Errorf("create cart response missing cartId")
	}
	return out.CartID, nil
}

// PrepareBooking moves the cart into a bookable state. The response body
// carries no state the workflow needs.
func (c *HTTPClient) PrepareBooking(ctx context.Context, cartID string) error {
	return c.do(ctx, http.MethodPost, "/carts/"+cartID+"/prepare", nil, nil)
}

// BookCart books the cart free of charge and returns the resulting ticket
// identifier.
func (c *HTTPClient) BookCart(ctx context.Context, cartID string) (string, error) {
	var out bookCartResponse
	err := c.do(ctx, http.MethodPost, "/carts/"+cartID+"/book-free", nil, &out)
	if err != nil {
		return "", err
	}
	if out.TicketID == "" {
		return "", fmt.Errorf("book cart response missing ticketId")
	}
	return out.TicketID, nil
}

// FetchCodes looks up the codes attached to a booked ticket, preserving the
// order the API returns them in.
func (c *HTTPClient) FetchCodes(ctx context.Context, ticketID string) ([]string, error) {
	var out fetchCodesResponse
	err := c.do(ctx, http.MethodGet, "/tickets/"+ticketID+"/codes", nil, &out)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(out.Codes))
	for _, record := range out.Codes {
		codes = append(codes, record.Code)
	}
	return codes, nil
}

// do issues a single JSON request against the booking API and decodes the
// response into out when out is non-nil. Non-2xx responses become *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal booking api payload: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create booking api request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call booking api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode booking api response: %w", err)
	}
	return nil
}
