// Package khalti is a client for the Khalti ePayment API.
package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Lookup statuses reported by the gateway.
const (
	StatusCompleted         = "Completed"
	StatusPending           = "Pending"
	StatusInitiated         = "Initiated"
	StatusRefunded          = "Refunded"
	StatusExpired           = "Expired"
	StatusUserCanceled      = "User canceled"
	StatusPartiallyRefunded = "Partially Refunded"
)

// CustomerInfo is optional payer information shown on the hosted page.
type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// InitiateRequest starts a hosted payment. Amount is in paisa.
type InitiateRequest struct {
	ReturnURL         string        `json:"return_url"`
	WebsiteURL        string        `json:"website_url"`
	Amount            int64         `json:"amount"`
	PurchaseOrderID   string        `json:"purchase_order_id"`
	PurchaseOrderName string        `json:"purchase_order_name"`
	CustomerInfo      *CustomerInfo `json:"customer_info,omitempty"`
}

type InitiateResponse struct {
	PaymentIndex string `json:"pidx"`
	PaymentURL   string `json:"payment_url"`
	ExpiresAt    string `json:"expires_at"`
	ExpiresIn    int    `json:"expires_in"`
}

// Expiry parses ExpiresAt. The zero time is returned when it is absent or malformed.
func (r *InitiateResponse) Expiry() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.ExpiresAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

type LookupResponse struct {
	PaymentIndex  string `json:"pidx"`
	TotalAmount   int64  `json:"total_amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Fee           int64  `json:"fee"`
	Refunded      bool   `json:"refunded"`
}

func (r *LookupResponse) Completed() bool {
	return r.Status == StatusCompleted
}

// APIError is returned when the gateway answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("khalti: unexpected status %d: %s", e.StatusCode, e.Body)
}

// ErrTimeout is returned when a call exceeds the client timeout or the context deadline.
var ErrTimeout = errors.New("khalti: request timed out")

// Client talks to the gateway over HTTP.
type Client struct {
	baseURL    *url.URL
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a client for baseURL, e.g. https://dev.khalti.com/api/v2.
func NewClient(baseURL, secretKey string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	if secretKey == "" {
		return nil, fmt.Errorf("gateway secret key is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Initiate creates a payment session and returns its index and hosted URL.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	var resp InitiateResponse
	if err := c.post(ctx, "initiate/", req, &resp); err != nil {
		return nil, err
	}
	if resp.PaymentIndex == "" || resp.PaymentURL == "" {
		return nil, fmt.Errorf("khalti: initiate response is missing pidx or payment_url")
	}
	return &resp, nil
}

// Lookup asks the gateway for the current state of a payment session.
func (c *Client) Lookup(ctx context.Context, paymentIndex string) (*LookupResponse, error) {
	var resp LookupResponse
	if err := c.post(ctx, "lookup/", map[string]string{"pidx": paymentIndex}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("khalti: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.JoinPath("epayment", endpoint).String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Key "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("khalti: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("khalti: read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("khalti: decode response: %w", err)
		}
		return nil
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
