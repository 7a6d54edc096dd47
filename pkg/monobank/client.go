/**
 * @description
 * This package provides a client for the Monobank personal statement API. It
 * encapsulates the logic for making authenticated HTTP requests, mapping the
 * provider's camelCase response fields onto Go types, and surfacing provider
 * errors as typed values.
 *
 * @notes
 * - The provider enforces a global limit of one statement request per minute
 *   per token; callers are expected to pace their own requests.
 * - Statement window bounds are inclusive on the provider side. The upper
 *   bound is shifted back one second so a window never refetches the
 *   statement sitting exactly on its boundary.
 */
package monobank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Monobank API endpoint.
const DefaultBaseURL = "https://api.monobank.ua"

// Client is a client for the Monobank API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Monobank API client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Statement is one transaction record as returned by the provider's
// statement endpoint.
type Statement struct {
	ID              string `json:"id"`
	Time            int64  `json:"time"`
	Description     string `json:"description"`
	Comment         string `json:"comment,omitempty"`
	MCC             int    `json:"mcc"`
	OriginalMCC     int    `json:"originalMcc"`
	Hold            bool   `json:"hold"`
	Amount          int64  `json:"amount"`
	OperationAmount int64  `json:"operationAmount"`
	CurrencyCode    int    `json:"currencyCode"`
	CommissionRate  int64  `json:"commissionRate"`
	CashbackAmount  int64  `json:"cashbackAmount"`
	Balance         int64  `json:"balance"`
	ReceiptID       string `json:"receiptId,omitempty"`
	CounterEDRPOU   string `json:"counterEdrpou,omitempty"`
	CounterIBAN     string `json:"counterIban,omitempty"`
}

// ErrorResponse represents an error returned by the Monobank API.
type ErrorResponse struct {
	StatusCode       int    `json:"-"`
	ErrorDescription string `json:"errorDescription"`
}

func (e *ErrorResponse) Error() string {
	if e.ErrorDescription != "" {
		return fmt.Sprintf("monobank api error (status %d): %s", e.StatusCode, e.ErrorDescription)
	}
	return fmt.Sprintf("monobank api error (status %d)", e.StatusCode)
}

// IsRateLimited reports whether the provider rejected the request for
// exceeding its one-request-per-minute limit.
func (e *ErrorResponse) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// ListStatements fetches all statements for an account whose time lies in
// [from, to). The provider bounds window width at 31 days + 1 hour, so
// windows of one month or less always fit in a single request.
func (c *Client) ListStatements(ctx context.Context, token, accountID string, from, to time.Time) ([]Statement, error) {
	url := fmt.Sprintf("%s/personal/statement/%s/%d/%d", c.BaseURL, accountID, from.Unix(), to.Unix()-1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create statement request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Token", token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &ErrorResponse{StatusCode: resp.StatusCode}
		// The error body is best-effort; the status code alone is enough
		// to classify the failure.
		_ = json.Unmarshal(body, apiErr)
		return nil, apiErr
	}

	var statements []Statement
	if err := json.Unmarshal(body, &statements); err != nil {
		return nil, fmt.Errorf("failed to decode statement response: %w", err)
	}

	return statements, nil
}
