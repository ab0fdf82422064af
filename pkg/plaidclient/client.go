/**
 * @description
 * This package provides a client for the Plaid financial-data aggregator.
 * It encapsulates the authenticated HTTP requests the sync jobs make to
 * fetch account balances and transaction windows for an access token.
 *
 * Key features:
 * - Manages the API base URL and client credentials.
 * - Typed request/response contracts mirroring Plaid's wire format.
 * - Decodes Plaid's structured error payload into *Error so callers can
 *   distinguish institution outages from actionable failures.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Monetary values as reported by Plaid.
 * - The service's internal domain package for the Date type.
 */
package plaidclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goldstone/sync-service/internal/domain"
)

// ErrorTypeInstitution is the error_type Plaid reports when the institution
// itself is down or degraded.
const ErrorTypeInstitution = "INSTITUTION_ERROR"

// Error is Plaid's structured error payload.
type Error struct {
	StatusCode      int    `json:"-"`
	ErrorType       string `json:"error_type"`
	ErrorCode       string `json:"error_code"`
	ErrorMessage    string `json:"error_message"`
	DisplayMessage  string `json:"display_message,omitempty"`
	SuggestedAction string `json:"suggested_action,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("plaid: %s/%s: %s", e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// IsInstitutionOutage reports whether the error is an institution-scoped
// failure with nothing actionable attached. These are expected transient
// outages; callers suppress operator notification for them.
func (e *Error) IsInstitutionOutage() bool {
	return e.ErrorType == ErrorTypeInstitution && e.SuggestedAction == ""
}

// AsError unwraps err into Plaid's structured payload when present.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Transaction is one transaction as reported by Plaid. Amounts are positive
// when money moves out of the account and negative when money moves in.
type Transaction struct {
	ID                   string          `json:"transaction_id"`
	AccountID            string          `json:"account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Date                 domain.Date     `json:"date"`
	Categories           []string        `json:"category"`
	CategoryID           string          `json:"category_id"`
	Pending              bool            `json:"pending"`
	PendingTransactionID string          `json:"pending_transaction_id,omitempty"`
	ISOCurrencyCode      string          `json:"iso_currency_code,omitempty"`
	Name                 string          `json:"name"`
}

// Balance holds an account's balance set. Available nets out pending holds
// and is not reported by every institution.
type Balance struct {
	Available       *decimal.Decimal `json:"available"`
	Current         decimal.Decimal  `json:"current"`
	Limit           *decimal.Decimal `json:"limit,omitempty"`
	ISOCurrencyCode string           `json:"iso_currency_code,omitempty"`
}

// Account is one sub-account exposed by an institution linkage.
type Account struct {
	AccountID    string  `json:"account_id"`
	Balances     Balance `json:"balances"`
	Mask         string  `json:"mask,omitempty"`
	Name         string  `json:"name,omitempty"`
	OfficialName string  `json:"official_name,omitempty"`
	Subtype      string  `json:"subtype,omitempty"`
	Type         string  `json:"type,omitempty"`
}

// Item identifies the institution linkage a response belongs to.
type Item struct {
	ItemID        string `json:"item_id"`
	InstitutionID string `json:"institution_id,omitempty"`
}

// GetTransactionsResponse is the payload of /transactions/get.
type GetTransactionsResponse struct {
	Accounts          []Account     `json:"accounts"`
	Transactions      []Transaction `json:"transactions"`
	Item              Item          `json:"item"`
	TotalTransactions uint32        `json:"total_transactions"`
	RequestID         string        `json:"request_id,omitempty"`
}

// GetBalancesResponse is the payload of /accounts/balance/get.
type GetBalancesResponse struct {
	Accounts  []Account `json:"accounts"`
	Item      Item      `json:"item"`
	RequestID string    `json:"request_id,omitempty"`
}

type getTransactionsRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type getBalancesRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

// Client is a client for the Plaid API.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

// NewClient creates a new Plaid API client.
func NewClient(baseURL, clientID, secret string) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetTransactions fetches the transactions of an access token within
// [startDate, endDate].
func (c *Client) GetTransactions(ctx context.Context, accessToken string, startDate, endDate domain.Date) (*GetTransactionsResponse, error) {
	req := getTransactionsRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   startDate.String(),
		EndDate:     endDate.String(),
	}

	var resp GetTransactionsResponse
	if err := c.do(ctx, "/transactions/get", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBalances fetches current balances for every account of an access token.
func (c *Client) GetBalances(ctx context.Context, accessToken string) (*GetBalancesResponse, error) {
	req := getBalancesRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
	}

	var resp GetBalancesResponse
	if err := c.do(ctx, "/accounts/balance/get", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do is a helper to make HTTP requests to the Plaid API.
func (c *Client) do(ctx context.Context, path string, body, target interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plaid request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read plaid response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		plaidErr := &Error{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, plaidErr); err != nil || plaidErr.ErrorType == "" {
			return fmt.Errorf("plaid returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return plaidErr
	}

	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to decode plaid response: %w", err)
		}
	}
	return nil
}
