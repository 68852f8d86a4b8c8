package formance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/config"
)

// ErrConflict is returned when a transaction reference was already committed.
var ErrConflict = errors.New("formance transaction already exists")

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	ledgerName string
	currency   string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    strings.TrimRight(cfg.FormanceAPIURL, "/"),
		apiKey:     cfg.FormanceAPIKey,
		ledgerName: cfg.FormanceLedgerName,
		currency:   cfg.FormanceCurrency,
	}
}

// FormanceError represents an error response from Formance API
type FormanceError struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

func (e FormanceError) Error() string {
	return fmt.Sprintf("formance error %s: %s", e.Code, e.Message)
}

func (e FormanceError) Is(target error) bool {
	return target == ErrConflict && e.Code == "CONFLICT"
}

// CheckLedger verifies the configured ledger exists and is reachable.
func (c *Client) CheckLedger(ctx context.Context) error {
	url := fmt.Sprintf("%s/v2/%s/_info", c.baseURL, c.ledgerName)

	if err := c.makeRequest(ctx, http.MethodGet, url, nil, nil); err != nil {
		return fmt.Errorf("ledger %s doesn't exist or is not accessible: %w", c.ledgerName, err)
	}

	slog.Info("Formance ledger exists and is accessible", "ledger", c.ledgerName, "url", c.baseURL)
	return nil
}

// GetBalance returns the account balance in the configured currency.
func (c *Client) GetBalance(ctx context.Context, account string) (int64, error) {
	url := fmt.Sprintf("%s/v2/%s/accounts/%s?expand=volumes", c.baseURL, c.ledgerName, account)

	var response struct {
		Data struct {
			Address string `json:"address"`
			Volumes map[string]struct {
				Input   int64 `json:"input"`
				Output  int64 `json:"output"`
				Balance int64 `json:"balance"`
			} `json:"volumes"`
		} `json:"data"`
	}

	if err := c.makeRequest(ctx, http.MethodGet, url, nil, &response); err != nil {
		return 0, fmt.Errorf("failed to get balance from Formance: %w", err)
	}

	if volumeData, exists := response.Data.Volumes[c.currency]; exists {
		return volumeData.Balance, nil
	}
	return 0, nil
}

type PostingSimple struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Amount      int64  `json:"amount"`
	Asset       string `json:"asset"`
}

// TransactionRequest represents a transaction request to Formance
type TransactionRequest struct {
	Postings  []PostingSimple   `json:"postings"`
	Reference string            `json:"reference,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// TransactionResponse represents a transaction response from Formance v2 API
type TransactionResponse struct {
	Data struct {
		ID       int64             `json:"id"`
		Postings []PostingSimple   `json:"postings"`
		Metadata map[string]string `json:"metadata"`
		Date     string            `json:"timestamp"`
	} `json:"data"`
}

// CreateTransaction commits postings under reference. A repeated reference yields ErrConflict.
func (c *Client) CreateTransaction(ctx context.Context, reference string, postings []PostingSimple, metadata map[string]string) (string, error) {
	url := fmt.Sprintf("%s/v2/%s/transactions", c.baseURL, c.ledgerName)

	reqBody := TransactionRequest{
		Postings:  postings,
		Reference: reference,
		Metadata:  metadata,
	}

	var response TransactionResponse
	if err := c.makeRequest(ctx, http.MethodPost, url, reqBody, &response); err != nil {
		return "", fmt.Errorf("failed to create transaction in Formance: %w", err)
	}

	txID := response.Data.ID
	slog.Debug("Created transaction in Formance", "txid", txID, "reference", reference, "postings", len(postings))
	return fmt.Sprintf("%d", txID), nil
}

// makeRequest is a helper method to make HTTP requests to Formance API
func (c *Client) makeRequest(ctx context.Context, method, url string, body interface{}, response interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var formanceErr FormanceError
		if err := json.Unmarshal(respBody, &formanceErr); err != nil || formanceErr.Code == "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return formanceErr
	}

	if response != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, response); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
