// Package client talks to the investment HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"investpulse/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Msg    string `json:"error"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%d %s (%s): %s", e.Status, e.Reason, e.Field, e.Msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Msg)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/investment",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Securities(ctx context.Context) ([]models.Security, error) {
	var out []models.Security
	err := c.do(ctx, http.MethodGet, "/securities", nil, &out)
	return out, err
}

// SetPrice updates a security addressed by id or ticker.
func (c *Client) SetPrice(ctx context.Context, ref string, price decimal.Decimal) (models.Security, error) {
	var out models.Security
	body := map[string]decimal.Decimal{"currentPrice": price}
	err := c.do(ctx, http.MethodPut, "/securities/"+url.PathEscape(ref)+"/price", body, &out)
	return out, err
}

func (c *Client) Operations(ctx context.Context) ([]models.EnrichedOperation, error) {
	var out []models.EnrichedOperation
	err := c.do(ctx, http.MethodGet, "/operations", nil, &out)
	return out, err
}

func (c *Client) Calculate(ctx context.Context, d models.OperationDraft) (models.Calculation, error) {
	var out models.Calculation
	err := c.do(ctx, http.MethodPost, "/calculate", d, &out)
	return out, err
}

func (c *Client) AddOperation(ctx context.Context, d models.OperationDraft) (models.AddResult, error) {
	var out models.AddResult
	err := c.do(ctx, http.MethodPost, "/operation", d, &out)
	return out, err
}

func (c *Client) ActivatedTriggers(ctx context.Context) ([]models.TriggerAlert, error) {
	var out []models.TriggerAlert
	err := c.do(ctx, http.MethodGet, "/check-triggers", nil, &out)
	return out, err
}

func (c *Client) PendingTriggers(ctx context.Context) ([]models.TriggerAlert, error) {
	var out []models.TriggerAlert
	err := c.do(ctx, http.MethodGet, "/pending-triggers", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Msg == "" {
			apiErr.Msg = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
