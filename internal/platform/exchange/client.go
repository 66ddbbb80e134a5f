// Package exchange is the REST client for the prediction-exchange order API.
// It handles order placement, status queries, and market lookups, with HMAC
// authentication and client-side rate limiting.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/updownbot/internal/crypto"
	"github.com/alanyoungcy/updownbot/internal/domain"
)

// Client is the REST client for the prediction-exchange API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *crypto.HMACAuth
	limiter    *rate.Limiter
}

// NewClient creates a new exchange API client.
//
// baseURL is the API root, e.g. "https://api.updown.exchange/v1".
// auth carries the HMAC credentials applied to every request.
// ratePerSec/burst bound the outbound request rate.
func NewClient(baseURL string, auth *crypto.HMACAuth, ratePerSec float64, burst int) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		auth:    auth,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// PostOrder submits an order and returns the exchange's result.
func (c *Client) PostOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if err := req.Validate(); err != nil {
		return domain.OrderResult{}, fmt.Errorf("exchange: post order: %w", err)
	}

	body := APIOrderRequest{
		MarketID:  req.MarketID,
		Side:      string(req.Side),
		Outcome:   string(req.Outcome),
		Quantity:  req.Quantity,
		OrderType: string(req.OrderType),
	}
	if req.OrderType == domain.OrderTypeLimit {
		body.Price = req.Price
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/orders", body)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("exchange: post order: %w", err)
	}

	var apiResult APIOrderResult
	if err := json.Unmarshal(respBody, &apiResult); err != nil {
		return domain.OrderResult{}, fmt.Errorf("exchange: decode order result: %w", err)
	}

	return apiResult.ToDomainResult(), nil
}

// GetOrderStatus retrieves the current state of an order by ID.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderState, error) {
	path := fmt.Sprintf("/orders/%s", orderID)

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.OrderState{}, fmt.Errorf("exchange: get order %s: %w", orderID, err)
	}

	var apiState APIOrderState
	if err := json.Unmarshal(respBody, &apiState); err != nil {
		return domain.OrderState{}, fmt.Errorf("exchange: decode order state: %w", err)
	}

	return apiState.ToDomainState(), nil
}

// GetMarket retrieves a market snapshot by ID.
func (c *Client) GetMarket(ctx context.Context, marketID string) (domain.MarketData, error) {
	path := fmt.Sprintf("/markets/%s", marketID)

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.MarketData{}, fmt.Errorf("exchange: get market %s: %w", marketID, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(respBody, &apiMarket); err != nil {
		return domain.MarketData{}, fmt.Errorf("exchange: decode market: %w", err)
	}

	return domain.MarketData{
		MarketID:  apiMarket.MarketID,
		Question:  apiMarket.Question,
		YesPrice:  apiMarket.YesPrice,
		NoPrice:   apiMarket.NoPrice,
		YesVolume: apiMarket.YesVolume,
		NoVolume:  apiMarket.NoVolume,
		Liquidity: apiMarket.Liquidity,
		IsActive:  apiMarket.Active,
		IsClosed:  apiMarket.Closed,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doAuthenticatedRequest builds, signs (HMAC), sends, and reads an HTTP
// request against the exchange API. It returns the raw response body.
func (c *Client) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Apply HMAC authentication headers.
	if c.auth != nil {
		for k, v := range c.auth.Headers(method, path, bodyStr) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors so callers can
// drive differentiated retry policy: 429 and 5xx are retryable, other 4xx
// are permanent.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrServer, statusCode, bodyStr)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrInvalidOrder, statusCode, bodyStr)
	}
}
