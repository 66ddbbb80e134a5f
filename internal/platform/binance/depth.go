package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// DepthClient fetches order-book depth snapshots from the Binance REST API.
type DepthClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDepthClient creates a depth client for the given API root, e.g.
// "https://api.binance.com".
func NewDepthClient(baseURL string) *DepthClient {
	return &DepthClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetDepth fetches a depth snapshot for the given symbol. limit is the
// number of levels per side.
func (c *DepthClient) GetDepth(ctx context.Context, symbol string, limit int) (domain.BookSnapshot, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/depth?"+q.Encode(), nil)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("binance/depth: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("binance/depth: %w: %v", domain.ErrBookUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("binance/depth: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.BookSnapshot{}, fmt.Errorf("binance/depth: %w: HTTP %d: %s", domain.ErrBookUnavailable, resp.StatusCode, string(respBody))
	}

	var depth DepthResponse
	if err := json.Unmarshal(respBody, &depth); err != nil {
		return domain.BookSnapshot{}, fmt.Errorf("binance/depth: decode response: %w", err)
	}

	return depth.ToDomainSnapshot(symbol), nil
}
