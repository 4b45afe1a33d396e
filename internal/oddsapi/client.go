package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to The Odds API v4 for sports and fixture odds.
// API docs: https://the-odds-api.com/liveapi/guides/v4/
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) fetchRaw(ctx context.Context, path string) ([]map[string]interface{}, error) {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("odds api error: %s", string(body))
	}

	var result []map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// GetSports lists the sports the upstream currently offers.
func (c *Client) GetSports(ctx context.Context) ([]map[string]interface{}, error) {
	path := fmt.Sprintf("/sports?apiKey=%s", c.apiKey)
	return c.fetchRaw(ctx, path)
}

// GetOdds returns upcoming fixtures with bookmaker odds for one sport key
// (e.g. soccer_epl, basketball_nba).
func (c *Client) GetOdds(ctx context.Context, sportKey, regions, markets string) ([]map[string]interface{}, error) {
	if regions == "" {
		regions = "eu"
	}
	if markets == "" {
		markets = "h2h"
	}

	values := url.Values{}
	values.Set("apiKey", c.apiKey)
	values.Set("regions", regions)
	values.Set("markets", markets)
	values.Set("oddsFormat", "decimal")

	path := fmt.Sprintf("/sports/%s/odds?%s", sportKey, values.Encode())
	return c.fetchRaw(ctx, path)
}
