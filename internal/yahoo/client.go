// Package yahoo provides the history provider: a client for the Yahoo
// Finance v8 chart API returning daily OHLC bars for a ticker.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"volband/internal/models"
)

// Client provides access to the Yahoo Finance chart API.
type Client struct {
	baseURL    string
	period     string
	interval   string
	httpClient *http.Client

	maxRetries     int
	retryDelayBase time.Duration
}

// ClientConfig tunes retry behavior.
type ClientConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
}

// chartResponse mirrors the subset of the v8 chart payload this client
// consumes.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// Price arrays use pointers: the API reports missing bars as nulls.
type chartQuote struct {
	Open  []*float64 `json:"open"`
	High  []*float64 `json:"high"`
	Low   []*float64 `json:"low"`
	Close []*float64 `json:"close"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// NewClient creates a new chart API client. Period and interval are
// Yahoo-style range strings ("30y", "1d") shared by all fetches in a run.
func NewClient(baseURL, period, interval string, timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &Client{
		baseURL:  baseURL,
		period:   period,
		interval: interval,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// Fetch retrieves the ticker's OHLC history. The returned series is ordered
// ascending by timestamp with duplicates dropped; bars the API reports as
// null are skipped and negative prices are clamped to zero. An empty
// history is not an error here: the calculator decides what missing data
// means.
func (c *Client) Fetch(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	u, err := url.Parse(c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("range", c.period)
	q.Set("interval", c.interval)
	q.Set("includeAdjustedClose", "false")
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request for %s returned status %d", ticker, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", ticker, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s (%s)",
			ticker, payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", ticker)
	}

	return barsFromResult(payload.Chart.Result[0]), nil
}

// barsFromResult pairs the timestamp array with the quote arrays and
// enforces the series contract: ascending order, unique timestamps.
func barsFromResult(result chartResult) []models.PriceBar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open := at(quote.Open, i)
		high := at(quote.High, i)
		low := at(quote.Low, i)
		clos := at(quote.Close, i)
		if open == nil || high == nil || low == nil || clos == nil {
			continue
		}
		bars = append(bars, models.PriceBar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      clampNegative(*open),
			High:      clampNegative(*high),
			Low:       clampNegative(*low),
			Close:     clampNegative(*clos),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	// Keep the last bar for a duplicated timestamp; intraday updates
	// reissue the current day's bar.
	deduped := bars[:0]
	for i := range bars {
		if i+1 < len(bars) && bars[i].Timestamp.Equal(bars[i+1].Timestamp) {
			continue
		}
		deduped = append(deduped, bars[i])
	}
	return deduped
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func clampNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// doRequest performs an HTTP request with linear-backoff retry on transport
// errors and server errors.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "volband/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i+1) * c.retryDelayBase):
			}
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i+1) * c.retryDelayBase):
			}
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
