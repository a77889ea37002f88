// Package eccc fetches bulk daily climate CSVs from the Environment and
// Climate Change Canada download endpoint.
package eccc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-mirror/internal/domain"
)

// DefaultBaseURL is the ECCC bulk data endpoint.
const DefaultBaseURL = "https://climate.weather.gc.ca/climate_data/bulk_data_e.html"

// Client downloads one station-year CSV per call. Each fetch worker owns its
// own Client so connection reuse never needs locking on the hot path.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a transport handle with the given request timeout.
// An empty baseURL selects the production ECCC endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
	}
}

// FetchYear downloads the daily CSV for one station-year. The query shape is
// fixed by the ECCC endpoint: timeframe=2 selects daily data and Month/Day
// are ignored for that timeframe but required by the form.
func (c *Client) FetchYear(ctx context.Context, stationID, year int) ([]byte, error) {
	params := url.Values{
		"format":    {"csv"},
		"stationID": {strconv.Itoa(stationID)},
		"Year":      {strconv.Itoa(year)},
		"Month":     {"1"},
		"Day":       {"1"},
		"timeframe": {"2"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: station %d year %d: status %d", domain.ErrTransport, stationID, year, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	return body, nil
}

// classify maps a transport-level error onto the run's failure taxonomy so
// the report can distinguish timeouts from connection failures.
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}
