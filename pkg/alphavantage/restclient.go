package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stockcache/internal/stock/model"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"
	// DefaultRatePerMinute matches the free tier.
	DefaultRatePerMinute = 5
)

// ErrSymbolNotFound is returned when Alpha Vantage has no daily series for a symbol.
var ErrSymbolNotFound = model.ErrSymbolNotFound

// APIError is a non-success answer from Alpha Vantage that is not a
// not-found signal (HTTP failure, throttling notice).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alphavantage error: %s (status: %d)", e.Message, e.StatusCode)
}

type RESTClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewRESTClient creates a client limited to ratePerMinute calls (0 disables limiting).
func NewRESTClient(baseURL, apiKey string, timeout time.Duration, ratePerMinute int) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), ratePerMinute)
	}
	return &RESTClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// Wait blocks until the call quota allows one more request. Callers invoke
// it before FetchDailySeries so that queueing for the quota is not charged
// against the deadline of the request itself.
func (c *RESTClient) Wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// FetchDailySeries calls TIME_SERIES_DAILY and returns the series date-descending.
// It does not consult the rate limiter; see Wait.
func (c *RESTClient) FetchDailySeries(ctx context.Context, symbol string, size model.SizeHint) (model.PriceHistory, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", string(size))
	params.Set("datatype", "json")
	params.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/query?" + params.Encode()

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Check HTTP status code
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	envelope, err := decodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if _, ok := envelope[errorKey]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	_, hasMeta := envelope[metadataKey]
	_, hasSeries := envelope[timeSeriesKey]
	if !hasMeta && !hasSeries {
		// throttling answers carry no data either, but are not a verdict on the symbol
		for _, k := range []string{noteKey, infoKey} {
			if raw, ok := envelope[k]; ok {
				var msg string
				_ = json.Unmarshal(raw, &msg)
				return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	var result DailySeriesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	history, err := ParseDailySeries(symbol, &result)
	if err != nil {
		return nil, fmt.Errorf("parse result: %w", err)
	}
	return history, nil
}
