package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/portfolio-engine/internal/circuitbreaker"
	apperrors "github.com/portfolio-engine/internal/errors"
	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/retry"
	"github.com/portfolio-engine/internal/timeseries"
)

// Client fetches daily close prices from the upstream market data API.
// All requests pass through a shared rate limiter and a circuit breaker,
// so a misbehaving upstream cannot stall a whole computation run.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.Breaker
	retry   *retry.Config
	log     *logging.Logger
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Logger            *logging.Logger
}

func NewClient(opts ClientOptions) *Client {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(logging.LevelInfo, logging.FormatText)
	}
	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		breaker: circuitbreaker.New(5, 30*time.Second),
		retry:   retry.DefaultConfig(),
		log:     opts.Logger.WithField("component", "marketdata_client"),
	}
}

// dailyCloseResponse is the wire shape of the upstream daily history endpoint.
type dailyCloseResponse struct {
	Symbol string `json:"symbol"`
	Prices []struct {
		Date  string `json:"date"`
		Close string `json:"close"`
	} `json:"prices"`
}

// DailyCloses fetches closing prices for symbol over [start, end] inclusive.
// Days where the upstream has no quote (weekends, holidays) are simply absent
// from the returned series.
func (c *Client) DailyCloses(ctx context.Context, symbol string, start, end timeseries.Date) (*timeseries.Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", start.String())
	q.Set("to", end.String())
	q.Set("apikey", c.apiKey)

	endpoint := fmt.Sprintf("%s/v1/daily?%s", c.baseURL, q.Encode())

	var body dailyCloseResponse
	fn := func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.breaker.Execute(func() error {
			return c.fetch(ctx, endpoint, &body)
		})
	}
	ctx = logging.WithLogger(ctx, c.log.WithField("symbol", symbol))
	if err := retry.Do(ctx, c.retry, fn); err != nil {
		return nil, apperrors.NewSyncFailure(symbol, err)
	}

	series := timeseries.NewSeries()
	for _, p := range body.Prices {
		day, err := timeseries.ParseDate(p.Date)
		if err != nil {
			c.log.WithError(err).WithField("date", p.Date).Warn("skipping malformed date from upstream")
			continue
		}
		close, err := decimal.NewFromString(p.Close)
		if err != nil {
			c.log.WithError(err).WithField("date", p.Date).Warn("skipping malformed price from upstream")
			continue
		}
		series.Append(day, close)
	}
	return series, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for diagnostics but never log the URL,
		// which carries the API key.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(snippet))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
