package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUpstreamUnavailable wraps every failure of the rate service.
var ErrUpstreamUnavailable = errors.New("currency: upstream unavailable")

// RateProvider returns how many units of `to` one unit of `from` buys.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to an exchangerate-api compatible service:
// GET {base}/{FROM} -> {"base":"FROM","rates":{"TO":1.23}}
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	url := fmt.Sprintf("%s/%s", c.baseURL, from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: create request: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: rate service returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
	}

	rate, ok := body.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate from %s to %s", ErrUpstreamUnavailable, from, to)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: invalid rate %s from %s to %s", ErrUpstreamUnavailable, rate, from, to)
	}

	c.logger.Debug("exchange rate fetched", "from", from, "to", to, "rate", rate.String())
	return rate, nil
}
