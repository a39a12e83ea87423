// Package rates proxies an external exchange-rate service. The contract is
// deliberately forgiving: given a base currency code it always returns a
// code→multiplier mapping, falling back to a fixed demo table when the
// upstream times out, errors, or answers garbage. Callers never see an
// upstream failure.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spendlog/internal/cache"
	applog "spendlog/internal/log"
)

// DefaultBase is used when the caller supplies no base currency.
const DefaultBase = "CNY"

// symbols is the fixed set of currencies the proxy asks the upstream for.
const symbols = "USD,EUR,GBP,JPY,CNY"

type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *cache.LRUCache[map[string]float64]
}

// New builds a rates client against the given upstream URL. Every upstream
// call is bounded by timeout; fetched mappings are cached per base currency
// for cacheTTL.
func New(baseURL string, timeout, cacheTTL time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      cache.NewLRUCache[map[string]float64](16, cacheTTL),
	}
}

// Rates returns currency multipliers relative to base. It never fails: any
// upstream problem degrades to the fixed fallback mapping. The fallback is
// not cached, so a recovered upstream is picked up on the next call.
func (c *Client) Rates(ctx context.Context, base string) map[string]float64 {
	base = normalizeBase(base)

	if cached, ok := c.cache.Get(base); ok {
		return cached
	}

	fetched, err := c.fetch(ctx, base)
	if err != nil {
		slog.WarnContext(ctx, "Rate fetch failed, using fallback",
			applog.FieldBase, base, applog.FieldError, err)
		return Fallback()
	}

	c.cache.Set(base, fetched)
	return fetched
}

// CleanExpired sweeps the rate cache; it implements cache.Cleaner.
func (c *Client) CleanExpired() int {
	return c.cache.CleanExpired()
}

func (c *Client) fetch(ctx context.Context, base string) (map[string]float64, error) {
	q := url.Values{}
	q.Set("base", base)
	q.Set("symbols", symbols)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates upstream returned %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates response carried no mapping")
	}
	return body.Rates, nil
}

// Fallback returns the fixed demo mapping used when the upstream is
// unreachable. Values are multipliers relative to CNY and are not live.
func Fallback() map[string]float64 {
	return map[string]float64{
		"USD": 0.137,
		"EUR": 0.129,
		"GBP": 0.109,
		"JPY": 20.0,
		"CNY": 1,
	}
}

func normalizeBase(base string) string {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return DefaultBase
	}
	return base
}
