package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

var ErrNoQuote = errors.New("no quote available")

// Provider fetches last prices from a Yahoo-compatible chart endpoint and
// caches them per ticker. A non-positive ttl disables the cache.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	quotes     *cache.Cache
}

func NewProvider(baseURL string, ttl time.Duration) *Provider {
	p := &Provider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	// go-cache reads a zero default expiration as "never expire".
	if ttl > 0 {
		p.quotes = cache.New(ttl, 2*ttl)
	}
	return p
}

func (p *Provider) Quote(ctx context.Context, ticker string) (decimal.Decimal, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if p.quotes != nil {
		if cached, ok := p.quotes.Get(symbol); ok {
			return cached.(decimal.Decimal), nil
		}
	}

	price, err := p.fetchChartPrice(ctx, symbol)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if p.quotes != nil {
		p.quotes.SetDefault(symbol, price)
	}
	return price, nil
}

func (p *Provider) fetchChartPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", p.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("create quote request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Decimal{}, fmt.Errorf("quote %s status %d: %s", symbol, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string          `json:"symbol"`
					RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode quote %s: %w", symbol, err)
	}

	if len(payload.Chart.Result) == 0 {
		return decimal.Decimal{}, fmt.Errorf("quote %s: %w", symbol, ErrNoQuote)
	}
	price := payload.Chart.Result[0].Meta.RegularMarketPrice
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("quote %s: non-positive price %s: %w", symbol, price, ErrNoQuote)
	}
	return price, nil
}
