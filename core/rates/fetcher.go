package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sisu-network/dfees/config"
	"github.com/sisu-network/dfees/network"
)

// Fetcher retrieves the live USD-per-unit rate of a currency. Implementations
// own their transport timeouts; the cache never cancels an in-flight fetch.
type Fetcher interface {
	FetchRate(ctx context.Context, currencyId string) (decimal.Decimal, error)
}

// httpFetcher queries GET <rateUrl>/<currencyId> -> {"rate": <number>}.
type httpFetcher struct {
	baseUrl     string
	apiKey      string
	networkHttp network.Http
}

func NewHttpFetcher(cfg config.Dfees, networkHttp network.Http) Fetcher {
	return &httpFetcher{
		baseUrl:     strings.TrimSuffix(cfg.RateUrl, "/"),
		apiKey:      cfg.RateApiKey,
		networkHttp: networkHttp,
	}
}

func (f *httpFetcher) FetchRate(ctx context.Context, currencyId string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s", f.baseUrl, currencyId)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	if f.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", f.apiKey))
	}

	data, err := f.networkHttp.Get(req)
	if err != nil {
		return decimal.Zero, err
	}

	// The rate is decoded as json.Number and parsed into a decimal so the
	// value never passes through a float64.
	type response struct {
		Rate json.Number `json:"rate"`
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	resp := &response{}
	if err := dec.Decode(resp); err != nil {
		return decimal.Zero, fmt.Errorf("malformed rate payload for %s: %w", currencyId, err)
	}
	if resp.Rate == "" {
		return decimal.Zero, fmt.Errorf("rate payload for %s has no rate field", currencyId)
	}

	rate, err := decimal.NewFromString(resp.Rate.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q for %s: %w", resp.Rate.String(), currencyId, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate %s for %s", rate, currencyId)
	}

	return rate, nil
}
