package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-signal-watch/internal/model"
)

const polygonName = "polygon"

// PolygonOptions parameterise the Polygon.io fetcher.
type PolygonOptions struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Polygon fetches previous-day aggregates from Polygon.io.
type Polygon struct {
	opts    PolygonOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewPolygon constructs a Polygon market-data fetcher.
func NewPolygon(opts PolygonOptions, logger zerolog.Logger) *Polygon {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.polygon.io"
	}

	return &Polygon{
		opts:    opts,
		logger:  logger.With().Str("component", "polygon_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Name identifies the provider for rate limiting and health reporting.
func (p *Polygon) Name() string { return polygonName }

type polygonAggregate struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type polygonResponse struct {
	Status  string             `json:"status"`
	Results []polygonAggregate `json:"results"`
}

// FetchMarketData retrieves the previous-day aggregate for symbol.
func (p *Polygon) FetchMarketData(ctx context.Context, symbol string) (*model.MarketData, error) {
	if p.opts.APIKey == "" {
		return nil, errors.New("polygon api key not configured")
	}

	ticker := symbol
	if !strings.HasPrefix(ticker, "X:") {
		ticker = fmt.Sprintf("X:%sUSD", strings.ToUpper(symbol))
	}

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?apiKey=%s", p.baseURL, ticker, p.opts.APIKey)
	body, err := getJSON(ctx, p.client, endpoint, p.opts.UserAgent)
	if err != nil {
		return nil, err
	}

	var res polygonResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: polygon payload: %v", ErrUnavailable, err)
	}
	if res.Status != "OK" || len(res.Results) == 0 {
		return nil, fmt.Errorf("%w: polygon status=%s results=%d", ErrUnavailable, res.Status, len(res.Results))
	}

	agg := res.Results[0]
	if agg.Open == 0 {
		return nil, fmt.Errorf("%w: polygon returned zero open price", ErrUnavailable)
	}

	data := &model.MarketData{
		Symbol:    strings.ToUpper(symbol),
		Timestamp: time.Now().UTC(),
		Price:     decimal.NewFromFloat(agg.Close),
		Volume24h: decimal.NewFromFloat(agg.Volume),
		MarketCap: decimal.Zero, // polygon aggregates carry no market cap
		Open:      decimal.NewFromFloat(agg.Open),
		High:      decimal.NewFromFloat(agg.High),
		Low:       decimal.NewFromFloat(agg.Low),
		Close:     decimal.NewFromFloat(agg.Close),
		Change24h: (agg.Close - agg.Open) / agg.Open * 100,
		Source:    polygonName,
		Quality:   model.QualityVerified,
	}

	p.logger.Debug().Str("symbol", data.Symbol).Str("price", data.Price.String()).Msg("polygon market data fetched")
	return data, nil
}

// getJSON issues one GET and returns the response body, mapping transport
// and status failures onto ErrUnavailable.
func getJSON(ctx context.Context, client *http.Client, endpoint, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "signalwatch/1.0")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

var _ MarketDataFetcher = (*Polygon)(nil)
