package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-signal-watch/internal/model"
)

const coingeckoName = "coingecko"

// symbolToID maps ticker symbols onto CoinGecko coin identifiers. Unknown
// symbols fall back to their lower-cased form.
var symbolToID = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
}

// CoinGeckoOptions parameterise the CoinGecko fetcher.
type CoinGeckoOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// CoinGecko fetches market snapshots and daily close history. It serves as
// the secondary market-data provider and the sole history source.
type CoinGecko struct {
	opts    CoinGeckoOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewCoinGecko constructs a CoinGecko fetcher.
func NewCoinGecko(opts CoinGeckoOptions, logger zerolog.Logger) *CoinGecko {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	return &CoinGecko{
		opts:    opts,
		logger:  logger.With().Str("component", "coingecko_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Name identifies the provider for rate limiting and health reporting.
func (c *CoinGecko) Name() string { return coingeckoName }

// CoinID resolves a ticker symbol to the CoinGecko identifier.
func CoinID(symbol string) string {
	if id, ok := symbolToID[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

type coingeckoMarket struct {
	CurrentPrice      float64  `json:"current_price"`
	TotalVolume       float64  `json:"total_volume"`
	MarketCap         float64  `json:"market_cap"`
	High24h           float64  `json:"high_24h"`
	Low24h            float64  `json:"low_24h"`
	Change24hPct      float64  `json:"price_change_percentage_24h"`
	Change7dPct       *float64 `json:"price_change_percentage_7d_in_currency"`
	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
}

// FetchMarketData retrieves the current market snapshot for symbol.
func (c *CoinGecko) FetchMarketData(ctx context.Context, symbol string) (*model.MarketData, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("ids", CoinID(symbol))
	params.Set("order", "market_cap_desc")
	params.Set("sparkline", "false")

	endpoint := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, params.Encode())
	body, err := getJSON(ctx, c.client, endpoint, c.opts.UserAgent)
	if err != nil {
		return nil, err
	}

	var coins []coingeckoMarket
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("%w: coingecko payload: %v", ErrUnavailable, err)
	}
	if len(coins) == 0 {
		return nil, fmt.Errorf("%w: coingecko returned no coins for %s", ErrUnavailable, symbol)
	}

	coin := coins[0]
	price := decimal.NewFromFloat(coin.CurrentPrice)

	data := &model.MarketData{
		Symbol:    strings.ToUpper(symbol),
		Timestamp: time.Now().UTC(),
		Price:     price,
		Volume24h: decimal.NewFromFloat(coin.TotalVolume),
		MarketCap: decimal.NewFromFloat(coin.MarketCap),
		Open:      price, // this endpoint carries no OHLC
		High:      decimal.NewFromFloat(coin.High24h),
		Low:       decimal.NewFromFloat(coin.Low24h),
		Close:     price,
		Change24h: coin.Change24hPct,
		Change7d:  coin.Change7dPct,
		Source:    coingeckoName,
		Quality:   model.QualityReliable,
	}
	if coin.CirculatingSupply != nil {
		v := decimal.NewFromFloat(*coin.CirculatingSupply)
		data.CirculatingSupply = &v
	}
	if coin.TotalSupply != nil {
		v := decimal.NewFromFloat(*coin.TotalSupply)
		data.TotalSupply = &v
	}

	c.logger.Debug().Str("symbol", data.Symbol).Str("price", data.Price.String()).Msg("coingecko market data fetched")
	return data, nil
}

type coingeckoChart struct {
	Prices [][2]float64 `json:"prices"`
}

// FetchDailyCloses retrieves up to days of daily closes, oldest first.
func (c *CoinGecko) FetchDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	if days <= 0 {
		days = 200
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", fmt.Sprintf("%d", days))
	params.Set("interval", "daily")

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, CoinID(symbol), params.Encode())
	body, err := getJSON(ctx, c.client, endpoint, c.opts.UserAgent)
	if err != nil {
		return nil, err
	}

	var chart coingeckoChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: coingecko chart payload: %v", ErrUnavailable, err)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("%w: coingecko chart empty for %s", ErrUnavailable, symbol)
	}

	closes := make([]float64, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		closes = append(closes, p[1])
	}
	return closes, nil
}

var (
	_ MarketDataFetcher = (*CoinGecko)(nil)
	_ HistoryFetcher    = (*CoinGecko)(nil)
)
