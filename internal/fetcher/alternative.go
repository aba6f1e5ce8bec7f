package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-watch/internal/model"
)

const alternativeName = "alternative"

// AlternativeOptions parameterise the Fear & Greed index fetcher.
type AlternativeOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Alternative fetches the Fear & Greed index from alternative.me.
type Alternative struct {
	opts    AlternativeOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewAlternative constructs the sentiment fetcher.
func NewAlternative(opts AlternativeOptions, logger zerolog.Logger) *Alternative {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.alternative.me"
	}

	return &Alternative{
		opts:    opts,
		logger:  logger.With().Str("component", "sentiment_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Name identifies the provider for rate limiting and health reporting.
func (a *Alternative) Name() string { return alternativeName }

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// FetchSentiment retrieves the current Fear & Greed reading.
func (a *Alternative) FetchSentiment(ctx context.Context) (*model.MarketSentiment, error) {
	endpoint := a.baseURL + "/fng/"
	body, err := getJSON(ctx, a.client, endpoint, a.opts.UserAgent)
	if err != nil {
		return nil, err
	}

	var res fngResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: fear&greed payload: %v", ErrUnavailable, err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("%w: fear&greed returned no data", ErrUnavailable)
	}

	index, err := strconv.Atoi(res.Data[0].Value)
	if err != nil {
		return nil, fmt.Errorf("%w: fear&greed value %q: %v", ErrUnavailable, res.Data[0].Value, err)
	}

	sentiment := &model.MarketSentiment{
		Timestamp:      time.Now().UTC(),
		FearGreedIndex: index,
		FearGreedLabel: res.Data[0].Classification,
		Source:         "alternative.me",
		Quality:        model.QualityReliable,
	}
	sentiment.ClampIndex()

	a.logger.Debug().Int("fear_greed", sentiment.FearGreedIndex).Str("label", sentiment.FearGreedLabel).Msg("sentiment fetched")
	return sentiment, nil
}

var _ SentimentFetcher = (*Alternative)(nil)
