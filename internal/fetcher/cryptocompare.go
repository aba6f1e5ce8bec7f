package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crypto-signal-watch/internal/model"
	"crypto-signal-watch/internal/scoring"
)

const cryptocompareName = "cryptocompare"

// CryptoCompareOptions parameterise the news fetcher.
type CryptoCompareOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	MaxItems  int
}

// CryptoCompare fetches and scores news articles. Items are scored once at
// ingestion and are immutable afterwards.
type CryptoCompare struct {
	opts    CryptoCompareOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewCryptoCompare constructs the news fetcher.
func NewCryptoCompare(opts CryptoCompareOptions, logger zerolog.Logger) *CryptoCompare {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 10
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://min-api.cryptocompare.com"
	}

	return &CryptoCompare{
		opts:    opts,
		logger:  logger.With().Str("component", "news_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Name identifies the provider for rate limiting and health reporting.
func (c *CryptoCompare) Name() string { return cryptocompareName }

type cryptocompareArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Body        string `json:"body"`
	Categories  string `json:"categories"`
	PublishedOn int64  `json:"published_on"`
	SourceInfo  struct {
		Name string `json:"name"`
	} `json:"source_info"`
}

type cryptocompareResponse struct {
	Data []cryptocompareArticle `json:"Data"`
}

// FetchNews retrieves the latest articles for symbol and scores each one.
func (c *CryptoCompare) FetchNews(ctx context.Context, symbol string) ([]model.NewsItem, error) {
	params := url.Values{}
	params.Set("lang", "EN")
	params.Set("categories", strings.ToUpper(symbol))

	endpoint := fmt.Sprintf("%s/data/v2/news/?%s", c.baseURL, params.Encode())
	body, err := getJSON(ctx, c.client, endpoint, c.opts.UserAgent)
	if err != nil {
		return nil, err
	}

	var res cryptocompareResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: cryptocompare payload: %v", ErrUnavailable, err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("%w: cryptocompare returned no articles for %s", ErrUnavailable, symbol)
	}

	articles := res.Data
	if len(articles) > c.opts.MaxItems {
		articles = articles[:c.opts.MaxItems]
	}

	items := make([]model.NewsItem, 0, len(articles))
	for _, a := range articles {
		source := a.SourceInfo.Name
		if source == "" {
			source = "Unknown"
		}
		content := a.Body
		if len(content) > 500 {
			content = content[:500]
		}

		items = append(items, model.NewsItem{
			Headline:         a.Title,
			Source:           source,
			PublishedAt:      time.Unix(a.PublishedOn, 0).UTC(),
			URL:              a.URL,
			Content:          content,
			SentimentScore:   scoring.Sentiment(a.Title),
			RelevanceScore:   scoring.Relevance(a.Title, symbol),
			MentionedSymbols: []string{strings.ToUpper(symbol)},
			Categories:       strings.Split(a.Categories, "|"),
			Impact:           scoring.Impact(a.Title),
			Quality:          model.QualityReliable,
		})
	}

	c.logger.Debug().Str("symbol", strings.ToUpper(symbol)).Int("articles", len(items)).Msg("news fetched and scored")
	return items, nil
}

var _ NewsFetcher = (*CryptoCompare)(nil)
