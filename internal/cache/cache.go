package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Category names one of the independently-expiring record classes.
type Category string

const (
	CategoryMarket    Category = "market_data"
	CategoryNews      Category = "news"
	CategorySentiment Category = "sentiment"
)

// Windows configure the freshness window per category. A record older than
// its window is never served.
type Windows struct {
	Market    time.Duration `mapstructure:"market"`
	News      time.Duration `mapstructure:"news"`
	Sentiment time.Duration `mapstructure:"sentiment"`
}

// DefaultWindows returns the documented per-category windows.
func DefaultWindows() Windows {
	return Windows{Market: 5 * time.Minute, News: 30 * time.Minute, Sentiment: time.Hour}
}

// Store is the category-keyed TTL cache shielding provider outages. Entries
// are replaced wholesale on every successful fetch, never merged. The cache
// is consulted only as a fallback; a fresh live fetch always supersedes it.
type Store struct {
	categories map[Category]*gocache.Cache
}

// New constructs a Store with one expiring cache per category. Non-positive
// windows fall back to the defaults.
func New(w Windows) *Store {
	def := DefaultWindows()
	if w.Market <= 0 {
		w.Market = def.Market
	}
	if w.News <= 0 {
		w.News = def.News
	}
	if w.Sentiment <= 0 {
		w.Sentiment = def.Sentiment
	}
	newCache := func(ttl time.Duration) *gocache.Cache {
		return gocache.New(ttl, ttl)
	}
	return &Store{categories: map[Category]*gocache.Cache{
		CategoryMarket:    newCache(w.Market),
		CategoryNews:      newCache(w.News),
		CategorySentiment: newCache(w.Sentiment),
	}}
}

// Put replaces the entry for (category, key).
func (s *Store) Put(cat Category, key string, record any) {
	if c, ok := s.categories[cat]; ok {
		c.SetDefault(key, record)
	}
}

// Get returns the entry for (category, key) if it is still within its
// freshness window; expired entries report a miss.
func (s *Store) Get(cat Category, key string) (any, bool) {
	c, ok := s.categories[cat]
	if !ok {
		return nil, false
	}
	return c.Get(key)
}

// Len reports the number of live entries per category, for health output.
func (s *Store) Len() map[Category]int {
	out := make(map[Category]int, len(s.categories))
	for cat, c := range s.categories {
		out[cat] = c.ItemCount()
	}
	return out
}
