package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"crypto-signal-watch/internal/cache"
	"crypto-signal-watch/internal/fusion"
	"crypto-signal-watch/internal/logging"
	"crypto-signal-watch/internal/ratelimit"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Symbols   []string        `mapstructure:"symbols"`
	Providers ProvidersConfig `mapstructure:"providers"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     cache.Windows   `mapstructure:"cache"`
	Fusion    FusionConfig    `mapstructure:"fusion"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs collection cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToCycle    bool          `mapstructure:"align_to_cycle"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// ProviderConfig is the per-upstream connection surface.
type ProviderConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// ProvidersConfig names the four upstream sources.
type ProvidersConfig struct {
	Polygon       ProviderConfig `mapstructure:"polygon"`
	CoinGecko     ProviderConfig `mapstructure:"coingecko"`
	CryptoCompare ProviderConfig `mapstructure:"cryptocompare"`
	Alternative   ProviderConfig `mapstructure:"alternative"`
	NewsMaxItems  int            `mapstructure:"news_max_items"`
	HistoryDays   int            `mapstructure:"history_days"`
}

// RateLimitConfig sets each provider's fixed-window call budget. Values are
// policy, not mechanism; the defaults mirror the providers' free tiers.
type RateLimitConfig struct {
	Polygon       ratelimit.Quota `mapstructure:"polygon"`
	CoinGecko     ratelimit.Quota `mapstructure:"coingecko"`
	CryptoCompare ratelimit.Quota `mapstructure:"cryptocompare"`
	Alternative   ratelimit.Quota `mapstructure:"alternative"`
}

// Quotas flattens the per-provider budgets into limiter form.
func (r RateLimitConfig) Quotas() map[string]ratelimit.Quota {
	return map[string]ratelimit.Quota{
		"polygon":       r.Polygon,
		"coingecko":     r.CoinGecko,
		"cryptocompare": r.CryptoCompare,
		"alternative":   r.Alternative,
	}
}

// LongestWindow returns the longest configured rate window, the lower bound
// for the limiter reset schedule.
func (r RateLimitConfig) LongestWindow() time.Duration {
	longest := time.Duration(0)
	for _, q := range r.Quotas() {
		if q.Window > longest {
			longest = q.Window
		}
	}
	return longest
}

// FusionConfig exposes the fusion weights and risk thresholds.
type FusionConfig struct {
	Weights fusion.Weights        `mapstructure:"weights"`
	Risk    fusion.RiskThresholds `mapstructure:"risk_thresholds"`
}

// AlertingConfig defines alert gating and routing.
type AlertingConfig struct {
	Enabled       bool           `mapstructure:"enabled"`
	MinConfidence float64        `mapstructure:"min_confidence"`
	Cooldown      time.Duration  `mapstructure:"cooldown"`
	Channels      []string       `mapstructure:"channels"`
	Telegram      TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SIGNALWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "signalwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "5m")
	v.SetDefault("scheduler.align_to_cycle", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x5349474e))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("symbols", []string{"BTC", "ETH", "SOL"})

	v.SetDefault("providers.polygon.base_url", "https://api.polygon.io")
	v.SetDefault("providers.polygon.request_timeout", "10s")
	v.SetDefault("providers.coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("providers.coingecko.request_timeout", "10s")
	v.SetDefault("providers.cryptocompare.base_url", "https://min-api.cryptocompare.com")
	v.SetDefault("providers.cryptocompare.request_timeout", "10s")
	v.SetDefault("providers.alternative.base_url", "https://api.alternative.me")
	v.SetDefault("providers.alternative.request_timeout", "10s")
	v.SetDefault("providers.news_max_items", 10)
	v.SetDefault("providers.history_days", 200)

	v.SetDefault("rate_limit.polygon.max", 5)
	v.SetDefault("rate_limit.polygon.window", "60s")
	v.SetDefault("rate_limit.coingecko.max", 10)
	v.SetDefault("rate_limit.coingecko.window", "60s")
	v.SetDefault("rate_limit.cryptocompare.max", 100)
	v.SetDefault("rate_limit.cryptocompare.window", "24h")
	v.SetDefault("rate_limit.alternative.max", 30)
	v.SetDefault("rate_limit.alternative.window", "60s")

	v.SetDefault("cache.market", "5m")
	v.SetDefault("cache.news", "30m")
	v.SetDefault("cache.sentiment", "1h")

	v.SetDefault("fusion.weights.price", 0.25)
	v.SetDefault("fusion.weights.news", 0.30)
	v.SetDefault("fusion.weights.sentiment", 0.20)
	v.SetDefault("fusion.weights.technical", 0.25)
	v.SetDefault("fusion.risk_thresholds.extreme", 0.3)
	v.SetDefault("fusion.risk_thresholds.high", 0.5)
	v.SetDefault("fusion.risk_thresholds.medium", 0.7)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.min_confidence", 0.6)
	v.SetDefault("alerting.cooldown", "30m")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
// NormalizeSymbols canonicalizes ticker spellings: trimmed, upper-cased,
// empties dropped. Result maps downstream are keyed by the canonical form,
// so every configured or flag-provided symbol passes through here first.
func NormalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (c *Config) Validate() error {
	c.Symbols = NormalizeSymbols(c.Symbols)
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}

	w := c.Fusion.Weights
	for name, v := range map[string]float64{
		"fusion.weights.price":     w.Price,
		"fusion.weights.news":      w.News,
		"fusion.weights.sentiment": w.Sentiment,
		"fusion.weights.technical": w.Technical,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1]", name)
		}
	}

	t := c.Fusion.Risk
	if !(t.Extreme < t.High && t.High < t.Medium) {
		return fmt.Errorf("fusion.risk_thresholds must be strictly increasing (extreme < high < medium)")
	}

	if c.Alerting.MinConfidence < 0 || c.Alerting.MinConfidence > 1 {
		return fmt.Errorf("alerting.min_confidence must be within [0,1]")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
