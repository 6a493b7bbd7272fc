// Package config defines cmd/clobd's process-level configuration, loaded
// and hot-reloaded by pkg/config.LoadAndWatch. Only ambient, process-wide
// settings live here — a live Market's base_lot_size/quote_tick_size are
// immutable after initialize and are never touched by a config reload.
package config

// Cfg is the root clobd configuration, unmarshalled from
// config/clobd.yaml (or CLOBD_*-prefixed environment overrides).
type Cfg struct {
	Name string     `yaml:"name" mapstructure:"name"`
	HTTP HTTPConfig `yaml:"http" mapstructure:"http"`
	Log  LogConfig  `yaml:"log" mapstructure:"log"`

	// DefaultMarket is loaded from config but not read by any code:
	// POST /api/markets/:marketID requires base_lot_size and
	// quote_tick_size in the request body and uses no defaults.
	DefaultMarket DefaultMarketConfig `yaml:"default_market" mapstructure:"default_market"`

	RateLimit      RateLimitConfig      `yaml:"rate_limit" mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Sentinel       SentinelConfig       `yaml:"sentinel" mapstructure:"sentinel"`
	Redis          RedisConfig          `yaml:"redis" mapstructure:"redis"`
	Trace          TraceConfig          `yaml:"trace" mapstructure:"trace"`
	Notify         NotifyConfig         `yaml:"notify" mapstructure:"notify"`
}

type HTTPConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

type DefaultMarketConfig struct {
	BaseLotSize   int64 `yaml:"base_lot_size" mapstructure:"base_lot_size"`
	QuoteTickSize int64 `yaml:"quote_tick_size" mapstructure:"quote_tick_size"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	IdleTTLMinutes    int     `yaml:"idle_ttl_minutes" mapstructure:"idle_ttl_minutes"`
}

type CircuitBreakerConfig struct {
	TripConsecutiveFailures uint32 `yaml:"trip_consecutive_failures" mapstructure:"trip_consecutive_failures"`
	TimeoutSeconds          int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type SentinelConfig struct {
	Enabled bool           `yaml:"enabled" mapstructure:"enabled"`
	Flow    []SentinelRule `yaml:"flow" mapstructure:"flow"`
}

type SentinelRule struct {
	Resource       string  `yaml:"resource" mapstructure:"resource"`
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"`
	StatIntervalMs uint32  `yaml:"stat_interval_ms" mapstructure:"stat_interval_ms"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr" mapstructure:"addr"`
	Database   int    `yaml:"db" mapstructure:"db"`
	BookTTLMs  int    `yaml:"book_ttl_ms" mapstructure:"book_ttl_ms"`
}

type TraceConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

type NotifyConfig struct {
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`
}
