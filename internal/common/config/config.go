// internal/common/config/config.go
package config

// Config is the main application configuration struct. It is loaded once at
// startup and treated as read-only afterwards.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Synthesis  SynthesisConfig  `mapstructure:"synthesis"`
	Intents    IntentsConfig    `mapstructure:"intents"`
	Routing    RoutingConfig    `mapstructure:"routing"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Recovery   RecoveryConfig   `mapstructure:"recovery"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"` // "stdout" or a file path
}

// --- Intent classification ---

// ClassifierConfig points at the external intent-classification service.
// When the service errors, times out, or reports confidence below the
// threshold, the router degrades to the local rule table.
type ClassifierConfig struct {
	Enabled             bool    `mapstructure:"enabled"`
	BaseURL             string  `mapstructure:"base_url"`
	APIKey              string  `mapstructure:"api_key"`
	Timeout             int     `mapstructure:"timeout"` // milliseconds
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

// SynthesisConfig points at the external text-generation service used by
// the briefing handler. A local template renders the briefing when the
// service is disabled or unreachable.
type SynthesisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// IntentRule binds one intent to the keywords that trigger it. Rules are
// evaluated in declaration order; the first match wins.
type IntentRule struct {
	Intent   string   `mapstructure:"intent"`
	Keywords []string `mapstructure:"keywords"`
}

type IntentsConfig struct {
	Rules              []IntentRule `mapstructure:"rules"`
	FallbackConfidence float64      `mapstructure:"fallback_confidence"`
	Streamers          []string     `mapstructure:"streamers"`
	Games              []string     `mapstructure:"games"`
}

// RoutingConfig maps each intent to an ordered list of handler ids. Handler
// outputs are merged in this declaration order regardless of completion order.
type RoutingConfig struct {
	Handlers        map[string][]string `mapstructure:"handlers"`
	DefaultDeadline int                 `mapstructure:"default_deadline"` // milliseconds
}

// --- Data layer ---

type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // "memory" or "redis"
	MaxSize    int    `mapstructure:"max_size"`
	DefaultTTL int    `mapstructure:"default_ttl"` // seconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LiveSourceConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AuthToken string `mapstructure:"auth_token"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

type SourcesConfig struct {
	Priority    []string         `mapstructure:"priority"`
	MaxFailures int              `mapstructure:"max_failures"`
	Live        LiveSourceConfig `mapstructure:"live"`
}

// --- Resilience ---

type RecoveryConfig struct {
	FailureThreshold int `mapstructure:"failure_threshold"`
	CooldownSeconds  int `mapstructure:"cooldown_seconds"`
}

type DispatchConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}
