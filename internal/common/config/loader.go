// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like CLASSIFIER_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overrides, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in a few locations so tests run from nested
// directories still pick it up.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig pulls secrets straight from the environment when the
// config file left them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Classifier.APIKey == "" {
		if val := os.Getenv("CLASSIFIER_API_KEY"); val != "" {
			cfg.Classifier.APIKey = val
		}
	}
	if cfg.Synthesis.APIKey == "" {
		if val := os.Getenv("SYNTHESIS_API_KEY"); val != "" {
			cfg.Synthesis.APIKey = val
		}
	}
	if cfg.Sources.Live.AuthToken == "" {
		if val := os.Getenv("LIVE_API_TOKEN"); val != "" {
			cfg.Sources.Live.AuthToken = val
		}
	}
	if cfg.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Redis.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "streamscout"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Classifier defaults
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = 10000
	}
	if cfg.Classifier.ConfidenceThreshold == 0 {
		cfg.Classifier.ConfidenceThreshold = 0.5
	}

	if cfg.Synthesis.Timeout == 0 {
		cfg.Synthesis.Timeout = 15000
	}

	// Rule table defaults. Order matters: the first matching rule wins.
	if len(cfg.Intents.Rules) == 0 {
		cfg.Intents.Rules = []IntentRule{
			{Intent: "status-query", Keywords: []string{"直播", "开播", "在播", "直播间", "live", "streaming"}},
			{Intent: "summary-request", Keywords: []string{"简报", "总结", "汇总", "日报", "summary", "briefing"}},
			{Intent: "trend-query", Keywords: []string{"热门", "趋势", "排行", "trending", "popular"}},
			{Intent: "health-query", Keywords: []string{"系统状态", "状态", "健康", "status", "health"}},
			{Intent: "greeting", Keywords: []string{"你好", "您好", "早上好", "晚上好", "嗨", "hi", "hello", "hey"}},
		}
	}
	if cfg.Intents.FallbackConfidence == 0 {
		cfg.Intents.FallbackConfidence = 0.6
	}
	if len(cfg.Intents.Streamers) == 0 {
		cfg.Intents.Streamers = []string{"Uzi", "Faker", "大司马", "TheShy", "Rookie", "Doublelift"}
	}
	if len(cfg.Intents.Games) == 0 {
		cfg.Intents.Games = []string{"英雄联盟", "王者荣耀", "CS2", "DOTA2", "永劫无间", "League of Legends"}
	}

	// Handler table defaults
	if len(cfg.Routing.Handlers) == 0 {
		cfg.Routing.Handlers = map[string][]string{
			"status-query":    {"live-status"},
			"summary-request": {"briefing"},
			"trend-query":     {"trending"},
			"health-query":    {"health"},
			"unknown":         {"clarify"},
		}
	}
	if cfg.Routing.DefaultDeadline == 0 {
		cfg.Routing.DefaultDeadline = 3000
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = 1000
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = 300
	}

	// Source defaults
	if len(cfg.Sources.Priority) == 0 {
		cfg.Sources.Priority = []string{"live_api", "mock", "cache"}
	}
	if cfg.Sources.MaxFailures == 0 {
		cfg.Sources.MaxFailures = 3
	}
	if cfg.Sources.Live.Timeout == 0 {
		cfg.Sources.Live.Timeout = 5000
	}

	// Recovery defaults
	if cfg.Recovery.FailureThreshold == 0 {
		cfg.Recovery.FailureThreshold = 3
	}
	if cfg.Recovery.CooldownSeconds == 0 {
		cfg.Recovery.CooldownSeconds = 30
	}

	// Dispatch defaults
	if cfg.Dispatch.MaxConcurrent == 0 {
		cfg.Dispatch.MaxConcurrent = 5
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be \"memory\" or \"redis\", got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == "redis" && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when cache.backend is redis")
	}

	if cfg.Classifier.Enabled && cfg.Classifier.BaseURL == "" {
		return fmt.Errorf("classifier.base_url is required when classifier.enabled is true")
	}
	if cfg.Classifier.ConfidenceThreshold < 0 || cfg.Classifier.ConfidenceThreshold > 1 {
		return fmt.Errorf("classifier.confidence_threshold must be in [0,1]")
	}
	if cfg.Synthesis.Enabled && cfg.Synthesis.BaseURL == "" {
		return fmt.Errorf("synthesis.base_url is required when synthesis.enabled is true")
	}

	for _, rule := range cfg.Intents.Rules {
		if rule.Intent == "" {
			return fmt.Errorf("intents.rules entries must name an intent")
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("intents.rules entry %q has no keywords", rule.Intent)
		}
	}

	for intent, handlers := range cfg.Routing.Handlers {
		if len(handlers) == 0 {
			return fmt.Errorf("routing.handlers[%s] has no handlers", intent)
		}
	}

	if cfg.Dispatch.MaxConcurrent < 1 {
		return fmt.Errorf("dispatch.max_concurrent must be at least 1")
	}
	if cfg.Recovery.FailureThreshold < 1 {
		return fmt.Errorf("recovery.failure_threshold must be at least 1")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
