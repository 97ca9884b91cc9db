// Package config loads service configuration from config/{ENV_NAME}.yaml
// with env-var overrides and a separate secrets file for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	AirQualityToken   string
	AirQualityAPIURL  string
	AirQualityTimeout time.Duration

	NewsFeedURL string
	NewsTimeout time.Duration

	WeatherTTL    time.Duration
	AirQualityTTL time.Duration // defaults to twice WeatherTTL
	NewsTTL       time.Duration // the shortest of the three

	RequestTimeout  time.Duration
	RefreshInterval time.Duration

	CacheBackend          string // "in_memory" or "memcached"
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	BreakerEnabled          bool
	BreakerFailureThreshold int
	BreakerSuccessThreshold int
	BreakerTimeout          time.Duration

	ShutdownTimeout time.Duration

	// MoodSeed fixes the mood-line RNG for reproducible environments.
	// Zero means seed from the clock.
	MoodSeed int64

	WarmPlaces   []string
	WarmInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	AirQualityAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"air_quality_api"`

	NewsFeed struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"news_feed"`

	Request struct {
		Timeout         string `yaml:"timeout"`
		RefreshInterval string `yaml:"refresh_interval"`
	} `yaml:"request"`

	Cache struct {
		Backend       string `yaml:"backend"`
		WeatherTTL    string `yaml:"weather_ttl"`
		AirQualityTTL string `yaml:"air_quality_ttl"`
		NewsTTL       string `yaml:"news_ttl"`
		Memcached     struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`
		CircuitBreaker   struct {
			Enabled          bool   `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Mood struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"mood"`

	Warming struct {
		Places   []string `yaml:"places"`
		Interval string   `yaml:"interval"`
	} `yaml:"warming"`
}

type secretsFile struct {
	WeatherAPIKey   string `yaml:"weather_api_key"`
	AirQualityToken string `yaml:"air_quality_token"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. The weather key comes from WEATHER_API_KEY env or the
// secrets file and is required; the air-quality token (AIR_QUALITY_TOKEN or
// secrets) is optional and disables the source when absent. Call from
// project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if port := os.Getenv("PORT"); port != "" {
		cfg.ServerPort = port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	secrets, err := loadSecrets(filepath.Join(cwd, "config", "secrets.yaml"))
	if err != nil {
		return nil, err
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		cfg.WeatherAPIKey = secrets.WeatherAPIKey
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env or config/secrets.yaml weather_api_key)")
	}

	cfg.AirQualityToken = os.Getenv("AIR_QUALITY_TOKEN")
	if cfg.AirQualityToken == "" {
		cfg.AirQualityToken = secrets.AirQualityToken
	}

	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	cfg.WeatherAPITimeout = parseDuration(fc.WeatherAPI.Timeout, 8*time.Second)

	cfg.AirQualityAPIURL = fc.AirQualityAPI.URL
	if cfg.AirQualityAPIURL == "" {
		cfg.AirQualityAPIURL = "https://api.waqi.info"
	}
	cfg.AirQualityTimeout = parseDuration(fc.AirQualityAPI.Timeout, 4*time.Second)

	cfg.NewsFeedURL = fc.NewsFeed.URL
	if cfg.NewsFeedURL == "" {
		cfg.NewsFeedURL = "https://news.google.com/rss/search"
	}
	cfg.NewsTimeout = parseDuration(fc.NewsFeed.Timeout, 8*time.Second)

	cfg.WeatherTTL = parseDuration(fc.Cache.WeatherTTL, 10*time.Minute)
	cfg.AirQualityTTL = parseDuration(fc.Cache.AirQualityTTL, 2*cfg.WeatherTTL)
	cfg.NewsTTL = parseDuration(fc.Cache.NewsTTL, 5*time.Minute)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 12*time.Second)
	cfg.RefreshInterval = parseDuration(fc.Request.RefreshInterval, 10*time.Minute)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.BreakerEnabled = fc.Reliability.CircuitBreaker.Enabled
	cfg.BreakerFailureThreshold = fc.Reliability.CircuitBreaker.FailureThreshold
	if cfg.BreakerFailureThreshold <= 0 {
		cfg.BreakerFailureThreshold = 5
	}
	cfg.BreakerSuccessThreshold = fc.Reliability.CircuitBreaker.SuccessThreshold
	if cfg.BreakerSuccessThreshold <= 0 {
		cfg.BreakerSuccessThreshold = 2
	}
	cfg.BreakerTimeout = parseDuration(fc.Reliability.CircuitBreaker.Timeout, 30*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.MoodSeed = fc.Mood.Seed

	cfg.WarmPlaces = fc.Warming.Places
	cfg.WarmInterval = parseDuration(fc.Warming.Interval, 15*time.Minute)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSecrets(path string) (secretsFile, error) {
	var sec secretsFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sec, nil
		}
		return sec, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("parse secrets file: %w", err)
	}
	return sec, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. News must hold the shortest TTL
// and air quality at least the weather TTL; both are clamped rather than
// rejected. RequestTimeout is stretched to cover the slowest upstream.
func validate(cfg *Config) error {
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}

	if cfg.NewsTTL > cfg.WeatherTTL {
		cfg.NewsTTL = cfg.WeatherTTL
	}
	if cfg.AirQualityTTL < cfg.WeatherTTL {
		cfg.AirQualityTTL = 2 * cfg.WeatherTTL
	}

	slowest := cfg.WeatherAPITimeout
	if cfg.NewsTimeout > slowest {
		slowest = cfg.NewsTimeout
	}
	if cfg.AirQualityTimeout > slowest {
		slowest = cfg.AirQualityTimeout
	}
	if cfg.RequestTimeout <= slowest {
		cfg.RequestTimeout = slowest + time.Second
	}
	return nil
}
