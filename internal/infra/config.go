package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent identifies the service to the quote provider
	DefaultUserAgent = "portfolio-go/1.0"

	DefaultFinnhubURL = "https://finnhub.io/api/v1"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Port           string        `yaml:"port" env:"PORT"`
		CORSOrigin     string        `yaml:"cors_origin" env:"CORS_ORIGIN"`
		StreamInterval time.Duration `yaml:"stream_interval" env:"STREAM_INTERVAL"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"database"`

	Quote struct {
		APIKey    string        `yaml:"api_key" env:"FINNHUB_API_KEY"`
		BaseURL   string        `yaml:"base_url" env:"FINNHUB_URL"`
		Timeout   time.Duration `yaml:"timeout" env:"QUOTE_TIMEOUT"`
		CacheTTL  time.Duration `yaml:"cache_ttl" env:"QUOTE_CACHE_TTL"`
		CacheSize int           `yaml:"cache_size" env:"QUOTE_CACHE_SIZE"`
	} `yaml:"quote"`

	Logging struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
		Dir   string `yaml:"dir" env:"LOG_DIR"`
	} `yaml:"logging"`
}

// DefaultConfig returns the settings used when neither file nor environment set a value.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "portfolio"
	cfg.Server.Port = "8000"
	cfg.Server.CORSOrigin = "*"
	cfg.Server.StreamInterval = 5 * time.Second
	cfg.Database.URL = "portfolio.db"
	cfg.Quote.BaseURL = DefaultFinnhubURL
	cfg.Quote.Timeout = 8 * time.Second
	cfg.Quote.CacheTTL = 30 * time.Second
	cfg.Quote.CacheSize = 512
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// An empty path skips the file and uses defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// 보안 우선 - 환경 변수 오버라이드 지원
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity.
// A missing provider credential is allowed; price requests report it instead.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if !strings.HasPrefix(c.Quote.BaseURL, "http://") && !strings.HasPrefix(c.Quote.BaseURL, "https://") {
		return fmt.Errorf("invalid quote provider URL: %s", c.Quote.BaseURL)
	}
	if c.Quote.Timeout <= 0 {
		return fmt.Errorf("quote timeout must be positive")
	}
	if c.Quote.CacheTTL <= 0 {
		return fmt.Errorf("quote cache ttl must be positive")
	}
	if c.Quote.CacheSize <= 0 {
		return fmt.Errorf("quote cache size must be positive")
	}
	if c.Server.StreamInterval <= 0 {
		return fmt.Errorf("stream interval must be positive")
	}
	return nil
}
