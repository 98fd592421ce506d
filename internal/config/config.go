package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"innkeeper/internal/availability"
	"innkeeper/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

type Config struct {
	App        AppConfig        `yaml:"app"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Rules      RulesConfig      `yaml:"rules"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// CalendarConfig describes the booking-data service the room calendars come from.
type CalendarConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Retry    RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// RulesConfig holds the booking policies handed to the availability evaluator.
type RulesConfig struct {
	Timezone               string `yaml:"timezone"`
	AfternoonCutoff        string `yaml:"afternoon_cutoff"`
	ExtensionBufferMinutes *int   `yaml:"extension_buffer_minutes"`
	DurationOptions        []int  `yaml:"duration_options"`
}

type CatalogConfig struct {
	RoomsFile      string        `yaml:"rooms_file"`
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// Load reads the YAML file at configPath. A .env file next to the working
// directory is loaded first when present; ${VAR} references are expanded.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// PathFromEnv returns CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

func (c *Config) Validate() error {
	if c.Calendar.BaseURL == "" {
		return errors.New("calendar base_url is required")
	}
	if u, err := url.Parse(c.Calendar.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("calendar base_url %q is not an absolute URL", c.Calendar.BaseURL)
	}

	if c.Catalog.RoomsFile == "" {
		return errors.New("catalog rooms_file is required")
	}

	if _, err := c.Rules.Location(); err != nil {
		return err
	}

	return ValidateRules(c.Rules)
}

// ValidateRules checks the policy section on its own.
func ValidateRules(r RulesConfig) error {
	if _, err := availability.ParseClock(r.AfternoonCutoff); err != nil {
		return fmt.Errorf("rules afternoon_cutoff: %w", err)
	}
	if r.ExtensionBufferMinutes != nil && *r.ExtensionBufferMinutes < 0 {
		return fmt.Errorf("rules extension_buffer_minutes must be >= 0, got %d", *r.ExtensionBufferMinutes)
	}

	seen := make(map[int]bool)
	for _, h := range r.DurationOptions {
		if h <= 0 {
			return fmt.Errorf("rules duration_options: invalid duration %d", h)
		}
		if seen[h] {
			return fmt.Errorf("rules duration_options: duplicate duration %d", h)
		}
		seen[h] = true
	}
	return nil
}

// Location loads the timezone used to decide what "today" is.
func (r RulesConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("rules timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// Availability converts the section into evaluator rules. It assumes Validate
// has passed.
func (r RulesConfig) Availability() availability.Rules {
	rules := availability.DefaultRules()
	if cutoff, err := availability.ParseClock(r.AfternoonCutoff); err == nil {
		rules.AfternoonCutoff = cutoff
	}
	if r.ExtensionBufferMinutes != nil {
		rules.ExtensionBuffer = *r.ExtensionBufferMinutes
	}
	if len(r.DurationOptions) > 0 {
		rules.DurationOptions = append([]int(nil), r.DurationOptions...)
	}
	return rules
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "innkeeper"
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.RateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitBurst
	}

	// Calendar source defaults
	if c.Calendar.Timeout == 0 {
		c.Calendar.Timeout = 5 * time.Second
	}
	if c.Calendar.CacheTTL == 0 {
		c.Calendar.CacheTTL = models.DefaultCalendarCacheTTL * time.Second
	}
	if c.Calendar.Retry.MaxAttempts == 0 {
		c.Calendar.Retry.MaxAttempts = 3
	}
	if c.Calendar.Retry.BaseDelay == 0 {
		c.Calendar.Retry.BaseDelay = 200 * time.Millisecond
	}
	if c.Calendar.Retry.MaxDelay == 0 {
		c.Calendar.Retry.MaxDelay = 2 * time.Second
	}

	// Rules defaults
	if c.Rules.Timezone == "" {
		c.Rules.Timezone = "UTC"
	}
	if c.Rules.AfternoonCutoff == "" {
		c.Rules.AfternoonCutoff = models.DefaultAfternoonCutoff
	}
	if c.Rules.ExtensionBufferMinutes == nil {
		buffer := models.DefaultExtensionBufferMinutes
		c.Rules.ExtensionBufferMinutes = &buffer
	}
	if len(c.Rules.DurationOptions) == 0 {
		c.Rules.DurationOptions = append([]int(nil), models.DefaultDurationOptions...)
	}

	if c.Catalog.RoomsFile == "" {
		c.Catalog.RoomsFile = "configs/rooms.yaml"
	}
	if c.Catalog.ReloadInterval == 0 {
		c.Catalog.ReloadInterval = 30 * time.Second
	}
}
