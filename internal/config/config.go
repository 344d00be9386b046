package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WEBMVC"

// ConfigFileEnv names the variable holding an explicit config file path.
const ConfigFileEnv = "WEBMVC_CONFIG"

// Registry and adapter names accepted in the dispatch order lists.
const (
	StrategyAnnotation = "annotation"
	StrategyManual     = "manual"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" split_words:"true"`
	Security  SecurityConfig  `yaml:"security" split_words:"true"`
	Logging   LoggingConfig   `yaml:"logging" split_words:"true"`
	Dispatch  DispatchConfig  `yaml:"dispatch" split_words:"true"`
	View      ViewConfig      `yaml:"view" split_words:"true"`
	Telemetry TelemetryConfig `yaml:"telemetry" split_words:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true" validate:"gte=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true" validate:"gte=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" split_words:"true" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	Headers   bool            `yaml:"headers" split_words:"true"`
	RateLimit RateLimitConfig `yaml:"rate_limit" split_words:"true"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true" validate:"gt=0"`
	Burst   int     `yaml:"burst" split_words:"true" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Output      string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
	Development bool   `yaml:"development" split_words:"true"`
}

// DispatchConfig is the registration surface of the dispatch core.
type DispatchConfig struct {
	// ScanPackages are import path patterns ("pkg" or "pkg/...") searched for controllers.
	ScanPackages []string `yaml:"scan_packages" split_words:"true"`
	// ManualRoutes bind (method, path) to named entries of the manual handler catalog.
	ManualRoutes RouteList `yaml:"manual_routes" split_words:"true" validate:"dive"`
	// RegistryOrder lists the mappings consulted, highest priority first.
	RegistryOrder []string `yaml:"registry_order" split_words:"true" validate:"min=1,unique,dive,oneof=annotation manual"`
	// AdapterOrder lists the adapters tried, first match wins.
	AdapterOrder []string `yaml:"adapter_order" split_words:"true" validate:"min=1,unique,dive,oneof=annotation manual"`

	NotFoundView         string `yaml:"not_found_view" split_words:"true" validate:"required"`
	MethodNotAllowedView string `yaml:"method_not_allowed_view" split_words:"true"`
	ViewSuffix           string `yaml:"view_suffix" split_words:"true"`
}

// Enabled reports whether name appears in RegistryOrder.
func (d DispatchConfig) Enabled(name string) bool {
	for _, n := range d.RegistryOrder {
		if n == name {
			return true
		}
	}
	return false
}

// ViewConfig configures template rendering.
type ViewConfig struct {
	// TemplateDir, when set, replaces the embedded templates.
	TemplateDir string `yaml:"template_dir" split_words:"true"`
	// Watch reloads templates from TemplateDir when they change.
	Watch bool `yaml:"watch" split_words:"true"`
}

// TelemetryConfig configures OpenTelemetry.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" split_words:"true" validate:"required"`
	Environment    string  `yaml:"environment" split_words:"true"`
	TraceExporter  string  `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
	MetricsEnabled bool    `yaml:"metrics_enabled" split_words:"true"`
	SampleRatio    float64 `yaml:"sample_ratio" split_words:"true" validate:"gte=0,lte=1"`
}

// Load reads the configuration. Precedence, highest first: WEBMVC_*
// environment variables, the YAML file, Default.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML file. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// no default tags, so unset variables leave file and default values alone;
	// split_words keys avoid envconfig's unprefixed fallback lookup
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks the configuration against its validate tags.
func (c *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return "" // no config file, env vars and defaults only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			Headers: true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Dispatch: DispatchConfig{
			ScanPackages: []string{"webmvc/internal/app/controller/..."},
			ManualRoutes: RouteList{
				{Method: "GET", Path: "/", Handler: "index"},
				{Method: "GET", Path: "/login/view", Handler: "login-view"},
				{Method: "GET", Path: "/register/view", Handler: "register-view"},
				{Method: "GET", Path: "/logout", Handler: "logout"},
			},
			RegistryOrder: []string{StrategyAnnotation, StrategyManual},
			AdapterOrder:  []string{StrategyAnnotation, StrategyManual},
			NotFoundView:         "/404.html",
			MethodNotAllowedView: "/405.html",
			ViewSuffix:           ".html",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "webmvc",
			Environment:    "development",
			TraceExporter:  "none",
			MetricsEnabled: true,
			SampleRatio:    1,
		},
	}
}
