package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the munroquery API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	LLM      LLMConfig      `yaml:"llm"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings for the geocode cache.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// DatasetConfig points at the read-only hill corpus and the tag ontology.
type DatasetConfig struct {
	HillsPath    string `yaml:"hills_path"`
	OntologyPath string `yaml:"ontology_path"`
}

// LLMConfig holds settings for the OpenAI-compatible chat model.
type LLMConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// GeocoderConfig holds settings for the Nominatim geocoder and its cache.
type GeocoderConfig struct {
	BaseURL             string     `yaml:"base_url"`
	UserAgent           string     `yaml:"user_agent"`
	TimeoutSec          int        `yaml:"timeout_sec"`
	CacheTTLHours       int        `yaml:"cache_ttl_hours"`
	NegativeCacheTTLHrs int        `yaml:"negative_cache_ttl_hours"`
	BBox                [4]float64 `yaml:"bbox"` // south, west, north, east
}

// SearchConfig holds retrieval pipeline tuning knobs.
type SearchConfig struct {
	DefaultLimit    int     `yaml:"default_limit"`
	MaxLimit        int     `yaml:"max_limit"`
	MaxMessageLen   int     `yaml:"max_message_len"`
	PermissiveRatio float64 `yaml:"permissive_ratio"`
	TagFloodRatio   float64 `yaml:"tag_flood_ratio"`
	NearBandKM      float64 `yaml:"near_band_km"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Dataset.HillsPath == "" {
		c.Dataset.HillsPath = filepath.Join("data", "hills.json")
	}
	if c.Dataset.OntologyPath == "" {
		c.Dataset.OntologyPath = filepath.Join("config", "tags.yaml")
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 12
	}
	if c.Geocoder.BaseURL == "" {
		c.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geocoder.UserAgent == "" {
		c.Geocoder.UserAgent = "munroquery (hello@hillwalk.dev)"
	}
	if c.Geocoder.TimeoutSec <= 0 {
		c.Geocoder.TimeoutSec = 6
	}
	if c.Geocoder.CacheTTLHours <= 0 {
		c.Geocoder.CacheTTLHours = 30 * 24
	}
	if c.Geocoder.NegativeCacheTTLHrs <= 0 {
		c.Geocoder.NegativeCacheTTLHrs = 24
	}
	if c.Geocoder.BBox == [4]float64{} {
		// Scotland
		c.Geocoder.BBox = [4]float64{54.5, -8.5, 60.9, -0.5}
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 8
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 20
	}
	if c.Search.MaxMessageLen <= 0 {
		c.Search.MaxMessageLen = 2000
	}
	if c.Search.PermissiveRatio <= 0 || c.Search.PermissiveRatio > 1 {
		c.Search.PermissiveRatio = 0.8
	}
	if c.Search.TagFloodRatio <= 0 || c.Search.TagFloodRatio > 1 {
		c.Search.TagFloodRatio = 0.7
	}
	if c.Search.NearBandKM <= 0 {
		c.Search.NearBandKM = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) must not exceed search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	south, west, north, east := c.Geocoder.BBox[0], c.Geocoder.BBox[1], c.Geocoder.BBox[2], c.Geocoder.BBox[3]
	if south >= north || west >= east {
		return fmt.Errorf("geocoder.bbox must be [south, west, north, east], got %v", c.Geocoder.BBox)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
