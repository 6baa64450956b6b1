// Package config loads service configuration from an optional TOML file and
// the environment. Environment variables win over the file; defaults live in
// code.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileEnv names the variable pointing at the TOML overlay.
const ConfigFileEnv = "DOCVAL_CONFIG"

// Config is the full service configuration.
type Config struct {
	Server    Server
	Log       Log
	LLM       LLM
	Circuit   Circuit
	PDF       PDF
	Redis     RedisConfig
	Cache     Cache
	Database  Database
	RateLimit RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

// LLM configures the OpenRouter chat-completions client.
type LLM struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float64
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Circuit configures the breaker in front of the LLM.
type Circuit struct {
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
}

type PDF struct {
	Binary string
}

// RedisConfig is used only when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Cache configures the structured extraction cache.
type Cache struct {
	TTL time.Duration
}

// RateLimit bounds API requests per client IP. Requests <= 0 disables it.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Database is used only when URL is set; otherwise runs are kept in memory.
type Database struct {
	URL string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8000",
			MaxUploadBytes:  30 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "INFO", Format: "json"},
		LLM: LLM{
			BaseURL:           "https://openrouter.ai/api/v1/chat/completions",
			Model:             "google/gemini-2.0-flash-001",
			Temperature:       0,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             3,
		},
		Circuit: Circuit{
			FailureThreshold: 5,
			SuccessThreshold: 1,
			Cooldown:         30 * time.Second,
		},
		PDF: PDF{Binary: "pdftotext"},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache:     Cache{TTL: time.Hour},
		RateLimit: RateLimit{Requests: 30, Window: time.Minute},
	}
}

// FromEnv builds a Config from defaults, the DOCVAL_CONFIG file when set, and
// environment variables.
func FromEnv() (Config, error) {
	return load(os.Getenv, os.ReadFile)
}

func load(getenv func(string) string, readFile func(string) ([]byte, error)) (Config, error) {
	cfg := Default()
	if path := getenv(ConfigFileEnv); path != "" {
		data, err := readFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := applyFile(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("OPENROUTER_API_KEY is required"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("LLM timeout must be positive"))
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max upload bytes must be positive"))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

type envReader struct {
	getenv func(string) string
	errs   []error
}

func (r *envReader) setString(key string, dst *string) {
	if v := r.getenv(key); v != "" {
		*dst = v
	}
}

func (r *envReader) setInt(key string, dst *int) {
	if v := r.getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (r *envReader) setInt64(key string, dst *int64) {
	if v := r.getenv(key); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (r *envReader) setFloat(key string, dst *float64) {
	if v := r.getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (r *envReader) setDuration(key string, dst *time.Duration) {
	if v := r.getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}

// seconds reads a whole number of seconds.
func (r *envReader) setSeconds(key string, dst *time.Duration) {
	var n int
	if r.getenv(key) == "" {
		return
	}
	r.setInt(key, &n)
	if n > 0 {
		*dst = time.Duration(n) * time.Second
	}
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	r := &envReader{getenv: getenv}

	r.setString("DOCVAL_ADDR", &cfg.Server.Addr)
	r.setInt64("MAX_UPLOAD_BYTES", &cfg.Server.MaxUploadBytes)
	r.setDuration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	r.setString("LOG_LEVEL", &cfg.Log.Level)
	r.setString("LOG_FORMAT", &cfg.Log.Format)

	r.setString("OPENROUTER_API_KEY", &cfg.LLM.APIKey)
	r.setString("OPENROUTER_BASE_URL", &cfg.LLM.BaseURL)
	r.setString("OPENROUTER_MODEL", &cfg.LLM.Model)
	r.setFloat("OPENROUTER_TEMPERATURE", &cfg.LLM.Temperature)
	r.setSeconds("LLM_TIMEOUT_SECONDS", &cfg.LLM.Timeout)
	r.setFloat("LLM_REQUESTS_PER_SECOND", &cfg.LLM.RequestsPerSecond)
	r.setInt("LLM_BURST", &cfg.LLM.Burst)

	r.setInt("CIRCUIT_FAILURE_THRESHOLD", &cfg.Circuit.FailureThreshold)
	r.setInt("CIRCUIT_SUCCESS_THRESHOLD", &cfg.Circuit.SuccessThreshold)
	r.setDuration("CIRCUIT_COOLDOWN", &cfg.Circuit.Cooldown)

	r.setString("PDFTOTEXT_PATH", &cfg.PDF.Binary)

	r.setString("REDIS_URL", &cfg.Redis.URL)
	r.setInt("REDIS_POOL_SIZE", &cfg.Redis.PoolSize)
	r.setDuration("EXTRACTION_CACHE_TTL", &cfg.Cache.TTL)

	r.setString("DATABASE_URL", &cfg.Database.URL)

	r.setInt("RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests)
	r.setDuration("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)

	return errors.Join(r.errs...)
}

// fileConfig mirrors Config for the TOML overlay. Durations are strings such
// as "30s".
type fileConfig struct {
	Server struct {
		Addr            string `toml:"addr"`
		MaxUploadBytes  int64  `toml:"max_upload_bytes"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
	LLM struct {
		APIKey            string   `toml:"api_key"`
		BaseURL           string   `toml:"base_url"`
		Model             string   `toml:"model"`
		Temperature       *float64 `toml:"temperature"`
		Timeout           string   `toml:"timeout"`
		RequestsPerSecond float64  `toml:"requests_per_second"`
		Burst             int      `toml:"burst"`
	} `toml:"llm"`
	Circuit struct {
		FailureThreshold int    `toml:"failure_threshold"`
		SuccessThreshold int    `toml:"success_threshold"`
		Cooldown         string `toml:"cooldown"`
	} `toml:"circuit"`
	PDF struct {
		Binary string `toml:"binary"`
	} `toml:"pdf"`
	Redis struct {
		URL      string `toml:"url"`
		PoolSize int    `toml:"pool_size"`
	} `toml:"redis"`
	Cache struct {
		TTL string `toml:"ttl"`
	} `toml:"cache"`
	Database struct {
		URL string `toml:"url"`
	} `toml:"database"`
	RateLimit struct {
		Requests *int   `toml:"requests"`
		Window   string `toml:"window"`
	} `toml:"rate_limit"`
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return err
	}

	var errs []error
	setDuration := func(name, raw string, dst *time.Duration) {
		if raw == "" {
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = d
	}
	setString := func(raw string, dst *string) {
		if raw != "" {
			*dst = raw
		}
	}

	setString(fc.Server.Addr, &cfg.Server.Addr)
	if fc.Server.MaxUploadBytes > 0 {
		cfg.Server.MaxUploadBytes = fc.Server.MaxUploadBytes
	}
	setDuration("server.shutdown_timeout", fc.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout)

	setString(fc.Log.Level, &cfg.Log.Level)
	setString(fc.Log.Format, &cfg.Log.Format)

	setString(fc.LLM.APIKey, &cfg.LLM.APIKey)
	setString(fc.LLM.BaseURL, &cfg.LLM.BaseURL)
	setString(fc.LLM.Model, &cfg.LLM.Model)
	if fc.LLM.Temperature != nil {
		cfg.LLM.Temperature = *fc.LLM.Temperature
	}
	setDuration("llm.timeout", fc.LLM.Timeout, &cfg.LLM.Timeout)
	if fc.LLM.RequestsPerSecond > 0 {
		cfg.LLM.RequestsPerSecond = fc.LLM.RequestsPerSecond
	}
	if fc.LLM.Burst > 0 {
		cfg.LLM.Burst = fc.LLM.Burst
	}

	if fc.Circuit.FailureThreshold > 0 {
		cfg.Circuit.FailureThreshold = fc.Circuit.FailureThreshold
	}
	if fc.Circuit.SuccessThreshold > 0 {
		cfg.Circuit.SuccessThreshold = fc.Circuit.SuccessThreshold
	}
	setDuration("circuit.cooldown", fc.Circuit.Cooldown, &cfg.Circuit.Cooldown)

	setString(fc.PDF.Binary, &cfg.PDF.Binary)
	setString(fc.Redis.URL, &cfg.Redis.URL)
	if fc.Redis.PoolSize > 0 {
		cfg.Redis.PoolSize = fc.Redis.PoolSize
	}
	setDuration("cache.ttl", fc.Cache.TTL, &cfg.Cache.TTL)
	setString(fc.Database.URL, &cfg.Database.URL)
	if fc.RateLimit.Requests != nil {
		cfg.RateLimit.Requests = *fc.RateLimit.Requests
	}
	setDuration("rate_limit.window", fc.RateLimit.Window, &cfg.RateLimit.Window)

	return errors.Join(errs...)
}
