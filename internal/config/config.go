package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Engine providers
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderLorem     = "lorem"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

const perplexityBaseURL = "https://api.perplexity.ai"

// EngineConfig binds a dashboard engine label to a text generation backend.
type EngineConfig struct {
	Name      string `yaml:"name"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	APIKeyEnv string `yaml:"apiKeyEnv"`
	BaseURL   string `yaml:"baseURL"`
	// Mentions are the names the lorem provider drops into its answers.
	Mentions []string `yaml:"mentions"`
}

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
		RatePerMinute   int           `yaml:"ratePerMinute"`
		RateBurst       int           `yaml:"rateBurst"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		// WriteTimeout overrides the derived POST /checks/run budget when set.
		WriteTimeout time.Duration `yaml:"writeTimeout"`
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Database struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`

		MaxOpenConns    int           `yaml:"maxOpenConns"`
		MaxIdleConns    int           `yaml:"maxIdleConns"`
		ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Supabase struct {
		URL       string `yaml:"url"`
		AnonKey   string `yaml:"anonKey"`
		JWTSecret string `yaml:"jwtSecret"`
		JWKSURL   string `yaml:"jwksURL"`
	} `yaml:"supabase"`

	Checks struct {
		Concurrency  int            `yaml:"concurrency"`
		Timeout      time.Duration  `yaml:"timeout"`
		Schedule     string         `yaml:"schedule"`
		SystemPrompt string         `yaml:"systemPrompt"`
		Engines      []EngineConfig `yaml:"engines"`
	} `yaml:"checks"`
}

// Default returns the built-in settings: memory store, four engines on gpt-4o-mini.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.CORSOrigins = []string{"*"}
	c.Server.RatePerMinute = 120
	c.Server.RateBurst = 20
	c.Server.ShutdownTimeout = 15 * time.Second
	c.Log.Level = "info"
	c.Database.Driver = DriverMemory
	c.Database.SSLMode = "require"
	c.Minio.BucketName = "aeo-answers"
	c.Minio.Region = "us-east-1"
	c.Checks.Concurrency = 4
	c.Checks.Timeout = 60 * time.Second
	for _, name := range []string{"ChatGPT", "Perplexity", "Gemini", "Claude"} {
		c.Checks.Engines = append(c.Checks.Engines, EngineConfig{
			Name:     name,
			Provider: ProviderOpenAI,
			Model:    "gpt-4o-mini",
		})
	}
	return &c
}

// Load baca file config.yaml (optional), lalu .env dan environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env only
	default:
		return nil, err
	}

	// .env boleh tidak ada
	_ = godotenv.Load()

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setInt(&c.Server.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")

	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")

	setString(&c.Supabase.URL, "SUPABASE_URL")
	setString(&c.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setString(&c.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")

	setString(&c.Checks.Schedule, "CHECKS_SCHEDULE")

	perplexityKey := os.Getenv("PERPLEXITY_API_KEY")
	for i := range c.Checks.Engines {
		e := &c.Checks.Engines[i]
		// Perplexity speaks the OpenAI protocol; use it directly once a key is present
		if perplexityKey != "" && strings.EqualFold(e.Name, "Perplexity") && e.Provider == ProviderOpenAI && e.BaseURL == "" {
			e.BaseURL = perplexityBaseURL
			e.APIKeyEnv = "PERPLEXITY_API_KEY"
			e.Model = "sonar"
		}
		if e.APIKey != "" {
			continue
		}
		env := e.APIKeyEnv
		if env == "" {
			env = defaultKeyEnv(e.Provider)
		}
		if env != "" {
			e.APIKey = os.Getenv(env)
		}
	}
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	}
	return ""
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres, DriverMySQL:
		if c.Database.DSN == "" && c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST or DATABASE_URL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	if c.Supabase.JWTSecret == "" && c.JWKSURL() == "" {
		errs = append(errs, errors.New("SUPABASE_URL or SUPABASE_JWT_SECRET is required"))
	}

	if c.Checks.Concurrency < 1 {
		errs = append(errs, errors.New("checks.concurrency must be at least 1"))
	}
	if c.Checks.Timeout <= 0 {
		errs = append(errs, errors.New("checks.timeout must be positive"))
	}
	if len(c.Checks.Engines) == 0 {
		errs = append(errs, errors.New("at least one engine is required"))
	}
	seen := make(map[string]bool)
	for _, e := range c.Checks.Engines {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, errors.New("engine name is required"))
			continue
		}
		if seen[e.Name] {
			errs = append(errs, fmt.Errorf("engine %q configured twice", e.Name))
		}
		seen[e.Name] = true
		switch e.Provider {
		case ProviderLorem:
		case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
			if e.APIKey == "" {
				errs = append(errs, fmt.Errorf("engine %q: API key is required", e.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("engine %q: unknown provider %q", e.Name, e.Provider))
		}
	}

	return errors.Join(errs...)
}

// JWKSURL returns the configured JWKS endpoint or the Supabase default.
// RunWriteTimeout is how long the server may take to answer a synchronous
// check run: every keyword on every engine, Checks.Concurrency calls at a
// time, each bounded by Checks.Timeout, plus a margin for storage.
func (c *Config) RunWriteTimeout(maxKeywords int) time.Duration {
	if c.Server.WriteTimeout > 0 {
		return c.Server.WriteTimeout
	}
	workers := c.Checks.Concurrency
	if workers <= 0 {
		workers = 1
	}
	calls := maxKeywords * len(c.Checks.Engines)
	rounds := (calls + workers - 1) / workers
	if rounds < 1 {
		rounds = 1
	}
	return time.Duration(rounds)*c.Checks.Timeout + 30*time.Second
}

func (c *Config) JWKSURL() string {
	if c.Supabase.JWKSURL != "" {
		return c.Supabase.JWKSURL
	}
	if c.Supabase.URL == "" {
		return ""
	}
	return strings.TrimRight(c.Supabase.URL, "/") + "/auth/v1/.well-known/jwks.json"
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (Supabase pakai sslmode=require)
func (c *Config) PostgresDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	port := c.Database.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
