package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "config.yaml"

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		CORSOrigins  []string      `yaml:"corsOrigins"`
	} `yaml:"server"`

	AI struct {
		APIKey         string        `yaml:"apiKey"`
		BaseURL        string        `yaml:"baseURL"`
		Referer        string        `yaml:"referer"`
		Title          string        `yaml:"title"`
		Timeout        time.Duration `yaml:"timeout"`
		AnalysisModels []string      `yaml:"analysisModels"`
		QuestionModels []string      `yaml:"questionModels"`
	} `yaml:"ai"`

	Database struct {
		// Driver is mysql, postgres, or empty to disable history.
		Driver       string `yaml:"driver"`
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		User         string `yaml:"user"`
		Password     string `yaml:"password"`
		Name         string `yaml:"name"`
		SSLMode      string `yaml:"sslMode"`
		MaxOpenConns int    `yaml:"maxOpenConns"`
		MaxIdleConns int    `yaml:"maxIdleConns"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	// Auth.APIKeys maps client id to API key. Auth is off when empty.
	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 90 * time.Second
	c.Server.CORSOrigins = []string{"*"}

	c.AI.BaseURL = "https://openrouter.ai/api/v1"
	c.AI.Referer = "https://github.com/bryanwahyu/therapy-advisor"
	c.AI.Title = "Therapy Advisor"
	c.AI.Timeout = 30 * time.Second
	c.AI.AnalysisModels = []string{
		"google/gemini-2.0-flash-exp:free",
		"meta-llama/llama-3.2-11b-vision-instruct:free",
		"qwen/qwen2.5-vl-72b-instruct:free",
	}
	c.AI.QuestionModels = []string{
		"google/gemini-2.0-flash-exp:free",
		"meta-llama/llama-3.1-8b-instruct:free",
		"mistralai/mistral-7b-instruct:free",
	}

	c.Database.SSLMode = "disable"
	c.Database.MaxOpenConns = 10
	c.Database.MaxIdleConns = 5

	c.Minio.BucketName = "therapy-photos"
	c.Minio.Region = "us-east-1"

	c.RateLimit.Capacity = 30
	c.RateLimit.RefillPerSecond = 1

	c.Log.Level = "info"
	return &c
}

// PathFromEnv returns CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the yaml file at path over the defaults, then applies env overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.AI.APIKey, "OPENROUTER_API_KEY")
	setString(&c.AI.APIKey, "AI_API_KEY")
	setString(&c.AI.BaseURL, "AI_BASE_URL")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("AI_ANALYSIS_MODELS"); v != "" {
		c.AI.AnalysisModels = splitList(v)
	}
	if v := os.Getenv("AI_QUESTION_MODELS"); v != "" {
		c.AI.QuestionModels = splitList(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	return nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: want mysql, postgres or empty", c.Database.Driver))
	}
	if _, err := url.Parse(c.AI.BaseURL); err != nil || c.AI.BaseURL == "" {
		errs = append(errs, fmt.Errorf("ai.baseURL %q is not a valid URL", c.AI.BaseURL))
	}
	if c.AI.Timeout < 0 {
		errs = append(errs, errors.New("ai.timeout must not be negative"))
	}
	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("minio.endpoint is required when minio is enabled"))
	}
	return errors.Join(errs...)
}

// MySQLDSN builds a go-sql-driver/mysql DSN.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
