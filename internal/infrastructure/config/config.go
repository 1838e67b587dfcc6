package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/eslsoft/oghmai/internal/entity"
)

// Config holds all configuration for our application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Challenge  ChallengeConfig  `mapstructure:"challenge"`
	Review     ReviewConfig     `mapstructure:"review"`
	Recycle    RecycleConfig    `mapstructure:"recycle"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Generation GenerationConfig `mapstructure:"generation"`
	Prompts    PromptsConfig    `mapstructure:"prompts"`
	Log        LogConfig        `mapstructure:"log"`
}

// AppConfig holds product-level settings.
type AppConfig struct {
	DefaultLanguage string `mapstructure:"default_language" validate:"len=2"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	HTTPPort     int           `mapstructure:"http_port" validate:"gt=0,lt=65536"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	UserHeader   string        `mapstructure:"user_header" validate:"required"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=sqlite3 postgres pgx"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// RedisConfig holds the challenge store connection.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ChallengeConfig controls the riddle lifecycle.
type ChallengeConfig struct {
	Store     string        `mapstructure:"store" validate:"oneof=sql redis"`
	TTL       time.Duration `mapstructure:"ttl" validate:"gt=0"`
	MaxMisses int           `mapstructure:"max_misses" validate:"gte=0"`
}

// ReviewConfig maps mastery levels to review intervals in days.
type ReviewConfig struct {
	Intervals map[string]int `mapstructure:"intervals"`
}

// RecycleConfig controls the soft-delete holding area.
type RecycleConfig struct {
	Retention     time.Duration `mapstructure:"retention" validate:"gt=0"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// LLMConfig configures the OpenAI-compatible text generation endpoint.
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// GenerationConfig tunes the resilient generation pipeline.
type GenerationConfig struct {
	MaxAttempts      int     `mapstructure:"max_attempts" validate:"gte=1"`
	Temperature      float64 `mapstructure:"temperature" validate:"gt=0,lte=2"`
	JudgeTemperature float64 `mapstructure:"judge_temperature" validate:"gt=0,lte=2"`
	MaxTokens        int     `mapstructure:"max_tokens" validate:"gt=0"`
}

// PromptsConfig points at an optional directory overriding the embedded templates.
type PromptsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	if viper.ConfigFileUsed() == "" {
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks struct constraints and the review schedule.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.ReviewIntervals(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Challenge.Store == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("invalid configuration: redis.addr is required when challenge.store is redis")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.default_language", "it")

	viper.SetDefault("server.host", "")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 90*time.Second)
	viper.SetDefault("server.user_header", "X-User-Id")
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.path", "oghmai.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "oghmai")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.log_sql", false)

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.key_prefix", "oghmai")

	viper.SetDefault("challenge.store", "sql")
	viper.SetDefault("challenge.ttl", time.Hour)
	viper.SetDefault("challenge.max_misses", 2)

	viper.SetDefault("review.intervals", map[string]int{
		string(entity.StatusNew):      1,
		string(entity.StatusLearned):  3,
		string(entity.StatusKnown):    7,
		string(entity.StatusMastered): 14,
	})

	viper.SetDefault("recycle.retention", 30*24*time.Hour)
	viper.SetDefault("recycle.purge_interval", 6*time.Hour)

	viper.SetDefault("llm.base_url", "https://api.openai.com")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", 60*time.Second)

	viper.SetDefault("generation.max_attempts", 3)
	viper.SetDefault("generation.temperature", 0.7)
	viper.SetDefault("generation.judge_temperature", 0.2)
	viper.SetDefault("generation.max_tokens", 500)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// DefaultLanguage returns the language used when a request does not name one.
func (c *Config) DefaultLanguage() entity.Language {
	return entity.Language(strings.ToLower(c.App.DefaultLanguage))
}

// ReviewIntervals converts the configured schedule into domain form.
func (c *Config) ReviewIntervals() (entity.ReviewIntervals, error) {
	if len(c.Review.Intervals) == 0 {
		return entity.DefaultReviewIntervals(), nil
	}
	out := make(entity.ReviewIntervals, len(c.Review.Intervals))
	for raw, days := range c.Review.Intervals {
		status, err := entity.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		if status == entity.StatusUnsaved {
			return nil, fmt.Errorf("%w: UNSAVED cannot be scheduled", entity.ErrInvalidStatus)
		}
		if days < 0 {
			return nil, fmt.Errorf("review interval for %s must not be negative", status)
		}
		out[status] = days
	}
	return out, nil
}

// DatabaseDriver returns the database/sql driver name.
func (c *Config) DatabaseDriver() string {
	return strings.ToLower(strings.TrimSpace(c.Database.Driver))
}

// DatabaseURL returns the DSN for the configured driver.
func (c *Config) DatabaseURL() string {
	if c.DatabaseDriver() == "sqlite3" {
		path := c.Database.Path
		if path == "" {
			path = "oghmai.db"
		}
		if strings.HasPrefix(path, "file:") {
			return path
		}
		return "file:" + path + "?_busy_timeout=5000&_fk=1"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
