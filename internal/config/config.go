package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// tokenSecretPath is where Docker mounts the bot token secret.
var tokenSecretPath = "/run/secrets/telegram_bot_token"

type Config struct {
	Env string `validate:"oneof=development production test"`

	Bot      BotConfig
	Site     SiteConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Session  SessionConfig
	HTTP     HTTPConfig
	Log      LogConfig
}

type BotConfig struct {
	Token string `validate:"required"`
	Debug bool
}

// SiteConfig points at the university schedule site.
type SiteConfig struct {
	URL                 string `validate:"required,url"`
	SchedulePath        string `validate:"required"`
	TeacherSearchPath   string `validate:"required"`
	TeacherSchedulePath string `validate:"required"`
	FetchTimeout        time.Duration
	UserAgent           string
}

type DatabaseConfig struct {
	Driver string `validate:"oneof=sqlite postgres"`
	DSN    string `validate:"required"`
}

// RedisConfig is optional; an empty Addr disables the shared place cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	PlaceTTL        time.Duration
	RefreshInterval time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	PruneInterval time.Duration
}

type HTTPConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.Env = v.GetString("ENV")

	cfg.Bot = BotConfig{
		Token: botToken(v),
		Debug: v.GetBool("BOT_DEBUG"),
	}

	cfg.Site = SiteConfig{
		URL:                 v.GetString("SITE_URL"),
		SchedulePath:        v.GetString("SCHEDULE_PATH"),
		TeacherSearchPath:   v.GetString("TEACHER_SEARCH_PATH"),
		TeacherSchedulePath: v.GetString("TEACHER_SCHEDULE_PATH"),
		FetchTimeout:        parseDuration(v.GetString("FETCH_TIMEOUT"), 15*time.Second),
		UserAgent:           v.GetString("USER_AGENT"),
	}

	cfg.Database = DatabaseConfig{
		Driver: v.GetString("DB_DRIVER"),
		DSN:    v.GetString("DB_DSN"),
	}

	cfg.Redis = RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		PlaceTTL:        parseDuration(v.GetString("PLACE_CACHE_TTL"), 6*time.Hour),
		RefreshInterval: parseDuration(v.GetString("CACHE_REFRESH_INTERVAL"), time.Hour),
	}

	cfg.Session = SessionConfig{
		TTL:           parseDuration(v.GetString("SESSION_TTL"), 72*time.Hour),
		PruneInterval: parseDuration(v.GetString("SESSION_PRUNE_INTERVAL"), time.Hour),
	}

	cfg.HTTP = HTTPConfig{Addr: v.GetString("HTTP_ADDR")}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		if cfg.Bot.Token == "" {
			return nil, errors.New("bot token not found: neither docker secret nor TELEGRAM_BOT_TOKEN is set")
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("BOT_DEBUG", false)

	v.SetDefault("SITE_URL", "https://www.sgu.ru")
	v.SetDefault("SCHEDULE_PATH", "/schedule")
	v.SetDefault("TEACHER_SEARCH_PATH", "/schedule/teacher/search")
	v.SetDefault("TEACHER_SCHEDULE_PATH", "/schedule/teacher/")
	v.SetDefault("FETCH_TIMEOUT", "15s")
	v.SetDefault("USER_AGENT", "")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "/root/data/bot.db")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("PLACE_CACHE_TTL", "6h")
	v.SetDefault("CACHE_REFRESH_INTERVAL", "1h")
	v.SetDefault("SESSION_TTL", "72h")
	v.SetDefault("SESSION_PRUNE_INTERVAL", "1h")

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// botToken prefers the Docker secret over the environment.
func botToken(v *viper.Viper) string {
	if data, err := os.ReadFile(tokenSecretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN"))
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
