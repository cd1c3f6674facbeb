package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	App       AppConfig       `mapstructure:"app"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"` // postgres, sqlite
	DSN              string        `mapstructure:"dsn"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	MailQueue string `mapstructure:"mail_queue"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"` // confirm / reset-password links
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// AppConfig 业务参数
type AppConfig struct {
	AdminEmail          string         `mapstructure:"admin_email"`
	PhotoPerPage        int            `mapstructure:"photo_per_page"`
	CommentPerPage      int            `mapstructure:"comment_per_page"`
	NotificationPerPage int            `mapstructure:"notification_per_page"`
	UserPerPage         int            `mapstructure:"user_per_page"`
	SearchPerPage       int            `mapstructure:"search_per_page"`
	MaxPageSize         int            `mapstructure:"max_page_size"`
	ExploreSampleSize   int            `mapstructure:"explore_sample_size"`
	TrendingTagLimit    int            `mapstructure:"trending_tag_limit"`
	UploadPath          string         `mapstructure:"upload_path"`
	MaxUploadBytes      int64          `mapstructure:"max_upload_bytes"`
	PhotoSizes          map[string]int `mapstructure:"photo_sizes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data-dev.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.statement_timeout", 5*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.mail_queue", "albumy:mail")

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.access_ttl", 24*time.Hour)
	v.SetDefault("jwt.token_ttl", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("tracing.service_name", "albumy")
	v.SetDefault("tracing.endpoint", "localhost:4318")

	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("app.admin_email", "admin@albumy.local")
	v.SetDefault("app.photo_per_page", 12)
	v.SetDefault("app.comment_per_page", 15)
	v.SetDefault("app.notification_per_page", 20)
	v.SetDefault("app.user_per_page", 20)
	v.SetDefault("app.search_per_page", 20)
	v.SetDefault("app.max_page_size", 100)
	v.SetDefault("app.explore_sample_size", 12)
	v.SetDefault("app.trending_tag_limit", 10)
	v.SetDefault("app.upload_path", "uploads")
	v.SetDefault("app.max_upload_bytes", 3*1024*1024)
	v.SetDefault("app.photo_sizes", map[string]int{"small": 400, "medium": 800})
}

// Load 读取 config/config.yaml（可选）并用 ALBUMY_* 环境变量覆盖
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ALBUMY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
