package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
}

// RedisConfig enables the update-count cache when Host is set.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CountTTL time.Duration `mapstructure:"count_ttl"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// SyncConfig configures the board client used by boardctl.
type SyncConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	Token          string        `mapstructure:"token"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PushgatewayURL string        `mapstructure:"pushgateway_url"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "orderlyflow")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5431")
	v.SetDefault("database.user", "orderly_user")
	v.SetDefault("database.password", "orderly_pass")
	v.SetDefault("database.name", "orderly_db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrate", true)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.count_ttl", "10m")

	v.SetDefault("jwt.secret", "supersecretkey")
	v.SetDefault("jwt.issuer", "orderlyflow")
	v.SetDefault("jwt.expiry", 24*time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 300)
	v.SetDefault("security.rate_limit_window", "1m")

	v.SetDefault("sync.api_url", "http://localhost:8080/api")
	v.SetDefault("sync.timeout", "10s")
}

var envBindings = map[string]string{
	"app.environment":               "APP_ENV",
	"server.port":                   "SERVER_PORT",
	"server.read_timeout":           "SERVER_READ_TIMEOUT",
	"server.write_timeout":          "SERVER_WRITE_TIMEOUT",
	"server.shutdown_timeout":       "SERVER_SHUTDOWN_TIMEOUT",
	"database.host":                 "DB_HOST",
	"database.port":                 "DB_PORT",
	"database.user":                 "DB_USER",
	"database.password":             "DB_PASSWORD",
	"database.name":                 "DB_NAME",
	"database.ssl_mode":             "DB_SSL_MODE",
	"database.max_open_conns":       "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":       "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime":    "DB_CONN_MAX_LIFETIME",
	"database.migrate":              "DB_MIGRATE",
	"redis.host":                    "REDIS_HOST",
	"redis.port":                    "REDIS_PORT",
	"redis.password":                "REDIS_PASSWORD",
	"redis.db":                      "REDIS_DB",
	"redis.count_ttl":               "REDIS_COUNT_TTL",
	"jwt.secret":                    "JWT_SECRET",
	"jwt.issuer":                    "JWT_ISSUER",
	"jwt.expiry":                    "JWT_EXPIRY",
	"logger.level":                  "LOG_LEVEL",
	"logger.format":                 "LOG_FORMAT",
	"logger.output":                 "LOG_OUTPUT",
	"security.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
	"security.rate_limit_requests":  "RATE_LIMIT_REQUESTS",
	"security.rate_limit_window":    "RATE_LIMIT_WINDOW",
	"sync.api_url":                  "ORDERLY_API_URL",
	"sync.token":                    "ORDERLY_TOKEN",
	"sync.timeout":                  "SYNC_TIMEOUT",
	"sync.pushgateway_url":          "ORDERLY_PUSHGATEWAY_URL",
}

func bindEnvVars(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Database.Host == "" || cfg.Database.Name == "" {
		return fmt.Errorf("database host and name are required")
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if cfg.Sync.Timeout <= 0 {
		return fmt.Errorf("sync timeout must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

// URL is the migrate-style connection string.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c *RedisConfig) Enabled() bool { return c.Host != "" }

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c *SecurityConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
