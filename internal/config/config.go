package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Ledger   LedgerConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Report   ReportConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
	// Format is "json" or "console".
	Format string
}

type LedgerConfig struct {
	TxTimeout        time.Duration
	MaxRetryAttempts int
	MaxBulkOps       int
}

type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	ExpMinutes int
}

type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type ReportConfig struct {
	LowStockThreshold int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; configFile, when set, is merged before the
// environment so env vars still win.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_PORT", 5000)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "stockroom")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LEDGER_TX_TIMEOUT", "5s")
	v.SetDefault("LEDGER_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("LEDGER_MAX_BULK_OPERATIONS", 100)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "stockroom")
	v.SetDefault("JWT_EXP_MINUTES", 480)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("LOW_STOCK_THRESHOLD", 50)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_CONN_MAX_LIFETIME: %w", err)
	}

	txTimeout, err := time.ParseDuration(v.GetString("LEDGER_TX_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("parsing LEDGER_TX_TIMEOUT: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("parsing CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Ledger: LedgerConfig{
			TxTimeout:        txTimeout,
			MaxRetryAttempts: v.GetInt("LEDGER_MAX_RETRY_ATTEMPTS"),
			MaxBulkOps:       v.GetInt("LEDGER_MAX_BULK_OPERATIONS"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			Issuer:     v.GetString("JWT_ISSUER"),
			ExpMinutes: v.GetInt("JWT_EXP_MINUTES"),
		},
		Cache: CacheConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           cacheTTL,
		},
		Report: ReportConfig{
			LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		},
	}

	if cfg.Ledger.MaxRetryAttempts < 1 {
		cfg.Ledger.MaxRetryAttempts = 1
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
