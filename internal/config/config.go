package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageSQLite = "sqlite"
	StorageMySQL  = "mysql"
)

type Config struct {
	Addr string

	StorageDriver string
	DatabasePath  string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPass        string
	DBName        string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	CentrifugoAPI     string
	CentrifugoKey     string
	CentrifugoHMACKey string
	ConnectTokenTTL   time.Duration
	SubscribeTokenTTL time.Duration

	CORSAllowedOrigins []string
	RedisURL           string

	AppEnv    string
	LogLevel  string
	LogFormat string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MySQLDSN builds the go-sql-driver DSN from the DB_* variables.
func (c Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func LoadFromEnv() (Config, error) {
	ttlMinutes := int64(1440) // 24h
	if v := os.Getenv("JWT_TTL_MINUTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ttlMinutes = n
		} else {
			fmt.Fprintf(os.Stderr, "WARNING: invalid JWT_TTL_MINUTES=%q, using default %d\n", v, ttlMinutes)
		}
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "beer-tasting"
	}

	cfg := Config{
		Addr:              os.Getenv("BACKEND_ADDR"),
		StorageDriver:     strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER"))),
		DatabasePath:      os.Getenv("DATABASE_PATH"),
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            os.Getenv("DB_PORT"),
		DBUser:            os.Getenv("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBName:            os.Getenv("DB_NAME"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTIssuer:         issuer,
		JWTTTL:            time.Duration(ttlMinutes) * time.Minute,
		CentrifugoAPI:     strings.TrimSpace(os.Getenv("CENTRIFUGO_API")),
		CentrifugoKey:     os.Getenv("CENTRIFUGO_KEY"),
		CentrifugoHMACKey: os.Getenv("CENTRIFUGO_HMAC_KEY"),
		ConnectTokenTTL:   durationFromEnv("CONNECT_TOKEN_TTL", 5*time.Minute),
		SubscribeTokenTTL: durationFromEnv("SUBSCRIBE_TOKEN_TTL", time.Hour),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		AppEnv:            strings.TrimSpace(os.Getenv("APP_ENV")),
		LogLevel:          strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		LogFormat:         strings.TrimSpace(os.Getenv("LOG_FORMAT")),
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageSQLite
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDevelopment() {
			cfg.LogFormat = "console"
		}
	}

	if v := os.Getenv("HTTP_CORS_ALLOWED_ORIGINS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, p)
			}
		}
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.CentrifugoHMACKey == "" {
		missing = append(missing, "CENTRIFUGO_HMAC_KEY")
	}
	switch cfg.StorageDriver {
	case StorageSQLite:
		if cfg.DatabasePath == "" {
			missing = append(missing, "DATABASE_PATH")
		}
	case StorageMySQL:
		for k, v := range map[string]string{"DB_HOST": cfg.DBHost, "DB_PORT": cfg.DBPort, "DB_USER": cfg.DBUser, "DB_NAME": cfg.DBName} {
			if v == "" {
				missing = append(missing, k)
			}
		}
	default:
		missing = append(missing, fmt.Sprintf("STORAGE_DRIVER (unsupported %q)", cfg.StorageDriver))
	}
	// BACKEND_ADDR is optional if PORT is set by the hosting environment.
	if cfg.Addr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			if strings.Contains(port, ":") {
				cfg.Addr = port
			} else {
				cfg.Addr = ":" + port
			}
		}
	}
	if cfg.Addr == "" {
		missing = append(missing, "BACKEND_ADDR (or PORT)")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing/invalid env: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// durationFromEnv accepts Go duration strings ("90s", "5m") or bare seconds.
func durationFromEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	fmt.Fprintf(os.Stderr, "WARNING: invalid %s=%q, using default %s\n", key, v, def)
	return def
}
