// Package config отвечает за чтение настроек сервиса из флагов и переменных окружения.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config содержит настройки приложения
type Config struct {
	RunAddr         string
	GRPCAddr        string
	BaseURL         string
	FileStoragePath string
	DatabaseDSN     string
	JWTSecret       string
	TrustedSubnet   string
	TrustedProxy    string
	RateLimit       float64
	CookieTTL       time.Duration
	LogLevel        string
}

// Значения по умолчанию
const (
	DefaultRunAddr         = ":8080"
	DefaultGRPCAddr        = ":3200"
	DefaultBaseURL         = "https://www.bilibili.com"
	DefaultFileStoragePath = "internal/storage/videos.json"
	DefaultJWTSecret       = "default_jwt_secret"
	DefaultRateLimit       = 50
	DefaultCookieTTL       = 24 * time.Hour
	DefaultLogLevel        = "info"
)

// NewConfig создаёт конфигурацию из аргументов командной строки и окружения
func NewConfig() (*Config, error) {
	return Load(os.Args[1:], os.Getenv)
}

// Load разбирает флаги и переменные окружения; переменные окружения имеют приоритет
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("avbv", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddr, "a", DefaultRunAddr, "address and port to run HTTP server")
	fs.StringVar(&cfg.GRPCAddr, "g", DefaultGRPCAddr, "address and port to run gRPC server")
	fs.StringVar(&cfg.BaseURL, "b", DefaultBaseURL, "base URL of video pages")
	fs.StringVar(&cfg.FileStoragePath, "f", DefaultFileStoragePath, "path to file for storing conversion history")
	fs.StringVar(&cfg.DatabaseDSN, "d", "", "database DSN for PostgreSQL")
	fs.StringVar(&cfg.JWTSecret, "j", DefaultJWTSecret, "JWT secret key")
	fs.StringVar(&cfg.TrustedSubnet, "t", "", "trusted subnet in CIDR notation")
	fs.StringVar(&cfg.TrustedProxy, "p", "", "reverse proxy subnet in CIDR notation whose X-Real-IP is trusted by the rate limiter")
	fs.Float64Var(&cfg.RateLimit, "r", DefaultRateLimit, "requests per second per client, 0 disables limiting")
	fs.DurationVar(&cfg.CookieTTL, "c", DefaultCookieTTL, "auth cookie TTL")
	fs.StringVar(&cfg.LogLevel, "l", DefaultLogLevel, "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Проверяем переменные окружения
	if addr := getenv("SERVER_ADDRESS"); addr != "" {
		cfg.RunAddr = addr
	}
	if addr := getenv("GRPC_ADDRESS"); addr != "" {
		cfg.GRPCAddr = addr
	}
	if url := getenv("BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	if path := getenv("FILE_STORAGE_PATH"); path != "" {
		cfg.FileStoragePath = path
	}
	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if secret := getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if subnet := getenv("TRUSTED_SUBNET"); subnet != "" {
		cfg.TrustedSubnet = subnet
	}
	if proxy := getenv("TRUSTED_PROXY"); proxy != "" {
		cfg.TrustedProxy = proxy
	}
	if limit := getenv("RATE_LIMIT"); limit != "" {
		v, err := strconv.ParseFloat(limit, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", limit, err)
		}
		cfg.RateLimit = v
	}
	if ttl := getenv("COOKIE_TTL"); ttl != "" {
		v, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid COOKIE_TTL %q: %w", ttl, err)
		}
		cfg.CookieTTL = v
	}

	if level := getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	// Валидация значений
	cfg.RunAddr = normalizeAddress(cfg.RunAddr)
	cfg.GRPCAddr = normalizeAddress(cfg.GRPCAddr)
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative, got %v", cfg.RateLimit)
	}
	if cfg.FileStoragePath != "" {
		// Создаём директорию для файла, если она не существует
		if err := os.MkdirAll(filepath.Dir(cfg.FileStoragePath), 0755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func normalizeAddress(addr string) string {
	if addr != "" && !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

func normalizeBaseURL(url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return strings.TrimRight(url, "/")
}
