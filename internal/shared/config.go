package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	JWTSecret     string
	GatewayBase   string // empty = use built-in simulator
	GatewayKey    string
	GatewayRPS    int
	NotifyWorkers int
	SeedWorkers   int
	SeedFile      string
	CacheTTL      time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":3001"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reserva?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		JWTSecret:     env("JWT_SECRET", ""),
		GatewayBase:   env("GATEWAY_BASE_URL", ""),
		GatewayKey:    env("GATEWAY_API_KEY", ""),
		GatewayRPS:    atoi("GATEWAY_RPS", 5),
		NotifyWorkers: atoi("NOTIFY_WORKERS", 4),
		SeedWorkers:   atoi("SEED_WORKERS", 8),
		SeedFile:      env("SEED_FILE", "seed/hotels.json"),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; bearer tokens will not verify")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
