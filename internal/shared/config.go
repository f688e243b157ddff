package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	StoreDriver    string // mysql|memory
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	RequestTimeout time.Duration
	CORSOrigin     string
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Real environment variables win over .env.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be parsed")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		StoreDriver:    env("STORE_DRIVER", "mysql"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/lobby?parseTime=true&clientFoundRows=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		RateLimitRPS:   atoi("RATE_LIMIT_RPS", 50),
		RateLimitBurst: atoi("RATE_LIMIT_BURST", 100),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		CORSOrigin:     env("CORS_ORIGIN", "http://localhost:3000"),
	}
	if c.StoreDriver != "mysql" && c.StoreDriver != "memory" {
		log.Warn().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER, using mysql")
		c.StoreDriver = "mysql"
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, room cache disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
