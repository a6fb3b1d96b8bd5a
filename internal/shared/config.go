package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	NominatimBase string
	NominatimUA   string
	RakutenBase   string
	RakutenAppID  string
	ExternalRPS   int

	JWTSecret       string
	ExternalTimeout time.Duration
	CacheTTL        time.Duration
	PickerStore     string // memory|redis
	PickerTTL       time.Duration
	Workers         int
}

// Load reads the environment, after merging a .env file when one exists.
// Variables already set win over the file.
func Load() Config {
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Msg("ignoring non-numeric value")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", ""),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		NominatimBase: env("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUA:   env("NOMINATIM_USER_AGENT", "midway-hotel/1.0"),
		RakutenBase:   env("RAKUTEN_BASE_URL", "https://app.rakuten.co.jp/services/api/Travel/VacantHotelSearch/20170426"),
		RakutenAppID:  env("RAKUTEN_APP_ID", ""),
		ExternalRPS:   atoi("EXTERNAL_RPS", 1),

		JWTSecret:       env("JWT_SECRET", ""),
		ExternalTimeout: time.Duration(atoi("EXTERNAL_TIMEOUT_SECONDS", 10)) * time.Second,
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		PickerStore:     env("PICKER_STORE", "memory"),
		PickerTTL:       time.Duration(atoi("PICKER_TTL_HOURS", 24)) * time.Hour,
		Workers:         atoi("SEARCH_WORKERS", 4),
	}
	if c.RakutenAppID == "" {
		log.Warn().Msg("RAKUTEN_APP_ID is empty; hotel searches will fail with a configuration error")
	}
	if c.PickerStore == "redis" && c.RedisAddr == "" {
		log.Warn().Msg("PICKER_STORE=redis without REDIS_ADDR; falling back to memory")
		c.PickerStore = "memory"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
