package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"npay-compare/internal/publicdata"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxUploadMB  int

	APIKey         string
	BaseURL        string
	FallbackURL    string
	ProxyURL       string
	FeedTimeout    time.Duration
	FeedRows       int
	SampleFallback bool

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	ItemsCacheTTL     time.Duration
	HospitalsCacheTTL time.Duration
}

func Load() Config {
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         getint("PORT", 8082),
		AllowOrigins: strings.Split(getenv("ALLOW_ORIGINS", "*"), ","),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFile:      getenv("LOG_FILE", "logs/npay-compare.log"),
		MaxUploadMB:  getint("MAX_UPLOAD_MB", 16),

		APIKey:         os.Getenv("PUBLIC_DATA_API_KEY"),
		BaseURL:        getenv("PUBLIC_DATA_BASE_URL", "https://apis.data.go.kr/B551182"),
		FallbackURL:    getenv("PUBLIC_DATA_FALLBACK_URL", "http://apis.data.go.kr/B551182"),
		ProxyURL:       os.Getenv("PUBLIC_DATA_PROXY_URL"),
		FeedTimeout:    getdur("FEED_TIMEOUT", 15*time.Second),
		FeedRows:       getint("FEED_ROWS", 1000),
		SampleFallback: getbool("SAMPLE_FALLBACK", false),

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getint("REDIS_DB", 0),
		ItemsCacheTTL:     getdur("ITEMS_CACHE_TTL", time.Hour),
		HospitalsCacheTTL: getdur("HOSPITALS_CACHE_TTL", 2*time.Minute),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c Config) PublicData() publicdata.Config {
	return publicdata.Config{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		FallbackURL: c.FallbackURL,
		ProxyURL:    c.ProxyURL,
		Rows:        c.FeedRows,
		Timeout:     c.FeedTimeout,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return def
	}
	return n
}

func getdur(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(k, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getbool(k string, def bool) bool {
	b, err := strconv.ParseBool(getenv(k, ""))
	if err != nil {
		return def
	}
	return b
}
