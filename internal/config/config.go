package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	RedisAddr string
	RedisPass string
	RedisDB   int
	CacheTTL  int

	JWTSecret  string
	JWTExpires string

	OddsAPIKey  string
	OddsAPIBase string

	OpenAIKey  string
	OpenAIBase string

	FeedURL string
	FeedKey string
}

func Load() *Config {
	_ = godotenv.Load()

	db, _ := strconv.Atoi(getenv("REDIS_DB", "0"))
	ttl, _ := strconv.Atoi(getenv("CACHE_TTL_SECONDS", "30"))

	c := &Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: getenv("DATABASE_URL", "postgres://localhost:5432/livebet?sslmode=disable"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   getenv("REDIS_PASSWORD", ""),
		RedisDB:     db,
		CacheTTL:    ttl,
		JWTSecret:   getenv("JWT_SECRET", ""),
		JWTExpires:  getenv("JWT_EXPIRES", "24h"),
		OddsAPIKey:  getenv("ODDS_API_KEY", ""),
		OddsAPIBase: getenv("ODDS_API_BASE", "https://api.the-odds-api.com/v4"),
		OpenAIKey:   getenv("OPENAI_API_KEY", ""),
		OpenAIBase:  getenv("OPENAI_BASE", "https://api.openai.com/v1"),
		FeedURL:     getenv("FEED_URL", ""),
		FeedKey:     getenv("FEED_KEY", ""),
	}

	if c.OddsAPIKey == "" {
		log.Println("WARNING: ODDS_API_KEY not set")
	}
	if c.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET not set, producer routes will reject all tokens")
	}
	return c
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
