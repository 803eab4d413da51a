package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	MongoURI               string
	MongoDB                string
	AuthSecret             string
	AccessTokenTTLMinutes  int
	DashboardPIN           string
	RefreshIntervalSeconds int
	StatsCacheTTLSeconds   int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	refresh, err := strconv.Atoi(getEnv("REFRESH_INTERVAL_SECONDS", "5"))
	if err != nil || refresh < 0 {
		refresh = 5
	}
	statsTTL, err := strconv.Atoi(getEnv("STATS_CACHE_TTL_SECONDS", "5"))
	if err != nil || statsTTL < 1 {
		statsTTL = 5
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		MongoURI:               os.Getenv("MONGO_URI"),
		MongoDB:                getEnv("MONGO_DB", "restodash"),
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		DashboardPIN:           strings.TrimSpace(os.Getenv("DASHBOARD_PIN")),
		RefreshIntervalSeconds: refresh,
		StatsCacheTTLSeconds:   statsTTL,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
