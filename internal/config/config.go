package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	MongoURI      string
	MongoDatabase string
	CouchURL      string
	CouchDatabase string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AnalyticsCron string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "gudangkita"),
		CouchURL:      os.Getenv("COUCH_URL"),
		CouchDatabase: getEnv("COUCH_DATABASE", "gudangkita-archive"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		AnalyticsCron: getEnv("ANALYTICS_CRON", "*/3 * * * *"),
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
