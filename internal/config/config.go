package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort          string
	DBDriver         string
	DBDSN            string
	JWTSecret        string
	JWTExpiresMin    int
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	MessageMaxLength int
	CORSOrigins      string
}

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "10080"))
	redisDB, _ := strconv.Atoi(get("REDIS_DB", "0"))
	maxLen, _ := strconv.Atoi(get("MESSAGE_MAX_LENGTH", "2000"))
	return Config{
		AppPort:          get("APP_PORT", "8080"),
		DBDriver:         get("DB_DRIVER", "postgres"),
		DBDSN:            must("DB_DSN"),
		JWTSecret:        must("JWT_SECRET"),
		JWTExpiresMin:    expires,
		RedisAddr:        get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    get("REDIS_PASSWORD", ""),
		RedisDB:          redisDB,
		MessageMaxLength: maxLen,
		CORSOrigins:      get("CORS_ORIGINS", "http://127.0.0.1:3000, http://localhost:3000"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

// ClientConfig configures the terminal chat client.
type ClientConfig struct {
	APIURL       string
	Email        string
	Password     string
	PollInterval time.Duration
}

func LoadClient() ClientConfig {
	poll, err := time.ParseDuration(get("FARMHAND_POLL", "5s"))
	if err != nil || poll <= 0 {
		poll = 5 * time.Second
	}
	return ClientConfig{
		APIURL:       get("FARMHAND_API", "http://localhost:8080"),
		Email:        get("FARMHAND_EMAIL", ""),
		Password:     get("FARMHAND_PASSWORD", ""),
		PollInterval: poll,
	}
}
