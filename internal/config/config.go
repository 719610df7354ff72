package config

import (
	"os"

	"github.com/joho/godotenv"
)

// DefaultAddr matches the port the protocol has always lived on.
const DefaultAddr = "127.0.0.1:501"

type Config struct {
	Addr        string // TCP listen address for the chat protocol
	OpsAddr     string // HTTP ops address, empty disables the endpoint
	DatabaseURL string
	RedisURL    string
}

// Load reads .env.local, then .env, then the environment.
func Load() *Config {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	return &Config{
		Addr:        getenv("CHAT_ADDR", DefaultAddr),
		OpsAddr:     os.Getenv("OPS_ADDR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
