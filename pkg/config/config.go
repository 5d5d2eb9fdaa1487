// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Path to the gateway configuration document
	ConfigFile string

	// Token signing
	SecretKey string
	TokenTTL  time.Duration
}

const devSecretKey = "dev-secret-change-me"

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:        env("TINYGATE_ENV", "dev"),
		HTTPAddr:   env("TINYGATE_HTTP_ADDR", ":8080"),
		ConfigFile: env("TINYGATE_CONFIG", "config/gateway.yml"),
		SecretKey:  env("TINYGATE_SECRET_KEY", ""),
		TokenTTL:   envDur("TINYGATE_TOKEN_TTL_MIN", 30) * time.Minute,
	}
	if cfg.SecretKey == "" {
		log.Println("[WARN] TINYGATE_SECRET_KEY not set — using a well-known dev key; tokens are forgeable")
		cfg.SecretKey = devSecretKey
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		if i > 0 {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}
