package config // package config loads application configuration from environment variables

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The hosted platform (auth + data store) is
// reached with the URL/key pair below; everything else tunes local
// behaviour.
type Config struct {
	Env     string // application environment (e.g. "development", "production")
	Port    string // HTTP port to listen on
	BaseURL string // externally visible base URL of this API
	Debug   bool   // enables permissive CORS and verbose logging

	PlatformURL     string // base URL of the hosted backend project
	PlatformAnonKey string // public API key sent with every platform request
	PlatformSvcKey  string // service-role key for admin operations (optional)

	JWTSecret      string // secret the platform signs access tokens with
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days

	CORSOrigins []string // allowed CORS origins

	S3Bucket   string // object storage bucket for uploads (optional)
	S3Region   string // object storage region
	S3AccessID string // object storage access key id
	S3Secret   string // object storage secret key

	RabbitURL string // AMQP broker URL for domain events (optional)
}

// Load reads configuration values from environment variables and returns a
// Config. A .env file in the working directory is honoured when present.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // best effort; real deployments set the environment directly

	cfg := Config{
		Env:             envStr("APP_ENV", "development"),
		Port:            envStr("PORT", "8000"),
		BaseURL:         envStr("BASE_URL", "http://localhost:8000"),
		Debug:           envBool("DEBUG", true),
		PlatformURL:     must("SUPABASE_URL"),
		PlatformAnonKey: must("SUPABASE_ANON_KEY"),
		PlatformSvcKey:  os.Getenv("SUPABASE_SERVICE_ROLE_KEY"), // optional
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays:  envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        envStr("S3_REGION", "eu-central-1"),
		S3AccessID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3Secret:        os.Getenv("S3_SECRET_ACCESS_KEY"),
		RabbitURL:       os.Getenv("RABBITMQ_URL"),
	}

	if cfg.JWTSecret == "" {
		// Tokens from the hosted auth service cannot be verified without the
		// project secret. Generate one so local development still boots, but
		// warn loudly: a generated secret rejects every real platform token.
		cfg.JWTSecret = randomSecret()
		logrus.Warn("JWT_SECRET is not set; generated a random secret (platform-issued tokens will not verify)")
	}

	cfg.CORSOrigins = corsOrigins(cfg.Debug)
	return cfg
}

// corsOrigins returns the allowed origins: the fixed production origin plus
// localhost variants, extendable via CORS_ORIGINS. Debug mode allows
// everything.
func corsOrigins(debug bool) []string {
	if debug {
		return []string{"*"}
	}
	origins := []string{
		"https://app.rentora.io",
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
	}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return origins
}

// randomSecret returns 48 bytes of secure random data as a hex string.
func randomSecret() string {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		logrus.WithError(err).Fatal("secure random source unavailable")
	}
	return hex.EncodeToString(buf)
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}
