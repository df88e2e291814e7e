// Package config holds the environment-backed runtime configuration and the
// gamification tuning constants.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config collects every value the service reads from the environment.
type Config struct {
	ListenAddr string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	// AdminEmails is the static allow-list consulted once, at account
	// provisioning time. The role stored on the user is authoritative after
	// that.
	AdminEmails []string

	// TelegramBotToken and TelegramAdminChatID enable the optional admin
	// notifier; both empty disables it.
	TelegramBotToken    string
	TelegramAdminChatID string

	// Cloudinary unsigned upload settings.
	CloudinaryCloudName    string
	CloudinaryUploadPreset string

	GeocoderBaseURL string
}

// Load reads the configuration from the environment. Callers are expected to
// have loaded .env (godotenv) beforehand.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:             getEnv("LISTEN_ADDR", ":8080"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBUser:                 getEnv("DB_USER", "user"),
		DBPassword:             getEnv("DB_PASSWORD", "password"),
		DBName:                 getEnv("DB_NAME", "civicpulse"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAdminChatID:    os.Getenv("TELEGRAM_ADMIN_CHAT_ID"),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		GeocoderBaseURL:        getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	for _, email := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		email = strings.TrimSpace(email)
		if email != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, email)
		}
	}

	return cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// IsAdminEmail reports whether email is on the admin allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
