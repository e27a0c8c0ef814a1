package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	DBDSN         string
	Environment   string

	// Geofence anchor and radii.
	SchoolLat       float64
	SchoolLon       float64
	RadiusKm        float64
	ArrivalRadiusKm float64

	// Sensor platform.
	WebhookPort      int
	AntaresURLPost   string
	AntaresAccessKey string

	AdminChatID    int64
	MigrationsPath string
}

// Load reads configuration from the environment, optionally seeded by a
// local .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		DBDSN:            os.Getenv("DB_DSN"),
		Environment:      os.Getenv("ENV"),
		AntaresURLPost:   os.Getenv("ANTARES_URL_POST"),
		AntaresAccessKey: os.Getenv("ANTARES_ACCESS_KEY"),
		MigrationsPath:   os.Getenv("MIGRATIONS_PATH"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	var err error
	cfg.SchoolLat, cfg.SchoolLon, err = parseCoords(getEnvDefault("SCHOOL_COORDS", "0,0"))
	if err != nil {
		return nil, fmt.Errorf("parse SCHOOL_COORDS: %w", err)
	}

	cfg.RadiusKm, err = parseFloat("RADIUS_KM", 1.0)
	if err != nil {
		return nil, err
	}
	cfg.ArrivalRadiusKm, err = parseFloat("ARRIVAL_RADIUS_KM", 0.1)
	if err != nil {
		return nil, err
	}
	if cfg.ArrivalRadiusKm >= cfg.RadiusKm {
		return nil, fmt.Errorf("ARRIVAL_RADIUS_KM (%.3f) must be smaller than RADIUS_KM (%.3f)",
			cfg.ArrivalRadiusKm, cfg.RadiusKm)
	}

	port, err := strconv.Atoi(getEnvDefault("WEBHOOK_PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("parse WEBHOOK_PORT: %w", err)
	}
	cfg.WebhookPort = port

	if raw := os.Getenv("ADMIN_CHAT_ID"); raw != "" {
		cfg.AdminChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse ADMIN_CHAT_ID: %w", err)
		}
	}

	return cfg, nil
}

// parseCoords parses a "lat,lon" pair.
func parseCoords(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"lat,lon\", got %q", raw)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}

	return lat, lon, nil
}

func parseFloat(name string, def float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

func getEnvDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
