package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultServerPort        = 8080
	defaultSimulatedMaxGoals = 4
	defaultPlayedMaxGoals    = 2
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Score generation bounds, inclusive.
	SimulatedMaxGoals int
	PlayedMaxGoals    int

	// SMTP for result notifications. Optional: empty host disables mail.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Cloudflare R2 object storage. Optional: empty account disables uploads.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// Chat-completions API for match commentary. Optional.
	CommentaryBaseURL string
	CommentaryAPIKey  string
	CommentaryModel   string
}

// Load reads configuration from environment variables, optionally seeding
// them from a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", defaultServerPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	simulatedMax, err := intEnv("SIMULATED_MAX_GOALS", defaultSimulatedMaxGoals)
	if err != nil {
		return nil, err
	}
	playedMax, err := intEnv("PLAYED_MAX_GOALS", defaultPlayedMaxGoals)
	if err != nil {
		return nil, err
	}
	if simulatedMax < 0 || playedMax < 0 {
		return nil, fmt.Errorf("goal bounds must be non-negative, got %d and %d", simulatedMax, playedMax)
	}

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,

		SimulatedMaxGoals: simulatedMax,
		PlayedMaxGoals:    playedMax,

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		CommentaryBaseURL: os.Getenv("COMMENTARY_API_BASE_URL"),
		CommentaryAPIKey:  os.Getenv("COMMENTARY_API_KEY"),
		CommentaryModel:   os.Getenv("COMMENTARY_MODEL"),
	}
	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
