package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-brackets/db"
	"github.com/Dosada05/tournament-brackets/storage"
	"github.com/joho/godotenv"
)

// Config holds everything the server and the migrate command read from the environment.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	ServerPort     int

	// RandomSeed seeds bracket shuffling; 0 seeds from the clock.
	RandomSeed int64

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string

	R2 storage.CloudflareR2UploaderConfig
}

// SnapshotsEnabled reports whether every R2 setting is present.
func (c *Config) SnapshotsEnabled() bool {
	return c.R2.IsComplete()
}

// Load reads the configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	driver := getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = db.DriverPostgres
	}
	if driver != db.DriverPostgres && driver != db.DriverSQLite {
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, driver)
	}

	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var seed int64
	if s := getenv("RANDOM_SEED"); s != "" {
		seed, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RANDOM_SEED environment variable: %w", err)
		}
	}

	rps := 5.0
	if s := getenv("RATE_LIMIT_RPS"); s != "" {
		rps, err = strconv.ParseFloat(s, 64)
		if err != nil || rps <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RPS must be a positive number, got %q", s)
		}
	}
	burst := 10
	if s := getenv("RATE_LIMIT_BURST"); s != "" {
		burst, err = strconv.Atoi(s)
		if err != nil || burst <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer, got %q", s)
		}
	}

	origins := []string{"*"}
	if s := getenv("CORS_ALLOWED_ORIGINS"); s != "" {
		origins = origins[:0]
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	cfg := &Config{
		DatabaseDriver:     driver,
		DatabaseURL:        dbURL,
		ServerPort:         port,
		RandomSeed:         seed,
		RateLimitRPS:       rps,
		RateLimitBurst:     burst,
		CORSAllowedOrigins: origins,
		R2: storage.CloudflareR2UploaderConfig{
			AccountID:       getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	return cfg, nil
}
