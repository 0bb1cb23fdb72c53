package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5435"`
	PGUser      string `env:"PGUSER" envDefault:"pickline"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"pickline"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"pickline"`

	// Pipeline thresholds
	EdgeThreshold float64 `env:"EDGE_THRESHOLD" envDefault:"0.03"`
	// STALE_SNAPSHOT_SECONDS is the legacy name for the same knob; the
	// max-age variant wins when both are set.
	StaleSnapshotMaxAgeSeconds  int     `env:"STALE_SNAPSHOT_MAX_AGE_SECONDS" envDefault:"0"`
	StaleSnapshotSeconds        int     `env:"STALE_SNAPSHOT_SECONDS" envDefault:"0"`
	ConsensusMinBooks           int     `env:"CONSENSUS_MIN_BOOKS" envDefault:"3"`
	ConsensusTrimOutliers       bool    `env:"CONSENSUS_TRIM_OUTLIERS" envDefault:"true"`
	CloseCaptureWindowMinutes   int     `env:"CLOSE_CAPTURE_WINDOW_MINUTES" envDefault:"10"`
	MappingTimeToleranceMinutes int     `env:"MAPPING_TIME_TOLERANCE_MINUTES" envDefault:"15"`
	MappingConfidenceThreshold  float64 `env:"MAPPING_CONFIDENCE_THRESHOLD" envDefault:"0.9"`

	// Model artifacts
	ArtifactDir string `env:"MODEL_ARTIFACT_DIR" envDefault:"artifacts"`

	// JWT (admin endpoints only)
	JWTSecret      string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTAdminExpiry string `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3100"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// StaleMaxAge resolves the two stale-odds knobs to a duration.
func (c *Config) StaleMaxAge() time.Duration {
	switch {
	case c.StaleSnapshotMaxAgeSeconds > 0:
		return time.Duration(c.StaleSnapshotMaxAgeSeconds) * time.Second
	case c.StaleSnapshotSeconds > 0:
		return time.Duration(c.StaleSnapshotSeconds) * time.Second
	default:
		return 180 * time.Second
	}
}

// CloseCaptureWindow is the closing-line capture window before tip-off.
func (c *Config) CloseCaptureWindow() time.Duration {
	return time.Duration(c.CloseCaptureWindowMinutes) * time.Minute
}

// MappingTimeTolerance is the start-time agreement window for normalization.
func (c *Config) MappingTimeTolerance() time.Duration {
	return time.Duration(c.MappingTimeToleranceMinutes) * time.Minute
}
