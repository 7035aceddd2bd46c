package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all service configuration, parsed once at startup and
// handed to constructors. Nothing reads the environment after this.
type Config struct {
	Port           string `env:"PORT" envDefault:"5000"`
	CORSOrigin     string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`
	UseMemoryStore bool   `env:"USE_MEMORY_STORE" envDefault:"false"`

	JWT      JWT      `envPrefix:"JWT_"`
	Database Database `envPrefix:"DB_"`
	Security Security `envPrefix:""`
	OTP      OTP      `envPrefix:"OTP_"`
	Email    Email    `envPrefix:"EMAIL_"`
	SMS      SMS      `envPrefix:"TWILIO_"`
	Media    Media    `envPrefix:"MEDIA_"`
}

// JWT contains auth token parameters.
type JWT struct {
	Secret string        `env:"SECRET"`
	Expiry time.Duration `env:"EXPIRATION" envDefault:"24h"`
}

// Database contains Postgres connection parameters.
type Database struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASS"`
	Name     string `env:"NAME" envDefault:"gorefurbish"`
}

// Security contains the credential-protection key material.
type Security struct {
	// Hex-encoded 32-byte AES key. When empty a random process-lifetime
	// key is generated, which makes previously stored ciphertext
	// unrecoverable after a restart.
	EncryptionKey string `env:"ENCRYPTION_KEY"`
}

// OTP contains the one-time-code policy.
type OTP struct {
	TTL        time.Duration `env:"TTL" envDefault:"10m"`
	SweepEvery time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
}

// Email contains SMTP delivery parameters.
type Email struct {
	Host     string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port     string `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASS"`
	From     string `env:"FROM_NAME" envDefault:"GoRefurbish"`
}

// SMS contains the optional Twilio delivery channel parameters.
type SMS struct {
	AccountSID string `env:"ACCOUNT_SID"`
	AuthToken  string `env:"AUTH_TOKEN"`
	From       string `env:"PHONE_NUMBER"`
}

// Media contains S3-compatible object storage parameters for product images.
type Media struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"gorefurbish-products"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	PublicURL string `env:"PUBLIC_URL"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
