// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	Port      string `env:"PORT" envDefault:"8081"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-insecure-secret-change"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"72h"`

	DB     Database `envPrefix:"DB_"`
	Google Google   `envPrefix:"GOOGLE_"`
	SMTP   SMTP     `envPrefix:"SMTP_"`
	MinIO  MinIO    `envPrefix:"MINIO_"`

	InternalAPIKeys []string `env:"INTERNAL_API_KEYS" envSeparator:","`
	APIKeyReact     string   `env:"INTERNAL_API_KEY_REACT"`
	APIKeyServiceA  string   `env:"INTERNAL_API_KEY_SERVICE_A"`

	UploadBase    string `env:"UPLOAD_BASE" envDefault:"uploads"`
	AvatarBackend string `env:"AVATAR_BACKEND" envDefault:"local"`
}

// Database contains database connection parameters.
type Database struct {
	DSN         string `env:"DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

// Google contains OAuth client credentials for Google sign-in.
type Google struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// Configured reports whether both client id and secret are present.
func (g Google) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// SMTP contains outbound mail parameters. An empty Host disables delivery.
type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@cashmate.my.id"`
	FromName string `env:"FROM_NAME" envDefault:"Tim Cashmate"`
}

// MinIO contains object storage parameters used when AVATAR_BACKEND=minio.
type MinIO struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"cashmate-avatars"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	PublicURL string `env:"PUBLIC_URL"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether diagnostic details must be hidden.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// APIKeys returns every configured internal API key, skipping blanks.
func (c *Config) APIKeys() []string {
	keys := make([]string, 0, len(c.InternalAPIKeys)+2)
	for _, k := range append(append([]string{}, c.InternalAPIKeys...), c.APIKeyReact, c.APIKeyServiceA) {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
