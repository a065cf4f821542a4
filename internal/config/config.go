package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIPort  int `mapstructure:"apiPort"`
	Database struct {
		Type       string `mapstructure:"type"` // "sqlite" or "postgres"
		Path       string `mapstructure:"path"`
		Host       string `mapstructure:"host"`
		Port       string `mapstructure:"port"`
		Name       string `mapstructure:"name"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		SSLMode    string `mapstructure:"sslMode"`
		WALMode    bool   `mapstructure:"walMode"`
		MaxRetries int    `mapstructure:"maxRetries"`
		RetryDelay int    `mapstructure:"retryDelay"`
	} `mapstructure:"database"`
	Auth struct {
		JWTSecret       string        `mapstructure:"jwtSecret"`
		AccessTokenTTL  time.Duration `mapstructure:"accessTokenTTL"`
		RefreshTokenTTL time.Duration `mapstructure:"refreshTokenTTL"`
	} `mapstructure:"auth"`
	Email struct {
		Enabled       bool   `mapstructure:"enabled"`
		APIKey        string `mapstructure:"apiKey"`
		From          string `mapstructure:"from"`
		VerifyBaseURL string `mapstructure:"verifyBaseURL"`
	} `mapstructure:"email"`
	S3 struct {
		Endpoint        string `mapstructure:"endpoint"`
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		AccessKeyID     string `mapstructure:"accessKeyId"`
		SecretAccessKey string `mapstructure:"secretAccessKey"`
	} `mapstructure:"s3"`
}

var (
	ErrMissingJWTSecret   = errors.New("auth.jwtSecret must be set")
	ErrMissingEmailAPIKey = errors.New("email.apiKey must be set when email is enabled")
)

// LoadConfig loads the configuration from file and environment variables.
// Missing secrets fail here, at startup, never on the request path.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %s. Using defaults or environment variables.", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIPort == 0 {
		cfg.APIPort = 8080
		log.Println("APIPort not specified, using default 8080")
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "data/vitrine.db"
		log.Println("Database path not specified, using default data/vitrine.db")
	}
	if !v.IsSet("database.walMode") {
		cfg.Database.WALMode = true
	}
	if cfg.Database.MaxRetries == 0 {
		cfg.Database.MaxRetries = 5
	}
	if cfg.Database.RetryDelay == 0 {
		cfg.Database.RetryDelay = 5
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Auth.AccessTokenTTL == 0 {
		cfg.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTokenTTL == 0 {
		cfg.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	if cfg.Email.Enabled {
		if cfg.Email.APIKey == "" {
			cfg.Email.APIKey = v.GetString("RESEND_API_KEY")
		}
		if cfg.Email.APIKey == "" {
			return nil, ErrMissingEmailAPIKey
		}
		if cfg.Email.From == "" {
			cfg.Email.From = "onboarding@resend.dev"
		}
	}

	return &cfg, nil
}
