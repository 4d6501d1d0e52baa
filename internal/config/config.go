package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the CLI, the local dev API
// and the site deployer.
type Config struct {
	App     AppConfig
	Client  ClientConfig
	Session SessionConfig
	Redis   RedisConfig
	Logger  LoggerConfig
	DevAPI  DevAPIConfig
	Deploy  DeployConfig
}

// AppConfig controls process level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// ClientConfig holds the remote API endpoint and asset domain.
type ClientConfig struct {
	Endpoint              string
	PhotosDomain          string
	RequestTimeoutSeconds int
}

// SessionConfig selects where the raw session token is persisted.
type SessionConfig struct {
	Backend   string // "file" or "redis"
	TokenFile string
}

// RedisConfig holds Redis connection values for the redis token backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// DevAPIConfig configures the local development stand-in server.
type DevAPIConfig struct {
	Host            string
	Port            string
	JWTSecret       string
	TokenTTLMinutes int
	BcryptCost      int
	PageSize        int
}

// DeployConfig holds the static-site deployment targets.
type DeployConfig struct {
	Region         string
	Bucket         string
	DistributionID string
	RootDocument   string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	endpoint := os.Getenv("API_ENDPOINT")
	if endpoint == "" {
		if env == "production" {
			endpoint = "https://public-api.movement-pass.com/v1"
		} else {
			endpoint = "http://localhost:5001"
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "movement-pass"),
			Env:     env,
			Version: getEnv("APP_VERSION", "dev"),
		},
		Client: ClientConfig{
			Endpoint:              endpoint,
			PhotosDomain:          getEnv("PHOTOS_DOMAIN", "https://photos.movement-pass.com"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Session: SessionConfig{
			Backend:   getEnv("SESSION_BACKEND", "file"),
			TokenFile: getEnv("SESSION_TOKEN_FILE", defaultTokenFile()),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		DevAPI: DevAPIConfig{
			Host:            getEnv("DEVAPI_HOST", "0.0.0.0"),
			Port:            getEnv("DEVAPI_PORT", "5001"),
			JWTSecret:       getEnv("DEVAPI_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("DEVAPI_TOKEN_TTL_MINUTES", 7*24*60),
			BcryptCost:      getEnvAsInt("DEVAPI_BCRYPT_COST", 10),
			PageSize:        getEnvAsInt("DEVAPI_PAGE_SIZE", 25),
		},
		Deploy: DeployConfig{
			Region:         getEnv("DEPLOY_REGION", "ap-southeast-1"),
			Bucket:         os.Getenv("DEPLOY_BUCKET"),
			DistributionID: os.Getenv("DEPLOY_DISTRIBUTION_ID"),
			RootDocument:   getEnv("DEPLOY_ROOT_DOCUMENT", "index.html"),
		},
	}

	return cfg, nil
}

// Addr returns the dev API bind address.
func (d DevAPIConfig) Addr() string {
	return fmt.Sprintf("%s:%s", d.Host, d.Port)
}

// TokenTTL returns the configured token lifetime.
func (d DevAPIConfig) TokenTTL() time.Duration {
	if d.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(d.TokenTTLMinutes) * time.Minute
}

// RequestTimeout returns the configured outbound request timeout.
func (c ClientConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".movement-pass-session"
	}
	return filepath.Join(home, ".movement-pass", "session")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
