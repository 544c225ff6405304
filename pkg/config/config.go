package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Storage   StorageConfig
	FaceAPI   FaceAPIConfig
	Match     MatchConfig
	Backfill  BackfillConfig
	RateLimit RateLimitConfig
}

type AdminConfig struct {
	Token string // Separate admin token for log access (falls back to JWT secret if not set)
}

type AppConfig struct {
	Name   string
	Port   string
	Env    string
	LogDir string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

type JWTConfig struct {
	Secret string
}

// StorageConfig describes where approved photos are publicly reachable
type StorageConfig struct {
	PublicBaseURL string // e.g. https://<project>.supabase.co/storage/v1/object/public
	Bucket        string
}

type FaceAPIConfig struct {
	BaseURL string        // Base URL of the face embedding service
	Timeout time.Duration // Per-call timeout
	Enabled bool          // Enable/disable embedding generation
}

// MatchConfig holds the default distance thresholds per embedding family
type MatchConfig struct {
	CosineThreshold    float64
	EuclideanThreshold float64
}

type BackfillConfig struct {
	DefaultLimit     int
	MaxLimit         int
	Concurrency      int
	Cron             string // Empty disables the scheduled run
	LockTTL          time.Duration
	BreakerThreshold int
}

type RateLimitConfig struct {
	Enabled       bool
	MaxRequests   int
	WindowSeconds int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists (optional for production)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:   getEnv("APP_NAME", "Event Photo API"),
			Port:   getEnv("APP_PORT", "3000"),
			Env:    getEnv("APP_ENV", "development"),
			LogDir: getEnv("LOG_DIR", "logs"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "eventphoto"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
		Storage: StorageConfig{
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			Bucket:        getEnv("STORAGE_BUCKET", "event-photos"),
		},
		FaceAPI: FaceAPIConfig{
			BaseURL: getEnv("FACE_SERVICE_URL", "http://localhost:5001"),
			Timeout: getEnvDuration("FACE_SERVICE_TIMEOUT", 30*time.Second),
			Enabled: getEnvBool("FACE_SERVICE_ENABLED", true),
		},
		Match: MatchConfig{
			CosineThreshold:    getEnvFloat("MATCH_COSINE_THRESHOLD", 0.4),
			EuclideanThreshold: getEnvFloat("MATCH_EUCLIDEAN_THRESHOLD", 0.9),
		},
		Backfill: BackfillConfig{
			DefaultLimit:     getEnvInt("BACKFILL_LIMIT", 100),
			MaxLimit:         getEnvInt("BACKFILL_MAX_LIMIT", 500),
			Concurrency:      getEnvInt("BACKFILL_CONCURRENCY", 1),
			Cron:             getEnv("BACKFILL_CRON", ""),
			LockTTL:          getEnvDuration("BACKFILL_LOCK_TTL", 30*time.Minute),
			BreakerThreshold: getEnvInt("BACKFILL_BREAKER_THRESHOLD", 10),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			MaxRequests:   getEnvInt("RATE_LIMIT_MAX", 120),
			WindowSeconds: getEnvInt("RATE_LIMIT_WINDOW", 60),
		},
	}

	if config.Admin.Token == "" {
		config.Admin.Token = config.JWT.Secret
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
