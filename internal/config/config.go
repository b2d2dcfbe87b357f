package config

import (
	"crypto/rand"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBDSN      string

	// Redis configuration
	RedisAddress string

	// JWT configuration
	JWTSecret      string
	AccessTokenTTL time.Duration

	// Session tracking
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	// Notification bus, empty brokers disables kafka publishing
	KafkaBrokers           []string
	KafkaNotificationTopic string

	WorkerPoolSize int

	FrontendAddress string
	SeedData        bool
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from .env and environment variables
func Load() *Config {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32) // Generate a 32-byte random secret if not declared
		log.Println("Generated random JWT secret")
	}

	return &Config{
		ServerPort:             getEnv("PORT", "8080"),
		Environment:            getEnv("ENV", "development"),
		DBDriver:               getEnv("DB_DRIVER", "mysql"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "3306"),
		DBUser:                 getEnv("DB_USER", "root"),
		DBPassword:             getEnv("DB_PASSWORD", ""),
		DBName:                 getEnv("DB_NAME", "screenplay_collab"),
		DBDSN:                  os.Getenv("DB_DSN"),
		RedisAddress:           getEnv("REDIS_ADDRESS", "localhost:6379"),
		JWTSecret:              jwtSecret,
		AccessTokenTTL:         getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		SessionTTL:             getDuration("SESSION_TTL", 30*time.Minute),
		SessionSweepInterval:   getDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		KafkaBrokers:           getList("KAFKA_BROKERS"),
		KafkaNotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "script.notifications"),
		WorkerPoolSize:         getInt("WORKER_POOL_SIZE", 4),
		FrontendAddress:        getEnv("FRONTEND_ADDRESS", "https://production-frontend.com"),
		SeedData:               getEnv("SEED_DATA", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s (%q), using %s\n", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid integer for %s (%q), using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// generateRandomSecret generates a random secret of the specified length
func generateRandomSecret(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	secret := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range secret {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		secret[i] = charset[n.Int64()]
	}
	return string(secret)
}
