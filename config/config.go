package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port        string
	Environment string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string // bcrypt hash of the admin password

	ProviderBaseURL string
	ProviderAPIKey  string

	MaxConcurrentFetches int
	FetchRetryAttempts   int
	FetchRetryDelayMs    int
	MaxExtensionDays     int
	FilterConcurrency    int

	CacheTTLMinutes int
	MongoURI        string // optional, enables the Mongo result cache
	BarStorePath    string // local sqlite mirror of fetched bars

	DefaultSymbols []string
}

var AppConfig *Config
var DB *gorm.DB

// defaultUniverse is used when SYMBOLS is not configured
var defaultUniverse = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "AMD",
	"NFLX", "INTC", "CRM", "ORCL", "ADBE", "AVGO", "QCOM", "TXN",
}

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "screener_db"),

		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key"),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "https://api.polygon.io"),
		ProviderAPIKey:  getEnv("PROVIDER_API_KEY", ""),

		MaxConcurrentFetches: getEnvInt("MAX_CONCURRENT_FETCHES", 50),
		FetchRetryAttempts:   getEnvInt("FETCH_RETRY_ATTEMPTS", 3),
		FetchRetryDelayMs:    getEnvInt("FETCH_RETRY_DELAY_MS", 500),
		MaxExtensionDays:     getEnvInt("MAX_EXTENSION_DAYS", 365),
		FilterConcurrency:    getEnvInt("FILTER_CONCURRENCY", 16),

		CacheTTLMinutes: getEnvInt("CACHE_TTL_MINUTES", 60),
		MongoURI:        getEnv("MONGODB_URI", ""),
		BarStorePath:    getEnv("BAR_STORE_PATH", "data/bars.db"),

		DefaultSymbols: getEnvList("SYMBOLS", defaultUniverse),
	}

	AppConfig = config
	return config, nil
}

// InitDB initializes database connection
func InitDB() (*gorm.DB, error) {
	log.Printf("Connecting to database: host=%s port=%s user=%s dbname=%s",
		maskHost(AppConfig.DBHost),
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBName,
	)

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		AppConfig.DBHost,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBPort,
	)

	var logLevel logger.LogLevel
	if AppConfig.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Printf("Database connection error: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Printf("Database connection verified successfully")
	DB = db
	return db, nil
}

// maskHost masks host for logging, preserving domain structure
func maskHost(host string) string {
	if len(host) <= 3 {
		return "***"
	}
	if len(host) <= 15 {
		return host[:3] + "***"
	}
	return host[:8] + "***" + host[len(host)-10:]
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvList gets a comma-separated environment variable or returns a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
