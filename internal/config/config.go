package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default UI vocabularies for the ice and sugar pickers.
var (
	DefaultIceLevels   = []string{"正常冰", "少冰", "微冰", "去冰", "溫", "熱"}
	DefaultSugarLevels = []string{"全糖", "少糖", "半糖", "微糖", "無糖"}
)

// Config holds application configuration
type Config struct {
	// Server
	Env                string
	Port               string
	CORSAllowedOrigins string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Live updates
	RedisURL     string
	RedisChannel string

	// Metrics
	MetricsAPIKey string

	// Drink log
	IceLevels       []string
	SugarLevels     []string
	QuickOrderLimit int
	TopStoreLimit   int
	ExportLocale    string
	ShareURL        string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "drinklog"),
		DBPassword: getEnv("DB_PASSWORD", "drinklog"),
		DBName:     getEnv("DB_NAME", "drinklog"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBPath:     getEnv("DB_PATH", "drinklog.db"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Live updates
		RedisURL:     getEnv("REDIS_URL", ""),
		RedisChannel: getEnv("REDIS_CHANNEL", "drinklog:changes"),

		// Metrics
		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),

		// Drink log
		IceLevels:       getList("ICE_LEVELS", DefaultIceLevels),
		SugarLevels:     getList("SUGAR_LEVELS", DefaultSugarLevels),
		QuickOrderLimit: getInt("QUICK_ORDER_LIMIT", 6),
		TopStoreLimit:   getInt("TOP_STORE_LIMIT", 5),
		ExportLocale:    getEnv("EXPORT_LOCALE", "zh-TW"),
		ShareURL:        getEnv("SHARE_URL", ""),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt parses a positive integer environment variable, falling back on
// missing or invalid values.
func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

// getList splits a comma separated environment variable, dropping blanks.
func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
