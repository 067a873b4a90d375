package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	Database                  DatabaseConfig
	Ollama                    OllamaConfig
	Redis                     RedisConfig
	UploadDir                 string
	DefaultCity               string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// OllamaConfig holds settings for the local model-serving endpoint.
// The server is reached through its OpenAI-compatible /v1 surface.
type OllamaConfig struct {
	BaseURL       string
	PrimaryModel  string
	VisionModel   string
	FallbackModel string
	Temperature   float64
	MaxTokens     int64
}

// RedisConfig holds optional cache settings. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "melco_care"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	// A full DSN in the environment (e.g. for tests) wins over the assembled one.
	if dsn := getEnv("DB_DSN", ""); dsn != "" {
		dbConfig.DSN = dsn
	}

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}

	maxTokens, err := strconv.ParseInt(getEnv("LLM_MAX_TOKENS", "512"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_TOKENS: %w", err)
	}

	ollamaConfig := OllamaConfig{
		BaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		PrimaryModel:  getEnv("OLLAMA_PRIMARY_MODEL", "qwen3:4b"),
		VisionModel:   getEnv("OLLAMA_VISION_MODEL", "qwen3:4b"),
		FallbackModel: getEnv("OLLAMA_FALLBACK_MODEL", "gemma3:4b"),
		Temperature:   temperature,
		MaxTokens:     maxTokens,
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisConfig := RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:                      getEnv("PORT", "8000"),
		Origin:                    getEnv("ORIGIN", "http://localhost:8501"),
		Environment:               getEnv("APP_ENV", "development"),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		Database:                  dbConfig,
		Ollama:                    ollamaConfig,
		Redis:                     redisConfig,
		UploadDir:                 getEnv("UPLOAD_DIR", "uploads"),
		DefaultCity:               getEnv("DEFAULT_CITY", "Hyderabad"),
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
