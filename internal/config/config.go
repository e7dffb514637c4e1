package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Gateway  GatewayConfig
	App      AppConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig holds the event broker configuration
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// GatewayConfig holds payment gateway credentials
type GatewayConfig struct {
	NGeniusAPIKey    string
	NGeniusOutletRef string
	NGeniusBaseURL   string
	ReturnBaseURL    string
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment     string
	LogLevel        string
	JWTSecret       string
	NotificationURL string
	StoreCurrency   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefront_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "storefront.events"),
		},
		Gateway: GatewayConfig{
			NGeniusAPIKey:    getEnv("NGENIUS_API_KEY", ""),
			NGeniusOutletRef: getEnv("NGENIUS_OUTLET_REF", ""),
			NGeniusBaseURL:   getEnv("NGENIUS_BASE_URL", "https://api-gateway.sandbox.ngenius-payments.com"),
			ReturnBaseURL:    getEnv("PAYMENT_RETURN_BASE_URL", "http://localhost:3000"),
		},
		App: AppConfig{
			Environment:     getEnv("APP_ENV", "development"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			JWTSecret:       getEnv("JWT_SECRET", ""),
			NotificationURL: getEnv("NOTIFICATION_SERVICE_URL", "http://localhost:3010"),
			StoreCurrency:   getEnv("STORE_CURRENCY", "AED"),
		},
	}

	return config, nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
