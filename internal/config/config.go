package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the engine
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Mailer   MailerConfig
	Auth     AuthConfig
	Engine   EngineConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	ServiceKey   string
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis specific configuration
type RedisConfig struct {
	Enabled  bool
	URL      string
	Password string
	DB       int
	CacheTTL time.Duration
}

// KafkaConfig holds Kafka specific configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// MailerConfig holds mailer-service client configuration
type MailerConfig struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
	MaxRetries uint64
}

// AuthConfig holds authentication specific configuration
type AuthConfig struct {
	JWTSecret string
}

// EngineConfig holds the notification engine tuning parameters
type EngineConfig struct {
	DedupLookback         time.Duration
	ScanHorizon           time.Duration
	DeliveryRequeryWindow time.Duration
	DigestWindow          time.Duration
	DigestResendGuard     time.Duration
	DigestMaxItems        int
	RetentionDays         int
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", "30m")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.cacheTTL", "5m")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "notification-events")

	// Mailer defaults
	v.SetDefault("mailer.timeout", "10s")
	v.SetDefault("mailer.maxRetries", 3)

	// Engine defaults
	v.SetDefault("engine.dedupLookback", "4h")
	v.SetDefault("engine.scanHorizon", "4h")
	v.SetDefault("engine.deliveryRequeryWindow", "60s")
	v.SetDefault("engine.digestWindow", "15m")
	v.SetDefault("engine.digestResendGuard", "2h")
	v.SetDefault("engine.digestMaxItems", 100)
	v.SetDefault("engine.retentionDays", 90)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
