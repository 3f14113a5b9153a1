package environments

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Broker   BrokerConfig
	Gateway  GatewayConfig
	Relay    RelayConfig
	Reminder ReminderConfig
	Alert    AlertConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
}

type StorageConfig struct {
	// Driver is "memory" or "mysql".
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type BrokerConfig struct {
	URL           string
	Exchange      string
	RoutingKey    string
	RetryAttempts int
}

type RelayConfig struct {
	IgnoreFromMe     bool
	DedupTTL         time.Duration
	EchoSuppressTTL  time.Duration
	MaxContentLength int
}

type ReminderConfig struct {
	Enabled  bool
	Interval time.Duration
	Lead     time.Duration
	Timezone string
	Template string
}

type AlertConfig struct {
	WebhookURL     string
	IterationCount int
}

type AuthConfig struct {
	SchedulerAPIKey string
}

// Load reads .env (if present) and the process environment.
// Variables already set in the environment take precedence over .env.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", GetEnv("PORT", "8080")),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(GetEnv("STORAGE_DRIVER", "memory")),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "secretary"),
			Password: GetEnv("DB_PASSWORD", ""),
			DBName:   GetEnv("DB_NAME", "secretary"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", ""),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Broker: BrokerConfig{
			URL:           GetEnv("BROKER_URL", ""),
			Exchange:      GetEnv("BROKER_EXCHANGE", "secretary.inbound"),
			RoutingKey:    GetEnv("BROKER_ROUTING_KEY", "whatsapp.inbound"),
			RetryAttempts: GetEnvAsInt("BROKER_RETRY_ATTEMPTS", 5),
		},
		Gateway: loadGateway(),
		Relay: RelayConfig{
			IgnoreFromMe:     GetEnvAsBool("IGNORE_FROM_ME", true),
			DedupTTL:         GetEnvAsDuration("INBOUND_DEDUP_TTL", 24*time.Hour),
			EchoSuppressTTL:  time.Duration(GetEnvAsInt("ECHO_SUPPRESS_SECONDS", 120)) * time.Second,
			MaxContentLength: GetEnvAsInt("MESSAGE_MAX_CONTENT_LENGTH", 4096),
		},
		Reminder: ReminderConfig{
			Enabled:  GetEnvAsBool("REMINDERS_ENABLED", false),
			Interval: time.Duration(GetEnvAsInt("REMINDER_INTERVAL_MINUTES", 15)) * time.Minute,
			Lead:     time.Duration(GetEnvAsInt("REMINDER_LEAD_HOURS", 24)) * time.Hour,
			Timezone: GetEnv("REMINDER_TIMEZONE", "America/Sao_Paulo"),
			Template: GetEnv(
				"REMINDER_TEMPLATE",
				"Olá {name}! Lembrete da sua consulta em {date} às {time}.",
			),
		},
		Alert: AlertConfig{
			WebhookURL:     GetEnv("ALERT_WEBHOOK_URL", ""),
			IterationCount: GetEnvAsInt("ALERT_ITERATION_COUNT", 0),
		},
		Auth: AuthConfig{
			SchedulerAPIKey: GetEnv("SCHEDULER_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// FirstEnv returns the first non-empty value among keys.
func FirstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
