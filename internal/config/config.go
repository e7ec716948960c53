package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN builds the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig holds broker settings for the reading feed.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config is the full service configuration, loaded from environment
// variables with conservative defaults.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	HTTP struct {
		Addr string
	}

	Monitor struct {
		// ReadingTopic is the MQTT topic readings arrive on, one message
		// per reading or a JSON array of readings.
		ReadingTopic string

		// ThresholdsFile points at the YAML threshold profiles. Empty means
		// built-in defaults.
		ThresholdsFile string

		// DebounceWindow is the minimum gap between two alerts for the same
		// (entity, tier) pair.
		DebounceWindow time.Duration

		Cache struct {
			ReadingKeyPrefix string // latest reading per sensor, e.g. "minewatch:sensor:"
			ReadingSuffix    string // ":reading"
			StatusKeyPrefix  string // derived tier per entity, e.g. "minewatch:status:"
			ReadingTTL       int    // seconds
		}
	}

	Simulator struct {
		// Interval between published batches.
		Interval time.Duration

		// SpikePercent is the chance (0-100) that a sensor jumps toward its
		// critical bound on a given tick, to exercise the alert path.
		SpikePercent int
	}

	Notifier struct {
		// WebhookURL receives critical alerts as JSON POSTs. Empty disables
		// the notifier.
		WebhookURL string
		Timeout    time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "minewatch")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "minewatch-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Monitor.ReadingTopic = getEnv("MONITOR_READING_TOPIC", "minewatch/readings")
	cfg.Monitor.ThresholdsFile = getEnv("MONITOR_THRESHOLDS_FILE", "")
	cfg.Monitor.DebounceWindow = time.Duration(getEnvInt("MONITOR_DEBOUNCE_SECONDS", 30)) * time.Second
	cfg.Monitor.Cache.ReadingKeyPrefix = getEnv("CACHE_READING_PREFIX", "minewatch:sensor:")
	cfg.Monitor.Cache.ReadingSuffix = ":reading"
	cfg.Monitor.Cache.StatusKeyPrefix = getEnv("CACHE_STATUS_PREFIX", "minewatch:status:")
	cfg.Monitor.Cache.ReadingTTL = getEnvInt("CACHE_READING_TTL", 120)

	cfg.Simulator.Interval = time.Duration(getEnvInt("SIMULATOR_INTERVAL_SECONDS", 5)) * time.Second
	cfg.Simulator.SpikePercent = getEnvInt("SIMULATOR_SPIKE_PERCENT", 2)

	cfg.Notifier.WebhookURL = getEnv("NOTIFIER_WEBHOOK_URL", "")
	cfg.Notifier.Timeout = time.Duration(getEnvInt("NOTIFIER_TIMEOUT_SECONDS", 10)) * time.Second

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Monitor.DebounceWindow < time.Second {
		return nil, fmt.Errorf("MONITOR_DEBOUNCE_SECONDS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
