package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds all service settings, populated from environment variables
// and an optional YAML config file.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	NormalizeWorkers int
	MaxUploadBytes   int64

	// Sample storage.
	StoreDriver    string
	SQLitePath     string
	DatabaseURL    string
	MongoURI       string
	MongoDatabase  string
	BatchCacheSize int

	// Kafka scored-sample publishing.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaScoredTopic  string
	PublishMaxRetries int
	PublishTimeout    time.Duration

	// InfluxDB summary points.
	InfluxEnabled bool
	InfluxURL     string
	InfluxToken   string
	InfluxOrg     string
	InfluxBucket  string
}

var defaults = map[string]any{
	"HTTP_ADDR":           ":8080",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "json",
	"SHUTDOWN_TIMEOUT":    "10s",
	"NORMALIZE_WORKERS":   "4",
	"MAX_UPLOAD_BYTES":    strconv.Itoa(32 << 20),
	"STORE_DRIVER":        DriverMemory,
	"SQLITE_PATH":         "hmpi.db",
	"MONGO_DATABASE":      "HMPI",
	"BATCH_CACHE_SIZE":    "128",
	"KAFKA_ENABLED":       "false",
	"KAFKA_BROKERS":       "localhost:9092",
	"KAFKA_SCORED_TOPIC":  "hmpi-scored-samples",
	"PUBLISH_MAX_RETRIES": "3",
	"PUBLISH_TIMEOUT":     "30s",
	"INFLUXDB_ENABLED":    "false",
}

// Load reads configuration from environment variables (optionally .env),
// applying defaults where unset.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an additional YAML config file. Keys in the file use
// the lower-case variable names (http_addr, store_driver, ...). Environment
// variables take precedence over the file.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var err error
	cfg := &Config{
		HTTPAddr:         v.GetString("HTTP_ADDR"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		StoreDriver:      strings.ToLower(v.GetString("STORE_DRIVER")),
		SQLitePath:       v.GetString("SQLITE_PATH"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDatabase:    v.GetString("MONGO_DATABASE"),
		KafkaBrokers:     parseBrokers(v.GetString("KAFKA_BROKERS")),
		KafkaScoredTopic: strings.TrimSpace(v.GetString("KAFKA_SCORED_TOPIC")),
		InfluxURL:        v.GetString("INFLUXDB_URL"),
		InfluxToken:      v.GetString("INFLUXDB_TOKEN"),
		InfluxOrg:        v.GetString("INFLUXDB_ORG"),
		InfluxBucket:     v.GetString("INFLUXDB_BUCKET"),
	}

	if cfg.ShutdownTimeout, err = parsePositiveDuration(v, "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.NormalizeWorkers, err = parseIntInRange(v, "NORMALIZE_WORKERS", 1, 256); err != nil {
		return nil, err
	}
	maxUpload, err := parseIntInRange(v, "MAX_UPLOAD_BYTES", 1, 1<<40)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.BatchCacheSize, err = parseIntInRange(v, "BATCH_CACHE_SIZE", 0, 1<<20); err != nil {
		return nil, err
	}
	if cfg.PublishMaxRetries, err = parseIntInRange(v, "PUBLISH_MAX_RETRIES", 0, 20); err != nil {
		return nil, err
	}
	if cfg.PublishTimeout, err = parsePositiveDuration(v, "PUBLISH_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled, err = parseBool(v, "KAFKA_ENABLED"); err != nil {
		return nil, err
	}
	if cfg.InfluxEnabled, err = parseBool(v, "INFLUXDB_ENABLED"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_DRIVER is sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER is mongo")
		}
		if c.MongoDatabase == "" {
			return errors.New("MONGO_DATABASE is required when STORE_DRIVER is mongo")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want memory, sqlite, postgres or mongo", c.StoreDriver)
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaScoredTopic == "" {
			return errors.New("KAFKA_SCORED_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	if c.InfluxEnabled {
		required := []struct{ name, val string }{
			{"INFLUXDB_URL", c.InfluxURL},
			{"INFLUXDB_TOKEN", c.InfluxToken},
			{"INFLUXDB_ORG", c.InfluxOrg},
			{"INFLUXDB_BUCKET", c.InfluxBucket},
		}
		for _, r := range required {
			if r.val == "" {
				return fmt.Errorf("INFLUXDB_ENABLED is true but %s is not set", r.name)
			}
		}
	}
	return nil
}

func parsePositiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, raw)
	}
	return d, nil
}

func parseIntInRange(v *viper.Viper, key string, lo, hi int) (int, error) {
	raw := v.GetString(key)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %q: must be an integer between %d and %d", key, raw, lo, hi)
	}
	return n, nil
}

func parseBool(v *viper.Viper, key string) (bool, error) {
	raw := v.GetString(key)
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, raw)
	}
	return b, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
