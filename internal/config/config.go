package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort           string
	GRPCPort           string
	BackendURL         string
	GeocoderURL        string
	GeocoderUserAgent  string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	StorageBackend string
	SQLitePath     string
	RedisAddr      string
	MongoURI       string
	MongoDBName    string

	LedgerDriver string
	LedgerDSN    string

	LiveSource   string
	KafkaBrokers []string
	PollInterval time.Duration

	ShippingThreshold float64
	ShippingFee       float64

	LogLevel string
}

// Load reads the environment, seeded from the given .env files when they
// exist. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		GRPCPort:           getEnv("GRPC_PORT", "9090"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:3000/api"),
		GeocoderURL:        getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent:  getEnv("GEOCODER_USER_AGENT", "artisan-storefront/1.0"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 10*time.Second, &errs),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		MaxRequestBodySize: 10 << 20, // 10MB, media uploads go through the same router

		StorageBackend: getEnv("STORAGE_BACKEND", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "storefront.db"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "storefront"),

		LedgerDriver: getEnv("LEDGER_DRIVER", "sqlite"),
		LedgerDSN:    getEnv("LEDGER_DSN", "storefront-ledger.db"),

		LiveSource:   getEnv("LIVE_SOURCE", "poll"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		PollInterval: getDuration("POLL_INTERVAL", 5*time.Second, &errs),

		ShippingThreshold: getFloat("SHIPPING_THRESHOLD", 5000, &errs),
		ShippingFee:       getFloat("SHIPPING_FEE", 350, &errs),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	errs = append(errs, cfg.validate()...)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	switch c.StorageBackend {
	case "sqlite", "redis", "mongo":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be sqlite, redis or mongo, got %q", c.StorageBackend))
	}
	switch c.LedgerDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("LEDGER_DRIVER must be sqlite or postgres, got %q", c.LedgerDriver))
	}
	switch c.LiveSource {
	case "poll":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when LIVE_SOURCE=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("LIVE_SOURCE must be poll or kafka, got %q", c.LiveSource))
	}
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.ShippingThreshold < 0 || c.ShippingFee < 0 {
		errs = append(errs, errors.New("SHIPPING_THRESHOLD and SHIPPING_FEE must not be negative"))
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return defaultValue
	}
	return d
}

func getFloat(key string, defaultValue float64, errs *[]error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", key, raw))
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
