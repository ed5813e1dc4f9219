package config

import (
	"fmt"
	"os"
	"strconv"
)

// Default upload ceilings. Chat attachments share bandwidth with live
// messaging, so they get a tighter limit than the deal-files flow.
const (
	DefaultMaxDealFileBytes   = 20 << 20 // 20MB
	DefaultMaxChatAttachBytes = 10 << 20 // 10MB
)

type Config struct {
	Port      string
	JWTSecret string

	DBHost     string
	DBPort     uint
	DBName     string
	DBUser     string
	DBPassword string

	BlobRoot string

	MaxDealFileBytes   int64
	MaxChatAttachBytes int64

	// Notification side channel: "webhook", "kafka" or "" (disabled).
	Notifier        string
	WebhookURL      string
	KafkaBrokers    string
	KafkaTopic      string
	KafkaClientID   string

	CatalogBaseURL string
}

// Load reads configuration from the environment. godotenv is expected to
// have been loaded by the caller before this runs.
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBName:     getenv("DB_NAME", "dealengine"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),

		BlobRoot: getenv("BLOB_ROOT", "./data/blobs"),

		Notifier:      os.Getenv("NOTIFIER"),
		WebhookURL:    os.Getenv("NOTIFY_WEBHOOK_URL"),
		KafkaBrokers:  getenv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:    getenv("KAFKA_TOPIC", "deals.notifications"),
		KafkaClientID: getenv("KAFKA_CLIENT_ID", "deal-engine"),

		CatalogBaseURL: getenv("CATALOG_BASE_URL", "http://localhost:8090"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	port, err := strconv.ParseUint(getenv("DB_PORT", "5432"), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.DBPort = uint(port)

	cfg.MaxDealFileBytes, err = getenvBytes("MAX_DEAL_FILE_BYTES", DefaultMaxDealFileBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxChatAttachBytes, err = getenvBytes("MAX_CHAT_ATTACH_BYTES", DefaultMaxChatAttachBytes)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBytes(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
