package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	MaxAttachmentBytes int64

	// Review console access. AdminAccessHash is a bcrypt hash of the access
	// code; AdminAccessCode is a plaintext fallback for local development.
	AdminAccessHash string
	AdminAccessCode string

	// Notification relay. The relay stays disabled unless bot token and chat
	// id are both configured.
	NotifyBaseURL  string
	NotifyBotToken string
	NotifyChatID   string
	NotifyTimezone string
}

const defaultMaxAttachmentBytes = 50 << 20

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if env == "production" && os.Getenv("ADMIN_ACCESS_HASH") == "" && os.Getenv("ADMIN_ACCESS_CODE") == "" {
		log.Printf("ADMIN_ACCESS_HASH or ADMIN_ACCESS_CODE is required in production")
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:                env,
		DatabaseURL:        dbURL,
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		MaxAttachmentBytes: getEnvInt64("MAX_ATTACHMENT_BYTES", defaultMaxAttachmentBytes),
		AdminAccessHash:    getEnv("ADMIN_ACCESS_HASH", ""),
		AdminAccessCode:    getEnv("ADMIN_ACCESS_CODE", ""),
		NotifyBaseURL:      getEnv("NOTIFY_BASE_URL", "https://api.telegram.org"),
		NotifyBotToken:     getEnv("NOTIFY_BOT_TOKEN", ""),
		NotifyChatID:       getEnv("NOTIFY_CHAT_ID", ""),
		NotifyTimezone:     getEnv("NOTIFY_TIMEZONE", "Australia/Sydney"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		log.Printf("config env %s invalid int: %q", key, raw)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
