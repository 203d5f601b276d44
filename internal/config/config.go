package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiryHours    int

	SNSRegion string

	// CountryCallingCode is prefixed to ten-digit identifiers before any
	// directory call.
	CountryCallingCode string
	OtpTTL             time.Duration
	AttemptTTL         time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Profiles    string
	Identities  string
	OtpSessions string
	Sessions    string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "ap-south-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Profiles:    getEnv("DYNAMO_TABLE_PROFILES", "profiles"),
			Identities:  getEnv("DYNAMO_TABLE_IDENTITIES", "identities"),
			OtpSessions: getEnv("DYNAMO_TABLE_OTP_SESSIONS", "otp_sessions"),
			Sessions:    getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryHours:    getEnvInt("JWT_EXPIRY_HOURS", 12),

		SNSRegion: getEnv("SNS_REGION", "ap-south-1"),

		CountryCallingCode: getEnv("COUNTRY_CALLING_CODE", "+91"),
		OtpTTL:             time.Duration(getEnvInt("OTP_TTL_MINUTES", 5)) * time.Minute,
		AttemptTTL:         time.Duration(getEnvInt("ATTEMPT_TTL_MINUTES", 10)) * time.Minute,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
