package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Policy   PolicyConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

// PolicyConfig holds the school's cancellation policy knobs. The quota
// enforcement toggle exists because the policy is ambiguous in practice:
// some schools only surface the quota in the UI, others hard-block.
type PolicyConfig struct {
	CancellationNoticeHours   int
	MakeupValidityDays        int
	MonthlyCancellationLimit  int
	EnforceQuotaAtRequestTime bool
	ExpiryWarningWindowDays   int
	SlotSearchLimit           int
	VATRate                   decimal.Decimal
	CreditNotePrefix          string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Tutorium"),
		},
		Policy: PolicyConfig{
			CancellationNoticeHours:   getEnvAsInt("POLICY_NOTICE_HOURS", 24),
			MakeupValidityDays:        getEnvAsInt("POLICY_MAKEUP_VALIDITY_DAYS", 30),
			MonthlyCancellationLimit:  getEnvAsInt("POLICY_MONTHLY_LIMIT", 2),
			EnforceQuotaAtRequestTime: getEnvAsBool("POLICY_ENFORCE_QUOTA", false),
			ExpiryWarningWindowDays:   getEnvAsInt("POLICY_WARNING_WINDOW_DAYS", 7),
			SlotSearchLimit:           getEnvAsInt("POLICY_SLOT_SEARCH_LIMIT", 20),
			VATRate:                   getEnvAsDecimal("POLICY_VAT_RATE", "0.23"),
			CreditNotePrefix:          getEnv("POLICY_CREDIT_NOTE_PREFIX", "KOR"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDecimal(key, fallback string) decimal.Decimal {
	raw := getEnv(key, fallback)
	if value, err := decimal.NewFromString(raw); err == nil {
		return value
	}
	value, _ := decimal.NewFromString(fallback)
	return value
}
