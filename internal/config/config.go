package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is everything the server reads from the environment.
type Config struct {
	Port      string
	BaseURL   string
	UploadDir string

	DBDriver   string // mysql, postgres or sqlite
	DBDSN      string
	DBLogLevel string

	JWTSecret string
	JWTTTL    time.Duration

	AllowRegistration bool
	CORSOrigins       []string

	TaxRatePercent     decimal.Decimal
	InvoiceMaxAttempts int

	GeminiAPIKey string
	GeminiModel  string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		BaseURL:           getEnv("BASE_URL", ""),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:             os.Getenv("DB_DSN"),
		DBLogLevel:        strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}

	ttlHours, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("JWT_TTL_HOURS must be a positive integer")
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	cfg.TaxRatePercent, err = decimal.NewFromString(getEnv("TAX_RATE_PERCENT", "0"))
	if err != nil || cfg.TaxRatePercent.IsNegative() {
		return nil, fmt.Errorf("TAX_RATE_PERCENT must be a non-negative number")
	}

	cfg.InvoiceMaxAttempts, err = strconv.Atoi(getEnv("INVOICE_MAX_ATTEMPTS", "5"))
	if err != nil || cfg.InvoiceMaxAttempts <= 0 {
		return nil, fmt.Errorf("INVOICE_MAX_ATTEMPTS must be a positive integer")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported (mysql, postgres, sqlite)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN not found in environment. Please configure your database")
	}
	if c.JWTSecret == "" {
		if c.DBDriver != "sqlite" {
			return fmt.Errorf("JWT_SECRET is required")
		}
		// local sqlite runs get a throwaway secret
		c.JWTSecret = "dev-only-secret"
		log.Println("⚠️ WARNING: JWT_SECRET not set, using a development secret")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
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
