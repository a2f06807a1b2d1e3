package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               string
	DBDriver           string
	DBConn             string
	LogLevel           string
	JWTSecret          string
	Debug              bool
	Timezone           string
	CORSAllowedOrigins []string
	BCNURL             string
	SMTPHost           string
	SMTPPort           string
	SMTPUsername       string
	SMTPPassword       string
	SenderEmail        string
	CronRevalidate     string
	CronReminders      string
}

// NewConfig loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DBDriver:           getEnv("DB_DRIVER", "postgres"),
		DBConn:             getEnv("DB_CONN", "host=localhost port=5432 user=credinica password=credinica dbname=credinica sslmode=disable"),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		Debug:              getEnv("APP_DEBUG", "false") == "true",
		Timezone:           getEnv("TIMEZONE", "America/Managua"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		BCNURL:             getEnv("BCN_URL", "https://servicios.bcn.gob.ni/Tc_Servicio/ServicioTC.asmx"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnv("SMTP_PORT", "587"),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SenderEmail:        getEnv("SENDER_EMAIL", "no-reply@credinica.com.ni"),
		CronRevalidate:     getEnv("CRON_REVALIDATE", "0 1 * * *"),
		CronReminders:      getEnv("CRON_REMINDERS", "0 7 * * 1-6"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite3" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite3, got %q", cfg.DBDriver)
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET is required and must be at least 32 characters")
	}

	return cfg, nil
}

// RemindersEnabled reports whether SMTP is configured well enough to send email.
func (c *Config) RemindersEnabled() bool {
	return c.SMTPHost != "" && c.SenderEmail != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
