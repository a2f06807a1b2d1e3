package config

import "testing"

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.credinica.com.ni, http://localhost:3000 ,")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("Expected default driver postgres, got %s", cfg.DBDriver)
	}
	if cfg.Timezone != "America/Managua" {
		t.Errorf("Expected default timezone America/Managua, got %s", cfg.Timezone)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RemindersEnabled() {
		t.Error("Reminders should be disabled without SMTP_HOST")
	}
}

func TestNewConfig_Validation(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	if _, err := NewConfig(); err == nil {
		t.Error("Expected error for short JWT secret")
	}

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := NewConfig(); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}
