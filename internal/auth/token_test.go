package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager(testSecret)
	in := models.Session{UserID: "u-1", Role: models.RoleGestor, FullName: "Gestor Uno", Email: "g1@credinica.com", MustChangePassword: true}

	token, expires, err := m.Issue(in)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if d := time.Until(expires); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("Expected ~24h expiry, got %s", d)
	}

	out, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if *out != in {
		t.Errorf("Expected %+v, got %+v", in, *out)
	}
}

func TestParse_Rejects(t *testing.T) {
	m := NewTokenManager(testSecret)
	good, _, _ := m.Issue(models.Session{UserID: "u-1", Role: models.RoleAdministrador})

	other := NewTokenManager("ffffffffffffffffffffffffffffffff")
	if _, err := other.Parse(good); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired := NewTokenManager(testSecret)
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, _, _ := expired.Issue(models.Session{UserID: "u-1", Role: models.RoleAdministrador})
	if _, err := m.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Session:          models.Session{UserID: "u-1", Role: "ROOT"},
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	if _, err := m.Parse(badRole); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for unknown role, got %v", err)
	}

	if _, err := m.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}
}
