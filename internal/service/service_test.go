package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/credinica/loan-service/internal/config"
	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const testPassword = "secreto123"

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

// testEnv is a service over a fresh SQLite database with one client and one
// user per role used by the tests.
type testEnv struct {
	svc       *Service
	repo      *repository.Repository
	clock     *testClock
	admin     *models.Session
	operativo *models.Session
	gestor    *models.Session
	gestorID  string
	client    *models.Client
}

func newTestService(t *testing.T, opts ...Option) (*Service, *repository.Repository, *testClock) {
	t.Helper()
	db, err := repository.Open(repository.DriverSQLite, filepath.Join(t.TempDir(), "service_test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewRepository(db, repository.DriverSQLite)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret: "0123456789abcdef0123456789abcdef",
		Timezone:  utils.NicaraguaTimezone,
	}
	// 10:00 in Managua
	clock := &testClock{now: time.Date(2025, 2, 5, 16, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(repo, log, cfg, opts...), repo, clock
}

func seedUser(t *testing.T, repo *repository.Repository, name, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	u := &models.User{FullName: name, Email: email, PasswordHash: hash, Role: role, Active: true}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	svc, repo, clock := newTestService(t, opts...)
	env := &testEnv{svc: svc, repo: repo, clock: clock}

	env.admin = sessionOf(seedUser(t, repo, "Ana Administradora", "ana@credinica.ni", models.RoleAdministrador))
	env.operativo = sessionOf(seedUser(t, repo, "Oscar Operativo", "oscar@credinica.ni", models.RoleOperativo))
	gestor := seedUser(t, repo, "Gabriela Gestora", "gabriela@credinica.ni", models.RoleGestor)
	env.gestor = sessionOf(gestor)
	env.gestorID = gestor.ID

	client, err := svc.CreateClient(context.Background(), env.admin, ClientInput{Name: "Maria Lopez", Cedula: "001-010190-0001A"})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	env.client = client
	return env
}

// creditInput is 1000 at 2% monthly over one month, weekly from Monday 2025-02-10.
func (e *testEnv) creditInput(clientID string) CreditInput {
	return CreditInput{
		ClientID:           clientID,
		Amount:             decimal.NewFromInt(1000),
		InterestRate:       decimal.NewFromInt(2),
		TermMonths:         1,
		PaymentFrequency:   models.FrequencySemanal,
		FirstPaymentDate:   "2025-02-10",
		CollectionsManager: e.gestorID,
	}
}

func (e *testEnv) createCredit(t *testing.T, actor *models.Session, in CreditInput) *models.Credit {
	t.Helper()
	credit, err := e.svc.CreateCredit(context.Background(), actor, in)
	if err != nil {
		t.Fatalf("CreateCredit failed: %v", err)
	}
	return credit
}

// activeCredit creates an auto-approved credit and disburses it.
func (e *testEnv) activeCredit(t *testing.T) *models.Credit {
	t.Helper()
	credit := e.createCredit(t, e.operativo, e.creditInput(e.client.ID))
	disbursed, err := e.svc.DisburseCredit(context.Background(), e.operativo, credit.ID, DisbursementInput{})
	if err != nil {
		t.Fatalf("DisburseCredit failed: %v", err)
	}
	return disbursed
}

func (e *testEnv) creditStatus(t *testing.T, id string) models.CreditStatus {
	t.Helper()
	detail, err := e.svc.GetCredit(context.Background(), e.admin, id)
	if err != nil {
		t.Fatalf("GetCredit failed: %v", err)
	}
	return detail.Status
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error of kind %d, got nil", want)
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind != want {
		t.Fatalf("Expected error of kind %d, got %v", want, err)
	}
}
