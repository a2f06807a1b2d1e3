package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/credinica/loan-service/internal/auth"
	"github.com/credinica/loan-service/internal/config"
	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ExchangeRateProvider returns the official córdoba per US dollar rate for a date
type ExchangeRateProvider interface {
	ExchangeRate(ctx context.Context, date time.Time) (decimal.Decimal, error)
}

// SystemSession is the actor used by scheduled jobs.
var SystemSession = &models.Session{UserID: "system", FullName: "Sistema", Role: models.RoleAdministrador}

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	log    *logrus.Logger
	config *config.Config
	tokens *auth.TokenManager
	rates  ExchangeRateProvider
	loc    *time.Location
	now    func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithExchangeRates enables the USD figures of the portfolio report.
func WithExchangeRates(p ExchangeRateProvider) Option {
	return func(s *Service) { s.rates = p }
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		log:    log,
		config: cfg,
		tokens: auth.NewTokenManager(cfg.JWTSecret),
		loc:    utils.LoadLocation(cfg.Timezone),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens returns the session token manager shared with the HTTP middleware.
func (s *Service) Tokens() *auth.TokenManager {
	return s.tokens
}

// Location is the business time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// today is the current calendar day in the business time zone.
func (s *Service) today() time.Time {
	return utils.LocalDate(s.now(), s.loc)
}

func (s *Service) authorize(actor *models.Session, action models.Action) error {
	if actor == nil || actor.UserID == "" {
		return errUnauthenticated
	}
	if !actor.Role.Can(action) {
		s.log.WithFields(logrus.Fields{"user": actor.UserID, "role": actor.Role, "action": action}).Warn("Permission denied")
		return errForbidden
	}
	return nil
}

// audit records an action inside the caller's transaction.
func (s *Service) audit(ctx context.Context, repo *repository.Repository, actor *models.Session, action models.Action, details, targetID string, changes any) error {
	entry := &models.AuditLog{
		Timestamp: s.now(),
		UserID:    actor.UserID,
		UserName:  actor.FullName,
		Action:    action,
		Details:   details,
		TargetID:  targetID,
	}
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			s.log.WithError(err).Warn("Failed to encode audit changes")
		} else {
			entry.Changes = raw
		}
	}
	return repo.CreateAuditLog(ctx, entry)
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
