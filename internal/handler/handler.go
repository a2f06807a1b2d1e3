// Package handler exposes the service over a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/credinica/loan-service/internal/auth"
	"github.com/credinica/loan-service/internal/config"
	"github.com/credinica/loan-service/internal/middleware"
	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/service"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Handler serves the HTTP API
type Handler struct {
	svc    *service.Service
	log    *logrus.Logger
	debug  bool
	secure bool
}

// envelope is the body of every JSON response
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	ID      string `json:"id,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// NewHandler creates the API handler
func NewHandler(svc *service.Service, log *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{svc: svc, log: log, debug: cfg.Debug, secure: !cfg.Debug}
}

// Routes registers every endpoint on r
func (h *Handler) Routes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/setup", h.Setup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	// Protected routes
	p := api.NewRoute().Subrouter()
	p.Use(middleware.Auth(h.svc.Tokens(), h.log))

	p.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
	p.HandleFunc("/auth/change-password", h.ChangePassword).Methods(http.MethodPost)

	users := p.PathPrefix("/users").Subrouter()
	users.Use(middleware.RequireRole(models.RoleAdministrador))
	users.HandleFunc("", h.ListUsers).Methods(http.MethodGet)
	users.HandleFunc("", h.CreateUser).Methods(http.MethodPost)
	users.HandleFunc("/{id}", h.UpdateUser).Methods(http.MethodPut)
	users.HandleFunc("/{id}", h.DeleteUser).Methods(http.MethodDelete)
	users.HandleFunc("/{id}/reset-password", h.ResetPassword).Methods(http.MethodPost)
	p.HandleFunc("/branches", h.ListBranches).Methods(http.MethodGet)
	p.HandleFunc("/branches", h.CreateBranch).Methods(http.MethodPost)

	p.HandleFunc("/clients", h.ListClients).Methods(http.MethodGet)
	p.HandleFunc("/clients", h.CreateClient).Methods(http.MethodPost)
	p.HandleFunc("/clients/{id}", h.GetClient).Methods(http.MethodGet)
	p.HandleFunc("/clients/{id}", h.UpdateClient).Methods(http.MethodPut)
	p.HandleFunc("/clients/{id}", h.DeleteClient).Methods(http.MethodDelete)
	p.HandleFunc("/clients/{id}/credits", h.ClientCredits).Methods(http.MethodGet)

	p.HandleFunc("/credits", h.ListCredits).Methods(http.MethodGet)
	p.HandleFunc("/credits", h.CreateCredit).Methods(http.MethodPost)
	p.HandleFunc("/credits/search", h.SearchCredits).Methods(http.MethodGet)
	p.HandleFunc("/credits/revalidate", h.Revalidate).Methods(http.MethodPost)
	p.HandleFunc("/credits/{id}", h.GetCredit).Methods(http.MethodGet)
	p.HandleFunc("/credits/{id}", h.UpdateCredit).Methods(http.MethodPatch, http.MethodPut)
	p.HandleFunc("/credits/{id}", h.DeleteCredit).Methods(http.MethodDelete)
	p.HandleFunc("/credits/{id}/approve", h.ApproveCredit).Methods(http.MethodPost)
	p.HandleFunc("/credits/{id}/reject", h.RejectCredit).Methods(http.MethodPost)
	p.HandleFunc("/credits/{id}/disburse", h.DisburseCredit).Methods(http.MethodPost)
	p.HandleFunc("/credits/{id}/revert", h.RevertDisbursement).Methods(http.MethodPost)
	p.HandleFunc("/credits/{id}/promissory-note", h.PromissoryNote).Methods(http.MethodGet)
	p.HandleFunc("/credits/{id}/payments", h.AddPayment).Methods(http.MethodPost)
	p.HandleFunc("/credits/{id}/payments/{paymentId}/void-request", h.RequestVoid).Methods(http.MethodPost)
	p.HandleFunc("/credits/{id}/payments/{paymentId}/void", h.ApproveVoid).Methods(http.MethodPost)

	p.HandleFunc("/payments/void-requests", h.PendingVoids).Methods(http.MethodGet)

	p.HandleFunc("/holidays", h.ListHolidays).Methods(http.MethodGet)
	p.HandleFunc("/holidays", h.CreateHoliday).Methods(http.MethodPost)
	p.HandleFunc("/holidays/{id}", h.DeleteHoliday).Methods(http.MethodDelete)

	audit := p.PathPrefix("/audit-logs").Subrouter()
	audit.Use(middleware.RequireRole(models.RoleAdministrador, models.RoleGerente))
	audit.HandleFunc("", h.ListAuditLogs).Methods(http.MethodGet)
	audit.HandleFunc("", h.PurgeAuditLogs).Methods(http.MethodDelete)

	p.HandleFunc("/reports/daily-activity", h.DailyActivity).Methods(http.MethodGet)
	p.HandleFunc("/reports/rejections", h.RejectionAnalysis).Methods(http.MethodGet)
	p.HandleFunc("/reports/rejections/export", h.ExportRejections).Methods(http.MethodGet)
	p.HandleFunc("/reports/portfolio", h.PortfolioSummary).Methods(http.MethodGet)
	p.HandleFunc("/reports/disbursement-queue", h.DisbursementQueue).Methods(http.MethodGet)
}

// Health reports that the process and its database are reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.WithError(err).Error("Health check failed")
		h.respond(w, http.StatusServiceUnavailable, envelope{Error: service.GenericErrorMessage})
		return
	}
	h.respond(w, http.StatusOK, envelope{Success: true})
}

func (h *Handler) respond(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).Warn("Failed to write response")
	}
}

func (h *Handler) ok(w http.ResponseWriter, data any) {
	h.respond(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (h *Handler) created(w http.ResponseWriter, id string, data any) {
	h.respond(w, http.StatusCreated, envelope{Success: true, ID: id, Data: data})
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.respond(w, http.StatusBadRequest, envelope{Error: msg})
}

// fail writes a service error with the status matching its kind. The raw
// cause of internal errors is only shown in debug mode.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		h.log.WithError(err).Error("Unexpected error")
		se = &service.Error{Kind: service.KindInternal, Message: service.GenericErrorMessage, Err: err}
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindUnauthorized:
		status = http.StatusUnauthorized
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindInternal:
	}

	msg := se.Message
	if se.Kind == service.KindInternal && h.debug && se.Err != nil {
		msg = msg + " (" + se.Err.Error() + ")"
	}
	h.respond(w, status, envelope{Error: msg})
}

// decode reads a JSON body into v, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.badRequest(w, "El cuerpo de la solicitud no es JSON válido.")
		return false
	}
	return true
}

func session(r *http.Request) *models.Session {
	s, _ := auth.SessionFromContext(r.Context())
	return s
}

func pathID(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// queryDay parses an optional YYYY-MM-DD query parameter as the start of that
// day in the business time zone, or its last instant when endOfDay is set.
func (h *Handler) queryDay(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, h.svc.Location())
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
