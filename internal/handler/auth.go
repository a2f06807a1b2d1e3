package handler

import (
	"net/http"
	"time"

	"github.com/credinica/loan-service/internal/middleware"
	"github.com/credinica/loan-service/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type branchRequest struct {
	Name string `json:"name"`
}

// sessionResponse also carries the token for clients that prefer the
// Authorization header over the cookie.
type sessionResponse struct {
	*service.LoginResult
	Token string `json:"token"`
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Setup creates the first administrator
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var req service.SetupInput
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.Setup(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.created(w, user.ID, user)
}

// Login signs a user in and sets the session cookie
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	h.ok(w, sessionResponse{LoginResult: res, Token: res.Token})
}

// Logout clears the session cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.ok(w, nil)
}

// Me returns the signed-in user
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.CurrentUser(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, user)
}

// ChangePassword updates the caller's password and renews the session
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.ChangePassword(r.Context(), session(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	h.ok(w, sessionResponse{LoginResult: res, Token: res.Token})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserInput
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.CreateUser(r.Context(), session(r), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.created(w, user.ID, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserInput
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.UpdateUser(r.Context(), session(r), pathID(r, "id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), session(r), pathID(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, nil)
}

// ResetPassword returns a temporary password that must be changed on next login
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	temp, err := h.svc.ResetPassword(r.Context(), session(r), pathID(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, map[string]string{"temporaryPassword": temp})
}

func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.svc.ListBranches(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, branches)
}

func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if !h.decode(w, r, &req) {
		return
	}
	branch, err := h.svc.CreateBranch(r.Context(), session(r), req.Name)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.created(w, branch.ID, branch)
}
