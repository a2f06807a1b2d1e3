package handler

import (
	"net/http"
	"strconv"

	"github.com/credinica/loan-service/internal/service"
)

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context(), session(r), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, clients)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req service.ClientInput
	if !h.decode(w, r, &req) {
		return
	}
	client, err := h.svc.CreateClient(r.Context(), session(r), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.created(w, client.ID, client)
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.svc.GetClient(r.Context(), session(r), pathID(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, client)
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req service.ClientInput
	if !h.decode(w, r, &req) {
		return
	}
	client, err := h.svc.UpdateClient(r.Context(), session(r), pathID(r, "id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, client)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteClient(r.Context(), session(r), pathID(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, nil)
}

func (h *Handler) ClientCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := h.svc.ClientCredits(r.Context(), session(r), pathID(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, credits)
}

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.svc.ListHolidays(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, holidays)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req service.HolidayInput
	if !h.decode(w, r, &req) {
		return
	}
	holiday, err := h.svc.CreateHoliday(r.Context(), session(r), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.created(w, holiday.ID, holiday)
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteHoliday(r.Context(), session(r), pathID(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, nil)
}

// ListAuditLogs returns the newest entries; limit is optional
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.badRequest(w, "El límite debe ser un número positivo.")
			return
		}
		limit = n
	}
	logs, err := h.svc.ListAuditLogs(r.Context(), session(r), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, logs)
}

func (h *Handler) PurgeAuditLogs(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.PurgeAuditLogs(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, map[string]int64{"deleted": n})
}
