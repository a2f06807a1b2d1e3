package handler

import (
	"net/http"
	"strings"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/service"
)

type rejectRequest struct {
	Reason string `json:"reason"`
}

type voidRequest struct {
	Reason string `json:"reason"`
}

// creditFilter reads the listing filters from the query string
func (h *Handler) creditFilter(r *http.Request) (models.CreditFilter, bool) {
	q := r.URL.Query()
	filter := models.CreditFilter{
		Status:     models.CreditStatus(q.Get("status")),
		GestorName: q.Get("gestor"),
		ClientID:   q.Get("clientId"),
		SearchTerm: strings.TrimSpace(q.Get("search")),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return filter, false
	}
	for _, b := range strings.Split(q.Get("sucursales"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			filter.Branches = append(filter.Branches, b)
		}
	}
	var err error
	if filter.DateFrom, err = h.queryDay(r, "from", false); err != nil {
		return filter, false
	}
	if filter.DateTo, err = h.queryDay(r, "to", true); err != nil {
		return filter, false
	}
	return filter, true
}

// ListCredits lists credits visible to the caller
func (h *Handler) ListCredits(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.creditFilter(r)
	if !ok {
		h.badRequest(w, "Los filtros de búsqueda no son válidos.")
		return
	}
	credits, err := h.svc.ListCredits(r.Context(), session(r), filter)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, credits)
}

// SearchCredits finds active credits by client name, cedula or credit number
func (h *Handler) SearchCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := h.svc.SearchActiveCredits(r.Context(), session(r), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, credits)
}

func (h *Handler) GetCredit(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetCredit(r.Context(), session(r), pathID(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, detail)
}

func (h *Handler) CreateCredit(w http.ResponseWriter, r *http.Request) {
	var req service.CreditInput
	if !h.decode(w, r, &req) {
		return
	}
	credit, err := h.svc.CreateCredit(r.Context(), session(r), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.created(w, credit.ID, credit)
}

func (h *Handler) UpdateCredit(w http.ResponseWriter, r *http.Request) {
	var req service.CreditPatch
	if !h.decode(w, r, &req) {
		return
	}
	credit, err := h.svc.UpdateCredit(r.Context(), session(r), pathID(r, "id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, credit)
}

func (h *Handler) DeleteCredit(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCredit(r.Context(), session(r), pathID(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, nil)
}

func (h *Handler) ApproveCredit(w http.ResponseWriter, r *http.Request) {
	credit, err := h.svc.ApproveCredit(r.Context(), session(r), pathID(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, credit)
}

func (h *Handler) RejectCredit(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if !h.decode(w, r, &req) {
		return
	}
	credit, err := h.svc.RejectCredit(r.Context(), session(r), pathID(r, "id"), req.Reason)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, credit)
}

// DisburseCredit accepts an empty body to disburse the default net amount
func (h *Handler) DisburseCredit(w http.ResponseWriter, r *http.Request) {
	var req service.DisbursementInput
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	credit, err := h.svc.DisburseCredit(r.Context(), session(r), pathID(r, "id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, credit)
}

func (h *Handler) RevertDisbursement(w http.ResponseWriter, r *http.Request) {
	credit, err := h.svc.RevertDisbursement(r.Context(), session(r), pathID(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, credit)
}

func (h *Handler) PromissoryNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.PromissoryNote(r.Context(), session(r), pathID(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, note)
}

// Revalidate regenerates the payment plan of every active credit
func (h *Handler) Revalidate(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.RevalidateActiveCredits(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, map[string]int{"revalidated": n})
}

func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentInput
	if !h.decode(w, r, &req) {
		return
	}
	payment, err := h.svc.AddPayment(r.Context(), session(r), pathID(r, "id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.created(w, payment.ID, payment)
}

func (h *Handler) RequestVoid(w http.ResponseWriter, r *http.Request) {
	var req voidRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.RequestVoid(r.Context(), session(r), pathID(r, "id"), pathID(r, "paymentId"), req.Reason); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, nil)
}

// PendingVoids lists the payments waiting for void approval
func (h *Handler) PendingVoids(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.PendingVoids(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, payments)
}

func (h *Handler) ApproveVoid(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ApproveVoid(r.Context(), session(r), pathID(r, "id"), pathID(r, "paymentId")); err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, nil)
}
