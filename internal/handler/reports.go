package handler

import (
	"net/http"
	"strconv"
)

// DailyActivity is the caller's daily closure, or another user's with userId
func (h *Handler) DailyActivity(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.DailyActivity(r.Context(), session(r), r.URL.Query().Get("userId"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, report)
}

func (h *Handler) RejectionAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.RejectionAnalysis(r.Context(), session(r), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, items)
}

// ExportRejections downloads the rejection analysis as an Excel workbook
func (h *Handler) ExportRejections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doc, err := h.svc.ExportRejectionAnalysis(r.Context(), session(r), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.ms-excel")
	w.Header().Set("Content-Disposition", `attachment; filename="analisis-rechazos.xls"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		h.log.WithError(err).Warn("Failed to write workbook")
	}
}

func (h *Handler) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.PortfolioSummary(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, summary)
}

func (h *Handler) DisbursementQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.svc.DisbursementQueue(r.Context(), session(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, queue)
}
