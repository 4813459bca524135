package handlers

import "net/http"

func (h *Handler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 50)
	offset := (page - 1) * limit
	transactions, err := h.transactions.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "transactions_lookup_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"page":         page,
		"limit":        limit,
	})
}

func (h *Handler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 50)
	offset := (page - 1) * limit
	entries, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "audit_lookup_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"page":    page,
		"limit":   limit,
	})
}
