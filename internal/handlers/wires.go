package handlers

import (
	"net/http"

	"stockbot/internal/money"
	"stockbot/internal/store"
)

type wireRequest struct {
	FromUserID string `json:"from_user_id" validate:"required"`
	ToUserID   string `json:"to_user_id"`
	ToEntity   string `json:"to_entity"`
	Amount     string `json:"amount" validate:"required"`
}

// Wire sends cash from a user to another user or, when to_entity is given,
// out of the ledger entirely.
func (h *Handler) Wire(w http.ResponseWriter, r *http.Request) {
	var req wireRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if (req.ToUserID == "") == (req.ToEntity == "") {
		respondError(w, http.StatusBadRequest, "exactly one of to_user_id or to_entity is required")
		return
	}
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	var record store.Transaction
	if req.ToUserID != "" {
		record, err = h.ledger.WireToUser(r.Context(), req.FromUserID, req.ToUserID, amountMinor)
	} else {
		record, err = h.ledger.WireToEntity(r.Context(), req.FromUserID, req.ToEntity, amountMinor)
	}
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}
