package handlers

import (
	"errors"
	"net/http"

	"stockbot/internal/services"
)

type buyRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	Ticker    string `json:"ticker" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	UseCredit bool   `json:"use_credit"`
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	record, err := h.ledger.Buy(r.Context(), req.UserID, req.Ticker, req.Quantity, req.UseCredit)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

type sellRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Ticker   string `json:"ticker" validate:"required"`
	Quantity int64  `json:"quantity" validate:"gt=0"`
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	record, err := h.ledger.Sell(r.Context(), req.UserID, req.Ticker, req.Quantity)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func respondLedgerError(w http.ResponseWriter, err error) {
	var userNotFound *services.UserNotFoundError
	var stockNotFound *services.StockNotFoundError
	var insufficientBalance *services.InsufficientBalanceError
	var insufficientStock *services.InsufficientStockQuantityError
	switch {
	case errors.As(err, &userNotFound):
		respondJSON(w, http.StatusNotFound, map[string]any{
			"error": "user_not_found", "user_id": userNotFound.UID,
		})
	case errors.As(err, &stockNotFound):
		respondJSON(w, http.StatusNotFound, map[string]any{
			"error": "stock_not_found", "ticker": stockNotFound.Ticker,
		})
	case errors.As(err, &insufficientBalance):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "insufficient_balance",
			"user_id":  insufficientBalance.UID,
			"balance":  insufficientBalance.Balance,
			"required": insufficientBalance.Required,
		})
	case errors.As(err, &insufficientStock):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "insufficient_stock_quantity",
			"user_id":   insufficientStock.UID,
			"owned":     insufficientStock.Owned,
			"requested": insufficientStock.Requested,
		})
	case errors.Is(err, services.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, services.ErrSelfWire):
		respondError(w, http.StatusBadRequest, "self_wire")
	default:
		respondError(w, http.StatusInternalServerError, "ledger_operation_failed")
	}
}
