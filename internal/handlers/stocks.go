package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockbot/internal/middleware"
	"stockbot/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) ListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.stocks.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stocks_lookup_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"stocks": stocks})
}

func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	stock, found, err := h.stocks.Get(r.Context(), ticker)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stock_lookup_failed")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "stock_not_found")
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

type createStockRequest struct {
	Ticker string `json:"ticker" validate:"required"`
	Price  int64  `json:"price" validate:"gt=0"`
	Name   string `json:"name" validate:"required"`
}

func (h *Handler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var req createStockRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	stock := store.Stock{Ticker: req.Ticker, Price: req.Price, Name: req.Name}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.stocks.Create(r.Context(), tx, stock); err != nil {
			return err
		}
		data, _ := json.Marshal(req)
		return h.audit.Log(r.Context(), tx, claims.ClientID, "stock_create", "stock", req.Ticker, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stock_create_failed")
		return
	}
	respondJSON(w, http.StatusCreated, stock)
}

type updateStockRequest struct {
	Price *int64  `json:"price"`
	Name  *string `json:"name"`
}

func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	var req updateStockRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		update := store.StockUpdate{Price: req.Price, Name: req.Name}
		if err := h.stocks.Update(r.Context(), tx, ticker, update); err != nil {
			return err
		}
		data, _ := json.Marshal(req)
		return h.audit.Log(r.Context(), tx, claims.ClientID, "stock_update", "stock", ticker, string(data))
	})
	if err != nil {
		if errors.Is(err, store.ErrEmptyUpdate) {
			respondError(w, http.StatusBadRequest, "empty_update")
			return
		}
		respondError(w, http.StatusInternalServerError, "stock_update_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteStock(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	claims, _ := middleware.ClaimsFromContext(r.Context())
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.stocks.Delete(r.Context(), tx, ticker); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, claims.ClientID, "stock_delete", "stock", ticker, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stock_delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
