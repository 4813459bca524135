package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockbot/internal/middleware"
	"stockbot/internal/money"
	"stockbot/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type createUserRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// CreateUser provisions a fresh player with the configured starting balance
// and credit line. The bot calls this on a user's first interaction.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user := store.User{
		ID:          req.UserID,
		Balance:     h.cfg.StartingBalance,
		CreditLimit: h.cfg.StartingCredit,
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.users.Create(r.Context(), tx, user)
	})
	if err != nil {
		var duplicate *store.DuplicateUserError
		if errors.As(err, &duplicate) {
			respondError(w, http.StatusConflict, "user_already_exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "user_create_failed")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")
	user, found, err := h.users.Get(r.Context(), uid)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "user_lookup_failed")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "user_not_found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type portfolioHoldingView struct {
	Ticker       string  `json:"ticker"`
	Name         *string `json:"name,omitempty"`
	Quantity     int64   `json:"quantity"`
	Price        *int64  `json:"price,omitempty"`
	Value        int64   `json:"value"`
	ValueDisplay string  `json:"value_display"`
	Weight       string  `json:"weight"`
}

type portfolioView struct {
	User       store.User             `json:"user"`
	Holdings   []portfolioHoldingView `json:"holdings"`
	TotalValue int64                  `json:"total_value"`
}

// GetPortfolio values the user's current positions at today's prices and
// reports each holding's share of the total.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")
	portfolio, found, err := h.users.GetPortfolio(r.Context(), uid)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "portfolio_lookup_failed")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "user_not_found")
		return
	}
	respondJSON(w, http.StatusOK, buildPortfolioView(portfolio))
}

func buildPortfolioView(portfolio store.Portfolio) portfolioView {
	var total int64
	for _, holding := range portfolio.Holdings {
		if holding.Price != nil {
			total += *holding.Price * holding.Quantity
		}
	}
	views := make([]portfolioHoldingView, 0, len(portfolio.Holdings))
	for _, holding := range portfolio.Holdings {
		var value int64
		if holding.Price != nil {
			value = *holding.Price * holding.Quantity
		}
		weight := decimal.Zero
		if total > 0 {
			weight = decimal.NewFromInt(value).Div(decimal.NewFromInt(total)).Round(4)
		}
		views = append(views, portfolioHoldingView{
			Ticker:       holding.Ticker,
			Name:         holding.Name,
			Quantity:     holding.Quantity,
			Price:        holding.Price,
			Value:        value,
			ValueDisplay: money.FormatMinor(value),
			Weight:       weight.String(),
		})
	}
	return portfolioView{User: portfolio.User, Holdings: views, TotalValue: total}
}

func (h *Handler) ListUserTransactions(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")
	query := r.URL.Query()
	txType := query.Get("type")
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	offset := (page - 1) * limit
	transactions, err := h.transactions.ListByUser(r.Context(), uid, txType, limit, offset)
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

// DeleteUser removes a player. Their transaction history stays; only the
// user row goes away. Admin only.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")
	claims, _ := middleware.ClaimsFromContext(r.Context())
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.Delete(r.Context(), tx, uid); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"user_id": uid})
		return h.audit.Log(r.Context(), tx, claims.ClientID, "user_delete", "user", uid, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "user_delete_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
