package handlers

import (
	"net/http"

	"stockbot/internal/config"
	"stockbot/internal/db"
	"stockbot/internal/middleware"
	"stockbot/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	stocks       StockStore
	transactions TransactionStore
	audit        AuditStore
	ledger       LedgerService
	hub          *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, stocks StockStore, transactions TransactionStore, audit AuditStore, ledger LedgerService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		stocks:       stocks,
		transactions: transactions,
		audit:        audit,
		ledger:       ledger,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/auth/token", h.Token)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))

		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}", h.GetUser)
		r.Get("/users/{id}/portfolio", h.GetPortfolio)
		r.Get("/users/{id}/transactions", h.ListUserTransactions)

		r.Post("/trades/buy", h.Buy)
		r.Post("/trades/sell", h.Sell)
		r.Post("/wires", h.Wire)

		r.Get("/stocks", h.ListStocks)
		r.Get("/stocks/{ticker}", h.GetStock)

		r.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin)
			admin.Post("/stocks", h.CreateStock)
			admin.Put("/stocks/{ticker}", h.UpdateStock)
			admin.Delete("/stocks/{ticker}", h.DeleteStock)
			admin.Delete("/users/{id}", h.DeleteUser)
			admin.Get("/admin/transactions", h.AdminListTransactions)
			admin.Get("/admin/audit", h.ListAuditLog)
		})
	})

	router.Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	websocket.ServeWS(w, r, h.hub, userID)
}
