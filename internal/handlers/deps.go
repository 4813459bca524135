package handlers

import (
	"context"

	"stockbot/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user store.User) error
	Get(ctx context.Context, uid string) (store.User, bool, error)
	GetPortfolio(ctx context.Context, uid string) (store.Portfolio, bool, error)
	Delete(ctx context.Context, tx store.Execer, uid string) error
}

type StockStore interface {
	Create(ctx context.Context, tx store.Execer, stock store.Stock) error
	Get(ctx context.Context, ticker string) (store.Stock, bool, error)
	Update(ctx context.Context, tx store.Execer, ticker string, update store.StockUpdate) error
	Delete(ctx context.Context, tx store.Execer, ticker string) error
	List(ctx context.Context) ([]store.Stock, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, uid, txType string, limit, offset int) ([]store.Transaction, error)
	ListAll(ctx context.Context, limit, offset int) ([]store.Transaction, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actor, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]store.AuditEntry, error)
}

type LedgerService interface {
	Buy(ctx context.Context, uid, ticker string, quantity int64, useCredit bool) (store.Transaction, error)
	Sell(ctx context.Context, uid, ticker string, quantity int64) (store.Transaction, error)
	WireToUser(ctx context.Context, fromUID, destUID string, amount int64) (store.Transaction, error)
	WireToEntity(ctx context.Context, fromUID, destEntity string, amount int64) (store.Transaction, error)
}
