package store

import (
	"context"
	"fmt"
	"time"
)

// TransactionStore is the append-only audit log. There is deliberately no
// update or delete on this table; a record, once written, is history.
type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const (
	TxTypeBuy  = "buy"
	TxTypeSell = "sell"
	TxTypeWire = "wire"
)

type Transaction struct {
	ID                string    `db:"id" json:"id"`
	Type              string    `db:"type" json:"type"`
	UserID            string    `db:"user_id" json:"user_id"`
	Ticker            *string   `db:"ticker" json:"ticker,omitempty"`
	BalanceChange     int64     `db:"balance_change" json:"balance_change"`
	CreditChange      int64     `db:"credit_change" json:"credit_change"`
	Quantity          *int64    `db:"quantity" json:"quantity,omitempty"`
	UnitPrice         *int64    `db:"unit_price" json:"unit_price,omitempty"`
	TotalPrice        *int64    `db:"total_price" json:"total_price,omitempty"`
	DestUserID        *string   `db:"dest_user_id" json:"dest_user_id,omitempty"`
	DestEntity        *string   `db:"dest_entity" json:"dest_entity,omitempty"`
	IsDestinationUser bool      `db:"is_destination_user" json:"is_destination_user"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

func (s *TransactionStore) Append(ctx context.Context, tx Execer, record Transaction) error {
	query := `
		INSERT INTO transactions (id, type, user_id, ticker, balance_change, credit_change,
		                          quantity, unit_price, total_price, dest_user_id, dest_entity,
		                          is_destination_user, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := tx.ExecContext(ctx, query,
		record.ID, record.Type, record.UserID, record.Ticker, record.BalanceChange, record.CreditChange,
		record.Quantity, record.UnitPrice, record.TotalPrice, record.DestUserID, record.DestEntity,
		record.IsDestinationUser, record.CreatedAt,
	)
	return err
}

// ListByUser returns records the user originated plus wires they received,
// newest first.
func (s *TransactionStore) ListByUser(ctx context.Context, uid, txType string, limit, offset int) ([]Transaction, error) {
	query := `
		SELECT id, type, user_id, ticker, balance_change, credit_change,
		       quantity, unit_price, total_price, dest_user_id, dest_entity,
		       is_destination_user, created_at
		FROM transactions
		WHERE (user_id = $1 OR dest_user_id = $1)
	`
	args := []any{uid}
	if txType != "" {
		args = append(args, txType)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	var rows []Transaction
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListAll(ctx context.Context, limit, offset int) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, type, user_id, ticker, balance_change, credit_change,
		       quantity, unit_price, total_price, dest_user_id, dest_entity,
		       is_destination_user, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
