package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type StockStore struct {
	db DB
}

func NewStockStore(db DB) *StockStore {
	return &StockStore{db: db}
}

type Stock struct {
	Ticker    string    `db:"ticker" json:"ticker"`
	Price     int64     `db:"price" json:"price"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type StockUpdate struct {
	Price *int64
	Name  *string
}

func (s *StockStore) Create(ctx context.Context, tx Execer, stock Stock) error {
	query := `
		INSERT INTO stocks (ticker, price, name)
		VALUES ($1, $2, $3)
	`
	_, err := tx.ExecContext(ctx, query, stock.Ticker, stock.Price, stock.Name)
	return err
}

func (s *StockStore) Get(ctx context.Context, ticker string) (Stock, bool, error) {
	var row Stock
	err := s.db.GetContext(ctx, &row, `
		SELECT ticker, price, name, created_at, updated_at
		FROM stocks
		WHERE ticker = $1
	`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return Stock{}, false, nil
	}
	if err != nil {
		return Stock{}, false, err
	}
	return row, true, nil
}

func (s *StockStore) Update(ctx context.Context, tx Execer, ticker string, update StockUpdate) error {
	var sets []string
	var args []any
	if update.Price != nil {
		args = append(args, *update.Price)
		sets = append(sets, fmt.Sprintf("price = $%d", len(args)))
	}
	if update.Name != nil {
		args = append(args, *update.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if len(sets) == 0 {
		return ErrEmptyUpdate
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, ticker)
	query := fmt.Sprintf(`UPDATE stocks SET %s WHERE ticker = $%d`, strings.Join(sets, ", "), len(args))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (s *StockStore) Delete(ctx context.Context, tx Execer, ticker string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM stocks WHERE ticker = $1`, ticker)
	return err
}

func (s *StockStore) List(ctx context.Context) ([]Stock, error) {
	var rows []Stock
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ticker, price, name, created_at, updated_at
		FROM stocks
		ORDER BY ticker
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
