package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

type User struct {
	ID          string    `db:"id" json:"id"`
	Balance     int64     `db:"balance" json:"balance"`
	CreditLimit int64     `db:"credit_limit" json:"credit_limit"`
	LoanBalance int64     `db:"loan_balance" json:"loan_balance"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Holding is one append-only position snapshot. The current position for a
// (user, ticker) pair is the snapshot with the greatest (created_at, id).
type Holding struct {
	ID        int64     `db:"id" json:"-"`
	UserID    string    `db:"user_id" json:"user_id"`
	Ticker    string    `db:"ticker" json:"ticker"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PortfolioHolding struct {
	Ticker   string  `db:"ticker" json:"ticker"`
	Quantity int64   `db:"quantity" json:"quantity"`
	Price    *int64  `db:"price" json:"price,omitempty"`
	Name     *string `db:"name" json:"name,omitempty"`
}

type Portfolio struct {
	User     User               `json:"user"`
	Holdings []PortfolioHolding `json:"holdings"`
}

// UserUpdate is a sparse update: nil fields are left untouched.
type UserUpdate struct {
	Balance     *int64
	CreditLimit *int64
	LoanBalance *int64
}

func (s *UserStore) Create(ctx context.Context, tx Execer, user User) error {
	query := `
		INSERT INTO users (id, balance, credit_limit, loan_balance)
		VALUES ($1, $2, $3, $4)
	`
	_, err := tx.ExecContext(ctx, query, user.ID, user.Balance, user.CreditLimit, user.LoanBalance)
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateUserError{UID: user.ID}
		}
		return err
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, uid string) (User, bool, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, balance, credit_limit, loan_balance, created_at
		FROM users
		WHERE id = $1
	`, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return row, true, nil
}

func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, uid string) (User, bool, error) {
	var row User
	err := tx.GetContext(ctx, &row, `
		SELECT id, balance, credit_limit, loan_balance, created_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return row, true, nil
}

// Update applies the non-nil fields only. It does not verify the row exists;
// updating an unknown uid is a silent no-op and callers are expected to have
// resolved the user first.
func (s *UserStore) Update(ctx context.Context, tx Execer, uid string, update UserUpdate) error {
	var sets []string
	var args []any
	if update.Balance != nil {
		args = append(args, *update.Balance)
		sets = append(sets, fmt.Sprintf("balance = $%d", len(args)))
	}
	if update.CreditLimit != nil {
		args = append(args, *update.CreditLimit)
		sets = append(sets, fmt.Sprintf("credit_limit = $%d", len(args)))
	}
	if update.LoanBalance != nil {
		args = append(args, *update.LoanBalance)
		sets = append(sets, fmt.Sprintf("loan_balance = $%d", len(args)))
	}
	if len(sets) == 0 {
		return ErrEmptyUpdate
	}
	args = append(args, uid)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (s *UserStore) Delete(ctx context.Context, tx Execer, uid string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uid)
	return err
}

// GetPortfolio joins the user with their latest positive-quantity holdings
// and current stock prices, highest held value first. Stocks that have been
// delisted since the position was opened surface with a nil price and sort
// last.
func (s *UserStore) GetPortfolio(ctx context.Context, uid string) (Portfolio, bool, error) {
	user, found, err := s.Get(ctx, uid)
	if err != nil || !found {
		return Portfolio{}, found, err
	}
	var holdings []PortfolioHolding
	err = s.db.SelectContext(ctx, &holdings, `
		SELECT ticker, quantity, price, name
		FROM (
			SELECT DISTINCT ON (h.ticker)
			       h.ticker, h.quantity, s.price, s.name
			FROM holdings h
			LEFT JOIN stocks s ON s.ticker = h.ticker
			WHERE h.user_id = $1
			ORDER BY h.ticker, h.created_at DESC, h.id DESC
		) latest
		WHERE quantity > 0
		ORDER BY price * quantity DESC NULLS LAST
	`, uid)
	if err != nil {
		return Portfolio{}, false, err
	}
	return Portfolio{User: user, Holdings: holdings}, true, nil
}

// CreateHolding appends a snapshot row. Existing snapshots are never
// touched.
func (s *UserStore) CreateHolding(ctx context.Context, tx Execer, uid, ticker string, quantity int64, at time.Time) error {
	query := `
		INSERT INTO holdings (user_id, ticker, quantity, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := tx.ExecContext(ctx, query, uid, ticker, quantity, at)
	return err
}

func (s *UserStore) GetLatestHolding(ctx context.Context, tx Getter, uid, ticker string) (Holding, bool, error) {
	var row Holding
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, ticker, quantity, created_at
		FROM holdings
		WHERE user_id = $1 AND ticker = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, uid, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return Holding{}, false, nil
	}
	if err != nil {
		return Holding{}, false, err
	}
	return row, true, nil
}
