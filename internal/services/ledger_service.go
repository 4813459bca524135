package services

import (
	"context"
	"math"
	"time"

	"stockbot/internal/db"
	"stockbot/internal/money"
	"stockbot/internal/store"
	"stockbot/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LedgerService is the only writer of balances, credit and holdings. Every
// public operation is one storage transaction: validate, compute, persist
// the holding snapshot + user row + log record together, return the record.
// Nothing is mutated on a validation failure, and a failure mid-persist
// rolls the whole operation back.
type LedgerService struct {
	txRunner     db.TxRunner
	users        UserStore
	stocks       StockStore
	transactions TransactionStore
	hub          BalanceHub
}

type UserStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, uid string) (store.User, bool, error)
	Update(ctx context.Context, tx store.Execer, uid string, update store.UserUpdate) error
	CreateHolding(ctx context.Context, tx store.Execer, uid, ticker string, quantity int64, at time.Time) error
	GetLatestHolding(ctx context.Context, tx store.Getter, uid, ticker string) (store.Holding, bool, error)
}

type StockStore interface {
	Get(ctx context.Context, ticker string) (store.Stock, bool, error)
}

type TransactionStore interface {
	Append(ctx context.Context, tx store.Execer, record store.Transaction) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

func NewLedgerService(txRunner db.TxRunner, users UserStore, stocks StockStore, transactions TransactionStore, hub BalanceHub) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		users:        users,
		stocks:       stocks,
		transactions: transactions,
		hub:          hub,
	}
}

// Buy purchases quantity shares of ticker at the current price. When cash
// alone cannot cover the cost and useCredit is set, only the shortfall is
// drawn against the user's credit line.
func (s *LedgerService) Buy(ctx context.Context, uid, ticker string, quantity int64, useCredit bool) (store.Transaction, error) {
	if quantity <= 0 {
		return store.Transaction{}, ErrInvalidQuantity
	}
	var record store.Transaction
	var balanceAfter, loanAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, found, err := s.users.GetForUpdate(ctx, tx, uid)
		if err != nil {
			return err
		}
		if !found {
			return &UserNotFoundError{UID: uid}
		}
		stock, found, err := s.stocks.Get(ctx, ticker)
		if err != nil {
			return err
		}
		if !found {
			return &StockNotFoundError{Ticker: ticker}
		}

		cost, err := priceTotal(stock.Price, quantity)
		if err != nil {
			return err
		}
		availableCredit := user.CreditLimit - user.LoanBalance
		if availableCredit < 0 {
			availableCredit = 0
		}
		var creditAmount int64
		switch {
		case user.Balance >= cost:
		case useCredit && user.Balance+availableCredit > cost:
			creditAmount = cost - user.Balance
		default:
			return &InsufficientBalanceError{UID: uid, Balance: user.Balance, Required: cost}
		}

		holding, _, err := s.users.GetLatestHolding(ctx, tx, uid, ticker)
		if err != nil {
			return err
		}
		newQuantity := holding.Quantity + quantity
		newBalance := user.Balance + creditAmount - cost
		newLoan := user.LoanBalance + creditAmount
		now := time.Now().UTC()

		if err := s.users.CreateHolding(ctx, tx, uid, ticker, newQuantity, now); err != nil {
			return err
		}
		if err := s.users.Update(ctx, tx, uid, store.UserUpdate{Balance: &newBalance, LoanBalance: &newLoan}); err != nil {
			return err
		}
		record = store.Transaction{
			ID:            uuid.NewString(),
			Type:          store.TxTypeBuy,
			UserID:        uid,
			Ticker:        &stock.Ticker,
			BalanceChange: creditAmount - cost,
			CreditChange:  creditAmount,
			Quantity:      &quantity,
			UnitPrice:     &stock.Price,
			TotalPrice:    &cost,
			CreatedAt:     now,
		}
		balanceAfter = newBalance
		loanAfter = newLoan
		return s.transactions.Append(ctx, tx, record)
	})
	if err != nil {
		return store.Transaction{}, err
	}
	s.broadcast(uid, balanceAfter, loanAfter)
	return record, nil
}

// Sell liquidates quantity shares at the current price. Selling more than
// the latest snapshot holds fails without touching anything.
func (s *LedgerService) Sell(ctx context.Context, uid, ticker string, quantity int64) (store.Transaction, error) {
	if quantity <= 0 {
		return store.Transaction{}, ErrInvalidQuantity
	}
	var record store.Transaction
	var balanceAfter, loanAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, found, err := s.users.GetForUpdate(ctx, tx, uid)
		if err != nil {
			return err
		}
		if !found {
			return &UserNotFoundError{UID: uid}
		}
		stock, found, err := s.stocks.Get(ctx, ticker)
		if err != nil {
			return err
		}
		if !found {
			return &StockNotFoundError{Ticker: ticker}
		}
		holding, hasHolding, err := s.users.GetLatestHolding(ctx, tx, uid, ticker)
		if err != nil {
			return err
		}
		var owned int64
		if hasHolding {
			owned = holding.Quantity
		}
		if quantity > owned {
			return &InsufficientStockQuantityError{UID: uid, Owned: owned, Requested: quantity}
		}

		proceeds, err := priceTotal(stock.Price, quantity)
		if err != nil {
			return err
		}
		newQuantity := owned - quantity
		newBalance := user.Balance + proceeds
		now := time.Now().UTC()

		if err := s.users.CreateHolding(ctx, tx, uid, ticker, newQuantity, now); err != nil {
			return err
		}
		if err := s.users.Update(ctx, tx, uid, store.UserUpdate{Balance: &newBalance}); err != nil {
			return err
		}
		record = store.Transaction{
			ID:            uuid.NewString(),
			Type:          store.TxTypeSell,
			UserID:        uid,
			Ticker:        &stock.Ticker,
			BalanceChange: proceeds,
			Quantity:      &quantity,
			UnitPrice:     &stock.Price,
			TotalPrice:    &proceeds,
			CreatedAt:     now,
		}
		balanceAfter = newBalance
		loanAfter = user.LoanBalance
		return s.transactions.Append(ctx, tx, record)
	})
	if err != nil {
		return store.Transaction{}, err
	}
	s.broadcast(uid, balanceAfter, loanAfter)
	return record, nil
}

// WireToUser moves cash between two tracked users. The two rows are locked
// in sorted uid order so concurrent opposing wires cannot deadlock.
func (s *LedgerService) WireToUser(ctx context.Context, fromUID, destUID string, amount int64) (store.Transaction, error) {
	if amount <= 0 {
		return store.Transaction{}, ErrInvalidAmount
	}
	if fromUID == destUID {
		return store.Transaction{}, ErrSelfWire
	}
	var record store.Transaction
	var fromBalance, fromLoan, destBalance, destLoan int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		fromUser, destUser, err := s.lockTwoUsers(ctx, tx, fromUID, destUID)
		if err != nil {
			return err
		}
		if fromUser.Balance < amount {
			return &InsufficientBalanceError{UID: fromUID, Balance: fromUser.Balance, Required: amount}
		}
		newFrom := fromUser.Balance - amount
		newDest := destUser.Balance + amount
		if err := s.users.Update(ctx, tx, fromUID, store.UserUpdate{Balance: &newFrom}); err != nil {
			return err
		}
		if err := s.users.Update(ctx, tx, destUID, store.UserUpdate{Balance: &newDest}); err != nil {
			return err
		}
		record = store.Transaction{
			ID:                uuid.NewString(),
			Type:              store.TxTypeWire,
			UserID:            fromUID,
			BalanceChange:     -amount,
			DestUserID:        &destUID,
			IsDestinationUser: true,
			CreatedAt:         time.Now().UTC(),
		}
		fromBalance = newFrom
		fromLoan = fromUser.LoanBalance
		destBalance = newDest
		destLoan = destUser.LoanBalance
		return s.transactions.Append(ctx, tx, record)
	})
	if err != nil {
		return store.Transaction{}, err
	}
	s.broadcast(fromUID, fromBalance, fromLoan)
	s.broadcast(destUID, destBalance, destLoan)
	return record, nil
}

// WireToEntity debits the source only; the destination is an opaque
// identifier outside the ledger, so system cash shrinks by amount.
func (s *LedgerService) WireToEntity(ctx context.Context, fromUID, destEntity string, amount int64) (store.Transaction, error) {
	if amount <= 0 {
		return store.Transaction{}, ErrInvalidAmount
	}
	var record store.Transaction
	var balanceAfter, loanAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, found, err := s.users.GetForUpdate(ctx, tx, fromUID)
		if err != nil {
			return err
		}
		if !found {
			return &UserNotFoundError{UID: fromUID}
		}
		if user.Balance < amount {
			return &InsufficientBalanceError{UID: fromUID, Balance: user.Balance, Required: amount}
		}
		newBalance := user.Balance - amount
		if err := s.users.Update(ctx, tx, fromUID, store.UserUpdate{Balance: &newBalance}); err != nil {
			return err
		}
		record = store.Transaction{
			ID:                uuid.NewString(),
			Type:              store.TxTypeWire,
			UserID:            fromUID,
			BalanceChange:     -amount,
			DestEntity:        &destEntity,
			IsDestinationUser: false,
			CreatedAt:         time.Now().UTC(),
		}
		balanceAfter = newBalance
		loanAfter = user.LoanBalance
		return s.transactions.Append(ctx, tx, record)
	})
	if err != nil {
		return store.Transaction{}, err
	}
	s.broadcast(fromUID, balanceAfter, loanAfter)
	return record, nil
}

func (s *LedgerService) broadcast(uid string, balance, loan int64) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastBalance(uid, websocket.BalanceUpdate{
		UserID:      uid,
		Balance:     money.FormatMinor(balance),
		LoanBalance: money.FormatMinor(loan),
	})
}

func (s *LedgerService) lockTwoUsers(ctx context.Context, tx store.Getter, firstUID, secondUID string) (store.User, store.User, error) {
	leftUID, rightUID := orderedUIDs(firstUID, secondUID)
	left, found, err := s.users.GetForUpdate(ctx, tx, leftUID)
	if err != nil {
		return store.User{}, store.User{}, err
	}
	if !found {
		return store.User{}, store.User{}, &UserNotFoundError{UID: leftUID}
	}
	right, found, err := s.users.GetForUpdate(ctx, tx, rightUID)
	if err != nil {
		return store.User{}, store.User{}, err
	}
	if !found {
		return store.User{}, store.User{}, &UserNotFoundError{UID: rightUID}
	}
	if firstUID == leftUID {
		return left, right, nil
	}
	return right, left, nil
}

// priceTotal multiplies a unit price by a share count. Quantities whose
// product does not fit in int64 are rejected rather than wrapped.
func priceTotal(price, quantity int64) (int64, error) {
	if price > 0 && quantity > math.MaxInt64/price {
		return 0, ErrInvalidQuantity
	}
	return price * quantity, nil
}

func orderedUIDs(firstUID, secondUID string) (string, string) {
	if firstUID <= secondUID {
		return firstUID, secondUID
	}
	return secondUID, firstUID
}
