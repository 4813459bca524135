package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrSelfWire        = errors.New("cannot wire money to yourself")
)

type UserNotFoundError struct {
	UID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %s not found", e.UID)
}

type StockNotFoundError struct {
	Ticker string
}

func (e *StockNotFoundError) Error() string {
	return fmt.Sprintf("stock %s not found", e.Ticker)
}

// InsufficientBalanceError reports that cash, plus credit where the caller
// allowed it, does not cover the required amount.
type InsufficientBalanceError struct {
	UID      string
	Balance  int64
	Required int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("user %s has balance %d, needs %d", e.UID, e.Balance, e.Required)
}

type InsufficientStockQuantityError struct {
	UID       string
	Owned     int64
	Requested int64
}

func (e *InsufficientStockQuantityError) Error() string {
	return fmt.Sprintf("user %s owns %d shares, tried to sell %d", e.UID, e.Owned, e.Requested)
}
