package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stockbot/internal/config"
	"stockbot/internal/store"

	"github.com/jmoiron/sqlx"
)

type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(_ context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

type stubUsers struct {
	createFn       func(ctx context.Context, tx store.Execer, user store.User) error
	getFn          func(ctx context.Context, uid string) (store.User, bool, error)
	getPortfolioFn func(ctx context.Context, uid string) (store.Portfolio, bool, error)
	deleteFn       func(ctx context.Context, tx store.Execer, uid string) error
}

func (s stubUsers) Create(ctx context.Context, tx store.Execer, user store.User) error {
	return s.createFn(ctx, tx, user)
}

func (s stubUsers) Get(ctx context.Context, uid string) (store.User, bool, error) {
	return s.getFn(ctx, uid)
}

func (s stubUsers) GetPortfolio(ctx context.Context, uid string) (store.Portfolio, bool, error) {
	return s.getPortfolioFn(ctx, uid)
}

func (s stubUsers) Delete(ctx context.Context, tx store.Execer, uid string) error {
	return s.deleteFn(ctx, tx, uid)
}

func TestCreateUserAppliesStartingBalances(t *testing.T) {
	var created store.User
	h := &Handler{
		txRunner: passthroughTxRunner{},
		cfg:      config.Config{StartingBalance: 100000, StartingCredit: 50000},
		users: stubUsers{
			createFn: func(_ context.Context, _ store.Execer, user store.User) error {
				created = user
				return nil
			},
		},
	}
	recorder := postJSON(t, h.CreateUser, `{"user_id":"user-a"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if created.ID != "user-a" || created.Balance != 100000 || created.CreditLimit != 50000 {
		t.Fatalf("unexpected created user: %#v", created)
	}
	if created.LoanBalance != 0 {
		t.Fatalf("new users must start with no loan, got %d", created.LoanBalance)
	}
}

func TestCreateUserDuplicateConflicts(t *testing.T) {
	h := &Handler{
		txRunner: passthroughTxRunner{},
		users: stubUsers{
			createFn: func(_ context.Context, _ store.Execer, user store.User) error {
				return &store.DuplicateUserError{UID: user.ID}
			},
		},
	}
	recorder := postJSON(t, h.CreateUser, `{"user_id":"user-a"}`)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "user_already_exists") {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}

func TestGetPortfolioUnknownUser(t *testing.T) {
	h := &Handler{
		users: stubUsers{
			getPortfolioFn: func(context.Context, string) (store.Portfolio, bool, error) {
				return store.Portfolio{}, false, nil
			},
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/users/ghost/portfolio", nil)
	recorder := httptest.NewRecorder()
	h.GetPortfolio(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func TestBuildPortfolioViewWeights(t *testing.T) {
	view := buildPortfolioView(store.Portfolio{
		User: store.User{ID: "user-a", Balance: 1000},
		Holdings: []store.PortfolioHolding{
			{Ticker: "AAA", Quantity: 3, Price: int64Ptr(100), Name: strPtr("Aaa Corp")},
			{Ticker: "BBB", Quantity: 1, Price: int64Ptr(100)},
		},
	})
	if view.TotalValue != 400 {
		t.Fatalf("expected total 400, got %d", view.TotalValue)
	}
	if len(view.Holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(view.Holdings))
	}
	if view.Holdings[0].Value != 300 || view.Holdings[0].Weight != "0.75" {
		t.Fatalf("unexpected first holding: %#v", view.Holdings[0])
	}
	if view.Holdings[1].Value != 100 || view.Holdings[1].Weight != "0.25" {
		t.Fatalf("unexpected second holding: %#v", view.Holdings[1])
	}
	if view.Holdings[0].ValueDisplay != "$3.00" {
		t.Fatalf("unexpected display value: %s", view.Holdings[0].ValueDisplay)
	}
}

func TestBuildPortfolioViewDelistedStock(t *testing.T) {
	// a delisted ticker has no price row; its position is carried at zero
	view := buildPortfolioView(store.Portfolio{
		User: store.User{ID: "user-a"},
		Holdings: []store.PortfolioHolding{
			{Ticker: "AAA", Quantity: 2, Price: int64Ptr(50)},
			{Ticker: "GONE", Quantity: 9},
		},
	})
	if view.TotalValue != 100 {
		t.Fatalf("expected total 100, got %d", view.TotalValue)
	}
	gone := view.Holdings[1]
	if gone.Value != 0 || gone.Weight != "0" || gone.Price != nil {
		t.Fatalf("unexpected delisted holding: %#v", gone)
	}
}

func TestBuildPortfolioViewEmpty(t *testing.T) {
	view := buildPortfolioView(store.Portfolio{User: store.User{ID: "user-a"}})
	if view.TotalValue != 0 || len(view.Holdings) != 0 {
		t.Fatalf("unexpected view: %#v", view)
	}
	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"holdings":[]`) {
		t.Fatalf("holdings must serialize as an empty array: %s", data)
	}
}
