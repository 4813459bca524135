package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"
)

func TestTransactionStoreAppend(t *testing.T) {
	ctx := context.Background()
	ticker := "XYZ"
	quantity := int64(5)
	price := int64(100)
	total := int64(500)
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO transactions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 13 {
				t.Fatalf("unexpected arg count: %d", len(args))
			}
			if args[1] != TxTypeBuy || args[2] != "user-1" || args[4] != int64(-500) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	err := store.Append(ctx, execer, Transaction{
		ID:            "tx-1",
		Type:          TxTypeBuy,
		UserID:        "user-1",
		Ticker:        &ticker,
		BalanceChange: -500,
		Quantity:      &quantity,
		UnitPrice:     &price,
		TotalPrice:    &total,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreListByUser(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "user_id = $1 OR dest_user_id = $1") {
				t.Fatalf("received wires missing from query: %s", query)
			}
			if !strings.Contains(query, "LIMIT $2 OFFSET $3") {
				t.Fatalf("unexpected paging params: %s", query)
			}
			if len(args) != 3 || args[0] != "user-1" || args[1] != 20 || args[2] != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			rows := dest.(*[]Transaction)
			*rows = []Transaction{{ID: "tx-1", UserID: "user-1"}}
			return nil
		},
	})
	rows, err := store.ListByUser(ctx, "user-1", "", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "tx-1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestTransactionStoreListByUserTypeFilter(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, _ any, query string, args ...any) error {
			if !strings.Contains(query, "AND type = $2") {
				t.Fatalf("type filter missing: %s", query)
			}
			if !strings.Contains(query, "LIMIT $3 OFFSET $4") {
				t.Fatalf("paging params misnumbered: %s", query)
			}
			if len(args) != 4 || args[1] != TxTypeWire {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListByUser(ctx, "user-1", TxTypeWire, 10, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreListAll(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "ORDER BY created_at DESC") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != 50 || args[1] != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListAll(ctx, 50, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
