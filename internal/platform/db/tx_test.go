package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil transaction on empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

func TestConn_FallsBackToPool(t *testing.T) {
	q := Conn(context.Background(), nil)
	if _, ok := q.(*pgxpool.Pool); !ok {
		t.Fatalf("expected the pool, got %T", q)
	}
}

func TestAfterCommit_RunsImmediatelyOutsideUnitOfWork(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func() { ran = true })
	if !ran {
		t.Error("expected hook to run immediately")
	}
}

func TestAfterCommit_DeferredUntilFlush(t *testing.T) {
	ctx, flush := WithCommitHooks(context.Background())
	var order []int
	AfterCommit(ctx, func() { order = append(order, 1) })
	AfterCommit(ctx, func() { order = append(order, 2) })

	if len(order) != 0 {
		t.Fatal("hooks ran before flush")
	}
	flush()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("unexpected hook order %v", order)
	}
}
