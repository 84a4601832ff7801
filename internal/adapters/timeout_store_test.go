package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"khata/internal/core"
	"khata/internal/store"
	"khata/internal/store/memory"
)

type slowStore struct {
	*memory.Store
}

func (s slowStore) ListTransactions(ctx context.Context, _ store.Session) ([]core.Transaction, error) {
	<-ctx.Done()
	return nil, &core.StoreError{Op: "list", Entity: core.EntityTransaction, Err: ctx.Err()}
}

func TestWithTimeoutZeroReturnsSameStore(t *testing.T) {
	st := memory.New()
	if got := WithTimeout(st, 0); got != store.Store(st) {
		t.Error("expected the store unchanged for a zero timeout")
	}
}

func TestTimeoutStoreBoundsCalls(t *testing.T) {
	st := WithTimeout(slowStore{memory.New()}, 20*time.Millisecond)

	start := time.Now()
	_, err := st.ListTransactions(context.Background(), store.NewSession("acc"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("call was not bounded by the timeout")
	}
}

func TestTimeoutStorePassesThrough(t *testing.T) {
	st := WithTimeout(memory.New(), time.Second)
	sess := store.NewSession("acc")
	ctx := context.Background()

	p := core.Person{ID: "p1", Name: "Ali"}
	if err := st.Upsert(ctx, sess, p); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	persons, err := st.ListPersons(ctx, sess)
	if err != nil || len(persons) != 1 {
		t.Fatalf("ListPersons() = %v, %v", persons, err)
	}
	if err := st.Delete(ctx, sess, core.EntityPerson, "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
