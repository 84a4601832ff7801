package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/report"
	"khata/internal/services"
	"khata/internal/store"
	"khata/internal/store/memory"
)

type captureExporter struct {
	mu   sync.Mutex
	got  []report.Statement
	fail error
}

func (c *captureExporter) Export(_ context.Context, st report.Statement) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.got = append(c.got, st)
	return nil
}

func newWorker(t *testing.T, accounts ...string) (*ReportWorker, *captureExporter, *services.LedgerService) {
	t.Helper()
	svc := services.NewLedgerService(memory.New(), nil)
	exp := &captureExporter{}
	w := NewReportWorker(svc, exp, accounts)
	w.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return w, exp, svc
}

func TestHandleRecordChangedExportsMessageMonth(t *testing.T) {
	w, exp, svc := newWorker(t)
	ctx := context.Background()
	sess := store.NewSession("acc-1")

	tx, err := svc.SaveTransaction(ctx, sess, core.Transaction{
		Kind: core.Income, Date: core.MustDate("2024-02-10"), Description: "Sale", Amount: decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}

	msg := amqp.NewRecordChangedMessage("acc-1", core.EntityTransaction, tx.ID, amqp.OpUpsert, core.MustMonth("2024-02"))
	if err := w.HandleRecordChanged(ctx, msg); err != nil {
		t.Fatalf("HandleRecordChanged() error = %v", err)
	}

	if len(exp.got) != 1 {
		t.Fatalf("expected 1 export, got %d", len(exp.got))
	}
	st := exp.got[0]
	if st.Period != "February 2024" || st.Account != "acc-1" || len(st.Rows) != 1 {
		t.Errorf("unexpected statement %+v", st)
	}
}

// publishTo delivers change messages straight to a worker.
type publishTo struct{ w *ReportWorker }

func (p publishTo) PublishRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	return p.w.HandleRecordChanged(ctx, msg)
}

func TestDeletingPastMonthRecordExportsThatMonth(t *testing.T) {
	exp := &captureExporter{}
	pub := &publishTo{}
	svc := services.NewLedgerService(memory.New(), pub)
	w := NewReportWorker(svc, exp, nil)
	w.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	pub.w = w
	ctx := context.Background()
	sess := store.NewSession("acc-1")

	tx, err := svc.SaveTransaction(ctx, sess, core.Transaction{
		Kind: core.Expense, Date: core.MustDate("2024-01-05"), Description: "Rent", Amount: decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}
	exp.got = nil

	if err := svc.Delete(ctx, sess, core.EntityTransaction, tx.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(exp.got) != 1 {
		t.Fatalf("expected 1 export, got %d", len(exp.got))
	}
	if st := exp.got[0]; st.Period != "January 2024" || len(st.Rows) != 0 {
		t.Errorf("expected an empty January 2024 statement, got %+v", st)
	}
}

func TestHandleRecordChangedWithoutMonthUsesCurrentMonth(t *testing.T) {
	w, exp, _ := newWorker(t)

	msg := amqp.NewRecordChangedMessage("acc-1", core.EntityPerson, "p1", amqp.OpDelete, core.MonthKey{})
	if err := w.HandleRecordChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandleRecordChanged() error = %v", err)
	}
	if len(exp.got) != 1 || exp.got[0].Period != "March 2024" {
		t.Fatalf("expected March 2024 export, got %+v", exp.got)
	}
}

func TestHandleCommodityChangeExportsBothBooks(t *testing.T) {
	w, exp, _ := newWorker(t)

	msg := amqp.NewRecordChangedMessage("acc-1", core.EntityCommodity, "c1", amqp.OpDelete, core.MonthKey{})
	if err := w.HandleRecordChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandleRecordChanged() error = %v", err)
	}
	if len(exp.got) != 2 || exp.got[0].Title != "Tori Ledger" || exp.got[1].Title != "Wanda Ledger" {
		t.Fatalf("unexpected exports %+v", exp.got)
	}
}

func TestExportFailureIsReturned(t *testing.T) {
	w, exp, _ := newWorker(t)
	exp.fail = errors.New("quota exceeded")

	msg := amqp.NewRecordChangedMessage("acc-1", core.EntityTransaction, "t1", amqp.OpUpsert, core.MustMonth("2024-03"))
	if err := w.HandleRecordChanged(context.Background(), msg); !errors.Is(err, exp.fail) {
		t.Fatalf("expected export error, got %v", err)
	}
}

func TestExportCurrentMonthCoversEveryAccount(t *testing.T) {
	w, exp, _ := newWorker(t, "acc-1", "acc-2")

	if err := w.ExportCurrentMonth(context.Background()); err != nil {
		t.Fatalf("ExportCurrentMonth() error = %v", err)
	}
	if len(exp.got) != 2 || exp.got[0].Account != "acc-1" || exp.got[1].Account != "acc-2" {
		t.Fatalf("unexpected exports %+v", exp.got)
	}
}

func TestNewScheduler(t *testing.T) {
	w, _, _ := newWorker(t)

	s, err := NewScheduler(context.Background(), "0 2 * * *", w)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if s.Entries() != 1 {
		t.Errorf("expected 1 cron entry, got %d", s.Entries())
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	if _, err := NewScheduler(context.Background(), "every day", w); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
