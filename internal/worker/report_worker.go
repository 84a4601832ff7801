package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/log"
	"khata/internal/report"
	"khata/internal/services"
	"khata/internal/store"
)

// LedgerReader is the part of the ledger service the worker reads from.
type LedgerReader interface {
	Statement(ctx context.Context, sess store.Session, month core.MonthKey) (services.MonthStatement, error)
	Commodity(ctx context.Context, sess store.Session, book string) (services.CommodityBook, error)
}

// ReportWorker keeps exported statements current: it rebuilds the affected
// statement whenever a record changes and on a schedule.
type ReportWorker struct {
	ledger   LedgerReader
	exporter report.Exporter
	accounts []string
	now      func() time.Time
}

func NewReportWorker(ledger LedgerReader, exporter report.Exporter, accounts []string) *ReportWorker {
	return &ReportWorker{
		ledger:   ledger,
		exporter: exporter,
		accounts: accounts,
		now:      time.Now,
	}
}

// HandleRecordChanged re-exports what the change touched. Commodity changes
// refresh both commodity books; every other change refreshes the monthly
// statement of the record's month, or the current month when the message
// names none.
func (w *ReportWorker) HandleRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	slog.InfoContext(ctx, "Processing record changed message",
		log.FieldAccount, msg.AccountID,
		log.FieldEntity, msg.Entity,
		log.FieldRecordID, msg.ID,
		log.FieldOperation, msg.Op)

	sess := store.NewSession(msg.AccountID)
	if msg.Entity == core.EntityCommodity {
		return w.exportCommodities(ctx, sess)
	}
	month, ok := msg.MonthKey()
	if !ok {
		month = core.CurrentMonth(w.now())
	}
	return w.exportMonth(ctx, sess, month)
}

// ExportCurrentMonth exports the current month's statement of every
// configured account. Failures are collected so one account cannot block
// the others.
func (w *ReportWorker) ExportCurrentMonth(ctx context.Context) error {
	month := core.CurrentMonth(w.now())
	var errs []error
	for _, account := range w.accounts {
		if err := w.exportMonth(ctx, store.NewSession(account), month); err != nil {
			fields := log.NewFields().
				WithComponent(log.ComponentWorker).
				WithOperation(log.OpExport).
				WithError(err)
			fields[log.FieldAccount] = account
			fields[log.FieldMonth] = month.String()
			slog.ErrorContext(ctx, "Scheduled export failed", fields.ToSlice()...)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *ReportWorker) exportMonth(ctx context.Context, sess store.Session, month core.MonthKey) error {
	ms, err := w.ledger.Statement(ctx, sess, month)
	if err != nil {
		return fmt.Errorf("build statement for %s: %w", month, err)
	}
	st := report.MonthlyStatement(ms.Dashboard, ms.Lines, w.now())
	st.Account = sess.AccountID
	if err := w.exporter.Export(ctx, st); err != nil {
		return fmt.Errorf("export statement for %s: %w", month, err)
	}
	return nil
}

func (w *ReportWorker) exportCommodities(ctx context.Context, sess store.Session) error {
	for _, book := range []string{core.LedgerTori, core.LedgerWanda} {
		cb, err := w.ledger.Commodity(ctx, sess, book)
		if err != nil {
			return fmt.Errorf("build %s ledger: %w", book, err)
		}
		st := report.CommodityStatement(cb.Summary, cb.Records, w.now())
		st.Account = sess.AccountID
		if err := w.exporter.Export(ctx, st); err != nil {
			return fmt.Errorf("export %s ledger: %w", book, err)
		}
	}
	return nil
}
