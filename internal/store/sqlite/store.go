// Package sqlite is the local single-file backend. Amounts are stored as
// decimal text so nothing is lost to floating point.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"khata/internal/core"
	"khata/internal/log"
	"khata/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// DSN adds the pragmas the store relies on to a database path. Foreign keys
// must be on for person deletes to cascade.
func DSN(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// New opens (creating if needed) the database at dbPath and migrates it.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := DSN(dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, sess store.Session) ([]core.Transaction, error) {
	if !sess.Authenticated() {
		return []core.Transaction{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, date, description, amount, remarks, source
		FROM transactions WHERE account_id = ? ORDER BY date, id`, sess.AccountID)
	if err != nil {
		return nil, storeErr("list", core.EntityTransaction, err)
	}
	raw, err := scanAll(rows, func(r *store.TransactionRow) []any {
		return []any{&r.ID, &r.Type, &r.Date, &r.Description, &r.Amount, &r.Remarks, &r.Source}
	})
	if err != nil {
		return nil, storeErr("list", core.EntityTransaction, err)
	}
	return store.DecodeRows(ctx, core.EntityTransaction, raw, store.TransactionRow.Decode), nil
}

func (s *Store) ListPersons(ctx context.Context, sess store.Session) ([]core.Person, error) {
	if !sess.Authenticated() {
		return []core.Person{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, previous_balance, salary_limit
		FROM persons WHERE account_id = ? ORDER BY name, id`, sess.AccountID)
	if err != nil {
		return nil, storeErr("list", core.EntityPerson, err)
	}
	raw, err := scanAll(rows, func(r *store.PersonRow) []any {
		return []any{&r.ID, &r.Name, &r.OpeningBalance, &r.MonthlyLimit}
	})
	if err != nil {
		return nil, storeErr("list", core.EntityPerson, err)
	}
	return store.DecodeRows(ctx, core.EntityPerson, raw, store.PersonRow.Decode), nil
}

func (s *Store) ListPersonEntries(ctx context.Context, sess store.Session, personID string) ([]core.PersonLedgerEntry, error) {
	if !sess.Authenticated() {
		return []core.PersonLedgerEntry{}, nil
	}
	return s.listEntries(ctx, `
		SELECT id, person_id, date, description, amount, type
		FROM person_expenses WHERE account_id = ? AND person_id = ? ORDER BY date, id`,
		sess.AccountID, personID)
}

func (s *Store) ListAllPersonEntries(ctx context.Context, sess store.Session) ([]core.PersonLedgerEntry, error) {
	if !sess.Authenticated() {
		return []core.PersonLedgerEntry{}, nil
	}
	return s.listEntries(ctx, `
		SELECT id, person_id, date, description, amount, type
		FROM person_expenses WHERE account_id = ? ORDER BY date, id`,
		sess.AccountID)
}

func (s *Store) listEntries(ctx context.Context, query string, args ...any) ([]core.PersonLedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list", core.EntityEntry, err)
	}
	raw, err := scanAll(rows, func(r *store.EntryRow) []any {
		return []any{&r.ID, &r.PersonID, &r.Date, &r.Description, &r.Amount, &r.Type}
	})
	if err != nil {
		return nil, storeErr("list", core.EntityEntry, err)
	}
	return store.DecodeRows(ctx, core.EntityEntry, raw, store.EntryRow.Decode), nil
}

func (s *Store) ListCommodityRecords(ctx context.Context, sess store.Session) ([]core.CommodityRecord, error) {
	if !sess.Authenticated() {
		return []core.CommodityRecord{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ledger, date, quantity, unit_price, payment_given, description, attachment_url
		FROM commodity_records WHERE account_id = ? ORDER BY date, id`, sess.AccountID)
	if err != nil {
		return nil, storeErr("list", core.EntityCommodity, err)
	}
	raw, err := scanAll(rows, func(r *store.CommodityRow) []any {
		return []any{&r.ID, &r.Ledger, &r.Date, &r.Quantity, &r.UnitPrice, &r.PaymentGiven, &r.Description, &r.AttachmentURL}
	})
	if err != nil {
		return nil, storeErr("list", core.EntityCommodity, err)
	}
	return store.DecodeRows(ctx, core.EntityCommodity, raw, store.CommodityRow.Decode), nil
}

func (s *Store) ListMonthlyNotes(ctx context.Context, sess store.Session) ([]core.MonthlyNote, error) {
	if !sess.Authenticated() {
		return []core.MonthlyNote{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, month, title, amount
		FROM monthly_notes WHERE account_id = ? ORDER BY month, id`, sess.AccountID)
	if err != nil {
		return nil, storeErr("list", core.EntityNote, err)
	}
	raw, err := scanAll(rows, func(r *store.NoteRow) []any {
		return []any{&r.ID, &r.Month, &r.Title, &r.Amount}
	})
	if err != nil {
		return nil, storeErr("list", core.EntityNote, err)
	}
	return store.DecodeRows(ctx, core.EntityNote, raw, store.NoteRow.Decode), nil
}

// Upsert replaces the record with the same id. ON CONFLICT DO UPDATE is used
// instead of INSERT OR REPLACE so that replacing a person does not cascade
// into its entries.
func (s *Store) Upsert(ctx context.Context, sess store.Session, rec core.Record) error {
	if !sess.Authenticated() {
		return core.ErrUnauthenticated
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	var (
		query string
		args  []any
	)
	switch r := rec.(type) {
	case core.Transaction:
		row := store.TransactionRowOf(r)
		query = `INSERT INTO transactions (account_id, id, type, date, description, amount, remarks, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(account_id, id) DO UPDATE SET
				type = excluded.type, date = excluded.date, description = excluded.description,
				amount = excluded.amount, remarks = excluded.remarks, source = excluded.source,
				updated_at = CURRENT_TIMESTAMP`
		args = []any{sess.AccountID, row.ID, row.Type, row.Date, row.Description, row.Amount, row.Remarks, row.Source}
	case core.Person:
		row := store.PersonRowOf(r)
		query = `INSERT INTO persons (account_id, id, name, previous_balance, salary_limit)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(account_id, id) DO UPDATE SET
				name = excluded.name, previous_balance = excluded.previous_balance,
				salary_limit = excluded.salary_limit, updated_at = CURRENT_TIMESTAMP`
		args = []any{sess.AccountID, row.ID, row.Name, row.OpeningBalance, row.MonthlyLimit}
	case core.PersonLedgerEntry:
		row := store.EntryRowOf(r)
		query = `INSERT INTO person_expenses (account_id, id, person_id, date, description, amount, type)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(account_id, id) DO UPDATE SET
				person_id = excluded.person_id, date = excluded.date, description = excluded.description,
				amount = excluded.amount, type = excluded.type, updated_at = CURRENT_TIMESTAMP`
		args = []any{sess.AccountID, row.ID, row.PersonID, row.Date, row.Description, row.Amount, row.Type}
	case core.CommodityRecord:
		row := store.CommodityRowOf(r)
		query = `INSERT INTO commodity_records (account_id, id, ledger, date, quantity, unit_price, payment_given, description, attachment_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(account_id, id) DO UPDATE SET
				ledger = excluded.ledger, date = excluded.date, quantity = excluded.quantity,
				unit_price = excluded.unit_price, payment_given = excluded.payment_given,
				description = excluded.description, attachment_url = excluded.attachment_url,
				updated_at = CURRENT_TIMESTAMP`
		args = []any{sess.AccountID, row.ID, row.Ledger, row.Date, row.Quantity, row.UnitPrice, row.PaymentGiven, row.Description, row.AttachmentURL}
	case core.MonthlyNote:
		row := store.NoteRowOf(r)
		query = `INSERT INTO monthly_notes (account_id, id, month, title, amount)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(account_id, id) DO UPDATE SET
				month = excluded.month, title = excluded.title, amount = excluded.amount,
				updated_at = CURRENT_TIMESTAMP`
		args = []any{sess.AccountID, row.ID, row.Month, row.Title, row.Amount}
	default:
		return storeErr("upsert", rec.Entity(), fmt.Errorf("unsupported record %T", rec))
	}

	for i, a := range args {
		if t, ok := a.(store.Text); ok {
			args[i] = string(t)
		}
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr("upsert", rec.Entity(), err)
	}

	slog.DebugContext(ctx, "Record saved to SQLite",
		log.FieldAccount, sess.AccountID,
		log.FieldEntity, rec.Entity(),
		log.FieldRecordID, rec.RecordID())
	return nil
}

var tables = map[core.EntityType]string{
	core.EntityTransaction: "transactions",
	core.EntityPerson:      "persons",
	core.EntityEntry:       "person_expenses",
	core.EntityCommodity:   "commodity_records",
	core.EntityNote:        "monthly_notes",
}

func (s *Store) Delete(ctx context.Context, sess store.Session, entity core.EntityType, id string) error {
	if !sess.Authenticated() {
		return core.ErrUnauthenticated
	}
	table, ok := tables[entity]
	if !ok {
		return storeErr("delete", entity, core.ErrInvalidKind)
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE account_id = ? AND id = ?", sess.AccountID, id)
	if err != nil {
		return storeErr("delete", entity, err)
	}
	return nil
}

// scanAll reads every row into T. Row fields are store.Text, which
// database/sql fills like any string kind; columns are NOT NULL.
func scanAll[T any](rows *sql.Rows, dest func(*T) []any) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		var r T
		if err := rows.Scan(dest(&r)...); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func storeErr(op string, entity core.EntityType, err error) error {
	return &core.StoreError{Op: op, Entity: entity, Err: err}
}
