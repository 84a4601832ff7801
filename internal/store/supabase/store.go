package supabase

import (
	"context"
	"fmt"
	"net/url"

	"khata/internal/core"
	"khata/internal/store"
)

// Hosted table names.
const (
	tableTransactions = "transactions"
	tablePersons      = "persons"
	tableEntries      = "person_expenses"
	tableTori         = "tori_records"
	tableWanda        = "wanda_records"
	tableNotes        = "monthly_notes"
)

// Store implements store.Store on top of Client.
type Store struct {
	c *Client
}

var _ store.Store = (*Store)(nil)

func New(c *Client) *Store {
	return &Store{c: c}
}

// Hosted row shapes. Each embeds the shared row and adds the owner column.
type (
	transactionRow struct {
		UserID string `json:"user_id"`
		store.TransactionRow
	}
	personRow struct {
		UserID string `json:"user_id"`
		store.PersonRow
	}
	entryRow struct {
		UserID string `json:"user_id"`
		store.EntryRow
	}
	noteRow struct {
		UserID string `json:"user_id"`
		store.NoteRow
	}
	// The two commodity books live in separate tables with their own units.
	toriRow struct {
		UserID       string     `json:"user_id"`
		ID           store.Text `json:"id"`
		Date         store.Text `json:"date"`
		Mun          store.Text `json:"mun"`
		PricePerMun  store.Text `json:"price_per_mun"`
		PaymentGiven store.Text `json:"payment_given"`
		Description  store.Text `json:"description"`
		SlipURL      store.Text `json:"slip_url"`
	}
	wandaRow struct {
		UserID       string     `json:"user_id"`
		ID           store.Text `json:"id"`
		Date         store.Text `json:"date"`
		Bags         store.Text `json:"bags"`
		PricePerBag  store.Text `json:"price_per_bag"`
		PaymentGiven store.Text `json:"payment_given"`
		Description  store.Text `json:"description"`
		SlipURL      store.Text `json:"slip_url"`
	}
)

func (r toriRow) Decode() (core.CommodityRecord, error) {
	return store.CommodityRow{
		ID: r.ID, Ledger: core.LedgerTori, Date: r.Date, Quantity: r.Mun, UnitPrice: r.PricePerMun,
		PaymentGiven: r.PaymentGiven, Description: r.Description, AttachmentURL: r.SlipURL,
	}.Decode()
}

func (r wandaRow) Decode() (core.CommodityRecord, error) {
	return store.CommodityRow{
		ID: r.ID, Ledger: core.LedgerWanda, Date: r.Date, Quantity: r.Bags, UnitPrice: r.PricePerBag,
		PaymentGiven: r.PaymentGiven, Description: r.Description, AttachmentURL: r.SlipURL,
	}.Decode()
}

func owned(sess store.Session, extra ...string) url.Values {
	v := url.Values{"user_id": {eq(sess.AccountID)}}
	for i := 0; i+1 < len(extra); i += 2 {
		v.Set(extra[i], extra[i+1])
	}
	return v
}

func storeErr(op string, entity core.EntityType, err error) error {
	return &core.StoreError{Op: op, Entity: entity, Err: err}
}

func (s *Store) ListTransactions(ctx context.Context, sess store.Session) ([]core.Transaction, error) {
	if !sess.Authenticated() {
		return []core.Transaction{}, nil
	}
	var rows []store.TransactionRow
	if err := s.c.get(ctx, query(tableTransactions, owned(sess, "order", "date.asc,id.asc")), &rows); err != nil {
		return nil, storeErr("list", core.EntityTransaction, err)
	}
	return store.DecodeRows(ctx, core.EntityTransaction, rows, store.TransactionRow.Decode), nil
}

func (s *Store) ListPersons(ctx context.Context, sess store.Session) ([]core.Person, error) {
	if !sess.Authenticated() {
		return []core.Person{}, nil
	}
	var rows []store.PersonRow
	if err := s.c.get(ctx, query(tablePersons, owned(sess, "order", "name.asc,id.asc")), &rows); err != nil {
		return nil, storeErr("list", core.EntityPerson, err)
	}
	return store.DecodeRows(ctx, core.EntityPerson, rows, store.PersonRow.Decode), nil
}

func (s *Store) ListPersonEntries(ctx context.Context, sess store.Session, personID string) ([]core.PersonLedgerEntry, error) {
	if !sess.Authenticated() {
		return []core.PersonLedgerEntry{}, nil
	}
	return s.listEntries(ctx, owned(sess, "person_id", eq(personID), "order", "date.asc,id.asc"))
}

func (s *Store) ListAllPersonEntries(ctx context.Context, sess store.Session) ([]core.PersonLedgerEntry, error) {
	if !sess.Authenticated() {
		return []core.PersonLedgerEntry{}, nil
	}
	return s.listEntries(ctx, owned(sess, "order", "date.asc,id.asc"))
}

func (s *Store) listEntries(ctx context.Context, params url.Values) ([]core.PersonLedgerEntry, error) {
	var rows []store.EntryRow
	if err := s.c.get(ctx, query(tableEntries, params), &rows); err != nil {
		return nil, storeErr("list", core.EntityEntry, err)
	}
	return store.DecodeRows(ctx, core.EntityEntry, rows, store.EntryRow.Decode), nil
}

// ListCommodityRecords returns both books, Tori first.
func (s *Store) ListCommodityRecords(ctx context.Context, sess store.Session) ([]core.CommodityRecord, error) {
	if !sess.Authenticated() {
		return []core.CommodityRecord{}, nil
	}
	params := owned(sess, "order", "date.asc,id.asc")
	var tori []toriRow
	if err := s.c.get(ctx, query(tableTori, params), &tori); err != nil {
		return nil, storeErr("list", core.EntityCommodity, err)
	}
	var wanda []wandaRow
	if err := s.c.get(ctx, query(tableWanda, params), &wanda); err != nil {
		return nil, storeErr("list", core.EntityCommodity, err)
	}
	out := store.DecodeRows(ctx, core.EntityCommodity, tori, toriRow.Decode)
	return append(out, store.DecodeRows(ctx, core.EntityCommodity, wanda, wandaRow.Decode)...), nil
}

func (s *Store) ListMonthlyNotes(ctx context.Context, sess store.Session) ([]core.MonthlyNote, error) {
	if !sess.Authenticated() {
		return []core.MonthlyNote{}, nil
	}
	var rows []store.NoteRow
	if err := s.c.get(ctx, query(tableNotes, owned(sess, "order", "month.asc,id.asc")), &rows); err != nil {
		return nil, storeErr("list", core.EntityNote, err)
	}
	return store.DecodeRows(ctx, core.EntityNote, rows, store.NoteRow.Decode), nil
}

func (s *Store) Upsert(ctx context.Context, sess store.Session, rec core.Record) error {
	if !sess.Authenticated() {
		return core.ErrUnauthenticated
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	var (
		table string
		row   any
		stale string
	)
	owner := sess.AccountID
	switch r := rec.(type) {
	case core.Transaction:
		table, row = tableTransactions, transactionRow{owner, store.TransactionRowOf(r)}
	case core.Person:
		table, row = tablePersons, personRow{owner, store.PersonRowOf(r)}
	case core.PersonLedgerEntry:
		table, row = tableEntries, entryRow{owner, store.EntryRowOf(r)}
	case core.MonthlyNote:
		table, row = tableNotes, noteRow{owner, store.NoteRowOf(r)}
	case core.CommodityRecord:
		c := store.CommodityRowOf(r)
		switch r.Ledger {
		case core.LedgerTori:
			table, row = tableTori, toriRow{owner, c.ID, c.Date, c.Quantity, c.UnitPrice, c.PaymentGiven, c.Description, c.AttachmentURL}
			stale = tableWanda
		case core.LedgerWanda:
			table, row = tableWanda, wandaRow{owner, c.ID, c.Date, c.Quantity, c.UnitPrice, c.PaymentGiven, c.Description, c.AttachmentURL}
			stale = tableTori
		default:
			return &core.ValidationError{Field: "ledger", Err: fmt.Errorf("%w: unknown book %q", core.ErrInvalidKind, r.Ledger)}
		}
	default:
		return storeErr("upsert", rec.Entity(), fmt.Errorf("unsupported record %T", rec))
	}

	// A record moved between books must leave the other table.
	if stale != "" {
		if err := s.c.delete(ctx, stale, owned(sess, "id", eq(rec.RecordID()))); err != nil {
			return storeErr("upsert", rec.Entity(), err)
		}
	}
	if err := s.c.upsert(ctx, table, row); err != nil {
		return storeErr("upsert", rec.Entity(), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sess store.Session, entity core.EntityType, id string) error {
	if !sess.Authenticated() {
		return core.ErrUnauthenticated
	}
	var tables []string
	switch entity {
	case core.EntityTransaction:
		tables = []string{tableTransactions}
	case core.EntityPerson:
		tables = []string{tablePersons}
	case core.EntityEntry:
		tables = []string{tableEntries}
	case core.EntityCommodity:
		// The id alone does not say which book it is in.
		tables = []string{tableTori, tableWanda}
	case core.EntityNote:
		tables = []string{tableNotes}
	default:
		return storeErr("delete", entity, core.ErrInvalidKind)
	}
	for _, t := range tables {
		if err := s.c.delete(ctx, t, owned(sess, "id", eq(id))); err != nil {
			return storeErr("delete", entity, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.c.httpClient.CloseIdleConnections()
	return nil
}
