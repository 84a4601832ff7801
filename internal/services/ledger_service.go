// Package services orchestrates the ledger: it fetches record snapshots for
// a session, runs the pure calculations of package ledger on them and
// announces writes on the message bus.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/ledger"
	"khata/internal/log"
	"khata/internal/store"
)

// Publisher announces record changes. *amqp.Client implements it.
type Publisher interface {
	PublishRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error
}

// LedgerService serves every read and write of the application.
type LedgerService struct {
	store     store.Store
	publisher Publisher
}

// NewLedgerService wires a store and an optional publisher (nil disables
// change messages).
func NewLedgerService(st store.Store, publisher Publisher) *LedgerService {
	return &LedgerService{store: st, publisher: publisher}
}

// MonthStatement is the month overview with its merged statement lines.
type MonthStatement struct {
	Dashboard ledger.Dashboard       `json:"dashboard"`
	Lines     []ledger.StatementLine `json:"lines"`
}

// PersonLedger is one person with all their entries and their standing.
type PersonLedger struct {
	Person   core.Person              `json:"person"`
	Entries  []core.PersonLedgerEntry `json:"entries"`
	Standing ledger.Standing          `json:"standing"`
}

// CommodityBook is one commodity book and its totals.
type CommodityBook struct {
	Summary ledger.CommoditySummary `json:"summary"`
	Records []core.CommodityRecord  `json:"records"`
}

type snapshot struct {
	txs     []core.Transaction
	entries []core.PersonLedgerEntry
	notes   []core.MonthlyNote
}

// fetchMonth loads the collections a month view needs concurrently. The
// first failure cancels the other fetches and is returned.
func (s *LedgerService) fetchMonth(ctx context.Context, sess store.Session, withNotes bool) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.txs, err = s.store.ListTransactions(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		snap.entries, err = s.store.ListAllPersonEntries(gctx, sess)
		return err
	})
	if withNotes {
		g.Go(func() error {
			var err error
			snap.notes, err = s.store.ListMonthlyNotes(gctx, sess)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func (s *LedgerService) Dashboard(ctx context.Context, sess store.Session, month core.MonthKey) (ledger.Dashboard, error) {
	snap, err := s.fetchMonth(ctx, sess, true)
	if err != nil {
		return ledger.Dashboard{}, err
	}
	return ledger.BuildDashboard(snap.txs, snap.entries, snap.notes, month), nil
}

// Statement returns the dashboard and the merged statement of the month.
func (s *LedgerService) Statement(ctx context.Context, sess store.Session, month core.MonthKey) (MonthStatement, error) {
	snap, err := s.fetchMonth(ctx, sess, true)
	if err != nil {
		return MonthStatement{}, err
	}
	return MonthStatement{
		Dashboard: ledger.BuildDashboard(snap.txs, snap.entries, snap.notes, month),
		Lines:     ledger.StatementLines(snap.txs, snap.entries, month),
	}, nil
}

func (s *LedgerService) Summary(ctx context.Context, sess store.Session, month core.MonthKey) (ledger.MonthSummary, error) {
	txs, err := s.store.ListTransactions(ctx, sess)
	if err != nil {
		return ledger.MonthSummary{}, err
	}
	return ledger.SummarizeMonth(txs, month), nil
}

func (s *LedgerService) DailyBuckets(ctx context.Context, sess store.Session, month core.MonthKey, side core.Side) ([]ledger.DayBucket, error) {
	txs, err := s.store.ListTransactions(ctx, sess)
	if err != nil {
		return nil, err
	}
	return ledger.DailyBuckets(txs, month, side), nil
}

func (s *LedgerService) DayDetail(ctx context.Context, sess store.Session, date core.Date, side core.Side) (ledger.DayDetail, error) {
	txs, err := s.store.ListTransactions(ctx, sess)
	if err != nil {
		return ledger.DayDetail{}, err
	}
	return ledger.Day(txs, date, side), nil
}

// Transactions lists the month's transactions of one side.
func (s *LedgerService) Transactions(ctx context.Context, sess store.Session, month core.MonthKey, side core.Side) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, sess)
	if err != nil {
		return nil, err
	}
	return ledger.TransactionsIn(txs, month, side), nil
}

// PersonLedger returns a not-found error when personID does not resolve.
func (s *LedgerService) PersonLedger(ctx context.Context, sess store.Session, personID string, month core.MonthKey) (PersonLedger, error) {
	var (
		persons []core.Person
		entries []core.PersonLedgerEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		persons, err = s.store.ListPersons(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.store.ListPersonEntries(gctx, sess, personID)
		return err
	})
	if err := g.Wait(); err != nil {
		return PersonLedger{}, err
	}

	person, ok := findPerson(persons, personID)
	if !ok {
		return PersonLedger{}, &core.NotFoundError{Entity: core.EntityPerson, ID: personID}
	}
	return PersonLedger{
		Person:   person,
		Entries:  ledger.EntriesOf(personID, entries),
		Standing: ledger.PersonStanding(person, entries, month),
	}, nil
}

// People returns the standing of every person for month.
func (s *LedgerService) People(ctx context.Context, sess store.Session, month core.MonthKey) ([]ledger.Standing, error) {
	var (
		persons []core.Person
		entries []core.PersonLedgerEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		persons, err = s.store.ListPersons(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.store.ListAllPersonEntries(gctx, sess)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ledger.Standings(persons, entries, month), nil
}

// Commodity returns the records of one commodity book with their totals.
func (s *LedgerService) Commodity(ctx context.Context, sess store.Session, book string) (CommodityBook, error) {
	if !core.ValidLedger(book) {
		return CommodityBook{}, &core.ValidationError{Field: "ledger", Err: core.ErrInvalidKind}
	}
	records, err := s.store.ListCommodityRecords(ctx, sess)
	if err != nil {
		return CommodityBook{}, err
	}
	records = ledger.FilterCommodity(records, book)
	sum := ledger.SummarizeCommodity(records)
	sum.Ledger = book
	return CommodityBook{Summary: sum, Records: records}, nil
}

func (s *LedgerService) SaveTransaction(ctx context.Context, sess store.Session, tx core.Transaction) (core.Transaction, error) {
	existing := tx.ID != ""
	if !existing {
		tx.ID = newID()
	}
	return tx, s.save(ctx, sess, tx, tx.Date.MonthKey(), existing)
}

func (s *LedgerService) SavePerson(ctx context.Context, sess store.Session, p core.Person) (core.Person, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return p, s.save(ctx, sess, p, core.MonthKey{}, false)
}

// SaveEntry returns a not-found error when the entry's person does not resolve.
func (s *LedgerService) SaveEntry(ctx context.Context, sess store.Session, e core.PersonLedgerEntry) (core.PersonLedgerEntry, error) {
	if !sess.Authenticated() {
		return e, core.ErrUnauthenticated
	}
	existing := e.ID != ""
	if !existing {
		e.ID = newID()
	}
	if err := e.Validate(); err != nil {
		return e, err
	}
	persons, err := s.store.ListPersons(ctx, sess)
	if err != nil {
		return e, err
	}
	if _, ok := findPerson(persons, e.PersonID); !ok {
		return e, &core.NotFoundError{Entity: core.EntityPerson, ID: e.PersonID}
	}
	return e, s.save(ctx, sess, e, e.Date.MonthKey(), existing)
}

func (s *LedgerService) SaveCommodity(ctx context.Context, sess store.Session, c core.CommodityRecord) (core.CommodityRecord, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	// Commodity changes refresh whole books, so the old date does not matter.
	return c, s.save(ctx, sess, c, c.Date.MonthKey(), false)
}

func (s *LedgerService) SaveNote(ctx context.Context, sess store.Session, n core.MonthlyNote) (core.MonthlyNote, error) {
	existing := n.ID != ""
	if !existing {
		n.ID = newID()
	}
	return n, s.save(ctx, sess, n, n.Month, existing)
}

// Delete removes a record. Deleting an id that does not exist succeeds.
// The change message names the month the record was in.
func (s *LedgerService) Delete(ctx context.Context, sess store.Session, entity core.EntityType, id string) error {
	if id == "" {
		return &core.ValidationError{Field: "id", Err: core.ErrMissingID}
	}
	month := s.priorMonth(ctx, sess, entity, id)
	if err := s.store.Delete(ctx, sess, entity, id); err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	s.publish(ctx, amqp.NewRecordChangedMessage(sess.AccountID, entity, id, amqp.OpDelete, month))
	return nil
}

// save validates and stores rec, then publishes the change. When an
// existing record moves to another month, the month it left is announced
// too. A publish failure is logged; the record is already stored.
func (s *LedgerService) save(ctx context.Context, sess store.Session, rec core.Record, month core.MonthKey, existing bool) error {
	if !sess.Authenticated() {
		return core.ErrUnauthenticated
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	var prev core.MonthKey
	if existing {
		prev = s.priorMonth(ctx, sess, rec.Entity(), rec.RecordID())
	}
	if err := s.store.Upsert(ctx, sess, rec); err != nil {
		return fmt.Errorf("save %s: %w", rec.Entity(), err)
	}
	s.publish(ctx, amqp.NewRecordChangedMessage(sess.AccountID, rec.Entity(), rec.RecordID(), amqp.OpUpsert, month))
	if !prev.IsZero() && prev != month {
		s.publish(ctx, amqp.NewRecordChangedMessage(sess.AccountID, rec.Entity(), rec.RecordID(), amqp.OpUpsert, prev))
	}
	return nil
}

// priorMonth returns the month the stored record currently falls in, or
// the zero month when it is unknown or has no date. Lookups only happen
// when changes are published; a failed lookup is logged and yields the
// zero month, which the report worker reads as the current month.
func (s *LedgerService) priorMonth(ctx context.Context, sess store.Session, entity core.EntityType, id string) core.MonthKey {
	if s.publisher == nil || !sess.Authenticated() {
		return core.MonthKey{}
	}
	month, err := s.storedMonth(ctx, sess, entity, id)
	if err != nil {
		fields := log.NewFields().
			WithRecord(sess.AccountID, entity.String(), id).
			WithError(err)
		slog.WarnContext(ctx, "Failed to look up stored record month", fields.ToSlice()...)
		return core.MonthKey{}
	}
	return month
}

func (s *LedgerService) storedMonth(ctx context.Context, sess store.Session, entity core.EntityType, id string) (core.MonthKey, error) {
	switch entity {
	case core.EntityTransaction:
		txs, err := s.store.ListTransactions(ctx, sess)
		return monthOf(txs, id, func(t core.Transaction) (string, core.MonthKey) { return t.ID, t.Date.MonthKey() }), err
	case core.EntityEntry:
		entries, err := s.store.ListAllPersonEntries(ctx, sess)
		return monthOf(entries, id, func(e core.PersonLedgerEntry) (string, core.MonthKey) { return e.ID, e.Date.MonthKey() }), err
	case core.EntityCommodity:
		recs, err := s.store.ListCommodityRecords(ctx, sess)
		return monthOf(recs, id, func(c core.CommodityRecord) (string, core.MonthKey) { return c.ID, c.Date.MonthKey() }), err
	case core.EntityNote:
		notes, err := s.store.ListMonthlyNotes(ctx, sess)
		return monthOf(notes, id, func(n core.MonthlyNote) (string, core.MonthKey) { return n.ID, n.Month }), err
	}
	return core.MonthKey{}, nil
}

func monthOf[T any](items []T, id string, key func(T) (string, core.MonthKey)) core.MonthKey {
	for _, it := range items {
		if rid, month := key(it); rid == id {
			return month
		}
	}
	return core.MonthKey{}
}

func (s *LedgerService) publish(ctx context.Context, msg *amqp.RecordChangedMessage) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping record changed message",
			log.FieldEntity, msg.Entity, log.FieldRecordID, msg.ID)
		return
	}
	if err := s.publisher.PublishRecordChanged(ctx, msg); err != nil {
		fields := log.NewFields().
			WithRecord(msg.AccountID, msg.Entity.String(), msg.ID).
			WithOperation(log.OpPublish).
			WithError(err)
		slog.ErrorContext(ctx, "Failed to publish record changed message", fields.ToSlice()...)
	}
}

// Close closes the store.
func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}

func findPerson(persons []core.Person, id string) (core.Person, bool) {
	for _, p := range persons {
		if p.ID == id {
			return p, true
		}
	}
	return core.Person{}, false
}

// newID returns a time-ordered UUIDv7, so sorting by id roughly follows
// creation order.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
