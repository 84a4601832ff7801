package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"khata/internal/core"
	"khata/internal/store"
)

// Store keeps every account's records in process memory.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*book
}

type book struct {
	transactions map[string]core.Transaction
	persons      map[string]core.Person
	entries      map[string]core.PersonLedgerEntry
	commodities  map[string]core.CommodityRecord
	notes        map[string]core.MonthlyNote
}

func newBook() *book {
	return &book{
		transactions: map[string]core.Transaction{},
		persons:      map[string]core.Person{},
		entries:      map[string]core.PersonLedgerEntry{},
		commodities:  map[string]core.CommodityRecord{},
		notes:        map[string]core.MonthlyNote{},
	}
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{accounts: map[string]*book{}}
}

// Seed is the on-disk shape accepted by NewFromFile.
type Seed struct {
	AccountID    string                   `json:"account_id"`
	Transactions []core.Transaction       `json:"transactions"`
	Persons      []core.Person            `json:"persons"`
	Entries      []core.PersonLedgerEntry `json:"entries"`
	Commodities  []core.CommodityRecord   `json:"commodities"`
	Notes        []core.MonthlyNote       `json:"notes"`
}

// NewFromFile loads a JSON seed. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seeds []Seed
	if err := json.Unmarshal(b, &seeds); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	ctx := context.Background()
	for _, seed := range seeds {
		sess := store.NewSession(seed.AccountID)
		// Persons first so entries resolve.
		for _, p := range seed.Persons {
			if err := s.Upsert(ctx, sess, p); err != nil {
				return nil, err
			}
		}
		recs := make([]core.Record, 0)
		for _, r := range seed.Transactions {
			recs = append(recs, r)
		}
		for _, r := range seed.Entries {
			recs = append(recs, r)
		}
		for _, r := range seed.Commodities {
			recs = append(recs, r)
		}
		for _, r := range seed.Notes {
			recs = append(recs, r)
		}
		for _, r := range recs {
			if err := s.Upsert(ctx, sess, r); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *Store) book(sess store.Session) *book {
	b, ok := s.accounts[sess.AccountID]
	if !ok {
		b = newBook()
		s.accounts[sess.AccountID] = b
	}
	return b
}

func (s *Store) ListTransactions(_ context.Context, sess store.Session) ([]core.Transaction, error) {
	if !sess.Authenticated() {
		return []core.Transaction{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.book(sess).transactions)
	sort.Slice(out, func(i, j int) bool { return lessByDate(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) ListPersons(_ context.Context, sess store.Session) ([]core.Person, error) {
	if !sess.Authenticated() {
		return []core.Person{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.book(sess).persons)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListPersonEntries(ctx context.Context, sess store.Session, personID string) ([]core.PersonLedgerEntry, error) {
	all, err := s.ListAllPersonEntries(ctx, sess)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.PersonID == personID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListAllPersonEntries(_ context.Context, sess store.Session) ([]core.PersonLedgerEntry, error) {
	if !sess.Authenticated() {
		return []core.PersonLedgerEntry{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.book(sess).entries)
	sort.Slice(out, func(i, j int) bool { return lessByDate(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) ListCommodityRecords(_ context.Context, sess store.Session) ([]core.CommodityRecord, error) {
	if !sess.Authenticated() {
		return []core.CommodityRecord{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.book(sess).commodities)
	sort.Slice(out, func(i, j int) bool { return lessByDate(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) ListMonthlyNotes(_ context.Context, sess store.Session) ([]core.MonthlyNote, error) {
	if !sess.Authenticated() {
		return []core.MonthlyNote{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.book(sess).notes)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Upsert validates rec and replaces any record with the same id. An entry
// whose person does not exist is rejected, like a foreign key would.
func (s *Store) Upsert(_ context.Context, sess store.Session, rec core.Record) error {
	if !sess.Authenticated() {
		return core.ErrUnauthenticated
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.book(sess)
	switch r := rec.(type) {
	case core.Transaction:
		b.transactions[r.ID] = r
	case core.Person:
		b.persons[r.ID] = r
	case core.PersonLedgerEntry:
		if _, ok := b.persons[r.PersonID]; !ok {
			return &core.NotFoundError{Entity: core.EntityPerson, ID: r.PersonID}
		}
		b.entries[r.ID] = r
	case core.CommodityRecord:
		b.commodities[r.ID] = r
	case core.MonthlyNote:
		b.notes[r.ID] = r
	default:
		return &core.StoreError{Op: "upsert", Entity: rec.Entity(), Err: fmt.Errorf("unsupported record %T", rec)}
	}
	return nil
}

// Delete removes a record by id; deleting a missing id is not an error.
func (s *Store) Delete(_ context.Context, sess store.Session, entity core.EntityType, id string) error {
	if !sess.Authenticated() {
		return core.ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.book(sess)
	switch entity {
	case core.EntityTransaction:
		delete(b.transactions, id)
	case core.EntityPerson:
		delete(b.persons, id)
		for eid, e := range b.entries {
			if e.PersonID == id {
				delete(b.entries, eid)
			}
		}
	case core.EntityEntry:
		delete(b.entries, id)
	case core.EntityCommodity:
		delete(b.commodities, id)
	case core.EntityNote:
		delete(b.notes, id)
	default:
		return &core.StoreError{Op: "delete", Entity: entity, Err: core.ErrInvalidKind}
	}
	return nil
}

func (s *Store) Close() error { return nil }

func values[T any](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func lessByDate(a, b core.Date, idA, idB string) bool {
	if !a.Equal(b.Time) {
		return a.Before(b.Time)
	}
	return idA < idB
}
