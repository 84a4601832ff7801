package adapters

import (
	"context"
	"time"

	"khata/internal/core"
	"khata/internal/store"
)

// TimeoutStore bounds every call to the wrapped store by a fixed deadline,
// so a stalled backend surfaces as a store error instead of a hung request.
type TimeoutStore struct {
	next    store.Store
	timeout time.Duration
}

// WithTimeout wraps st. A non-positive timeout returns st unchanged.
func WithTimeout(st store.Store, timeout time.Duration) store.Store {
	if timeout <= 0 {
		return st
	}
	return &TimeoutStore{next: st, timeout: timeout}
}

func (s *TimeoutStore) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

func (s *TimeoutStore) ListTransactions(ctx context.Context, sess store.Session) ([]core.Transaction, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.ListTransactions(ctx, sess)
}

func (s *TimeoutStore) ListPersons(ctx context.Context, sess store.Session) ([]core.Person, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.ListPersons(ctx, sess)
}

func (s *TimeoutStore) ListPersonEntries(ctx context.Context, sess store.Session, personID string) ([]core.PersonLedgerEntry, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.ListPersonEntries(ctx, sess, personID)
}

func (s *TimeoutStore) ListAllPersonEntries(ctx context.Context, sess store.Session) ([]core.PersonLedgerEntry, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.ListAllPersonEntries(ctx, sess)
}

func (s *TimeoutStore) ListCommodityRecords(ctx context.Context, sess store.Session) ([]core.CommodityRecord, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.ListCommodityRecords(ctx, sess)
}

func (s *TimeoutStore) ListMonthlyNotes(ctx context.Context, sess store.Session) ([]core.MonthlyNote, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.ListMonthlyNotes(ctx, sess)
}

func (s *TimeoutStore) Upsert(ctx context.Context, sess store.Session, rec core.Record) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.Upsert(ctx, sess, rec)
}

func (s *TimeoutStore) Delete(ctx context.Context, sess store.Session, entity core.EntityType, id string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.Delete(ctx, sess, entity, id)
}

func (s *TimeoutStore) Close() error {
	return s.next.Close()
}
