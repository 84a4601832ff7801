// Package store defines how the ledger reaches its records. Every call is
// scoped to the account named by the Session passed in; there is no
// process-wide login state.
package store

import (
	"context"
	"strings"

	"khata/internal/core"
)

// Session identifies the account a call acts for. The zero Session is
// unauthenticated.
type Session struct {
	AccountID string
}

// NewSession trims the account id.
func NewSession(accountID string) Session {
	return Session{AccountID: strings.TrimSpace(accountID)}
}

// Authenticated reports whether the session names an account.
func (s Session) Authenticated() bool {
	return s.AccountID != ""
}

// Ports for outbound adapters. List calls on an unauthenticated session
// return an empty collection and no error; writes return
// core.ErrUnauthenticated.
type (
	TransactionLister interface {
		ListTransactions(ctx context.Context, sess Session) ([]core.Transaction, error)
	}

	PersonLister interface {
		ListPersons(ctx context.Context, sess Session) ([]core.Person, error)
	}

	EntryLister interface {
		// ListPersonEntries returns the entries of one person.
		ListPersonEntries(ctx context.Context, sess Session, personID string) ([]core.PersonLedgerEntry, error)
		// ListAllPersonEntries returns the entries of every person of the account.
		ListAllPersonEntries(ctx context.Context, sess Session) ([]core.PersonLedgerEntry, error)
	}

	CommodityLister interface {
		ListCommodityRecords(ctx context.Context, sess Session) ([]core.CommodityRecord, error)
	}

	NoteLister interface {
		ListMonthlyNotes(ctx context.Context, sess Session) ([]core.MonthlyNote, error)
	}

	// Writer replaces records by id (last write wins) and deletes them.
	// Deleting a person deletes that person's entries.
	Writer interface {
		Upsert(ctx context.Context, sess Session, rec core.Record) error
		Delete(ctx context.Context, sess Session, entity core.EntityType, id string) error
	}

	Store interface {
		TransactionLister
		PersonLister
		EntryLister
		CommodityLister
		NoteLister
		Writer
		Close() error
	}
)
