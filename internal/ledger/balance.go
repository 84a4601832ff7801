package ledger

import (
	"github.com/shopspring/decimal"

	"khata/internal/core"
)

// Position says which way a person's running balance points.
type Position string

const (
	// Advance: the person holds money of the business.
	Advance Position = "advance"
	// Payable: the business owes the person.
	Payable Position = "payable"
)

// Label is the human form used on statements.
func (p Position) Label() string {
	if p == Payable {
		return "Payable"
	}
	return "Advance"
}

// Standing is a person's lifetime balance together with their standing for
// one month against the monthly limit.
type Standing struct {
	Person         core.Person     `json:"person"`
	Month          core.MonthKey   `json:"month"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Position       Position        `json:"position"`
	DisplayBalance decimal.Decimal `json:"display_balance"`

	MonthlyExpense        decimal.Decimal `json:"monthly_expense"`
	MonthlyPayment        decimal.Decimal `json:"monthly_payment"`
	MonthlyConsumed       decimal.Decimal `json:"monthly_consumed"`
	MonthlyRemainingLimit decimal.Decimal `json:"monthly_remaining_limit"`
	OverLimit             bool            `json:"over_limit"`
}

// PersonStanding computes the standing of person for month.
//
// The running balance covers every entry of the person regardless of date:
// payments add, expenses and receipts subtract. The monthly limit is consumed
// by all entries dated in the month, payments included. Entries that belong to
// another person are ignored.
func PersonStanding(person core.Person, entries []core.PersonLedgerEntry, month core.MonthKey) Standing {
	st := Standing{
		Person:         person,
		Month:          month,
		CurrentBalance: person.OpeningBalance,
		MonthlyExpense: decimal.Zero,
		MonthlyPayment: decimal.Zero,
	}
	for _, e := range entries {
		if e.PersonID != person.ID {
			continue
		}
		if e.Kind.IsCredit() {
			st.CurrentBalance = st.CurrentBalance.Add(e.Amount)
		} else {
			st.CurrentBalance = st.CurrentBalance.Sub(e.Amount)
		}
		if !month.Contains(e.Date) {
			continue
		}
		if e.Kind.IsCredit() {
			st.MonthlyPayment = st.MonthlyPayment.Add(e.Amount)
		} else {
			st.MonthlyExpense = st.MonthlyExpense.Add(e.Amount)
		}
	}

	st.Position = Advance
	if st.CurrentBalance.IsNegative() {
		st.Position = Payable
	}
	st.DisplayBalance = st.CurrentBalance.Abs()

	st.MonthlyConsumed = st.MonthlyExpense.Add(st.MonthlyPayment)
	st.MonthlyRemainingLimit = person.MonthlyLimit.Sub(st.MonthlyConsumed)
	st.OverLimit = st.MonthlyRemainingLimit.IsNegative()
	return st
}

// Standings computes one standing per person, in the order persons are given.
// Entries whose person is not in persons contribute to nothing.
func Standings(persons []core.Person, entries []core.PersonLedgerEntry, month core.MonthKey) []Standing {
	byPerson := make(map[string][]core.PersonLedgerEntry, len(persons))
	for _, e := range entries {
		byPerson[e.PersonID] = append(byPerson[e.PersonID], e)
	}
	out := make([]Standing, 0, len(persons))
	for _, p := range persons {
		out = append(out, PersonStanding(p, byPerson[p.ID], month))
	}
	return out
}

// EntriesOf returns the entries of personID ordered by date, then id.
func EntriesOf(personID string, entries []core.PersonLedgerEntry) []core.PersonLedgerEntry {
	out := []core.PersonLedgerEntry{}
	for _, e := range entries {
		if e.PersonID == personID {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}
