package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"khata/internal/core"
)

// Display types used on the merged statement.
const (
	DisplayReceived = "Received"
	DisplayExpense  = "Expense"
	DisplayStaff    = "Staff Exp"
)

const staffPrefix = "(Staff) "

// Dashboard is the month overview: transaction totals plus the outflow to
// staff recorded on person ledgers, adjusted by the month's notes.
type Dashboard struct {
	Month        core.MonthKey   `json:"month"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	MainExpense  decimal.Decimal `json:"main_expense"`
	StaffExpense decimal.Decimal `json:"staff_expense"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Profit       decimal.Decimal `json:"profit"`

	Notes           []core.MonthlyNote `json:"notes"`
	NotesTotal      decimal.Decimal    `json:"notes_total"`
	AdjustedBalance decimal.Decimal    `json:"adjusted_balance"`

	TransactionCount int `json:"transaction_count"`
	StaffEntryCount  int `json:"staff_entry_count"`
}

// StatementLine is one row of the merged monthly statement.
type StatementLine struct {
	ID          string          `json:"id"`
	Date        core.Date       `json:"date"`
	DisplayType string          `json:"display_type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Side        core.Side       `json:"side"`
}

// BuildDashboard computes the month overview. Every person entry dated in the
// month counts as staff outflow whatever its kind.
func BuildDashboard(txs []core.Transaction, entries []core.PersonLedgerEntry, notes []core.MonthlyNote, month core.MonthKey) Dashboard {
	sum := SummarizeMonth(txs, month)
	d := Dashboard{
		Month:        month,
		TotalIncome:  sum.TotalIncome,
		MainExpense:  sum.TotalExpense,
		StaffExpense: decimal.Zero,
		NotesTotal:   decimal.Zero,
		Notes:        []core.MonthlyNote{},
	}
	for _, tx := range txs {
		if month.Contains(tx.Date) {
			d.TransactionCount++
		}
	}
	for _, e := range entries {
		if !month.Contains(e.Date) {
			continue
		}
		d.StaffExpense = d.StaffExpense.Add(e.Amount)
		d.StaffEntryCount++
	}
	for _, n := range notes {
		if n.Month != month {
			continue
		}
		d.Notes = append(d.Notes, n)
		d.NotesTotal = d.NotesTotal.Add(n.Amount)
	}
	sort.SliceStable(d.Notes, func(i, j int) bool { return d.Notes[i].ID < d.Notes[j].ID })

	d.TotalExpense = d.MainExpense.Add(d.StaffExpense)
	d.Profit = d.TotalIncome.Sub(d.TotalExpense)
	d.AdjustedBalance = d.Profit.Add(d.NotesTotal)
	return d
}

// StatementLines merges the month's transactions with the month's person
// entries, ordered by date and then id.
func StatementLines(txs []core.Transaction, entries []core.PersonLedgerEntry, month core.MonthKey) []StatementLine {
	lines := []StatementLine{}
	for _, tx := range txs {
		if !month.Contains(tx.Date) {
			continue
		}
		display := DisplayExpense
		if tx.Kind.Side() == core.SideIncome {
			display = DisplayReceived
		}
		lines = append(lines, StatementLine{
			ID:          tx.ID,
			Date:        tx.Date,
			DisplayType: display,
			Description: tx.Description,
			Amount:      tx.Amount,
			Side:        tx.Kind.Side(),
		})
	}
	for _, e := range entries {
		if !month.Contains(e.Date) {
			continue
		}
		lines = append(lines, StatementLine{
			ID:          e.ID,
			Date:        e.Date,
			DisplayType: DisplayStaff,
			Description: staffPrefix + e.Description,
			Amount:      e.Amount,
			Side:        core.SideExpense,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date.Time) {
			return lines[i].Date.Before(lines[j].Date.Time)
		}
		return lines[i].ID < lines[j].ID
	})
	return lines
}

// TransactionsIn returns the month's transactions of one side ordered by date,
// then id.
func TransactionsIn(txs []core.Transaction, month core.MonthKey, side core.Side) []core.Transaction {
	out := []core.Transaction{}
	for _, tx := range txs {
		if tx.Kind.Side() == side && month.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortEntries(entries []core.PersonLedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.Before(entries[j].Date.Time)
		}
		return entries[i].ID < entries[j].ID
	})
}
