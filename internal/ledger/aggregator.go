// Package ledger turns fetched record snapshots into the totals, balances and
// breakdowns shown to the user. Every function here is pure: it reads only its
// arguments and can be called concurrently on the same snapshot.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"khata/internal/core"
)

// MonthSummary holds the transaction totals of one month.
type MonthSummary struct {
	Month        core.MonthKey   `json:"month"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetBalance   decimal.Decimal `json:"net_balance"`
}

// DayBucket is the total of same-side transactions on one calendar day.
type DayBucket struct {
	Date  core.Date       `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// DayDetail lists the transactions of one side on one day.
type DayDetail struct {
	Date    core.Date          `json:"date"`
	Side    core.Side          `json:"side"`
	Entries []core.Transaction `json:"entries"`
	Total   decimal.Decimal    `json:"total"`
}

// SummarizeMonth totals income and expense for the month. Transfers count as
// expense.
func SummarizeMonth(txs []core.Transaction, month core.MonthKey) MonthSummary {
	s := MonthSummary{
		Month:        month,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, tx := range txs {
		if !month.Contains(tx.Date) {
			continue
		}
		switch tx.Kind.Side() {
		case core.SideIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		default:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
	}
	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// DailyBuckets returns one bucket per calendar day of the month, in day order,
// including days without transactions.
func DailyBuckets(txs []core.Transaction, month core.MonthKey, side core.Side) []DayBucket {
	days := month.Days()
	buckets := make([]DayBucket, len(days))
	for i, d := range days {
		buckets[i] = DayBucket{Date: d, Total: decimal.Zero}
	}
	for _, tx := range txs {
		if tx.Kind.Side() != side || !month.Contains(tx.Date) {
			continue
		}
		b := &buckets[tx.Date.Day()-1]
		b.Total = b.Total.Add(tx.Amount)
		b.Count++
	}
	return buckets
}

// Day returns the transactions of one side on date, ordered by id ascending.
func Day(txs []core.Transaction, date core.Date, side core.Side) DayDetail {
	detail := DayDetail{Date: date, Side: side, Entries: []core.Transaction{}, Total: decimal.Zero}
	for _, tx := range txs {
		if tx.Kind.Side() != side || !tx.Date.Equal(date.Time) {
			continue
		}
		detail.Entries = append(detail.Entries, tx)
		detail.Total = detail.Total.Add(tx.Amount)
	}
	sort.SliceStable(detail.Entries, func(i, j int) bool {
		return detail.Entries[i].ID < detail.Entries[j].ID
	})
	return detail
}
