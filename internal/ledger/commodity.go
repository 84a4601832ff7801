package ledger

import (
	"github.com/shopspring/decimal"

	"khata/internal/core"
)

// CommoditySummary totals a commodity book. RemainingBalance is positive while
// money is still owed to the counterparty.
type CommoditySummary struct {
	Ledger           string          `json:"ledger,omitempty"`
	Records          int             `json:"records"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	TotalDue         decimal.Decimal `json:"total_due"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// SummarizeCommodity totals every record given; it applies no date or book
// filter of its own.
func SummarizeCommodity(records []core.CommodityRecord) CommoditySummary {
	s := CommoditySummary{
		Records:       len(records),
		TotalQuantity: decimal.Zero,
		TotalDue:      decimal.Zero,
		TotalPaid:     decimal.Zero,
	}
	for _, r := range records {
		s.TotalQuantity = s.TotalQuantity.Add(r.Quantity)
		s.TotalDue = s.TotalDue.Add(r.LineTotal())
		s.TotalPaid = s.TotalPaid.Add(r.PaymentGiven)
	}
	s.RemainingBalance = s.TotalDue.Sub(s.TotalPaid)
	return s
}

// FilterCommodity keeps the records of one book.
func FilterCommodity(records []core.CommodityRecord, ledger string) []core.CommodityRecord {
	out := []core.CommodityRecord{}
	for _, r := range records {
		if r.Ledger == ledger {
			out = append(out, r)
		}
	}
	return out
}
