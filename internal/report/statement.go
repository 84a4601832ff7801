// Package report lays aggregates out as printable statements: a title, a
// summary block, a table and page numbering. Builders take only computed
// aggregates; nothing here reads the store.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"khata/internal/core"
	"khata/internal/ledger"
)

// DefaultRowsPerPage is used when a caller asks for a non-positive page size.
const DefaultRowsPerPage = 40

type SummaryLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Row []string

// Statement is a rendered-agnostic report document.
type Statement struct {
	Account     string        `json:"account,omitempty"`
	Title       string        `json:"title"`
	Period      string        `json:"period"`
	GeneratedAt time.Time     `json:"generated_at"`
	Summary     []SummaryLine `json:"summary"`
	Columns     []string      `json:"columns"`
	Rows        []Row         `json:"rows"`
	Notes       []string      `json:"notes,omitempty"`
}

// Page is one printed page. Every page repeats the statement header and
// table columns.
type Page struct {
	Number int
	Of     int
	Rows   []Row
}

// Footer is the page-number line, e.g. "Page 2 of 3".
func (p Page) Footer() string {
	return fmt.Sprintf("Page %d of %d", p.Number, p.Of)
}

// Exporter delivers a finished statement somewhere.
type Exporter interface {
	Export(ctx context.Context, st Statement) error
}

// Heading is "<period> <title>", used for file and tab names.
func (s Statement) Heading() string {
	return strings.TrimSpace(s.Period + " " + s.Title)
}

// GeneratedLabel renders the generation time for footers.
func (s Statement) GeneratedLabel() string {
	return "Generated " + s.GeneratedAt.In(core.PKT).Format("02 Jan 2006 15:04")
}

// Paginate splits the rows into pages of at most rowsPerPage rows. A
// statement without rows still has one (empty) page.
func (s Statement) Paginate(rowsPerPage int) []Page {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	n := (len(s.Rows) + rowsPerPage - 1) / rowsPerPage
	if n == 0 {
		n = 1
	}
	pages := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		lo := i * rowsPerPage
		hi := min(lo+rowsPerPage, len(s.Rows))
		pages = append(pages, Page{Number: i + 1, Of: n, Rows: s.Rows[lo:hi]})
	}
	return pages
}

// MonthlyStatement lays out the month's dashboard and merged statement lines.
func MonthlyStatement(d ledger.Dashboard, lines []ledger.StatementLine, now time.Time) Statement {
	st := Statement{
		Title:       "Monthly Financial Statement",
		Period:      d.Month.Label(),
		GeneratedAt: now,
		Summary: []SummaryLine{
			{"Total Received", core.FormatAmount(d.TotalIncome)},
			{"Main Expense", core.FormatAmount(d.MainExpense)},
			{"Staff Expense", core.FormatAmount(d.StaffExpense)},
			{"Total Expenses", core.FormatAmount(d.TotalExpense)},
			{"Net Balance", core.FormatAmount(d.Profit)},
		},
		Columns: []string{"Date", "Description / Remarks", "Type", "Amount (PKR)"},
		Rows:    make([]Row, 0, len(lines)),
	}
	if len(d.Notes) > 0 {
		st.Summary = append(st.Summary,
			SummaryLine{"Notes", core.FormatAmount(d.NotesTotal)},
			SummaryLine{"Adjusted Balance", core.FormatAmount(d.AdjustedBalance)})
		for _, n := range d.Notes {
			st.Notes = append(st.Notes, fmt.Sprintf("%s: %s", n.Title, core.FormatAmount(n.Amount)))
		}
	}
	for _, l := range lines {
		st.Rows = append(st.Rows, Row{l.Date.String(), l.Description, l.DisplayType, amount(l.Amount.String())})
	}
	st.Notes = append(st.Notes, fmt.Sprintf("%s transactions, %s staff entries",
		humanize.Comma(int64(d.TransactionCount)), humanize.Comma(int64(d.StaffEntryCount))))
	return st
}

// PersonStatement lays out one person's entries for the standing's month.
func PersonStatement(s ledger.Standing, entries []core.PersonLedgerEntry, now time.Time) Statement {
	st := Statement{
		Title:       "Person Ledger " + s.Person.Name,
		Period:      s.Month.Label(),
		GeneratedAt: now,
		Summary: []SummaryLine{
			{"Previous Balance", core.FormatAmount(s.Person.OpeningBalance)},
			{"Current Balance", core.FormatAmount(s.DisplayBalance) + " " + s.Position.Label()},
			{"Monthly Limit", core.FormatAmount(s.Person.MonthlyLimit)},
			{"Current Month Total", core.FormatAmount(s.MonthlyConsumed)},
			{"Remaining Limit", core.FormatAmount(s.MonthlyRemainingLimit)},
		},
		Columns: []string{"Date", "Description", "Type", "Amount (PKR)"},
		Rows:    []Row{},
	}
	if s.OverLimit {
		st.Notes = append(st.Notes, "Monthly limit exceeded")
	}
	for _, e := range ledger.EntriesOf(s.Person.ID, entries) {
		if !s.Month.Contains(e.Date) {
			continue
		}
		st.Rows = append(st.Rows, Row{e.Date.String(), e.Description, entryLabel(e.Kind), amount(e.Amount.String())})
	}
	return st
}

// CommodityStatement lays out one commodity book.
func CommodityStatement(sum ledger.CommoditySummary, records []core.CommodityRecord, now time.Time) Statement {
	unit := "Quantity"
	switch sum.Ledger {
	case core.LedgerTori:
		unit = "Mun"
	case core.LedgerWanda:
		unit = "Bags"
	}
	st := Statement{
		Title:       titleCase(sum.Ledger) + " Ledger",
		Period:      "All Records",
		GeneratedAt: now,
		Summary: []SummaryLine{
			{"Total " + unit, core.FormatQuantity(sum.TotalQuantity)},
			{"Total Amount", core.FormatAmount(sum.TotalDue)},
			{"Total Paid", core.FormatAmount(sum.TotalPaid)},
			{"Remaining Balance", core.FormatAmount(sum.RemainingBalance)},
		},
		Columns: []string{"Date", "Description", unit, "Rate", "Total", "Paid"},
		Rows:    make([]Row, 0, len(records)),
	}
	for _, r := range records {
		st.Rows = append(st.Rows, Row{
			r.Date.String(),
			r.Description,
			core.FormatQuantity(r.Quantity),
			amount(r.UnitPrice.String()),
			amount(r.LineTotal().String()),
			amount(r.PaymentGiven.String()),
		})
	}
	return st
}

// DailyStatement lays out one day of one side.
func DailyStatement(d ledger.DayDetail, now time.Time) Statement {
	st := Statement{
		Title:       "Daily " + titleCase(string(d.Side)) + " Report",
		Period:      d.Date.Format("02 January 2006"),
		GeneratedAt: now,
		Summary: []SummaryLine{
			{"Daily Total Amount", core.FormatAmount(d.Total)},
		},
		Columns: []string{"SR#", "Description / Remarks", "Amount (PKR)"},
		Rows:    make([]Row, 0, len(d.Entries)),
	}
	for i, t := range d.Entries {
		desc := t.Description
		if t.Remarks != "" {
			desc += " (" + t.Remarks + ")"
		}
		st.Rows = append(st.Rows, Row{strconv.Itoa(i + 1), desc, amount(t.Amount.String())})
	}
	return st
}

func entryLabel(k core.EntryKind) string {
	switch k {
	case core.EntryPayment:
		return "Payment"
	case core.EntryReceived:
		return "Received"
	default:
		return "Expense"
	}
}

// amount renders a decimal string with thousands separators and no currency.
func amount(s string) string {
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	out := humanize.Comma(n)
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
