package report

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"khata/internal/core"
	"khata/internal/ledger"
)

var now = time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertRow(t *testing.T, got, want Row) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("row = %q, want %q", got, want)
	}
}

func assertSummary(t *testing.T, st Statement, want SummaryLine) {
	t.Helper()
	if !slices.Contains(st.Summary, want) {
		t.Errorf("summary %v does not contain %v", st.Summary, want)
	}
}

func assertNote(t *testing.T, st Statement, want string) {
	t.Helper()
	if !slices.Contains(st.Notes, want) {
		t.Errorf("notes %q do not contain %q", st.Notes, want)
	}
}

func statementWithRows(n int) Statement {
	st := Statement{Title: "T", Period: "March 2024", GeneratedAt: now, Columns: []string{"A"}}
	for i := 0; i < n; i++ {
		st.Rows = append(st.Rows, Row{fmt.Sprint(i)})
	}
	return st
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		rows, perPage, pages, lastRows int
	}{
		{0, 10, 1, 0},
		{10, 10, 1, 10},
		{11, 10, 2, 1},
		{25, 10, 3, 5},
		{5, 0, 1, 5}, // default page size
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_rows_by_%d", tt.rows, tt.perPage), func(t *testing.T) {
			pages := statementWithRows(tt.rows).Paginate(tt.perPage)
			if len(pages) != tt.pages {
				t.Fatalf("got %d pages, want %d", len(pages), tt.pages)
			}
			last := pages[len(pages)-1]
			if len(last.Rows) != tt.lastRows {
				t.Errorf("last page has %d rows, want %d", len(last.Rows), tt.lastRows)
			}
			if last.Of != tt.pages {
				t.Errorf("Of = %d, want %d", last.Of, tt.pages)
			}
			if want := fmt.Sprintf("Page %d of %d", tt.pages, tt.pages); last.Footer() != want {
				t.Errorf("Footer() = %q, want %q", last.Footer(), want)
			}
		})
	}
}

func TestLayoutRepeatsHeaderOnEveryPage(t *testing.T) {
	st := statementWithRows(5)
	st.Summary = []SummaryLine{{"Total", "PKR 5"}}
	st.Notes = []string{"note"}

	lines := st.Layout(2)

	var titles, columns, footers, summaries, notes int
	for _, l := range lines {
		switch l.Kind {
		case LineTitle:
			titles++
		case LineColumns:
			columns++
		case LineFooter:
			footers++
		case LineSummary:
			summaries++
			if l.Page != 1 {
				t.Errorf("summary on page %d, want 1", l.Page)
			}
		case LineNote:
			notes++
			if l.Page != 3 {
				t.Errorf("note on page %d, want 3", l.Page)
			}
		}
	}
	if titles != 3 || columns != 3 || footers != 3 {
		t.Errorf("titles=%d columns=%d footers=%d, want 3 each", titles, columns, footers)
	}
	if summaries != 1 || notes != 1 {
		t.Errorf("summaries=%d notes=%d, want 1 each", summaries, notes)
	}
	if last := lines[len(lines)-1].Cells; !slices.Equal(last, []string{"Page 3 of 3"}) {
		t.Errorf("last line = %q", last)
	}
}

func TestMonthlyStatement(t *testing.T) {
	month := core.MustMonth("2024-03")
	d := ledger.Dashboard{
		Month:            month,
		TotalIncome:      dec("10000"),
		MainExpense:      dec("4000"),
		StaffExpense:     dec("500"),
		TotalExpense:     dec("4500"),
		Profit:           dec("5500"),
		Notes:            []core.MonthlyNote{{ID: "n1", Month: month, Title: "Loan", Amount: dec("-250")}},
		NotesTotal:       dec("-250"),
		AdjustedBalance:  dec("5250"),
		TransactionCount: 2,
		StaffEntryCount:  1,
	}
	lines := []ledger.StatementLine{
		{ID: "t1", Date: core.MustDate("2024-03-01"), DisplayType: ledger.DisplayReceived, Description: "Sale", Amount: dec("10000")},
		{ID: "e1", Date: core.MustDate("2024-03-03"), DisplayType: ledger.DisplayStaff, Description: "(Staff) Tea", Amount: dec("500")},
	}

	st := MonthlyStatement(d, lines, now)

	if got := st.Heading(); got != "March 2024 Monthly Financial Statement" {
		t.Errorf("Heading() = %q", got)
	}
	assertRow(t, st.Rows[0], Row{"2024-03-01", "Sale", "Received", "10,000"})
	assertSummary(t, st, SummaryLine{"Net Balance", "PKR 5,500"})
	assertSummary(t, st, SummaryLine{"Adjusted Balance", "PKR 5,250"})
	assertNote(t, st, "Loan: -PKR 250")
}

func TestPersonStatementKeepsMonthEntries(t *testing.T) {
	month := core.MustMonth("2024-03")
	person := core.Person{ID: "p1", Name: "Ali", MonthlyLimit: dec("1000")}
	entries := []core.PersonLedgerEntry{
		{ID: "e1", PersonID: "p1", Kind: core.EntryPayment, Date: core.MustDate("2024-02-28"), Description: "Old", Amount: dec("100")},
		{ID: "e2", PersonID: "p1", Kind: core.EntryExpense, Date: core.MustDate("2024-03-02"), Description: "Fuel", Amount: dec("1200")},
	}
	standing := ledger.PersonStanding(person, entries, month)

	st := PersonStatement(standing, entries, now)

	if len(st.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(st.Rows))
	}
	assertRow(t, st.Rows[0], Row{"2024-03-02", "Fuel", "Expense", "1,200"})
	assertNote(t, st, "Monthly limit exceeded")
	assertSummary(t, st, SummaryLine{"Current Balance", "PKR 1,100 Payable"})
}

func TestCommodityStatement(t *testing.T) {
	records := []core.CommodityRecord{
		{ID: "c1", Ledger: core.LedgerTori, Date: core.MustDate("2024-03-01"), Quantity: dec("10"), UnitPrice: dec("500"), PaymentGiven: dec("3000")},
	}
	sum := ledger.SummarizeCommodity(records)
	sum.Ledger = core.LedgerTori

	st := CommodityStatement(sum, records, now)

	if st.Title != "Tori Ledger" {
		t.Errorf("Title = %q", st.Title)
	}
	if want := []string{"Date", "Description", "Mun", "Rate", "Total", "Paid"}; !slices.Equal(st.Columns, want) {
		t.Errorf("Columns = %q, want %q", st.Columns, want)
	}
	assertRow(t, st.Rows[0], Row{"2024-03-01", "", "10", "500", "5,000", "3,000"})
	assertSummary(t, st, SummaryLine{"Remaining Balance", "PKR 2,000"})
}

func TestDailyStatement(t *testing.T) {
	txs := []core.Transaction{
		{ID: "b", Kind: core.Expense, Date: core.MustDate("2024-03-05"), Description: "Rent", Amount: dec("1234.5")},
		{ID: "a", Kind: core.Transfer, Date: core.MustDate("2024-03-05"), Description: "Bank", Remarks: "HBL", Amount: dec("100")},
	}
	st := DailyStatement(ledger.Day(txs, core.MustDate("2024-03-05"), core.SideExpense), now)

	if st.Title != "Daily Expense Report" || st.Period != "05 March 2024" {
		t.Errorf("Title, Period = %q, %q", st.Title, st.Period)
	}
	assertRow(t, st.Rows[0], Row{"1", "Bank (HBL)", "100"})
	assertRow(t, st.Rows[1], Row{"2", "Rent", "1,234.5"})
}

func TestAmount(t *testing.T) {
	cases := map[string]string{
		"1000000":  "1,000,000",
		"-1250.75": "-1,250.75",
		"0":        "0",
	}
	for in, want := range cases {
		if got := amount(in); got != want {
			t.Errorf("amount(%s) = %q, want %q", in, got, want)
		}
	}
}
