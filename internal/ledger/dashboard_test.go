package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core"
)

func TestBuildDashboard(t *testing.T) {
	month := core.MustMonth("2024-03")
	txs := []core.Transaction{
		tx("1", core.Income, "2024-03-05", "5000"),
		tx("2", core.Expense, "2024-03-05", "1200"),
		tx("3", core.Transfer, "2024-03-06", "300"),
		tx("4", core.Income, "2024-04-01", "999"),
	}
	entries := []core.PersonLedgerEntry{
		entry("e1", "p1", core.EntryPayment, "2024-03-02", "1000"),
		entry("e2", "p2", core.EntryExpense, "2024-03-09", "250"),
		entry("e3", "p1", core.EntryExpense, "2024-02-28", "700"),
	}
	notes := []core.MonthlyNote{
		{ID: "n2", Month: month, Title: "cash in hand", Amount: dec("-100")},
		{ID: "n1", Month: month, Title: "loan return", Amount: dec("400")},
		{ID: "n3", Month: core.MustMonth("2024-02"), Title: "old", Amount: dec("1")},
	}

	d := BuildDashboard(txs, entries, notes, month)
	assert.True(t, d.TotalIncome.Equal(dec("5000")))
	assert.True(t, d.MainExpense.Equal(dec("1500")))
	assert.True(t, d.StaffExpense.Equal(dec("1250")))
	assert.True(t, d.TotalExpense.Equal(dec("2750")))
	assert.True(t, d.Profit.Equal(dec("2250")))
	assert.True(t, d.NotesTotal.Equal(dec("300")))
	assert.True(t, d.AdjustedBalance.Equal(dec("2550")))
	assert.Equal(t, 3, d.TransactionCount)
	assert.Equal(t, 2, d.StaffEntryCount)
	require.Len(t, d.Notes, 2)
	assert.Equal(t, "n1", d.Notes[0].ID)
}

func TestStatementLines(t *testing.T) {
	month := core.MustMonth("2024-03")
	txs := []core.Transaction{
		tx("t2", core.Expense, "2024-03-05", "200"),
		tx("t1", core.Income, "2024-03-05", "500"),
		tx("t3", core.Transfer, "2024-03-01", "50"),
	}
	entries := []core.PersonLedgerEntry{
		{ID: "e1", PersonID: "p1", Date: core.MustDate("2024-03-03"), Description: "fuel", Amount: dec("40"), Kind: core.EntryExpense},
		{ID: "e0", PersonID: "p1", Date: core.MustDate("2024-04-03"), Description: "later", Amount: dec("40"), Kind: core.EntryExpense},
	}

	lines := StatementLines(txs, entries, month)
	require.Len(t, lines, 4)
	assert.Equal(t, "t3", lines[0].ID)
	assert.Equal(t, DisplayExpense, lines[0].DisplayType)
	assert.Equal(t, "e1", lines[1].ID)
	assert.Equal(t, DisplayStaff, lines[1].DisplayType)
	assert.Equal(t, "(Staff) fuel", lines[1].Description)
	assert.Equal(t, "t1", lines[2].ID)
	assert.Equal(t, DisplayReceived, lines[2].DisplayType)
	assert.Equal(t, core.SideIncome, lines[2].Side)
	assert.Equal(t, "t2", lines[3].ID)

	assert.Empty(t, StatementLines(nil, nil, month))
}

func TestTransactionsIn(t *testing.T) {
	txs := []core.Transaction{
		tx("b", core.Expense, "2024-03-05", "1"),
		tx("a", core.Transfer, "2024-03-05", "1"),
		tx("c", core.Expense, "2024-03-01", "1"),
		tx("d", core.Income, "2024-03-01", "1"),
	}
	out := TransactionsIn(txs, core.MustMonth("2024-03"), core.SideExpense)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{out[0].ID, out[1].ID, out[2].ID})
}
