package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core"
)

func TestTextAcceptsNumbersStringsAndNull(t *testing.T) {
	var row TransactionRow
	err := json.Unmarshal([]byte(`{"id":"t1","type":"EXPENSE","date":"2024-03-05","description":"x","amount":120.5,"remarks":null}`), &row)
	require.NoError(t, err)
	assert.Equal(t, "120.5", row.Amount.String())
	assert.Equal(t, "", row.Remarks.String())

	tx, err := row.Decode()
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("120.5")))
	assert.Equal(t, core.Expense, tx.Kind)
}

func TestDecodeCoercesBadNumbers(t *testing.T) {
	tx, err := TransactionRow{ID: "t1", Type: "income", Date: "2024-03-05", Amount: "abc"}.Decode()
	require.NoError(t, err)
	assert.True(t, tx.Amount.IsZero())
	assert.Equal(t, core.Income, tx.Kind)

	p, err := PersonRow{ID: "p1", Name: "A", OpeningBalance: "-500", MonthlyLimit: "oops"}.Decode()
	require.NoError(t, err)
	assert.True(t, p.OpeningBalance.Equal(decimal.NewFromInt(-500)))
	assert.True(t, p.MonthlyLimit.IsZero())
}

func TestDecodeRejectsBadDates(t *testing.T) {
	_, err := TransactionRow{ID: "t1", Type: "INCOME", Date: "05/03/2024", Amount: "1"}.Decode()
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = EntryRow{ID: "e1", PersonID: "p1", Date: "", Amount: "1"}.Decode()
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = NoteRow{ID: "n1", Month: "March", Title: "x"}.Decode()
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestEntryRowDefaultsEmptyKindToExpense(t *testing.T) {
	e, err := EntryRow{ID: "e1", PersonID: "p1", Date: "2024-03-01", Amount: "10"}.Decode()
	require.NoError(t, err)
	assert.Equal(t, core.EntryExpense, e.Kind)

	e, err = EntryRow{ID: "e2", PersonID: "p1", Date: "2024-03-01", Amount: "10", Type: "Payment"}.Decode()
	require.NoError(t, err)
	assert.Equal(t, core.EntryPayment, e.Kind)

	_, err = EntryRow{ID: "e3", PersonID: "p1", Date: "2024-03-01", Amount: "10", Type: "gift"}.Decode()
	assert.ErrorIs(t, err, core.ErrInvalidKind)
}

func TestDecodeRowsSkipsMalformed(t *testing.T) {
	rows := []TransactionRow{
		{ID: "t1", Type: "INCOME", Date: "2024-03-05", Amount: "1"},
		{ID: "t2", Type: "INCOME", Date: "not a date", Amount: "1"},
		{ID: "t3", Type: "TRANSFER", Date: "2024-03-06", Amount: "2"},
	}
	out := DecodeRows(context.Background(), core.EntityTransaction, rows, TransactionRow.Decode)
	require.Len(t, out, 2)
	assert.Equal(t, "t1", out[0].ID)
	assert.Equal(t, "t3", out[1].ID)
}

func TestRowRoundTrip(t *testing.T) {
	c := core.CommodityRecord{
		ID: "c1", Ledger: core.LedgerWanda, Date: core.MustDate("2024-03-02"),
		Quantity: decimal.RequireFromString("12.5"), UnitPrice: decimal.NewFromInt(40),
		PaymentGiven: decimal.NewFromInt(100), Description: "bags", AttachmentURL: "https://x/slip.png",
	}
	got, err := CommodityRowOf(c).Decode()
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(c.Quantity))
	assert.Equal(t, c.AttachmentURL, got.AttachmentURL)
	assert.Equal(t, c.Ledger, got.Ledger)
}

func TestSession(t *testing.T) {
	assert.False(t, NewSession("  ").Authenticated())
	assert.True(t, NewSession(" acc ").Authenticated())
	assert.Equal(t, "acc", NewSession(" acc ").AccountID)
}
