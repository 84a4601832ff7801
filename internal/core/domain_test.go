package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          "t1",
		Kind:        Income,
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      decimal.NewFromInt(100),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zeroAmount := good
	zeroAmount.Amount = decimal.Zero
	if err := zeroAmount.Validate(); err != nil {
		t.Fatalf("zero amount should be allowed, got %v", err)
	}

	bads := []Transaction{
		{Kind: Income, Date: NewDate(2025, 1, 1), Description: "a", Amount: decimal.NewFromInt(1)},
		{ID: "x", Kind: "BOGUS", Date: NewDate(2025, 1, 1), Description: "a", Amount: decimal.NewFromInt(1)},
		{ID: "x", Kind: Expense, Description: "a", Amount: decimal.NewFromInt(1)},
		{ID: "x", Kind: Expense, Date: NewDate(2025, 1, 1), Description: " ", Amount: decimal.NewFromInt(1)},
		{ID: "x", Kind: Expense, Date: NewDate(2025, 1, 1), Description: strings.Repeat("a", 201), Amount: decimal.NewFromInt(1)},
		{ID: "x", Kind: Transfer, Date: NewDate(2025, 1, 1), Description: "a", Amount: decimal.NewFromInt(-1)},
	}
	for i, tx := range bads {
		err := tx.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %T", i, err)
		}
	}
}

func TestPersonLedgerEntryValidate(t *testing.T) {
	e := PersonLedgerEntry{
		ID:          "e1",
		PersonID:    "p1",
		Date:        NewDate(2024, 3, 1),
		Description: "fuel",
		Amount:      decimal.NewFromInt(10),
		Kind:        EntryExpense,
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	e.PersonID = ""
	if err := e.Validate(); !errors.Is(err, ErrMissingPerson) {
		t.Fatalf("expected ErrMissingPerson, got %v", err)
	}
	e.PersonID = "p1"
	e.Kind = ""
	if err := e.Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("empty kind must be rejected in core, got %v", err)
	}
}

func TestPersonValidate(t *testing.T) {
	p := Person{ID: "p1", Name: "Aslam", OpeningBalance: decimal.NewFromInt(-500), MonthlyLimit: decimal.NewFromInt(30000)}
	if err := p.Validate(); err != nil {
		t.Fatalf("negative opening balance is a liability and valid, got %v", err)
	}
	p.MonthlyLimit = decimal.NewFromInt(-1)
	if err := p.Validate(); err == nil {
		t.Fatalf("negative limit must be rejected")
	}
}

func TestCommodityLineTotal(t *testing.T) {
	c := CommodityRecord{Quantity: decimal.RequireFromString("12.5"), UnitPrice: decimal.NewFromInt(40)}
	if !c.LineTotal().Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected 500, got %s", c.LineTotal())
	}
}

func TestCommodityValidate(t *testing.T) {
	c := CommodityRecord{ID: "c1", Ledger: LedgerWanda, Date: NewDate(2024, 3, 1)}
	if err := c.Validate(); err != nil {
		t.Fatalf("empty description is fine for commodity records, got %v", err)
	}
	c.Ledger = "cotton"
	if err := c.Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("unknown book must be rejected, got %v", err)
	}
}

func TestKinds(t *testing.T) {
	if k, err := ParseTransactionKind("transfer"); err != nil || k.Side() != SideExpense {
		t.Fatalf("transfer should aggregate as expense, got %v %v", k, err)
	}
	if k, _ := ParseTransactionKind("Income"); k.Side() != SideIncome {
		t.Fatalf("income side expected")
	}
	if !EntryPayment.IsCredit() || EntryExpense.IsCredit() || EntryReceived.IsCredit() {
		t.Fatalf("only payments are credits")
	}
	if _, err := ParseEntryKind(""); err == nil {
		t.Fatalf("empty entry kind must not parse")
	}
	if e, err := ParseEntityType("entries"); err != nil || e != EntityEntry {
		t.Fatalf("expected person_entry, got %v %v", e, err)
	}
}
