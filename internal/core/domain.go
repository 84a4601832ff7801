package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income   TransactionKind = "INCOME"
	Expense  TransactionKind = "EXPENSE"
	Transfer TransactionKind = "TRANSFER"
)

const (
	EntryPayment  EntryKind = "payment"
	EntryExpense  EntryKind = "expense"
	EntryReceived EntryKind = "received"
)

// Side is the aggregation bucket a transaction counts towards.
const (
	SideIncome  Side = "income"
	SideExpense Side = "expense"
)

const (
	EntityTransaction EntityType = "transaction"
	EntityPerson      EntityType = "person"
	EntityEntry       EntityType = "person_entry"
	EntityCommodity   EntityType = "commodity"
	EntityNote        EntityType = "monthly_note"
)

// Commodity books kept by the business.
const (
	LedgerTori  = "tori"
	LedgerWanda = "wanda"
)

const maxDescriptionLen = 200

type (
	TransactionKind string
	EntryKind       string
	Side            string
	EntityType      string

	// Record is anything the store can upsert by id.
	Record interface {
		Entity() EntityType
		RecordID() string
		Validate() error
	}

	Transaction struct {
		ID          string          `json:"id"`
		Kind        TransactionKind `json:"type"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Remarks     string          `json:"remarks,omitempty"`
		Source      string          `json:"source,omitempty"`
	}

	Person struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		// OpeningBalance is signed: positive is an advance held by the person,
		// negative is an amount the business owes them.
		OpeningBalance decimal.Decimal `json:"opening_balance"`
		MonthlyLimit   decimal.Decimal `json:"monthly_limit"`
	}

	PersonLedgerEntry struct {
		ID          string          `json:"id"`
		PersonID    string          `json:"person_id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Kind        EntryKind       `json:"type"`
	}

	CommodityRecord struct {
		ID            string          `json:"id"`
		Ledger        string          `json:"ledger"`
		Date          Date            `json:"date"`
		Quantity      decimal.Decimal `json:"quantity"`
		UnitPrice     decimal.Decimal `json:"unit_price"`
		PaymentGiven  decimal.Decimal `json:"payment_given"`
		Description   string          `json:"description"`
		AttachmentURL string          `json:"attachment_url,omitempty"`
	}

	MonthlyNote struct {
		ID     string          `json:"id"`
		Month  MonthKey        `json:"month"`
		Title  string          `json:"title"`
		Amount decimal.Decimal `json:"amount"`
	}
)

// ParseTransactionKind accepts any casing of the three kinds.
func ParseTransactionKind(s string) (TransactionKind, error) {
	k := TransactionKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case Income, Expense, Transfer:
		return k, nil
	}
	return "", ErrInvalidKind
}

// Side returns the bucket the kind aggregates into. Transfers count as expenses.
func (k TransactionKind) Side() Side {
	if k == Income {
		return SideIncome
	}
	return SideExpense
}

func (k TransactionKind) Valid() bool {
	switch k {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// ParseEntryKind accepts any casing of the three entry kinds.
func ParseEntryKind(s string) (EntryKind, error) {
	k := EntryKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case EntryPayment, EntryExpense, EntryReceived:
		return k, nil
	}
	return "", ErrInvalidKind
}

func (k EntryKind) Valid() bool {
	switch k {
	case EntryPayment, EntryExpense, EntryReceived:
		return true
	}
	return false
}

// IsCredit reports whether the entry raises the person's running balance.
// Only cash given to the person does; everything else is a debit.
func (k EntryKind) IsCredit() bool {
	return k == EntryPayment
}

// ValidLedger reports whether name is one of the commodity books.
func ValidLedger(name string) bool {
	return name == LedgerTori || name == LedgerWanda
}

// ParseSide maps "income"/"expense" (any case) to a Side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideIncome:
		return SideIncome, nil
	case SideExpense:
		return SideExpense, nil
	}
	return "", ErrInvalidKind
}

// ParseEntityType maps a path segment or message field to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transaction", "transactions":
		return EntityTransaction, nil
	case "person", "persons", "people":
		return EntityPerson, nil
	case "person_entry", "entry", "entries":
		return EntityEntry, nil
	case "commodity", "commodities":
		return EntityCommodity, nil
	case "monthly_note", "note", "notes":
		return EntityNote, nil
	}
	return "", ErrInvalidKind
}

func (e EntityType) String() string {
	return string(e)
}

func (t Transaction) Entity() EntityType       { return EntityTransaction }
func (p Person) Entity() EntityType            { return EntityPerson }
func (e PersonLedgerEntry) Entity() EntityType { return EntityEntry }
func (c CommodityRecord) Entity() EntityType   { return EntityCommodity }
func (n MonthlyNote) Entity() EntityType       { return EntityNote }

func (t Transaction) RecordID() string       { return t.ID }
func (p Person) RecordID() string            { return p.ID }
func (e PersonLedgerEntry) RecordID() string { return e.ID }
func (c CommodityRecord) RecordID() string   { return c.ID }
func (n MonthlyNote) RecordID() string       { return n.ID }

// LineTotal is quantity × unit price. It is never stored.
func (c CommodityRecord) LineTotal() decimal.Decimal {
	return c.Quantity.Mul(c.UnitPrice)
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return invalid("id", ErrMissingID)
	}
	if !t.Kind.Valid() {
		return invalid("type", ErrInvalidKind)
	}
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if err := validateDescription(t.Description, true); err != nil {
		return err
	}
	return nonNegative("amount", t.Amount)
}

func (p Person) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return invalid("id", ErrMissingID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	return nonNegative("monthly_limit", p.MonthlyLimit)
}

func (e PersonLedgerEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return invalid("id", ErrMissingID)
	}
	if strings.TrimSpace(e.PersonID) == "" {
		return invalid("person_id", ErrMissingPerson)
	}
	if !e.Kind.Valid() {
		return invalid("type", ErrInvalidKind)
	}
	if err := e.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if err := validateDescription(e.Description, true); err != nil {
		return err
	}
	return nonNegative("amount", e.Amount)
}

func (c CommodityRecord) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return invalid("id", ErrMissingID)
	}
	if !ValidLedger(c.Ledger) {
		return invalid("ledger", ErrInvalidKind)
	}
	if err := c.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if err := validateDescription(c.Description, false); err != nil {
		return err
	}
	if err := nonNegative("quantity", c.Quantity); err != nil {
		return err
	}
	if err := nonNegative("unit_price", c.UnitPrice); err != nil {
		return err
	}
	return nonNegative("payment_given", c.PaymentGiven)
}

func (n MonthlyNote) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return invalid("id", ErrMissingID)
	}
	if n.Month.IsZero() {
		return invalid("month", ErrInvalidMonth)
	}
	if strings.TrimSpace(n.Title) == "" {
		return invalid("title", ErrEmptyDescription)
	}
	return nil
}

func validateDescription(s string, required bool) error {
	if required && strings.TrimSpace(s) == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if len(s) > maxDescriptionLen {
		return invalid("description", errTooLong)
	}
	return nil
}

func nonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid(field, ErrInvalidAmount)
	}
	return nil
}
