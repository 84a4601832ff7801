package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"khata/internal/core"
	"khata/internal/log"
)

// Text is a column value as it arrives from a backend. It accepts JSON
// strings, numbers and null so hosted rows and local rows share one decoder.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Row shapes shared by the persistent backends. Field names follow the
// hosted table columns.
type (
	TransactionRow struct {
		ID          Text `json:"id"`
		Type        Text `json:"type"`
		Date        Text `json:"date"`
		Description Text `json:"description"`
		Amount      Text `json:"amount"`
		Remarks     Text `json:"remarks"`
		Source      Text `json:"source"`
	}

	PersonRow struct {
		ID             Text `json:"id"`
		Name           Text `json:"name"`
		OpeningBalance Text `json:"previous_balance"`
		MonthlyLimit   Text `json:"salary_limit"`
	}

	EntryRow struct {
		ID          Text `json:"id"`
		PersonID    Text `json:"person_id"`
		Date        Text `json:"date"`
		Description Text `json:"description"`
		Amount      Text `json:"amount"`
		Type        Text `json:"type"`
	}

	CommodityRow struct {
		ID            Text `json:"id"`
		Ledger        Text `json:"ledger"`
		Date          Text `json:"date"`
		Quantity      Text `json:"quantity"`
		UnitPrice     Text `json:"unit_price"`
		PaymentGiven  Text `json:"payment_given"`
		Description   Text `json:"description"`
		AttachmentURL Text `json:"attachment_url"`
	}

	NoteRow struct {
		ID     Text `json:"id"`
		Month  Text `json:"month"`
		Title  Text `json:"title"`
		Amount Text `json:"amount"`
	}
)

// Decode turns a raw row into a record. A malformed date or an unknown kind
// is an error; unparsable numbers become zero.
func (r TransactionRow) Decode() (core.Transaction, error) {
	date, err := core.ParseDate(r.Date.String())
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseTransactionKind(r.Type.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", err, r.Type)
	}
	return core.Transaction{
		ID:          r.ID.String(),
		Kind:        kind,
		Date:        date,
		Description: string(r.Description),
		Amount:      core.CoerceAmount(r.Amount.String()),
		Remarks:     string(r.Remarks),
		Source:      string(r.Source),
	}, nil
}

func (r PersonRow) Decode() (core.Person, error) {
	if r.ID.String() == "" {
		return core.Person{}, core.ErrMissingID
	}
	return core.Person{
		ID:             r.ID.String(),
		Name:           string(r.Name),
		OpeningBalance: coerceSigned(r.OpeningBalance.String()),
		MonthlyLimit:   core.CoerceAmount(r.MonthlyLimit.String()),
	}, nil
}

// Decode maps an empty type to Expense. Rows written before the type column
// existed carry no kind; this is the only place that default applies.
func (r EntryRow) Decode() (core.PersonLedgerEntry, error) {
	date, err := core.ParseDate(r.Date.String())
	if err != nil {
		return core.PersonLedgerEntry{}, err
	}
	kind := core.EntryExpense
	if s := r.Type.String(); s != "" {
		kind, err = core.ParseEntryKind(s)
		if err != nil {
			return core.PersonLedgerEntry{}, fmt.Errorf("%w: %q", err, s)
		}
	}
	if r.PersonID.String() == "" {
		return core.PersonLedgerEntry{}, core.ErrMissingPerson
	}
	return core.PersonLedgerEntry{
		ID:          r.ID.String(),
		PersonID:    r.PersonID.String(),
		Date:        date,
		Description: string(r.Description),
		Amount:      core.CoerceAmount(r.Amount.String()),
		Kind:        kind,
	}, nil
}

func (r CommodityRow) Decode() (core.CommodityRecord, error) {
	date, err := core.ParseDate(r.Date.String())
	if err != nil {
		return core.CommodityRecord{}, err
	}
	return core.CommodityRecord{
		ID:            r.ID.String(),
		Ledger:        strings.ToLower(r.Ledger.String()),
		Date:          date,
		Quantity:      core.CoerceAmount(r.Quantity.String()),
		UnitPrice:     core.CoerceAmount(r.UnitPrice.String()),
		PaymentGiven:  core.CoerceAmount(r.PaymentGiven.String()),
		Description:   string(r.Description),
		AttachmentURL: r.AttachmentURL.String(),
	}, nil
}

func (r NoteRow) Decode() (core.MonthlyNote, error) {
	month, err := core.ParseMonthKey(r.Month.String())
	if err != nil {
		return core.MonthlyNote{}, err
	}
	return core.MonthlyNote{
		ID:     r.ID.String(),
		Month:  month,
		Title:  string(r.Title),
		Amount: coerceSigned(r.Amount.String()),
	}, nil
}

func TransactionRowOf(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          Text(t.ID),
		Type:        Text(t.Kind),
		Date:        Text(t.Date.String()),
		Description: Text(t.Description),
		Amount:      Text(t.Amount.String()),
		Remarks:     Text(t.Remarks),
		Source:      Text(t.Source),
	}
}

func PersonRowOf(p core.Person) PersonRow {
	return PersonRow{
		ID:             Text(p.ID),
		Name:           Text(p.Name),
		OpeningBalance: Text(p.OpeningBalance.String()),
		MonthlyLimit:   Text(p.MonthlyLimit.String()),
	}
}

func EntryRowOf(e core.PersonLedgerEntry) EntryRow {
	return EntryRow{
		ID:          Text(e.ID),
		PersonID:    Text(e.PersonID),
		Date:        Text(e.Date.String()),
		Description: Text(e.Description),
		Amount:      Text(e.Amount.String()),
		Type:        Text(e.Kind),
	}
}

func CommodityRowOf(c core.CommodityRecord) CommodityRow {
	return CommodityRow{
		ID:            Text(c.ID),
		Ledger:        Text(c.Ledger),
		Date:          Text(c.Date.String()),
		Quantity:      Text(c.Quantity.String()),
		UnitPrice:     Text(c.UnitPrice.String()),
		PaymentGiven:  Text(c.PaymentGiven.String()),
		Description:   Text(c.Description),
		AttachmentURL: Text(c.AttachmentURL),
	}
}

func NoteRowOf(n core.MonthlyNote) NoteRow {
	return NoteRow{
		ID:     Text(n.ID),
		Month:  Text(n.Month.String()),
		Title:  Text(n.Title),
		Amount: Text(n.Amount.String()),
	}
}

// DecodeRows decodes every row, skipping and logging the ones that fail so a
// single bad row never hides the rest of a collection.
func DecodeRows[R any, T any](ctx context.Context, entity core.EntityType, rows []R, decode func(R) (T, error)) []T {
	out := make([]T, 0, len(rows))
	for i, r := range rows {
		rec, err := decode(r)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed row",
				log.FieldEntity, entity,
				log.FieldIndex, i,
				log.FieldError, err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func coerceSigned(s string) decimal.Decimal {
	d, err := core.ParseSignedAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
