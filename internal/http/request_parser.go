package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"khata/internal/core"
	"khata/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Request bodies. Numeric fields arrive as strings or numbers; both pass
// through store.Text so "1250.50" and 1250.5 parse the same way.
type (
	transactionRequest struct {
		ID          store.Text `json:"id"`
		Type        store.Text `json:"type"`
		Date        store.Text `json:"date"`
		Description store.Text `json:"description"`
		Amount      store.Text `json:"amount"`
		Remarks     store.Text `json:"remarks"`
		Source      store.Text `json:"source"`
	}

	personRequest struct {
		ID             store.Text `json:"id"`
		Name           store.Text `json:"name"`
		OpeningBalance store.Text `json:"opening_balance"`
		MonthlyLimit   store.Text `json:"monthly_limit"`
	}

	entryRequest struct {
		ID          store.Text `json:"id"`
		PersonID    store.Text `json:"person_id"`
		Date        store.Text `json:"date"`
		Description store.Text `json:"description"`
		Amount      store.Text `json:"amount"`
		Type        store.Text `json:"type"`
	}

	commodityRequest struct {
		ID            store.Text `json:"id"`
		Ledger        store.Text `json:"ledger"`
		Date          store.Text `json:"date"`
		Quantity      store.Text `json:"quantity"`
		UnitPrice     store.Text `json:"unit_price"`
		PaymentGiven  store.Text `json:"payment_given"`
		Description   store.Text `json:"description"`
		AttachmentURL store.Text `json:"attachment_url"`
	}

	noteRequest struct {
		ID     store.Text `json:"id"`
		Month  store.Text `json:"month"`
		Title  store.Text `json:"title"`
		Amount store.Text `json:"amount"`
	}
)

var errMalformedBody = errors.New("malformed JSON body")

// decodeBody reads one JSON object from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &core.ValidationError{Field: "body", Err: errMalformedBody}
		}
		return &core.ValidationError{Field: "body", Err: fmt.Errorf("%w: %v", errMalformedBody, err)}
	}
	return nil
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	kind, err := core.ParseTransactionKind(req.Type.String())
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "type", Err: err}
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := parseAmountField("amount", req.Amount, true)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          req.ID.String(),
		Kind:        kind,
		Date:        date,
		Description: sanitizeInput(string(req.Description)),
		Amount:      amount,
		Remarks:     sanitizeInput(string(req.Remarks)),
		Source:      sanitizeInput(string(req.Source)),
	}, nil
}

func (req personRequest) toPerson() (core.Person, error) {
	opening := decimal.Zero
	if s := req.OpeningBalance.String(); s != "" {
		d, err := core.ParseSignedAmount(s)
		if err != nil {
			return core.Person{}, &core.ValidationError{Field: "opening_balance", Err: err}
		}
		opening = d
	}
	limit, err := parseAmountField("monthly_limit", req.MonthlyLimit, false)
	if err != nil {
		return core.Person{}, err
	}
	return core.Person{
		ID:             req.ID.String(),
		Name:           sanitizeInput(string(req.Name)),
		OpeningBalance: opening,
		MonthlyLimit:   limit,
	}, nil
}

func (req entryRequest) toEntry() (core.PersonLedgerEntry, error) {
	kind, err := core.ParseEntryKind(req.Type.String())
	if err != nil {
		return core.PersonLedgerEntry{}, &core.ValidationError{Field: "type", Err: err}
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return core.PersonLedgerEntry{}, err
	}
	amount, err := parseAmountField("amount", req.Amount, true)
	if err != nil {
		return core.PersonLedgerEntry{}, err
	}
	return core.PersonLedgerEntry{
		ID:          req.ID.String(),
		PersonID:    req.PersonID.String(),
		Date:        date,
		Description: sanitizeInput(string(req.Description)),
		Amount:      amount,
		Kind:        kind,
	}, nil
}

func (req commodityRequest) toCommodity() (core.CommodityRecord, error) {
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return core.CommodityRecord{}, err
	}
	quantity, err := parseAmountField("quantity", req.Quantity, false)
	if err != nil {
		return core.CommodityRecord{}, err
	}
	price, err := parseAmountField("unit_price", req.UnitPrice, false)
	if err != nil {
		return core.CommodityRecord{}, err
	}
	paid, err := parseAmountField("payment_given", req.PaymentGiven, false)
	if err != nil {
		return core.CommodityRecord{}, err
	}
	return core.CommodityRecord{
		ID:            req.ID.String(),
		Ledger:        strings.ToLower(req.Ledger.String()),
		Date:          date,
		Quantity:      quantity,
		UnitPrice:     price,
		PaymentGiven:  paid,
		Description:   sanitizeInput(string(req.Description)),
		AttachmentURL: req.AttachmentURL.String(),
	}, nil
}

func (req noteRequest) toNote() (core.MonthlyNote, error) {
	month, err := core.ParseMonthKey(req.Month.String())
	if err != nil {
		return core.MonthlyNote{}, &core.ValidationError{Field: "month", Err: err}
	}
	amount := decimal.Zero
	if s := req.Amount.String(); s != "" {
		amount, err = core.ParseSignedAmount(s)
		if err != nil {
			return core.MonthlyNote{}, &core.ValidationError{Field: "amount", Err: err}
		}
	}
	return core.MonthlyNote{
		ID:     req.ID.String(),
		Month:  month,
		Title:  sanitizeInput(string(req.Title)),
		Amount: amount,
	}, nil
}

func parseDateField(field string, v store.Text) (core.Date, error) {
	d, err := core.ParseDate(v.String())
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

// parseAmountField parses a non-negative amount. Optional fields default
// to zero when empty.
func parseAmountField(field string, v store.Text, required bool) (decimal.Decimal, error) {
	s := v.String()
	if s == "" && !required {
		return decimal.Zero, nil
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

// sanitizeInput trims the value and drops control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}
