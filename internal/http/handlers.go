package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"khata/internal/core"
	"khata/internal/ledger"
	"khata/internal/log"
	"khata/internal/report"
	"khata/internal/report/xlsx"
	"khata/internal/services"
	"khata/internal/store"
)

// Ledger is what the handlers need from the service layer.
type Ledger interface {
	Dashboard(ctx context.Context, sess store.Session, month core.MonthKey) (ledger.Dashboard, error)
	Statement(ctx context.Context, sess store.Session, month core.MonthKey) (services.MonthStatement, error)
	Summary(ctx context.Context, sess store.Session, month core.MonthKey) (ledger.MonthSummary, error)
	DailyBuckets(ctx context.Context, sess store.Session, month core.MonthKey, side core.Side) ([]ledger.DayBucket, error)
	DayDetail(ctx context.Context, sess store.Session, date core.Date, side core.Side) (ledger.DayDetail, error)
	Transactions(ctx context.Context, sess store.Session, month core.MonthKey, side core.Side) ([]core.Transaction, error)
	PersonLedger(ctx context.Context, sess store.Session, personID string, month core.MonthKey) (services.PersonLedger, error)
	People(ctx context.Context, sess store.Session, month core.MonthKey) ([]ledger.Standing, error)
	Commodity(ctx context.Context, sess store.Session, book string) (services.CommodityBook, error)

	SaveTransaction(ctx context.Context, sess store.Session, tx core.Transaction) (core.Transaction, error)
	SavePerson(ctx context.Context, sess store.Session, p core.Person) (core.Person, error)
	SaveEntry(ctx context.Context, sess store.Session, e core.PersonLedgerEntry) (core.PersonLedgerEntry, error)
	SaveCommodity(ctx context.Context, sess store.Session, c core.CommodityRecord) (core.CommodityRecord, error)
	SaveNote(ctx context.Context, sess store.Session, n core.MonthlyNote) (core.MonthlyNote, error)
	Delete(ctx context.Context, sess store.Session, entity core.EntityType, id string) error
}

type handlers struct {
	ledger  Ledger
	xlsx    *xlsx.Writer
	metrics *Metrics
	now     func() time.Time
}

// todayView is the landing view: the account's calendar day with both sides.
type todayView struct {
	Date    core.Date        `json:"date"`
	Month   core.MonthKey    `json:"month"`
	Income  ledger.DayDetail `json:"income"`
	Expense ledger.DayDetail `json:"expense"`
}

func (h *handlers) today(w http.ResponseWriter, r *http.Request) {
	ctx, sess := r.Context(), sessionFrom(r)
	today := core.Today(h.now())

	income, err := h.ledger.DayDetail(ctx, sess, today, core.SideIncome)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	expense, err := h.ledger.DayDetail(ctx, sess, today, core.SideExpense)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todayView{Date: today, Month: today.MonthKey(), Income: income, Expense: expense})
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.ledger.Dashboard(r.Context(), sessionFrom(r), month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.ledger.Summary(r.Context(), sessionFrom(r), month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handlers) days(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	side, err := parseSide(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	buckets, err := h.ledger.DailyBuckets(r.Context(), sessionFrom(r), month, side)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (h *handlers) transactions(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	side, err := parseSide(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	txs, err := h.ledger.Transactions(r.Context(), sessionFrom(r), month, side)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handlers) statement(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	st, err := h.ledger.Statement(r.Context(), sessionFrom(r), month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) statementXLSX(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	st, err := h.ledger.Statement(r.Context(), sessionFrom(r), month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeWorkbook(w, r, report.MonthlyStatement(st.Dashboard, st.Lines, h.now()))
}

func (h *handlers) day(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	side, err := parseSide(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.ledger.DayDetail(r.Context(), sessionFrom(r), date, side)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) dayXLSX(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	side, err := parseSide(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.ledger.DayDetail(r.Context(), sessionFrom(r), date, side)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeWorkbook(w, r, report.DailyStatement(d, h.now()))
}

func (h *handlers) people(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	standings, err := h.ledger.People(r.Context(), sessionFrom(r), month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func (h *handlers) person(w http.ResponseWriter, r *http.Request) {
	pl, ok := h.loadPerson(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (h *handlers) personXLSX(w http.ResponseWriter, r *http.Request) {
	pl, ok := h.loadPerson(w, r)
	if !ok {
		return
	}
	h.writeWorkbook(w, r, report.PersonStatement(pl.Standing, pl.Entries, h.now()))
}

func (h *handlers) loadPerson(w http.ResponseWriter, r *http.Request) (services.PersonLedger, bool) {
	month, err := parseMonth(r, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return services.PersonLedger{}, false
	}
	pl, err := h.ledger.PersonLedger(r.Context(), sessionFrom(r), chi.URLParam(r, "id"), month)
	if err != nil {
		h.writeError(w, r, err)
		return services.PersonLedger{}, false
	}
	return pl, true
}

func (h *handlers) commodity(w http.ResponseWriter, r *http.Request) {
	book, err := h.ledger.Commodity(r.Context(), sessionFrom(r), chi.URLParam(r, "ledger"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *handlers) commodityXLSX(w http.ResponseWriter, r *http.Request) {
	book, err := h.ledger.Commodity(r.Context(), sessionFrom(r), chi.URLParam(r, "ledger"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeWorkbook(w, r, report.CommodityStatement(book.Summary, book.Records, h.now()))
}

func (h *handlers) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.ledger.SaveTransaction(r.Context(), sessionFrom(r), tx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handlers) createPerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := req.toPerson()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.ledger.SavePerson(r.Context(), sessionFrom(r), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handlers) createEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	e, err := req.toEntry()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.ledger.SaveEntry(r.Context(), sessionFrom(r), e)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handlers) createCommodity(w http.ResponseWriter, r *http.Request) {
	var req commodityRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := req.toCommodity()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.ledger.SaveCommodity(r.Context(), sessionFrom(r), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handlers) createNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := req.toNote()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.ledger.SaveNote(r.Context(), sessionFrom(r), n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// deleteRecord removes one record of entity. Deleting a person removes
// their entries too.
func (h *handlers) deleteRecord(entity core.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.ledger.Delete(r.Context(), sessionFrom(r), entity, chi.URLParam(r, "id")); err != nil {
			h.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeWorkbook streams st as an .xlsx download.
func (h *handlers) writeWorkbook(w http.ResponseWriter, r *http.Request, st report.Statement) {
	st.Account = sessionFrom(r).AccountID
	f, err := h.xlsx.Render(st)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Close()

	name := st.Heading()
	if st.Account != "" {
		name = st.Account + " " + name
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", xlsx.FileName(name)))
	if err := f.Write(w); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Workbook write failed", log.FieldError, err)
	}
}
