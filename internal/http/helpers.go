package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"khata/internal/core"
	"khata/internal/log"
	"khata/internal/store"
)

// AccountHeader names the account a request acts for. Authentication
// itself happens in front of this service.
const AccountHeader = "X-Account-ID"

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a JSON body.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: "internal error"}

	var ve *core.ValidationError
	var nf *core.NotFoundError
	var se *core.StoreError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		body = errorBody{Error: ve.Err.Error(), Field: ve.Field}
	case errors.As(err, &nf):
		status = http.StatusNotFound
		body = errorBody{Error: nf.Error()}
	case errors.Is(err, core.ErrUnauthenticated):
		status = http.StatusUnauthorized
		body = errorBody{Error: err.Error()}
	case errors.As(err, &se):
		status = http.StatusBadGateway
		body = errorBody{Error: "record store unavailable"}
		if h.metrics != nil {
			h.metrics.storeErrors.WithLabelValues(routePattern(r)).Inc()
		}
	}

	logger := log.FromContext(r.Context())
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldStatusCode, status)
	}
	writeJSON(w, status, body)
}

func sessionFrom(r *http.Request) store.Session {
	return store.NewSession(r.Header.Get(AccountHeader))
}

// parseMonth reads the {month} URL parameter or the month query value.
// Empty and "current" resolve to the current month.
func parseMonth(r *http.Request, now time.Time) (core.MonthKey, error) {
	v := chi.URLParam(r, "month")
	if v == "" {
		v = r.URL.Query().Get("month")
	}
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "current") {
		return core.CurrentMonth(now), nil
	}
	m, err := core.ParseMonthKey(v)
	if err != nil {
		return core.MonthKey{}, &core.ValidationError{Field: "month", Err: err}
	}
	return m, nil
}

// parseSide reads the side query value. It defaults to expense.
func parseSide(r *http.Request) (core.Side, error) {
	v := r.URL.Query().Get("side")
	if strings.TrimSpace(v) == "" {
		return core.SideExpense, nil
	}
	side, err := core.ParseSide(v)
	if err != nil {
		return "", &core.ValidationError{Field: "side", Err: err}
	}
	return side, nil
}

func parseDateParam(r *http.Request) (core.Date, error) {
	d, err := core.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: "date", Err: err}
	}
	return d, nil
}
