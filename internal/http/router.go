package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"khata/internal/core"
	"khata/internal/log"
	"khata/internal/report/xlsx"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Ledger          Ledger
	Logger          *log.Logger
	Metrics         *Metrics
	RowsPerPage     int
	WritesPerMinute int
	Now             func() time.Time
}

// NewRouter builds the API router. The returned stop func ends the rate
// limiter's cleanup goroutine.
func NewRouter(deps Deps) (http.Handler, func()) {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	limiter := newRateLimiter(deps.WritesPerMinute)
	h := &handlers{
		ledger:  deps.Ledger,
		xlsx:    xlsx.New(deps.RowsPerPage),
		metrics: deps.Metrics,
		now:     deps.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(deps.Metrics.Middleware)
	r.Use(securityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.limitWrites(deps.Metrics))

		r.Get("/today", h.today)

		r.Route("/months/{month}", func(r chi.Router) {
			r.Get("/dashboard", h.dashboard)
			r.Get("/summary", h.summary)
			r.Get("/days", h.days)
			r.Get("/transactions", h.transactions)
			r.Get("/statement", h.statement)
			r.Get("/statement.xlsx", h.statementXLSX)
		})

		r.Get("/days/{date}", h.day)
		r.Get("/days/{date}/statement.xlsx", h.dayXLSX)

		r.Get("/persons", h.people)
		r.Get("/persons/{id}", h.person)
		r.Get("/persons/{id}/statement.xlsx", h.personXLSX)

		r.Get("/commodities/{ledger}", h.commodity)
		r.Get("/commodities/{ledger}/statement.xlsx", h.commodityXLSX)

		r.Post("/transactions", h.createTransaction)
		r.Post("/persons", h.createPerson)
		r.Post("/entries", h.createEntry)
		r.Post("/commodities", h.createCommodity)
		r.Post("/notes", h.createNote)

		r.Delete("/transactions/{id}", h.deleteRecord(core.EntityTransaction))
		r.Delete("/persons/{id}", h.deleteRecord(core.EntityPerson))
		r.Delete("/entries/{id}", h.deleteRecord(core.EntityEntry))
		r.Delete("/commodities/{id}", h.deleteRecord(core.EntityCommodity))
		r.Delete("/notes/{id}", h.deleteRecord(core.EntityNote))
	})

	return r, limiter.stop
}
