package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pda/internal/db"
	"github.com/kailas-cloud/pda/internal/domain"
	exportuc "github.com/kailas-cloud/pda/internal/usecase/export"
	fixuc "github.com/kailas-cloud/pda/internal/usecase/fix"
	healthuc "github.com/kailas-cloud/pda/internal/usecase/health"
	mailmergeuc "github.com/kailas-cloud/pda/internal/usecase/mailmerge"
	notifyuc "github.com/kailas-cloud/pda/internal/usecase/notify"
	recorduc "github.com/kailas-cloud/pda/internal/usecase/record"
	relayuc "github.com/kailas-cloud/pda/internal/usecase/relay"
	searchuc "github.com/kailas-cloud/pda/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Services are the use cases served over HTTP.
type Services struct {
	Records   *recorduc.Service
	Search    *searchuc.Service
	Notify    *notifyuc.Service
	Fix       *fixuc.Service
	MailMerge *mailmergeuc.Service
	Export    *exportuc.Service
	Relay     *relayuc.Service
	Health    *healthuc.Service
}

// Options tune presentation.
type Options struct {
	AppName      string
	ShowInternal bool             // render keys and word indexes
	Now          func() time.Time // defaults to time.Now
}

// Server renders the address book pages and accepts task callbacks.
type Server struct {
	records       *recorduc.Service
	search        *searchuc.Service
	notify        *notifyuc.Service
	fix           *fixuc.Service
	mailmerge     *mailmergeuc.Service
	export        *exportuc.Service
	relay         *relayuc.Service
	health        *healthuc.Service
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTML server.
func NewServer(svc Services, opts Options, logger *zap.Logger) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AppName == "" {
		opts.AppName = "pda"
	}
	s := &Server{
		records:   svc.Records,
		search:    svc.Search,
		notify:    svc.Notify,
		fix:       svc.Fix,
		mailmerge: svc.MailMerge,
		export:    svc.Export,
		relay:     svc.Relay,
		health:    svc.Health,
		opts:      opts,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrInvalidKey, http.StatusBadRequest),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest),
		sentinelHandler(domain.ErrEmptySubject, http.StatusBadRequest),
		unavailableHandler,
	}
	return s
}

// Routes registers every handler on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/", s.Root)
	r.Post("/", s.Submit)

	r.Get("/mailmerge", s.MailMerge)
	r.Get("/export/contacts.vcf", s.ExportContacts)
	r.Get("/export/calendar.ics", s.ExportCalendar)

	r.Post("/_ah/mail/{address}", s.InboundMail)

	r.Get(notifyuc.PathNotify, s.TaskNotify)
	r.Post(notifyuc.PathNotify, s.TaskNotify)
	r.Post(notifyuc.PathMail, s.TaskMail)
	r.Post(fixuc.PathAll, s.TaskFixAll)
	r.Post(fixuc.PathRecord, s.TaskFixRecord)

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrInvalidKey),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptySubject):
		// built from the caller's own input
		return err.Error()
	case errors.Is(err, db.ErrUnavailable):
		return "store unavailable"
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeErrorPage(w, status, safeDomainMessage(err))
		return true
	}
}

// unavailableHandler maps any store failure to 503.
func unavailableHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, db.ErrUnavailable) {
		return false
	}
	writeErrorPage(w, http.StatusServiceUnavailable, "store unavailable")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeErrorPage(w, http.StatusInternalServerError, "internal error")
}
