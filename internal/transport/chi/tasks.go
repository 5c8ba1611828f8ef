package chi

import (
	"bytes"
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
	fixuc "github.com/kailas-cloud/pda/internal/usecase/fix"
	notifyuc "github.com/kailas-cloud/pda/internal/usecase/notify"
)

// TaskNotify handles GET|POST /task/notify.
func (s *Server) TaskNotify(w http.ResponseWriter, r *http.Request) {
	log, err := s.notify.Run(r.Context(), s.opts.Now())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	render(w, http.StatusOK, "log.html", logPage{Chrome: s.chrome(""), Title: notifyuc.PathNotify, Log: log})
}

// TaskMail handles POST /task/mail: one reminder for the Calendar in key.
func (s *Server) TaskMail(w http.ResponseWriter, r *http.Request) {
	key, err := domrec.ParseKey(r.FormValue("key"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := s.notify.SendReminder(r.Context(), key); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeText(w, "sent reminder for "+key.String())
}

// TaskFixAll handles POST /task/fix/all, resuming after the next parameter.
func (s *Server) TaskFixAll(w http.ResponseWriter, r *http.Request) {
	log, err := s.fix.FixAll(r.Context(), r.FormValue("next"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	render(w, http.StatusOK, "log.html", logPage{Chrome: s.chrome(""), Title: fixuc.PathAll, Log: log})
}

// TaskFixRecord handles POST /task/fix/record.
func (s *Server) TaskFixRecord(w http.ResponseWriter, r *http.Request) {
	key, err := domrec.ParseKey(r.FormValue("key"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	out, err := s.fix.FixRecord(r.Context(), key)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeText(w, fmt.Sprintf("fixed %s year=%t words=%t", out.Key, out.YearFixed, out.WordsChanged))
}

// InboundMail handles POST /_ah/mail/{address}.
func (s *Server) InboundMail(w http.ResponseWriter, r *http.Request) {
	address := gochi.URLParam(r, "address")
	if err := s.relay.Forward(r.Context(), address, r.Body); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeText(w, "forwarded")
}

// MailMerge handles GET /mailmerge.
func (s *Server) MailMerge(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.mailmerge.Write(r.Context(), &buf); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", "mailmerge.csv", buf.Bytes())
}

// ExportContacts handles GET /export/contacts.vcf.
func (s *Server) ExportContacts(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := s.export.VCards(r.Context(), &buf)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.logger.Debug("Exported contacts", zap.Int("cards", n))
	writeAttachment(w, "text/vcard; charset=utf-8", "contacts.vcf", buf.Bytes())
}

// ExportCalendar handles GET /export/calendar.ics.
func (s *Server) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := s.export.Calendar(r.Context(), &buf, s.opts.Now())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.logger.Debug("Exported calendar", zap.Int("events", n))
	writeAttachment(w, "text/calendar; charset=utf-8", "calendar.ics", buf.Bytes())
}

func writeText(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msg + "\n"))
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
