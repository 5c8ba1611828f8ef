// Package relay forwards inbound mail to the configured recipients.
package relay

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset" // decode non-UTF-8 bodies
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pda/internal/domain"
	dommail "github.com/kailas-cloud/pda/internal/domain/mail"
	"github.com/kailas-cloud/pda/internal/metrics"
)

// Sender delivers outbound mail.
type Sender interface {
	Send(ctx context.Context, m dommail.Message) error
}

// Service rewraps inbound messages as forwards.
type Service struct {
	mail   Sender
	from   string
	to     []string
	logger *zap.Logger
}

// New creates a relay sending as from to the forward recipients.
func New(sender Sender, from string, to []string, logger *zap.Logger) *Service {
	return &Service{mail: sender, from: from, to: to, logger: logger}
}

// Forward parses an RFC 5322 message and sends it on with a header block
// prepended to both the plain and the HTML part.
func (s *Service) Forward(ctx context.Context, address string, r io.Reader) error {
	msg, err := Build(r)
	if err != nil {
		return err
	}
	msg.Sender = s.from
	msg.To = s.to

	s.logger.Warn("Received a message", zap.String("address", address), zap.String("subject", msg.Subject))
	if err := s.mail.Send(ctx, msg); err != nil {
		metrics.MailSentTotal.WithLabelValues("forward", metrics.StatusError).Inc()
		return fmt.Errorf("forward: %w", err)
	}
	metrics.MailSentTotal.WithLabelValues("forward", metrics.StatusOK).Inc()
	return nil
}

// Build turns a raw inbound message into a forward without sender or recipients.
func Build(r io.Reader) (dommail.Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return dommail.Message{}, fmt.Errorf("parse message: %v: %w", err, domain.ErrInvalidInput)
	}
	defer mr.Close()

	h := mr.Header
	subject := headerText(h, "Subject")
	top := fmt.Sprintf("-- FORWARDED MESSAGE --\nFrom: %s\nTo: %s\nCc: %s\nDate: %s\nSubject: %s\n\n",
		headerText(h, "From"), headerText(h, "To"), headerText(h, "Cc"), headerText(h, "Date"), subject)

	plain := strings.Builder{}
	plain.WriteString(top)
	rich := strings.Builder{}
	rich.WriteString(strings.ReplaceAll(html.EscapeString(top), "\n", "<br>"))

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dommail.Message{}, fmt.Errorf("read part: %v: %w", err, domain.ErrInvalidInput)
		}
		ih, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := ih.ContentType()
		if err != nil || ct == "" {
			ct = "text/plain"
		}
		body, err := io.ReadAll(p.Body)
		if err != nil {
			return dommail.Message{}, fmt.Errorf("read body: %v: %w", err, domain.ErrInvalidInput)
		}
		switch ct {
		case "text/plain":
			plain.Write(body)
		case "text/html":
			rich.Write(body)
		}
	}

	return dommail.Message{
		Subject:  "fwd: " + subject,
		Body:     plain.String(),
		HTMLBody: rich.String(),
	}, nil
}

// headerText decodes MIME words, keeping the raw value when that fails.
func headerText(h mail.Header, key string) string {
	if v, err := h.Text(key); err == nil {
		return v
	}
	return h.Get(key)
}
