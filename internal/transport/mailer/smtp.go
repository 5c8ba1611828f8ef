// Package mailer delivers outbound mail over SMTP or into the log.
package mailer

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/pda/internal/domain/mail"
)

// SMTPConfig holds relay settings for the SMTP driver.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	RatePerSec float64
	Timeout    time.Duration
	Logger     *zap.Logger
}

// SMTP sends mail through a relay, at most RatePerSec messages per second.
type SMTP struct {
	client  *gomail.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewSMTP creates an SMTP driver. No connection is made until the first Send.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client %s: %w", cfg.Host, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTP{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		logger:  logger,
	}, nil
}

// Send validates and delivers m, waiting for the rate limiter first.
func (s *SMTP) Send(ctx context.Context, m mail.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	msg, err := buildMsg(m)
	if err != nil {
		return err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send %q: %w", m.Subject, err)
	}
	s.logger.Debug("Mail sent",
		zap.String("subject", m.Subject),
		zap.Int("recipients", len(m.To)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func buildMsg(m mail.Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.Sender); err != nil {
		return nil, fmt.Errorf("sender %q: %w", m.Sender, err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("recipients: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Body)
	if m.HTMLBody != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, m.HTMLBody)
	}
	return msg, nil
}
