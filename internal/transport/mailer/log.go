package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pda/internal/domain/mail"
)

// Log writes every message to the logger instead of delivering it.
type Log struct {
	logger *zap.Logger
}

// NewLog creates the log driver.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Send validates m and logs it at info level.
func (l *Log) Send(_ context.Context, m mail.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	l.logger.Info("Mail",
		zap.String("sender", m.Sender),
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.Body),
		zap.Bool("html", m.HTMLBody != ""),
	)
	return nil
}
