// Package bootstrap builds the infrastructure shared by the server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pda/internal/config"
	"github.com/kailas-cloud/pda/internal/db"
	dbMemory "github.com/kailas-cloud/pda/internal/db/memory"
	dbRedis "github.com/kailas-cloud/pda/internal/db/redis"
	dbSqlite "github.com/kailas-cloud/pda/internal/db/sqlite"
	"github.com/kailas-cloud/pda/internal/domain/mail"
	logpkg "github.com/kailas-cloud/pda/internal/logger"
	"github.com/kailas-cloud/pda/internal/transport/mailer"
	notifyuc "github.com/kailas-cloud/pda/internal/usecase/notify"
)

// Sender delivers outbound mail.
type Sender interface {
	Send(ctx context.Context, m mail.Message) error
}

// LoggerOptions maps the logging section onto logger options.
func LoggerOptions(l config.LoggingConfig) logpkg.Options {
	return logpkg.Options{
		Level: l.Level,
		File: logpkg.FileConfig{
			Path:       l.File,
			MaxSizeMB:  l.MaxSizeMB,
			MaxBackups: l.MaxBackups,
			MaxAgeDays: l.MaxAgeDays,
		},
	}
}

// OpenStore creates the record store for the configured driver and waits
// until it answers.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		s.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return s, nil
}

func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	// Return concrete stores only on success: a typed nil pointer wrapped in db.Store != nil.
	switch cfg.Driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return s, nil
	case "sqlite":
		s, err := dbSqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return dbMemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewSender picks the outbound mail driver.
func NewSender(cfg config.MailConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Driver {
	case "log":
		return mailer.NewLog(logger.Named("mail")), nil
	case "smtp":
		s, err := mailer.NewSMTP(mailer.SMTPConfig{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			RatePerSec: cfg.SMTP.RatePerSec,
			Logger:     logger.Named("mail"),
		})
		if err != nil {
			return nil, fmt.Errorf("smtp mailer: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// Location resolves the notifier zone, warning when it had to fall back to
// a fixed offset. A fixed offset ignores daylight saving, so reminders run an
// hour off for part of the year.
func Location(cfg config.NotifyConfig, logger *zap.Logger) *time.Location {
	loc, exact := notifyuc.LoadZone(cfg.Timezone, cfg.FallbackOffset())
	if !exact {
		logger.Warn("Time zone data unavailable, using fixed offset",
			zap.String("timezone", cfg.Timezone),
			zap.String("fallback", loc.String()),
		)
	}
	return loc
}

// NotifyConfig assembles the notifier settings.
func NotifyConfig(cfg config.Config, loc *time.Location) notifyuc.Config {
	return notifyuc.Config{
		AppName:      cfg.App.Name,
		Origin:       cfg.App.Origin,
		Sender:       cfg.Mail.Sender,
		NotifyTo:     cfg.Mail.NotifyTo,
		Admins:       cfg.Mail.Admins,
		Location:     loc,
		SkipDisabled: cfg.Notify.SkipDisabled,
	}
}
