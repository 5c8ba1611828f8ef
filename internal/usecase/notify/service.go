package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pda/internal/domain"
	"github.com/kailas-cloud/pda/internal/domain/mail"
	domrec "github.com/kailas-cloud/pda/internal/domain/record"
	"github.com/kailas-cloud/pda/internal/metrics"
)

// Task paths handled by the notifier.
const (
	PathNotify = "/task/notify"
	PathMail   = "/task/mail"
)

const scanBatch = 30

// Config holds notifier identity and recipients.
type Config struct {
	AppName      string
	Origin       string
	Sender       string
	NotifyTo     []string
	Admins       []string
	Location     *time.Location
	SkipDisabled bool
}

// Service finds today's Calendar events and mails reminders.
type Service struct {
	repo   Repository
	queue  Enqueuer
	mail   Sender
	cfg    Config
	logger *zap.Logger
}

// New creates a notifier. A nil Location means UTC.
func New(repo Repository, queue Enqueuer, sender Sender, cfg Config, logger *zap.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{repo: repo, queue: queue, mail: sender, cfg: cfg, logger: logger}
}

// FindTodaysEvents returns every Calendar whose month and day equal today's in
// the configured zone. The year is ignored.
func (s *Service) FindTodaysEvents(ctx context.Context, now time.Time) ([]*domrec.Record, error) {
	today := domrec.DateOf(now.In(s.cfg.Location))

	keys, err := s.repo.Keys(ctx, domrec.KindCalendar)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	var found []*domrec.Record
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		recs, err := s.repo.GetMany(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("load calendars: %w", err)
		}
		for _, r := range recs {
			if !r.FirstOccurrence.SameDay(today) {
				continue
			}
			if s.cfg.SkipDisabled && !r.Enabled {
				continue
			}
			found = append(found, r)
		}
	}
	return found, nil
}

// Run enqueues one reminder task per event today and mails the run log to the
// admins. The summary is sent exactly once, also when nothing matched.
func (s *Service) Run(ctx context.Context, now time.Time) (string, error) {
	local := now.In(s.cfg.Location)

	var log strings.Builder
	fmt.Fprintf(&log, "NOW = %s\n", local.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&log, "Searching for calendar entities for %s ...\n", local.Format("01/02"))

	events, findErr := s.FindTodaysEvents(ctx, now)
	if findErr != nil {
		fmt.Fprintf(&log, "Search failed: %v\n", findErr)
	}
	for _, ev := range events {
		fmt.Fprintf(&log, "%s\n", ev.Key.ViewURL(s.cfg.Origin))
		if err := s.queue.Enqueue(ctx, PathMail, url.Values{"key": {ev.Key.String()}}); err != nil {
			fmt.Fprintf(&log, "Failed to enqueue %s: %v\n", ev.Key, err)
			s.logger.Error("Enqueue reminder failed", zap.Stringer("key", ev.Key), zap.Error(err))
		}
	}
	metrics.NotifyMatchesTotal.Add(float64(len(events)))
	log.WriteString("Done")

	text := log.String()
	s.logger.Info("Notify run", zap.Int("matches", len(events)), zap.String("log", text))

	summary := mail.Message{
		Sender:  s.cfg.Sender,
		To:      s.cfg.Admins,
		Subject: fmt.Sprintf("%s log for %s", s.cfg.AppName, PathNotify),
		Body:    text,
	}
	if err := s.send(ctx, "summary", summary); err != nil {
		return text, err
	}
	if findErr != nil {
		return text, findErr
	}
	return text, nil
}

// SendReminder mails the notification recipients about one Calendar event.
func (s *Service) SendReminder(ctx context.Context, key domrec.Key) error {
	if key.Kind != domrec.KindCalendar {
		return fmt.Errorf("reminder for %s: not a calendar: %w", key, domain.ErrInvalidKey)
	}
	cal, err := s.repo.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}
	person, err := s.repo.Get(ctx, key.Person())
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}

	event := strings.TrimSpace(fmt.Sprintf("%s %s %s", cal.FirstOccurrence, cal.Occasion, cal.Comments))
	m := mail.Message{
		Sender:  s.cfg.Sender,
		To:      s.cfg.NotifyTo,
		Subject: s.cfg.AppName + " " + event,
		Body:    fmt.Sprintf("%s\n\n%s\n", person.DisplayName(), person.Key.ViewURL(s.cfg.Origin)),
	}
	s.logger.Info("Reminder", zap.String("event", event), zap.String("person", person.DisplayName()))
	return s.send(ctx, "reminder", m)
}

func (s *Service) send(ctx context.Context, kind string, m mail.Message) error {
	if err := s.mail.Send(ctx, m); err != nil {
		metrics.MailSentTotal.WithLabelValues(kind, metrics.StatusError).Inc()
		return fmt.Errorf("send %s: %w", kind, err)
	}
	metrics.MailSentTotal.WithLabelValues(kind, metrics.StatusOK).Inc()
	return nil
}
