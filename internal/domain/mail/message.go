// Package mail holds the outbound message shape shared by senders and drivers.
package mail

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/pda/internal/domain"
)

// Message is one outbound mail.
type Message struct {
	Sender   string
	To       []string
	Subject  string
	Body     string
	HTMLBody string // optional alternative part
}

// Validate checks that the message can be handed to a driver.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Subject) == "" {
		return domain.ErrEmptySubject
	}
	if m.Sender == "" {
		return fmt.Errorf("missing sender: %w", domain.ErrInvalidInput)
	}
	if len(m.To) == 0 {
		return fmt.Errorf("no recipients: %w", domain.ErrInvalidInput)
	}
	return nil
}
