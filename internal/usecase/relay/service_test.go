package relay

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	dommail "github.com/kailas-cloud/pda/internal/domain/mail"
)

type mockSender struct {
	sent []dommail.Message
}

func (m *mockSender) Send(_ context.Context, msg dommail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

const multipart = "From: Ann <ann@example.org>\r\n" +
	"To: pda@example.com\r\n" +
	"Cc: bob@example.org\r\n" +
	"Date: Thu, 14 Mar 2024 09:00:00 +0000\r\n" +
	"Subject: Dinner\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"See you at 7.\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>See you at 7.</p>\r\n" +
	"--XYZ--\r\n"

func TestForward(t *testing.T) {
	sender := &mockSender{}
	svc := New(sender, "pda@example.com", []string{"me@example.com"}, zap.NewNop())

	if err := svc.Forward(context.Background(), "inbox@pda.example.com", strings.NewReader(multipart)); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	m := sender.sent[0]

	if m.Subject != "fwd: Dinner" {
		t.Errorf("subject = %q", m.Subject)
	}
	if diff := cmp.Diff([]string{"me@example.com"}, m.To); diff != "" {
		t.Errorf("recipients mismatch (-want +got):\n%s", diff)
	}
	wantTop := "-- FORWARDED MESSAGE --\nFrom: Ann <ann@example.org>\nTo: pda@example.com\nCc: bob@example.org\n" +
		"Date: Thu, 14 Mar 2024 09:00:00 +0000\nSubject: Dinner\n\n"
	if !strings.HasPrefix(m.Body, wantTop) {
		t.Errorf("plain body missing header block:\n%s", m.Body)
	}
	if !strings.Contains(m.Body, "See you at 7.") || strings.Contains(m.Body, "<p>") {
		t.Errorf("plain body = %q", m.Body)
	}
	if !strings.HasPrefix(m.HTMLBody, "-- FORWARDED MESSAGE --<br>From: Ann &lt;ann@example.org&gt;<br>") {
		t.Errorf("html header block = %q", m.HTMLBody)
	}
	if !strings.HasSuffix(strings.TrimSpace(m.HTMLBody), "<p>See you at 7.</p>") {
		t.Errorf("html body = %q", m.HTMLBody)
	}
}

func TestBuild_SinglePartWithoutSubject(t *testing.T) {
	raw := "From: ann@example.org\r\nTo: pda@example.com\r\n\r\nhello\r\n"

	m, err := Build(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Subject != "fwd: " {
		t.Errorf("subject = %q, want %q", m.Subject, "fwd: ")
	}
	if !strings.HasSuffix(m.Body, "hello\r\n") {
		t.Errorf("body = %q", m.Body)
	}
}

func TestBuild_EncodedSubject(t *testing.T) {
	raw := "From: ann@example.org\r\nSubject: =?utf-8?q?Caf=C3=A9?=\r\n\r\nhi\r\n"

	m, err := Build(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Subject != "fwd: Café" {
		t.Errorf("subject = %q", m.Subject)
	}
}
