package main

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pda/internal/db/memory"
	"github.com/kailas-cloud/pda/internal/domain/mail"
	domrec "github.com/kailas-cloud/pda/internal/domain/record"
	reporec "github.com/kailas-cloud/pda/internal/repository/record"
	exportuc "github.com/kailas-cloud/pda/internal/usecase/export"
	fixuc "github.com/kailas-cloud/pda/internal/usecase/fix"
	mailmergeuc "github.com/kailas-cloud/pda/internal/usecase/mailmerge"
	notifyuc "github.com/kailas-cloud/pda/internal/usecase/notify"
)

type mockQueue struct {
	paths []string
}

func (m *mockQueue) Enqueue(_ context.Context, path string, _ url.Values) error {
	m.paths = append(m.paths, path)
	return nil
}

type mockSender struct {
	sent []mail.Message
}

func (m *mockSender) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	repo   *reporec.Repo
	queue  *mockQueue
	sender *mockSender
	deps   deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   reporec.New(memory.New(), "pda:"),
		queue:  &mockQueue{},
		sender: &mockSender{},
	}
	logger := zap.NewNop()
	f.deps = deps{
		notify: notifyuc.New(f.repo, f.queue, f.sender, notifyuc.Config{
			AppName: "pda",
			Origin:  "https://pda.example.com",
			Sender:  "pda@example.com",
			Admins:  []string{"admin@example.com"},
		}, logger),
		fix:       fixuc.New(f.repo, f.queue, fixuc.DefaultPageSize, logger),
		export:    exportuc.New(f.repo, "pda", "https://pda.example.com"),
		mailmerge: mailmergeuc.New(f.repo),
		queue:     f.queue,
		now:       func() time.Time { return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC) },
		logger:    logger,
	}
	return f
}

func (f *fixture) run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = dispatch(context.Background(), f.deps, args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func (f *fixture) seed(t *testing.T) (*domrec.Record, *domrec.Record) {
	t.Helper()
	ctx := context.Background()
	p := domrec.New(domrec.PersonKey(0))
	p.FirstName, p.LastName, p.SendCard = "Ann", "Smith", true
	if err := f.repo.Save(ctx, p); err != nil {
		t.Fatalf("Save person: %v", err)
	}
	c := domrec.New(domrec.ChildKey(domrec.KindCalendar, p.Key.ID, 0))
	c.FirstOccurrence = domrec.NewDate(domrec.PlaceholderYear, time.March, 14)
	c.Occasion = "Birthday"
	if err := f.repo.Save(ctx, c); err != nil {
		t.Fatalf("Save calendar: %v", err)
	}
	return p, c
}

func TestNotify_RunsInline(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	code, out, errOut := f.run(t, "notify")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Done") {
		t.Errorf("log missing Done:\n%s", out)
	}
	if len(f.queue.paths) != 1 || f.queue.paths[0] != notifyuc.PathMail {
		t.Errorf("enqueued %v, want one reminder", f.queue.paths)
	}
	if len(f.sender.sent) != 1 {
		t.Errorf("sent %d summaries, want 1", len(f.sender.sent))
	}
}

func TestNotify_Enqueue(t *testing.T) {
	f := newFixture(t)

	code, _, errOut := f.run(t, "notify", "--enqueue")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if len(f.queue.paths) != 1 || f.queue.paths[0] != notifyuc.PathNotify {
		t.Errorf("enqueued %v, want %s", f.queue.paths, notifyuc.PathNotify)
	}
	if len(f.sender.sent) != 0 {
		t.Error("enqueue must not run the notifier")
	}
}

func TestFixRecord(t *testing.T) {
	f := newFixture(t)
	_, cal := f.seed(t)

	code, out, errOut := f.run(t, "fix-record", cal.Key.String())
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "year=true") {
		t.Errorf("output = %q", out)
	}

	code, _, _ = f.run(t, "fix-record")
	if code != 1 {
		t.Errorf("missing key: exit %d, want 1", code)
	}
}

func TestFixAll_EnqueuesPerRecord(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	code, _, errOut := f.run(t, "fix-all")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if len(f.queue.paths) != 2 {
		t.Errorf("enqueued %d tasks, want 2", len(f.queue.paths))
	}
}

func TestExports_ToFile(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	dir := t.TempDir()

	tests := []struct {
		cmd  string
		file string
		want string
	}{
		{"export-vcard", "contacts.vcf", "BEGIN:VCARD"},
		{"export-ical", "calendar.ics", "BEGIN:VCALENDAR"},
		{"mailmerge", "mailmerge.csv", "Ann Smith"},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.file)
		code, _, errOut := f.run(t, tt.cmd, "-o", path)
		if code != 0 {
			t.Fatalf("%s: exit %d: %s", tt.cmd, code, errOut)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("%s: read: %v", tt.cmd, err)
		}
		if !strings.Contains(string(data), tt.want) {
			t.Errorf("%s: output missing %q", tt.cmd, tt.want)
		}
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	f := newFixture(t)

	code, _, errOut := f.run(t, "explode")
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(errOut, `unknown command "explode"`) {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestCommand_Help(t *testing.T) {
	f := newFixture(t)

	code, out, _ := f.run(t, "fix-all", "--help")
	if code != 0 {
		t.Errorf("exit %d, want 0", code)
	}
	if !strings.Contains(out, "--next") {
		t.Errorf("help missing flag:\n%s", out)
	}
}
