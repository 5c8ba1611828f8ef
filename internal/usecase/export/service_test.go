package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"

	"github.com/kailas-cloud/pda/internal/db/memory"
	domrec "github.com/kailas-cloud/pda/internal/domain/record"
	reporec "github.com/kailas-cloud/pda/internal/repository/record"
)

func seed(t *testing.T) (*Service, *domrec.Record) {
	t.Helper()
	repo := reporec.New(memory.New(), "pda:")
	ctx := context.Background()
	save := func(r *domrec.Record) *domrec.Record {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("Save %s: %v", r.Key.Kind, err)
		}
		return r
	}

	ann := domrec.New(domrec.PersonKey(0))
	ann.FirstName, ann.LastName, ann.Category = "Ann", "Smith", "Relatives"
	save(ann)

	addr := domrec.New(domrec.ChildKey(domrec.KindAddress, ann.Key.ID, 0))
	addr.AddressType, addr.AddressLine1, addr.City, addr.Country = "Home", "1 Main St", "Boston", "USA"
	save(addr)

	mailc := domrec.New(domrec.ChildKey(domrec.KindContact, ann.Key.ID, 0))
	mailc.ContactType, mailc.ContactMethod, mailc.ContactText = "Email", "Personal", "ann@example.org"
	save(mailc)

	bday := domrec.New(domrec.ChildKey(domrec.KindCalendar, ann.Key.ID, 0))
	bday.FirstOccurrence, bday.Occasion = domrec.NewDate(1955, time.March, 14), "Birthday"
	save(bday)

	off := domrec.New(domrec.ChildKey(domrec.KindCalendar, ann.Key.ID, 0))
	off.FirstOccurrence, off.Occasion, off.Enabled = domrec.NewDate(1980, time.July, 4), "Hidden", false
	save(off)

	gone := domrec.New(domrec.PersonKey(0))
	gone.FirstName, gone.Enabled = "Gone", false
	save(gone)

	return New(repo, "pda", "https://pda.example.com"), ann
}

func TestVCards(t *testing.T) {
	svc, ann := seed(t)

	var buf bytes.Buffer
	n, err := svc.VCards(context.Background(), &buf)
	if err != nil {
		t.Fatalf("VCards: %v", err)
	}
	if n != 1 {
		t.Fatalf("wrote %d cards, want 1", n)
	}

	dec := vcard.NewDecoder(&buf)
	card, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := dec.Decode(); !errors.Is(err, io.EOF) {
		t.Errorf("expected a single card, got err=%v", err)
	}

	if got := card.PreferredValue(vcard.FieldFormattedName); got != "Ann Smith" {
		t.Errorf("FN = %q", got)
	}
	if got := card.Value(vcard.FieldUID); got != ann.Key.String()+"@pda" {
		t.Errorf("UID = %q", got)
	}
	if got := card.Value(vcard.FieldEmail); got != "ann@example.org" {
		t.Errorf("EMAIL = %q", got)
	}
	if got := card.Value(vcard.FieldBirthday); got != "19550314" {
		t.Errorf("BDAY = %q", got)
	}
	if got := card.Value(vcard.FieldCategories); got != "Relatives" {
		t.Errorf("CATEGORIES = %q", got)
	}
	addrs := card.Addresses()
	if len(addrs) != 1 || addrs[0].Locality != "Boston" || addrs[0].StreetAddress != "1 Main St" {
		t.Errorf("addresses = %+v", addrs)
	}
}

func TestCalendar(t *testing.T) {
	svc, ann := seed(t)

	var buf bytes.Buffer
	n, err := svc.Calendar(context.Background(), &buf, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if n != 1 {
		t.Fatalf("wrote %d events, want 1", n)
	}

	cal, err := ical.NewDecoder(&buf).Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
	ev := events[0]
	if got, _ := ev.Props.Text(ical.PropSummary); got != "Birthday Ann Smith" {
		t.Errorf("SUMMARY = %q", got)
	}
	if got := ev.Props.Get(ical.PropRecurrenceRule); got == nil || got.Value != "FREQ=YEARLY" {
		t.Errorf("RRULE = %+v", got)
	}
	start := ev.Props.Get(ical.PropDateTimeStart)
	if start == nil || start.Value != "19550314" {
		t.Errorf("DTSTART = %+v", start)
	}
	if got, _ := ev.Props.Text(ical.PropURL); got != ann.Key.ViewURL("https://pda.example.com") {
		t.Errorf("URL = %q", got)
	}
}

func TestCalendar_EmptyIsValid(t *testing.T) {
	svc := New(reporec.New(memory.New(), "pda:"), "pda", "http://localhost")

	var buf bytes.Buffer
	n, err := svc.Calendar(context.Background(), &buf, time.Now())
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	if !strings.HasPrefix(buf.String(), "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(buf.String(), "END:VCALENDAR\r\n") {
		t.Errorf("unexpected stub:\n%s", buf.String())
	}
}

func TestBirthday_PlaceholderYear(t *testing.T) {
	if got := birthday(domrec.NewDate(1600, time.March, 14)); got != "--0314" {
		t.Errorf("birthday = %q, want --0314", got)
	}
}
