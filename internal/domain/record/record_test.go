package record

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/pda/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	p := New(PersonKey(0))
	if !p.Enabled {
		t.Error("Enabled should default to true")
	}
	if p.SendCard {
		t.Error("SendCard should default to false")
	}
	if p.Category != "(Unspecified)" {
		t.Errorf("Category = %q", p.Category)
	}

	c := New(ChildKey(KindCalendar, 1, 0))
	if c.Frequency != "Annual" {
		t.Errorf("Frequency = %q, want Annual", c.Frequency)
	}
}

func TestDisplayName(t *testing.T) {
	p := &Record{MailingName: "The Smiths", Title: "Dr.", FirstName: "Ann", LastName: "Smith"}
	if got := p.DisplayName(); got != "[The Smiths] Dr. Ann Smith" {
		t.Errorf("DisplayName() = %q", got)
	}
	if got := (&Record{CompanyName: "Acme"}).DisplayName(); got != "Acme" {
		t.Errorf("DisplayName() = %q", got)
	}
}

func TestSnippet_SkipsEmpty(t *testing.T) {
	a := &Record{AddressLine1: "1 Main St", City: "Springfield", Country: "USA"}
	if got := a.Snippet(); got != "1 Main St / Springfield / USA" {
		t.Errorf("Snippet() = %q", got)
	}
}

func TestFixYear(t *testing.T) {
	c := New(ChildKey(KindCalendar, 1, 2))
	c.FirstOccurrence = NewDate(1600, time.March, 14)
	c.Occasion = "Birthday"

	if !c.FixYear() {
		t.Fatal("expected change")
	}
	if c.FirstOccurrence != NewDate(1900, time.March, 14) {
		t.Errorf("FirstOccurrence = %v", c.FirstOccurrence)
	}
	if c.Occasion != "Birthday" {
		t.Error("other fields must not change")
	}
	if c.FixYear() {
		t.Error("second FixYear should be a no-op")
	}
}

func TestFixYear_OnlyCalendars(t *testing.T) {
	p := New(PersonKey(1))
	p.FirstOccurrence = NewDate(1600, time.January, 1)
	if p.FixYear() {
		t.Error("FixYear must ignore non-calendar records")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"1955-03-14", NewDate(1955, time.March, 14)},
		{"03/14/55", NewDate(2055, time.March, 14)},
		{"3/4/80", NewDate(1980, time.March, 4)},
		{"1600-03-14", NewDate(1600, time.March, 14)},
		{"", Date{}},
		{"  ", Date{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if err != nil {
				t.Fatalf("ParseDate: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseDate("March 14"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDate_SameDay(t *testing.T) {
	a := NewDate(1955, time.March, 14)
	if !a.SameDay(NewDate(2026, time.March, 14)) {
		t.Error("same month/day should match regardless of year")
	}
	if a.SameDay(NewDate(1955, time.March, 15)) {
		t.Error("different day must not match")
	}
	if (Date{}).SameDay(Date{}) {
		t.Error("unset date never matches")
	}
}

func TestApplyForm(t *testing.T) {
	r := New(ChildKey(KindCalendar, 1, 0))
	values := map[string]string{
		"first_occurrence": "1980-07-04",
		"occasion":         "Anniversary",
		"comments":         "bring cake",
		"enabled":          "",
	}

	warnings, err := ApplyForm(r, FieldsFor(KindCalendar), func(n string) string { return values[n] })
	if err != nil {
		t.Fatalf("ApplyForm: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if r.FirstOccurrence != NewDate(1980, time.July, 4) {
		t.Errorf("FirstOccurrence = %v", r.FirstOccurrence)
	}
	if r.Enabled {
		t.Error("unchecked box should clear Enabled")
	}
	if r.Frequency != "Annual" {
		t.Errorf("missing choice should fall back to default, got %q", r.Frequency)
	}
}

func TestApplyForm_BadDate(t *testing.T) {
	r := New(ChildKey(KindCalendar, 1, 0))
	_, err := ApplyForm(r, FieldsFor(KindCalendar), func(n string) string {
		if n == "first_occurrence" {
			return "not a date"
		}
		return ""
	})
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "first_occurrence" {
		t.Fatalf("expected FieldError for first_occurrence, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Error("FieldError should unwrap to ErrInvalidInput")
	}
}

func TestApplyForm_UnknownKindWarns(t *testing.T) {
	fields := []Field{
		text("title", "Title", func(r *Record) *string { return &r.Title }),
		{Name: "mystery", Label: "Mystery", Kind: FieldKind(99)},
	}
	r := New(PersonKey(0))
	warnings, err := ApplyForm(r, fields, func(n string) string { return "x" })
	if err != nil {
		t.Fatalf("ApplyForm: %v", err)
	}
	if r.Title != "x" {
		t.Error("known fields must still apply")
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Unknown field type") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestFieldsFor_ChoiceFieldsNeverFreeText(t *testing.T) {
	for _, kind := range Kinds {
		fields := FieldsFor(kind)
		if len(fields) == 0 {
			t.Fatalf("no fields for %s", kind)
		}
		for _, f := range fields {
			if f.Kind == FieldChoice && f.Kind.IsFreeText() {
				t.Errorf("%s.%s: choice must not be indexed", kind, f.Name)
			}
		}
	}
}
