package record

import (
	"strings"
)

// Record is one stored entity. Only the fields listed in FieldsFor(Key.Kind)
// are meaningful for a given kind; the rest stay empty.
type Record struct {
	Key Key

	// Person
	Category    string
	SendCard    bool
	Title       string
	MailingName string
	FirstName   string
	LastName    string
	CompanyName string

	// Address
	AddressType   string
	AddressLine1  string
	AddressLine2  string
	City          string
	StateProvince string
	PostalCode    string
	Country       string
	Directions    string

	// Contact
	ContactMethod string
	ContactType   string
	ContactText   string

	// Calendar
	FirstOccurrence Date
	Frequency       string
	Occasion        string

	// Common
	Comments string
	Enabled  bool
	Words    []string
}

// New returns a record for key with every field at its declared default.
func New(key Key) *Record {
	r := &Record{Key: key}
	for _, f := range FieldsFor(key.Kind) {
		f.applyDefault(r)
	}
	return r
}

// DisplayName joins the populated name parts of a Person.
func (r *Record) DisplayName() string {
	var b strings.Builder
	if r.MailingName != "" {
		b.WriteString("[" + r.MailingName + "] ")
	}
	for _, part := range []string{r.CompanyName, r.Title, r.FirstName, r.LastName} {
		if part != "" {
			b.WriteString(part + " ")
		}
	}
	return strings.TrimSpace(b.String())
}

// Snippet renders an Address on one line, skipping empty parts.
func (r *Record) Snippet() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{r.AddressLine1, r.AddressLine2, r.City, r.StateProvince, r.PostalCode, r.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " / ")
}

// FixYear rewrites a placeholder 1600 Calendar year to 1900. Reports whether anything changed.
func (r *Record) FixYear() bool {
	if r.Key.Kind != KindCalendar || r.FirstOccurrence.Year != PlaceholderYear {
		return false
	}
	r.FirstOccurrence.Year = ReplacementYear
	return true
}
