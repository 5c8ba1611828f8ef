package record

import (
	"fmt"
	"strconv"
)

// FieldKind tags how a field is rendered, parsed and indexed.
type FieldKind int

// Field kinds.
const (
	FieldText FieldKind = iota + 1
	FieldLongText
	FieldChoice
	FieldBool
	FieldDate
	FieldWordIndex
)

func (k FieldKind) String() string {
	switch k {
	case FieldText:
		return "text"
	case FieldLongText:
		return "longtext"
	case FieldChoice:
		return "choice"
	case FieldBool:
		return "bool"
	case FieldDate:
		return "date"
	case FieldWordIndex:
		return "wordindex"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// IsFreeText reports whether values of this kind feed the word index.
func (k FieldKind) IsFreeText() bool {
	return k == FieldText || k == FieldLongText
}

// Field describes one form field. Exactly one accessor matches Kind:
// Str for Text, LongText and Choice; Flag for Bool; When for Date.
type Field struct {
	Name    string
	Label   string
	Kind    FieldKind
	Choices []string
	Default string
	Hint    string

	Str  func(*Record) *string
	Flag func(*Record) *bool
	When func(*Record) *Date
}

// Value returns the field's current value formatted for a form control.
func (f Field) Value(r *Record) string {
	switch {
	case f.Str != nil:
		return *f.Str(r)
	case f.Flag != nil:
		return strconv.FormatBool(*f.Flag(r))
	case f.When != nil:
		return f.When(r).String()
	}
	return ""
}

func (f Field) applyDefault(r *Record) {
	switch {
	case f.Kind == FieldChoice && f.Str != nil:
		v := f.Default
		if v == "" && len(f.Choices) > 0 {
			v = f.Choices[0]
		}
		*f.Str(r) = v
	case f.Kind == FieldBool && f.Flag != nil:
		*f.Flag(r) = f.Default == "true"
	case f.Str != nil && f.Default != "":
		*f.Str(r) = f.Default
	}
}

// Choice lists.
var (
	Categories = []string{
		"(Unspecified)", "Relatives", "Personal", "Hospitality",
		"Freelance", "Company", "Professional",
	}
	AddressTypes   = []string{"(Unspecified)", "Home", "Business"}
	ContactMethods = []string{"(Unspecified)", "Personal", "Business"}
	ContactTypes   = []string{"(Unspecified)", "Voice", "Data", "Email", "Mobile", "URL", "Facsimile"}
	Frequencies    = []string{"Annual"}
)

func text(name, label string, get func(*Record) *string) Field {
	return Field{Name: name, Label: label, Kind: FieldText, Str: get}
}

func choice(name, label string, choices []string, get func(*Record) *string) Field {
	return Field{Name: name, Label: label, Kind: FieldChoice, Choices: choices, Str: get}
}

var personFields = []Field{
	choice("category", "Category", Categories, func(r *Record) *string { return &r.Category }),
	{Name: "send_card", Label: "Send card", Kind: FieldBool, Default: "false", Flag: func(r *Record) *bool { return &r.SendCard }},
	text("title", "Title", func(r *Record) *string { return &r.Title }),
	text("mailing_name", "Mailing name", func(r *Record) *string { return &r.MailingName }),
	text("first_name", "First name", func(r *Record) *string { return &r.FirstName }),
	text("last_name", "Last name", func(r *Record) *string { return &r.LastName }),
	text("company_name", "Company name", func(r *Record) *string { return &r.CompanyName }),
}

var addressFields = []Field{
	choice("address_type", "Address type", AddressTypes, func(r *Record) *string { return &r.AddressType }),
	text("address_line1", "Address line 1", func(r *Record) *string { return &r.AddressLine1 }),
	text("address_line2", "Address line 2", func(r *Record) *string { return &r.AddressLine2 }),
	text("city", "City", func(r *Record) *string { return &r.City }),
	text("state_province", "State/Province", func(r *Record) *string { return &r.StateProvince }),
	text("postal_code", "Postal code", func(r *Record) *string { return &r.PostalCode }),
	text("country", "Country", func(r *Record) *string { return &r.Country }),
	{Name: "directions", Label: "Directions", Kind: FieldLongText, Str: func(r *Record) *string { return &r.Directions }},
}

var contactFields = []Field{
	choice("contact_method", "Contact method", ContactMethods, func(r *Record) *string { return &r.ContactMethod }),
	choice("contact_type", "Contact type", ContactTypes, func(r *Record) *string { return &r.ContactType }),
	text("contact_text", "Contact", func(r *Record) *string { return &r.ContactText }),
}

var calendarFields = []Field{
	{Name: "first_occurrence", Label: "First occurrence", Kind: FieldDate, Hint: "YYYY-MM-DD", When: func(r *Record) *Date { return &r.FirstOccurrence }},
	choice("frequency", "Frequency", Frequencies, func(r *Record) *string { return &r.Frequency }),
	text("occasion", "Occasion", func(r *Record) *string { return &r.Occasion }),
}

var commonFields = []Field{
	{Name: "comments", Label: "Comments", Kind: FieldLongText, Str: func(r *Record) *string { return &r.Comments }},
	{Name: "enabled", Label: "Enabled", Kind: FieldBool, Default: "true", Flag: func(r *Record) *bool { return &r.Enabled }},
	{Name: "words", Label: "Words", Kind: FieldWordIndex},
}

var fieldsByKind = map[Kind][]Field{
	KindPerson:   concat(personFields, commonFields),
	KindAddress:  concat(addressFields, commonFields),
	KindContact:  concat(contactFields, commonFields),
	KindCalendar: concat(calendarFields, commonFields),
}

func concat(a, b []Field) []Field {
	out := make([]Field, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// FieldsFor returns the field table for kind, or nil for an unknown kind.
func FieldsFor(kind Kind) []Field {
	return fieldsByKind[kind]
}

// FieldError reports a single field that could not be applied.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("field %s: %v", e.Field, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }
