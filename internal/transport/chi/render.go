package chi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
	recorduc "github.com/kailas-cloud/pda/internal/usecase/record"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Chrome is the header shared by every page.
type Chrome struct {
	App   string
	Query string
}

type searchPage struct {
	Chrome
	NoQuery bool
	Counts  []tokenRow
	Persons []recordBlock
}

type tokenRow struct {
	Token      string
	Candidates int
}

type viewPage struct {
	Chrome
	Warnings []string
	Person   recordBlock
	Groups   []groupBlock
}

type groupBlock struct {
	Kind      string
	CreateURL string
	Records   []recordBlock
}

type recordBlock struct {
	Key      string
	Kind     string
	Summary  string
	Comments string
	Disabled bool
	ViewURL  string
	EditURL  string
}

type editPage struct {
	Chrome
	Key    string
	Kind   string
	Parent string
	Rows   []formRow
}

// formRow is one rendered form control. Tag is the field kind name and picks
// the control; an unrecognized tag renders a visible marker instead.
type formRow struct {
	Name    string
	Label   string
	Tag     string
	Value   string
	Hint    string
	Checked bool
	Choices []option
}

type option struct {
	Value    string
	Selected bool
}

type logPage struct {
	Chrome
	Title string
	Log   string
}

type errorPage struct {
	Status  int
	Text    string
	Message string
}

func (s *Server) chrome(query string) Chrome {
	return Chrome{App: s.opts.AppName, Query: query}
}

// render executes the named page into a buffer first so a template failure
// never leaves a half-written response.
func render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeErrorPage(w http.ResponseWriter, status int, msg string) {
	render(w, status, "error.html", errorPage{
		Status:  status,
		Text:    http.StatusText(status),
		Message: msg,
	})
}

func rootURL(params ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(params); i += 2 {
		v.Set(params[i], params[i+1])
	}
	return "/?" + v.Encode()
}

func block(r *domrec.Record) recordBlock {
	key := r.Key.String()
	return recordBlock{
		Key:      key,
		Kind:     string(r.Key.Kind),
		Summary:  summary(r),
		Comments: r.Comments,
		Disabled: !r.Enabled,
		ViewURL:  rootURL("action", "view", "key", key),
		EditURL:  rootURL("action", "edit", "key", key),
	}
}

func summary(r *domrec.Record) string {
	var s string
	switch r.Key.Kind {
	case domrec.KindPerson:
		s = r.DisplayName()
	case domrec.KindAddress:
		s = joinSet(r.AddressType, r.Snippet())
	case domrec.KindContact:
		s = joinSet(r.ContactType, r.ContactText)
	case domrec.KindCalendar:
		s = joinSet(r.FirstOccurrence.String(), r.Occasion)
	}
	if s == "" {
		return r.Key.String()
	}
	return s
}

// joinSet joins the non-empty parts, dropping unspecified choice values.
func joinSet(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" && p != domrec.Categories[0] {
			out = append(out, p)
		}
	}
	return strings.Join(out, ": ")
}

func (s *Server) view(v recorduc.View, warnings []string) viewPage {
	page := viewPage{
		Chrome:   s.chrome(""),
		Warnings: warnings,
		Person:   block(v.Person),
		Groups:   make([]groupBlock, 0, len(v.Groups)),
	}
	for _, g := range v.Groups {
		gb := groupBlock{
			Kind:      string(g.Kind),
			CreateURL: rootURL("action", "create", "kind", string(g.Kind), "parent", v.Person.Key.String()),
		}
		for _, r := range g.Records {
			gb.Records = append(gb.Records, block(r))
		}
		page.Groups = append(page.Groups, gb)
	}
	return page
}

func (s *Server) edit(r *domrec.Record) editPage {
	page := editPage{Chrome: s.chrome(""), Kind: string(r.Key.Kind)}
	if !r.Key.Incomplete() {
		page.Key = r.Key.String()
	}
	if r.Key.Kind.IsChild() {
		page.Parent = r.Key.Person().String()
	}
	for _, f := range domrec.FieldsFor(r.Key.Kind) {
		if f.Kind == domrec.FieldWordIndex && !s.opts.ShowInternal {
			continue
		}
		page.Rows = append(page.Rows, formRowFor(f, r))
	}
	return page
}

func formRowFor(f domrec.Field, r *domrec.Record) formRow {
	row := formRow{Name: f.Name, Label: f.Label, Tag: f.Kind.String(), Hint: f.Hint}
	switch f.Kind {
	case domrec.FieldBool:
		row.Checked = f.Flag != nil && *f.Flag(r)
	case domrec.FieldWordIndex:
		row.Value = strings.Join(r.Words, " ")
	case domrec.FieldChoice:
		row.Value = f.Value(r)
		for _, c := range f.Choices {
			row.Choices = append(row.Choices, option{Value: c, Selected: c == row.Value})
		}
		// keep a stored value that is no longer offered
		if row.Value != "" && !f.IsKnownChoice(row.Value) {
			row.Choices = append(row.Choices, option{Value: row.Value, Selected: true})
		}
	default:
		row.Value = f.Value(r)
	}
	return row
}
