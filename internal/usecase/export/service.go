// Package export renders the address book as vCard and iCalendar feeds.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// Repository loads records by kind and by owner.
type Repository interface {
	All(ctx context.Context, kind domrec.Kind) ([]*domrec.Record, error)
	Children(ctx context.Context, person domrec.Key) ([]*domrec.Record, error)
}

// Service writes export feeds.
type Service struct {
	repo    Repository
	appName string
	origin  string
}

// New creates an export service. appName scopes UIDs, origin prefixes record links.
func New(repo Repository, appName, origin string) *Service {
	return &Service{repo: repo, appName: appName, origin: origin}
}

// VCards writes one vCard 4.0 per enabled Person with its enabled children.
func (s *Service) VCards(ctx context.Context, w io.Writer) (int, error) {
	persons, err := s.repo.All(ctx, domrec.KindPerson)
	if err != nil {
		return 0, fmt.Errorf("list persons: %w", err)
	}

	enc := vcard.NewEncoder(w)
	n := 0
	for _, p := range persons {
		if !p.Enabled {
			continue
		}
		children, err := s.repo.Children(ctx, p.Key)
		if err != nil {
			return n, fmt.Errorf("children of %s: %w", p.Key, err)
		}
		card := s.card(p, children)
		if err := enc.Encode(card); err != nil {
			return n, fmt.Errorf("encode %s: %w", p.Key, err)
		}
		n++
	}
	return n, nil
}

func (s *Service) card(p *domrec.Record, children []*domrec.Record) vcard.Card {
	card := make(vcard.Card)
	card.SetValue(vcard.FieldUID, s.uid(p.Key))

	name := strings.Join(nonEmpty(p.Title, p.FirstName, p.LastName), " ")
	for _, alt := range []string{p.CompanyName, p.MailingName, p.Key.String()} {
		if name != "" {
			break
		}
		name = alt
	}
	card.SetValue(vcard.FieldFormattedName, name)
	card.SetName(&vcard.Name{
		FamilyName:      p.LastName,
		GivenName:       p.FirstName,
		HonorificPrefix: p.Title,
	})
	if p.CompanyName != "" {
		card.SetValue(vcard.FieldOrganization, p.CompanyName)
	}
	if p.Category != "" && p.Category != domrec.Categories[0] {
		card.SetValue(vcard.FieldCategories, p.Category)
	}
	if p.Comments != "" {
		card.SetValue(vcard.FieldNote, p.Comments)
	}
	card.SetValue(vcard.FieldURL, p.Key.ViewURL(s.origin))

	for _, c := range children {
		if !c.Enabled {
			continue
		}
		switch c.Key.Kind {
		case domrec.KindAddress:
			card.AddAddress(&vcard.Address{
				Field:           &vcard.Field{Params: typeParams(addressType(c.AddressType))},
				StreetAddress:   c.AddressLine1,
				ExtendedAddress: c.AddressLine2,
				Locality:        c.City,
				Region:          c.StateProvince,
				PostalCode:      c.PostalCode,
				Country:         c.Country,
			})
		case domrec.KindContact:
			if c.ContactText != "" {
				field, typ := contactField(c)
				card.Add(field, &vcard.Field{Value: c.ContactText, Params: typeParams(typ)})
			}
		case domrec.KindCalendar:
			if isBirthday(c) && card.Value(vcard.FieldBirthday) == "" {
				card.SetValue(vcard.FieldBirthday, birthday(c.FirstOccurrence))
			}
		}
	}

	vcard.ToV4(card)
	return card
}

// Calendar writes every Calendar record as a yearly all-day VEVENT.
func (s *Service) Calendar(ctx context.Context, w io.Writer, now time.Time) (int, error) {
	events, err := s.repo.All(ctx, domrec.KindCalendar)
	if err != nil {
		return 0, fmt.Errorf("list calendars: %w", err)
	}
	persons, err := s.repo.All(ctx, domrec.KindPerson)
	if err != nil {
		return 0, fmt.Errorf("list persons: %w", err)
	}
	names := make(map[domrec.Key]string, len(persons))
	for _, p := range persons {
		names[p.Key] = p.DisplayName()
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//"+s.appName+"//export//EN")
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText("X-WR-CALNAME", s.appName)

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(now.UTC())

	for _, c := range events {
		if !c.Enabled || c.FirstOccurrence.IsZero() {
			continue
		}
		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, s.uid(c.Key))
		ev.Props.Set(stamp)
		ev.Props.SetText(ical.PropSummary, strings.TrimSpace(c.Occasion+" "+names[c.Key.Person()]))
		if c.Comments != "" {
			ev.Props.SetText(ical.PropDescription, c.Comments)
		}
		ev.Props.SetText(ical.PropURL, c.Key.Person().ViewURL(s.origin))

		start := ical.NewProp(ical.PropDateTimeStart)
		d := c.FirstOccurrence
		start.SetDate(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
		ev.Props.Set(start)

		rule := ical.NewProp(ical.PropRecurrenceRule)
		rule.Value = "FREQ=YEARLY"
		ev.Props.Set(rule)

		cal.Children = append(cal.Children, ev.Component)
	}

	if len(cal.Children) == 0 {
		// an encoded VCALENDAR must hold at least one component
		_, err := fmt.Fprintf(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//%s//export//EN\r\nEND:VCALENDAR\r\n", s.appName)
		return 0, err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("encode calendar: %w", err)
	}
	return len(cal.Children), nil
}

func (s *Service) uid(k domrec.Key) string {
	return k.String() + "@" + s.appName
}

func typeParams(typ string) vcard.Params {
	if typ == "" {
		return nil
	}
	return vcard.Params{vcard.ParamType: {typ}}
}

func addressType(t string) string {
	switch t {
	case "Home":
		return vcard.TypeHome
	case "Business":
		return vcard.TypeWork
	}
	return ""
}

// contactField maps a Contact to a vCard property and TYPE parameter.
func contactField(c *domrec.Record) (field, typ string) {
	switch c.ContactMethod {
	case "Personal":
		typ = vcard.TypeHome
	case "Business":
		typ = vcard.TypeWork
	}
	switch c.ContactType {
	case "Email":
		return vcard.FieldEmail, typ
	case "URL":
		return vcard.FieldURL, typ
	case "Mobile":
		return vcard.FieldTelephone, vcard.TypeCell
	case "Facsimile":
		return vcard.FieldTelephone, vcard.TypeFax
	case "Voice":
		return vcard.FieldTelephone, typ
	}
	if strings.Contains(c.ContactText, "@") {
		return vcard.FieldEmail, typ
	}
	return vcard.FieldTelephone, typ
}

func isBirthday(c *domrec.Record) bool {
	return strings.Contains(strings.ToLower(c.Occasion), "birth")
}

// birthday formats d as a vCard 4 date, omitting a placeholder year.
func birthday(d domrec.Date) string {
	if d.Year == domrec.PlaceholderYear {
		return fmt.Sprintf("--%02d%02d", int(d.Month), d.Day)
	}
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
