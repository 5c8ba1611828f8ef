// Package mailmerge renders the card mailing list as CSV.
package mailmerge

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// Repository loads Persons and their children.
type Repository interface {
	All(ctx context.Context, kind domrec.Kind) ([]*domrec.Record, error)
	Children(ctx context.Context, person domrec.Key) ([]*domrec.Record, error)
}

// Header is the first CSV row.
var Header = []string{"Name", "AddressLine1", "AddressLine2", "AddressLine3", "AddressLine4"}

const (
	maxAddresses = 2
	blank        = "___________"
)

// Service builds the mail-merge list.
type Service struct {
	repo Repository
}

// New creates a mail-merge service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Write emits one row per enabled address (at most two) of every enabled
// Person marked send_card, or a placeholder row when it has none.
func (s *Service) Write(ctx context.Context, w io.Writer) error {
	persons, err := s.repo.All(ctx, domrec.KindPerson)
	if err != nil {
		return fmt.Errorf("list persons: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range persons {
		if !p.Enabled || !p.SendCard {
			continue
		}
		rows, err := s.rows(ctx, p)
		if err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write %s: %w", p.Key, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func (s *Service) rows(ctx context.Context, p *domrec.Record) ([][]string, error) {
	name := p.MailingName
	if name == "" {
		name = p.DisplayName()
	}

	children, err := s.repo.Children(ctx, p.Key)
	if err != nil {
		return nil, fmt.Errorf("children of %s: %w", p.Key, err)
	}

	var rows [][]string
	for _, a := range children {
		if a.Key.Kind != domrec.KindAddress || !a.Enabled {
			continue
		}
		rows = append(rows, []string{name, a.AddressLine1, a.AddressLine2, Line3(a), a.Country})
		if len(rows) == maxAddresses {
			break
		}
	}
	if len(rows) == 0 {
		rows = append(rows, []string{name, blank, blank, blank, blank})
	}
	return rows, nil
}

// Line3 formats the city line the way the address's country writes it.
// Countries without a rule use the US layout.
func Line3(a *domrec.Record) string {
	var line string
	switch a.Country {
	case "The Netherlands", "Portugal":
		line = a.PostalCode + "  " + a.City
		if a.StateProvince != "" {
			line += ", " + a.StateProvince
		}
	case "Canada":
		line = a.City + " " + a.StateProvince + "  " + a.PostalCode
	default:
		line = a.City + ", " + a.StateProvince + " " + a.PostalCode
	}
	return strings.TrimSpace(line)
}
