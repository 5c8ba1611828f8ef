package record

import (
	"encoding/json"
	"fmt"

	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// recordDTO is the stored JSON shape. The key lives in the store key, not the body.
type recordDTO struct {
	Category    string `json:"category,omitempty"`
	SendCard    bool   `json:"send_card,omitempty"`
	Title       string `json:"title,omitempty"`
	MailingName string `json:"mailing_name,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`

	AddressType   string `json:"address_type,omitempty"`
	AddressLine1  string `json:"address_line1,omitempty"`
	AddressLine2  string `json:"address_line2,omitempty"`
	City          string `json:"city,omitempty"`
	StateProvince string `json:"state_province,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
	Directions    string `json:"directions,omitempty"`

	ContactMethod string `json:"contact_method,omitempty"`
	ContactType   string `json:"contact_type,omitempty"`
	ContactText   string `json:"contact_text,omitempty"`

	FirstOccurrence domrec.Date `json:"first_occurrence"`
	Frequency       string      `json:"frequency,omitempty"`
	Occasion        string      `json:"occasion,omitempty"`

	Comments string   `json:"comments,omitempty"`
	Enabled  bool     `json:"enabled"`
	Words    []string `json:"words,omitempty"`
}

func encodeRecord(r *domrec.Record) ([]byte, error) {
	dto := recordDTO{
		Category:        r.Category,
		SendCard:        r.SendCard,
		Title:           r.Title,
		MailingName:     r.MailingName,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		CompanyName:     r.CompanyName,
		AddressType:     r.AddressType,
		AddressLine1:    r.AddressLine1,
		AddressLine2:    r.AddressLine2,
		City:            r.City,
		StateProvince:   r.StateProvince,
		PostalCode:      r.PostalCode,
		Country:         r.Country,
		Directions:      r.Directions,
		ContactMethod:   r.ContactMethod,
		ContactType:     r.ContactType,
		ContactText:     r.ContactText,
		FirstOccurrence: r.FirstOccurrence,
		Frequency:       r.Frequency,
		Occasion:        r.Occasion,
		Comments:        r.Comments,
		Enabled:         r.Enabled,
		Words:           r.Words,
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", r.Key, err)
	}
	return data, nil
}

func decodeRecord(key domrec.Key, data []byte) (*domrec.Record, error) {
	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return &domrec.Record{
		Key:             key,
		Category:        dto.Category,
		SendCard:        dto.SendCard,
		Title:           dto.Title,
		MailingName:     dto.MailingName,
		FirstName:       dto.FirstName,
		LastName:        dto.LastName,
		CompanyName:     dto.CompanyName,
		AddressType:     dto.AddressType,
		AddressLine1:    dto.AddressLine1,
		AddressLine2:    dto.AddressLine2,
		City:            dto.City,
		StateProvince:   dto.StateProvince,
		PostalCode:      dto.PostalCode,
		Country:         dto.Country,
		Directions:      dto.Directions,
		ContactMethod:   dto.ContactMethod,
		ContactType:     dto.ContactType,
		ContactText:     dto.ContactText,
		FirstOccurrence: dto.FirstOccurrence,
		Frequency:       dto.Frequency,
		Occasion:        dto.Occasion,
		Comments:        dto.Comments,
		Enabled:         dto.Enabled,
		Words:           dto.Words,
	}, nil
}
