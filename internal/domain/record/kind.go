package record

import (
	"fmt"

	"github.com/kailas-cloud/pda/internal/domain"
)

// Kind names one of the four record kinds.
type Kind string

// Record kinds. Person is the only root kind.
const (
	KindPerson   Kind = "Person"
	KindAddress  Kind = "Address"
	KindContact  Kind = "Contact"
	KindCalendar Kind = "Calendar"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindPerson, KindAddress, KindContact, KindCalendar}

// ChildKinds lists the kinds owned by a Person.
var ChildKinds = []Kind{KindAddress, KindContact, KindCalendar}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindPerson, KindAddress, KindContact, KindCalendar:
		return true
	}
	return false
}

// IsChild reports whether records of this kind require an owning Person.
func (k Kind) IsChild() bool {
	return k.IsValid() && k != KindPerson
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown kind %q: %w", s, domain.ErrInvalidKey)
	}
	return k, nil
}
