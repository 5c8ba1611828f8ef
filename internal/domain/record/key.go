package record

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/pda/internal/domain"
)

// Key identifies a record. Child keys carry the owning Person's ID.
//
// String form: "Person:12" for a Person, "Person:12/Address:7" for a child.
type Key struct {
	Kind  Kind
	ID    int64
	Owner int64 // owning Person ID, zero for Person keys
}

// PersonKey builds a Person key.
func PersonKey(id int64) Key {
	return Key{Kind: KindPerson, ID: id}
}

// ChildKey builds a child key owned by the given Person.
func ChildKey(kind Kind, owner, id int64) Key {
	return Key{Kind: kind, ID: id, Owner: owner}
}

// Person returns the key of the owning Person (itself for a Person).
func (k Key) Person() Key {
	if k.Kind == KindPerson {
		return k
	}
	return PersonKey(k.Owner)
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// Incomplete reports whether the key has no ID allocated yet.
func (k Key) Incomplete() bool {
	return k.ID == 0
}

// Validate checks kind and owner consistency. Incomplete keys are allowed.
func (k Key) Validate() error {
	if !k.Kind.IsValid() {
		return fmt.Errorf("unknown kind %q: %w", k.Kind, domain.ErrInvalidKey)
	}
	if k.ID < 0 {
		return fmt.Errorf("negative id %d: %w", k.ID, domain.ErrInvalidKey)
	}
	if k.Kind == KindPerson && k.Owner != 0 {
		return fmt.Errorf("person key cannot have an owner: %w", domain.ErrInvalidKey)
	}
	if k.Kind.IsChild() && k.Owner <= 0 {
		return fmt.Errorf("%s key requires an owning person: %w", k.Kind, domain.ErrInvalidKey)
	}
	return nil
}

// String encodes the key.
func (k Key) String() string {
	self := string(k.Kind) + ":" + strconv.FormatInt(k.ID, 10)
	if k.Kind == KindPerson {
		return self
	}
	return string(KindPerson) + ":" + strconv.FormatInt(k.Owner, 10) + "/" + self
}

// Less orders keys by kind name, then owner ID, then ID.
func (k Key) Less(o Key) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	if k.Owner != o.Owner {
		return k.Owner < o.Owner
	}
	return k.ID < o.ID
}

// Compare returns -1, 0 or 1 following Less.
func (k Key) Compare(o Key) int {
	switch {
	case k.Less(o):
		return -1
	case o.Less(k):
		return 1
	default:
		return 0
	}
}

// ParseKey decodes a complete key from its string form.
func ParseKey(s string) (Key, error) {
	ownerPart, selfPart, hasOwner := strings.Cut(s, "/")
	if !hasOwner {
		selfPart = ownerPart
	}

	kind, id, err := parseSegment(selfPart)
	if err != nil {
		return Key{}, fmt.Errorf("parse key %q: %w", s, err)
	}

	k := Key{Kind: kind, ID: id}
	if hasOwner {
		ownerKind, ownerID, err := parseSegment(ownerPart)
		if err != nil {
			return Key{}, fmt.Errorf("parse key %q: %w", s, err)
		}
		if ownerKind != KindPerson {
			return Key{}, fmt.Errorf("parse key %q: owner must be a person: %w", s, domain.ErrInvalidKey)
		}
		k.Owner = ownerID
	}

	if err := k.Validate(); err != nil {
		return Key{}, fmt.Errorf("parse key %q: %w", s, err)
	}
	if k.Incomplete() {
		return Key{}, fmt.Errorf("parse key %q: id is required: %w", s, domain.ErrInvalidKey)
	}
	return k, nil
}

func parseSegment(seg string) (Kind, int64, error) {
	name, idStr, ok := strings.Cut(seg, ":")
	if !ok {
		return "", 0, fmt.Errorf("segment %q: %w", seg, domain.ErrInvalidKey)
	}
	kind, err := ParseKind(name)
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("segment %q: bad id: %w", seg, domain.ErrInvalidKey)
	}
	return kind, id, nil
}

// ViewURL returns the absolute link to the view page of k under origin.
func (k Key) ViewURL(origin string) string {
	return origin + "/?action=view&key=" + url.QueryEscape(k.String())
}
