package record

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/pda/internal/domain"
	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

// Group is the children of one kind under a Person.
type Group struct {
	Kind    domrec.Kind
	Records []*domrec.Record
}

// View is a Person and everything it owns.
type View struct {
	Person *domrec.Record
	Groups []Group // one per child kind, in display order, possibly empty
}

// Saved is the outcome of a form submission.
type Saved struct {
	Record   *domrec.Record
	Warnings []string
}

// Service handles record create, view and edit.
type Service struct {
	repo Repository
}

// New creates a record service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Draft returns an unsaved record of kind with defaults applied. A child kind
// needs the key of an existing Person as parent.
func (s *Service) Draft(ctx context.Context, kind, parent string) (*domrec.Record, error) {
	k, err := domrec.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if k == domrec.KindPerson {
		return domrec.New(domrec.PersonKey(0)), nil
	}

	owner, err := s.owner(ctx, parent)
	if err != nil {
		return nil, err
	}
	return domrec.New(domrec.ChildKey(k, owner.ID, 0)), nil
}

// Get loads one record by its string key.
func (s *Service) Get(ctx context.Context, key string) (*domrec.Record, error) {
	k, err := domrec.ParseKey(key)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.Get(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// View loads the Person owning key with all of its children grouped by kind.
func (s *Service) View(ctx context.Context, key string) (View, error) {
	k, err := domrec.ParseKey(key)
	if err != nil {
		return View{}, err
	}
	person, err := s.repo.Get(ctx, k.Person())
	if err != nil {
		return View{}, fmt.Errorf("get person: %w", err)
	}
	children, err := s.repo.Children(ctx, person.Key)
	if err != nil {
		return View{}, fmt.Errorf("get children: %w", err)
	}

	v := View{Person: person, Groups: make([]Group, len(domrec.ChildKinds))}
	idx := make(map[domrec.Kind]int, len(domrec.ChildKinds))
	for i, kind := range domrec.ChildKinds {
		v.Groups[i].Kind = kind
		idx[kind] = i
	}
	for _, c := range children {
		i := idx[c.Key.Kind]
		v.Groups[i].Records = append(v.Groups[i].Records, c)
	}
	return v, nil
}

// Submission carries a posted edit form.
type Submission struct {
	Key    string // empty for a new record
	Kind   string // used when Key is empty
	Parent string // owning Person key for a new child
	Get    func(name string) string
}

// Save applies a submitted form and persists the record. The word index is
// recomputed by the repository.
func (s *Service) Save(ctx context.Context, sub Submission) (Saved, error) {
	var (
		rec *domrec.Record
		err error
	)
	if sub.Key == "" {
		rec, err = s.Draft(ctx, sub.Kind, sub.Parent)
	} else {
		rec, err = s.Get(ctx, sub.Key)
	}
	if err != nil {
		return Saved{}, err
	}

	warnings, err := domrec.ApplyForm(rec, domrec.FieldsFor(rec.Key.Kind), sub.Get)
	if err != nil {
		return Saved{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return Saved{}, fmt.Errorf("save record: %w", err)
	}
	return Saved{Record: rec, Warnings: warnings}, nil
}

func (s *Service) owner(ctx context.Context, parent string) (domrec.Key, error) {
	if parent == "" {
		return domrec.Key{}, fmt.Errorf("missing parent: %w", domain.ErrInvalidKey)
	}
	k, err := domrec.ParseKey(parent)
	if err != nil {
		return domrec.Key{}, err
	}
	if k.Kind != domrec.KindPerson {
		return domrec.Key{}, fmt.Errorf("parent %s is not a person: %w", k, domain.ErrInvalidKey)
	}
	if _, err := s.repo.Get(ctx, k); err != nil {
		return domrec.Key{}, fmt.Errorf("get parent: %w", err)
	}
	return k, nil
}
