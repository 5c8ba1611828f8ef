package chi

import (
	"fmt"
	"net/http"

	"github.com/kailas-cloud/pda/internal/domain"
	recorduc "github.com/kailas-cloud/pda/internal/usecase/record"
)

// Root handles GET /: the search page, or a record page selected by action.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	switch action := q.Get("action"); action {
	case "":
		s.searchResults(w, r, q.Get("q"))
	case "view":
		v, err := s.records.View(ctx, q.Get("key"))
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		render(w, http.StatusOK, "view.html", s.view(v, nil))
	case "edit":
		rec, err := s.records.Get(ctx, q.Get("key"))
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		render(w, http.StatusOK, "edit.html", s.edit(rec))
	case "create":
		rec, err := s.records.Draft(ctx, q.Get("kind"), q.Get("parent"))
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		render(w, http.StatusOK, "edit.html", s.edit(rec))
	default:
		s.handleDomainError(w, fmt.Errorf("unknown action %q: %w", action, domain.ErrInvalidInput))
	}
}

// Submit handles POST /: saves an edit form and shows the owning Person.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.handleDomainError(w, fmt.Errorf("parse form: %w: %w", domain.ErrInvalidInput, err))
		return
	}
	if action := r.PostForm.Get("action"); action != "edit" {
		s.handleDomainError(w, fmt.Errorf("unknown action %q: %w", action, domain.ErrInvalidInput))
		return
	}

	saved, err := s.records.Save(r.Context(), recorduc.Submission{
		Key:    r.PostForm.Get("key"),
		Kind:   r.PostForm.Get("kind"),
		Parent: r.PostForm.Get("parent"),
		Get:    r.PostForm.Get,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	v, err := s.records.View(r.Context(), saved.Record.Key.String())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	render(w, http.StatusOK, "view.html", s.view(v, saved.Warnings))
}

func (s *Server) searchResults(w http.ResponseWriter, r *http.Request, query string) {
	page := searchPage{Chrome: s.chrome(query)}

	res, err := s.search.Search(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if len(res.Tokens) == 0 {
		page.NoQuery = true
		render(w, http.StatusOK, "search.html", page)
		return
	}

	for _, c := range res.Counts {
		page.Counts = append(page.Counts, tokenRow{Token: c.Token, Candidates: c.Candidates})
	}
	for _, p := range res.Persons {
		page.Persons = append(page.Persons, block(p))
	}
	render(w, http.StatusOK, "search.html", page)
}
