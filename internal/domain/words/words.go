// Package words builds the normalized token index stored on every record.
package words

import (
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/pda/internal/domain/record"
)

// nonWord matches runs of anything other than letters, marks, digits and underscore.
var nonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_]+`)

// Normalize lowercases text and splits it into non-empty word tokens.
// The result keeps input order and may contain duplicates.
func Normalize(text string) []string {
	lower := cases.Lower(language.Und).String(text)
	parts := nonWord.Split(lower, -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Index returns the deduplicated, sorted tokens of every free-text field of r.
func Index(r *record.Record) []string {
	seen := make(map[string]struct{})
	for _, f := range record.FieldsFor(r.Key.Kind) {
		if !f.Kind.IsFreeText() || f.Str == nil {
			continue
		}
		for _, tok := range Normalize(*f.Str(r)) {
			seen[tok] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Update recomputes r.Words in place.
func Update(r *record.Record) {
	r.Words = Index(r)
}

// Diff returns tokens present only in next (added) and only in prev (removed).
// Both inputs must be sorted.
func Diff(prev, next []string) (added, removed []string) {
	i, j := 0, 0
	for i < len(prev) && j < len(next) {
		switch {
		case prev[i] == next[j]:
			i++
			j++
		case prev[i] < next[j]:
			removed = append(removed, prev[i])
			i++
		default:
			added = append(added, next[j])
			j++
		}
	}
	removed = append(removed, prev[i:]...)
	added = append(added, next[j:]...)
	return added, removed
}
