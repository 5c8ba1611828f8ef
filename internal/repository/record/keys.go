package record

import (
	domrec "github.com/kailas-cloud/pda/internal/domain/record"
)

const lexiconKey = "words"

func (r *Repo) recordKey(k domrec.Key) string        { return r.prefix + "rec:" + k.String() }
func (r *Repo) kindKey(kind domrec.Kind) string      { return r.prefix + "kind:" + string(kind) }
func (r *Repo) childrenKey(person domrec.Key) string { return r.prefix + "children:" + person.String() }
func (r *Repo) postingsKey(word string) string       { return r.prefix + "word:" + word }
func (r *Repo) lexicon() string                      { return r.prefix + lexiconKey }
func (r *Repo) sequence() string                     { return r.prefix + "seq" }

// prefixRange returns ZRANGEBYLEX bounds covering every member that starts with p.
func prefixRange(p string) (minBound, maxBound string) {
	minBound = "[" + p
	b := []byte(p)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return minBound, "(" + string(b[:i+1])
		}
	}
	return minBound, "+"
}
