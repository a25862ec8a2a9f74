// Package temporal resolves which fact of an append-only log was in effect at
// a given instant.
package temporal

import (
	"iter"
	"time"
)

// Fact is a dated, sequenced record. Facts from the same log are totally
// ordered by (Date, Seq).
type Fact interface {
	FactDate() time.Time
	FactSeq() int64
}

// Normalize is the canonical storage and comparison form of fact dates.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Later reports whether a supersedes b: a later date wins, and on the same
// date the greater sequence wins.
func Later(a, b Fact) bool {
	da, db := Normalize(a.FactDate()), Normalize(b.FactDate())
	if !da.Equal(db) {
		return da.After(db)
	}
	return a.FactSeq() > b.FactSeq()
}

// Resolve returns the fact in effect at asOf: the greatest date not after
// asOf, ties broken by the greatest sequence. ok is false when no fact
// qualifies.
func Resolve[F Fact](facts []F, asOf time.Time) (best F, ok bool) {
	asOf = Normalize(asOf)
	for _, f := range facts {
		if Normalize(f.FactDate()).After(asOf) {
			continue
		}
		if !ok || Later(f, best) {
			best, ok = f, true
		}
	}
	return best, ok
}

// ResolveSeq is Resolve over a lazily produced history. The first error
// yielded stops the scan.
func ResolveSeq[F Fact](history iter.Seq2[F, error], asOf time.Time) (best F, ok bool, err error) {
	asOf = Normalize(asOf)
	for f, ferr := range history {
		if ferr != nil {
			var zero F
			return zero, false, ferr
		}
		if Normalize(f.FactDate()).After(asOf) {
			continue
		}
		if !ok || Later(f, best) {
			best, ok = f, true
		}
	}
	return best, ok, nil
}
