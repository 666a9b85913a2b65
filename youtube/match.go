package youtube

import (
	"fmt"
	"iter"
	"regexp"
)

// PatternSet is an ordered list of compiled patterns.
type PatternSet []*regexp.Regexp

// CompilePatterns compiles each expression, keeping order.
func CompilePatterns(exprs []string) (PatternSet, error) {
	set := make(PatternSet, 0, len(exprs))
	for i, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w #%d %q: %v", ErrInvalidPattern, i+1, expr, err)
		}
		set = append(set, re)
	}
	return set, nil
}

// Strings returns the source expressions.
func (ps PatternSet) Strings() []string {
	out := make([]string, len(ps))
	for i, re := range ps {
		out[i] = re.String()
	}
	return out
}

// Match yields the leftmost match of re in each record's description, in
// record order. Records without a match contribute nothing. ok is false when
// records is empty, in which case the sequence yields nothing.
func Match(records []VideoRecord, re *regexp.Regexp) (seq iter.Seq[string], ok bool) {
	seq = func(yield func(string) bool) {
		for _, rec := range records {
			loc := re.FindStringIndex(rec.Description)
			if loc == nil {
				continue
			}
			if !yield(rec.Description[loc[0]:loc[1]]) {
				return
			}
		}
	}
	return seq, len(records) > 0
}

// MatchAll groups Match results by pattern: pattern outer, record inner.
// Each pattern is yielded with its own lazy match sequence, including
// patterns that match nothing. ok is false when records is empty.
func MatchAll(records []VideoRecord, patterns PatternSet) (iter.Seq2[*regexp.Regexp, iter.Seq[string]], bool) {
	seq := func(yield func(*regexp.Regexp, iter.Seq[string]) bool) {
		for _, re := range patterns {
			matches, _ := Match(records, re)
			if !yield(re, matches) {
				return
			}
		}
	}
	return seq, len(records) > 0
}
