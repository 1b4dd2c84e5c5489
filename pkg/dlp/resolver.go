package dlp

import "sort"

// Resolve deduplicates and orders raw detector findings into a
// non-overlapping span set, sorted ascending by start offset.
//
// When two spans overlap, the span with the higher likelihood is kept;
// ties go to the longer span, then to the earlier start. Adjacent spans
// of the same category are merged into one. The result is deterministic
// for any permutation of the input, which is required because the same
// input must always redact identically.
//
// An empty input yields an empty (non-nil) result. Any span whose
// coordinates fall outside the text fails the whole call with
// MalformedSpanError; callers must not proceed to transformation.
func Resolve(spans []Span, textLen int) ([]Span, error) {
	for _, s := range spans {
		if err := s.validate(textLen); err != nil {
			return nil, err
		}
	}

	// Sort on every field that participates in conflict resolution so the
	// sweep sees candidates in a canonical order regardless of input order.
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Likelihood != b.Likelihood {
			return a.Likelihood > b.Likelihood
		}
		if a.Length() != b.Length() {
			return a.Length() > b.Length()
		}
		return a.Category < b.Category
	})

	resolved := make([]Span, 0, len(sorted))
	for _, s := range sorted {
		if len(resolved) == 0 {
			resolved = append(resolved, s)
			continue
		}

		last := &resolved[len(resolved)-1]
		switch {
		case s.Start < last.End:
			// Overlap: keep the winner, drop the loser.
			if wins(s, *last) {
				*last = s
			}
		case s.Start == last.End && s.Category == last.Category:
			// Adjacent same-category findings merge into one span.
			last.End = s.End
			if s.Likelihood > last.Likelihood {
				last.Likelihood = s.Likelihood
			}
		default:
			resolved = append(resolved, s)
		}
	}

	return resolved, nil
}

// wins reports whether candidate a beats b under the overlap rule:
// higher likelihood, then larger span length, then earlier start.
func wins(a, b Span) bool {
	if a.Likelihood != b.Likelihood {
		return a.Likelihood > b.Likelihood
	}
	if a.Length() != b.Length() {
		return a.Length() > b.Length()
	}
	return a.Start < b.Start
}
