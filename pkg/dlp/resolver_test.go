package dlp

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestResolve_EmptyInput(t *testing.T) {
	resolved, err := Resolve(nil, 100)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if resolved == nil {
		t.Fatal("Expected non-nil empty result")
	}
	if len(resolved) != 0 {
		t.Errorf("Expected 0 spans, got %d", len(resolved))
	}
}

func TestResolve_MalformedSpan(t *testing.T) {
	tests := []struct {
		name string
		span Span
	}{
		{"negative start", Span{Start: -1, End: 5, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodLikely}},
		{"end beyond text", Span{Start: 0, End: 101, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodLikely}},
		{"zero length", Span{Start: 5, End: 5, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodLikely}},
		{"inverted", Span{Start: 10, End: 5, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodLikely}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve([]Span{tt.span}, 100)
			if err == nil {
				t.Fatal("Expected error for malformed span")
			}
			var malformed *MalformedSpanError
			if !errors.As(err, &malformed) {
				t.Errorf("Expected MalformedSpanError, got %T", err)
			}
		})
	}
}

func TestResolve_OverlapHigherLikelihoodWins(t *testing.T) {
	spans := []Span{
		{Start: 0, End: 10, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodPossible},
		{Start: 5, End: 15, Category: "PHONE_NUMBER", Likelihood: LikelihoodVeryLikely},
	}

	resolved, err := Resolve(spans, 100)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if len(resolved) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(resolved))
	}
	if resolved[0].Category != "PHONE_NUMBER" {
		t.Errorf("Expected PHONE_NUMBER to win, got %s", resolved[0].Category)
	}
}

func TestResolve_OverlapTieBreaks(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
		want  Span
	}{
		{
			name: "same likelihood, longer span wins",
			spans: []Span{
				{Start: 0, End: 5, Category: "A", Likelihood: LikelihoodLikely},
				{Start: 2, End: 20, Category: "B", Likelihood: LikelihoodLikely},
			},
			want: Span{Start: 2, End: 20, Category: "B", Likelihood: LikelihoodLikely},
		},
		{
			name: "same likelihood and length, earlier start wins",
			spans: []Span{
				{Start: 5, End: 15, Category: "B", Likelihood: LikelihoodLikely},
				{Start: 0, End: 10, Category: "A", Likelihood: LikelihoodLikely},
			},
			want: Span{Start: 0, End: 10, Category: "A", Likelihood: LikelihoodLikely},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(tt.spans, 100)
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			if len(resolved) != 1 {
				t.Fatalf("Expected 1 span, got %d", len(resolved))
			}
			if resolved[0] != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, resolved[0])
			}
		})
	}
}

func TestResolve_AdjacentSameCategoryMerge(t *testing.T) {
	spans := []Span{
		{Start: 0, End: 5, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodPossible},
		{Start: 5, End: 12, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodVeryLikely},
	}

	resolved, err := Resolve(spans, 100)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if len(resolved) != 1 {
		t.Fatalf("Expected merged span, got %d spans", len(resolved))
	}
	merged := resolved[0]
	if merged.Start != 0 || merged.End != 12 {
		t.Errorf("Expected span [0,12), got [%d,%d)", merged.Start, merged.End)
	}
	if merged.Likelihood != LikelihoodVeryLikely {
		t.Errorf("Expected merged likelihood VERY_LIKELY, got %s", merged.Likelihood)
	}
}

func TestResolve_AdjacentDifferentCategoryNotMerged(t *testing.T) {
	spans := []Span{
		{Start: 0, End: 5, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodLikely},
		{Start: 5, End: 12, Category: "PHONE_NUMBER", Likelihood: LikelihoodLikely},
	}

	resolved, err := Resolve(spans, 100)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if len(resolved) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(resolved))
	}
}

func TestResolve_DisjointSpansSortedByStart(t *testing.T) {
	spans := []Span{
		{Start: 50, End: 60, Category: "PHONE_NUMBER", Likelihood: LikelihoodLikely},
		{Start: 0, End: 10, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodLikely},
		{Start: 20, End: 30, Category: "PERSON_NAME", Likelihood: LikelihoodPossible},
	}

	resolved, err := Resolve(spans, 100)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if len(resolved) != 3 {
		t.Fatalf("Expected 3 spans, got %d", len(resolved))
	}
	for i := 1; i < len(resolved); i++ {
		if resolved[i].Start < resolved[i-1].End {
			t.Errorf("Spans not sorted/disjoint at index %d: %+v", i, resolved)
		}
	}
}

// TestResolve_PermutationDeterminism verifies that resolution is
// independent of input order: every shuffle of the same findings must
// produce an identical span set.
func TestResolve_PermutationDeterminism(t *testing.T) {
	spans := []Span{
		{Start: 0, End: 10, Category: "EMAIL_ADDRESS", Likelihood: LikelihoodPossible},
		{Start: 5, End: 15, Category: "PHONE_NUMBER", Likelihood: LikelihoodVeryLikely},
		{Start: 15, End: 25, Category: "PHONE_NUMBER", Likelihood: LikelihoodLikely},
		{Start: 40, End: 48, Category: "PERSON_NAME", Likelihood: LikelihoodLikely},
		{Start: 44, End: 52, Category: "US_SOCIAL_SECURITY_NUMBER", Likelihood: LikelihoodLikely},
		{Start: 60, End: 70, Category: "CREDIT_CARD_NUMBER", Likelihood: LikelihoodVeryLikely},
	}

	baseline, err := Resolve(spans, 100)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := make([]Span, len(spans))
		copy(shuffled, spans)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, err := Resolve(shuffled, 100)
		if err != nil {
			t.Fatalf("Resolve() failed on permutation %d: %v", i, err)
		}
		if !reflect.DeepEqual(baseline, got) {
			t.Fatalf("Permutation %d produced different result:\nbaseline: %+v\ngot: %+v", i, baseline, got)
		}
	}
}

func TestResolve_DoesNotModifyInput(t *testing.T) {
	spans := []Span{
		{Start: 20, End: 30, Category: "B", Likelihood: LikelihoodLikely},
		{Start: 0, End: 10, Category: "A", Likelihood: LikelihoodLikely},
	}
	original := make([]Span, len(spans))
	copy(original, spans)

	if _, err := Resolve(spans, 100); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if !reflect.DeepEqual(spans, original) {
		t.Errorf("Resolve modified its input: %+v", spans)
	}
}
