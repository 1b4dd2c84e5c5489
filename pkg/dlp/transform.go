package dlp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// maskRune is the character masking substitutes for each original character.
	maskRune = "*"

	// redactionMarker is the fixed literal redaction substitutes for a span,
	// regardless of the span's original length.
	redactionMarker = "[REDACTED]"

	// opaqueBytes is the entropy, in bytes, of a tokenization opaque value.
	opaqueBytes = 16
)

// TokenStore records tokenization mappings for later re-identification.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	// Put stores an opaque token's original content.
	Put(ctx context.Context, token, original string) error
}

// TokenLookup retrieves the original content recorded for a token.
// Implementations must be safe for concurrent use.
type TokenLookup interface {
	// Lookup returns the original content for a token, or an error when
	// the token is unknown or expired.
	Lookup(ctx context.Context, token string) (string, error)
}

// Reidentify reverses a single tokenization replacement, returning the
// original content the token stands for. The token must be the full
// replacement text as it appears in transformed output.
func Reidentify(ctx context.Context, store TokenLookup, token string) (string, error) {
	if store == nil {
		return "", fmt.Errorf("no token store configured")
	}
	if !strings.HasPrefix(token, "TOKEN(") {
		return "", fmt.Errorf("malformed token %q", token)
	}
	return store.Lookup(ctx, token)
}

// Transformer applies one transformation method to a resolved span set.
// The zero value is not usable; construct with NewTransformer.
type Transformer struct {
	method Method
	store  TokenStore
}

// NewTransformer creates a transformer for the given method. The store is
// consulted only for MethodTokenization and may be nil, in which case
// tokens are generated but not recorded for re-identification.
func NewTransformer(method Method, store TokenStore) *Transformer {
	return &Transformer{method: method, store: store}
}

// Apply produces the transformed text and a manifest of what changed.
// Spans must be resolved (sorted, non-overlapping); they are applied
// right-to-left over the original text so earlier replacements' index
// arithmetic is unaffected by later ones.
//
// On any out-of-range span the original text is returned unmodified
// together with a TransformError. Partial transformations never escape.
func (t *Transformer) Apply(ctx context.Context, text string, spans []Span) (string, *Manifest, error) {
	manifest := &Manifest{OriginalLength: len(text)}

	for _, s := range spans {
		if err := s.validate(len(text)); err != nil {
			return text, nil, &TransformError{Span: s, Message: "span outside text bounds"}
		}
	}

	out := text
	replacements := make([]Replacement, len(spans))
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		original := text[s.Start:s.End]

		replacement, err := t.replacementFor(ctx, original)
		if err != nil {
			return text, nil, &TransformError{Span: s, Message: err.Error()}
		}

		out = out[:s.Start] + replacement + out[s.End:]
		replacements[i] = Replacement{Span: s, Text: replacement}
	}

	manifest.TransformedLength = len(out)
	manifest.Replacements = replacements
	return out, manifest, nil
}

// replacementFor computes the substitution text for one span's content.
func (t *Transformer) replacementFor(ctx context.Context, original string) (string, error) {
	switch t.method {
	case MethodMasking:
		// Character length, not byte length: masking preserves the visual
		// width of the text for layout-sensitive consumers.
		return strings.Repeat(maskRune, utf8.RuneCountInString(original)), nil

	case MethodTokenization:
		opaque, err := newOpaque()
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		token := fmt.Sprintf("TOKEN(%d):%s", utf8.RuneCountInString(original), opaque)
		if t.store != nil {
			if err := t.store.Put(ctx, token, original); err != nil {
				return "", fmt.Errorf("record token: %w", err)
			}
		}
		return token, nil

	case MethodRedaction:
		return redactionMarker, nil

	default:
		return "", fmt.Errorf("unknown method %q", t.method)
	}
}

// newOpaque generates a fresh opaque token value. Two calls on identical
// input produce different values, which prevents correlating tokenized
// text across requests.
func newOpaque() (string, error) {
	buf := make([]byte, opaqueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
