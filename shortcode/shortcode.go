// ABOUTME: Campaign shortcode generation with collision resolution
// ABOUTME: Builds acronym-style codes from names and suffixes them until unique
package shortcode

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	// MinLength and MaxLength bound every generated code.
	MinLength = 2
	MaxLength = 6

	// Fallback is used when the name carries nothing usable.
	Fallback = "CAMP"

	maxSuffix = 99
	alphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrLookupUnavailable wraps failures of the uniqueness lookup. Callers may retry.
var ErrLookupUnavailable = errors.New("shortcode lookup unavailable")

var validCode = regexp.MustCompile(`^[A-Z0-9]{2,6}$`)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "for": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "from": {}, "with": {}, "by": {}, "a": {}, "an": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {},
}

// Lookup reports whether a code is already assigned.
type Lookup interface {
	ShortcodeExists(ctx context.Context, code string) (bool, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, code string) (bool, error)

func (f LookupFunc) ShortcodeExists(ctx context.Context, code string) (bool, error) {
	return f(ctx, code)
}

// Valid reports whether code has the shortcode format.
func Valid(code string) bool {
	return validCode.MatchString(code)
}

// Generate returns a code for name that was not taken at the time of the check.
// The check-then-write window is closed by the store's uniqueness constraint.
func Generate(ctx context.Context, lookup Lookup, name string) (string, error) {
	base := Candidate(name)

	taken, err := lookup.ShortcodeExists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
	}
	if !taken {
		return base, nil
	}

	for i := 1; i <= maxSuffix; i++ {
		code := withSuffix(base, i)
		taken, err := lookup.ShortcodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
		}
		if !taken {
			return code, nil
		}
	}

	return randomCode(), nil
}

// Candidate derives the un-collided code for name.
func Candidate(name string) string {
	if strings.TrimSpace(name) == "" {
		return Fallback
	}

	tokens := significantTokens(name)

	var candidate string
	switch {
	case len(tokens) >= 2:
		var b strings.Builder
		for _, tok := range tokens {
			r := []rune(tok)[0]
			b.WriteRune(unicode.ToUpper(r))
		}
		candidate = b.String()
	case len(tokens) == 1 && len([]rune(tokens[0])) >= 3:
		candidate = strings.ToUpper(string([]rune(tokens[0])[:3]))
	}

	if Valid(candidate) {
		return candidate
	}
	return fallback(name)
}

func significantTokens(name string) []string {
	var tokens []string
	for _, tok := range strings.Fields(name) {
		if isNumeric(tok) {
			continue
		}
		if _, stop := stopWords[strings.ToLower(tok)]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// fallback strips the name to ASCII alphanumerics. Multi-word names keep four
// characters, single words up to the maximum length.
func fallback(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	cleaned := b.String()

	limit := MaxLength
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		limit = 4
	}
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}

	if len(cleaned) < MinLength {
		return Fallback
	}
	return cleaned
}

// withSuffix shortens base so base+n fits in MaxLength.
func withSuffix(base string, n int) string {
	suffix := strconv.Itoa(n)
	keep := MaxLength - len(suffix)
	if len(base) > keep {
		base = base[:keep]
	}
	return base + suffix
}

func randomCode() string {
	b := make([]byte, MaxLength)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}
