// Package tokenize splits a text into lowercased word tokens, each carrying
// the rune range it occupies in the original string.
//
// The ranges produced here become user-visible highlight boundaries, so the
// splitting rules are fixed:
//
//  1. The text is lowercased rune by rune (rune offsets are preserved).
//  2. A fixed list of separators is replaced by a single space, one separator
//     at a time over the whole string. Sentence punctuation only counts as a
//     separator when followed by a space.
//  3. A single trailing '.', '?' or '!' is dropped.
//  4. The result is split on single spaces; blank entries are discarded.
//  5. Each word is located in the lowercased text, searching forward from the
//     end of the previous match, so repeated words get increasing ranges.
//
// A word that cannot be located is dropped. With the current separator list
// this cannot happen, but the drop is reported through [WithDropHandler] so
// callers can log or count it.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrWong99/dictacheck/pkg/types"
)

// separators are replaced by a single space, in this order.
var separators = []string{
	". ", ", ", "! ", "? ", "; ", ": ",
	"\"", "_", "+", "=", "/", "|", "\\",
	"(", ")", "[", "]", "{", "}",
}

// Option is a functional option for configuring a [Tokenizer].
type Option func(*Tokenizer)

// WithDropHandler registers fn to be called with every word that was split
// out of the text but could not be located in it.
func WithDropHandler(fn func(word string)) Option {
	return func(t *Tokenizer) {
		t.onDrop = fn
	}
}

// Tokenizer splits texts into [types.TextToken] values. It holds no state
// between calls and is safe for concurrent use as long as the drop handler
// is.
type Tokenizer struct {
	onDrop func(word string)
}

// New returns a [Tokenizer] configured with the supplied options.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Tokenize splits text with a default [Tokenizer].
func Tokenize(text string) []types.TextToken {
	return New().Tokenize(text)
}

// Tokenize splits text into tokens. The returned slice is never nil.
func (t *Tokenizer) Tokenize(text string) []types.TextToken {
	lowered := strings.Map(unicode.ToLower, text)

	processed := lowered
	for _, sep := range separators {
		processed = strings.ReplaceAll(processed, sep, " ")
	}
	if n := len(processed); n > 0 {
		switch processed[n-1] {
		case '.', '?', '!':
			processed = processed[:n-1]
		}
	}

	tokens := []types.TextToken{}

	// byteCursor and runeCursor both point just past the previous match.
	byteCursor, runeCursor := 0, 0
	for _, word := range strings.Split(processed, " ") {
		if strings.TrimSpace(word) == "" {
			continue
		}
		idx := strings.Index(lowered[byteCursor:], word)
		if idx < 0 {
			if t.onDrop != nil {
				t.onDrop(word)
			}
			continue
		}
		start := runeCursor + utf8.RuneCountInString(lowered[byteCursor:byteCursor+idx])
		length := utf8.RuneCountInString(word)

		tokens = append(tokens, types.TextToken{
			Text:  word,
			Range: types.NewRange(start, start+length-1),
		})

		byteCursor += idx + len(word)
		runeCursor = start + length
	}
	return tokens
}

// Texts returns the token strings of tokens in order.
func Texts(tokens []types.TextToken) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}
