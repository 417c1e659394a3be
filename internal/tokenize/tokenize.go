// Package tokenize streams text into lowercase alphanumeric tokens.
//
// It mirrors the original crawler's Assignment1/PartA.py: a maximal run of
// alphanumeric characters is a token, everything else is a separator, and
// the whole thing never holds more than the current token in memory.
package tokenize

import (
	"bufio"
	"io"
	"sort"
	"unicode"
	"unicode/utf8"
)

// Tokenizer pulls tokens lazily from an underlying reader.
type Tokenizer struct {
	r    *bufio.Reader
	cur  []rune
	done bool
}

// New wraps r for streaming tokenization.
func New(r io.Reader) *Tokenizer {
	return &Tokenizer{r: bufio.NewReader(r)}
}

// Next returns the next token and true, or ("", false) at end of input.
func (t *Tokenizer) Next() (string, bool) {
	if t.done {
		return "", false
	}
	for {
		ch, _, err := t.r.ReadRune()
		if err != nil {
			t.done = true
			if len(t.cur) > 0 {
				tok := string(t.cur)
				t.cur = nil
				return tok, true
			}
			return "", false
		}
		if ch == utf8.RuneError {
			continue
		}
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			t.cur = append(t.cur, unicode.ToLower(ch))
			continue
		}
		if len(t.cur) > 0 {
			tok := string(t.cur)
			t.cur = nil
			return tok, true
		}
	}
}

// Tokens tokenizes all of r into a token->count map.
func Tokens(r io.Reader) map[string]int {
	t := New(r)
	counts := make(map[string]int)
	for {
		tok, ok := t.Next()
		if !ok {
			break
		}
		counts[tok]++
	}
	return counts
}

// Count is a sortable (token, count) pair.
type Count struct {
	Token string
	N     int
}

// Sorted orders counts by descending count, then ascending token, per the
// tie-break spec.md §4.1 requires for deterministic output.
func Sorted(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for tok, n := range counts {
		out = append(out, Count{Token: tok, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Token < out[j].Token
	})
	return out
}
