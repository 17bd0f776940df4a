// Package seats converts seat identifiers from any of their historical
// representations (comma-separated strings with stray punctuation, JSON
// arrays, Postgres array literals, native lists) into one canonical form.
// The same normalizer is used for stored rows and incoming requests so that
// comparisons are always made between canonical tokens.
package seats

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// List is an ordered, duplicate-free sequence of canonical seat tokens.
// Order follows the first occurrence in the input.
type List []string

// Set is an unordered collection of canonical seat tokens.
type Set map[string]struct{}

// Normalize converts raw into a canonical List.  Strings are split on
// commas; every piece keeps only letters, digits and spaces, is trimmed,
// has inner whitespace collapsed and is upper-cased.  Unknown types yield
// an empty list.
func Normalize(raw any) List {
	out := List{}
	seen := make(map[string]struct{})
	add := func(s string) {
		for _, piece := range strings.Split(s, ",") {
			tok := token(piece)
			if tok == "" {
				continue
			}
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	switch v := raw.(type) {
	case nil:
	case string:
		add(v)
	case []string:
		for _, s := range v {
			add(s)
		}
	case []any:
		for _, item := range v {
			switch t := item.(type) {
			case string:
				add(t)
			case float64, int, int64:
				add(fmt.Sprint(t))
			}
		}
	case json.RawMessage:
		return normalizeJSON(v)
	case []byte:
		add(string(v))
	case List:
		for _, s := range v {
			add(s)
		}
	}
	return out
}

// normalizeJSON decodes a raw JSON value (string or array) before
// normalizing it.  Malformed JSON is treated as a plain string.
func normalizeJSON(raw json.RawMessage) List {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Normalize(string(raw))
	}
	return Normalize(decoded)
}

func token(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// Set returns the tokens of l as a Set.
func (l List) Set() Set {
	s := make(Set, len(l))
	for _, t := range l {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts every token of l into s.
func (s Set) Add(l List) {
	for _, t := range l {
		s[t] = struct{}{}
	}
}

// Has reports whether tok is a member of s.
func (s Set) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Sorted returns the members of s in natural seat order (A2 before A10).
func (s Set) Sorted() List {
	out := make(List, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Conflicts returns every token of requested that is present in taken, in
// request order.
func Conflicts(requested List, taken Set) List {
	out := List{}
	for _, t := range requested {
		if taken.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Encode renders l in its canonical storage form.
func Encode(l List) string {
	return strings.Join(l, ",")
}

// Less orders seat tokens so that runs of digits compare numerically.
func Less(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		if da && db {
			na, ra := leadingDigits(a)
			nb, rb := leadingDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func leadingDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
