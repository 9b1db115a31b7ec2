// Package token provides the low-level text primitives shared by the
// dictation pipeline stages: unicode-aware whole-word replacement,
// whitespace-preserving tokenisation, and casing helpers.
//
// Go's regexp \b boundary only understands ASCII word characters, which
// silently breaks on accented Spanish terms ("riñón", "tórax"). All boundary
// decisions here are made with unicode.IsLetter/IsDigit instead.
package token

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsWordRune reports whether r is part of a word for boundary purposes.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// hasBoundaries reports whether the match at text[start:end] is delimited by
// non-word runes (or the text edges) on both sides.
func hasBoundaries(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if IsWordRune(r) {
			return false
		}
	}
	return true
}

// ReplaceWord replaces every whole-word, case-insensitive occurrence of key
// in text with repl. key may contain spaces (multi-word phrases match across
// their literal spacing). Occurrences glued to letters or digits are left
// untouched, so replacing "tórax" never alters "toráxico".
func ReplaceWord(text, key, repl string) string {
	return ReplaceWordFunc(text, key, func(string) string { return repl })
}

// ReplaceWordFunc is like [ReplaceWord] but derives each replacement from the
// matched text, which lets callers preserve the original casing.
func ReplaceWordFunc(text, key string, fn func(match string) string) string {
	if key == "" || text == "" {
		return text
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(key))
	if err != nil {
		return text
	}

	locs := re.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, loc := range locs {
		if !hasBoundaries(text, loc[0], loc[1]) {
			continue
		}
		b.WriteString(text[prev:loc[0]])
		b.WriteString(fn(text[loc[0]:loc[1]]))
		prev = loc[1]
	}
	b.WriteString(text[prev:])
	return b.String()
}

// Split cuts s into a sequence of alternating word and whitespace tokens.
// Every byte of s appears in exactly one token, so strings.Join(Split(s), "")
// reproduces s. Punctuation stays attached to its word token.
func Split(s string) []string {
	if s == "" {
		return nil
	}
	var tokens []string
	start := 0
	inSpace := unicode.IsSpace(firstRune(s))
	for i, r := range s {
		if unicode.IsSpace(r) != inSpace {
			tokens = append(tokens, s[start:i])
			start = i
			inSpace = !inSpace
		}
	}
	tokens = append(tokens, s[start:])
	return tokens
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// TrimTrailingPunct splits s into its core and any trailing punctuation runs
// (".", ",", ";", ":", "!", "?", quotes, closing parens).
func TrimTrailingPunct(s string) (core, trail string) {
	core = strings.TrimRight(s, `.,;:!?"')`)
	return core, s[len(core):]
}

// PreserveCase returns repl with the leading-capital style of original
// applied: if original starts with an uppercase letter, repl's first letter
// is uppercased; otherwise repl is returned as-is.
func PreserveCase(original, repl string) string {
	r, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(r) {
		return repl
	}
	return UpperFirst(repl)
}

// UpperFirst uppercases the first letter of s.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst lowercases the first letter of s.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// CollapseSpaces replaces runs of spaces and tabs with a single space and
// removes any space left dangling before closing punctuation.
func CollapseSpaces(s string) string {
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = spaceBeforePunctRe.ReplaceAllString(s, "$1")
	return s
}

var (
	multiSpaceRe       = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunctRe = regexp.MustCompile(`[ \t]+([.,;:!?)])`)
)
