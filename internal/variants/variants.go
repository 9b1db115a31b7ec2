// Package variants expands one learned correction pair into the plausible
// recogniser spellings of the same mistake, so a correction saved once also
// fixes the split, hyphenated, accent-shifted, and recased forms the
// recogniser produces on other days.
package variants

import (
	"strings"
	"unicode"
)

// prefixes are the medical compound prefixes the recogniser tends to split
// off ("hipoecogénico" heard as "hipo ecogénico"). Longer prefixes are
// listed first so "hiper" wins over "hipo" misreads.
var prefixes = []string{
	"hiper", "hipo", "intra", "extra", "supra", "infra",
	"peri", "para", "retro", "endo", "post", "ante",
	"iso", "epi", "pre",
}

// accentPairs lists the vowel accent toggles tried one position at a time.
var accentPairs = map[rune]rune{
	'a': 'á', 'e': 'é', 'i': 'í', 'o': 'ó', 'u': 'ú',
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u',
}

// Options controls variant generation.
type Options struct {
	// NoCaseVariants suppresses the capitalised and uppercase forms,
	// for terms whose casing is meaningful (acronyms, staging codes).
	NoCaseVariants bool
}

// Generate returns the spelling variants of word, not including word
// itself. The output is deterministic and free of duplicates.
func Generate(word string, opts Options) []string {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil
	}

	seen := map[string]bool{word: true}
	var out []string
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	lower := strings.ToLower(word)

	// Prefix split variants: "hipoecogénico" → "hipo ecogénico" and
	// "hipo-ecogénico". A term already split or hyphenated gets the other
	// separator ("hipo ecoico" → "hipo-ecoico"). Only when a real stem
	// remains.
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(lower, p)
		if !ok {
			continue
		}
		rest = strings.TrimLeft(rest, " -")
		if len([]rune(rest)) < 3 {
			continue
		}
		add(p + " " + rest)
		add(p + "-" + rest)
		break
	}

	// Joined variants of an already split or hyphenated word.
	if strings.ContainsAny(lower, " -") {
		joined := strings.Map(func(r rune) rune {
			if r == ' ' || r == '-' {
				return -1
			}
			return r
		}, lower)
		add(joined)
	}

	// Single-position accent toggles.
	runes := []rune(lower)
	for i, r := range runes {
		alt, ok := accentPairs[r]
		if !ok {
			continue
		}
		v := make([]rune, len(runes))
		copy(v, runes)
		v[i] = alt
		add(string(v))
	}

	if !opts.NoCaseVariants {
		add(capitalized(lower))
		add(strings.ToUpper(lower))
	}

	return out
}

// GeneratePairs expands one correction pair into the full set of pairs to
// learn: the literal pair first, then every generated variant of the
// original mapped to the same corrected form.
func GeneratePairs(original, corrected string, opts Options) map[string]string {
	original = strings.TrimSpace(original)
	corrected = strings.TrimSpace(corrected)
	if original == "" || corrected == "" {
		return nil
	}

	pairs := map[string]string{strings.ToLower(original): corrected}
	for _, v := range Generate(original, opts) {
		lv := strings.ToLower(v)
		if _, exists := pairs[lv]; exists {
			continue
		}
		if strings.EqualFold(lv, corrected) {
			continue
		}
		pairs[lv] = corrected
	}
	return pairs
}

func capitalized(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}
