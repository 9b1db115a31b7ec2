// Package phonetic canonicalises Spanish words into a sound-alike code and
// provides the fuzzy/phonetic matching tiers used for single-word dictation
// correction.
//
// The code is produced by an order-sensitive normalisation chain tuned for
// Spanish speech recognition confusions: b/v, ll/y, c/s/z/k and g/j merges,
// silent h, and diacritic loss. Two words with the same code are considered
// sound-alike ("rinon" and "riñón" both encode to "rinon").
//
// Fuzzy matching uses Levenshtein edit distance with a threshold that scales
// with the length of the candidate term; Jaro-Winkler similarity breaks ties
// between candidates at equal distance.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// chPlaceholder protects the "ch" digraph during the h-drop and c-unification
// steps. It is restored as "ch" at the end of the chain.
const chPlaceholder = "\x01"

// accentFold maps accented Spanish letters to their bare forms.
var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ü", "u", "ñ", "n",
)

// Code returns the Spanish phonetic code for a single word. The chain is
// strictly ordered; each step assumes the normal form left by the previous
// one. Empty input yields an empty code.
func Code(word string) string {
	s := strings.ToLower(strings.TrimSpace(word))
	if s == "" {
		return ""
	}

	s = accentFold.Replace(s)

	// Protect "ch" before dropping silent h.
	s = strings.ReplaceAll(s, "ch", chPlaceholder)
	s = strings.ReplaceAll(s, "h", "")

	s = strings.ReplaceAll(s, "v", "b")
	s = strings.ReplaceAll(s, "ll", "y")

	// Seseo: z and soft c collapse into s.
	s = strings.ReplaceAll(s, "z", "s")
	s = strings.ReplaceAll(s, "ce", "se")
	s = strings.ReplaceAll(s, "ci", "si")

	// qu and remaining hard c collapse into k.
	s = strings.ReplaceAll(s, "que", "ke")
	s = strings.ReplaceAll(s, "qui", "ki")
	s = strings.ReplaceAll(s, "c", "k")

	// Soft g merges with j.
	s = strings.ReplaceAll(s, "ge", "je")
	s = strings.ReplaceAll(s, "gi", "ji")

	s = strings.ReplaceAll(s, "x", "ks")

	s = collapseRuns(s)
	return strings.ReplaceAll(s, chPlaceholder, "ch")
}

// Similar reports whether two words share the same phonetic code.
// It is symmetric by construction.
func Similar(a, b string) bool {
	return Code(a) == Code(b)
}

// collapseRuns removes consecutive duplicate runes ("perro" → "pero").
func collapseRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// Threshold returns the maximum edit distance tolerated for a candidate term
// of the given rune length: 1 for short terms, 2 for mid-length, 3 for long.
func Threshold(targetLen int) int {
	switch {
	case targetLen <= 8:
		return 1
	case targetLen <= 12:
		return 2
	default:
		return 3
	}
}

// minFuzzyTokenLen guards the fuzzy tier against short tokens, where a single
// edit can jump between unrelated medical words.
const minFuzzyTokenLen = 6

// FuzzyMatch finds the candidate term closest to word by edit distance,
// subject to the length-scaled [Threshold]. The threshold is tightened to 1
// whenever either string literally contains the other, which keeps "densidad"
// from being rewritten into "isodensidad". A zero distance is rejected: an
// identical token needs no correction.
//
// Candidates are compared lowercase. Ties at equal distance are broken by
// Jaro-Winkler similarity, then by candidate order. Returns matched=false
// when no candidate qualifies.
func FuzzyMatch(word string, candidates []string) (match string, matched bool) {
	w := strings.ToLower(word)
	if len([]rune(w)) < minFuzzyTokenLen {
		return "", false
	}

	bestDist := -1
	bestScore := 0.0
	for _, cand := range candidates {
		c := strings.ToLower(cand)
		dist := matchr.Levenshtein(w, c)
		if dist <= 0 {
			continue
		}

		limit := Threshold(len([]rune(c)))
		if strings.Contains(c, w) || strings.Contains(w, c) {
			limit = 1
		}
		if dist > limit {
			continue
		}

		score := matchr.JaroWinkler(w, c, false)
		if bestDist == -1 || dist < bestDist || (dist == bestDist && score > bestScore) {
			bestDist = dist
			bestScore = score
			match = cand
		}
	}
	return match, bestDist != -1
}

// maxPhoneticLenDiff gates the phonetic tier: sound-alike codes are only
// trusted when the raw words are of comparable length.
const maxPhoneticLenDiff = 2

// PhoneticMatch finds a candidate whose phonetic code equals word's code,
// restricted to candidates within [maxPhoneticLenDiff] runes of word's
// length. Among several code-equal candidates the highest Jaro-Winkler
// similarity wins. Returns matched=false when no candidate qualifies.
func PhoneticMatch(word string, candidates []string) (match string, matched bool) {
	w := strings.ToLower(word)
	code := Code(w)
	if code == "" {
		return "", false
	}

	wLen := len([]rune(w))
	bestScore := -1.0
	for _, cand := range candidates {
		c := strings.ToLower(cand)
		if c == w {
			continue
		}
		cLen := len([]rune(c))
		if diff := cLen - wLen; diff > maxPhoneticLenDiff || diff < -maxPhoneticLenDiff {
			continue
		}
		if Code(c) != code {
			continue
		}
		if score := matchr.JaroWinkler(w, c, false); score > bestScore {
			bestScore = score
			match = cand
		}
	}
	return match, bestScore >= 0
}
