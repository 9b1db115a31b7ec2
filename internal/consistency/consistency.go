// Package consistency scans finished report text for clinical contradictions
// a spell checker cannot see: impossible laterality, gender disagreement
// between a finding and its descriptor, and findings asserted after having
// been negated.
//
// Checks are advisory. The checker reports issues with positions and
// suggested wording; it never rewrites the text.
package consistency

import (
	"regexp"
	"sort"
	"strings"
)

// IssueType classifies a detected contradiction.
type IssueType string

const (
	// IssueLaterality flags a side that is anatomically impossible or
	// drifts within one sentence.
	IssueLaterality IssueType = "laterality"
	// IssueGender flags a descriptor whose grammatical gender disagrees
	// with its noun.
	IssueGender IssueType = "gender"
	// IssueNegation flags a finding described after being negated.
	IssueNegation IssueType = "negation"
)

// Issue is one detected contradiction.
type Issue struct {
	Type IssueType `json:"type"`
	// Term is the text span that triggered the issue.
	Term string `json:"term"`
	// Position is the byte offset of Term in the checked text.
	Position int `json:"position"`
	// Message explains the contradiction.
	Message string `json:"message"`
	// Suggestion is the proposed wording, empty when none applies.
	Suggestion string `json:"suggestion,omitempty"`
}

// fixedSideOrgans maps unpaired organs to their anatomical side.
var fixedSideOrgans = map[string]string{
	"hígado":   "derecho",
	"bazo":     "izquierdo",
	"apéndice": "derecha",
	"sigma":    "izquierdo",
}

// pairedOrgans exist on both sides, mapped to the grammatical gender of the
// organ noun so the suggested side word agrees with it.
var pairedOrgans = map[string]rune{
	"riñón":       'm',
	"pulmón":      'm',
	"mama":        'f',
	"ovario":      'm',
	"testículo":   'm',
	"suprarrenal": 'f',
	"lóbulo":      'm',
	"hemitórax":   'm',
}

// lateralityWindow is how far after an organ mention a side word is still
// attributed to it.
const lateralityWindow = 50

var sideRe = regexp.MustCompile(`(?i)\b(derech[oa]s?|izquierd[oa]s?)\b`)

// bilateralRe matches markers that make an unsided organ mention explicit.
var bilateralRe = regexp.MustCompile(`(?i)\b(bilateral(?:es)?|ambos|ambas)\b`)

// femNouns are feminine finding nouns; masculine is the default for the
// rest of the known-noun table.
var knownNouns = map[string]rune{
	"nódulo":        'm',
	"quiste":        'm',
	"derrame":       'm',
	"infiltrado":    'm',
	"ganglio":       'm',
	"lesión":        'f',
	"masa":          'f',
	"imagen":        'f',
	"colección":     'f',
	"adenopatía":    'f',
	"vesícula":      'f',
	"calcificación": 'f',
}

// descriptorStems are adjective stems whose o/a ending must agree with the
// noun they describe.
var descriptorStems = []string{
	"hipoecogénic", "hiperecogénic", "isoecogénic", "anecogénic",
	"hipodens", "hiperdens", "isodens",
	"hipointens", "hiperintens",
	"heterogéne", "homogéne",
	"redondead", "ovalad", "lobulad", "espiculad",
	"sólid", "quístic", "calcificad", "aumentad", "disminuid",
	"engrosad", "dilatad",
}

// genderLookahead is how many words after a noun a descriptor may sit.
const genderLookahead = 2

var negationRe = regexp.MustCompile(
	`(?i)\bno se (?:observa|observan|visualiza|visualizan|identifica|identifican|aprecia|aprecian)\s+(?:el |la |los |las )?([\p{L}]+)`)

// stateRe matches an assertion about a finding: a measurement, a describing
// verb, or a state word attributed to it.
var stateRe = regexp.MustCompile(
	`(?i)\b(?:mide|miden|presenta|presentan|muestra|muestran|tamaño|forma|ecogenicidad|lesión|lesiones|masa|nódulo|normal(?:es)?|aumentad[oa]s?|disminuid[oa]s?|de \d|con )`)

// negationWindow is how far after a re-mention an assertion still counts.
const negationWindow = 60

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Check scans text and returns every detected contradiction in document
// order. Clean text returns a nil slice.
func Check(text string) []Issue {
	var issues []Issue
	issues = append(issues, checkFixedLaterality(text)...)
	issues = append(issues, checkSideDrift(text)...)
	issues = append(issues, checkGender(text)...)
	issues = append(issues, checkNegation(text)...)

	// Document order, stable across check kinds.
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Position < issues[j].Position
	})
	return issues
}

// checkFixedLaterality flags a side word near an organ that only exists on
// the other side.
func checkFixedLaterality(text string) []Issue {
	lower := strings.ToLower(text)

	var issues []Issue
	for organ, side := range fixedSideOrgans {
		for _, loc := range indexAll(lower, organ) {
			end := loc + len(organ) + lateralityWindow
			if end > len(lower) {
				end = len(lower)
			}
			window := lower[loc+len(organ) : end]

			m := sideRe.FindStringIndex(window)
			if m == nil {
				continue
			}
			found := window[m[0]:m[1]]
			if sideStem(found) == sideStem(side) {
				continue
			}
			issues = append(issues, Issue{
				Type:       IssueLaterality,
				Term:       text[loc : loc+len(organ)+len(window[:m[1]])],
				Position:   loc,
				Message:    "el órgano \"" + organ + "\" es anatómicamente " + side,
				Suggestion: side,
			})
		}
	}
	return issues
}

// sideStem collapses the gender and number forms of a side word.
func sideStem(s string) string {
	if strings.HasPrefix(s, "derech") {
		return "derech"
	}
	return "izquierd"
}

// checkSideDrift tracks the side the report is currently describing. Each
// sentence that names "derecho/a" or "izquierdo/a" updates the tracked side;
// a paired organ mentioned in a later sentence with no side word and no
// bilateral marker is flagged with the tracked side as the suggestion.
func checkSideDrift(text string) []Issue {
	var issues []Issue
	current := ""
	for _, seg := range splitSentences(text) {
		lower := strings.ToLower(seg.text)

		side := ""
		if m := sideRe.FindString(lower); m != "" {
			side = sideStem(m)
		}

		if side == "" && current != "" && !bilateralRe.MatchString(lower) {
			for organ, gender := range pairedOrgans {
				idx := strings.Index(lower, organ)
				if idx < 0 || !boundedAt(lower, idx, len(organ)) {
					continue
				}
				suggestion := current + "o"
				if gender == 'f' {
					suggestion = current + "a"
				}
				issues = append(issues, Issue{
					Type:       IssueLaterality,
					Term:       seg.text[idx : idx+len(organ)],
					Position:   seg.offset + idx,
					Message:    "\"" + organ + "\" se menciona sin lado explícito",
					Suggestion: suggestion,
				})
			}
		}
		if side != "" {
			current = side
		}
	}
	return issues
}

// checkGender flags descriptors within reach of a known noun whose o/a
// ending disagrees with the noun's gender.
func checkGender(text string) []Issue {
	var issues []Issue

	words := wordRe.FindAllStringIndex(text, -1)
	for wi, loc := range words {
		noun := strings.ToLower(text[loc[0]:loc[1]])
		gender, ok := knownNouns[noun]
		if !ok {
			continue
		}

		limit := wi + 1 + genderLookahead
		if limit > len(words)-1 {
			limit = len(words) - 1
		}
		for di := wi + 1; di <= limit; di++ {
			dloc := words[di]
			desc := strings.ToLower(text[dloc[0]:dloc[1]])

			stem, suffix, ok := matchDescriptor(desc)
			if !ok {
				continue
			}
			want := "o"
			if gender == 'f' {
				want = "a"
			}
			if strings.HasPrefix(suffix, want) {
				break
			}
			plural := strings.HasSuffix(suffix, "s")
			suggestion := stem + want
			if plural {
				suggestion += "s"
			}
			issues = append(issues, Issue{
				Type:       IssueGender,
				Term:       text[loc[0]:dloc[1]],
				Position:   loc[0],
				Message:    "\"" + desc + "\" no concuerda en género con \"" + noun + "\"",
				Suggestion: suggestion,
			})
			break
		}
	}
	return issues
}

// matchDescriptor reports whether word is a known descriptor, returning its
// stem and gender suffix ("o", "a", "os", "as").
func matchDescriptor(word string) (stem, suffix string, ok bool) {
	for _, s := range descriptorStems {
		rest, found := strings.CutPrefix(word, s)
		if !found {
			continue
		}
		switch rest {
		case "o", "a", "os", "as":
			return s, rest, true
		}
	}
	return "", "", false
}

// checkNegation flags findings that are negated and later described as
// present.
func checkNegation(text string) []Issue {
	lower := strings.ToLower(text)

	var issues []Issue
	for _, m := range negationRe.FindAllStringSubmatchIndex(lower, -1) {
		noun := lower[m[2]:m[3]]
		negEnd := m[1]

		for _, loc := range indexAll(lower[negEnd:], noun) {
			at := negEnd + loc
			end := at + len(noun) + negationWindow
			if end > len(lower) {
				end = len(lower)
			}
			if !stateRe.MatchString(lower[at+len(noun) : end]) {
				continue
			}
			issues = append(issues, Issue{
				Type:     IssueNegation,
				Term:     text[at : at+len(noun)],
				Position: at,
				Message:  "\"" + noun + "\" se describe tras haber sido negado",
			})
			break
		}
	}
	return issues
}

// sentenceSeg is one sentence with its byte offset in the source text.
type sentenceSeg struct {
	text   string
	offset int
}

// splitSentences cuts text on sentence punctuation and newlines.
func splitSentences(text string) []sentenceSeg {
	var segs []sentenceSeg
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if i > start {
				segs = append(segs, sentenceSeg{text: text[start:i], offset: start})
			}
			start = i + 1
		}
	}
	if start < len(text) {
		segs = append(segs, sentenceSeg{text: text[start:], offset: start})
	}
	return segs
}

// indexAll returns every occurrence of sub in s at a word boundary.
func indexAll(s, sub string) []int {
	var out []int
	from := 0
	for {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return out
		}
		at := from + i
		if boundedAt(s, at, len(sub)) {
			out = append(out, at)
		}
		from = at + len(sub)
	}
}

func boundedAt(s string, at, n int) bool {
	if at > 0 {
		prev := s[at-1]
		if prev != ' ' && prev != '\n' && prev != '\t' && !isPunctByte(prev) {
			return false
		}
	}
	if end := at + n; end < len(s) {
		next := s[end]
		if next != ' ' && next != '\n' && next != '\t' && !isPunctByte(next) {
			return false
		}
	}
	return true
}

func isPunctByte(b byte) bool {
	switch b {
	case '.', ',', ';', ':', '!', '?', '(', ')', '"':
		return true
	}
	return false
}
