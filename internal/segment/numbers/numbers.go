// Package numbers converts spelled-out Spanish numbers, measurements, and
// TNM staging shorthand in dictated text into their written clinical form:
// "treinta y cinco" → "35", "tres por cuatro" → "3x4", "te uno a" → "T1a".
//
// The conversion order inside [Convert] matters: symbol phrases that contain
// number words ("por ciento") are resolved relative to already-converted
// digits, and the dimension rule must not see the digits produced for them.
package numbers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voxmed/voxmed/internal/segment/token"
)

// units covers the Spanish number words 0–29, which are single words.
// Unaccented recogniser spellings are included alongside the correct forms.
var units = map[string]int{
	"cero": 0, "uno": 1, "dos": 2, "tres": 3, "cuatro": 4,
	"cinco": 5, "seis": 6, "siete": 7, "ocho": 8, "nueve": 9,
	"diez": 10, "once": 11, "doce": 12, "trece": 13, "catorce": 14,
	"quince": 15, "dieciséis": 16, "dieciseis": 16, "diecisiete": 17,
	"dieciocho": 18, "diecinueve": 19, "veinte": 20,
	"veintiuno": 21, "veintidós": 22, "veintidos": 22,
	"veintitrés": 23, "veintitres": 23, "veinticuatro": 24,
	"veinticinco": 25, "veintiséis": 26, "veintiseis": 26,
	"veintisiete": 27, "veintiocho": 28, "veintinueve": 29,
}

var tens = map[string]int{
	"treinta": 30, "cuarenta": 40, "cincuenta": 50, "sesenta": 60,
	"setenta": 70, "ochenta": 80, "noventa": 90,
}

var hundreds = map[string]int{
	"cien": 100, "doscientos": 200, "trescientos": 300,
	"cuatrocientos": 400, "quinientos": 500, "seiscientos": 600,
	"setecientos": 700, "ochocientos": 800, "novecientos": 900,
}

// unitWords maps spoken measurement units to their abbreviations.
var unitWords = map[string]string{
	"milímetros":  "mm",
	"milimetros":  "mm",
	"milímetro":   "mm",
	"milimetro":   "mm",
	"centímetros": "cm",
	"centimetros": "cm",
	"centímetro":  "cm",
	"centimetro":  "cm",
	"mililitros":  "ml",
	"mililitro":   "ml",
}

var (
	decimalRe = regexp.MustCompile(`(\d+) coma (\d+)`)
	// leadingDecimalRe covers a fragment that continues a number dictated in
	// the previous fragment ("coma cinco" → ".5"). Only at the fragment
	// start: mid-sentence "coma" is the dictated punctuation word.
	leadingDecimalRe = regexp.MustCompile(`^(\s*)coma (\d)`)
	percentRe        = regexp.MustCompile(`(\d+(?:\.\d+)?) por ciento\b`)
	dimensionRe      = regexp.MustCompile(`(\d+(?:\.\d+)?) por (\d+(?:\.\d+)?)`)
	degreesRe        = regexp.MustCompile(`(\d+(?:\.\d+)?) grados\b`)
	unitGlueRe       = regexp.MustCompile(`(\d)(mm|cm|ml|mg|kg|cc)\b`)
	approxRe         = regexp.MustCompile(`(?i)\baproximadamente (\d)`)
	mideRe           = regexp.MustCompile(`(?i)\b(mide|miden) de (\d)`)

	// TNM staging: optional "estadio", a phonetic T/N/M letter, a digit, and
	// an optional stage letter. A spaced stage letter is only accepted at a
	// clause end so the article "a" survives ("te uno a la derecha" → "T1 a
	// la derecha", but "te uno a." → "T1a.").
	tnmSpacedRe = regexp.MustCompile(`(?i)\b(?:estadio )?(te|ene|eme) ?(\d) ([abcix])([.,;:\n]|$)`)
	tnmGluedRe  = regexp.MustCompile(`(?i)\b(?:estadio )?(te|ene|eme) ?(\d)([abcix])\b`)
	tnmBareRe   = regexp.MustCompile(`(?i)\b(?:estadio )?(te|ene|eme) ?(\d)\b`)
)

// tnmLetters maps the phonetic letter words to their staging initials.
var tnmLetters = map[string]string{"te": "T", "ene": "N", "eme": "M"}

// Convert rewrites spelled numbers, measurement symbols, and TNM shorthand
// in text. It is deterministic and idempotent: text already in digit form
// passes through unchanged.
func Convert(text string) string {
	text = convertSpelled(text)

	text = decimalRe.ReplaceAllString(text, "$1.$2")
	text = leadingDecimalRe.ReplaceAllString(text, "$1.$2")
	text = percentRe.ReplaceAllString(text, "$1%")
	text = dimensionRe.ReplaceAllString(text, "${1}x$2")
	text = degreesRe.ReplaceAllString(text, "$1°")

	text = token.ReplaceWord(text, "más menos", "±")
	text = token.ReplaceWord(text, "mas menos", "±")
	text = token.ReplaceWord(text, "menor que", "<")
	text = token.ReplaceWord(text, "mayor que", ">")

	for word, abbr := range unitWords {
		text = token.ReplaceWord(text, word, abbr)
	}
	text = unitGlueRe.ReplaceAllString(text, "$1 $2")

	return ConvertTNM(text)
}

// ConvertTNM rewrites phonetic TNM staging ("te dos b" → "T2b"). Safe to
// re-apply: the output contains no phonetic letter words to re-match.
func ConvertTNM(text string) string {
	text = tnmSpacedRe.ReplaceAllStringFunc(text, func(m string) string {
		p := tnmSpacedRe.FindStringSubmatch(m)
		return tnmLetters[strings.ToLower(p[1])] + p[2] + p[3] + p[4]
	})
	text = tnmGluedRe.ReplaceAllStringFunc(text, func(m string) string {
		p := tnmGluedRe.FindStringSubmatch(m)
		return tnmLetters[strings.ToLower(p[1])] + p[2] + p[3]
	})
	return tnmBareRe.ReplaceAllStringFunc(text, func(m string) string {
		p := tnmBareRe.FindStringSubmatch(m)
		return tnmLetters[strings.ToLower(p[1])] + p[2]
	})
}

// NormalizeMeasurements is the post-pass applied after dictionary
// substitution: "mide de 3" spacing, "aproximadamente 5" → "≈5", residual
// unit words, and a second TNM pass over terms the dictionary restored.
func NormalizeMeasurements(text string) string {
	text = mideRe.ReplaceAllString(text, "$1 de $2")
	text = approxRe.ReplaceAllString(text, "≈$1")
	for word, abbr := range unitWords {
		text = token.ReplaceWord(text, word, abbr)
	}
	text = unitGlueRe.ReplaceAllString(text, "$1 $2")
	text = dimensionRe.ReplaceAllString(text, "${1}x$2")
	return ConvertTNM(text)
}

// convertSpelled replaces maximal runs of Spanish number words with digits.
// Runs compose hundreds, "mil", and "millón"/"millones"; the connective "y"
// is only consumed between a tens word and a unit ("treinta y cinco") so the
// ordinary conjunction is never swallowed.
func convertSpelled(text string) string {
	toks := token.Split(text)
	if toks == nil {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	i := 0
	for i < len(toks) {
		if isSpace(toks[i]) {
			out.WriteString(toks[i])
			i++
			continue
		}

		value, consumed, trail := parseRun(toks, i)
		if consumed == 0 {
			out.WriteString(toks[i])
			i++
			continue
		}
		out.WriteString(strconv.Itoa(value))
		out.WriteString(trail)
		i += consumed
	}
	return out.String()
}

// parseRun attempts to parse a number-word run starting at toks[start].
// It returns the numeric value, the number of tokens consumed (up to and
// including the last number word, never trailing whitespace), and any
// punctuation attached to that last word. consumed is 0 when toks[start]
// does not start a number.
func parseRun(toks []string, start int) (value, consumed int, trail string) {
	i := start
	current := 0
	total := 0
	gotWord := false
	lastWasTens := false

	for i < len(toks) {
		if isSpace(toks[i]) {
			i++
			continue
		}

		word, punct := token.TrimTrailingPunct(toks[i])
		lw := strings.ToLower(word)

		switch {
		case lw == "y" && lastWasTens && punct == "":
			// Look ahead: "y" only joins a tens word to a unit below ten.
			next := nextWord(toks, i+1)
			nw, _ := token.TrimTrailingPunct(next)
			if v, ok := units[strings.ToLower(nw)]; !ok || v >= 10 || v == 0 {
				return finish(total, current, gotWord, consumed, trail)
			}
			i++
			continue

		case lw == "ciento":
			// "ciento" is only numeric when a number word follows; bare
			// "ciento" belongs to phrases like "por ciento".
			next := nextWord(toks, i+1)
			nw, _ := token.TrimTrailingPunct(next)
			nl := strings.ToLower(nw)
			_, isUnit := units[nl]
			_, isTens := tens[nl]
			if punct != "" || (!isUnit && !isTens) {
				return finish(total, current, gotWord, consumed, trail)
			}
			current += 100

		case lw == "mil":
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0

		case lw == "millón" || lw == "millon" || lw == "millones":
			if !gotWord {
				return 0, 0, ""
			}
			if current == 0 {
				current = 1
			}
			total += current * 1_000_000
			current = 0

		case hundreds[lw] != 0:
			current += hundreds[lw]

		case tens[lw] != 0:
			current += tens[lw]

		default:
			v, ok := units[lw]
			if !ok {
				return finish(total, current, gotWord, consumed, trail)
			}
			current += v
		}

		gotWord = true
		lastWasTens = tens[lw] != 0
		trail = punct
		consumed = i - start + 1
		i++

		if punct != "" {
			break
		}
	}
	return finish(total, current, gotWord, consumed, trail)
}

func finish(total, current int, gotWord bool, consumed int, trail string) (int, int, string) {
	if !gotWord {
		return 0, 0, ""
	}
	return total + current, consumed, trail
}

func nextWord(toks []string, from int) string {
	for _, t := range toks[from:] {
		if !isSpace(t) {
			return t
		}
	}
	return ""
}

func isSpace(s string) bool {
	return strings.TrimSpace(s) == ""
}
