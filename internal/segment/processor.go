// Package segment implements the dictation segment pipeline: the ordered
// chain of rewriting stages that turns one raw speech-to-text fragment of
// Spanish medical dictation into clean written text, plus the splicing rules
// that insert the result into the report document.
//
// The stage order is a contract, not an implementation detail: every stage
// assumes the normal form produced by the stages before it. Filler removal
// runs before silent-error correction so mis-segmented compounds are intact
// when the pattern table sees them; number conversion runs before dictionary
// substitution so measurement patterns see digits; punctuation-word
// translation runs near the end so dictionary phrases containing "punto" or
// "coma" are resolved first.
//
// Processing is a pure function of its inputs. The [Processor] holds only
// immutable configuration and is safe for concurrent use.
package segment

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/voxmed/voxmed/internal/glossary"
	"github.com/voxmed/voxmed/internal/segment/fillers"
	"github.com/voxmed/voxmed/internal/segment/numbers"
	"github.com/voxmed/voxmed/internal/segment/phonetic"
	"github.com/voxmed/voxmed/internal/segment/silenterr"
	"github.com/voxmed/voxmed/internal/segment/token"
)

// Processor runs the segment pipeline. Construct with [New]; the zero value
// is not usable.
type Processor struct {
	fillers *fillers.Cleaner
	silent  *silenterr.Detector
}

// Option is a functional option for configuring a [Processor].
type Option func(*Processor)

// WithFillerCleaner replaces the default filler cleaner, e.g. to add
// user-configured filler tokens.
func WithFillerCleaner(c *fillers.Cleaner) Option {
	return func(p *Processor) {
		p.fillers = c
	}
}

// WithSilentErrorDetector replaces the default silent-error detector.
// Pass a shared detector when runtime [silenterr.Detector.Extend] calls
// should be visible to the pipeline.
func WithSilentErrorDetector(d *silenterr.Detector) Option {
	return func(p *Processor) {
		p.silent = d
	}
}

// New returns a [Processor] with default stage components and the supplied
// options applied.
func New(opts ...Option) *Processor {
	p := &Processor{
		fillers: fillers.New(),
		silent:  silenterr.New(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessSegment normalises one raw transcript fragment. userDict is the
// per-user vocabulary (lowercase original → replacement); preceding is the
// document text before the insertion point, used only for capitalisation.
//
// The function is deterministic and idempotent up to edge trimming:
// re-running it on its own output performs no further changes.
// Empty and whitespace-only fragments pass through unchanged.
func (p *Processor) ProcessSegment(raw string, userDict map[string]string, preceding string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}

	text := raw
	text = p.fillers.Clean(text)
	text = p.silent.Apply(text)
	text = applyAcronyms(text)
	text = numbers.Convert(text)
	text = applyDictionary(text, userDict)
	text = applyUserVocabulary(text, userDict)
	text = numbers.NormalizeMeasurements(text)
	text = translatePunctuation(text)
	text = normalizeSpacing(text)
	text = capitalize(text, preceding)

	return strings.Trim(text, " ")
}

// applyAcronyms rewrites phonetic acronym spellings ("tece" → "TC").
func applyAcronyms(text string) string {
	for _, key := range acronymOrder {
		text = token.ReplaceWord(text, key, glossary.Acronyms[key])
	}
	return text
}

// acronymOrder applies longer phonetic spellings first ("te ce" before any
// single-word key that could shadow part of it).
var acronymOrder = func() []string {
	keys := make([]string, 0, len(glossary.Acronyms))
	for k := range glossary.Acronyms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// applyDictionary performs literal substitution from the merged glossary,
// longest key first, boundary-matched and case-insensitive, preserving the
// leading-capital style of the matched text.
func applyDictionary(text string, userDict map[string]string) string {
	for _, e := range glossary.Merged(userDict) {
		if strings.EqualFold(e.Key, e.Replacement) && e.Key == strings.ToLower(e.Replacement) {
			// Identity entries exist to mark known-good terms; nothing to do.
			continue
		}
		repl := e.Replacement
		text = token.ReplaceWordFunc(text, e.Key, func(m string) string {
			return token.PreserveCase(m, repl)
		})
	}
	return text
}

// applyUserVocabulary applies the tiered single-word correction pass.
// Multi-word user phrases are substituted literally first (longest first);
// remaining word tokens are then corrected through three tiers (exact, then
// fuzzy edit distance, then phonetic code) with the first hit winning. Tokens
// that are already valid dictionary terms are never rewritten.
func applyUserVocabulary(text string, userDict map[string]string) string {
	phrases, words := splitUserDict(userDict)

	for _, e := range phrases {
		repl := e.Replacement
		text = token.ReplaceWordFunc(text, e.Key, func(m string) string {
			return token.PreserveCase(m, repl)
		})
	}

	candidates, replacements := correctionCandidates(userDict)

	toks := token.Split(text)
	for i, tk := range toks {
		if strings.TrimSpace(tk) == "" {
			continue
		}
		core, punct := token.TrimTrailingPunct(tk)
		if core == "" {
			continue
		}
		if glossary.IsKnownTerm(core, userDict) {
			continue
		}

		// Tier a: exact, case-insensitive.
		if repl, ok := words[strings.ToLower(core)]; ok {
			toks[i] = token.PreserveCase(core, repl) + punct
			continue
		}

		// Tier b: fuzzy edit distance.
		if cand, ok := phonetic.FuzzyMatch(core, candidates); ok {
			toks[i] = token.PreserveCase(core, replacements[cand]) + punct
			continue
		}

		// Tier c: phonetic code equality.
		if cand, ok := phonetic.PhoneticMatch(core, candidates); ok {
			toks[i] = token.PreserveCase(core, replacements[cand]) + punct
		}
	}
	return strings.Join(toks, "")
}

// splitUserDict separates the user dictionary into multi-word phrase entries
// (ordered longest first) and a single-word lookup map.
func splitUserDict(userDict map[string]string) (phrases []glossary.Entry, words map[string]string) {
	words = make(map[string]string)
	for k, v := range userDict {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.ContainsRune(k, ' ') {
			phrases = append(phrases, glossary.Entry{Key: k, Replacement: v})
		} else {
			words[k] = v
		}
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i].Key) != len(phrases[j].Key) {
			return len(phrases[i].Key) > len(phrases[j].Key)
		}
		return phrases[i].Key < phrases[j].Key
	})
	return phrases, words
}

// fuzzyCandidateMinLen filters glossary candidates for the fuzzy/phonetic
// tiers; only words longer than this participate.
const fuzzyCandidateMinLen = 5

// correctionCandidates builds the candidate word list for the fuzzy and
// phonetic tiers: all single-word user-dictionary originals plus the long
// single words of the built-in glossary (keys and canonical forms). The
// replacements map resolves a matched candidate to the text to emit.
func correctionCandidates(userDict map[string]string) (candidates []string, replacements map[string]string) {
	replacements = make(map[string]string)

	add := func(cand, repl string) {
		cand = strings.ToLower(strings.TrimSpace(cand))
		if cand == "" || strings.ContainsRune(cand, ' ') {
			return
		}
		if _, ok := replacements[cand]; ok {
			return
		}
		replacements[cand] = repl
		candidates = append(candidates, cand)
	}

	// User entries first: they take precedence over glossary candidates.
	userKeys := make([]string, 0, len(userDict))
	for k := range userDict {
		userKeys = append(userKeys, k)
	}
	sort.Strings(userKeys)
	for _, k := range userKeys {
		add(k, userDict[k])
	}

	for _, e := range glossary.Merged(nil) {
		if len([]rune(e.Key)) > fuzzyCandidateMinLen {
			add(e.Key, e.Replacement)
		}
		v := strings.ToLower(e.Replacement)
		if len([]rune(v)) > fuzzyCandidateMinLen {
			add(v, e.Replacement)
		}
	}
	return candidates, replacements
}

// punctRule is a compiled spoken-punctuation rule.
type punctRule struct {
	re   *regexp.Regexp
	repl string
}

// punctRules compiles the glossary punctuation-word table. Rules that
// require a leading space consume it: " punto" becomes "." glued to the
// preceding word.
var punctRules = func() []punctRule {
	rules := make([]punctRule, 0, len(glossary.PunctuationWords))
	for _, pw := range glossary.PunctuationWords {
		var pattern string
		if pw.LeadingSpace {
			pattern = `(?i)(?:^|[ \t])` + regexp.QuoteMeta(pw.Phrase) + `\b`
		} else {
			pattern = `(?i)\b` + regexp.QuoteMeta(pw.Phrase) + `\b`
		}
		rules = append(rules, punctRule{
			re:   regexp.MustCompile(pattern),
			repl: pw.Replacement,
		})
	}
	return rules
}()

// translatePunctuation rewrites spoken punctuation phrases in table order.
func translatePunctuation(text string) string {
	for _, r := range punctRules {
		text = r.re.ReplaceAllLiteralString(text, r.repl)
	}
	return text
}

// glueAfterPunctRe finds clause punctuation glued to a following letter.
// Letters only: digits stay attached so decimals ("3.5") survive.
var glueAfterPunctRe = regexp.MustCompile(`([.,;:!?])(\p{L})`)

// normalizeSpacing repairs spacing around punctuation left by earlier
// stages: a space is inserted after clause punctuation glued to a letter and
// stray spaces before punctuation are removed.
func normalizeSpacing(text string) string {
	text = glueAfterPunctRe.ReplaceAllString(text, "$1 $2")
	return token.CollapseSpaces(text)
}

// capitalize applies context-aware casing: the fragment's first letter
// follows the end of the preceding document text, and sentence starts inside
// the fragment are uppercased.
func capitalize(text, preceding string) string {
	trimmed := strings.TrimRight(preceding, " \t")
	switch {
	case strings.TrimSpace(preceding) == "":
		text = token.UpperFirst(strings.TrimLeft(text, " "))
	case strings.HasSuffix(trimmed, "\n"):
		text = token.UpperFirst(strings.TrimLeft(text, " "))
	case endsWithSentencePunct(trimmed):
		text = token.UpperFirst(strings.TrimLeft(text, " "))
	case strings.HasSuffix(trimmed, ","):
		text = token.LowerFirst(strings.TrimLeft(text, " "))
	}
	return capitalizeSentences(text)
}

func endsWithSentencePunct(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == '.' || r == '!' || r == '?'
}

// capitalizeSentences uppercases the first letter after sentence punctuation
// followed by whitespace, and after any newline.
func capitalizeSentences(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	capNext := false
	afterStop := false
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			afterStop = true
		case r == '\n':
			capNext = true
			afterStop = false
		case unicode.IsSpace(r):
			if afterStop {
				capNext = true
				afterStop = false
			}
		default:
			if capNext && unicode.IsLetter(r) {
				r = unicode.ToUpper(r)
			}
			capNext = false
			afterStop = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
