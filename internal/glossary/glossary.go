// Package glossary holds the static domain tables for Spanish radiology
// dictation: the built-in term glossary, acronym boosts, dictation contexts,
// and the spoken-punctuation map. All tables are immutable process-wide
// constants; per-user vocabulary is merged in at call time and always wins
// over the built-ins.
package glossary

import (
	"sort"
	"strings"
)

// Terms is the built-in glossary: lowercase misrecognised form → written
// clinical form. Entries may be single words or multi-word phrases.
var Terms = map[string]string{
	// Accent restoration on organs and common findings.
	"higado":                      "hígado",
	"rinon":                       "riñón",
	"rinones":                     "riñones",
	"bazo":                        "bazo",
	"pancreas":                    "páncreas",
	"vesicula":                    "vesícula",
	"torax":                       "tórax",
	"abdomen":                     "abdomen",
	"pelvis":                      "pelvis",
	"colon":                       "colon",
	"utero":                       "útero",
	"prostata":                    "próstata",
	"vejiga":                      "vejiga",
	"tiroides":                    "tiroides",
	"ganglio":                     "ganglio",
	"ganglios":                    "ganglios",
	"lesion":                      "lesión",
	"lesiones":                    "lesiones",
	"nodulo":                      "nódulo",
	"nodulos":                     "nódulos",
	"quiste":                      "quiste",
	"calcificacion":               "calcificación",
	"ecografia":                   "ecografía",
	"radiografia":                 "radiografía",
	"tomografia":                  "tomografía",
	"resonancia":                  "resonancia",
	"mamografia":                  "mamografía",
	"ecogenicidad":                "ecogenicidad",
	"parenquima":                  "parénquima",
	"via biliar":                  "vía biliar",
	"coledoco":                    "colédoco",
	"aorta":                       "aorta",
	"adenopatia":                  "adenopatía",
	"adenopatias":                 "adenopatías",
	"esplenico":                   "esplénico",
	"hepatico":                    "hepático",
	"hepatica":                    "hepática",
	"renal":                       "renal",
	"vesicular":                   "vesicular",
	"litiasis":                    "litiasis",
	"colelitiasis":                "colelitiasis",
	"esteatosis":                  "esteatosis",
	"derrame":                     "derrame",
	"neumotorax":                  "neumotórax",
	"atelectasia":                 "atelectasia",
	"condensacion":                "condensación",
	"infiltrado":                  "infiltrado",
	"cardiomegalia":               "cardiomegalia",
	"diametro":                    "diámetro",
	"morfologia":                  "morfología",
	"ecoestructura":               "ecoestructura",
	"liquido libre":               "líquido libre",
	"asas intestinales":           "asas intestinales",
	"glandula suprarrenal":        "glándula suprarrenal",
	"vena porta":                  "vena porta",
	"vesicula biliar":             "vesícula biliar",
	"sin alteraciones":            "sin alteraciones",
	"de caracteristicas normales": "de características normales",
}

// Acronyms maps phonetic spellings of common imaging acronyms to their
// written form. Applied boundary-matched and case-insensitive.
var Acronyms = map[string]string{
	"tece":        "TC",
	"te ce":       "TC",
	"erre eme":    "RM",
	"erre equis":  "RX",
	"pet tac":     "PET-TAC",
	"eco doppler": "eco-Doppler",
	"i ve":        "IV",
}

// PunctuationWord is one spoken-punctuation rule. Rules with LeadingSpace
// only match when preceded by whitespace or the start of the string, so the
// word "coma" inside "glasgow coma" dictated mid-word is never punctuated.
type PunctuationWord struct {
	Phrase       string
	Replacement  string
	LeadingSpace bool
}

// PunctuationWords is the ordered spoken-punctuation table. Longer phrases
// come first; the order is part of the contract ("punto y aparte" must be
// tried before "punto").
var PunctuationWords = []PunctuationWord{
	{Phrase: "punto y aparte", Replacement: ".\n", LeadingSpace: true},
	{Phrase: "punto y seguido", Replacement: ". ", LeadingSpace: true},
	{Phrase: "punto y coma", Replacement: ";", LeadingSpace: true},
	{Phrase: "dos puntos", Replacement: ":", LeadingSpace: true},
	{Phrase: "punto", Replacement: ".", LeadingSpace: true},
	{Phrase: "coma", Replacement: ",", LeadingSpace: true},
	{Phrase: "abrir paréntesis", Replacement: " (", LeadingSpace: false},
	{Phrase: "cerrar paréntesis", Replacement: ") ", LeadingSpace: false},
	{Phrase: "nueva línea", Replacement: "\n", LeadingSpace: true},
	{Phrase: "guion", Replacement: "-", LeadingSpace: true},
}

// Context describes a dictation context recognised from recent text.
type Context struct {
	ID         string
	Name       string
	Keywords   []string
	BoostTerms []string
}

// Contexts is the static context table.
var Contexts = []Context{
	{
		ID:         "abdominal",
		Name:       "Ecografía abdominal",
		Keywords:   []string{"hígado", "bazo", "páncreas", "vesícula", "riñón", "abdomen"},
		BoostTerms: []string{"ecogenicidad", "colédoco", "esteatosis", "líquido libre"},
	},
	{
		ID:         "toracico",
		Name:       "Radiología torácica",
		Keywords:   []string{"tórax", "pulmón", "pleural", "mediastino", "cardiomegalia"},
		BoostTerms: []string{"neumotórax", "atelectasia", "condensación", "infiltrado"},
	},
	{
		ID:         "mamario",
		Name:       "Imagen mamaria",
		Keywords:   []string{"mama", "mamografía", "axila", "pezón"},
		BoostTerms: []string{"BI-RADS", "microcalcificaciones", "nódulo"},
	},
	{
		ID:         "urologico",
		Name:       "Imagen urológica",
		Keywords:   []string{"riñón", "vejiga", "próstata", "uréter"},
		BoostTerms: []string{"litiasis", "hidronefrosis", "ectasia"},
	},
	{
		ID:         "tiroideo",
		Name:       "Ecografía tiroidea",
		Keywords:   []string{"tiroides", "lóbulo", "istmo", "cervical"},
		BoostTerms: []string{"TI-RADS", "nódulo", "adenopatías"},
	},
}

// ActiveContext is a context detected in a text window with its confidence.
type ActiveContext struct {
	Context    Context
	Confidence float64
}

// contextWindow is how much trailing text is scanned for context keywords.
const contextWindow = 600

// ActiveContexts scans the tail of text for context keywords and returns
// every context with at least one keyword occurrence. Confidence is
// min(1, occurrences/3).
func ActiveContexts(text string) []ActiveContext {
	window := strings.ToLower(text)
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}

	var active []ActiveContext
	for _, c := range Contexts {
		count := 0
		for _, kw := range c.Keywords {
			count += strings.Count(window, strings.ToLower(kw))
		}
		if count == 0 {
			continue
		}
		conf := float64(count) / 3
		if conf > 1 {
			conf = 1
		}
		active = append(active, ActiveContext{Context: c, Confidence: conf})
	}
	return active
}

// Entry is one merged dictionary entry.
type Entry struct {
	Key         string
	Replacement string
}

// Merged combines the built-in glossary with the user dictionary. User
// entries override built-ins on key collision. The result is ordered by key
// length descending (then lexicographic for determinism) so longer, more
// specific phrases are substituted before any shorter partial match.
func Merged(user map[string]string) []Entry {
	merged := make(map[string]string, len(Terms)+len(user))
	for k, v := range Terms {
		merged[strings.ToLower(k)] = v
	}
	for k, v := range user {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			merged[k] = v
		}
	}

	entries := make([]Entry, 0, len(merged))
	for k, v := range merged {
		entries = append(entries, Entry{Key: k, Replacement: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].Key) != len(entries[j].Key) {
			return len(entries[i].Key) > len(entries[j].Key)
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// IsKnownTerm reports whether word is already a valid dictionary term and
// should therefore be protected from fuzzy or phonetic rewriting. A word is
// known when it equals a key or replacement of the merged dictionary
// exactly, as a naive plural (trailing "s"/"es"), or as a naive regendered
// form (final "o"↔"a").
func IsKnownTerm(word string, user map[string]string) bool {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return false
	}

	known := func(s string) bool {
		if s == "" {
			return false
		}
		if _, ok := Terms[s]; ok {
			return true
		}
		if _, ok := user[s]; ok {
			return true
		}
		for _, v := range Terms {
			if strings.ToLower(v) == s {
				return true
			}
		}
		for _, v := range user {
			if strings.ToLower(v) == s {
				return true
			}
		}
		return false
	}

	if known(w) {
		return true
	}

	// Naive singulars of a pluralised word.
	if s, ok := strings.CutSuffix(w, "es"); ok && known(s) {
		return true
	}
	if s, ok := strings.CutSuffix(w, "s"); ok && known(s) {
		return true
	}

	// Naive regendering.
	if s, ok := strings.CutSuffix(w, "o"); ok && known(s+"a") {
		return true
	}
	if s, ok := strings.CutSuffix(w, "a"); ok && known(s+"o") {
		return true
	}
	return false
}
