// Package silenterr corrects silent speech-recognition errors: compound
// medical terms the recogniser splits or joins in ways that read as valid
// words and therefore survive ordinary spell checking ("hipo ecogénico" for
// "hipoecogénico", "bi rads" for "BI-RADS").
//
// The correction table is fixed at construction and may only grow at runtime
// via [Detector.Extend]; existing patterns are never changed or removed.
package silenterr

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/voxmed/voxmed/internal/segment/token"
)

// builtinPatterns maps a misheard segmentation to its written form.
// Keys are lowercase; matching is case-insensitive and word-boundary safe.
var builtinPatterns = map[string]string{
	"hipo ecogénico":      "hipoecogénico",
	"hipo ecogenico":      "hipoecogénico",
	"hipo ecogénica":      "hipoecogénica",
	"hiper ecogénico":     "hiperecogénico",
	"hiper ecogénica":     "hiperecogénica",
	"iso ecogénico":       "isoecogénico",
	"iso ecogénica":       "isoecogénica",
	"hipo denso":          "hipodenso",
	"hipo densa":          "hipodensa",
	"hiper denso":         "hiperdenso",
	"hiper densa":         "hiperdensa",
	"hipo intenso":        "hipointenso",
	"hiper intenso":       "hiperintenso",
	"hipo captante":       "hipocaptante",
	"hiper captante":      "hipercaptante",
	"bi rads":             "BI-RADS",
	"birads":              "BI-RADS",
	"ti rads":             "TI-RADS",
	"pi rads":             "PI-RADS",
	"retro peritoneal":    "retroperitoneal",
	"retro peritoneo":     "retroperitoneo",
	"para vertebral":      "paravertebral",
	"peri renal":          "perirrenal",
	"intra abdominal":     "intraabdominal",
	"intra hepático":      "intrahepático",
	"intra hepática":      "intrahepática",
	"extra hepático":      "extrahepático",
	"supra renal":         "suprarrenal",
	"colangio resonancia": "colangiorresonancia",
	"uro tac":             "uro-TAC",
	"angio tac":           "angio-TAC",
}

// Detector applies the silent-error correction table.
// All methods are safe for concurrent use.
type Detector struct {
	mu sync.RWMutex

	patterns map[string]string

	// ordered caches pattern keys longest-first so longer, more specific
	// patterns are applied before any shorter prefix of themselves.
	ordered []string
}

// New returns a [Detector] loaded with the built-in pattern table.
func New() *Detector {
	d := &Detector{patterns: make(map[string]string, len(builtinPatterns))}
	for p, c := range builtinPatterns {
		d.patterns[p] = c
	}
	d.reorder()
	return d
}

// Extend registers an additional pattern→correction pair at runtime.
// The pattern is keyed lowercase. Registering a pattern that already exists
// (built-in or previously extended) returns an error and changes nothing.
func (d *Detector) Extend(pattern, correction string) error {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	correction = strings.TrimSpace(correction)
	if pattern == "" || correction == "" {
		return fmt.Errorf("silenterr: pattern and correction must not be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.patterns[pattern]; exists {
		return fmt.Errorf("silenterr: pattern %q already registered", pattern)
	}
	d.patterns[pattern] = correction
	d.reorder()
	return nil
}

// Apply rewrites every known silent error in text, longest pattern first.
// Text without any known pattern is returned unchanged.
func (d *Detector) Apply(text string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, p := range d.ordered {
		text = token.ReplaceWord(text, p, d.patterns[p])
	}
	return text
}

// Len returns the number of registered patterns.
func (d *Detector) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.patterns)
}

// reorder rebuilds the longest-first key ordering. Callers must hold mu.
func (d *Detector) reorder() {
	d.ordered = d.ordered[:0]
	for p := range d.patterns {
		d.ordered = append(d.ordered, p)
	}
	sort.Slice(d.ordered, func(i, j int) bool {
		if len(d.ordered[i]) != len(d.ordered[j]) {
			return len(d.ordered[i]) > len(d.ordered[j])
		}
		return d.ordered[i] < d.ordered[j]
	})
}
