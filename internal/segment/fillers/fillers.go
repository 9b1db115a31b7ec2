// Package fillers removes spoken filler tokens ("eh", "o sea", "este"…) from
// dictated Spanish fragments. Matching is boundary-safe and case-insensitive,
// so a filler is only removed when it stands alone as a word; "eh" never eats
// into "ehco" or any larger token.
package fillers

import (
	"strings"

	"github.com/voxmed/voxmed/internal/segment/token"
)

// defaultFillers lists the filler tokens stripped by a zero-option Cleaner,
// longest first so multi-word fillers win over their single-word prefixes.
var defaultFillers = []string{
	"o sea",
	"a ver",
	"es decir",
	"este",
	"esteee",
	"ehm",
	"eeh",
	"ehh",
	"eh",
	"em",
	"mmm",
	"mm",
	"aja",
	"ajá",
}

// Cleaner strips filler tokens from transcript fragments.
// It is read-only after construction and safe for concurrent use.
type Cleaner struct {
	fillers []string
}

// Option is a functional option for configuring a [Cleaner].
type Option func(*Cleaner)

// WithExtra appends additional filler tokens to the built-in list. Extra
// tokens are matched after the built-ins and are lowercased on registration.
func WithExtra(fillers ...string) Option {
	return func(c *Cleaner) {
		for _, f := range fillers {
			f = strings.ToLower(strings.TrimSpace(f))
			if f != "" {
				c.fillers = append(c.fillers, f)
			}
		}
	}
}

// New returns a [Cleaner] with the built-in Spanish filler list plus any
// options applied.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{fillers: append([]string(nil), defaultFillers...)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Clean removes every filler token from text as a whole word, collapses the
// double spaces left behind, and drops any space stranded before punctuation.
// Empty or whitespace-only input is returned unchanged.
func (c *Cleaner) Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	for _, f := range c.fillers {
		text = token.ReplaceWord(text, f, "")
	}
	return strings.Trim(token.CollapseSpaces(text), " \t")
}
