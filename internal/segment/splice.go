package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/voxmed/voxmed/internal/segment/token"
)

// Document is the report text plus the current selection. SelStart and
// SelEnd are byte offsets into Text; a collapsed selection (SelStart ==
// SelEnd) is the caret position.
type Document struct {
	Text     string `json:"text"`
	SelStart int    `json:"selStart"`
	SelEnd   int    `json:"selEnd"`
}

// Caret returns a document whose selection is collapsed at its end.
func (d Document) Caret() Document {
	d.SelStart = d.SelEnd
	return d
}

// clamp repairs out-of-range or inverted selections.
func (d Document) clamp() Document {
	if d.SelStart < 0 {
		d.SelStart = 0
	}
	if d.SelEnd < d.SelStart {
		d.SelEnd = d.SelStart
	}
	if d.SelStart > len(d.Text) {
		d.SelStart = len(d.Text)
	}
	if d.SelEnd > len(d.Text) {
		d.SelEnd = len(d.Text)
	}
	return d
}

// Command identifies a recognised voice command that the caller must act on.
type Command int

const (
	// CommandNone means the fragment was ordinary dictation.
	CommandNone Command = iota
	// CommandUndo asks the caller to restore the pre-fragment document.
	CommandUndo
)

// TemplateLookup resolves a spoken template name to its content. A miss
// returns ok=false and the spoken phrase is dictated literally.
type TemplateLookup func(name string) (content string, ok bool)

// Voice-command phrases are matched against the whole processed fragment,
// case-insensitively but with exact accents: "borrar ultima palabra" is
// dictation, not a command.
var (
	insertTemplateRe = regexp.MustCompile(`(?i)^insertar plantilla (.+?)\.?$`)
	deleteWordRe     = regexp.MustCompile(`(?i)^borrar última palabra\.?$`)
	deleteLineRe     = regexp.MustCompile(`(?i)^borrar (?:línea|párrafo)\.?$`)
	undoRe           = regexp.MustCompile(`(?i)^deshacer(?: dictado)?\.?$`)
)

// ApplyFragment interprets one processed fragment against the document:
// either a voice command (executed, or signalled via the returned [Command])
// or ordinary dictation spliced at the selection. The returned document has
// a collapsed selection after the inserted text.
func (p *Processor) ApplyFragment(doc Document, fragment string, templates TemplateLookup) (Document, Command) {
	doc = doc.clamp()
	trimmed := strings.TrimSpace(fragment)

	switch {
	case undoRe.MatchString(trimmed):
		return doc, CommandUndo

	case deleteWordRe.MatchString(trimmed):
		return deleteLastWord(doc), CommandNone

	case deleteLineRe.MatchString(trimmed):
		return deleteLastLine(doc), CommandNone

	default:
		if m := insertTemplateRe.FindStringSubmatch(trimmed); m != nil && templates != nil {
			if content, ok := templates(m[1]); ok {
				return splice(doc, content), CommandNone
			}
		}
		return splice(doc, fragment), CommandNone
	}
}

// splice inserts fragment at the document selection, replacing any selected
// text, with whitespace repair at both seams: punctuation-leading fragments
// pull up against the preceding word, duplicate spaces collapse, and a
// missing space between two word characters is inserted.
func splice(doc Document, fragment string) Document {
	before := doc.Text[:doc.SelStart]
	after := doc.Text[doc.SelEnd:]

	if startsWithClosingPunct(fragment) {
		before = strings.TrimRight(before, " \t")
	}
	if endsWithSpace(before) {
		fragment = strings.TrimLeft(fragment, " ")
	}
	if needsSpace(before, fragment) {
		before += " "
	}
	if endsWithSpace(fragment) {
		after = strings.TrimLeft(after, " ")
	}
	if needsSpace(fragment, after) {
		fragment += " "
	}

	return Document{
		Text:     before + fragment + after,
		SelStart: len(before) + len(fragment),
		SelEnd:   len(before) + len(fragment),
	}
}

// startsWithClosingPunct reports whether s opens with punctuation that glues
// to the preceding word.
func startsWithClosingPunct(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	switch r {
	case '.', ',', ';', ':', '!', '?', ')':
		return true
	}
	return false
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}

// needsSpace reports whether a space must be inserted between left and right:
// the right side starts with a word character and the left side ends with one,
// or with clause punctuation that written text separates by a space.
func needsSpace(left, right string) bool {
	l, _ := utf8.DecodeLastRuneInString(left)
	r, _ := utf8.DecodeRuneInString(right)
	if l == utf8.RuneError || r == utf8.RuneError {
		return false
	}
	if !token.IsWordRune(r) {
		return false
	}
	switch l {
	case '.', ',', ';', ':', '!', '?':
		return true
	}
	return token.IsWordRune(l)
}

// deleteLastWord removes the trailing whitespace-delimited token of the text
// before the selection. Selected text, if any, is kept.
func deleteLastWord(doc Document) Document {
	before := doc.Text[:doc.SelStart]
	rest := doc.Text[doc.SelStart:]

	trimmed := strings.TrimRight(before, " \t\n")
	cut := len(trimmed)
	for cut > 0 {
		r, size := utf8.DecodeLastRuneInString(trimmed[:cut])
		if unicode.IsSpace(r) {
			break
		}
		cut -= size
	}
	before = trimmed[:cut]

	shift := doc.SelStart - len(before)
	return Document{
		Text:     before + rest,
		SelStart: doc.SelStart - shift,
		SelEnd:   doc.SelEnd - shift,
	}
}

// deleteLastLine removes the last line of the text before the selection,
// including its terminating content but keeping the newline that separates
// it from earlier lines.
func deleteLastLine(doc Document) Document {
	before := doc.Text[:doc.SelStart]
	rest := doc.Text[doc.SelStart:]

	trimmed := strings.TrimRight(before, "\n")
	idx := strings.LastIndexByte(trimmed, '\n')
	if idx < 0 {
		before = ""
	} else {
		before = trimmed[:idx+1]
	}

	shift := doc.SelStart - len(before)
	return Document{
		Text:     before + rest,
		SelStart: doc.SelStart - shift,
		SelEnd:   doc.SelEnd - shift,
	}
}
