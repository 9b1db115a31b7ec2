// Package template manages report templates: reusable text blocks inserted
// by voice command and structured field sets assembled into a report
// skeleton.
package template

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Field is one editable slot of a structured template.
type Field struct {
	Name    string `json:"name"`
	Section string `json:"section"`
	// Default is the prefilled normal-finding text.
	Default string `json:"default"`
	// Current is the dictated value; empty means untouched.
	Current string `json:"current"`
	// DisplayOrder sorts fields inside their section.
	DisplayOrder int `json:"displayOrder"`
	// IsRequired marks fields that must hold a value before the report
	// is assembled.
	IsRequired bool `json:"isRequired,omitempty"`
	// Variants lists alternative spoken names that select this field.
	Variants []string `json:"variants,omitempty"`
}

// IsEdited reports whether the field has been changed from its default.
func (f Field) IsEdited() bool {
	return f.Current != "" && f.Current != f.Default
}

// Matches reports whether spoken names this field, by its name or any of
// its variants, case-insensitively.
func (f Field) Matches(spoken string) bool {
	spoken = strings.TrimSpace(spoken)
	if strings.EqualFold(spoken, f.Name) {
		return true
	}
	for _, v := range f.Variants {
		if strings.EqualFold(spoken, v) {
			return true
		}
	}
	return false
}

// Value returns the text the report should show: the dictated value when
// present, the default otherwise.
func (f Field) Value() string {
	if f.Current != "" {
		return f.Current
	}
	return f.Default
}

// Template is a named report template.
type Template struct {
	Name    string  `json:"name"`
	Content string  `json:"content"`
	Fields  []Field `json:"fields,omitempty"`
}

// Store holds templates keyed case-insensitively by name, so the spoken
// "insertar plantilla Tórax Normal" finds "tórax normal". Safe for
// concurrent use.
type Store struct {
	mu     sync.RWMutex
	byName map[string]Template
}

// NewStore returns an empty template store.
func NewStore() *Store {
	return &Store{byName: make(map[string]Template)}
}

// Put inserts or replaces a template.
func (s *Store) Put(t Template) error {
	key := strings.ToLower(strings.TrimSpace(t.Name))
	if key == "" {
		return fmt.Errorf("template: name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[key] = t
	return nil
}

// Get returns the template with the given name, case-insensitively.
func (s *Store) Get(name string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Remove deletes a template; removing an unknown name is a no-op.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byName, strings.ToLower(strings.TrimSpace(name)))
}

// Names lists the stored template names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.byName))
	for _, t := range s.byName {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a spoken template name to its content. The signature
// matches the segment pipeline's template hook.
func (s *Store) Lookup(name string) (string, bool) {
	t, ok := s.Get(name)
	if !ok {
		return "", false
	}
	return t.Content, true
}

// MissingRequired lists the names of required fields that hold no value.
// An empty result means the field set is ready to assemble.
func MissingRequired(fields []Field) []string {
	var missing []string
	for _, f := range fields {
		if f.IsRequired && f.Value() == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Assemble renders a field set into report text. Sections appear in the
// order they are first seen in fields; inside a section fields sort by
// DisplayOrder (stable, so equal orders keep their input order). Each
// section renders as a header line followed by the field values.
func Assemble(fields []Field) string {
	var sections []string
	bySection := make(map[string][]Field)
	for _, f := range fields {
		if _, seen := bySection[f.Section]; !seen {
			sections = append(sections, f.Section)
		}
		bySection[f.Section] = append(bySection[f.Section], f)
	}

	var b strings.Builder
	for si, section := range sections {
		if si > 0 {
			b.WriteString("\n")
		}
		if section != "" {
			b.WriteString(section)
			b.WriteString(":\n")
		}

		fs := bySection[section]
		sort.SliceStable(fs, func(i, j int) bool {
			return fs[i].DisplayOrder < fs[j].DisplayOrder
		})
		for _, f := range fs {
			if v := f.Value(); v != "" {
				b.WriteString(v)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
