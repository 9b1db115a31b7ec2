package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; server address,
// TLS, and storage changes require a restart.
type ConfigDiff struct {
	LogLevelChanged  bool
	NewLogLevel      LogLevel
	PipelineChanged  bool
	LearningChanged  bool
	TemplatesChanged bool
	TemplateChanges  []TemplateDiff
}

// TemplateDiff describes what changed for a single template.
type TemplateDiff struct {
	Name    string
	Added   bool
	Removed bool
	Edited  bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !equalFillers(old.Pipeline.ExtraFillers, new.Pipeline.ExtraFillers) ||
		!equalPatterns(old.Pipeline.SilentErrors, new.Pipeline.SilentErrors) {
		d.PipelineChanged = true
	}

	if old.Learning != new.Learning {
		d.LearningChanged = true
	}

	oldTpl := make(map[string]string, len(old.Templates))
	for _, t := range old.Templates {
		oldTpl[t.Name] = t.Content
	}
	newTpl := make(map[string]string, len(new.Templates))
	for _, t := range new.Templates {
		newTpl[t.Name] = t.Content
	}

	for _, t := range old.Templates {
		content, exists := newTpl[t.Name]
		switch {
		case !exists:
			d.TemplateChanges = append(d.TemplateChanges, TemplateDiff{Name: t.Name, Removed: true})
		case content != t.Content:
			d.TemplateChanges = append(d.TemplateChanges, TemplateDiff{Name: t.Name, Edited: true})
		}
	}
	for _, t := range new.Templates {
		if _, exists := oldTpl[t.Name]; !exists {
			d.TemplateChanges = append(d.TemplateChanges, TemplateDiff{Name: t.Name, Added: true})
		}
	}
	d.TemplatesChanged = len(d.TemplateChanges) > 0

	return d
}

func equalFillers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalPatterns(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
