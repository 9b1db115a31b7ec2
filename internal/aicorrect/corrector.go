// Package aicorrect implements the language-model-based report correction
// pass that resolves recognition errors the deterministic pipeline cannot:
// context-dependent word choices, agreement across sentences, and domain
// terms outside every dictionary.
//
// The [Corrector] sends report text to an [llm.Provider] with a
// conservative system prompt: fix only clear recognition errors, never
// restyle. It runs on demand or in the background, never on the real-time
// dictation path. When the model response is unusable the corrector returns
// the original text unchanged rather than surfacing an error, so a flaky
// backend can never corrupt a report.
package aicorrect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	llm "github.com/voxmed/voxmed/pkg/provider/llm"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 4096
)

// Mode selects how much of the document each pass submits.
type Mode string

const (
	// ModeStandard submits the whole document every pass.
	ModeStandard Mode = "standard"
	// ModeSentinel submits only the text dictated since the last pass,
	// cutting token cost on long reports.
	ModeSentinel Mode = "sentinel"
)

// systemPromptTemplate is the base system prompt. The user dictionary is
// appended at call time so each request carries the radiologist's own
// terminology.
const systemPromptTemplate = `Eres un asistente de corrección de informes radiológicos dictados en español.

Tu tarea: corregir únicamente errores de reconocimiento de voz en el texto proporcionado.

Reglas:
- Corrige SOLO palabras que claramente son errores de reconocimiento de términos médicos.
- NO cambies el estilo, la estructura de las frases ni el contenido clínico.
- NO añadas ni elimines hallazgos.
- Sé conservador: ante la duda, deja la palabra sin cambiar.
- Conserva la puntuación, los saltos de línea y las mayúsculas del original.
- Usa la grafía exacta del vocabulario del usuario cuando corresponda.
%s
Responde ÚNICAMENTE con el texto corregido, sin comentarios ni formato markdown.`

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithTemperature sets the sampling temperature. Lower values produce more
// deterministic corrections. Default: 0.1.
func WithTemperature(temp float64) Option {
	return func(c *Corrector) {
		c.temperature = temp
	}
}

// WithMaxTokens caps the completion length. Default: 4096.
func WithMaxTokens(n int) Option {
	return func(c *Corrector) {
		c.maxTokens = n
	}
}

// Corrector runs AI-assisted correction passes over report text. It is safe
// for concurrent use.
//
// Model selection follows the one-provider-per-model pattern: construct the
// [llm.Provider] with the desired model rather than overriding per request.
type Corrector struct {
	llm         llm.Provider
	temperature float64
	maxTokens   int
}

// New returns a [Corrector] backed by the given provider.
func New(provider llm.Provider, opts ...Option) *Corrector {
	c := &Corrector{
		llm:         provider,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct runs a standard-mode pass: the whole text is submitted and the
// corrected text returned. userDict entries are offered to the model as the
// authoritative spellings.
//
// An empty or unusable model response yields the original text with a nil
// error. Context cancellation and transport failures are returned as
// errors, also with the original text, so callers can always use the first
// return value.
func (c *Corrector) Correct(ctx context.Context, text string, userDict map[string]string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	req := llm.CompletionRequest{
		SystemPrompt: buildSystemPrompt(userDict),
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
		Messages: []llm.Message{
			{Role: "user", Content: text},
		},
	}

	resp, err := c.llm.Complete(ctx, req)
	if err != nil {
		return text, fmt.Errorf("aicorrect: complete: %w", err)
	}

	corrected := stripMarkdown(resp.Content)
	if !plausible(text, corrected) {
		// The model answered with prose, an apology, or nothing.
		return text, nil
	}
	return corrected, nil
}

// CorrectSentinel runs a sentinel-mode pass: only the text dictated since
// the last pass is submitted. sentinel is the document prefix already
// corrected by the previous pass (empty on the first call). It returns the
// full corrected document and the new sentinel to store.
//
// When the document no longer starts with the sentinel, because the user
// edited earlier text, the pass falls back to the whole document.
func (c *Corrector) CorrectSentinel(ctx context.Context, text, sentinel string, userDict map[string]string) (corrected, newSentinel string, err error) {
	prefix := ""
	tail := text
	if sentinel != "" && strings.HasPrefix(text, sentinel) {
		prefix = sentinel
		tail = text[len(sentinel):]
	}

	if strings.TrimSpace(tail) == "" {
		return text, text, nil
	}

	// Correct trims its result, so the whitespace joining prefix and tail
	// is carried separately.
	trimmed := strings.TrimLeft(tail, " \t\n")
	seam := tail[:len(tail)-len(trimmed)]

	fixedTail, err := c.Correct(ctx, trimmed, userDict)
	if err != nil {
		return text, sentinel, err
	}

	corrected = prefix + seam + fixedTail
	return corrected, corrected, nil
}

// buildSystemPrompt formats the system prompt with the user dictionary as
// spelling hints, sorted for deterministic prompts.
func buildSystemPrompt(userDict map[string]string) string {
	if len(userDict) == 0 {
		return fmt.Sprintf(systemPromptTemplate, "")
	}

	keys := make([]string, 0, len(userDict))
	for k := range userDict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("\nVocabulario del usuario (forma oída → forma correcta):\n")
	for _, k := range keys {
		sb.WriteString("- ")
		sb.WriteString(k)
		sb.WriteString(" → ")
		sb.WriteString(userDict[k])
		sb.WriteByte('\n')
	}
	return fmt.Sprintf(systemPromptTemplate, sb.String())
}

// plausible rejects model responses that cannot be a corrected version of
// the input: empty output or an output whose length diverges wildly from
// the original.
func plausible(original, corrected string) bool {
	if strings.TrimSpace(corrected) == "" {
		return false
	}
	ol, cl := len(original), len(corrected)
	return cl <= 2*ol+64 && 2*cl+64 >= ol
}

// stripMarkdown removes optional markdown code fences that some models wrap
// around their output despite instructions.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```text", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
