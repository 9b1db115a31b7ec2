package aicorrect_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxmed/voxmed/internal/aicorrect"
	"github.com/voxmed/voxmed/pkg/provider/llm"
	"github.com/voxmed/voxmed/pkg/provider/llm/mock"
)

func TestCorrect(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "el bazo es normal"},
	}
	c := aicorrect.New(p, aicorrect.WithTemperature(0.2), aicorrect.WithMaxTokens(512))

	got, err := c.Correct(context.Background(), "el baso es normal", map[string]string{"baso": "bazo"})
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "el bazo es normal" {
		t.Errorf("Correct = %q, want model output", got)
	}

	if len(p.CompleteCalls) != 1 {
		t.Fatalf("Complete called %d times, want 1", len(p.CompleteCalls))
	}
	req := p.CompleteCalls[0].Req
	if req.Temperature != 0.2 || req.MaxTokens != 512 {
		t.Errorf("request tuning = (%v, %d), want (0.2, 512)", req.Temperature, req.MaxTokens)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "el baso es normal" {
		t.Errorf("request messages = %+v, want the report text as single user message", req.Messages)
	}
	if !strings.Contains(req.SystemPrompt, "baso → bazo") {
		t.Errorf("system prompt missing user dictionary hint:\n%s", req.SystemPrompt)
	}
}

func TestCorrect_EmptyInputSkipsProvider(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	c := aicorrect.New(p)

	got, err := c.Correct(context.Background(), "   ", nil)
	if err != nil || got != "   " {
		t.Errorf("Correct(blank) = (%q, %v), want passthrough", got, err)
	}
	if len(p.CompleteCalls) != 0 {
		t.Errorf("Complete called %d times, want 0", len(p.CompleteCalls))
	}
}

func TestCorrect_StripsMarkdownFences(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "```text\nel bazo es normal\n```"},
	}
	c := aicorrect.New(p)

	got, err := c.Correct(context.Background(), "el baso es normal", nil)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "el bazo es normal" {
		t.Errorf("Correct = %q, want fences stripped", got)
	}
}

func TestCorrect_ImplausibleResponseKeepsOriginal(t *testing.T) {
	t.Parallel()

	original := "el baso es normal"
	responses := []string{
		"",
		"   ",
		strings.Repeat("palabras de relleno ", 50),
	}
	for _, resp := range responses {
		p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: resp}}
		c := aicorrect.New(p)

		got, err := c.Correct(context.Background(), original, nil)
		if err != nil {
			t.Fatalf("Correct: %v", err)
		}
		if got != original {
			t.Errorf("Correct with response %q = %q, want original kept", resp, got)
		}
	}
}

func TestCorrect_ProviderErrorReturnsOriginal(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("backend down")
	p := &mock.Provider{CompleteErr: backendErr}
	c := aicorrect.New(p)

	got, err := c.Correct(context.Background(), "el baso es normal", nil)
	if !errors.Is(err, backendErr) {
		t.Fatalf("Correct error = %v, want wrapped backend error", err)
	}
	if got != "el baso es normal" {
		t.Errorf("Correct = %q, want original text alongside the error", got)
	}
}

func TestCorrectSentinel_SubmitsOnlyTail(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			fixed := strings.ReplaceAll(req.Messages[0].Content, "baso", "bazo")
			return &llm.CompletionResponse{Content: fixed}, nil
		},
	}
	c := aicorrect.New(p)

	sentinel := "Hígado normal."
	text := sentinel + " El baso es normal."

	corrected, newSentinel, err := c.CorrectSentinel(context.Background(), text, sentinel, nil)
	if err != nil {
		t.Fatalf("CorrectSentinel: %v", err)
	}
	if want := "Hígado normal. El bazo es normal."; corrected != want {
		t.Errorf("corrected = %q, want %q", corrected, want)
	}
	if newSentinel != corrected {
		t.Errorf("newSentinel = %q, want the corrected document", newSentinel)
	}

	if len(p.CompleteCalls) != 1 {
		t.Fatalf("Complete called %d times, want 1", len(p.CompleteCalls))
	}
	if got := p.CompleteCalls[0].Req.Messages[0].Content; strings.Contains(got, "Hígado") {
		t.Errorf("submitted text %q includes the sentinel prefix", got)
	}
}

func TestCorrectSentinel_FallsBackOnEditedPrefix(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: req.Messages[0].Content}, nil
		},
	}
	c := aicorrect.New(p)

	text := "Documento editado por el usuario."
	_, _, err := c.CorrectSentinel(context.Background(), text, "Prefijo que ya no existe.", nil)
	if err != nil {
		t.Fatalf("CorrectSentinel: %v", err)
	}
	if got := p.CompleteCalls[0].Req.Messages[0].Content; got != text {
		t.Errorf("submitted %q, want the whole document after a sentinel mismatch", got)
	}
}

func TestCorrectSentinel_NothingNewSkipsProvider(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	c := aicorrect.New(p)

	text := "Hígado normal."
	corrected, newSentinel, err := c.CorrectSentinel(context.Background(), text, text, nil)
	if err != nil {
		t.Fatalf("CorrectSentinel: %v", err)
	}
	if corrected != text || newSentinel != text {
		t.Errorf("CorrectSentinel = (%q, %q), want unchanged document", corrected, newSentinel)
	}
	if len(p.CompleteCalls) != 0 {
		t.Errorf("Complete called %d times, want 0", len(p.CompleteCalls))
	}
}

func TestCorrectSentinel_ErrorKeepsSentinel(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("backend down")
	p := &mock.Provider{CompleteErr: backendErr}
	c := aicorrect.New(p)

	sentinel := "Hígado normal."
	text := sentinel + " El baso es normal."
	corrected, newSentinel, err := c.CorrectSentinel(context.Background(), text, sentinel, nil)
	if !errors.Is(err, backendErr) {
		t.Fatalf("error = %v, want backend error", err)
	}
	if corrected != text || newSentinel != sentinel {
		t.Errorf("CorrectSentinel = (%q, %q), want (original text, old sentinel)", corrected, newSentinel)
	}
}
