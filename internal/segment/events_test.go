package segment_test

import (
	"testing"

	"github.com/voxmed/voxmed/internal/segment"
)

func TestApplyEvent_DropsInterimAndStale(t *testing.T) {
	t.Parallel()

	p := segment.New()
	st := segment.State{LastTimestamp: 100}
	doc := segment.Document{Text: "Bazo normal", SelStart: 11, SelEnd: 11}

	tests := []struct {
		name string
		ev   segment.Event
	}{
		{"interim hypothesis", segment.Event{Text: "hígado", IsFinal: false, Timestamp: 200}},
		{"duplicate timestamp", segment.Event{Text: "hígado", IsFinal: true, Timestamp: 100}},
		{"stale timestamp", segment.Event{Text: "hígado", IsFinal: true, Timestamp: 99}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotSt, gotDoc, cmd, applied := p.ApplyEvent(st, doc, tc.ev, nil, nil)
			if applied {
				t.Fatalf("ApplyEvent(%+v) applied = true, want dropped", tc.ev)
			}
			if gotSt != st || gotDoc != doc || cmd != segment.CommandNone {
				t.Errorf("dropped event changed state: st=%+v doc=%+v cmd=%v", gotSt, gotDoc, cmd)
			}
		})
	}
}

func TestApplyEvent_AppliesFreshFinal(t *testing.T) {
	t.Parallel()

	p := segment.New()

	st, doc, cmd, applied := p.ApplyEvent(segment.State{}, segment.Document{}, segment.Event{
		Text:      "eh el higado es normal",
		IsFinal:   true,
		Timestamp: 150,
	}, nil, nil)

	if !applied || cmd != segment.CommandNone {
		t.Fatalf("ApplyEvent = (applied=%v, cmd=%v), want (true, CommandNone)", applied, cmd)
	}
	if st.LastTimestamp != 150 {
		t.Errorf("LastTimestamp = %d, want 150", st.LastTimestamp)
	}
	if doc.Text != "El hígado es normal" {
		t.Errorf("Text = %q, want %q", doc.Text, "El hígado es normal")
	}
	if doc.SelStart != len(doc.Text) || doc.SelEnd != len(doc.Text) {
		t.Errorf("selection = [%d,%d], want caret at end", doc.SelStart, doc.SelEnd)
	}
}

func TestApplyEvent_CommandPassesThroughPipeline(t *testing.T) {
	t.Parallel()

	p := segment.New()
	doc := segment.Document{Text: "Bazo normal", SelStart: 11, SelEnd: 11}

	// The pipeline capitalises the fragment; command matching stays
	// case-insensitive.
	st, gotDoc, cmd, applied := p.ApplyEvent(segment.State{}, doc, segment.Event{
		Text:      "deshacer dictado",
		IsFinal:   true,
		Timestamp: 10,
	}, nil, nil)

	if !applied || cmd != segment.CommandUndo {
		t.Fatalf("ApplyEvent = (applied=%v, cmd=%v), want (true, CommandUndo)", applied, cmd)
	}
	if gotDoc != doc {
		t.Errorf("undo event modified document: %+v", gotDoc)
	}
	if st.LastTimestamp != 10 {
		t.Errorf("LastTimestamp = %d, want 10", st.LastTimestamp)
	}
}

func TestApplyEvent_SequentialSegments(t *testing.T) {
	t.Parallel()

	p := segment.New()

	var st segment.State
	var doc segment.Document
	events := []segment.Event{
		{Text: "higado normal punto", IsFinal: true, Timestamp: 1},
		{Text: "bazo normal punto", IsFinal: true, Timestamp: 2},
	}
	for _, ev := range events {
		var applied bool
		st, doc, _, applied = p.ApplyEvent(st, doc, ev, nil, nil)
		if !applied {
			t.Fatalf("event %+v not applied", ev)
		}
	}

	want := "Hígado normal. Bazo normal."
	if doc.Text != want {
		t.Errorf("Text = %q, want %q", doc.Text, want)
	}
}
