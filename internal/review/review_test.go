package review_test

import (
	"errors"
	"testing"

	"github.com/voxmed/voxmed/internal/review"
)

func TestDiff_Reconstruction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		original string
		modified string
	}{
		{"replacement", "el baso es normal", "el bazo es normal"},
		{"insertion", "bazo normal", "bazo muy normal"},
		{"deletion", "bazo muy normal", "bazo normal"},
		{"multiple edits", "higado normal, vaso grande", "hígado normal, bazo grande"},
		{"whitespace change", "bazo  normal", "bazo normal"},
		{"identical", "sin cambios", "sin cambios"},
		{"empty original", "", "texto nuevo"},
		{"empty modified", "texto viejo", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			chunks := review.Diff(tc.original, tc.modified)

			acceptAll := review.Reconstruct(chunks, func(int) bool { return true })
			if acceptAll != tc.modified {
				t.Errorf("accept all = %q, want modified %q", acceptAll, tc.modified)
			}
			rejectAll := review.Reconstruct(chunks, func(int) bool { return false })
			if rejectAll != tc.original {
				t.Errorf("reject all = %q, want original %q", rejectAll, tc.original)
			}
		})
	}
}

func TestDiff_ReplacementChunkOrder(t *testing.T) {
	t.Parallel()

	chunks := review.Diff("el baso es normal", "el bazo es normal")
	want := []review.Chunk{
		{Value: "el "},
		{Value: "baso", Removed: true},
		{Value: "bazo", Added: true},
		{Value: " es normal"},
	}
	if len(chunks) != len(want) {
		t.Fatalf("Diff returned %d chunks %v, want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestDiff_Identical(t *testing.T) {
	t.Parallel()

	if got := review.Diff("", ""); got != nil {
		t.Errorf("Diff(empty, empty) = %v, want nil", got)
	}
	got := review.Diff("sin cambios", "sin cambios")
	if len(got) != 1 || got[0].Added || got[0].Removed {
		t.Errorf("Diff(identical) = %v, want one unchanged chunk", got)
	}
}

func TestExtractPairs(t *testing.T) {
	t.Parallel()

	t.Run("replacement yields a pair", func(t *testing.T) {
		t.Parallel()
		pairs := review.ExtractPairs(review.Diff("el baso es normal", "el bazo es normal"))
		if len(pairs) != 1 || pairs[0] != (review.Pair{Original: "baso", Corrected: "bazo"}) {
			t.Errorf("ExtractPairs = %v, want [{baso bazo}]", pairs)
		}
	})

	t.Run("insertion yields no pair", func(t *testing.T) {
		t.Parallel()
		if pairs := review.ExtractPairs(review.Diff("bazo normal", "bazo muy normal")); len(pairs) != 0 {
			t.Errorf("ExtractPairs(insertion) = %v, want none", pairs)
		}
	})

	t.Run("case only change skipped", func(t *testing.T) {
		t.Parallel()
		if pairs := review.ExtractPairs(review.Diff("el Baso normal", "el baso normal")); len(pairs) != 0 {
			t.Errorf("ExtractPairs(case change) = %v, want none", pairs)
		}
	})
}

func TestSession_ReviewFlow(t *testing.T) {
	t.Parallel()

	s := review.NewSession("el baso es normal", "el bazo es normal")

	if got := s.Changed(); got != 2 {
		t.Fatalf("Changed = %d, want 2", got)
	}
	if got := s.Reconstruct(); got != "el bazo es normal" {
		t.Errorf("pending Reconstruct = %q, want corrected text", got)
	}

	// Reject both sides of the replacement to restore the original.
	var changeIDs []int
	for _, c := range s.Chunks() {
		if c.Chunk.Added || c.Chunk.Removed {
			changeIDs = append(changeIDs, c.ID)
		}
	}
	for _, id := range changeIDs {
		if err := s.Reject(id); err != nil {
			t.Fatalf("Reject(%d): %v", id, err)
		}
	}
	if got := s.Reconstruct(); got != "el baso es normal" {
		t.Errorf("rejected Reconstruct = %q, want original text", got)
	}

	s.AcceptAll()
	if got := s.Reconstruct(); got != "el bazo es normal" {
		t.Errorf("AcceptAll Reconstruct = %q, want corrected text", got)
	}

	s.RejectAll()
	if got := s.Reconstruct(); got != "el baso es normal" {
		t.Errorf("RejectAll Reconstruct = %q, want original text", got)
	}
}

func TestSession_Toggle(t *testing.T) {
	t.Parallel()

	s := review.NewSession("baso normal", "bazo normal")

	var id int
	for _, c := range s.Chunks() {
		if c.Chunk.Added {
			id = c.ID
		}
	}

	if err := s.Toggle(id); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	for _, c := range s.Chunks() {
		if c.ID == id && c.Status != review.StatusRejected {
			t.Errorf("status after first toggle = %v, want rejected", c.Status)
		}
	}
	if err := s.Toggle(id); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	for _, c := range s.Chunks() {
		if c.ID == id && c.Status != review.StatusAccepted {
			t.Errorf("status after second toggle = %v, want accepted", c.Status)
		}
	}
}

func TestSession_UnknownAndUnchangedIDs(t *testing.T) {
	t.Parallel()

	s := review.NewSession("el baso es normal", "el bazo es normal")

	if err := s.Accept(99); !errors.Is(err, review.ErrNotFound) {
		t.Errorf("Accept(unknown) = %v, want ErrNotFound", err)
	}
	for _, c := range s.Chunks() {
		if !c.Chunk.Added && !c.Chunk.Removed {
			if err := s.Accept(c.ID); !errors.Is(err, review.ErrNotFound) {
				t.Errorf("Accept(unchanged %d) = %v, want ErrNotFound", c.ID, err)
			}
			break
		}
	}
}

func TestSession_SavePairOnce(t *testing.T) {
	t.Parallel()

	s := review.NewSession("el baso es normal", "el bazo es normal")
	pairs := s.Pairs()
	if len(pairs) != 1 {
		t.Fatalf("Pairs = %v, want one pair", pairs)
	}

	var saved []review.Pair
	save := func(p review.Pair) error {
		saved = append(saved, p)
		return nil
	}

	if err := s.SavePair(pairs[0].ID, save); err != nil {
		t.Fatalf("SavePair: %v", err)
	}
	if err := s.SavePair(pairs[0].ID, save); err != nil {
		t.Fatalf("SavePair(repeat): %v", err)
	}
	if len(saved) != 1 {
		t.Errorf("save called %d times, want 1", len(saved))
	}
	if !s.Pairs()[0].Saved {
		t.Error("pair not marked saved")
	}

	if err := s.SavePair(99, save); !errors.Is(err, review.ErrNotFound) {
		t.Errorf("SavePair(unknown) = %v, want ErrNotFound", err)
	}
}

func TestSession_SaveErrorDoesNotMarkSaved(t *testing.T) {
	t.Parallel()

	s := review.NewSession("el baso es normal", "el bazo es normal")
	id := s.Pairs()[0].ID

	failErr := errors.New("storage down")
	if err := s.SavePair(id, func(review.Pair) error { return failErr }); !errors.Is(err, failErr) {
		t.Fatalf("SavePair = %v, want save error", err)
	}
	if s.Pairs()[0].Saved {
		t.Error("pair marked saved after failed save")
	}
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		st   review.Status
		want string
	}{
		{review.StatusPending, "pending"},
		{review.StatusAccepted, "accepted"},
		{review.StatusRejected, "rejected"},
	}
	for _, tc := range tests {
		if got := tc.st.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.st, got, tc.want)
		}
	}
}
