package vocab_test

import (
	"testing"

	"github.com/voxmed/voxmed/internal/vocab"
)

func TestStats_RecordAndCount(t *testing.T) {
	t.Parallel()

	s := vocab.NewStats(3)

	if got := s.Record("Vaso", "bazo"); got != 1 {
		t.Errorf("first Record = %d, want 1", got)
	}
	if got := s.Record("vaso ", "bazo"); got != 2 {
		t.Errorf("second Record = %d, want case-folded count 2", got)
	}
	if got := s.Count("VASO", "bazo"); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}

	// Different corrections of the same original count separately.
	s.Record("vaso", "vaso sanguíneo")
	if got := s.Count("vaso", "vaso sanguíneo"); got != 1 {
		t.Errorf("Count(other correction) = %d, want 1", got)
	}

	if got := s.Record("", "bazo"); got != 0 {
		t.Errorf("Record(blank original) = %d, want 0", got)
	}
}

func TestStats_ShouldPropose(t *testing.T) {
	t.Parallel()

	s := vocab.NewStats(3)

	s.Record("vaso", "bazo")
	s.Record("vaso", "bazo")
	if s.ShouldPropose("vaso", "bazo") {
		t.Error("ShouldPropose below threshold = true, want false")
	}

	s.Record("vaso", "bazo")
	if !s.ShouldPropose("vaso", "bazo") {
		t.Error("ShouldPropose at threshold = false, want true")
	}
	if s.ShouldPropose("vaso", "bazo") {
		t.Error("second ShouldPropose = true, want each pair proposed once")
	}

	// Further observations do not resurface an already proposed pair.
	s.Record("vaso", "bazo")
	if s.ShouldPropose("vaso", "bazo") {
		t.Error("ShouldPropose after extra Record = true, want false")
	}
}

func TestStats_DefaultThreshold(t *testing.T) {
	t.Parallel()

	s := vocab.NewStats(0)
	for i := 0; i < vocab.DefaultProposeThreshold-1; i++ {
		s.Record("vaso", "bazo")
	}
	if s.ShouldPropose("vaso", "bazo") {
		t.Error("ShouldPropose below default threshold = true, want false")
	}
	s.Record("vaso", "bazo")
	if !s.ShouldPropose("vaso", "bazo") {
		t.Error("ShouldPropose at default threshold = false, want true")
	}
}

func TestStats_Proposals(t *testing.T) {
	t.Parallel()

	s := vocab.NewStats(2)
	for i := 0; i < 3; i++ {
		s.Record("vaso", "bazo")
	}
	for i := 0; i < 2; i++ {
		s.Record("ecobencidad", "ecogenicidad")
	}
	s.Record("unavez", "una vez")

	got := s.Proposals()
	want := []vocab.Proposal{
		{Original: "vaso", Corrected: "bazo", Count: 3},
		{Original: "ecobencidad", Corrected: "ecogenicidad", Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("Proposals = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Proposals[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	// Listing must not consume the pairs.
	if !s.ShouldPropose("vaso", "bazo") {
		t.Error("ShouldPropose after Proposals = false, want true")
	}
}
