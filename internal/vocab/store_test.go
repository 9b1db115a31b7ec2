package vocab_test

import (
	"context"
	"errors"
	"testing"

	"github.com/voxmed/voxmed/internal/vocab"
)

func TestMemStore_AddGetRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vocab.NewMemStore()

	if err := s.Add(ctx, "Vaso", "bazo"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Lookups are case-insensitive on the original.
	for _, key := range []string{"vaso", "Vaso", " VASO "} {
		got, err := s.Get(ctx, key)
		if err != nil || got != "bazo" {
			t.Errorf("Get(%q) = (%q, %v), want (bazo, nil)", key, got, err)
		}
	}

	if err := s.Remove(ctx, "vaso"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(ctx, "vaso"); !errors.Is(err, vocab.ErrNotFound) {
		t.Errorf("Get after Remove = %v, want ErrNotFound", err)
	}
	if err := s.Remove(ctx, "vaso"); !errors.Is(err, vocab.ErrNotFound) {
		t.Errorf("Remove(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemStore_AddUpserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vocab.NewMemStore()

	if err := s.Add(ctx, "vaso", "bazo"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, "VASO", "vaso sanguíneo"); err != nil {
		t.Fatalf("Add(update): %v", err)
	}

	got, err := s.Get(ctx, "vaso")
	if err != nil || got != "vaso sanguíneo" {
		t.Errorf("Get = (%q, %v), want updated corrected form", got, err)
	}
	entries, err := s.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Entries = %v, want a single upserted entry", entries)
	}
}

func TestMemStore_RejectsBlankSides(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vocab.NewMemStore()

	if err := s.Add(ctx, "  ", "bazo"); err == nil {
		t.Error("Add(blank original) = nil, want error")
	}
	if err := s.Add(ctx, "vaso", "  "); err == nil {
		t.Error("Add(blank corrected) = nil, want error")
	}
}

func TestMemStore_EntriesOrdered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vocab.NewMemStore()
	for _, pair := range [][2]string{{"zeta", "z"}, {"alfa", "a"}, {"medio", "m"}} {
		if err := s.Add(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Original < entries[i-1].Original {
			t.Fatalf("Entries not ordered by original: %v", entries)
		}
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 || all["alfa"] != "a" {
		t.Errorf("All = %v, want the three pairs", all)
	}
}
