package variants_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/voxmed/voxmed/internal/variants"
)

func TestGenerate_PrefixSplit(t *testing.T) {
	t.Parallel()

	got := variants.Generate("hipoecogénico", variants.Options{})

	for _, want := range []string{
		"hipo ecogénico",
		"hipo-ecogénico",
		"hipoecogenico",
		"Hipoecogénico",
		"HIPOECOGÉNICO",
	} {
		if !slices.Contains(got, want) {
			t.Errorf("Generate(hipoecogénico) missing %q, got %v", want, got)
		}
	}
	if slices.Contains(got, "hipoecogénico") {
		t.Error("Generate must not include the word itself")
	}
}

func TestGenerate_JoinsSplitForms(t *testing.T) {
	t.Parallel()

	got := variants.Generate("bi rads", variants.Options{NoCaseVariants: true})
	if !slices.Contains(got, "birads") {
		t.Errorf("Generate(bi rads) missing joined form, got %v", got)
	}
	for _, v := range got {
		if v == "Bi rads" || v == "BI RADS" {
			t.Errorf("case variant %q generated despite NoCaseVariants", v)
		}
	}
}

func TestGenerate_NoDuplicates(t *testing.T) {
	t.Parallel()

	got := variants.Generate("vesícula", variants.Options{})
	seen := make(map[string]bool, len(got))
	for _, v := range got {
		if seen[v] {
			t.Errorf("duplicate variant %q", v)
		}
		seen[v] = true
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	a := variants.Generate("hiperdenso", variants.Options{})
	b := variants.Generate("hiperdenso", variants.Options{})
	if !slices.Equal(a, b) {
		t.Errorf("Generate not deterministic: %v then %v", a, b)
	}
}

func TestGenerate_Empty(t *testing.T) {
	t.Parallel()

	if got := variants.Generate("   ", variants.Options{}); got != nil {
		t.Errorf("Generate(blank) = %v, want nil", got)
	}
}

func TestGeneratePairs(t *testing.T) {
	t.Parallel()

	pairs := variants.GeneratePairs("vaso", "bazo", variants.Options{})

	if got := pairs["vaso"]; got != "bazo" {
		t.Fatalf("pairs[vaso] = %q, want bazo", got)
	}
	for orig, corr := range pairs {
		if corr != "bazo" {
			t.Errorf("pairs[%q] = %q, want all variants mapped to bazo", orig, corr)
		}
	}
	if len(pairs) < 2 {
		t.Errorf("GeneratePairs returned %d pairs %v, want the literal pair plus variants", len(pairs), pairs)
	}
}

func TestGeneratePairs_SeparatorSwap(t *testing.T) {
	t.Parallel()

	pairs := variants.GeneratePairs("hipo ecoico", "hipoecoico", variants.Options{})

	if got := pairs["hipo-ecoico"]; got != "hipoecoico" {
		t.Errorf("pairs[hipo-ecoico] = %q, want hipoecoico", got)
	}
	if got := pairs["hipo ecoico"]; got != "hipoecoico" {
		t.Errorf("pairs[hipo ecoico] = %q, want the literal pair kept", got)
	}
	for orig := range pairs {
		if strings.Contains(orig, "  ") || strings.Contains(orig, "- ") {
			t.Errorf("variant %q carries a stray separator", orig)
		}
	}
}

func TestGeneratePairs_SkipsVariantEqualToCorrection(t *testing.T) {
	t.Parallel()

	pairs := variants.GeneratePairs("hipo ecogénico", "hipoecogénico", variants.Options{})
	if _, ok := pairs["hipoecogénico"]; ok {
		t.Errorf("pairs maps the corrected form onto itself: %v", pairs)
	}
	if got := pairs["hipo ecogénico"]; got != "hipoecogénico" {
		t.Errorf("pairs[hipo ecogénico] = %q, want hipoecogénico", got)
	}
}

func TestGeneratePairs_EmptySides(t *testing.T) {
	t.Parallel()

	if got := variants.GeneratePairs("", "bazo", variants.Options{}); got != nil {
		t.Errorf("GeneratePairs(empty original) = %v, want nil", got)
	}
	if got := variants.GeneratePairs("vaso", " ", variants.Options{}); got != nil {
		t.Errorf("GeneratePairs(empty corrected) = %v, want nil", got)
	}
}
