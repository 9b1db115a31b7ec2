package silenterr_test

import (
	"testing"

	"github.com/voxmed/voxmed/internal/segment/silenterr"
)

func TestApply_BuiltinPatterns(t *testing.T) {
	t.Parallel()

	d := silenterr.New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"split compound", "nódulo hipo ecogénico de 5 mm", "nódulo hipoecogénico de 5 mm"},
		{"feminine form", "lesión hipo ecogénica", "lesión hipoecogénica"},
		{"joined acronym", "clasificación birads 2", "clasificación BI-RADS 2"},
		{"spaced acronym", "bi rads 4a", "BI-RADS 4a"},
		{"case insensitive", "Hipo Denso", "hipodenso"},
		{"region compound", "espacio retro peritoneal", "espacio retroperitoneal"},
		{"clean text unchanged", "hígado de tamaño normal", "hígado de tamaño normal"},
		{"partial word untouched", "hipotálamo", "hipotálamo"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := d.Apply(tc.in); got != tc.want {
				t.Errorf("Apply(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	d := silenterr.New()
	once := d.Apply("masa hiper intensa para vertebral")
	twice := d.Apply(once)
	if once != twice {
		t.Errorf("Apply not idempotent: %q then %q", once, twice)
	}
}

func TestExtend(t *testing.T) {
	t.Parallel()

	d := silenterr.New()
	before := d.Len()

	if err := d.Extend("neo vejiga", "neovejiga"); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if d.Len() != before+1 {
		t.Errorf("Len = %d, want %d", d.Len(), before+1)
	}
	if got := d.Apply("la neo vejiga está bien"); got != "la neovejiga está bien" {
		t.Errorf("Apply after Extend = %q", got)
	}
}

func TestExtend_RejectsDuplicatesAndEmpty(t *testing.T) {
	t.Parallel()

	d := silenterr.New()

	if err := d.Extend("bi rads", "BI-RADS"); err == nil {
		t.Error("Extend(existing pattern) = nil, want error")
	}
	if err := d.Extend("", "algo"); err == nil {
		t.Error("Extend(empty pattern) = nil, want error")
	}
	if err := d.Extend("algo", ""); err == nil {
		t.Error("Extend(empty correction) = nil, want error")
	}
}
