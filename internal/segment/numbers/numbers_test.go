package numbers_test

import (
	"testing"

	"github.com/voxmed/voxmed/internal/segment/numbers"
)

func TestConvert_SpelledNumbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unit", "mide cinco milímetros", "mide 5 mm"},
		{"teens", "se observan quince ganglios", "se observan 15 ganglios"},
		{"tens with y", "treinta y cinco milímetros", "35 mm"},
		{"plain tens", "cuarenta lesiones", "40 lesiones"},
		{"hundreds", "doscientos cincuenta mililitros", "250 ml"},
		{"ciento compound", "ciento veinte gramos", "120 gramos"},
		{"thousand", "dos mil catorce", "2014"},
		{"unaccented recogniser form", "dieciseis milimetros", "16 mm"},
		{"conjunction y survives", "hígado y bazo normales", "hígado y bazo normales"},
		{"por ciento phrase survives number pass", "cinco por ciento", "5%"},
		{"digits unchanged", "mide 12 mm", "mide 12 mm"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := numbers.Convert(tc.in); got != tc.want {
				t.Errorf("Convert(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestConvert_Measurements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"decimal coma", "mide tres coma cinco centímetros", "mide 3.5 cm"},
		{"leading decimal continues a number", "coma cinco centímetros", ".5 cm"},
		{"mid-sentence coma is punctuation", "estable coma cinco pacientes", "estable coma 5 pacientes"},
		{"percent", "del diez por ciento", "del 10%"},
		{"dimensions", "nódulo de tres por cuatro milímetros", "nódulo de 3x4 mm"},
		{"decimal dimensions", "de dos coma uno por tres coma cinco centímetros", "de 2.1x3.5 cm"},
		{"degrees", "angulación de treinta grados", "angulación de 30°"},
		{"plus minus", "cinco más menos dos milímetros", "5 ± 2 mm"},
		{"comparison", "mayor que cinco milímetros", "> 5 mm"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := numbers.Convert(tc.in); got != tc.want {
				t.Errorf("Convert(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestConvert_TNM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"glued stage letter", "estadio te dos b", "T2b"},
		{"bare letter digit", "clasificación ene uno", "clasificación N1"},
		{"metastasis", "eme cero", "M0"},
		{"stage letter before period", "tumor te uno a.", "tumor T1a."},
		{"article a survives", "te uno a la derecha", "T1 a la derecha"},
		{"case insensitive", "Te Tres", "T3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := numbers.Convert(tc.in); got != tc.want {
				t.Errorf("Convert(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestConvert_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"mide treinta y cinco coma cinco milímetros",
		"lesión de tres por cuatro centímetros al diez por ciento",
		"estadio te dos b",
	}
	for _, in := range inputs {
		once := numbers.Convert(in)
		twice := numbers.Convert(once)
		if once != twice {
			t.Errorf("Convert not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeMeasurements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"approximately", "aproximadamente 5 mm", "≈5 mm"},
		{"mide de", "mide de 3 a 5 mm", "mide de 3 a 5 mm"},
		{"glued unit", "3mm", "3 mm"},
		{"residual unit word", "5 milímetros", "5 mm"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := numbers.NormalizeMeasurements(tc.in); got != tc.want {
				t.Errorf("NormalizeMeasurements(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
