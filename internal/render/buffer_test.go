package render

import (
	"strings"
	"testing"
)

func TestBufferFlushesAtBreakpoints(t *testing.T) {
	b := NewBuffer()

	units := b.Consume("Bonjour, ça")
	if len(units) != 2 || units[0] != "Bonjour," || units[1] != " " {
		t.Fatalf("units = %q", units)
	}

	units = b.Consume(" va ?")
	if len(units) != 3 {
		t.Fatalf("units = %q, want 3", units)
	}
	if rest := b.Finalize(); rest != "" {
		t.Fatalf("Finalize() = %q, want empty", rest)
	}
}

func TestBufferFidelity(t *testing.T) {
	inputs := []struct {
		name      string
		fragments []string
	}{
		{"word sized", []string{"Bonjour ", "tout ", "le ", "monde."}},
		{"char sized", strings.Split("Salut! Ça va?", "")},
		{"no breakpoints", []string{"abc", "def", "ghi"}},
		{"ends mid unit", []string{"Une phrase. Et un rest", "e"}},
		{"empty fragments", []string{"", "a", "", " b", ""}},
		{"only breakpoints", []string{"...", "!?", "\n\n"}},
		{"multibyte", []string{"héé", "çà ", "œuf."}},
	}

	for _, tc := range inputs {
		b := NewBuffer()
		var out strings.Builder
		for _, f := range tc.fragments {
			for _, unit := range b.Consume(f) {
				out.WriteString(unit)
			}
		}
		out.WriteString(b.Finalize())

		want := strings.Join(tc.fragments, "")
		if out.String() != want {
			t.Fatalf("%s: reassembled = %q, want %q", tc.name, out.String(), want)
		}
	}
}

func TestBufferUnitsEndAtBreakpoint(t *testing.T) {
	b := NewBuffer()
	var units []string
	for _, f := range []string{"Un. Deux,", " Trois!"} {
		units = append(units, b.Consume(f)...)
	}
	for _, unit := range units {
		last := []rune(unit)[len([]rune(unit))-1]
		if !isBreakpoint(last) {
			t.Fatalf("unit %q does not end at a breakpoint", unit)
		}
	}
}
