package translate

import (
	"reflect"
	"testing"
)

func TestParseBatch(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected int
		want     []string
	}{
		{"complete", "[0] Hola\n[1] Mundo", 2, []string{"Hola", "Mundo"}},
		{"gap", "[1] Mundo", 2, []string{"", "Mundo"}},
		{"no space", "[0]Hola", 1, []string{"Hola"}},
		{"crlf", "[0] Hola\r\n[1] Mundo\r\n", 2, []string{"Hola", "Mundo"}},
		{"chatter ignored", "Here you go:\n[0] Hola\nthanks", 1, []string{"Hola"}},
		{"out of range ignored", "[0] a\n[5] b", 2, []string{"a", ""}},
		{"repeat overwrites", "[0] first\n[0] second", 1, []string{"second"}},
		{"empty response", "", 2, []string{"", ""}},
		{"zero expected", "[0] a", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBatch(tt.response, tt.expected)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBatch(%q, %d) = %q, want %q", tt.response, tt.expected, got, tt.want)
			}
		})
	}
}

func TestMissing(t *testing.T) {
	got := Missing([]string{"a", "", " ", "b"})
	if want := []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("Missing = %v, want %v", got, want)
	}
	if got := Missing([]string{"a"}); got != nil {
		t.Errorf("Missing = %v, want nil", got)
	}
}

func TestCleanTranslation(t *testing.T) {
	tests := []struct {
		source, reply, want string
	}{
		{"Hello", "  Hola  ", "Hola"},
		{"Hello", `"Hola"`, "Hola"},
		{"Hello", "'Hola'", "Hola"},
		{`"Hello"`, `"Hola"`, `"Hola"`},
		{"Hello", `"`, `"`},
		{"Hello", `"Hola' `, `"Hola'`},
	}
	for _, tt := range tests {
		if got := cleanTranslation(tt.source, tt.reply); got != tt.want {
			t.Errorf("cleanTranslation(%q, %q) = %q, want %q", tt.source, tt.reply, got, tt.want)
		}
	}
}
