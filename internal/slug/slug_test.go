package slug

import "testing"

// TestGenerate covers the category-key shapes that show up in practice:
// display names with punctuation, mixed case, and runs of separators.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "two words", input: "Home Garden", want: "home-garden"},
		{name: "ampersand dropped", input: "Sports & Outdoors", want: "sports-outdoors"},
		{name: "digits kept", input: "Summer Sale 2026", want: "summer-sale-2026"},
		{name: "surrounding whitespace", input: "  Books  ", want: "books"},
		{name: "hyphen preserved", input: "e-readers", want: "e-readers"},
		{name: "hyphen runs collapsed", input: "a---b", want: "a-b"},
		{name: "leading and trailing hyphens", input: "--kids--", want: "kids"},
		{name: "accents stripped", input: "Café Menu", want: "caf-menu"},
		{name: "empty", input: "", want: ""},
		{name: "only symbols", input: "!@#$%", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies that feeding a slug back in returns it
// unchanged.
func TestGenerate_Idempotent(t *testing.T) {
	for _, s := range []string{"home-garden", "summer-sale-2026", "books"} {
		if got := Generate(s); got != s {
			t.Errorf("Generate(%q) = %q, want idempotent result", s, got)
		}
	}
}

func TestVariableName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single word", input: "Books", want: "books"},
		{name: "two words", input: "Home Garden", want: "homeGarden"},
		{name: "mixed separators", input: "hello-world_again", want: "helloWorldAgain"},
		{name: "symbols between words", input: "Sports & Outdoors 2026", want: "sportsOutdoors2026"},
		{name: "leading digit prefixed", input: "2026 Plan", want: "c2026Plan"},
		{name: "accents stripped", input: "Café Menu", want: "cafMenu"},
		{name: "camel case input is lowered", input: "GoLang", want: "golang"},
		{name: "empty", input: "", want: ""},
		{name: "only symbols", input: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VariableName(tt.input)
			if got != tt.want {
				t.Errorf("VariableName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
