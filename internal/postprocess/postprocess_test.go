package postprocess

import "testing"

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain json answer",
			input:    `{"Target": "Hello"}`,
			expected: `{"Target": "Hello"}`,
		},
		{
			name:     "think block with braces before answer",
			input:    "<think>maybe {\"Target\": \"Hi\"}?</think>\n{\"Target\": \"Hello\"}",
			expected: `{"Target": "Hello"}`,
		},
		{
			name:     "reasoning block",
			input:    "<reasoning>check grammar</reasoning>{}",
			expected: "{}",
		},
		{
			name:     "reflection block",
			input:    "a<reflection>x</reflection>b",
			expected: "ab",
		},
		{
			name:     "several blocks",
			input:    "<thinking>one</thinking>mid<think>two</think>",
			expected: "mid",
		},
		{
			name:     "truncated block drops the tail",
			input:    "{\"critical\": \"\"}<thinking>cut off",
			expected: `{"critical": ""}`,
		},
		{
			name:     "case insensitive tags",
			input:    "<THINK>upper</THINK>rest",
			expected: "rest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripReasoning(tt.input)
			if result != tt.expected {
				t.Errorf("StripReasoning(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRemoveInstructionEchoes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no echo", "Привіт, світе.", "Привіт, світе."},
		{"here is the final translation", "Here is the final translation: Hallo Welt", "Hallo Welt"},
		{"here's my answer", "Here's my answer: {}", "{}"},
		{"corrected translation", "The corrected translation: Bonjour", "Bonjour"},
		{"sure prefix", "Sure, here is the annotation: no-error", "no-error"},
		{"not at start", "Text. Here is the translation: more", "Text. Here is the translation: more"},
		{"without colon", "Here is the translation text", "Here is the translation text"},
		{"bare translation label", "Translation: Hola", "Hola"},
		{"bare answer kept", "Answer: yes, it is", "Answer: yes, it is"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := removeInstructionEchoes(tt.input)
			if result != tt.expected {
				t.Errorf("removeInstructionEchoes(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRemoveQuoteWrapping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single rune", "x", "x"},
		{"double quotes", `"Guten Tag"`, "Guten Tag"},
		{"guillemets", "«Добрый день»", "Добрый день"},
		{"curly quotes", "“Good day”", "Good day"},
		{"german low quotes", "„Guten Tag“", "Guten Tag"},
		{"unmatched", `"Good day'`, `"Good day'`},
		{"inner quotes kept", `"He said "hi""`, `He said "hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := removeQuoteWrapping(tt.input)
			if result != tt.expected {
				t.Errorf("removeQuoteWrapping(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	input := "<think>hmm</think>Here is the corrected translation:\n\"Hallo Welt\""
	if got := Clean(input); got != "Hallo Welt" {
		t.Errorf("Clean(%q) = %q", input, got)
	}
}
