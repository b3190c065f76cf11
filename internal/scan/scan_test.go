package scan

import (
	"strings"
	"testing"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain json",
			raw:  `{"item": "Coffee"}`,
			want: `{"item": "Coffee"}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"item\": \"Coffee\"}\n```",
			want: `{"item": "Coffee"}`,
		},
		{
			name: "bare fence",
			raw:  "```\n{\"item\": \"Coffee\"}\n```",
			want: `{"item": "Coffee"}`,
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  {\"item\": \"Coffee\"}  \n",
			want: `{"item": "Coffee"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseSuggestion(t *testing.T) {
	s := New("test-model", []string{"Food", "Shopping"})

	sug, err := s.parseSuggestion("```json\n" +
		`{"date": "15/01/2024", "item": " Coffee ", "category": "Food", "amount": 4.5}` +
		"\n```")
	if err != nil {
		t.Fatalf("parseSuggestion failed: %v", err)
	}

	if sug.Date != "2024-01-15" {
		t.Errorf("date = %q, want normalized 2024-01-15", sug.Date)
	}
	if sug.Item != "Coffee" {
		t.Errorf("item = %q, want trimmed Coffee", sug.Item)
	}
	if sug.Category != "Food" {
		t.Errorf("category = %q, want Food", sug.Category)
	}
	if sug.Amount != 4.5 {
		t.Errorf("amount = %v, want 4.5", sug.Amount)
	}
}

func TestParseSuggestion_SanitizesFields(t *testing.T) {
	s := New("test-model", []string{"Food"})

	sug, err := s.parseSuggestion(
		`{"date": "gibberish", "item": "Thing", "category": "Cryptids", "amount": -3}`)
	if err != nil {
		t.Fatalf("parseSuggestion failed: %v", err)
	}

	if sug.Date != "" {
		t.Errorf("unparseable date should become empty, got %q", sug.Date)
	}
	if sug.Category != "" {
		t.Errorf("unknown category should become empty, got %q", sug.Category)
	}
	if sug.Amount != 0 {
		t.Errorf("negative amount should become 0, got %v", sug.Amount)
	}
}

func TestParseSuggestion_InvalidJSON(t *testing.T) {
	s := New("test-model", []string{"Food"})
	if _, err := s.parseSuggestion("the receipt says coffee"); err == nil {
		t.Error("expected error for non-JSON model output")
	}
}

func TestBuildPrompt_ListsCategories(t *testing.T) {
	prompt := buildPrompt([]string{"Food", "Utilities"})

	for _, want := range []string{"Food", "Utilities", "STRICT JSON"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
