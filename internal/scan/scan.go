// Package scan produces form-prefill suggestions from a receipt image using
// Gemini. It is an optional convenience on top of the core flows: nothing in
// create or delete depends on it.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/receipt-organizer/internal/receipt"
)

// Suggestion is a best-effort reading of a receipt, for prefilling the
// capture form. Fields the model could not determine are empty or zero.
type Suggestion struct {
	Date     string  `json:"date"`
	Item     string  `json:"item"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Scanner calls Gemini with a strict-JSON prompt constrained to the
// configured categories.
type Scanner struct {
	model      string
	categories []string
}

// New creates a scanner. The Gemini API key is read by the genai client from
// the environment.
func New(model string, categories []string) *Scanner {
	return &Scanner{model: model, categories: categories}
}

// Suggest sends the attachment bytes to the model and parses its JSON reply.
func (s *Scanner) Suggest(ctx context.Context, data []byte, mimeType string) (*Suggestion, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("scan: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(s.categories)},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("scan: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("scan: empty response from model")
	}

	return s.parseSuggestion(rawText)
}

// parseSuggestion decodes the model reply, cleans Markdown fences the model
// may have added despite instructions, and normalizes the fields.
func (s *Scanner) parseSuggestion(raw string) (*Suggestion, error) {
	clean := cleanModelJSON(raw)

	var sug Suggestion
	if err := json.Unmarshal([]byte(clean), &sug); err != nil {
		return nil, fmt.Errorf("scan: unmarshal suggestion: %w\nraw response: %s", err, raw)
	}

	sug.Date = receipt.NormalizeDate(sug.Date)
	sug.Item = strings.TrimSpace(sug.Item)
	if !s.knownCategory(sug.Category) {
		sug.Category = ""
	}
	if sug.Amount < 0 {
		sug.Amount = 0
	}

	return &sug, nil
}

func (s *Scanner) knownCategory(name string) bool {
	for _, c := range s.categories {
		if c == name {
			return true
		}
	}
	return false
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
