package scan

import "strings"

// buildPrompt constructs the extraction prompt, constrained to the
// configured category list.
func buildPrompt(categories []string) string {
	var b strings.Builder

	b.WriteString("You are a receipt reader for a personal expense tracker.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Read the attached receipt image or PDF.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing text).\n")
	b.WriteString("- Output a single JSON object.\n\n")
	b.WriteString("The object must have these fields:\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\", or \"\" if unreadable\n")
	b.WriteString("- \"item\": string, a short description of the purchase\n")
	b.WriteString("- \"category\": string, one of the categories below\n")
	b.WriteString("- \"amount\": number, the receipt total, 0 if unreadable\n\n")

	b.WriteString("Use ONLY the following categories:\n")
	for _, c := range categories {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Pick the single most appropriate category.\n")
	b.WriteString("- Use the grand total including tax, not a line item.\n")
	b.WriteString("- Return ONLY valid raw JSON.\n")
	b.WriteString("- Do NOT wrap the response in code fences.\n")
	b.WriteString("- Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}
