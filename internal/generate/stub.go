package generate

import (
	"context"
	"strings"
)

// Stub is an offline backend for dry runs. It answers analysis prompts with a
// short analysis and email prompts with a fixed email in the expected shape,
// so the full pipeline can run without credentials.
type Stub struct{}

func (Stub) Complete(_ context.Context, prompt string) (string, error) {
	name := fieldValue(prompt, "Name:")
	if name == "" {
		name = "there"
	}
	if !strings.Contains(prompt, "Subject Line:") {
		return "Key pain points: " + fieldValue(prompt, "Pain Points:") +
			"\nInterests: " + fieldValue(prompt, "Interests:") +
			"\nTone: professional and concise", nil
	}

	product := fieldValue(prompt, "Product Name:")
	return "Subject Line: A quick idea about " + product + "\n\n" +
		"Hi " + name + ",\n\n" +
		"I noticed your focus on " + fieldValue(prompt, "Interests:") + ". " +
		product + " helps teams tackle " + fieldValue(prompt, "Pain Points:") + ".\n\n" +
		"Open to a 15-minute call next week?", nil
}

// fieldValue returns the text after the first "label" line in prompt.
func fieldValue(prompt, label string) string {
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, label) {
			return strings.TrimSpace(strings.TrimPrefix(line, label))
		}
	}
	return ""
}
