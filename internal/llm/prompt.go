package llm

import (
	"fmt"
	"strings"

	"github.com/jonathan/justabill/internal/prompts"
)

const promptFile = "summarize.json"

// BuildSummaryPrompt renders the grounded summarization prompt for one section.
func BuildSummaryPrompt(in SectionInput) (string, error) {
	template, err := prompts.Get(promptFile, "summarize-section")
	if err != nil {
		return "", err
	}

	var context []string
	if in.SectionKey != "" {
		context = append(context, fmt.Sprintf("Section: %s", in.SectionKey))
	}
	if in.Heading != "" {
		context = append(context, fmt.Sprintf("Heading: %s", in.Heading))
	}

	return prompts.Render(template, map[string]string{
		"SectionContext": strings.Join(context, "\n"),
		"SectionText":    in.Text,
	}), nil
}

// systemPrompt returns the system message for a provider. Groq models tend to wrap
// JSON in prose, so they get the stricter wording.
func systemPrompt(provider Provider) string {
	key := "system"
	if provider == ProviderGroq {
		key = "system-strict"
	}
	return prompts.MustGet(promptFile, key)
}
