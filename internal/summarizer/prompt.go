package summarizer

import (
	"fmt"
	"linkbrief/internal/domain"
	"strings"
	"text/template"
)

const (
	summaryWords = 600

	promptTemplateText = `Provide a summary of the following content in {{.Words}} words:
Content:{{.Text}}
`

	documentSeparator = "\n\n"
)

//nolint:gochecknoglobals // Parsed once, immutable afterwards.
var promptTemplate = template.Must(template.New("summary").Parse(promptTemplateText))

type promptData struct {
	Words int
	Text  string
}

// stuff concatenates every document into the text slot of the prompt.
func stuff(docs []domain.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if text := strings.TrimSpace(doc.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, documentSeparator)
}

func buildPrompt(text string) (string, error) {
	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, promptData{Words: summaryWords, Text: text}); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return sb.String(), nil
}
