package execute

import (
	"context"
	"fmt"
	"strings"
)

// Provider performs one completion against a generation backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Completion is a provider's raw answer.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// simulate returns deterministic placeholder content for req. Token counts
// are word counts.
func simulate(req Request) Completion {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Generated content using %s**\n\n", req.Model)
	sb.WriteString("This is simulated output. No generation backend was called for this request.\n\n")
	sb.WriteString("## Request Summary\n")
	fmt.Fprintf(&sb, "- Provider: %s\n", req.Provider)
	fmt.Fprintf(&sb, "- Temperature: %g\n", req.Temperature)
	fmt.Fprintf(&sb, "- Max tokens: %d\n", req.MaxTokens)
	fmt.Fprintf(&sb, "- System prompt: %d words\n", wordCount(req.SystemPrompt))
	fmt.Fprintf(&sb, "- User prompt: %d words\n", wordCount(req.UserPrompt))

	if first := firstLine(req.UserPrompt); first != "" {
		sb.WriteString("\n## Prompt Opening\n")
		sb.WriteString(first)
		sb.WriteString("\n")
	}

	content := sb.String()
	return Completion{
		Content:          content,
		Model:            req.Model,
		PromptTokens:     wordCount(req.SystemPrompt) + wordCount(req.UserPrompt),
		CompletionTokens: wordCount(content),
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > 200 {
			line = string(r[:200]) + "..."
		}
		return line
	}
	return ""
}
