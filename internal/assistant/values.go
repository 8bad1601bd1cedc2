package assistant

import (
	"strings"

	"github.com/JaimeStill/clerk/internal/workflow"
)

// ExtractValues reads placeholder answers out of the conversation. An
// assistant turn that asks about a placeholder, followed by a user turn,
// assigns that user turn to the placeholder. A bracketed value inside the
// answer ("[Acme Corp]") is taken over the whole answer. A later answer
// overwrites an earlier one.
func ExtractValues(history []workflow.Turn, placeholders []workflow.Placeholder) map[string]string {
	values := make(map[string]string)

	for i, turn := range history {
		if turn.Role != workflow.RoleAssistant || i+1 >= len(history) {
			continue
		}
		answer := history[i+1]
		if answer.Role != workflow.RoleUser {
			continue
		}

		if name, ok := askedAbout(turn.Message, placeholders); ok {
			values[name] = answerValue(answer.Message)
		}
	}

	return values
}

func answerValue(message string) string {
	if _, rest, ok := strings.Cut(message, "["); ok {
		if inner, _, ok := strings.Cut(rest, "]"); ok {
			if v := strings.TrimSpace(inner); v != "" {
				return v
			}
		}
	}
	return strings.TrimSpace(message)
}

// askedAbout finds the placeholder an assistant message refers to. A
// bracketed mention wins over a bare case-insensitive one; ties go to the
// earlier placeholder.
func askedAbout(message string, placeholders []workflow.Placeholder) (string, bool) {
	for _, p := range placeholders {
		if strings.Contains(message, "["+p.Name+"]") {
			return p.Name, true
		}
	}

	lower := strings.ToLower(message)
	for _, p := range placeholders {
		if strings.Contains(lower, strings.ToLower(p.Name)) {
			return p.Name, true
		}
	}

	return "", false
}

// Next returns the first placeholder without a value.
func Next(placeholders []workflow.Placeholder, values map[string]string) (workflow.Placeholder, bool) {
	for _, p := range placeholders {
		if _, ok := values[p.Name]; !ok {
			return p, true
		}
	}
	return workflow.Placeholder{}, false
}
