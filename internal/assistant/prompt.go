package assistant

import (
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/clerk/internal/workflow"
)

const systemInstructions = `You are a concise legal document assistant helping fill placeholder values in a DOCX template.
Placeholders to complete: %s.
Values already provided: %s.
Ask only one clear question at a time.
If all placeholders are filled, simply confirm the document is ready.`

const askInstructions = `Ask for the value of [%s] and include that bracketed name verbatim.
Prefer this wording: %s`

const completeInstructions = `Everything is filled. Confirm completion briefly without adding new placeholders.`

// Message is a role-tagged prompt entry. Roles follow the chat completion
// convention: system, user, assistant.
type Message struct {
	Role    string
	Content string
}

// ComposePrompt builds the chat prompt for a phrasing request: the system
// instructions, the dialogue so far, and a closing directive for the next
// reply.
func ComposePrompt(req PhraseRequest) []Message {
	names := make([]string, len(req.Placeholders))
	for i, p := range req.Placeholders {
		names[i] = "[" + p.Name + "]"
	}

	msgs := make([]Message, 0, len(req.History)+2)
	msgs = append(msgs, Message{
		Role:    "system",
		Content: fmt.Sprintf(systemInstructions, strings.Join(names, ", "), summarize(req.Values)),
	})

	for _, t := range req.History {
		role := string(t.Role)
		if role == "" {
			role = string(workflow.RoleUser)
		}
		msgs = append(msgs, Message{Role: role, Content: t.Message})
	}

	if req.Next != nil {
		msgs = append(msgs, Message{
			Role:    "system",
			Content: fmt.Sprintf(askInstructions, req.Next.Name, req.Next.Question),
		})
	} else {
		msgs = append(msgs, Message{Role: "system", Content: completeInstructions})
	}

	return msgs
}

func summarize(values map[string]string) string {
	if len(values) == 0 {
		return "none yet"
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("[%s]=`%s`", k, values[k])
	}
	return strings.Join(parts, "; ")
}
