// Package assistant implements the conversational side of template
// completion: it reads answers out of the dialogue, picks the next
// placeholder to ask about, and optionally has a language model phrase the
// reply.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JaimeStill/clerk/internal/workflow"
)

const (
	askFormat       = "Thank you! Now, "
	completeMessage = "Great! I have all the information I need. Your document is ready to download."
)

// Reply is the assistant's answer to one chat request.
type Reply struct {
	Response    string `json:"response"`
	AllFilled   bool   `json:"all_filled"`
	FilledCount int    `json:"filled_count"`
	TotalCount  int    `json:"total_count"`
}

// PhraseRequest carries what a Phraser needs to word the next reply.
// Next is nil once every placeholder has a value.
type PhraseRequest struct {
	History      []workflow.Turn
	Placeholders []workflow.Placeholder
	Values       map[string]string
	Next         *workflow.Placeholder
}

// Phraser words the assistant reply. Implementations may call a remote model.
type Phraser interface {
	Phrase(ctx context.Context, req PhraseRequest) (string, error)
}

// Assistant answers chat requests for a template's placeholders.
type Assistant struct {
	phraser Phraser
	logger  *slog.Logger
}

// New creates an Assistant. A nil phraser uses the fixed reply texts.
func New(phraser Phraser, logger *slog.Logger) *Assistant {
	return &Assistant{
		phraser: phraser,
		logger:  logger.With("system", "assistant"),
	}
}

// Respond computes the reply for a conversation. The completion signal is
// decided from the extracted values alone; phrasing never changes it.
func (a *Assistant) Respond(ctx context.Context, history []workflow.Turn, placeholders []workflow.Placeholder) Reply {
	values := ExtractValues(history, placeholders)
	next, pending := Next(placeholders, values)

	reply := Reply{
		AllFilled:   !pending,
		FilledCount: len(values),
		TotalCount:  len(placeholders),
	}

	if pending {
		reply.Response = askFormat + next.Question
	} else {
		reply.Response = completeMessage
	}

	if a.phraser == nil {
		return reply
	}

	req := PhraseRequest{
		History:      history,
		Placeholders: placeholders,
		Values:       values,
	}
	if pending {
		req.Next = &next
	}

	text, err := a.phraser.Phrase(ctx, req)
	if err != nil {
		a.logger.Warn("phrasing failed, using fixed reply", "error", err)
		return reply
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return reply
	}

	// A question that drops the placeholder name cannot be matched to the
	// user's answer on the next turn.
	if pending && !strings.Contains(strings.ToLower(text), strings.ToLower(next.Name)) {
		a.logger.Warn("phrased reply omits placeholder, using fixed reply", "placeholder", next.Name)
		return reply
	}

	reply.Response = text
	return reply
}
