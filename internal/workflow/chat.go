package workflow

import (
	"context"
	"fmt"
)

// advanceConversation runs one question/answer exchange. The outgoing
// request carries the log with the user's turn already appended; the
// returned state holds both turns only when the call succeeds. On failure
// the returned state is s, so the visible log reverts to its pre-call form.
func advanceConversation(ctx context.Context, b Backend, s State, message string) (State, error) {
	working := s.Log.Append(Turn{Role: RoleUser, Message: message})

	reply, err := b.Chat(ctx, ChatRequest{
		TemplateID: s.TemplateID,
		Message:    message,
		History:    working.Turns(),
	})
	if err != nil {
		return s, fmt.Errorf("%w: chat: %w", ErrTransport, err)
	}

	next := s.Clone()
	next.Log = working.Append(Turn{Role: RoleAssistant, Message: reply.Response})
	if reply.AllFilled {
		next.Completed = true
	}

	return next, nil
}
