package workflow

import (
	"context"
	"fmt"
)

const (
	seedFoundFormat = "I've analyzed your document and found %d placeholders to fill. Let's complete them one by one.\n\n%s"
	seedEmpty       = "I've analyzed your document but couldn't find any placeholders to fill."
)

// submitTemplate validates the file locally, uploads it, and seeds the log
// with the first question. On validation failure the state is returned
// untouched and no call is made. On transport failure the returned state
// keeps the chosen file so a retry can resubmit it.
func submitTemplate(ctx context.Context, b Backend, s State, file UploadedFile) (State, error) {
	if err := file.Validate(); err != nil {
		return s, err
	}

	retained := s.Clone()
	retained.File = &file

	res, err := b.Upload(ctx, file)
	if err != nil {
		return retained, fmt.Errorf("%w: upload %s: %w", ErrTransport, file.Filename, err)
	}

	next := retained
	next.TemplateID = res.TemplateID
	next.Placeholders = append([]Placeholder{}, res.Placeholders...)
	next.Log = NewLog(SeedTurn(res.Placeholders))
	next.Artifact = nil
	next.Completed = false
	next.Phase = PhaseConversation

	return next, nil
}

// SeedTurn composes the assistant turn that opens the dialogue.
func SeedTurn(placeholders []Placeholder) Turn {
	if len(placeholders) == 0 {
		return Turn{Role: RoleAssistant, Message: seedEmpty}
	}
	return Turn{
		Role:    RoleAssistant,
		Message: fmt.Sprintf(seedFoundFormat, len(placeholders), placeholders[0].Question),
	}
}
