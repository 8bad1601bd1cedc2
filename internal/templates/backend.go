package templates

import (
	"context"

	"github.com/JaimeStill/clerk/internal/workflow"
)

type backend struct {
	sys System
}

// NewBackend exposes a System as an in-process workflow.Backend, so a
// session can run against the collaborator without an HTTP hop.
func NewBackend(sys System) workflow.Backend {
	return &backend{sys: sys}
}

func (b *backend) Upload(ctx context.Context, file workflow.UploadedFile) (workflow.UploadResult, error) {
	t, err := b.sys.Upload(ctx, file.Filename, file.Data)
	if err != nil {
		return workflow.UploadResult{}, err
	}
	return workflow.UploadResult{
		TemplateID:   t.ID.String(),
		Filename:     t.Filename,
		Placeholders: t.Placeholders,
	}, nil
}

func (b *backend) Chat(ctx context.Context, req workflow.ChatRequest) (workflow.ChatReply, error) {
	reply, err := b.sys.Chat(ctx, req)
	if err != nil {
		return workflow.ChatReply{}, err
	}
	return workflow.ChatReply{Response: reply.Response, AllFilled: reply.AllFilled}, nil
}

func (b *backend) Generate(ctx context.Context, req workflow.GenerateRequest) (workflow.Artifact, error) {
	return b.sys.Generate(ctx, req)
}
