package templates_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/clerk/internal/assistant"
	"github.com/JaimeStill/clerk/internal/templates"
	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/docx"
	"github.com/JaimeStill/clerk/pkg/docx/docxtest"
	"github.com/JaimeStill/clerk/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSystem(store storage.System) templates.System {
	return templates.New(store, assistant.New(nil, discard()), discard())
}

func memo(t *testing.T) []byte {
	return docxtest.New().
		Paragraph("Memo for ", "[Company Name]").
		Table([]string{"Effective", "[Date]"}).
		Bytes(t)
}

func user(msg string) workflow.Turn {
	return workflow.Turn{Role: workflow.RoleUser, Message: msg}
}

func assistantTurn(msg string) workflow.Turn {
	return workflow.Turn{Role: workflow.RoleAssistant, Message: msg}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(nil, nil)
	sys := newSystem(store)

	tmpl, err := sys.Upload(ctx, "memo.docx", memo(t))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, tmpl.ID)
	assert.Equal(t, "memo.docx", tmpl.Filename)
	assert.Equal(t, []workflow.Placeholder{
		{Name: "Company Name", Question: "What should I fill in for [Company Name]?"},
		{Name: "Date", Question: "What should I fill in for [Date]?"},
	}, tmpl.Placeholders)

	ok, err := store.Exists(ctx, tmpl.StorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadRejects(t *testing.T) {
	sys := newSystem(storage.NewMemory(nil, nil))

	tests := []struct {
		name     string
		filename string
		data     []byte
		want     error
	}{
		{"wrong extension", "memo.pdf", []byte("%PDF"), templates.ErrInvalidFile},
		{"not a package", "memo.docx", []byte("plain"), templates.ErrInvalidTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.Upload(context.Background(), tt.filename, tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChat(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(storage.NewMemory(nil, nil))

	tmpl, err := sys.Upload(ctx, "memo.docx", memo(t))
	require.NoError(t, err)

	seed := workflow.SeedTurn(tmpl.Placeholders)
	reply, err := sys.Chat(ctx, workflow.ChatRequest{
		TemplateID: tmpl.ID.String(),
		Message:    "Acme Corp",
		History:    []workflow.Turn{seed, user("Acme Corp")},
	})
	require.NoError(t, err)

	assert.False(t, reply.AllFilled)
	assert.Equal(t, "Thank you! Now, What should I fill in for [Date]?", reply.Response)
	assert.Equal(t, 1, reply.FilledCount)
	assert.Equal(t, 2, reply.TotalCount)

	reply, err = sys.Chat(ctx, workflow.ChatRequest{
		Message: "June 1",
		History: []workflow.Turn{seed, user("Acme Corp"), assistantTurn(reply.Response)},
	})
	require.NoError(t, err)

	assert.True(t, reply.AllFilled)
	assert.Equal(t, 2, reply.FilledCount)
	assert.Contains(t, reply.Response, "ready to download")
}

func TestChatResolveErrors(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(storage.NewMemory(nil, nil))

	_, err := sys.Chat(ctx, workflow.ChatRequest{Message: "hi"})
	require.ErrorIs(t, err, templates.ErrNoTemplate)

	_, err = sys.Chat(ctx, workflow.ChatRequest{TemplateID: "nope", Message: "hi"})
	require.ErrorIs(t, err, templates.ErrInvalidID)

	_, err = sys.Chat(ctx, workflow.ChatRequest{TemplateID: uuid.NewString(), Message: "hi"})
	require.ErrorIs(t, err, templates.ErrNotFound)
}

func completedHistory(placeholders []workflow.Placeholder) []workflow.Turn {
	return []workflow.Turn{
		workflow.SeedTurn(placeholders),
		user("Acme Corp"),
		assistantTurn("Thank you! Now, What should I fill in for [Date]?"),
		user("June 1"),
		assistantTurn("Great! I have all the information I need. Your document is ready to download."),
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(storage.NewMemory(nil, nil))

	tmpl, err := sys.Upload(ctx, "memo.docx", memo(t))
	require.NoError(t, err)

	art, err := sys.Generate(ctx, workflow.GenerateRequest{
		TemplateID: tmpl.ID.String(),
		History:    completedHistory(tmpl.Placeholders),
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.DefaultArtifactName, art.Filename)
	assert.Equal(t, docx.ContentType, art.ContentType)
	assert.False(t, art.CreatedAt.IsZero())

	doc, err := docx.Open(art.Data)
	require.NoError(t, err)
	content, err := doc.Content()
	require.NoError(t, err)

	assert.Equal(t, []string{"Memo for Acme Corp"}, content.Paragraphs)
	assert.Equal(t, [][]string{{"Effective", "June 1"}}, content.Tables[0].Rows)
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(storage.NewMemory(nil, nil))

	tmpl, err := sys.Upload(ctx, "memo.docx", memo(t))
	require.NoError(t, err)

	history := completedHistory(tmpl.Placeholders)[:2]
	preview, err := sys.Preview(ctx, workflow.GenerateRequest{History: history})
	require.NoError(t, err)

	assert.Contains(t, preview.Preview, "Memo for Acme Corp")
	assert.Contains(t, preview.Preview, "Effective | [Date]")
	assert.Equal(t, 1, preview.FilledCount)
	assert.Equal(t, 2, preview.TotalCount)
}

func TestPreviewHTML(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(storage.NewMemory(nil, nil))

	tmpl, err := sys.Upload(ctx, "memo.docx", memo(t))
	require.NoError(t, err)

	history := completedHistory(tmpl.Placeholders)
	preview, err := sys.PreviewHTML(ctx, workflow.GenerateRequest{TemplateID: tmpl.ID.String(), History: history})
	require.NoError(t, err)

	assert.Contains(t, preview.HTML, "<p>Memo for Acme Corp</p>")
	assert.Contains(t, preview.HTML, "<td>Effective</td>")
	assert.NotContains(t, preview.HTML, "[Date]")
	assert.Equal(t, 2, preview.FilledCount)
	assert.Equal(t, 2, preview.TotalCount)
}

func TestFindFromStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(nil, nil)

	tmpl, err := newSystem(store).Upload(ctx, "Q3 memo.docx", memo(t))
	require.NoError(t, err)

	fresh := newSystem(store)

	found, err := fresh.Find(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q3 memo.docx", found.Filename)
	assert.Equal(t, tmpl.Placeholders, found.Placeholders)

	reply, err := fresh.Chat(ctx, workflow.ChatRequest{
		Message: "Acme",
		History: []workflow.Turn{workflow.SeedTurn(tmpl.Placeholders), user("Acme")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reply.FilledCount)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(storage.NewMemory(nil, nil))

	a, err := sys.Upload(ctx, "a.docx", memo(t))
	require.NoError(t, err)
	b, err := sys.Upload(ctx, "b.docx", memo(t))
	require.NoError(t, err)

	list, err := sys.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	ids := []uuid.UUID{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)

	require.NoError(t, sys.Delete(ctx, a.ID))

	_, err = sys.Find(ctx, a.ID)
	require.ErrorIs(t, err, templates.ErrNotFound)

	err = sys.Delete(ctx, a.ID)
	require.ErrorIs(t, err, templates.ErrNotFound)

	list, err = sys.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestBackendDrivesWorkflow(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(storage.NewMemory(nil, nil))
	m := workflow.New(templates.NewBackend(sys))

	require.NoError(t, m.Upload(ctx, workflow.UploadedFile{Filename: "memo.docx", Data: memo(t)}))
	assert.Equal(t, workflow.PhaseConversation, m.Phase())

	require.NoError(t, m.Send(ctx, "Acme Corp"))
	assert.Equal(t, workflow.PhaseConversation, m.Phase())

	require.NoError(t, m.Send(ctx, "June 1"))

	state := m.State()
	assert.Equal(t, workflow.PhaseReview, state.Phase)
	require.NotNil(t, state.Artifact)
	assert.Equal(t, workflow.DefaultArtifactName, state.Artifact.Filename)
	assert.Equal(t, 5, state.Log.Len())

	doc, err := docx.Open(state.Artifact.Data)
	require.NoError(t, err)
	content, err := doc.Content()
	require.NoError(t, err)
	assert.Equal(t, "Memo for Acme Corp", content.Paragraphs[0])
}

func TestMapHTTPStatus(t *testing.T) {
	assert.Equal(t, 404, templates.MapHTTPStatus(templates.ErrNotFound))
	assert.Equal(t, 400, templates.MapHTTPStatus(templates.ErrInvalidFile))
	assert.Equal(t, 413, templates.MapHTTPStatus(templates.ErrFileTooLarge))
	assert.Equal(t, 500, templates.MapHTTPStatus(assert.AnError))
}
