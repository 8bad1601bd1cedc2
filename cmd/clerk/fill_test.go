package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/clerk/internal/workflow"
)

type stubBackend struct {
	uploads      int
	failGenerate int
	filename     string
}

func (s *stubBackend) Upload(_ context.Context, file workflow.UploadedFile) (workflow.UploadResult, error) {
	s.uploads++
	return workflow.UploadResult{
		TemplateID:   "tmpl-1",
		Filename:     file.Filename,
		Placeholders: []workflow.Placeholder{{Name: "Name", Question: "What is the name?"}},
	}, nil
}

func (s *stubBackend) Chat(_ context.Context, req workflow.ChatRequest) (workflow.ChatReply, error) {
	if req.Message == "skip" {
		return workflow.ChatReply{Response: "What is the name?"}, nil
	}
	return workflow.ChatReply{Response: "All set.", AllFilled: true}, nil
}

func (s *stubBackend) Generate(_ context.Context, req workflow.GenerateRequest) (workflow.Artifact, error) {
	if s.failGenerate > 0 {
		s.failGenerate--
		return workflow.Artifact{}, errors.New("renderer unavailable")
	}
	name := s.filename
	if name == "" {
		name = workflow.DefaultArtifactName
	}
	return workflow.Artifact{
		Filename:    name,
		ContentType: "application/octet-stream",
		Data:        []byte("filled:" + req.History[len(req.History)-2].Message),
	}, nil
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lease.docx")
	require.NoError(t, os.WriteFile(path, []byte("template"), 0o644))
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFillWritesDocument(t *testing.T) {
	b := &stubBackend{}
	path := writeTemplate(t)
	outPath := filepath.Join(t.TempDir(), "out.docx")

	var out bytes.Buffer
	f := newFiller(b, strings.NewReader("\nskip\nAcme Corp\n"), &out, discard())
	require.NoError(t, f.run(context.Background(), path, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "filled:Acme Corp", string(data))

	text := out.String()
	assert.Contains(t, text, "found 1 placeholders")
	assert.Contains(t, text, "All set.")
	assert.Contains(t, text, "Wrote "+outPath)
}

func TestFillDefaultOutputPath(t *testing.T) {
	path := writeTemplate(t)

	var out bytes.Buffer
	f := newFiller(&stubBackend{}, strings.NewReader("Acme\n"), &out, discard())
	require.NoError(t, f.run(context.Background(), path, ""))

	_, err := os.Stat(filepath.Join(filepath.Dir(path), workflow.DefaultArtifactName))
	assert.NoError(t, err)
}

func TestFillKeepsOutputNextToTemplate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"parent traversal", "../escaped.docx", "escaped.docx"},
		{"nested path", "a/b/nested.docx", "nested.docx"},
		{"dot dot", "..", workflow.DefaultArtifactName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dir := filepath.Join(root, "sub")
			require.NoError(t, os.Mkdir(dir, 0o755))
			path := filepath.Join(dir, "t.docx")
			require.NoError(t, os.WriteFile(path, []byte("template"), 0o644))

			var out bytes.Buffer
			f := newFiller(&stubBackend{filename: tt.filename}, strings.NewReader("Acme\n"), &out, discard())
			require.NoError(t, f.run(context.Background(), path, ""))

			_, err := os.Stat(filepath.Join(dir, tt.want))
			assert.NoError(t, err)
			_, err = os.Stat(filepath.Join(root, "escaped.docx"))
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestFillRefusesToOverwriteTemplate(t *testing.T) {
	path := writeTemplate(t)

	var out bytes.Buffer
	f := newFiller(&stubBackend{filename: filepath.Base(path)}, strings.NewReader("Acme\n"), &out, discard())
	err := f.run(context.Background(), path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to overwrite template")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "template", string(data))
}

func TestFillGenerateRetry(t *testing.T) {
	b := &stubBackend{failGenerate: 1}
	path := writeTemplate(t)
	outPath := filepath.Join(t.TempDir(), "out.docx")

	var out bytes.Buffer
	f := newFiller(b, strings.NewReader("Acme\n/generate\n"), &out, discard())
	require.NoError(t, f.run(context.Background(), path, outPath))

	text := out.String()
	assert.Contains(t, text, "! Failed to generate document")
	assert.Contains(t, text, "type /generate to retry")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "filled:Acme", string(data))
}

func TestFillResetReuploads(t *testing.T) {
	b := &stubBackend{}
	path := writeTemplate(t)
	outPath := filepath.Join(t.TempDir(), "out.docx")

	var out bytes.Buffer
	f := newFiller(b, strings.NewReader("skip\n/reset\nBeta\n"), &out, discard())
	require.NoError(t, f.run(context.Background(), path, outPath))

	assert.Equal(t, 2, b.uploads)
	assert.Contains(t, out.String(), "Starting over.")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "filled:Beta", string(data))
}

func TestFillQuit(t *testing.T) {
	for _, input := range []string{"/quit\n", ""} {
		path := writeTemplate(t)

		var out bytes.Buffer
		f := newFiller(&stubBackend{}, strings.NewReader(input), &out, discard())
		require.NoError(t, f.run(context.Background(), path, ""))

		assert.Contains(t, out.String(), "Exiting without a document.")
		_, err := os.Stat(filepath.Join(filepath.Dir(path), workflow.DefaultArtifactName))
		assert.True(t, os.IsNotExist(err))
	}
}

func TestFillRejectsNonDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	b := &stubBackend{}
	f := newFiller(b, strings.NewReader(""), io.Discard, discard())
	err := f.run(context.Background(), path, "")

	assert.ErrorIs(t, err, workflow.ErrInvalidFormat)
	assert.Zero(t, b.uploads)
}

func TestFillGenerateBeforeCompletion(t *testing.T) {
	path := writeTemplate(t)

	var out bytes.Buffer
	f := newFiller(&stubBackend{}, strings.NewReader("/generate\n"), &out, discard())
	require.NoError(t, f.run(context.Background(), path, ""))

	assert.Contains(t, out.String(), "! "+workflow.ErrNothingToGenerate.Error())
	assert.Contains(t, out.String(), "Exiting without a document.")
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "clerk version "+Version+"\n", out.String())
}

func TestFillRequiresTemplate(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"fill"})

	assert.Error(t, cmd.Execute())
}
