// Package client implements workflow.Backend over HTTP against the
// collaborator API (upload, chat, generate).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/clerk/internal/workflow"
)

const maxErrorBody = 4 << 10

// StatusError is returned when the collaborator answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

// Client is an HTTP workflow.Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client rooted at baseURL (for example
// http://localhost:8080/api/assistant). A zero timeout disables the
// per-request deadline.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("system", "client"),
	}
}

// BaseURL returns the collaborator root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Upload(ctx context.Context, file workflow.UploadedFile) (workflow.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", file.Filename)
	if err != nil {
		return workflow.UploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(file.Data); err != nil {
		return workflow.UploadResult{}, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return workflow.UploadResult{}, fmt.Errorf("close multipart: %w", err)
	}

	resp, err := c.do(ctx, "/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		return workflow.UploadResult{}, err
	}
	defer resp.Body.Close()

	var result workflow.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return workflow.UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	if result.Placeholders == nil {
		result.Placeholders = []workflow.Placeholder{}
	}

	c.logger.Debug("template uploaded", "filename", file.Filename, "placeholders", len(result.Placeholders))
	return result, nil
}

func (c *Client) Chat(ctx context.Context, req workflow.ChatRequest) (workflow.ChatReply, error) {
	resp, err := c.postJSON(ctx, "/chat", req)
	if err != nil {
		return workflow.ChatReply{}, err
	}
	defer resp.Body.Close()

	var reply workflow.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return workflow.ChatReply{}, fmt.Errorf("decode chat response: %w", err)
	}
	return reply, nil
}

func (c *Client) Generate(ctx context.Context, req workflow.GenerateRequest) (workflow.Artifact, error) {
	resp, err := c.postJSON(ctx, "/generate", req)
	if err != nil {
		return workflow.Artifact{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return workflow.Artifact{}, fmt.Errorf("read document: %w", err)
	}
	if len(data) == 0 {
		return workflow.Artifact{}, ErrEmptyDocument
	}

	return workflow.Artifact{
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ErrEmptyDocument is returned when generate succeeds without a body.
var ErrEmptyDocument = errors.New("collaborator returned an empty document")

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(data))
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	c.logger.Debug("collaborator call", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

// statusError reads the error detail a collaborator returns. Both
// {"detail": "..."} and {"error": "..."} bodies are understood.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Detail != "":
			msg = body.Detail
		case body.Error != "":
			msg = body.Error
		}
	}

	return &StatusError{Code: resp.StatusCode, Message: msg}
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return baseName(params["filename"])
}

// baseName strips any directory part from a server-supplied filename.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}
