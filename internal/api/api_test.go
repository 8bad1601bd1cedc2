package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/clerk/internal/api"
	"github.com/JaimeStill/clerk/internal/config"
	"github.com/JaimeStill/clerk/internal/infrastructure"
	"github.com/JaimeStill/clerk/internal/sessions"
	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/docx/docxtest"
	"github.com/JaimeStill/clerk/pkg/middleware"
	"github.com/JaimeStill/clerk/pkg/module"
	"github.com/JaimeStill/clerk/pkg/openapi"
	"github.com/JaimeStill/clerk/pkg/pagination"
	"github.com/JaimeStill/clerk/pkg/storage"
)

func validConfig() *config.Config {
	return &config.Config{
		Storage: storage.Config{
			Provider:      storage.ProviderMemory,
			ContainerName: "clerk",
			MaxListSize:   100,
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "1MB",
			CORS:          middleware.CORSConfig{Enabled: false},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
			OpenAPI: openapi.Config{Title: "Clerk API"},
		},
		Client: config.ClientConfig{
			BaseURL: "http://localhost:8080/api/assistant",
			Timeout: "5s",
		},
		Sessions: config.SessionsConfig{
			Backend:          config.BackendLocal,
			Store:            config.StoreMemory,
			OperationTimeout: "5s",
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setup(t *testing.T) (*config.Config, *infrastructure.Infrastructure) {
	t.Helper()
	cfg := validConfig()
	infra, err := infrastructure.New(cfg)
	require.NoError(t, err)
	return cfg, infra
}

func serve(t *testing.T, m *module.Module, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Serve(rec, req)
	return rec
}

func TestNewRuntime(t *testing.T) {
	cfg, infra := setup(t)

	runtime := api.NewRuntime(cfg, infra)

	assert.Equal(t, 20, runtime.Pagination.DefaultPageSize)
	assert.NotNil(t, runtime.Logger)
	assert.Nil(t, runtime.Database)
	assert.NotNil(t, runtime.Storage)
	assert.NotNil(t, runtime.Assistant)
	assert.Equal(t, "http://localhost:8080/api/assistant", runtime.Client.BaseURL())
	assert.IsType(t, &sessions.MemoryStore{}, runtime.Store)
}

func TestNewDomain(t *testing.T) {
	cfg, infra := setup(t)

	domain, err := api.NewDomain(api.NewRuntime(cfg, infra))
	require.NoError(t, err)
	assert.NotNil(t, domain.Templates)
	assert.NotNil(t, domain.Sessions)

	_, err = api.NewDomain(api.NewRuntime(cfg, infra))
	assert.Error(t, err, "metrics register once per registry")
}

func TestModuleServesSessionRun(t *testing.T) {
	cfg, infra := setup(t)

	m, err := api.NewModule(cfg, infra)
	require.NoError(t, err)
	assert.Equal(t, "/api", m.Prefix())

	rec := serve(t, m, httptest.NewRequest("POST", "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var s sessions.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "memo.docx")
	require.NoError(t, err)
	_, err = fw.Write(docxtest.New().Paragraph("Memo for ", "[Company Name]").Bytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/sessions/"+s.ID.String()+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = serve(t, m, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var op sessions.OperationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&op))
	assert.Equal(t, workflow.PhaseConversation, op.Session.Phase)
	assert.Equal(t, []workflow.Placeholder{
		{Name: "Company Name", Question: "What should I fill in for [Company Name]?"},
	}, op.Session.Placeholders)

	req = httptest.NewRequest("POST", "/api/sessions/"+s.ID.String()+"/messages", bytes.NewBufferString(`{"message":"Acme Corp"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(t, m, req)
	require.Equal(t, http.StatusOK, rec.Code)

	op = sessions.OperationResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&op))
	assert.Equal(t, workflow.PhaseReview, op.Session.Phase)

	rec = serve(t, m, httptest.NewRequest("GET", "/api/sessions/"+s.ID.String()+"/artifact", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), workflow.DefaultArtifactName)

	rec = serve(t, m, httptest.NewRequest("GET", "/api/storage?prefix=sessions/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var blobs []storage.Blob
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&blobs))
	assert.Len(t, blobs, 1)
}

func TestModuleServesOpenAPI(t *testing.T) {
	cfg, infra := setup(t)

	m, err := api.NewModule(cfg, infra)
	require.NoError(t, err)

	rec := serve(t, m, httptest.NewRequest("GET", "/api/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var spec openapi.Spec
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&spec))
	assert.Equal(t, "Clerk API", spec.Info.Title)
	assert.Contains(t, spec.Paths, "/assistant/upload")
	assert.Contains(t, spec.Paths, "/sessions/{id}/messages")
	assert.Contains(t, spec.Paths, "/storage/download/{key}")

	send := spec.Paths["/sessions/{id}/messages"].Post
	require.NotNil(t, send)
	require.NotNil(t, send.RequestBody)
	assert.Equal(t, "#/components/schemas/MessageRequest", send.RequestBody.Content["application/json"].Schema.Ref)

	for _, name := range []string{"Session", "OperationResponse", "ChatRequest", "Error"} {
		assert.Contains(t, spec.Components.Schemas, name)
	}
}
