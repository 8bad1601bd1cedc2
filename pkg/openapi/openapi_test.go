package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/clerk/pkg/openapi"
	"github.com/JaimeStill/clerk/pkg/routes"
)

func noop(http.ResponseWriter, *http.Request) {}

func TestAddGroups(t *testing.T) {
	spec := openapi.NewSpec("Clerk API", "test")
	spec.AddGroups("/api", routes.Group{
		Prefix:      "/sessions",
		Tags:        []string{"Sessions"},
		Description: "Workflow runs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Summary: "List sessions", Handler: noop,
				Query: []routes.Param{{Name: "phase", Type: "string"}}},
			{Method: "POST", Pattern: "/{id}/messages", Handler: noop,
				Request: "MessageRequest", Response: "Session"},
			{Method: "DELETE", Pattern: "/{id}", Handler: noop},
		},
	}, routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: noop},
		},
	})

	require.Contains(t, spec.Paths, "/api/sessions")
	list := spec.Paths["/api/sessions"].Get
	require.NotNil(t, list)
	assert.Equal(t, "List sessions", list.Summary)
	assert.Equal(t, []string{"Sessions"}, list.Tags)
	assert.Equal(t, "getApiSessions", list.OperationID)
	require.Len(t, list.Parameters, 1)
	assert.Equal(t, "query", list.Parameters[0].In)
	assert.Nil(t, list.RequestBody)

	send := spec.Paths["/api/sessions/{id}/messages"].Post
	require.NotNil(t, send)
	require.Len(t, send.Parameters, 1)
	assert.Equal(t, "uuid", send.Parameters[0].Schema.Format)
	require.NotNil(t, send.RequestBody)
	assert.Equal(t, "#/components/schemas/MessageRequest", send.RequestBody.Content["application/json"].Schema.Ref)
	assert.Equal(t, "#/components/schemas/Session", send.Responses[http.StatusOK].Content["application/json"].Schema.Ref)
	assert.NotNil(t, send.Responses[http.StatusConflict])

	require.NotNil(t, spec.Paths["/api/sessions/{id}"].Delete)

	blob := spec.Paths["/api/storage/{key}"].Get
	require.NotNil(t, blob)
	assert.Equal(t, "key", blob.Parameters[0].Name)
	assert.Empty(t, blob.Parameters[0].Schema.Format)

	require.Len(t, spec.Tags, 1)
	assert.Equal(t, "Workflow runs", spec.Tags[0].Description)
}

func TestAddTagDeduplicates(t *testing.T) {
	spec := openapi.NewSpec("Clerk API", "test")
	spec.AddTag("Assistant", "")
	spec.AddTag("Assistant", "Collaborator endpoints")
	require.Len(t, spec.Tags, 1)
	assert.Equal(t, "Collaborator endpoints", spec.Tags[0].Description)
}

func TestAddSchemas(t *testing.T) {
	spec := openapi.NewSpec("Clerk API", "test")
	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Session": {Type: "object"},
	})
	assert.Contains(t, spec.Components.Schemas, "Session")
	assert.Contains(t, spec.Components.Schemas, "Error")
}

func TestServeSpec(t *testing.T) {
	spec := openapi.NewSpec("Clerk API", "1.0.0")
	data, err := openapi.MarshalJSON(spec)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "3.1.0", got["openapi"])
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_OPENAPI_TITLE", "Override")

	cfg := &openapi.Config{}
	require.NoError(t, cfg.Finalize(&openapi.ConfigEnv{Title: "TEST_OPENAPI_TITLE"}))
	assert.Equal(t, "Override", cfg.Title)
	assert.NotEmpty(t, cfg.Description)
}
