package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/clerk/pkg/routes"
)

func echo(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name + ":" + r.PathValue("id")))
	}
}

func tree() routes.Group {
	return routes.Group{
		Prefix: "/sessions",
		Tags:   []string{"Sessions"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: echo("list")},
			{Method: "GET", Pattern: "/{id}", Handler: echo("find")},
		},
		Children: []routes.Group{
			{
				Prefix: "/{id}/messages",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: echo("send")},
				},
			},
			{
				Prefix: "/{id}/artifact",
				Tags:   []string{"Artifacts"},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: echo("artifact")},
				},
			},
		},
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, tree())

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/sessions", "list:"},
		{"GET", "/sessions/abc", "find:abc"},
		{"POST", "/sessions/abc/messages", "send:abc"},
		{"GET", "/sessions/abc/artifact", "artifact:abc"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRegisterRejectsWrongMethod(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, tree())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/sessions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWalkInheritsTags(t *testing.T) {
	got := map[string][]string{}
	routes.Walk(func(path string, tags []string, route routes.Route) {
		got[route.Method+" "+path] = tags
	}, tree())

	assert.Equal(t, []string{"Sessions"}, got["GET /sessions"])
	assert.Equal(t, []string{"Sessions"}, got["POST /sessions/{id}/messages"])
	assert.Equal(t, []string{"Artifacts"}, got["GET /sessions/{id}/artifact"])
	assert.Len(t, got, 4)
}
