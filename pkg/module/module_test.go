package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/clerk/pkg/module"
)

func TestNewInvalidPrefixPanics(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1"} {
		t.Run(prefix, func(t *testing.T) {
			assert.Panics(t, func() { module.New(prefix, http.NewServeMux()) })
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	var got []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path)
	})
	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path+"#"+r.PathValue("id"))
	})

	m := module.New("/api", mux)
	m.Serve(httptest.NewRecorder(), httptest.NewRequest("GET", "/api", nil))
	m.Serve(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/sessions/abc", nil))

	assert.Equal(t, []string{"/", "/sessions/abc#abc"}, got)
}

func TestModuleMiddleware(t *testing.T) {
	m := module.New("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var called bool
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	})

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api/x", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouterDispatch(t *testing.T) {
	reply := func(body string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
	}

	router := module.NewRouter()
	router.Mount(module.New("/api", reply("api")))
	router.Mount(module.New("/scalar", reply("scalar")))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("native"))
	})

	tests := []struct {
		path   string
		body   string
		status int
	}{
		{"/api/sessions", "api", http.StatusOK},
		{"/api/sessions/", "api", http.StatusOK},
		{"/scalar", "scalar", http.StatusOK},
		{"/healthz", "native", http.StatusOK},
		{"/missing", "404 page not found\n", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}
