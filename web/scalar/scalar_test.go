package scalar_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/clerk/web/scalar"
)

func TestModuleRendersReference(t *testing.T) {
	m := scalar.NewModule("/scalar", "Clerk API", "/api/openapi.json")

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/scalar", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `data-url="/api/openapi.json"`)
	assert.Contains(t, rec.Body.String(), "<title>Clerk API</title>")
}

func TestModuleUnknownPath(t *testing.T) {
	m := scalar.NewModule("/scalar", "Clerk API", "/api/openapi.json")

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/scalar/missing.js", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
