package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
// Summary is optional documentation surfaced in the OpenAPI document.
type Route struct {
	Method  string
	Pattern string
	Summary string
	Handler http.HandlerFunc

	// Request and Response name component schemas for JSON bodies.
	Request  string
	Response string
	Query    []Param
}

// Param documents a query string parameter.
type Param struct {
	Name        string
	Type        string
	Description string
}
