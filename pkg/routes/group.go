// Package routes describes HTTP endpoints as nested groups and registers
// them on a ServeMux.
package routes

import "net/http"

// Group organizes routes under a common prefix with shared tags.
// Tags and Description are carried into the generated OpenAPI document.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	Walk(func(path string, tags []string, route Route) {
		mux.HandleFunc(route.Method+" "+path, route.Handler)
	}, groups...)
}

// Walk visits every route with its fully prefixed path. Children inherit
// their parent's tags when they declare none.
func Walk(fn func(path string, tags []string, route Route), groups ...Group) {
	for _, group := range groups {
		walkGroup(fn, "", nil, group)
	}
}

func walkGroup(fn func(string, []string, Route), parentPrefix string, parentTags []string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	tags := group.Tags
	if len(tags) == 0 {
		tags = parentTags
	}

	for _, route := range group.Routes {
		fn(fullPrefix+route.Pattern, tags, route)
	}
	for _, child := range group.Children {
		walkGroup(fn, fullPrefix, tags, child)
	}
}
