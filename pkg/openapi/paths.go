package openapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/JaimeStill/clerk/pkg/routes"
)

var paramPattern = regexp.MustCompile(`\{([^}.]+)(?:\.\.\.)?\}`)

// AddGroups documents every route in groups under basePath. Path wildcards
// become path parameters; "id" parameters are typed as UUIDs. Request and
// Response schema names must be registered in Components.
func (s *Spec) AddGroups(basePath string, groups ...routes.Group) {
	for _, g := range groups {
		for _, tag := range g.Tags {
			s.AddTag(tag, g.Description)
		}
	}

	routes.Walk(func(path string, tags []string, route routes.Route) {
		full := basePath + path
		if full == "" {
			full = "/"
		}
		key := paramPattern.ReplaceAllString(full, "{$1}")

		item, ok := s.Paths[key]
		if !ok {
			item = &PathItem{}
			s.Paths[key] = item
		}

		op := &Operation{
			OperationID: operationID(route.Method, key),
			Summary:     route.Summary,
			Tags:        tags,
			Responses:   defaultResponses(route.Method),
		}
		for _, m := range paramPattern.FindAllStringSubmatch(full, -1) {
			if m[1] == "id" {
				op.Parameters = append(op.Parameters, PathParam(m[1], "Resource identifier"))
				continue
			}
			op.Parameters = append(op.Parameters, StringPathParam(m[1], ""))
		}
		for _, q := range route.Query {
			op.Parameters = append(op.Parameters, QueryParam(q.Name, q.Type, q.Description, false))
		}
		if route.Request != "" {
			op.RequestBody = RequestBodyJSON(route.Request, true)
		}
		if route.Response != "" {
			op.Responses[http.StatusOK] = ResponseJSON("Success", route.Response)
		}

		item.Set(route.Method, op)
	}, groups...)
}

func defaultResponses(method string) map[int]*Response {
	switch method {
	case "POST":
		return map[int]*Response{
			http.StatusOK:         {Description: "Success"},
			http.StatusBadRequest: ResponseRef("BadRequest"),
			http.StatusConflict:   ResponseRef("Conflict"),
		}
	case "DELETE":
		return map[int]*Response{
			http.StatusNoContent: {Description: "Deleted"},
			http.StatusNotFound:  ResponseRef("NotFound"),
		}
	}
	return map[int]*Response{
		http.StatusOK:       {Description: "Success"},
		http.StatusNotFound: ResponseRef("NotFound"),
	}
}

func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		seg = strings.Trim(seg, "{}")
		if seg == "" {
			continue
		}
		for _, part := range strings.FieldsFunc(seg, func(r rune) bool { return r == '_' || r == '-' }) {
			b.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}
	return b.String()
}
