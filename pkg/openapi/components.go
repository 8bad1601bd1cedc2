package openapi

import "maps"

// NewComponents creates Components with shared schemas and error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending. Example: -updated_at"},
				},
			},
			"Turn": {
				Type:     "object",
				Required: []string{"role", "message"},
				Properties: map[string]*Schema{
					"role":    {Type: "string", Enum: []any{"user", "assistant"}},
					"message": {Type: "string"},
				},
			},
			"Placeholder": {
				Type: "object",
				Properties: map[string]*Schema{
					"name":     {Type: "string", Example: "Company Name"},
					"question": {Type: "string", Example: "What should I fill in for [Company Name]?"},
				},
			},
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest": errorResponse("Invalid request"),
			"NotFound":   errorResponse("Resource not found"),
			"Conflict":   errorResponse("Operation in progress or not allowed in the current phase"),
			"BadGateway": errorResponse("Remote collaborator call failed"),
		},
	}
}

func errorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("Error")},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}
