package api

import "github.com/JaimeStill/clerk/pkg/openapi"

var (
	turnList        = &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Turn")}
	placeholderList = &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Placeholder")}
	phase           = &openapi.Schema{Type: "string", Enum: []any{"upload", "conversation", "review"}}
	timestamp       = &openapi.Schema{Type: "string", Format: "date-time"}
	uuidString      = &openapi.Schema{Type: "string", Format: "uuid"}
)

// domainSchemas are the request and response bodies referenced by route groups.
func domainSchemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Status": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"busy":  {Type: "boolean"},
				"error": {Type: "string"},
			},
		},
		"ArtifactInfo": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"filename":     {Type: "string", Example: "completed_document.docx"},
				"content_type": {Type: "string"},
				"size_bytes":   {Type: "integer"},
				"created_at":   timestamp,
			},
		},
		"Session": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           uuidString,
				"phase":        phase,
				"template_id":  {Type: "string"},
				"filename":     {Type: "string"},
				"placeholders": placeholderList,
				"conversation": turnList,
				"completed":    {Type: "boolean", Description: "The assistant reported every placeholder filled"},
				"artifact":     openapi.SchemaRef("ArtifactInfo"),
				"status":       openapi.SchemaRef("Status"),
				"created_at":   timestamp,
				"updated_at":   timestamp,
			},
		},
		"SessionSummary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                uuidString,
				"phase":             phase,
				"filename":          {Type: "string"},
				"placeholder_count": {Type: "integer"},
				"turn_count":        {Type: "integer"},
				"completed":         {Type: "boolean"},
				"has_artifact":      {Type: "boolean"},
				"error":             {Type: "string"},
				"created_at":        timestamp,
				"updated_at":        timestamp,
			},
		},
		"SessionPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("SessionSummary")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"OperationResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"session": openapi.SchemaRef("Session"),
				"error":   {Type: "string"},
			},
		},
		"MessageRequest": {
			Type:     "object",
			Required: []string{"message"},
			Properties: map[string]*openapi.Schema{
				"message": {Type: "string", Example: "Acme Corporation"},
			},
		},
		"ChatRequest": {
			Type:     "object",
			Required: []string{"conversation_history"},
			Properties: map[string]*openapi.Schema{
				"template_id":          {Type: "string", Description: "Defaults to the most recent upload"},
				"message":              {Type: "string"},
				"conversation_history": turnList,
			},
		},
		"ChatReply": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"response":     {Type: "string"},
				"all_filled":   {Type: "boolean"},
				"filled_count": {Type: "integer"},
				"total_count":  {Type: "integer"},
			},
		},
		"GenerateRequest": {
			Type:     "object",
			Required: []string{"conversation_history"},
			Properties: map[string]*openapi.Schema{
				"template_id":          {Type: "string", Description: "Defaults to the most recent upload"},
				"conversation_history": turnList,
			},
		},
		"UploadResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"template_id":  uuidString,
				"filename":     {Type: "string"},
				"placeholders": placeholderList,
				"count":        {Type: "integer"},
			},
		},
		"Template": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"template_id":  uuidString,
				"filename":     {Type: "string"},
				"storage_key":  {Type: "string"},
				"size_bytes":   {Type: "integer"},
				"uploaded_at":  timestamp,
				"placeholders": placeholderList,
			},
		},
		"Preview": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"preview":      {Type: "string"},
				"filled_count": {Type: "integer"},
				"total_count":  {Type: "integer"},
			},
		},
		"HTMLPreview": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"html":         {Type: "string"},
				"filled_count": {Type: "integer"},
				"total_count":  {Type: "integer"},
			},
		},
	}
}
