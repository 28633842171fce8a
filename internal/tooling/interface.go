package tooling

import (
	"context"
	"encoding/json"

	"taskflow/internal/domain"
)

// Tool is one registered task operation. Definition returns the JSON Schema
// for the tool's arguments; Call receives arguments that have already passed
// schema validation, user_id included.
type Tool interface {
	Name() string
	Description() string
	Definition() string
	Call(ctx context.Context, args json.RawMessage) (domain.ToolResult, error)
}
