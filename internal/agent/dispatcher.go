package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"taskflow/internal/domain"
	"taskflow/internal/tooling"
)

// ToolDispatcher routes an extracted Command to the matching registered tool.
// It injects the authenticated owner into the arguments (the LLM never
// supplies or controls the owner), validates the result against the tool's
// JSON Schema, and only then calls the tool.
type ToolDispatcher struct {
	registry *tooling.Registry
	logger   *slog.Logger
}

// NewToolDispatcher creates a dispatcher backed by the given registry.
// Panics if registry is nil.
func NewToolDispatcher(registry *tooling.Registry, logger *slog.Logger) *ToolDispatcher {
	if registry == nil {
		panic("dispatcher: registry must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolDispatcher{registry: registry, logger: logger}
}

// Definitions exposes the registry catalog for prompting and listing.
func (d *ToolDispatcher) Definitions() []domain.ToolDefinition {
	return d.registry.Definitions()
}

// Dispatch executes the command for the given owner. Unknown tools, invalid
// arguments, and handler panics become structured result payloads; a handler
// error is a persistence or infrastructure failure and propagates to the
// caller instead of masquerading as a completed invocation.
func (d *ToolDispatcher) Dispatch(ctx context.Context, ownerID string, cmd domain.Command) (result domain.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", cmd.Function, "panic", r)
			result = domain.ToolResult{
				Status: domain.StatusError,
				Error:  fmt.Sprintf("tool %s failed", cmd.Function),
			}
			err = nil
		}
	}()

	tool, err := d.registry.Get(cmd.Function)
	if err != nil {
		return domain.ToolResult{Error: fmt.Sprintf("Unknown tool: %s", cmd.Function)}, nil
	}

	args := make(map[string]any, len(cmd.Arguments)+1)
	for k, v := range cmd.Arguments {
		args[k] = v
	}
	args["user_id"] = ownerID

	raw, err := json.Marshal(args)
	if err != nil {
		return domain.ToolResult{Status: domain.StatusError, Error: fmt.Sprintf("encode arguments: %v", err)}, nil
	}

	if err := tooling.ValidateAgainstSchema(raw, tool.Definition()); err != nil {
		d.logger.Warn("tool arguments rejected", "tool", cmd.Function, "err", err)
		return domain.ToolResult{
			Status: domain.StatusError,
			Error:  fmt.Sprintf("invalid arguments for %s", cmd.Function),
		}, nil
	}

	result, err = tool.Call(ctx, raw)
	if err != nil {
		d.logger.Error("tool failed", "tool", cmd.Function, "err", err)
		return domain.ToolResult{}, fmt.Errorf("tool %s: %w", cmd.Function, err)
	}
	return result, nil
}
