package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"taskflow/internal/domain"
	"taskflow/internal/tooling"
)

// =============================================================================
// Test helpers
// =============================================================================

// recordingTool captures the raw arguments it is called with.
type recordingTool struct {
	name     string
	schema   string
	lastArgs map[string]any
	result   domain.ToolResult
	err      error
	panics   bool
}

func (r *recordingTool) Name() string        { return r.name }
func (r *recordingTool) Description() string { return "recording stub" }
func (r *recordingTool) Definition() string {
	if r.schema != "" {
		return r.schema
	}
	return `{"type": "object"}`
}
func (r *recordingTool) Call(ctx context.Context, raw json.RawMessage) (domain.ToolResult, error) {
	if r.panics {
		panic("tool exploded")
	}
	if err := json.Unmarshal(raw, &r.lastArgs); err != nil {
		return domain.ToolResult{}, err
	}
	return r.result, r.err
}

func newTestDispatcher(t *testing.T, tools ...tooling.Tool) *ToolDispatcher {
	t.Helper()
	registry := tooling.NewRegistry()
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return NewToolDispatcher(registry, nil)
}

// =============================================================================
// Dispatch tests
// =============================================================================

func TestDispatch_ShouldInjectOwnerIntoArguments(t *testing.T) {
	tool := &recordingTool{name: "add_task"}
	d := newTestDispatcher(t, tool)

	if _, err := d.Dispatch(context.Background(), "alice", domain.Command{
		Function:  "add_task",
		Arguments: map[string]any{"title": "buy milk"},
	}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if tool.lastArgs["user_id"] != "alice" {
		t.Errorf("user_id = %v, want %q", tool.lastArgs["user_id"], "alice")
	}
	if tool.lastArgs["title"] != "buy milk" {
		t.Errorf("title = %v, want %q", tool.lastArgs["title"], "buy milk")
	}
}

func TestDispatch_ShouldOverrideOwnerSuppliedByLLM(t *testing.T) {
	tool := &recordingTool{name: "list_tasks"}
	d := newTestDispatcher(t, tool)

	// A completion that tries to act as someone else must be neutralized.
	if _, err := d.Dispatch(context.Background(), "alice", domain.Command{
		Function:  "list_tasks",
		Arguments: map[string]any{"user_id": "bob"},
	}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if tool.lastArgs["user_id"] != "alice" {
		t.Errorf("user_id = %v, want the authenticated owner %q", tool.lastArgs["user_id"], "alice")
	}
}

func TestDispatch_ShouldNotMutateCommandArguments(t *testing.T) {
	tool := &recordingTool{name: "add_task"}
	d := newTestDispatcher(t, tool)

	args := map[string]any{"title": "buy milk"}
	if _, err := d.Dispatch(context.Background(), "alice", domain.Command{Function: "add_task", Arguments: args}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if _, ok := args["user_id"]; ok {
		t.Error("dispatch must copy arguments, not write the owner into the caller's map")
	}
}

func TestDispatch_ShouldReturnUnknownToolResult(t *testing.T) {
	d := newTestDispatcher(t)

	result, err := d.Dispatch(context.Background(), "alice", domain.Command{
		Function:  "nonexistent_tool",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if result.Error != "Unknown tool: nonexistent_tool" {
		t.Errorf("error = %q, want %q", result.Error, "Unknown tool: nonexistent_tool")
	}
}

func TestDispatch_ShouldRejectArgumentsFailingSchema(t *testing.T) {
	tool := &recordingTool{
		name: "add_task",
		schema: `{
			"type": "object",
			"properties": {
				"user_id": {"type": "string"},
				"title": {"type": "string"}
			},
			"required": ["user_id", "title"],
			"additionalProperties": false
		}`,
	}
	d := newTestDispatcher(t, tool)

	result, err := d.Dispatch(context.Background(), "alice", domain.Command{
		Function:  "add_task",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if result.Status != domain.StatusError {
		t.Errorf("status = %q, want %q", result.Status, domain.StatusError)
	}
	if result.Error != "invalid arguments for add_task" {
		t.Errorf("error = %q, want %q", result.Error, "invalid arguments for add_task")
	}
	if tool.lastArgs != nil {
		t.Error("tool must not run when its arguments fail validation")
	}
}

func TestDispatch_ShouldPropagateToolError(t *testing.T) {
	storeErr := errors.New("database is closed")
	tool := &recordingTool{name: "add_task", err: storeErr}
	d := newTestDispatcher(t, tool)

	// A failing store must surface as an error, never as a result the
	// synthesizer could phrase as success.
	_, err := d.Dispatch(context.Background(), "alice", domain.Command{
		Function:  "add_task",
		Arguments: map[string]any{"title": "x"},
	})

	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped %v", err, storeErr)
	}
}

func TestDispatch_ShouldRecoverFromToolPanic(t *testing.T) {
	tool := &recordingTool{name: "add_task", panics: true}
	d := newTestDispatcher(t, tool)

	result, err := d.Dispatch(context.Background(), "alice", domain.Command{
		Function:  "add_task",
		Arguments: map[string]any{"title": "x"},
	})

	if err != nil {
		t.Fatalf("panic must be recovered into a result, got error %v", err)
	}
	if result.Status != domain.StatusError {
		t.Errorf("status = %q, want %q", result.Status, domain.StatusError)
	}
	if result.Error != "tool add_task failed" {
		t.Errorf("error = %q, want %q", result.Error, "tool add_task failed")
	}
}

func TestNewToolDispatcher_ShouldPanicOnNilRegistry(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil registry")
		}
	}()
	NewToolDispatcher(nil, nil)
}
