package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taskflow/internal/domain"
	"taskflow/internal/tooling"
)

// =============================================================================
// Test helpers
// =============================================================================

// scriptedProvider returns a fixed completion and records the prompt.
type scriptedProvider struct {
	completion string
	err        error
	lastPrompt string
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.lastPrompt = prompt
	return p.completion, p.err
}

// wordTokenizer counts whitespace-separated words, enough to exercise the
// history budget without a real encoding.
type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func newTestOrchestrator(t *testing.T, completion string, tools ...*recordingTool) (*Orchestrator, *scriptedProvider) {
	t.Helper()
	provider := &scriptedProvider{completion: completion}
	registry := tooling.NewRegistry()
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return NewOrchestrator(provider, NewToolDispatcher(registry, nil)), provider
}

// =============================================================================
// Process tests
// =============================================================================

func TestProcess_ShouldExecuteExtractedCommand(t *testing.T) {
	tool := &recordingTool{
		name:   "add_task",
		result: domain.ToolResult{Status: domain.StatusCreated, TaskID: idPtr(1), Title: "buy milk"},
	}
	orch, provider := newTestOrchestrator(t,
		`{"function": "add_task", "arguments": {"title": "buy milk"}}`, tool)

	reply, invocations, err := orch.Process(context.Background(), "alice", "add task buy milk", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply != "Added task: 'buy milk' (ID: 1)" {
		t.Errorf("reply = %q", reply)
	}
	if tool.lastArgs["user_id"] != "alice" {
		t.Errorf("tool saw user_id %v, want %q", tool.lastArgs["user_id"], "alice")
	}
	if len(invocations) != 1 {
		t.Fatalf("got %d invocations, want 1", len(invocations))
	}
	if !strings.Contains(provider.lastPrompt, "add task buy milk") {
		t.Error("prompt should carry the user message")
	}
}

func TestProcess_ShouldStripOwnerFromAuditTrail(t *testing.T) {
	tool := &recordingTool{
		name:   "complete_task",
		result: domain.ToolResult{Status: domain.StatusCompleted, TaskID: idPtr(3), Title: "walk dog"},
	}
	// The model echoing a user_id must not leak into the audit trail.
	orch, _ := newTestOrchestrator(t,
		`{"function": "complete_task", "arguments": {"task_id": 3, "user_id": "bob"}}`, tool)

	_, invocations, err := orch.Process(context.Background(), "alice", "complete task 3", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(invocations) != 1 {
		t.Fatalf("got %d invocations, want 1", len(invocations))
	}
	if _, ok := invocations[0].Arguments["user_id"]; ok {
		t.Error("audit trail must not contain user_id")
	}
	if invocations[0].Name != "complete_task" {
		t.Errorf("invocation name = %q", invocations[0].Name)
	}
	if invocations[0].Result.Status != domain.StatusCompleted {
		t.Errorf("invocation result status = %q", invocations[0].Result.Status)
	}
}

func TestProcess_ShouldAcknowledgeUnknownToolGenerically(t *testing.T) {
	orch, _ := newTestOrchestrator(t, `{"function": "nonexistent_tool", "arguments": {}}`)

	reply, invocations, err := orch.Process(context.Background(), "alice", "do the thing", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply != "Done!" {
		t.Errorf("reply = %q, want the generic acknowledgement", reply)
	}
	if len(invocations) != 1 {
		t.Fatalf("got %d invocations, want 1", len(invocations))
	}
	if invocations[0].Result.Error != "Unknown tool: nonexistent_tool" {
		t.Errorf("result error = %q", invocations[0].Result.Error)
	}
}

func TestProcess_ShouldFailWhenToolStoreFails(t *testing.T) {
	storeErr := errors.New("sql: database is closed")
	tool := &recordingTool{name: "add_task", err: storeErr}
	orch, _ := newTestOrchestrator(t,
		`{"function": "add_task", "arguments": {"title": "buy milk"}}`, tool)

	// A dead database must become a hard failure, not a reply claiming the
	// task was added.
	reply, _, err := orch.Process(context.Background(), "alice", "add task buy milk", nil)
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped %v", err, storeErr)
	}
	if reply != "" {
		t.Errorf("reply = %q, want empty on failure", reply)
	}
}

func TestProcess_ShouldPassThroughPlainCompletion(t *testing.T) {
	orch, _ := newTestOrchestrator(t, "  Hello! I can track your tasks.  ")

	reply, invocations, err := orch.Process(context.Background(), "alice", "hi", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply != "Hello! I can track your tasks." {
		t.Errorf("reply = %q", reply)
	}
	if invocations != nil {
		t.Errorf("expected no invocations, got %v", invocations)
	}
}

func TestProcess_ShouldFallBackToHelpOnEmptyCompletion(t *testing.T) {
	orch, _ := newTestOrchestrator(t, "   \n ")

	reply, _, err := orch.Process(context.Background(), "alice", "hi", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply != HelpMessage {
		t.Errorf("reply = %q, want help message", reply)
	}
}

func TestProcess_ShouldPropagateProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("api unreachable")}
	orch := NewOrchestrator(provider, NewToolDispatcher(tooling.NewRegistry(), nil))

	_, _, err := orch.Process(context.Background(), "alice", "hi", nil)
	if err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestProcess_ShouldReplayHistoryInPrompt(t *testing.T) {
	orch, provider := newTestOrchestrator(t, "sure")

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "add task buy milk"},
		{Role: domain.RoleAssistant, Content: "Added task: 'buy milk' (ID: 1)"},
	}
	if _, _, err := orch.Process(context.Background(), "alice", "what did I add?", history); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(provider.lastPrompt, "User: add task buy milk\n") {
		t.Error("prompt should replay the user turn")
	}
	if !strings.Contains(provider.lastPrompt, "Assistant: Added task: 'buy milk' (ID: 1)\n") {
		t.Error("prompt should replay the assistant turn")
	}
}

func TestProcess_ShouldDropOldestTurnsOverBudget(t *testing.T) {
	provider := &scriptedProvider{completion: "ok"}
	orch := NewOrchestrator(provider, NewToolDispatcher(tooling.NewRegistry(), nil),
		WithHistoryBudget(wordTokenizer{}, 6))

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "oldest turn should vanish"},
		{Role: domain.RoleAssistant, Content: "kept reply"},
	}
	// message (2 words) + "kept reply" (2 words) fits the budget of 6;
	// adding the 4-word oldest turn would not.
	if _, _, err := orch.Process(context.Background(), "alice", "new question", history); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if strings.Contains(provider.lastPrompt, "oldest turn should vanish") {
		t.Error("oldest turn should have been dropped")
	}
	if !strings.Contains(provider.lastPrompt, "kept reply") {
		t.Error("newest turn should have been kept")
	}
}

// =============================================================================
// Prompt tests
// =============================================================================

func TestBuildPrompt_ShouldEndWithResponseCue(t *testing.T) {
	prompt := buildPrompt(nil, "show tasks")
	if !strings.HasPrefix(prompt, SystemPrompt) {
		t.Error("prompt should start with the system instructions")
	}
	if !strings.HasSuffix(prompt, "User: show tasks\nResponse:") {
		t.Errorf("prompt tail = %q", prompt[len(prompt)-40:])
	}
}
