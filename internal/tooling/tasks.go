package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taskflow/internal/domain"
)

// Argument shapes for the five task tools. user_id is always required and is
// injected by the dispatcher, never sourced from the LLM.

type addTaskArgs struct {
	UserID string `json:"user_id" jsonschema_description:"The user's ID"`
	Title  string `json:"title" jsonschema:"minLength=1" jsonschema_description:"The title/content of the task"`
}

type listTasksArgs struct {
	UserID string `json:"user_id" jsonschema_description:"The user's ID"`
}

type taskIDArgs struct {
	UserID string `json:"user_id" jsonschema_description:"The user's ID"`
	TaskID int64  `json:"task_id" jsonschema_description:"The ID of the task"`
}

type updateTaskArgs struct {
	UserID string `json:"user_id" jsonschema_description:"The user's ID"`
	TaskID int64  `json:"task_id" jsonschema_description:"The ID of the task to update"`
	Title  string `json:"title" jsonschema:"minLength=1" jsonschema_description:"New content for the task"`
}

// NewTaskRegistry returns a registry with all five task tools bound to the
// given store.
func NewTaskRegistry(store domain.TaskStore) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("task store must not be nil")
	}
	r := NewRegistry()
	for _, t := range []Tool{
		&AddTaskTool{store: store},
		&ListTasksTool{store: store},
		&CompleteTaskTool{store: store},
		&DeleteTaskTool{store: store},
		&UpdateTaskTool{store: store},
	} {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// notFoundResult is the uniform outcome for a missing task. Cross-owner
// access lands here too; the wording never distinguishes the two.
func notFoundResult(taskID int64) domain.ToolResult {
	return domain.ToolResult{
		Status: domain.StatusNotFound,
		TaskID: &taskID,
		Error:  fmt.Sprintf("Task %d not found", taskID),
	}
}

// =============================================================================
// add_task
// =============================================================================

type AddTaskTool struct {
	store domain.TaskStore
}

func (t *AddTaskTool) Name() string { return "add_task" }

func (t *AddTaskTool) Description() string { return "Create a new task for the user" }

func (t *AddTaskTool) Definition() string { return GenerateSchema(addTaskArgs{}) }

func (t *AddTaskTool) Call(ctx context.Context, raw json.RawMessage) (domain.ToolResult, error) {
	var args addTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return domain.ToolResult{}, fmt.Errorf("add_task: parse args: %w", err)
	}
	task, err := t.store.CreateTask(ctx, args.UserID, args.Title)
	if err != nil {
		return domain.ToolResult{}, err
	}
	return domain.ToolResult{
		Status: domain.StatusCreated,
		TaskID: &task.ID,
		Title:  task.Title,
	}, nil
}

// =============================================================================
// list_tasks
// =============================================================================

type ListTasksTool struct {
	store domain.TaskStore
}

func (t *ListTasksTool) Name() string { return "list_tasks" }

func (t *ListTasksTool) Description() string { return "List all tasks for a user" }

func (t *ListTasksTool) Definition() string { return GenerateSchema(listTasksArgs{}) }

func (t *ListTasksTool) Call(ctx context.Context, raw json.RawMessage) (domain.ToolResult, error) {
	var args listTasksArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return domain.ToolResult{}, fmt.Errorf("list_tasks: parse args: %w", err)
	}
	tasks, err := t.store.ListTasks(ctx, args.UserID)
	if err != nil {
		return domain.ToolResult{}, err
	}
	views := make([]domain.TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, domain.TaskView{ID: task.ID, Title: task.Title, Completed: task.Completed})
	}
	return domain.ToolResult{Tasks: views, Count: len(views)}, nil
}

// =============================================================================
// complete_task
// =============================================================================

// CompleteTaskTool toggles the completed flag. This is deliberately not an
// idempotent "set done": calling it twice returns the task to its original
// state, and the status reports which way it flipped.
type CompleteTaskTool struct {
	store domain.TaskStore
}

func (t *CompleteTaskTool) Name() string { return "complete_task" }

func (t *CompleteTaskTool) Description() string { return "Mark a task as completed" }

func (t *CompleteTaskTool) Definition() string { return GenerateSchema(taskIDArgs{}) }

func (t *CompleteTaskTool) Call(ctx context.Context, raw json.RawMessage) (domain.ToolResult, error) {
	var args taskIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return domain.ToolResult{}, fmt.Errorf("complete_task: parse args: %w", err)
	}
	task, err := t.store.ToggleTask(ctx, args.UserID, args.TaskID)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundResult(args.TaskID), nil
	}
	if err != nil {
		return domain.ToolResult{}, err
	}
	status := domain.StatusUncompleted
	if task.Completed {
		status = domain.StatusCompleted
	}
	return domain.ToolResult{Status: status, TaskID: &task.ID, Title: task.Title}, nil
}

// =============================================================================
// delete_task
// =============================================================================

type DeleteTaskTool struct {
	store domain.TaskStore
}

func (t *DeleteTaskTool) Name() string { return "delete_task" }

func (t *DeleteTaskTool) Description() string { return "Delete a task" }

func (t *DeleteTaskTool) Definition() string { return GenerateSchema(taskIDArgs{}) }

func (t *DeleteTaskTool) Call(ctx context.Context, raw json.RawMessage) (domain.ToolResult, error) {
	var args taskIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return domain.ToolResult{}, fmt.Errorf("delete_task: parse args: %w", err)
	}
	task, err := t.store.DeleteTask(ctx, args.UserID, args.TaskID)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundResult(args.TaskID), nil
	}
	if err != nil {
		return domain.ToolResult{}, err
	}
	return domain.ToolResult{Status: domain.StatusDeleted, TaskID: &args.TaskID, Title: task.Title}, nil
}

// =============================================================================
// update_task
// =============================================================================

type UpdateTaskTool struct {
	store domain.TaskStore
}

func (t *UpdateTaskTool) Name() string { return "update_task" }

func (t *UpdateTaskTool) Description() string { return "Update a task's content" }

func (t *UpdateTaskTool) Definition() string { return GenerateSchema(updateTaskArgs{}) }

func (t *UpdateTaskTool) Call(ctx context.Context, raw json.RawMessage) (domain.ToolResult, error) {
	var args updateTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return domain.ToolResult{}, fmt.Errorf("update_task: parse args: %w", err)
	}
	task, err := t.store.UpdateTask(ctx, args.UserID, args.TaskID, args.Title)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundResult(args.TaskID), nil
	}
	if err != nil {
		return domain.ToolResult{}, err
	}
	return domain.ToolResult{Status: domain.StatusUpdated, TaskID: &task.ID, Title: task.Title}, nil
}
