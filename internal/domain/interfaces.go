package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when no row matches both id and owner.
// A task belonging to another user is indistinguishable from a missing one.
var ErrNotFound = errors.New("not found")

// LLMProvider is the model-agnostic interface for text generation.
// Implementations may be Groq, OpenAI, local models, or mocks.
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TaskStore persists tasks. Every method takes the owner id, so it is
// structurally impossible to touch a task without naming its owner.
type TaskStore interface {
	// CreateTask inserts a task with completed=false. The id is generated
	// by the database, never by application code.
	CreateTask(ctx context.Context, ownerID, title string) (Task, error)

	// ListTasks returns the owner's tasks in creation order.
	ListTasks(ctx context.Context, ownerID string) ([]Task, error)

	// GetTask returns the task matching both id and owner, or ErrNotFound.
	GetTask(ctx context.Context, ownerID string, id int64) (Task, error)

	// ToggleTask flips the completed flag and returns the updated task,
	// or ErrNotFound.
	ToggleTask(ctx context.Context, ownerID string, id int64) (Task, error)

	// UpdateTask replaces the title and returns the updated task, or ErrNotFound.
	UpdateTask(ctx context.Context, ownerID string, id int64, title string) (Task, error)

	// SetCompleted sets the completed flag to an explicit value (REST boundary
	// uses this for PUT updates). Returns ErrNotFound when no row matches.
	SetCompleted(ctx context.Context, ownerID string, id int64, completed bool) (Task, error)

	// DeleteTask removes the task and returns it as it was, or ErrNotFound.
	DeleteTask(ctx context.Context, ownerID string, id int64) (Task, error)
}

// ConversationStore persists chat threads and their ordered messages.
// Same owner-scoping rule as TaskStore.
type ConversationStore interface {
	CreateConversation(ctx context.Context, ownerID string) (Conversation, error)
	GetConversation(ctx context.Context, ownerID string, id int64) (Conversation, error)
	ListConversations(ctx context.Context, ownerID string) ([]Conversation, error)
	DeleteConversation(ctx context.Context, ownerID string, id int64) error

	// AppendMessage adds one turn to a conversation. Messages are never
	// mutated afterwards.
	AppendMessage(ctx context.Context, ownerID string, conversationID int64, role, content string) (Message, error)

	// ListMessages returns a conversation's messages in turn order.
	ListMessages(ctx context.Context, ownerID string, conversationID int64) ([]Message, error)
}

// Tokenizer counts tokens in a string for prompt window budgeting.
type Tokenizer interface {
	// CountTokens returns the number of tokens in the given text.
	CountTokens(text string) (int, error)
}
