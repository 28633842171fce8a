package domain

import "time"

// =============================================================================
// Core Configuration
// =============================================================================

type Config struct {
	Gateway  GatewayConfig  `json:"gateway"`
	Agents   AgentsConfig   `json:"agents"`
	Database DatabaseConfig `json:"database"`
	Infra    InfraConfig    `json:"infra"`
	Retry    RetryConfig    `json:"retry"`
}

type GatewayConfig struct {
	Port int        `json:"port"`
	Auth AuthConfig `json:"auth"`
}

type AuthConfig struct {
	Mode      string `json:"mode"`                // "token" | "none"
	AuthToken string `json:"authToken,omitempty"` // When mode is "token", gateway requires Authorization: Bearer <authToken>
	Subject   string `json:"subject,omitempty"`   // User id the static token authenticates as
}

type AgentsConfig struct {
	Provider      string `json:"provider"` // "groq" | "openai" | "ollama" | "local"
	DefaultModel  string `json:"defaultModel"`
	HistoryBudget int    `json:"historyBudget,omitempty"` // Max history tokens replayed into the prompt (0 = unlimited)
}

type DatabaseConfig struct {
	URL string `json:"url"` // "file:taskflow.db" or "libsql://<db>.turso.io?authToken=..."
}

type InfraConfig struct {
	LogFormat string `json:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel"`
}

// RetryConfig controls retry behaviour for waking a suspended database at startup.
type RetryConfig struct {
	MaxRetries     int `json:"maxRetries"`     // Maximum retry attempts (0 = no retries)
	InitialBackoff int `json:"initialBackoff"` // Initial backoff in milliseconds
	MaxBackoff     int `json:"maxBackoff"`     // Maximum backoff in milliseconds
	Multiplier     int `json:"multiplier"`     // Backoff multiplier (e.g. 2 for exponential doubling)
}

// =============================================================================
// Task Domain
// =============================================================================

// Task is a persisted todo item. Every task belongs to exactly one owner and
// is only ever read or written through queries that name both id and owner.
type Task struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Command is the structured {function, arguments} record recovered from raw
// LLM text. Arguments are unvalidated until dispatch.
type Command struct {
	Function  string         `json:"function"`
	Arguments map[string]any `json:"arguments"`
}

// ResultStatus enumerates tool outcome statuses.
type ResultStatus string

const (
	StatusCreated     ResultStatus = "created"
	StatusUpdated     ResultStatus = "updated"
	StatusCompleted   ResultStatus = "completed"
	StatusUncompleted ResultStatus = "uncompleted"
	StatusDeleted     ResultStatus = "deleted"
	StatusNotFound    ResultStatus = "not_found"
	StatusError       ResultStatus = "error"
)

// TaskView is the task shape embedded in list_tasks results.
type TaskView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// ToolResult is the structured outcome of one dispatched tool invocation.
// TaskID is a pointer so "no task involved" serializes as null. Tasks and
// Count always serialize, so an empty listing reads as {"tasks": [], "count": 0}
// rather than vanishing from the audit trail.
type ToolResult struct {
	Status ResultStatus `json:"status,omitempty"`
	TaskID *int64       `json:"task_id,omitempty"`
	Title  string       `json:"title,omitempty"`
	Tasks  []TaskView   `json:"tasks"`
	Count  int          `json:"count"`
	Error  string       `json:"error,omitempty"`
}

// ToolInvocation is one audit entry in a chat response. Arguments never
// include the injected user_id.
type ToolInvocation struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    ToolResult     `json:"result"`
}

// ToolDefinition describes a registered tool for prompting and for
// MCP-style catalog listing.
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"` // JSON Schema document
}

// =============================================================================
// Conversation Domain
// =============================================================================

// Conversation groups the messages of one chat thread for one owner.
type Conversation struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"-"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Message roles as stored and replayed into the prompt.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one persisted conversation turn. Messages are append-only and
// ordered by id within a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	OwnerID        string    `json:"-"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}
