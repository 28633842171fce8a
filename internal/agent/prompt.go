package agent

import "strings"

// SystemPrompt instructs the model to answer with a single JSON function
// call for task operations. The extractor is built to parse exactly this
// contract plus the usual ways models violate it.
const SystemPrompt = `You are a todo list assistant. You help users manage tasks by calling functions.

When user wants to manage tasks, respond with a function call in this JSON format:
{"function": "function_name", "arguments": {"arg": "value"}}

Available functions:
- add_task: Create task. Args: title (string, required)
- list_tasks: Show all tasks. Args: none
- complete_task: Mark done. Args: task_id (number)
- delete_task: Remove task. Args: task_id (number)
- update_task: Edit task. Args: task_id (number), title (string)

Examples:
User: add task buy milk
Response: {"function": "add_task", "arguments": {"title": "buy milk"}}

User: show tasks
Response: {"function": "list_tasks", "arguments": {}}

User: complete task 1
Response: {"function": "complete_task", "arguments": {"task_id": 1}}

User: delete task 2
Response: {"function": "delete_task", "arguments": {"task_id": 2}}

Always respond with JSON for task operations. No other text.`

// HelpMessage is returned when the model produced neither a command nor any
// text to pass through.
const HelpMessage = "I can help you manage tasks. Try: 'add task buy groceries' or 'show tasks'"

// roleLabel maps a stored message role to its prompt transcript label.
func roleLabel(role string) string {
	if role == "assistant" {
		return "Assistant"
	}
	return "User"
}

// buildPrompt flattens system instructions, prior turns, and the current
// message into a single completion prompt.
func buildPrompt(history []historyTurn, message string) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n")
	for _, turn := range history {
		b.WriteString(roleLabel(turn.role))
		b.WriteString(": ")
		b.WriteString(turn.content)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\nResponse:")
	return b.String()
}
