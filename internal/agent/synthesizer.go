package agent

import (
	"fmt"
	"strings"

	"taskflow/internal/domain"
)

// Synthesize converts a tool's structured result into the natural-language
// reply shown to the user. Pure and deterministic; an unrecognized tool name
// gets a generic acknowledgement rather than an error.
func Synthesize(toolName string, result domain.ToolResult) string {
	// An error result must never be phrased as a completed action, whichever
	// tool it came from.
	if result.Status == domain.StatusError {
		return "Sorry, something went wrong. Please try again."
	}

	switch toolName {
	case "add_task":
		return fmt.Sprintf("Added task: '%s' (ID: %s)", result.Title, formatID(result.TaskID))

	case "list_tasks":
		if len(result.Tasks) == 0 {
			return "You have no tasks yet. Try adding one!"
		}
		lines := make([]string, 0, len(result.Tasks))
		for _, t := range result.Tasks {
			status := "pending"
			if t.Completed {
				status = "done"
			}
			lines = append(lines, fmt.Sprintf("  %d. %s [%s]", t.ID, t.Title, status))
		}
		return "Your tasks:\n" + strings.Join(lines, "\n")

	case "complete_task":
		switch result.Status {
		case domain.StatusCompleted:
			return fmt.Sprintf("Marked '%s' as complete!", result.Title)
		case domain.StatusUncompleted:
			return fmt.Sprintf("Marked '%s' as incomplete!", result.Title)
		default:
			return "Task not found."
		}

	case "delete_task":
		if result.Status == domain.StatusDeleted {
			return fmt.Sprintf("Deleted '%s'", result.Title)
		}
		return "Task not found."

	case "update_task":
		if result.Status == domain.StatusUpdated {
			return fmt.Sprintf("Updated task to '%s'", result.Title)
		}
		return "Task not found."

	default:
		return "Done!"
	}
}

func formatID(id *int64) string {
	if id == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *id)
}
