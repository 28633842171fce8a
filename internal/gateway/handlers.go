package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"taskflow/internal/domain"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "TaskFlow API", "status": "running"})
}

// handleCatalog lists the registered tools with their JSON argument schemas,
// for MCP-style clients and for debugging prompts.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.chat.Catalog()})
}

// pathTaskID parses the {task_id} path segment. Writes a 404 and returns
// false when it is not an integer, matching how a missing task reads.
func pathTaskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("task_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return 0, false
	}
	return id, true
}

// =============================================================================
// Task CRUD
// =============================================================================

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListTasks(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.logger.Error("list tasks failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	ownerID := r.PathValue("user_id")
	task, err := s.tasks.CreateTask(r.Context(), ownerID, req.Title)
	if err != nil {
		s.logger.Error("create task failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if req.Completed {
		if task, err = s.tasks.SetCompleted(r.Context(), ownerID, task.ID, true); err != nil {
			s.logger.Error("create task failed", "err", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}
	task, err := s.tasks.GetTask(r.Context(), r.PathValue("user_id"), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		s.logger.Error("get task failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	ownerID := r.PathValue("user_id")

	task, err := s.tasks.GetTask(r.Context(), ownerID, id)
	if err == nil && req.Title != nil {
		task, err = s.tasks.UpdateTask(r.Context(), ownerID, id, *req.Title)
	}
	if err == nil && req.Completed != nil {
		task, err = s.tasks.SetCompleted(r.Context(), ownerID, id, *req.Completed)
	}
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		s.logger.Error("update task failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}
	_, err := s.tasks.DeleteTask(r.Context(), r.PathValue("user_id"), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		s.logger.Error("delete task failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}
	task, err := s.tasks.ToggleTask(r.Context(), r.PathValue("user_id"), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		s.logger.Error("toggle task failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// =============================================================================
// Chat
// =============================================================================

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Response       string                  `json:"response"`
	ToolCalls      []domain.ToolInvocation `json:"tool_calls"`
	ConversationID *int64                  `json:"conversation_id,omitempty"`
}

// handleChat runs one conversational turn. With a conversation store
// configured, the turn is persisted: user message before the LLM call,
// assistant reply after, and prior turns are replayed as context.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusUnprocessableEntity, "message is required")
		return
	}
	ownerID := r.PathValue("user_id")
	ctx := r.Context()

	var history []domain.Message
	var convID *int64
	if s.conversations != nil {
		if req.ConversationID != nil {
			conv, err := s.conversations.GetConversation(ctx, ownerID, *req.ConversationID)
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Conversation not found")
				return
			}
			if err != nil {
				s.logger.Error("get conversation failed", "err", err)
				writeError(w, http.StatusInternalServerError, "database error")
				return
			}
			convID = &conv.ID
		} else {
			conv, err := s.conversations.CreateConversation(ctx, ownerID)
			if err != nil {
				s.logger.Error("create conversation failed", "err", err)
				writeError(w, http.StatusInternalServerError, "database error")
				return
			}
			convID = &conv.ID
		}

		var err error
		history, err = s.conversations.ListMessages(ctx, ownerID, *convID)
		if err != nil {
			s.logger.Error("load history failed", "err", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if _, err := s.conversations.AppendMessage(ctx, ownerID, *convID, domain.RoleUser, req.Message); err != nil {
			s.logger.Error("store user message failed", "err", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
	}

	reply, invocations, err := s.chat.Process(ctx, ownerID, req.Message, history)
	if err != nil {
		// Internal parse attempts and provider errors stay internal; the
		// user sees only a generic processing error.
		s.logger.Error("chat processing failed", "owner", ownerID, "err", err)
		writeError(w, http.StatusInternalServerError, "AI processing error")
		return
	}

	if s.conversations != nil && convID != nil {
		if _, err := s.conversations.AppendMessage(ctx, ownerID, *convID, domain.RoleAssistant, reply); err != nil {
			s.logger.Error("store assistant message failed", "err", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
	}

	if invocations == nil {
		invocations = []domain.ToolInvocation{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:       reply,
		ToolCalls:      invocations,
		ConversationID: convID,
	})
}

// =============================================================================
// Conversations
// =============================================================================

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if s.conversations == nil {
		writeError(w, http.StatusNotFound, "conversation persistence is disabled")
		return
	}
	convs, err := s.conversations.ListConversations(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.logger.Error("list conversations failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if s.conversations == nil {
		writeError(w, http.StatusNotFound, "conversation persistence is disabled")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("conversation_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	err = s.conversations.DeleteConversation(r.Context(), r.PathValue("user_id"), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		s.logger.Error("delete conversation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
