package gateway

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"taskflow/internal/domain"
)

// WSMessage is the JSON message protocol for the WebSocket chat channel.
// Example: {"type": "chat", "content": "add task buy milk"}
type WSMessage struct {
	Type      string                  `json:"type"`
	Content   string                  `json:"content"`
	ToolCalls []domain.ToolInvocation `json:"tool_calls,omitempty"`
}

// Default upgrader for WebSocket connections.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS upgrades the request and runs a read loop: each "chat" frame is
// one stateless conversational turn for the authenticated path user, and the
// reply frame carries the synthesized response plus the tool audit trail.
// Writes are serialized with a mutex.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ownerID := r.PathValue("user_id")
	var writeMu sync.Mutex

	for {
		var in WSMessage
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("ws read failed", "err", err)
			}
			return
		}
		if in.Type != "chat" || in.Content == "" {
			s.writeWS(conn, &writeMu, WSMessage{Type: "error", Content: "expected {\"type\":\"chat\",\"content\":...}"})
			continue
		}

		reply, invocations, err := s.chat.Process(r.Context(), ownerID, in.Content, nil)
		if err != nil {
			s.logger.Error("ws chat processing failed", "owner", ownerID, "err", err)
			s.writeWS(conn, &writeMu, WSMessage{Type: "error", Content: "AI processing error"})
			continue
		}
		s.writeWS(conn, &writeMu, WSMessage{Type: "chat", Content: reply, ToolCalls: invocations})
	}
}

func (s *Server) writeWS(conn *websocket.Conn, mu *sync.Mutex, msg WSMessage) {
	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("ws write failed", "err", err)
	}
}
