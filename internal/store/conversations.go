package store

import (
	"context"
	"database/sql"
	"fmt"

	"taskflow/internal/domain"
)

// SQLConversationStore implements domain.ConversationStore on a SQL database.
type SQLConversationStore struct {
	db *sql.DB
}

// NewSQLConversationStore creates the store and initializes the schema.
func NewSQLConversationStore(db *sql.DB) (*SQLConversationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	s := &SQLConversationStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("conversationstore migrate: %w", err)
	}
	return s, nil
}

func (s *SQLConversationStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL,
			owner_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, owner_id)`)
	return err
}

// CreateConversation implements domain.ConversationStore.
func (s *SQLConversationStore) CreateConversation(ctx context.Context, ownerID string) (domain.Conversation, error) {
	if ownerID == "" {
		return domain.Conversation{}, fmt.Errorf("owner id must not be empty")
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO conversations (owner_id) VALUES (?)", ownerID)
	if err != nil {
		return domain.Conversation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetConversation(ctx, ownerID, id)
}

// GetConversation implements domain.ConversationStore.
func (s *SQLConversationStore) GetConversation(ctx context.Context, ownerID string, id int64) (domain.Conversation, error) {
	var c domain.Conversation
	err := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, created_at, updated_at FROM conversations WHERE id = ? AND owner_id = ?",
		id, ownerID).Scan(&c.ID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return c, err
}

// ListConversations implements domain.ConversationStore. Most recently
// updated conversations come first.
func (s *SQLConversationStore) ListConversations(ctx context.Context, ownerID string) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, created_at, updated_at FROM conversations WHERE owner_id = ? ORDER BY updated_at DESC, id DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConversation implements domain.ConversationStore. Messages go with
// the conversation.
func (s *SQLConversationStore) DeleteConversation(ctx context.Context, ownerID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE id = ? AND owner_id = ?",
		id, ownerID)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE conversation_id = ? AND owner_id = ?",
		id, ownerID)
	return err
}

// AppendMessage implements domain.ConversationStore. The parent conversation
// must exist and belong to the owner.
func (s *SQLConversationStore) AppendMessage(ctx context.Context, ownerID string, conversationID int64, role, content string) (domain.Message, error) {
	if role != domain.RoleUser && role != domain.RoleAssistant {
		return domain.Message{}, fmt.Errorf("unknown message role %q", role)
	}
	if _, err := s.GetConversation(ctx, ownerID, conversationID); err != nil {
		return domain.Message{}, err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, owner_id, role, content) VALUES (?, ?, ?, ?)",
		conversationID, ownerID, role, content)
	if err != nil {
		return domain.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Message{}, fmt.Errorf("get last insert id: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ? AND owner_id = ?",
		conversationID, ownerID)
	if err != nil {
		return domain.Message{}, err
	}

	var m domain.Message
	err = s.db.QueryRowContext(ctx,
		"SELECT id, conversation_id, owner_id, role, content, created_at FROM messages WHERE id = ?",
		id).Scan(&m.ID, &m.ConversationID, &m.OwnerID, &m.Role, &m.Content, &m.CreatedAt)
	return m, err
}

// ListMessages implements domain.ConversationStore. Turn order is insertion
// order (ids are monotonic within a conversation).
func (s *SQLConversationStore) ListMessages(ctx context.Context, ownerID string, conversationID int64) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, conversation_id, owner_id, role, content, created_at FROM messages WHERE conversation_id = ? AND owner_id = ? ORDER BY id",
		conversationID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.OwnerID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ domain.ConversationStore = (*SQLConversationStore)(nil)
