// Package store persists tasks and conversations in SQLite/libSQL.
//
// Every query filters by owner_id as well as id. That is the whole
// cross-user isolation story: a row owned by someone else never matches, so
// callers see domain.ErrNotFound whether the task is missing or foreign.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"taskflow/internal/domain"
)

// SQLTaskStore implements domain.TaskStore on a SQL database.
type SQLTaskStore struct {
	db *sql.DB
}

// NewSQLTaskStore creates the store and initializes the schema.
// Returns an error if db is nil or if the migration fails.
func NewSQLTaskStore(db *sql.DB) (*SQLTaskStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	s := &SQLTaskStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("taskstore migrate: %w", err)
	}
	return s, nil
}

// migrate creates the tasks table if it doesn't exist. Ids are
// AUTOINCREMENT so the database, not application code, generates them.
func (s *SQLTaskStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id)`)
	return err
}

// CreateTask implements domain.TaskStore.
func (s *SQLTaskStore) CreateTask(ctx context.Context, ownerID, title string) (domain.Task, error) {
	if ownerID == "" {
		return domain.Task{}, fmt.Errorf("owner id must not be empty")
	}
	if title == "" {
		return domain.Task{}, fmt.Errorf("task title must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (owner_id, title, completed) VALUES (?, ?, 0)",
		ownerID, title)
	if err != nil {
		return domain.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Task{}, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetTask(ctx, ownerID, id)
}

// ListTasks implements domain.TaskStore. Tasks come back in creation order.
func (s *SQLTaskStore) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, title, completed, created_at FROM tasks WHERE owner_id = ? ORDER BY id",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask implements domain.TaskStore.
func (s *SQLTaskStore) GetTask(ctx context.Context, ownerID string, id int64) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, title, completed, created_at FROM tasks WHERE id = ? AND owner_id = ?",
		id, ownerID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return domain.Task{}, domain.ErrNotFound
	}
	return t, err
}

// ToggleTask implements domain.TaskStore. The flip happens in a single
// UPDATE so concurrent toggles cannot lose a write.
func (s *SQLTaskStore) ToggleTask(ctx context.Context, ownerID string, id int64) (domain.Task, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET completed = 1 - completed WHERE id = ? AND owner_id = ?",
		id, ownerID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := requireRow(res); err != nil {
		return domain.Task{}, err
	}
	return s.GetTask(ctx, ownerID, id)
}

// UpdateTask implements domain.TaskStore.
func (s *SQLTaskStore) UpdateTask(ctx context.Context, ownerID string, id int64, title string) (domain.Task, error) {
	if title == "" {
		return domain.Task{}, fmt.Errorf("task title must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET title = ? WHERE id = ? AND owner_id = ?",
		title, id, ownerID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := requireRow(res); err != nil {
		return domain.Task{}, err
	}
	return s.GetTask(ctx, ownerID, id)
}

// SetCompleted implements domain.TaskStore.
func (s *SQLTaskStore) SetCompleted(ctx context.Context, ownerID string, id int64, completed bool) (domain.Task, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET completed = ? WHERE id = ? AND owner_id = ?",
		completed, id, ownerID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := requireRow(res); err != nil {
		return domain.Task{}, err
	}
	return s.GetTask(ctx, ownerID, id)
}

// DeleteTask implements domain.TaskStore. Returns the task as it was so the
// caller can name it in the reply.
func (s *SQLTaskStore) DeleteTask(ctx context.Context, ownerID string, id int64) (domain.Task, error) {
	t, err := s.GetTask(ctx, ownerID, id)
	if err != nil {
		return domain.Task{}, err
	}
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND owner_id = ?",
		id, ownerID)
	if err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// requireRow maps "no rows touched" to domain.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (domain.Task, error) {
	var t domain.Task
	var completed int
	if err := r.Scan(&t.ID, &t.OwnerID, &t.Title, &completed, &t.CreatedAt); err != nil {
		return domain.Task{}, err
	}
	t.Completed = completed != 0
	return t, nil
}

var _ domain.TaskStore = (*SQLTaskStore)(nil)
