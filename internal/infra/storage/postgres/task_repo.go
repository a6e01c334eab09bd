package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage"
)

// TaskRepo implements storage.TaskRepository using PostgreSQL.
type TaskRepo struct {
	db *DB
}

// NewTaskRepo creates a new PostgreSQL task repository.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// Save inserts a new task row.
func (r *TaskRepo) Save(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (id, url, state, attempts, last_error, next_retry_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.URL, t.State, t.Attempts, t.LastError, t.NextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// Update persists a state transition.
func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `
		UPDATE tasks
		SET state = $2, attempts = $3, last_error = $4, next_retry_at = $5, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.State, t.Attempts, t.LastError, t.NextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// GetByURL retrieves the task for a URL, or ErrNotFound.
func (r *TaskRepo) GetByURL(ctx context.Context, url string) (*domain.Task, error) {
	query := `
		SELECT id, url, state, attempts, last_error, next_retry_at, created_at, updated_at
		FROM tasks
		WHERE url = $1
	`
	var t domain.Task
	err := r.db.GetContext(ctx, &t, query, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// LoadResumable returns every task still subject to scheduling. Stored,
// failed and abandoned rows stay behind for audit.
func (r *TaskRepo) LoadResumable(ctx context.Context) ([]*domain.Task, error) {
	query := `
		SELECT id, url, state, attempts, last_error, next_retry_at, created_at, updated_at
		FROM tasks
		WHERE state NOT IN ('stored', 'failed', 'abandoned')
		ORDER BY created_at ASC
	`
	var tasks []*domain.Task
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("failed to load resumable tasks: %w", err)
	}
	return tasks, nil
}

// CountByState returns task counts grouped by state.
func (r *TaskRepo) CountByState(ctx context.Context) (map[domain.TaskState]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM tasks GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TaskState]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[domain.TaskState(state)] = n
	}
	return counts, rows.Err()
}
