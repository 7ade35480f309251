package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todoweb/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByUser returns the user's tasks, newest first, narrowed by the filter.
func (r *TaskRepository) ListByUser(ctx context.Context, userID int64, f domain.TaskFilter) ([]domain.Task, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM tasks WHERE user_id = $1`)
	args := []any{userID}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		fmt.Fprintf(&sb, ` AND (title ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		fmt.Fprintf(&sb, ` AND created_at >= $%d`, len(args))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		fmt.Fprintf(&sb, ` AND created_at < $%d`, len(args))
	}
	sb.WriteString(` ORDER BY created_at DESC`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO tasks (user_id, title, description, completed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		t.UserID, t.Title, t.Description, t.Completed,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID is ownership-scoped: a task belonging to another user is not found.
func (r *TaskRepository) GetByID(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, title, description, completed, created_at, updated_at
		 FROM tasks
		 WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)

	var t domain.Task
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	result, err := r.db.Exec(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, completed = $3, updated_at = now()
		 WHERE id = $4 AND user_id = $5`,
		t.Title, t.Description, t.Completed, t.ID, t.UserID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleCompleted flips the completed flag and returns the new value.
func (r *TaskRepository) ToggleCompleted(ctx context.Context, userID, taskID int64) (bool, error) {
	var completed bool
	err := r.db.QueryRow(ctx,
		`UPDATE tasks
		 SET completed = NOT completed, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING completed`,
		taskID, userID,
	).Scan(&completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return completed, nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID int64) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
