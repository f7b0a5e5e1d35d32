package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluefn/spind/internal/model"
)

// CreateTask inserts a new build task.
func (r *Repository) CreateTask(ctx context.Context, t model.BuildTask) error {
	if err := t.Validate(); err != nil {
		return err
	}

	var artifactRef, imageRef string
	if t.Result != nil {
		artifactRef = t.Result.ArtifactRef
		imageRef = t.Result.ImageRef
	}

	query := `
		INSERT INTO build_tasks (
			id, workspace_id, source_ref, status,
			artifact_ref, image_ref, error, lease,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.WorkspaceID,
		t.SourceRef,
		t.Status,
		artifactRef,
		imageRef,
		t.Error,
		t.CreatedAt.Unix(),
		t.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: build_tasks.") {
			return fmt.Errorf("task already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task: %w", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return nil
}

// GetTask retrieves a task by workspace and id. The workspace must match,
// a task id alone never resolves across workspaces.
func (r *Repository) GetTask(ctx context.Context, workspaceID, taskID string) (*model.BuildTask, error) {
	query := `
		SELECT id, workspace_id, source_ref, status,
			artifact_ref, image_ref, error,
			created_at, updated_at
		FROM build_tasks
		WHERE workspace_id = ? AND id = ?
	`

	row := r.db.QueryRowContext(ctx, query, workspaceID, taskID)
	task, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s in workspace %s: %w", taskID, workspaceID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	return &task, nil
}

// ListTasks returns all tasks of a workspace, most recent first.
func (r *Repository) ListTasks(ctx context.Context, workspaceID string) ([]model.BuildTask, error) {
	query := `
		SELECT id, workspace_id, source_ref, status,
			artifact_ref, image_ref, error,
			created_at, updated_at
		FROM build_tasks
		WHERE workspace_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.BuildTask
	for rows.Next() {
		task, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

// UpdateTask updates an existing task.
func (r *Repository) UpdateTask(ctx context.Context, t model.BuildTask) error {
	if err := t.Validate(); err != nil {
		return err
	}

	var artifactRef, imageRef string
	if t.Result != nil {
		artifactRef = t.Result.ArtifactRef
		imageRef = t.Result.ImageRef
	}

	query := `
		UPDATE build_tasks
		SET
			source_ref = ?,
			status = ?,
			artifact_ref = ?,
			image_ref = ?,
			error = ?,
			updated_at = ?
		WHERE workspace_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		t.SourceRef,
		t.Status,
		artifactRef,
		imageRef,
		t.Error,
		t.UpdatedAt.Unix(),
		t.WorkspaceID,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated task in repository: %s (status: %s)", t.ID, t.Status)
	return nil
}

// AcquireLease claims a task with a compare-and-set on the lease column.
func (r *Repository) AcquireLease(ctx context.Context, taskID string) (bool, error) {
	query := `UPDATE build_tasks SET lease = 1 WHERE id = ? AND lease = 0`

	result, err := r.db.ExecContext(ctx, query, taskID)
	if err != nil {
		return false, fmt.Errorf("could not acquire lease: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 1 {
		return true, nil
	}

	// Either the lease is already held or the task doesn't exist.
	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM build_tasks WHERE id = ?)`, taskID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check task existence: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}

	return false, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(s scanner) (model.BuildTask, error) {
	var task model.BuildTask
	var artifactRef, imageRef string
	var createdAt, updatedAt int64

	err := s.Scan(
		&task.ID,
		&task.WorkspaceID,
		&task.SourceRef,
		&task.Status,
		&artifactRef,
		&imageRef,
		&task.Error,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.BuildTask{}, err
	}

	if artifactRef != "" || imageRef != "" {
		task.Result = &model.TaskResult{ArtifactRef: artifactRef, ImageRef: imageRef}
	}
	task.CreatedAt = time.Unix(createdAt, 0).UTC()
	task.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return task, nil
}
